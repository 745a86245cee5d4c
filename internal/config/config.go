package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AdapterConfig represents one logging adapter entry in the config file
type AdapterConfig struct {
	Name    string                 `yaml:"name"`
	Type    string                 `yaml:"type"`
	Enabled bool                   `yaml:"enabled"`
	Options map[string]interface{} `yaml:"options"`
}

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	Workers struct {
		PoolSize   int           `yaml:"pool_size" default:"11"`  // ~one worker per registry site
		QueueSize  int           `yaml:"queue_size" default:"100"`
		RateLimit  int           `yaml:"rate_limit" default:"60"` // requests per minute per site domain
		Timeout    time.Duration `yaml:"timeout" default:"180s"`  // wall-clock bound for one site task
		MaxRetries int           `yaml:"max_retries" default:"4"` // Crane-family attempt budget
	} `yaml:"workers"`

	BackgroundTasks struct {
		MaxConcurrentTasks int           `yaml:"max_concurrent_tasks" default:"50"`
		TaskTimeout        time.Duration `yaml:"task_timeout" default:"600s"`
		CleanupInterval    time.Duration `yaml:"cleanup_interval" default:"1h"`
		MaxTaskAge         time.Duration `yaml:"max_task_age" default:"24h"`
	} `yaml:"background_tasks"`

	Scraper struct {
		UserAgents      []string      `yaml:"user_agents"` // rotated per session
		ProxyURL        string        `yaml:"proxy_url"`
		ChromePath      string        `yaml:"chrome_path"`
		HeadlessMode    bool          `yaml:"headless_mode" default:"true"`
		StealthMode     bool          `yaml:"stealth_mode" default:"true"`
		DisableImages   bool          `yaml:"disable_images" default:"true"`
		WindowWidth     int           `yaml:"window_width" default:"1366"`
		WindowHeight    int           `yaml:"window_height" default:"768"`
		PageLoadTimeout time.Duration `yaml:"page_load_timeout" default:"15s"`
		ElementTimeout  time.Duration `yaml:"element_timeout" default:"5s"`
		Language        string        `yaml:"language" default:"en-NG"`

		Geolocation struct {
			Latitude  float64 `yaml:"latitude" default:"6.5244"`
			Longitude float64 `yaml:"longitude" default:"3.3792"`
			Accuracy  int     `yaml:"accuracy" default:"100"`
		} `yaml:"geolocation"`

		DebugScreenshots bool   `yaml:"debug_screenshots"`
		ScreenshotDir    string `yaml:"screenshot_dir" default:"./debug/screenshots"`

		Captcha struct {
			Provider        string        `yaml:"provider" default:"2captcha"`
			APIKey          string        `yaml:"api_key"`
			Timeout         time.Duration `yaml:"timeout" default:"120s"`
			PollingInterval time.Duration `yaml:"polling_interval" default:"10s"`
			EnableAutoSolve bool          `yaml:"enable_auto_solve" default:"true"`
		} `yaml:"captcha"`
	} `yaml:"scraper"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []AdapterConfig `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`

	Cache struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		TTL     time.Duration `yaml:"ttl" default:"5m"`
	} `yaml:"cache"`

	Callback struct {
		Timeout    time.Duration `yaml:"timeout" default:"30s"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
		Enabled    bool          `yaml:"enabled" default:"true"`
	} `yaml:"callback"`

	// Spaces holds DigitalOcean Spaces credentials for shipping failure
	// screenshots off ephemeral scraper containers. Uploads stay disabled
	// until credentials and a bucket are configured.
	Spaces struct {
		AccessKeyID     string `yaml:"access_key_id"`
		AccessKeySecret string `yaml:"access_key_secret"`
		Region          string `yaml:"region" default:"fra1"`
		BucketName      string `yaml:"bucket_name"`
		BucketURL       string `yaml:"bucket_url"`
		CDNEndpoint     string `yaml:"cdn_endpoint"`
	} `yaml:"spaces"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Workers.PoolSize = 11
	config.Workers.QueueSize = 100
	config.Workers.RateLimit = 60
	config.Workers.Timeout = 180 * time.Second
	config.Workers.MaxRetries = 4

	config.BackgroundTasks.MaxConcurrentTasks = 50
	config.BackgroundTasks.TaskTimeout = 600 * time.Second
	config.BackgroundTasks.CleanupInterval = 1 * time.Hour
	config.BackgroundTasks.MaxTaskAge = 24 * time.Hour

	config.Scraper.HeadlessMode = true
	config.Scraper.StealthMode = true
	config.Scraper.DisableImages = true
	config.Scraper.WindowWidth = 1366
	config.Scraper.WindowHeight = 768
	config.Scraper.PageLoadTimeout = 15 * time.Second
	config.Scraper.ElementTimeout = 5 * time.Second
	config.Scraper.Language = "en-NG"
	config.Scraper.Geolocation.Latitude = 6.5244
	config.Scraper.Geolocation.Longitude = 3.3792
	config.Scraper.Geolocation.Accuracy = 100
	config.Scraper.ScreenshotDir = "./debug/screenshots"

	config.Scraper.Captcha.Provider = "2captcha"
	config.Scraper.Captcha.Timeout = 120 * time.Second
	config.Scraper.Captcha.PollingInterval = 10 * time.Second
	config.Scraper.Captcha.EnableAutoSolve = true

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	config.Cache.Enabled = true
	config.Cache.TTL = 5 * time.Minute

	config.Callback.Timeout = 30 * time.Second
	config.Callback.MaxRetries = 3
	config.Callback.Enabled = true

	config.Spaces.Region = "fra1"

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			// Expand environment variables in the YAML content
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if poolSize := os.Getenv("WORKERS_POOL_SIZE"); poolSize != "" {
		if size, err := strconv.Atoi(poolSize); err == nil {
			c.Workers.PoolSize = size
		}
	}

	if maxRetries := os.Getenv("WORKERS_MAX_RETRIES"); maxRetries != "" {
		if retries, err := strconv.Atoi(maxRetries); err == nil {
			c.Workers.MaxRetries = retries
		}
	}

	if taskTimeout := os.Getenv("WORKERS_TIMEOUT"); taskTimeout != "" {
		if timeout, err := time.ParseDuration(taskTimeout); err == nil {
			c.Workers.Timeout = timeout
		}
	}

	if captchaAPIKey := os.Getenv("CAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Scraper.Captcha.APIKey = captchaAPIKey
	}

	// Also support 2CAPTCHA_API_KEY for compatibility
	if captchaAPIKey := os.Getenv("2CAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Scraper.Captcha.APIKey = captchaAPIKey
	}

	if chromePath := os.Getenv("CHROME_BIN"); chromePath != "" {
		c.Scraper.ChromePath = chromePath
	}

	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		c.Scraper.ChromePath = chromePath
	}

	if proxyURL := os.Getenv("PROXY_IP"); proxyURL != "" {
		c.Scraper.ProxyURL = proxyURL
	}

	if headless := os.Getenv("HEADLESS_MODE"); headless != "" {
		c.Scraper.HeadlessMode = headless == "true" || headless == "1"
	}

	if debugShots := os.Getenv("DEBUG_SCREENSHOTS"); debugShots != "" {
		c.Scraper.DebugScreenshots = debugShots == "true" || debugShots == "1"
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if cacheEnabled := os.Getenv("CACHE_ENABLED"); cacheEnabled != "" {
		c.Cache.Enabled = cacheEnabled == "true" || cacheEnabled == "1"
	}

	if cacheTTL := os.Getenv("CACHE_TTL"); cacheTTL != "" {
		if ttl, err := time.ParseDuration(cacheTTL); err == nil {
			c.Cache.TTL = ttl
		}
	}

	if callbackTimeout := os.Getenv("CALLBACK_TIMEOUT"); callbackTimeout != "" {
		if timeout, err := time.ParseDuration(callbackTimeout); err == nil {
			c.Callback.Timeout = timeout
		}
	}

	if callbackMaxRetries := os.Getenv("CALLBACK_MAX_RETRIES"); callbackMaxRetries != "" {
		if retries, err := strconv.Atoi(callbackMaxRetries); err == nil {
			c.Callback.MaxRetries = retries
		}
	}

	if callbackEnabled := os.Getenv("CALLBACK_ENABLED"); callbackEnabled != "" {
		c.Callback.Enabled = callbackEnabled == "true" || callbackEnabled == "1"
	}

	if accessKeyID := os.Getenv("SPACES_ACCESS_KEY_ID"); accessKeyID != "" {
		c.Spaces.AccessKeyID = accessKeyID
	}

	if accessKeySecret := os.Getenv("SPACES_ACCESS_KEY_SECRET"); accessKeySecret != "" {
		c.Spaces.AccessKeySecret = accessKeySecret
	}

	if region := os.Getenv("SPACES_REGION"); region != "" {
		c.Spaces.Region = region
	}

	if bucketName := os.Getenv("SPACES_BUCKET_NAME"); bucketName != "" {
		c.Spaces.BucketName = bucketName
	}

	if bucketURL := os.Getenv("SPACES_BUCKET_URL"); bucketURL != "" {
		c.Spaces.BucketURL = bucketURL
	}

	if cdnEndpoint := os.Getenv("SPACES_CDN_ENDPOINT"); cdnEndpoint != "" {
		c.Spaces.CDNEndpoint = cdnEndpoint
	}
}
