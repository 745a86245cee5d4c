package logging

import (
	"fmt"

	"aerofinder-utils/internal/logging/adapters"
	"aerofinder-utils/internal/logging/types"
)

// AdapterFactory creates logging adapters based on configuration
type AdapterFactory struct{}

// NewAdapterFactory creates a new adapter factory
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// CreateAdapter creates a logging adapter based on the provided configuration
func (f *AdapterFactory) CreateAdapter(adapterConfig types.AdapterConfig) (types.LogAdapter, error) {
	switch adapterConfig.Type {
	case "stdout":
		return f.createStdoutAdapter(adapterConfig)
	case "file":
		return f.createFileAdapter(adapterConfig)
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s", adapterConfig.Type)
	}
}

func (f *AdapterFactory) createStdoutAdapter(adapterConfig types.AdapterConfig) (types.LogAdapter, error) {
	config := adapters.StdoutConfig{
		Format:    getStringOption(adapterConfig.Options, "format", "json"),
		Colorized: getBoolOption(adapterConfig.Options, "colorized", false),
	}

	return adapters.NewStdoutAdapter(adapterConfig.Name, config), nil
}

func (f *AdapterFactory) createFileAdapter(adapterConfig types.AdapterConfig) (types.LogAdapter, error) {
	config := adapters.FileConfig{
		FilePath:   getStringOption(adapterConfig.Options, "file_path", ""),
		Format:     getStringOption(adapterConfig.Options, "format", "json"),
		MaxSize:    getInt64Option(adapterConfig.Options, "max_size", 0),
		MaxBackups: getIntOption(adapterConfig.Options, "max_backups", 10),
		CreateDirs: getBoolOption(adapterConfig.Options, "create_dirs", true),
		FileMode:   0644,
	}

	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file adapter")
	}

	return adapters.NewFileAdapter(adapterConfig.Name, config)
}

// Helper functions to extract options with defaults

func getStringOption(options map[string]interface{}, key string, defaultValue string) string {
	if value, exists := options[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getIntOption(options map[string]interface{}, key string, defaultValue int) int {
	if value, exists := options[key]; exists {
		if intVal, ok := value.(int); ok {
			return intVal
		}
		if floatVal, ok := value.(float64); ok {
			return int(floatVal)
		}
	}
	return defaultValue
}

func getInt64Option(options map[string]interface{}, key string, defaultValue int64) int64 {
	if value, exists := options[key]; exists {
		if intVal, ok := value.(int64); ok {
			return intVal
		}
		if intVal, ok := value.(int); ok {
			return int64(intVal)
		}
		if floatVal, ok := value.(float64); ok {
			return int64(floatVal)
		}
	}
	return defaultValue
}

func getBoolOption(options map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := options[key]; exists {
		if boolVal, ok := value.(bool); ok {
			return boolVal
		}
	}
	return defaultValue
}
