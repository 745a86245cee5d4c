package adapters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"aerofinder-utils/internal/logging/types"
)

// FileAdapter implements the LogAdapter interface for file output with
// size-based rotation
type FileAdapter struct {
	name   string
	config FileConfig
	file   *os.File
	size   int64
	mu     sync.Mutex
}

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath   string      `yaml:"file_path"`
	Format     string      `yaml:"format"`      // json or text
	MaxSize    int64       `yaml:"max_size"`    // bytes before rotation, 0 disables
	MaxBackups int         `yaml:"max_backups"` // rotated files to keep
	CreateDirs bool        `yaml:"create_dirs"`
	FileMode   os.FileMode `yaml:"file_mode"`
}

// NewFileAdapter creates a new file adapter and opens its target file
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file adapter")
	}
	if config.FileMode == 0 {
		config.FileMode = 0644
	}

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	a := &FileAdapter{
		name:   name,
		config: config,
	}

	if err := a.open(); err != nil {
		return nil, err
	}

	return a, nil
}

// Write writes a log entry to the file, rotating first when the size cap
// would be exceeded
func (a *FileAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("file adapter %s is closed", a.name)
	}

	var line string
	var err error
	switch strings.ToLower(a.config.Format) {
	case "text":
		line, err = a.formatText(entry)
	default:
		line, err = a.formatJSON(entry)
	}
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}

	if a.config.MaxSize > 0 && a.size+int64(len(line))+1 > a.config.MaxSize {
		if err := a.rotate(); err != nil {
			return err
		}
	}

	n, err := fmt.Fprintln(a.file, line)
	a.size += int64(n)
	return err
}

// Close flushes and closes the underlying file
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}

	err := a.file.Close()
	a.file = nil
	return err
}

// Health verifies the log file is still writable
func (a *FileAdapter) Health() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("file adapter %s is closed", a.name)
	}
	if _, err := os.Stat(a.config.FilePath); err != nil {
		return fmt.Errorf("log file inaccessible: %w", err)
	}
	return nil
}

// Name returns the name of the adapter
func (a *FileAdapter) Name() string {
	return a.name
}

func (a *FileAdapter) open() error {
	file, err := os.OpenFile(a.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, a.config.FileMode)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", a.config.FilePath, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file %s: %w", a.config.FilePath, err)
	}

	a.file = file
	a.size = info.Size()
	return nil
}

// rotate renames the current file with a timestamp suffix and reopens a
// fresh one, pruning the oldest backups beyond MaxBackups
func (a *FileAdapter) rotate() error {
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file for rotation: %w", err)
	}
	a.file = nil

	backup := fmt.Sprintf("%s.%s", a.config.FilePath, time.Now().Format("20060102T150405.000"))
	if err := os.Rename(a.config.FilePath, backup); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	a.pruneBackups()
	return a.open()
}

func (a *FileAdapter) pruneBackups() {
	if a.config.MaxBackups <= 0 {
		return
	}

	matches, err := filepath.Glob(a.config.FilePath + ".*")
	if err != nil || len(matches) <= a.config.MaxBackups {
		return
	}

	// Timestamp suffixes sort lexically, oldest first
	for _, stale := range matches[:len(matches)-a.config.MaxBackups] {
		os.Remove(stale)
	}
}

func (a *FileAdapter) formatJSON(entry *types.LogEntry) (string, error) {
	logData := map[string]interface{}{
		"level":   entry.Level.String(),
		"message": entry.Message,
		"time":    entry.Timestamp.Format(time.RFC3339),
	}

	for k, v := range entry.Fields {
		logData[k] = v
	}

	data, err := json.Marshal(logData)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (a *FileAdapter) formatText(entry *types.LogEntry) (string, error) {
	timestamp := entry.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")
	output := fmt.Sprintf("%s [%s] %s", timestamp, strings.ToUpper(entry.Level.String()), entry.Message)

	if len(entry.Fields) > 0 {
		var fields []string
		for k, v := range entry.Fields {
			fields = append(fields, fmt.Sprintf("%s=%v", k, v))
		}
		output += " " + strings.Join(fields, " ")
	}

	return output, nil
}
