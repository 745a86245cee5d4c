package logging

import (
	"fmt"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging/adapters"
)

// Manager manages the logging system initialization and configuration
type Manager struct {
	factory *AdapterFactory
	logger  *MultiLogger
}

// NewManager creates a new logging manager
func NewManager() *Manager {
	return &Manager{
		factory: NewAdapterFactory(),
		logger:  NewMultiLogger(),
	}
}

// Initialize initializes the logging system from configuration
func (m *Manager) Initialize(cfg *config.Config) error {
	// Set the log level
	level := ParseLogLevel(cfg.Logging.Level)
	m.logger.SetLevel(level)

	// If adapter configuration is provided, use it
	if len(cfg.Logging.Adapters) > 0 {
		return m.initializeFromAdapters(cfg.Logging.Adapters)
	}

	// Fallback to the flat level/format configuration
	return m.initializeFromFlatConfig(cfg)
}

// initializeFromAdapters initializes logging adapters from the adapter list
func (m *Manager) initializeFromAdapters(adapterConfigs []config.AdapterConfig) error {
	for _, adapterConfig := range adapterConfigs {
		if !adapterConfig.Enabled {
			continue
		}

		// Convert to our internal adapter config
		cfg := AdapterConfig{
			Name:    adapterConfig.Name,
			Type:    adapterConfig.Type,
			Enabled: adapterConfig.Enabled,
			Options: adapterConfig.Options,
		}

		adapter, err := m.factory.CreateAdapter(cfg)
		if err != nil {
			return fmt.Errorf("failed to create adapter %s: %w", adapterConfig.Name, err)
		}

		if err := m.logger.AddAdapter(adapter); err != nil {
			return fmt.Errorf("failed to add adapter %s: %w", adapterConfig.Name, err)
		}
	}

	return nil
}

// initializeFromFlatConfig initializes logging from the flat level/format settings
func (m *Manager) initializeFromFlatConfig(cfg *config.Config) error {
	stdoutConfig := adapters.StdoutConfig{
		Format:    cfg.Logging.Format,
		Colorized: false,
	}

	adapter := adapters.NewStdoutAdapter("default_stdout", stdoutConfig)
	if err := m.logger.AddAdapter(adapter); err != nil {
		return fmt.Errorf("failed to add default stdout adapter: %w", err)
	}

	return nil
}

// GetLogger returns the initialized logger
func (m *Manager) GetLogger() Logger {
	return m.logger
}

// Close closes the logging system
func (m *Manager) Close() error {
	if m.logger != nil {
		return m.logger.Close()
	}
	return nil
}

// Global manager instance
var globalManager *Manager

// InitializeLogging initializes the global logging system
func InitializeLogging(cfg *config.Config) error {
	globalManager = NewManager()
	return globalManager.Initialize(cfg)
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() Logger {
	if globalManager == nil {
		// Fallback to a basic logger if not initialized
		manager := NewManager()
		stdoutConfig := adapters.StdoutConfig{
			Format:    "json",
			Colorized: false,
		}
		adapter := adapters.NewStdoutAdapter("fallback_stdout", stdoutConfig)
		manager.logger.AddAdapter(adapter)
		globalManager = manager
	}
	return globalManager.GetLogger()
}

// CloseLogging closes the global logging system
func CloseLogging() error {
	if globalManager != nil {
		return globalManager.Close()
	}
	return nil
}

// LogWithRequestID creates a logger with request ID context
func LogWithRequestID(requestID string) Logger {
	return GetGlobalLogger().WithField("request_id", requestID)
}

func Debug(message string, fields ...map[string]interface{}) {
	GetGlobalLogger().Debug(message, fields...)
}

func Info(message string, fields ...map[string]interface{}) {
	GetGlobalLogger().Info(message, fields...)
}

func Warn(message string, fields ...map[string]interface{}) {
	GetGlobalLogger().Warn(message, fields...)
}

func Error(message string, fields ...map[string]interface{}) {
	GetGlobalLogger().Error(message, fields...)
}

func Fatal(message string, fields ...map[string]interface{}) {
	GetGlobalLogger().Fatal(message, fields...)
}
