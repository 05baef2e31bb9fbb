package backend

import (
	"fmt"
	"strings"

	"billed/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (supported: %s)", appConfig.DataBackend, supportedTypes())
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		BillsAPIURL:     appConfig.BillsAPIURL,
		BillsAPITimeout: appConfig.BillsAPITimeout,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s (supported: %s)", c.Type, supportedTypes())
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		// AMQP is optional; without it the worker sweep exports new bills.
	case APIBackend:
		if c.BillsAPIURL == "" {
			return fmt.Errorf("bills API URL is required for api backend")
		}
		if c.BillsAPITimeout <= 0 {
			return fmt.Errorf("bills API timeout must be positive")
		}
	case MemoryBackend:
	}
	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, APIBackend}
}

func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

func supportedTypes() string {
	return strings.Join(GetBackendTypeStrings(), ", ")
}
