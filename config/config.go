// Package config provides docmesh configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds docmesh runtime configuration.
type Config struct {
	// Router delivery policy
	MaxRetries      int           `envconfig:"DOCMESH_MAX_RETRIES" default:"3"`
	RetryDelay      time.Duration `envconfig:"DOCMESH_RETRY_DELAY" default:"1s"`
	HistoryCapacity int           `envconfig:"DOCMESH_HISTORY_CAPACITY" default:"1000"`

	// Semantic dispatch
	DispatchThreshold   float64 `envconfig:"DOCMESH_DISPATCH_THRESHOLD" default:"0.4"`
	EmbeddingModel      string  `envconfig:"DOCMESH_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int64   `envconfig:"DOCMESH_EMBEDDING_DIMENSIONS"`

	// COMMS transport binding (empty CommsURL = in-process only)
	CommsURL       string        `envconfig:"DOCMESH_COMMS_URL"`
	CommsName      string        `envconfig:"DOCMESH_SERVICE_NAME" default:"docmesh"`
	SubjectPrefix  string        `envconfig:"DOCMESH_SUBJECT_PREFIX" default:"docmesh"`
	RequestTimeout time.Duration `envconfig:"DOCMESH_REQUEST_TIMEOUT" default:"25s"`

	// Logging
	LogLevel  string `envconfig:"DOCMESH_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"DOCMESH_LOG_FORMAT" default:"json"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	if c.MaxRetries <= 0 {
		return fmt.Errorf("config: DOCMESH_MAX_RETRIES must be positive")
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("config: DOCMESH_RETRY_DELAY must be positive")
	}
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("config: DOCMESH_HISTORY_CAPACITY must be positive")
	}
	if c.DispatchThreshold < 0 || c.DispatchThreshold >= 1 {
		return fmt.Errorf("config: DOCMESH_DISPATCH_THRESHOLD must be in [0, 1)")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: DOCMESH_REQUEST_TIMEOUT must be positive")
	}
	return nil
}
