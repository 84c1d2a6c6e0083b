// Package config provides configuration loading for mentord.
//
// Configuration is assembled from embedded defaults, an optional YAML file,
// and MENTORD_* environment variables, each layer overriding the previous.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete mentord configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Agents    AgentsConfig    `koanf:"agents"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Learner   LearnerConfig   `koanf:"learner"`
	Memory    MemoryConfig    `koanf:"memory"`
}

// ServerConfig holds HTTP control surface configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// AgentsConfig configures the Gemini-backed parser and solver agents.
type AgentsConfig struct {
	APIKey      Secret `koanf:"api_key"`
	ParserModel string `koanf:"parser_model"`
	SolverModel string `koanf:"solver_model"`

	// RequestsPerMinute bounds outgoing model calls. Zero disables limiting.
	RequestsPerMinute int `koanf:"requests_per_minute"`
	Burst             int `koanf:"burst"`
}

// LoggingConfig holds the subset of logging settings exposed in config.yaml.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry tracing settings.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// LearnerConfig seeds the cross-session learner profile.
type LearnerConfig struct {
	ExplanationLevel string         `koanf:"explanation_level"`
	Mastery          map[string]int `koanf:"mastery"`
	CommonMistakes   []string       `koanf:"common_mistakes"`
}

// MemoryConfig seeds the learning memory at startup.
type MemoryConfig struct {
	Seed []MemorySeed `koanf:"seed"`
}

// MemorySeed is one initial learning memory entry.
type MemorySeed struct {
	Trigger     string  `koanf:"trigger"`
	Insight     string  `koanf:"insight"`
	SuccessRate float64 `koanf:"success_rate"`
	Source      string  `koanf:"source"`
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Model names are empty
//   - Rate limiting values are negative
//   - Telemetry is enabled without an endpoint, or uses an unknown protocol
//   - Explanation level is not Beginner or Advanced
//   - Mastery values fall outside 0-100
//   - Memory seeds have empty insight or success rate outside 0-1
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Agents.ParserModel == "" || c.Agents.SolverModel == "" {
		return errors.New("parser_model and solver_model are required")
	}
	if c.Agents.RequestsPerMinute < 0 || c.Agents.Burst < 0 {
		return errors.New("requests_per_minute and burst cannot be negative")
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry endpoint required when telemetry is enabled")
	}
	switch c.Telemetry.Protocol {
	case "", "grpc", "http/protobuf":
	default:
		return fmt.Errorf("telemetry protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol)
	}
	if !(c.Telemetry.SampleRate >= 0 && c.Telemetry.SampleRate <= 1) {
		return fmt.Errorf("telemetry sample_rate must be between 0 and 1, got %f", c.Telemetry.SampleRate)
	}

	switch c.Learner.ExplanationLevel {
	case "Beginner", "Advanced":
	default:
		return fmt.Errorf("explanation_level must be 'Beginner' or 'Advanced', got %q", c.Learner.ExplanationLevel)
	}
	for topic, v := range c.Learner.Mastery {
		if v < 0 || v > 100 {
			return fmt.Errorf("mastery for %q must be 0-100, got %d", topic, v)
		}
	}

	for i, s := range c.Memory.Seed {
		if s.Insight == "" {
			return fmt.Errorf("memory seed %d: insight cannot be empty", i)
		}
		if !(s.SuccessRate >= 0 && s.SuccessRate <= 1) {
			return fmt.Errorf("memory seed %d: success_rate must be between 0 and 1", i)
		}
	}

	return nil
}
