package server

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the environment-driven server configuration. Every field maps to
// an environment variable under the SWITCHBOARD_ prefix, e.g.
// SWITCHBOARD_PORT or SWITCHBOARD_LOG_LEVEL.
type Config struct {
	Host            string        `default:"0.0.0.0"`
	Port            int           `default:"8000"`
	LogLevel        string        `split_words:"true" default:"info"`
	LogFormat       string        `split_words:"true" default:"text"`
	Provider        string        `default:"mock"`
	Model           string        `default:""`
	KnowledgeDir    string        `split_words:"true" default:"knowledge_base"`
	Greeting        string        `default:""`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("switchboard", &cfg); err != nil {
		return Config{}, fmt.Errorf("server: load config: %w", err)
	}
	return cfg, nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
