// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Link Link `yaml:"link"`
	Poll Poll `yaml:"poll"`
}

// ---- LINK ----

type Link struct {
	Port      string `yaml:"port"`
	BaudRate  int    `yaml:"baud_rate"`
	SlaveID   uint8  `yaml:"slave_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Name      string `yaml:"name"`
}

// ---- POLL ----

type Poll struct {
	IntervalMs    int `yaml:"interval_ms"`
	Retries       int `yaml:"retries"`
	BackoffMs     int `yaml:"backoff_ms"`
	ReadTimeoutMs int `yaml:"read_timeout_ms"`
}

// Load reads and parses a config file. It performs no validation.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ---- DURATION ACCESSORS ----

func (l Link) Timeout() time.Duration {
	return time.Duration(l.TimeoutMs) * time.Millisecond
}

func (p Poll) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

func (p Poll) Backoff() time.Duration {
	return time.Duration(p.BackoffMs) * time.Millisecond
}

func (p Poll) ReadTimeout() time.Duration {
	return time.Duration(p.ReadTimeoutMs) * time.Millisecond
}
