// internal/config/validate.go
package config

import (
	"fmt"
)

// The adapter bus accepts at most 32 devices; the protocol itself allows
// up to 247 but addresses above 32 never answer on this hardware.
const (
	SlaveIDMin = 1
	SlaveIDMax = 32
)

var allowedBaudRates = map[int]bool{
	9600:   true,
	19200:  true,
	38400:  true,
	57600:  true,
	115200: true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	if cfg.Link.Port == "" {
		return fmt.Errorf("config: link.port is required")
	}

	if cfg.Link.SlaveID < SlaveIDMin || cfg.Link.SlaveID > SlaveIDMax {
		return fmt.Errorf(
			"config: link.slave_id %d out of range %d..%d",
			cfg.Link.SlaveID, SlaveIDMin, SlaveIDMax,
		)
	}

	if cfg.Link.BaudRate != 0 && !allowedBaudRates[cfg.Link.BaudRate] {
		return fmt.Errorf("config: link.baud_rate %d not supported", cfg.Link.BaudRate)
	}

	if cfg.Link.TimeoutMs < 0 {
		return fmt.Errorf("config: link.timeout_ms must be >= 0")
	}

	if cfg.Poll.IntervalMs < 0 {
		return fmt.Errorf("config: poll.interval_ms must be >= 0")
	}
	if cfg.Poll.Retries < 0 {
		return fmt.Errorf("config: poll.retries must be >= 0")
	}
	if cfg.Poll.BackoffMs < 0 {
		return fmt.Errorf("config: poll.backoff_ms must be >= 0")
	}
	if cfg.Poll.ReadTimeoutMs < 0 {
		return fmt.Errorf("config: poll.read_timeout_ms must be >= 0")
	}

	return nil
}
