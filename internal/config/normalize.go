// internal/config/normalize.go
package config

// Defaults mirror the adapter's documented bus parameters.
const (
	DefaultBaudRate      = 19200
	DefaultTimeoutMs     = 2000
	DefaultIntervalMs    = 15000
	DefaultRetries       = 3
	DefaultBackoffMs     = 500
	DefaultReadTimeoutMs = 2000
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Link.BaudRate == 0 {
		cfg.Link.BaudRate = DefaultBaudRate
	}
	if cfg.Link.TimeoutMs == 0 {
		cfg.Link.TimeoutMs = DefaultTimeoutMs
	}

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}
	if cfg.Poll.Retries == 0 {
		cfg.Poll.Retries = DefaultRetries
	}
	if cfg.Poll.BackoffMs == 0 {
		cfg.Poll.BackoffMs = DefaultBackoffMs
	}
	if cfg.Poll.ReadTimeoutMs == 0 {
		cfg.Poll.ReadTimeoutMs = DefaultReadTimeoutMs
	}
}
