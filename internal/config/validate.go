package config

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration validation errors.
var (
	ErrInvalidLogLevel      = errors.New("log.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat     = errors.New("log.format must be 'json' or 'text'")
	ErrInvalidReferenceYear = errors.New("reference_year must be 0 or between 1 and 9999")
	ErrInvalidTimeout       = errors.New("http.timeout must be positive")
	ErrInvalidRequestDelay  = errors.New("http.request_delay must be non-negative")
	ErrMissingDataDir       = errors.New("data_dir is required")
	ErrInvalidNotifyDelay   = errors.New("notify.delay must be non-negative")
)

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return ErrMissingDataDir
	}

	if c.ReferenceYear < 0 || c.ReferenceYear > 9999 {
		return fmt.Errorf("%w (got %d)", ErrInvalidReferenceYear, c.ReferenceYear)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w (got %q)", ErrInvalidLogLevel, c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("%w (got %q)", ErrInvalidLogFormat, c.Log.Format)
	}

	if c.HTTP.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.HTTP.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}
	if c.Notify.Delay < 0 {
		return ErrInvalidNotifyDelay
	}

	return nil
}
