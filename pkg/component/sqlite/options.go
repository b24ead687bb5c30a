package sqlite

import (
	"fmt"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// Options defines SQLite connection options.
type Options struct {
	// Path is the database file path.
	Path string `json:"path" mapstructure:"path"`

	// BusyTimeout is how long a locked database is retried before failing.
	BusyTimeout time.Duration `json:"busy-timeout" mapstructure:"busy-timeout"`

	// LogLevel is the GORM log level: 1 silent, 2 error, 3 warn, 4 info.
	LogLevel int `json:"log-level" mapstructure:"log-level"`

	// SlowThreshold marks queries slower than this as slow.
	SlowThreshold time.Duration `json:"slow-threshold" mapstructure:"slow-threshold"`
}

// NewOptions creates Options with defaults for the given file.
func NewOptions(path string) *Options {
	return &Options{
		Path:          path,
		BusyTimeout:   5 * time.Second,
		LogLevel:      2,
		SlowThreshold: 200 * time.Millisecond,
	}
}

// Validate validates the options.
func (o *Options) Validate() error {
	if o.Path == "" {
		return fmt.Errorf("sqlite path is required")
	}
	if o.BusyTimeout < 0 {
		return fmt.Errorf("sqlite busy timeout must not be negative")
	}
	return nil
}

// DSN builds the driver connection string.
func (o *Options) DSN() string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", o.Path, o.BusyTimeout.Milliseconds())
}

func (o *Options) gormLogLevel() gormlogger.LogLevel {
	switch o.LogLevel {
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}
