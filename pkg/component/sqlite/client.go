package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Client wraps gorm.DB for a single SQLite file.
type Client struct {
	db   *gorm.DB
	opts *Options
}

// New opens (or creates) the database file. Opening an existing file attaches to it.
func New(ctx context.Context, opts *Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("sqlite options cannot be nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sqlite options: %w", err)
	}
	if dir := filepath.Dir(opts.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(opts.DSN()), &gorm.Config{
		Logger: NewGormLogger(opts.gormLogLevel(), opts.SlowThreshold, true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// SQLite 只允许一个写者
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	return &Client{db: db, opts: opts}, nil
}

// Name returns the storage type identifier.
func (c *Client) Name() string {
	return "sqlite"
}

// Path returns the database file path.
func (c *Client) Path() string {
	return c.opts.Path
}

// DB returns the underlying GORM database.
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Ping checks if the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
