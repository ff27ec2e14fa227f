package database

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/resilience"
)

// DB is an open gorm handle plus the pool it sits on.
type DB struct {
	GormDB *gorm.DB

	pool      *sql.DB
	log       *logger.Logger
	closeOnce sync.Once
	closeErr  error
}

// Open connects with cfg.Driver and pings. Connection failures are retried
// cfg.ConnectRetries times with a doubling delay.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, errors.InvalidInput("dsn", "database DSN is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("database")

	gormCfg := &gorm.Config{
		Logger: newGormLogger(log, duration(cfg.SlowQueryThreshold), parseLogLevel(cfg.LogLevel)),
	}
	delay := duration(cfg.RetryDelay)
	policy := resilience.RetryConfig{
		MaxAttempts: cfg.ConnectRetries,
		Backoff:     resilience.Exponential(delay, 2, 10*delay, 0),
		RetryIf: func(err error) bool {
			return resilience.DefaultRetryIf(err) && IsRetryableError(err)
		},
		OnRetry: func(attempt int, err error, wait time.Duration) {
			log.Warn("connect failed, retrying", logger.Fields(
				logger.FieldAttempt, attempt,
				logger.FieldError, err.Error(),
				"backoff", wait.String(),
			))
		},
	}

	db, err := resilience.Retry(ctx, policy, func() (*DB, error) {
		return connect(ctx, cfg, gormCfg, log)
	})
	if err != nil {
		return nil, FromDatabase(err)
	}

	db.pool.SetMaxOpenConns(cfg.MaxOpenConns)
	db.pool.SetMaxIdleConns(cfg.MaxIdleConns)
	db.pool.SetConnMaxLifetime(duration(cfg.ConnMaxLifetime))
	db.pool.SetConnMaxIdleTime(duration(cfg.ConnMaxIdleTime))

	log.Info("connected", logger.Fields("driver", cfg.Driver))
	return db, nil
}

// connect makes one attempt. A handle that fails its ping is released.
func connect(ctx context.Context, cfg Config, gormCfg *gorm.Config, log *logger.Logger) (*DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		dialector = postgres.Open(cfg.DSN)
	}
	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}
	pool, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	db := &DB{GormDB: gdb, pool: pool, log: log}
	if err := db.Ping(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return db, nil
}

// duration parses a validated duration string.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// Ping checks that the pool can reach the database.
func (d *DB) Ping(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}

// WithContext returns a gorm session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.GormDB.WithContext(ctx)
}

// Close releases the pool. Later calls return the first result.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		d.log.Debug("closing pool")
		d.closeErr = d.pool.Close()
	})
	return d.closeErr
}
