// Package database owns the GORM connection, the transient-failure retry
// policy, and the background keep-alive that guards against idle eviction.
// All other packages go through the Gateway for data access.
package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vocadeck/vocadeck-api/models"
)

const (
	// DefaultMaxRetries is how many times Run re-attempts a unit of work
	// after the initial attempt fails with a transient connection error.
	DefaultMaxRetries = 2

	baseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 5 * time.Second
)

// Gateway is the single point of database access. It owns reconnection
// state: the keep-alive timer and the last-activity timestamp.
type Gateway struct {
	dialector func() gorm.Dialector
	log       *zap.Logger

	mu           sync.Mutex
	db           *gorm.DB
	lastActivity time.Time
	migrated     bool

	stopKeepAlive chan struct{}
	keepAliveDone chan struct{}

	// sleep waits out a backoff delay; swapped in tests to observe the
	// delay progression without real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// Open creates a Gateway over a PostgreSQL DSN. The connection is lazy:
// nothing touches the network until Warmup or the first operation, so a
// database that is down at boot does not prevent the process from starting.
func Open(dsn string, log *zap.Logger) (*Gateway, error) {
	return OpenWithDialector(func() gorm.Dialector { return postgres.Open(dsn) }, log)
}

// OpenWithDialector is Open with a caller-supplied dialector factory.
// Tests use it to run the gateway over SQLite.
func OpenWithDialector(dialector func() gorm.Dialector, log *zap.Logger) (*Gateway, error) {
	g := &Gateway{dialector: dialector, log: log}
	g.sleep = func(ctx context.Context, d time.Duration) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	db, err := gorm.Open(dialector(), gormConfig())
	if err != nil {
		return nil, err
	}
	g.db = db
	g.lastActivity = time.Now()
	return g, nil
}

// gormConfig disables GORM's automatic ping (the gateway manages liveness
// itself) and turns on driver error translation so unique violations surface
// as gorm.ErrDuplicatedKey for the services to map.
func gormConfig() *gorm.Config {
	return &gorm.Config{DisableAutomaticPing: true, TranslateError: true}
}

// DB returns the current *gorm.DB. The pointer is swapped on reconnect, so
// callers must not cache it across operations.
func (g *Gateway) DB() *gorm.DB {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.db
}

// Touch records real database activity; the keep-alive skips its ping when
// activity happened recently.
func (g *Gateway) Touch() {
	g.mu.Lock()
	g.lastActivity = time.Now()
	g.mu.Unlock()
}

func (g *Gateway) sinceActivity() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Since(g.lastActivity)
}

// Warmup eagerly establishes connectivity and runs schema migration.
// Callers treat failure as non-fatal: the first real request retries through
// Run, which re-attempts the pending migration after reconnecting.
func (g *Gateway) Warmup(ctx context.Context) error {
	if err := g.EnsureConnection(ctx); err != nil {
		return err
	}
	return g.migrate()
}

func (g *Gateway) migrate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.migrated {
		return nil
	}
	if err := g.db.AutoMigrate(&models.User{}, &models.Deck{}, &models.Card{}); err != nil {
		return err
	}
	g.migrated = true
	return nil
}

// Run executes fn with the default retry budget.
func (g *Gateway) Run(ctx context.Context, fn func(db *gorm.DB) error) error {
	return g.RunRetry(ctx, fn, DefaultMaxRetries)
}

// RunRetry executes fn and, on a transient connection error, reconnects and
// retries with exponential backoff up to maxRetries additional attempts.
// Non-transient errors (constraint violations, record-not-found) propagate
// immediately without retry.
func (g *Gateway) RunRetry(ctx context.Context, fn func(db *gorm.DB) error, maxRetries int) error {
	delay := baseRetryDelay
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(g.DB().WithContext(ctx))
		g.Touch()
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt >= maxRetries {
			g.log.Error("database operation failed after retries",
				zap.Int("attempts", attempt+1), zap.Error(err))
			return err
		}

		g.log.Warn("transient database error, reconnecting",
			zap.Int("attempt", attempt+1), zap.Duration("backoff", delay), zap.Error(err))

		if serr := g.sleep(ctx, delay); serr != nil {
			return serr
		}
		if delay *= 2; delay > maxRetryDelay {
			delay = maxRetryDelay
		}

		if rerr := g.reconnect(ctx); rerr != nil {
			g.log.Warn("reconnect failed", zap.Error(rerr))
		}
	}
}

// EnsureConnection verifies connectivity with a trivial liveness query; on
// failure it performs a full disconnect/reconnect cycle and re-verifies.
func (g *Gateway) EnsureConnection(ctx context.Context) error {
	if err := g.ping(ctx); err == nil {
		return nil
	}
	return g.reconnect(ctx)
}

func (g *Gateway) ping(ctx context.Context) error {
	return g.DB().WithContext(ctx).Exec("SELECT 1").Error
}

// reconnect tears down the current connection, opens a fresh one, and
// verifies it. Pending schema migration is re-attempted afterwards.
func (g *Gateway) reconnect(ctx context.Context) error {
	g.mu.Lock()
	if sqlDB, err := g.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	db, err := gorm.Open(g.dialector(), gormConfig())
	if err != nil {
		g.mu.Unlock()
		return err
	}
	g.db = db
	g.mu.Unlock()

	if err := g.ping(ctx); err != nil {
		return err
	}
	return g.migrate()
}

// StartKeepAlive launches the background pinger. On each tick it issues a
// liveness query unless real activity happened within window; a failed ping
// is logged and followed by one reconnect attempt.
func (g *Gateway) StartKeepAlive(interval, window time.Duration) {
	g.stopKeepAlive = make(chan struct{})
	g.keepAliveDone = make(chan struct{})

	go func() {
		defer close(g.keepAliveDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if g.sinceActivity() < window {
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := g.ping(ctx); err != nil {
					g.log.Warn("keep-alive ping failed", zap.Error(err))
					if rerr := g.reconnect(ctx); rerr != nil {
						g.log.Error("keep-alive reconnect failed", zap.Error(rerr))
					}
				}
				cancel()
			case <-g.stopKeepAlive:
				return
			}
		}
	}()
}

// Close stops the keep-alive timer and releases the connection.
func (g *Gateway) Close() error {
	if g.stopKeepAlive != nil {
		close(g.stopKeepAlive)
		<-g.keepAliveDone
		g.stopKeepAlive = nil
	}
	sqlDB, err := g.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsTransient reports whether err looks like a connectivity failure worth a
// reconnect-and-retry, as opposed to an error the caller must interpret.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"connection terminated",
		"connection closed",
		"broken pipe",
		"bad connection",
		"can't reach database",
		"database is closed",
		"unexpected eof",
		"i/o timeout",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
