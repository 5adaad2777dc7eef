package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var gatewaySeq atomic.Int64

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	dsn := fmt.Sprintf("file:gateway%d?mode=memory&cache=shared", gatewaySeq.Add(1))
	g, err := OpenWithDialector(func() gorm.Dialector { return sqlite.Open(dsn) }, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, g.Warmup(context.Background()))
	t.Cleanup(func() { _ = g.Close() })
	return g
}

// newCountingGateway tracks dialector invocations: one for the initial open
// and one per reconnect.
func newCountingGateway(t *testing.T) (*Gateway, *atomic.Int64) {
	t.Helper()
	dsn := fmt.Sprintf("file:gateway%d?mode=memory&cache=shared", gatewaySeq.Add(1))
	var opens atomic.Int64
	g, err := OpenWithDialector(func() gorm.Dialector {
		opens.Add(1)
		return sqlite.Open(dsn)
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, g.Warmup(context.Background()))
	t.Cleanup(func() { _ = g.Close() })
	return g, &opens
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"connection terminated", errors.New("FATAL: terminating connection due to administrator command (connection terminated)"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"cannot reach database", errors.New("can't reach database server"), true},
		{"record not found", gorm.ErrRecordNotFound, false},
		{"duplicate key", gorm.ErrDuplicatedKey, false},
		{"constraint violation", errors.New("ERROR: duplicate key value violates unique constraint"), false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRunRetry_NonTransientPropagatesImmediately(t *testing.T) {
	g := newTestGateway(t)

	attempts := 0
	wantErr := errors.New("constraint violated")
	err := g.RunRetry(context.Background(), func(db *gorm.DB) error {
		attempts++
		return wantErr
	}, 3)

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, attempts)
}

func TestRunRetry_TransientRetriedUpToBudget(t *testing.T) {
	g := newTestGateway(t)
	g.sleep = func(context.Context, time.Duration) error { return nil }

	attempts := 0
	err := g.RunRetry(context.Background(), func(db *gorm.DB) error {
		attempts++
		return errors.New("dial tcp: connection refused")
	}, 2)

	assert.Error(t, err)
	assert.Equal(t, 3, attempts, "initial attempt plus two retries")
}

func TestRunRetry_RecoversAfterTransientFailure(t *testing.T) {
	g := newTestGateway(t)
	g.sleep = func(context.Context, time.Duration) error { return nil }

	attempts := 0
	err := g.RunRetry(context.Background(), func(db *gorm.DB) error {
		attempts++
		if attempts == 1 {
			return errors.New("connection reset by peer")
		}
		return nil
	}, 2)

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRunRetry_SuccessSingleAttempt(t *testing.T) {
	g := newTestGateway(t)

	attempts := 0
	err := g.Run(context.Background(), func(db *gorm.DB) error {
		attempts++
		return db.Exec("SELECT 1").Error
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRunRetry_ContextCancelledDuringBackoff(t *testing.T) {
	g := newTestGateway(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.RunRetry(ctx, func(db *gorm.DB) error {
		return errors.New("connection refused")
	}, 2)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRetry_BackoffDoublesAndCaps(t *testing.T) {
	g := newTestGateway(t)

	var delays []time.Duration
	g.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	err := g.RunRetry(context.Background(), func(db *gorm.DB) error {
		return errors.New("connection refused")
	}, 5)

	assert.Error(t, err)
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
	}, delays, "delay doubles from the base and is capped")
}

func TestKeepAliveSkipsPingDuringRecentActivity(t *testing.T) {
	g, opens := newCountingGateway(t)

	// Break the connection so any ping would fail and force a reconnect.
	sqlDB, err := g.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	g.Touch()
	g.StartKeepAlive(10*time.Millisecond, time.Hour)
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, int64(1), opens.Load(), "recent activity suppresses the ping")
}

func TestKeepAlivePingFailureReconnects(t *testing.T) {
	g, opens := newCountingGateway(t)

	sqlDB, err := g.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	// Zero window: every tick pings, the first one fails and reconnects.
	g.StartKeepAlive(10*time.Millisecond, 0)

	require.Eventually(t, func() bool { return opens.Load() >= 2 }, 2*time.Second, 10*time.Millisecond,
		"failed ping should trigger a reconnect")

	require.NoError(t, g.Run(context.Background(), func(db *gorm.DB) error {
		return db.Exec("SELECT 1").Error
	}))
}

func TestEnsureConnection(t *testing.T) {
	g := newTestGateway(t)
	require.NoError(t, g.EnsureConnection(context.Background()))
}

func TestRunTouchesActivity(t *testing.T) {
	g := newTestGateway(t)

	before := g.sinceActivity()
	_ = g.Run(context.Background(), func(db *gorm.DB) error { return nil })
	after := g.sinceActivity()

	assert.LessOrEqual(t, after, before)
}
