package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budgenet/internal/config"
	"budgenet/internal/controller"
	"budgenet/internal/core"
	"budgenet/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:          filepath.Join(t.TempDir(), "budgenet.db"),
		LogLevel:        "info",
		LogFormat:       "text",
		ProjectionSpan:  6,
		ReportCacheSize: 4,
		ReportCacheTTL:  time.Minute,
	}
}

func TestNewSession_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	s, err := NewSession(ctx, Options{Config: cfg})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	require.NoError(t, s.Close())

	s, err = NewSession(ctx, Options{Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cats, err := s.Categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(core.PredefinedCategories))
}

func TestNewSession_LogsSchemaVersion(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelInfo, Output: &buf})

	s, err := NewSession(context.Background(), Options{Config: testConfig(t), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	out := buf.String()
	assert.Contains(t, out, "Session started")
	assert.Contains(t, out, log.FieldVersion+"=3")
	assert.NotContains(t, out, "Schema version unavailable")
}

func TestNewSession_StorageUnavailable(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.DBPath = filepath.Join(blocker, "budgenet.db")

	s, err := NewSession(context.Background(), Options{Config: cfg})
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, core.ErrStorageUnavailable))
}

func TestSession_ControllersShareTheBus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	s, err := NewSession(ctx, Options{Config: testConfig(t), Now: func() time.Time { return now }})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	var dash controller.DashboardSnapshot
	txs := s.TransactionsController(nil)
	s.DashboardController(func(d controller.DashboardSnapshot) { dash = d })
	assert.Equal(t, 3, s.Bus.Len(), "transactions subscribe twice, the dashboard once")

	require.NoError(t, txs.Add(ctx, controller.TransactionForm{Type: "income", Amount: "100", Date: "2024-03-02", CategoryID: -5}))
	require.NoError(t, txs.Add(ctx, controller.TransactionForm{Type: "expense", Amount: "40", Date: "2024-03-09", CategoryID: -1}))

	assert.Equal(t, "60", dash.Dashboard.Balance.Values[2].String())
	assert.Len(t, dash.Dashboard.Balance.Visible, 3)

	require.NoError(t, s.Close())
	assert.Zero(t, s.Bus.Len())
}
