package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldlookup/internal/config"
	"fieldlookup/internal/cursor"
	"fieldlookup/internal/domain"
	"fieldlookup/internal/service"
	"fieldlookup/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// tableGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_TryLock(t *testing.T) {
	var g service.ExportedRunningGuard

	require.True(t, g.TryLock("a"))
	assert.False(t, g.TryLock("a"), "second lock on the same table")
	require.True(t, g.TryLock("b"))
	g.Unlock("a")
	g.Unlock("b")

	require.True(t, g.TryLock("a"), "lock after unlock")
	g.Unlock("a")
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard
	require.True(t, g.TryLock("a"))

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()
	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("a")
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// Catalog tests
// ─────────────────────────────────────────────────────────────

const twoTables = `
connection: {driver: sqlite, host: unused.db}
tables:
  - name: aFilter
    fields:
      - {name: date, type: datetime}
      - {name: number1, type: integer}
    indices:
      - {name: idx_a_date_n1, fields: [date, number1]}
  - name: bFilter
    fields:
      - {name: created, type: datetime}
      - {name: numb1, type: integer}
    indices:
      - {name: idx_b_c_n1, fields: [created, numb1]}
`

func newCatalog(t *testing.T) (*service.Catalog, *service.MockEmitter) {
	t.Helper()
	db, err := storage.Open(&domain.DatabaseConnection{
		Name:   "svc",
		Driver: domain.DatabaseDriverSQLite,
		Host:   filepath.Join(t.TempDir(), "svc.db"),
	}, "", nil)
	require.NoError(t, err)

	em := &service.MockEmitter{}
	svc := service.NewCatalog(db, nil, em, nil)
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc, em
}

func TestCatalog_ApplySyncIntrospect(t *testing.T) {
	ctx := context.Background()
	svc, em := newCatalog(t)
	assert.Equal(t, 0, svc.Current().Len())

	cfg, err := config.Parse([]byte(twoTables))
	require.NoError(t, err)
	require.NoError(t, svc.ApplyConfig(ctx, cfg))

	synced, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"aFilter", "bFilter"}, synced)

	// Replace the declared catalog with what the database reports.
	require.NoError(t, svc.Introspect(ctx))
	b, ok := svc.Current().Table("bFilter")
	require.True(t, ok)
	assert.Equal(t, []domain.Index{{Name: "idx_b_c_n1", Fields: []string{"created", "numb1"}}}, b.Indices())

	assert.Equal(t, []string{
		service.EventCatalogSwapped,
		service.EventTableSynced,
		service.EventTableSynced,
		service.EventCatalogSwapped,
	}, em.Names())
}

func TestCatalog_SessionKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalog(t)

	cfg, err := config.Parse([]byte(twoTables))
	require.NoError(t, err)
	require.NoError(t, svc.ApplyConfig(ctx, cfg))

	old := svc.NewSession()

	empty, err := storage.NewCatalog()
	require.NoError(t, err)
	svc.Swap(ctx, empty)

	_, err = old.Cursor("aFilter")
	assert.NoError(t, err, "session opened before the swap still sees its tables")

	_, err = svc.NewSession().Cursor("aFilter")
	assert.ErrorIs(t, err, cursor.ErrUnknownTable)
}

func TestCatalog_Truncate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalog(t)

	cfg, err := config.Parse([]byte(twoTables))
	require.NoError(t, err)
	require.NoError(t, svc.ApplyConfig(ctx, cfg))
	_, err = svc.Sync(ctx)
	require.NoError(t, err)

	c, err := svc.NewSession().Cursor("aFilter")
	require.NoError(t, err)
	require.NoError(t, c.Insert(ctx, storage.Record{"number1": 1}))
	require.NoError(t, c.Insert(ctx, storage.Record{"number1": 2}))

	n, err := svc.Truncate(ctx, "aFilter")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.Truncate(ctx, "missing")
	assert.ErrorIs(t, err, cursor.ErrUnknownTable)
}

func TestLogEmitter_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		service.LogEmitter{}.Emit(context.Background(), "x", nil)
	})
}
