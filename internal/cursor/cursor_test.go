package cursor_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldlookup/internal/cursor"
	"fieldlookup/internal/domain"
	"fieldlookup/internal/lookup"
	"fieldlookup/internal/storage"
)

var (
	aFilter = domain.MustSchema("aFilter",
		[]domain.Field{
			{Name: "date", Type: domain.FieldTypeDatetime},
			{Name: "number1", Type: domain.FieldTypeInteger},
			{Name: "number2", Type: domain.FieldTypeInteger},
			{Name: "noIndexA", Type: domain.FieldTypeInteger},
		},
		[]domain.Index{
			{Name: "idx_a_date", Fields: []string{"date"}},
			{Name: "idx_a_date_n1", Fields: []string{"date", "number1"}},
			{Name: "idx_a_date_n1_n2", Fields: []string{"date", "number1", "number2"}},
			{Name: "idx_a_date_n2_n1", Fields: []string{"date", "number2", "number1"}},
		})
	bFilter = domain.MustSchema("bFilter",
		[]domain.Field{
			{Name: "created", Type: domain.FieldTypeDatetime},
			{Name: "numb1", Type: domain.FieldTypeInteger},
			{Name: "numb2", Type: domain.FieldTypeInteger},
			{Name: "noIndexB", Type: domain.FieldTypeInteger},
		},
		[]domain.Index{
			{Name: "idx_b_created", Fields: []string{"created"}},
			{Name: "idx_b_c_n1", Fields: []string{"created", "numb1"}},
			{Name: "idx_b_c_n1_n2", Fields: []string{"created", "numb1", "numb2"}},
			{Name: "idx_b_c_n2_n1", Fields: []string{"created", "numb2", "numb1"}},
		})
)

var stamp = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func openDB(t *testing.T, schemas ...*domain.Schema) (*storage.DB, *storage.Catalog) {
	t.Helper()
	db, err := storage.Open(&domain.DatabaseConnection{
		Name:   "test",
		Driver: domain.DatabaseDriverSQLite,
		Host:   filepath.Join(t.TempDir(), "cursor.db"),
	}, "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, s := range schemas {
		require.NoError(t, db.CreateTable(context.Background(), s))
	}
	cat, err := storage.NewCatalog(schemas...)
	require.NoError(t, err)
	return db, cat
}

// filterFixture loads three driving rows and two reference rows. Two driving
// rows share the reference timestamp, one of them also matches numb1.
func filterFixture(t *testing.T) (*cursor.Session, *cursor.Cursor, *cursor.Cursor) {
	t.Helper()
	ctx := context.Background()
	db, cat := openDB(t, aFilter, bFilter)
	sess := cursor.NewSession(db, cat, nil)

	a, err := sess.Cursor("aFilter")
	require.NoError(t, err)
	b, err := sess.Cursor("bFilter")
	require.NoError(t, err)

	for _, rec := range []storage.Record{
		{"date": stamp, "number1": 5, "number2": -10},
		{"date": stamp, "number1": 1, "number2": -20},
		{"date": stamp.Add(24 * time.Hour), "number2": -30},
	} {
		require.NoError(t, a.Insert(ctx, rec))
	}
	for _, rec := range []storage.Record{
		{"created": stamp, "numb1": 2, "numb2": -40},
		{"created": stamp, "numb1": 5, "numb2": -50},
	} {
		require.NoError(t, b.Insert(ctx, rec))
	}
	return sess, a, b
}

func count(t *testing.T, c *cursor.Cursor) int {
	t.Helper()
	n, err := c.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestSetIn_NarrowingPairs(t *testing.T) {
	sess, a, b := filterFixture(t)
	assert.Equal(t, 3, count(t, a))

	l := sess.Lookup(a, b).MustAdd("date", "created")
	require.NoError(t, a.SetIn(l))
	assert.Equal(t, 2, count(t, a))

	l = sess.Lookup(a, b).MustAdd("date", "created").MustAdd("number1", "numb1")
	require.NoError(t, a.SetIn(l))
	assert.Equal(t, 1, count(t, a))

	l = sess.Lookup(a, b).MustAdd("date", "created").MustAdd("number1", "numb1").MustAdd("number2", "numb2")
	require.NoError(t, a.SetIn(l))
	assert.Equal(t, 0, count(t, a))
}

func TestSetIn_SingleFieldIndex(t *testing.T) {
	ctx := context.Background()
	events := domain.MustSchema("events",
		[]domain.Field{{Name: "at", Type: domain.FieldTypeDatetime}, {Name: "v", Type: domain.FieldTypeText}},
		[]domain.Index{{Name: "events_at", Fields: []string{"at"}}})
	seen := domain.MustSchema("seen",
		[]domain.Field{{Name: "at", Type: domain.FieldTypeDatetime}, {Name: "v", Type: domain.FieldTypeText}},
		[]domain.Index{{Name: "seen_at", Fields: []string{"at"}}})
	db, cat := openDB(t, events, seen)
	sess := cursor.NewSession(db, cat, nil)

	ev, err := sess.Cursor("events")
	require.NoError(t, err)
	sn, err := sess.Cursor("seen")
	require.NoError(t, err)
	require.NoError(t, ev.Insert(ctx, storage.Record{"at": stamp, "v": "V"}))
	require.NoError(t, sn.Insert(ctx, storage.Record{"at": stamp, "v": "V"}))

	l := sess.Lookup(ev, sn)
	require.NoError(t, l.Add("at", "at"))
	require.NoError(t, ev.SetIn(l))

	var got []storage.Record
	require.NoError(t, ev.Iterate(ctx, func(r storage.Record) error {
		got = append(got, r)
		return nil
	}))
	require.Len(t, got, 1)
	assert.Equal(t, "V", got[0]["v"])
}

func TestSetIn_IncompleteLeavesFiltersUnchanged(t *testing.T) {
	sess, a, b := filterFixture(t)

	require.NoError(t, a.SetIn(sess.Lookup(a, b).MustAdd("date", "created")))
	require.NoError(t, a.SetRange("number2", -20))
	assert.Equal(t, 1, count(t, a))
	before, ok := a.In()
	require.True(t, ok)

	l := sess.Lookup(a, b)
	require.NoError(t, l.Add("date", "created"))
	require.NoError(t, l.Add("number2", "numb2"))

	err := a.SetIn(l)
	var il *lookup.IncompleteLookupError
	require.ErrorAs(t, err, &il)

	after, ok := a.In()
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, count(t, a))
}

func TestSetIn_IncompleteOnFreshCursor(t *testing.T) {
	sess, a, b := filterFixture(t)

	l := sess.Lookup(a, b)
	require.NoError(t, l.Add("date", "created"))
	require.NoError(t, l.Add("number2", "numb2"))

	var il *lookup.IncompleteLookupError
	require.ErrorAs(t, a.SetIn(l), &il)
	_, ok := a.In()
	assert.False(t, ok)
	assert.Equal(t, 3, count(t, a))
}

func TestSetIn_LastApplyWins(t *testing.T) {
	sess, a, b := filterFixture(t)

	require.NoError(t, a.SetIn(sess.Lookup(a, b).MustAdd("date", "created").MustAdd("number1", "numb1")))
	assert.Equal(t, 1, count(t, a))

	require.NoError(t, a.SetIn(sess.Lookup(a, b).MustAdd("date", "created")))
	assert.Equal(t, 2, count(t, a))

	pred, ok := a.In()
	require.True(t, ok)
	assert.Len(t, pred.Pairs, 1)

	a.ClearIn()
	assert.Equal(t, 3, count(t, a))
}

func TestSetIn_CombinesWithRanges(t *testing.T) {
	sess, a, b := filterFixture(t)

	require.NoError(t, a.SetRange("number2", -30))
	assert.Equal(t, 1, count(t, a))

	require.NoError(t, a.SetIn(sess.Lookup(a, b).MustAdd("date", "created")))
	assert.Equal(t, 0, count(t, a))

	require.NoError(t, a.SetRange("number2", -10))
	assert.Equal(t, 1, count(t, a))

	a.ClearRange("number2")
	assert.Equal(t, 2, count(t, a))

	a.Reset()
	assert.Equal(t, 3, count(t, a))
}

func TestSetIn_FollowsReferenceRows(t *testing.T) {
	ctx := context.Background()
	sess, a, b := filterFixture(t)

	require.NoError(t, a.SetIn(sess.Lookup(a, b).MustAdd("date", "created")))
	assert.Equal(t, 2, count(t, a))

	n, err := b.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, count(t, a))

	require.NoError(t, b.Insert(ctx, storage.Record{"created": stamp.Add(24 * time.Hour)}))
	assert.Equal(t, 1, count(t, a))
}

func TestSetIn_SessionsAreIsolated(t *testing.T) {
	sess, a, b := filterFixture(t)
	require.NoError(t, a.SetIn(sess.Lookup(a, b).MustAdd("date", "created")))

	other := cursor.NewSession(nil, sess.Catalog(), nil)
	assert.NotEqual(t, sess.ID(), other.ID())
	oa, err := other.Cursor("aFilter")
	require.NoError(t, err)
	_, ok := oa.In()
	assert.False(t, ok)

	// A second cursor on the same table, same session, starts unfiltered too.
	a2, err := sess.Cursor("aFilter")
	require.NoError(t, err)
	_, ok = a2.In()
	assert.False(t, ok)
	assert.Equal(t, 3, count(t, a2))
	assert.Equal(t, 2, count(t, a))
}

func TestSetIn_ForeignLookup(t *testing.T) {
	_, a, b := filterFixture(t)

	l := lookup.New(bFilter, aFilter).MustAdd("created", "date")
	assert.ErrorIs(t, a.SetIn(l), cursor.ErrForeignLookup)
	_, ok := a.In()
	assert.False(t, ok)

	require.NoError(t, b.SetIn(l))
	assert.Equal(t, 2, count(t, b))
}

func TestSetIn_UnknownReferenceTable(t *testing.T) {
	sess, a, _ := filterFixture(t)
	ghost := domain.MustSchema("ghost",
		[]domain.Field{{Name: "when", Type: domain.FieldTypeDatetime}},
		[]domain.Index{{Name: "ghost_when", Fields: []string{"when"}}})

	l := lookup.New(aFilter, ghost).MustAdd("date", "when")
	assert.ErrorIs(t, a.SetIn(l), cursor.ErrUnknownTable)

	_, err := sess.Cursor("ghost")
	assert.ErrorIs(t, err, cursor.ErrUnknownTable)
}

func TestSetIn_LookupFromOtherSnapshot(t *testing.T) {
	// The session catalog knows aFilter with a single-field index only.
	narrowA := domain.MustSchema("aFilter", aFilter.Fields(),
		[]domain.Index{{Name: "idx_a_date", Fields: []string{"date"}}})
	db, cat := openDB(t, narrowA, bFilter)
	sess := cursor.NewSession(db, cat, nil)
	a, err := sess.Cursor("aFilter")
	require.NoError(t, err)

	stale := lookup.New(aFilter, bFilter).MustAdd("date", "created").MustAdd("number1", "numb1")
	assert.ErrorIs(t, a.SetIn(stale), cursor.ErrStaleLookup)
	_, ok := a.In()
	assert.False(t, ok)

	staleRef := domain.MustSchema("bFilter", bFilter.Fields(), bFilter.Indices())
	l := lookup.New(narrowA, staleRef).MustAdd("date", "created")
	assert.ErrorIs(t, a.SetIn(l), cursor.ErrStaleLookup)

	b, err := sess.Cursor("bFilter")
	require.NoError(t, err)
	require.NoError(t, a.SetIn(sess.Lookup(a, b).MustAdd("date", "created")))
	_, ok = a.In()
	assert.True(t, ok)
}

func TestSetRange_UnknownField(t *testing.T) {
	_, a, _ := filterFixture(t)

	var uf *lookup.UnknownFieldError
	require.ErrorAs(t, a.SetRange("nope", 1), &uf)
	assert.Equal(t, "aFilter", uf.Source)
}

func TestIterate_Ordered(t *testing.T) {
	ctx := context.Background()
	sess, a, b := filterFixture(t)
	require.NoError(t, a.SetIn(sess.Lookup(a, b).MustAdd("date", "created")))

	var got []any
	require.NoError(t, a.Iterate(ctx, func(r storage.Record) error {
		got = append(got, r["number1"])
		return nil
	}, "number1"))
	assert.Equal(t, []any{int64(1), int64(5)}, got)

	var uf *lookup.UnknownFieldError
	require.ErrorAs(t, a.Iterate(ctx, func(storage.Record) error { return nil }, "nope"), &uf)
}

func TestSQL(t *testing.T) {
	sess, a, b := filterFixture(t)
	require.NoError(t, a.SetRange("number2", -10))
	require.NoError(t, a.SetIn(sess.Lookup(a, b).MustAdd("date", "created").MustAdd("number1", "numb1")))

	stmt, args := a.SQL()
	assert.Equal(t,
		`SELECT COUNT(*) FROM "aFilter" d WHERE d."number2" = ? AND EXISTS (SELECT 1 FROM "bFilter" r WHERE r."created" = d."date" AND r."numb1" = d."number1")`,
		stmt)
	assert.Equal(t, []any{-10}, args)
}
