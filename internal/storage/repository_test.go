package storage_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/partiu085-web/internal/offer"
	"github.com/neexbeast/partiu085-web/internal/storage"
)

// ---- mock Querier ----

type mockQuerier struct {
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFn(ctx, sql, args...)
}
func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.queryFn(ctx, sql, args...)
}
func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFn(ctx, sql, args...)
}

// ---- mock pgx.Row ----

type fakeRow struct {
	scanFn func(dest ...any) error
}

func (f *fakeRow) Scan(dest ...any) error { return f.scanFn(dest...) }

// ---- mock pgx.Rows ----

type fakeRows struct {
	rows    [][]any
	idx     int
	rowErr  error
	scanErr error
}

func (f *fakeRows) Next() bool                                   { f.idx++; return f.idx <= len(f.rows) }
func (f *fakeRows) Err() error                                   { return f.rowErr }
func (f *fakeRows) Close()                                       {}
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	row := f.rows[f.idx-1]
	for i, d := range dest {
		if i >= len(row) {
			break
		}
		switch v := d.(type) {
		case *int64:
			*v = row[i].(int64)
		case *string:
			*v = row[i].(string)
		case *bool:
			*v = row[i].(bool)
		case *[]byte:
			*v = row[i].([]byte)
		case *time.Time:
			*v = row[i].(time.Time)
		}
	}
	return nil
}

// ---- mock MigrationPool ----

type mockMigrationPool struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockMigrationPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.beginFn(ctx)
}

// mockTx is a minimal pgx.Tx implementation for testing migrations.
type mockTx struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
}

func (t *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.execFn(ctx, sql, args...)
}
func (t *mockTx) Commit(ctx context.Context) error   { return t.commitFn(ctx) }
func (t *mockTx) Rollback(ctx context.Context) error { return t.rollbackFn(ctx) }

// Remaining pgx.Tx methods are unused by migrations.
func (t *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (t *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *mockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *mockTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (t *mockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *mockTx) Conn() *pgx.Conn { return nil }

func okTx(onExec func(sql string)) *mockTx {
	return &mockTx{
		execFn: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			if onExec != nil {
				onExec(sql)
			}
			return pgconn.CommandTag{}, nil
		},
		commitFn:   func(_ context.Context) error { return nil },
		rollbackFn: func(_ context.Context) error { return nil },
	}
}

func searchRow(id int64, dests string, created time.Time) []any {
	return []any{id, "AUTO", []byte(dests), "2025-12-01", "", true, "ok", created}
}

// ---- RecordSearch tests ----

func TestRecordSearch_Success(t *testing.T) {
	var capturedArgs []any
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
			capturedArgs = args
			return &fakeRow{scanFn: func(dest ...any) error {
				*dest[0].(*int64) = 42
				return nil
			}}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	id, err := repo.RecordSearch(context.Background(), storage.SearchRecord{
		Mode:         offer.ModeManual,
		Destinations: []string{"MIA", "LIS"},
		DepartDate:   "2025-12-01",
		ReturnDate:   "2025-12-15",
		Success:      true,
		Message:      "Busca iniciada",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	require.Len(t, capturedArgs, 6)
	assert.Equal(t, "MANUAL", capturedArgs[0])
	assert.JSONEq(t, `["MIA","LIS"]`, string(capturedArgs[1].([]byte)))
	assert.Equal(t, "2025-12-15", capturedArgs[3])
	assert.Equal(t, true, capturedArgs[4])
}

func TestRecordSearch_NilDestinationsStoredAsEmptyArray(t *testing.T) {
	var stored []byte
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
			stored = args[1].([]byte)
			return &fakeRow{scanFn: func(dest ...any) error {
				*dest[0].(*int64) = 1
				return nil
			}}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.RecordSearch(context.Background(), storage.SearchRecord{Mode: offer.ModeAuto})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(stored))
}

func TestRecordSearch_DBError(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(dest ...any) error { return fmt.Errorf("connection reset") }}
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.RecordSearch(context.Background(), storage.SearchRecord{Destinations: []string{"MIA"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting search")
}

// ---- RecentSearches tests ----

func TestRecentSearches_Found(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	var capturedSQL string
	var capturedArgs []any

	q := &mockQuerier{
		queryFn: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			capturedSQL = sql
			capturedArgs = args
			return &fakeRows{rows: [][]any{
				searchRow(2, `["MIA"]`, now),
				searchRow(1, `["LIS","OPO"]`, now.Add(-time.Hour)),
			}}, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	results, err := repo.RecentSearches(context.Background(), "", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.NotContains(t, capturedSQL, "WHERE")
	assert.Equal(t, []any{5}, capturedArgs)

	assert.Equal(t, int64(2), results[0].ID)
	assert.Equal(t, offer.ModeAuto, results[0].Mode)
	assert.Equal(t, []string{"LIS", "OPO"}, results[1].Destinations)
	assert.True(t, results[0].Success)
	assert.Equal(t, now, results[0].CreatedAt)
}

func TestRecentSearches_FilterByDestination(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any

	q := &mockQuerier{
		queryFn: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			capturedSQL = sql
			capturedArgs = args
			return &fakeRows{}, nil
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	results, err := repo.RecentSearches(context.Background(), " mia ", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.Contains(t, capturedSQL, "destinations ? $1")
	require.Len(t, capturedArgs, 2)
	assert.Equal(t, "MIA", capturedArgs[0])
	assert.Equal(t, 10, capturedArgs[1], "non-positive limit falls back to the default")
}

func TestRecentSearches_QueryError(t *testing.T) {
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return nil, fmt.Errorf("query failed")
		},
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.RecentSearches(context.Background(), "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying recent searches")
}

func TestRecentSearches_ScanError(t *testing.T) {
	rows := &fakeRows{
		rows:    [][]any{searchRow(1, `[]`, time.Now())},
		scanErr: fmt.Errorf("scan failed"),
	}

	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return rows, nil },
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.RecentSearches(context.Background(), "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning")
}

func TestRecentSearches_RowsErr(t *testing.T) {
	rows := &fakeRows{rowErr: fmt.Errorf("rows iteration error")}

	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return rows, nil },
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.RecentSearches(context.Background(), "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iterating")
}

func TestRecentSearches_BadJSON(t *testing.T) {
	rows := &fakeRows{rows: [][]any{searchRow(1, "not-json", time.Now())}}

	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return rows, nil },
	}

	repo := storage.NewRepositoryWithQuerier(q)
	_, err := repo.RecentSearches(context.Background(), "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling")
}

func TestSearchRecord_JSONKeys(t *testing.T) {
	b, err := json.Marshal(storage.SearchRecord{ID: 1, Mode: offer.ModeAuto, Destinations: []string{"MIA"}, DepartDate: "2025-12-01"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "AUTO", m["modo"])
	assert.Contains(t, m, "destinos")
	assert.NotContains(t, m, "data_volta")
}

// ---- NewRepository ----

func TestNewRepository_NotNil(t *testing.T) {
	repo := storage.NewRepository(nil)
	assert.NotNil(t, repo)
}

// ---- RunMigrations tests ----

func TestRunMigrations_EmptyFS(t *testing.T) {
	err := storage.RunMigrations(context.Background(), nil, fstest.MapFS{})
	require.NoError(t, err)
}

func TestRunMigrations_SkipsNonSQL(t *testing.T) {
	var ran []string
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) {
			return okTx(func(sql string) { ran = append(ran, sql) }), nil
		},
	}

	fsys := fstest.MapFS{
		"001_a.sql":     {Data: []byte("SELECT 1;")},
		"migrations.go": {Data: []byte("package migrations")},
		"sub/002_b.sql": {Data: []byte("SELECT 2;")},
		"README":        {Data: []byte("notes")},
	}

	require.NoError(t, storage.RunMigrations(context.Background(), pool, fsys))
	assert.Equal(t, []string{"SELECT 1;"}, ran)
}

func TestRunMigrations_Success(t *testing.T) {
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return okTx(nil), nil },
	}

	err := storage.RunMigrations(context.Background(), pool, fstest.MapFS{
		"001_test.sql": {Data: []byte("SELECT 1;")},
	})
	require.NoError(t, err)
}

func TestRunMigrations_BeginError(t *testing.T) {
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return nil, fmt.Errorf("cannot begin") },
	}

	err := storage.RunMigrations(context.Background(), pool, fstest.MapFS{
		"001_test.sql": {Data: []byte("SELECT 1;")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executing migration 001_test.sql")
}

func TestRunMigrations_ExecErrorRollsBack(t *testing.T) {
	rolledBack := false
	tx := &mockTx{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, fmt.Errorf("syntax error")
		},
		commitFn:   func(_ context.Context) error { return nil },
		rollbackFn: func(_ context.Context) error { rolledBack = true; return nil },
	}
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return tx, nil },
	}

	err := storage.RunMigrations(context.Background(), pool, fstest.MapFS{
		"001_test.sql": {Data: []byte("INVALID SQL;")},
	})
	require.Error(t, err)
	assert.True(t, rolledBack)
}

func TestRunMigrations_CommitError(t *testing.T) {
	tx := okTx(nil)
	tx.commitFn = func(_ context.Context) error { return fmt.Errorf("commit failed") }
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) { return tx, nil },
	}

	err := storage.RunMigrations(context.Background(), pool, fstest.MapFS{
		"001_test.sql": {Data: []byte("SELECT 1;")},
	})
	require.Error(t, err)
}

func TestRunMigrations_SortsFilesLexicographically(t *testing.T) {
	var order []string
	pool := &mockMigrationPool{
		beginFn: func(_ context.Context) (pgx.Tx, error) {
			return okTx(func(sql string) { order = append(order, sql) }), nil
		},
	}

	err := storage.RunMigrations(context.Background(), pool, fstest.MapFS{
		"003_c.sql": {Data: []byte("SELECT 3;")},
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"002_b.sql": {Data: []byte("SELECT 2;")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1;", "SELECT 2;", "SELECT 3;"}, order)
}

// ---- Connect tests ----

func TestConnect_BadURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := storage.Connect(ctx, "postgres://invalid-host-xyz:5432/db?sslmode=disable")
	require.Error(t, err)
}
