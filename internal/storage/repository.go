package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/partiu085-web/internal/offer"
)

const defaultRecentLimit = 10

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SearchRecord is one search submitted from the radar page.
type SearchRecord struct {
	ID           int64      `json:"id"`
	Mode         offer.Mode `json:"modo"`
	Destinations []string   `json:"destinos"`
	DepartDate   string     `json:"data_ida"`
	ReturnDate   string     `json:"data_volta,omitempty"`
	Success      bool       `json:"success"`
	Message      string     `json:"message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Repository provides database access for the search history.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// RecordSearch stores a submitted search and returns its id.
func (r *Repository) RecordSearch(ctx context.Context, rec SearchRecord) (int64, error) {
	if rec.Destinations == nil {
		rec.Destinations = []string{}
	}
	destJSON, err := json.Marshal(rec.Destinations)
	if err != nil {
		return 0, fmt.Errorf("marshaling destinations: %w", err)
	}

	const q = `
		INSERT INTO searches (mode, destinations, depart_date, return_date, success, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	if err := r.q.QueryRow(ctx, q,
		string(rec.Mode), destJSON, rec.DepartDate, rec.ReturnDate, rec.Success, rec.Message,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting search for %v: %w", rec.Destinations, err)
	}

	return id, nil
}

// RecentSearches returns the latest searches, newest first. A non-empty iata
// restricts the list to searches that included that destination, using the
// JSONB ? operator.
func (r *Repository) RecentSearches(ctx context.Context, iata string, limit int) ([]SearchRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	const base = `
		SELECT id, mode, destinations, depart_date, return_date, success, message, created_at
		FROM searches
	`

	var (
		rows pgx.Rows
		err  error
	)
	if iata = strings.ToUpper(strings.TrimSpace(iata)); iata != "" {
		rows, err = r.q.Query(ctx, base+` WHERE destinations ? $1 ORDER BY created_at DESC LIMIT $2`, iata, limit)
	} else {
		rows, err = r.q.Query(ctx, base+` ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("querying recent searches: %w", err)
	}
	defer rows.Close()

	results := []SearchRecord{}
	for rows.Next() {
		var rec SearchRecord
		var mode string
		var destJSON []byte

		if err := rows.Scan(
			&rec.ID,
			&mode,
			&destJSON,
			&rec.DepartDate,
			&rec.ReturnDate,
			&rec.Success,
			&rec.Message,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}

		if err := json.Unmarshal(destJSON, &rec.Destinations); err != nil {
			return nil, fmt.Errorf("unmarshaling destinations of search %d: %w", rec.ID, err)
		}

		rec.Mode = offer.Mode(mode)
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}

	return results, nil
}
