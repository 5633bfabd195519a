package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrExecution marks a query that was built but failed to run. Callers match
// it with errors.Is to distinguish execution failures from programming errors.
var ErrExecution = errors.New("query execution failed")

// MovieRepository provides catalog access over a SQL database.
type MovieRepository struct {
	db      DB
	dialect Dialect
}

// NewMovieRepository creates a repository bound to the given connection.
func NewMovieRepository(db DB, dialect Dialect) *MovieRepository {
	return &MovieRepository{db: db, dialect: dialect}
}

// Dialect reports the SQL dialect the repository was opened with.
func (r *MovieRepository) Dialect() Dialect {
	return r.dialect
}

// Query runs a parameterized SELECT over the movies table and scans the
// result rows. Any database failure is wrapped in ErrExecution so callers can
// degrade gracefully instead of surfacing driver errors to users.
func (r *MovieRepository) Query(ctx context.Context, text string, params ...interface{}) ([]Movie, error) {
	rows, err := r.db.QueryContext(ctx, text, params...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	defer rows.Close()

	movies, err := scanMovies(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	return movies, nil
}

// GetByIDs fetches movies by catalog ID, returning them in the order the IDs
// were given. Missing IDs are skipped.
func (r *MovieRepository) GetByIDs(ctx context.Context, ids []int64) ([]Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	params := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = r.dialect.Placeholder(i + 1)
		params[i] = id
	}

	query := fmt.Sprintf("SELECT %s FROM movies WHERE id IN (%s)", Columns, strings.Join(placeholders, ", "))
	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	defer rows.Close()

	fetched, err := scanMovies(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	byID := make(map[int64]Movie, len(fetched))
	for _, m := range fetched {
		byID[m.ID] = m
	}

	ordered := make([]Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}
	return ordered, nil
}

// UpsertBatch inserts movies in a single transaction, ignoring rows whose ID
// already exists. It returns the IDs that were actually inserted so callers
// can index only new catalog entries.
func (r *MovieRepository) UpsertBatch(ctx context.Context, movies []Movie) ([]int64, error) {
	if len(movies) == 0 {
		return nil, nil
	}

	sqlDB, ok := r.db.(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("upsert requires a *sql.DB connection")
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		"INSERT INTO movies (%s) VALUES (%s, %s, %s, %s, %s, %s, %s, %s) ON CONFLICT (id) DO NOTHING",
		Columns,
		r.dialect.Placeholder(1), r.dialect.Placeholder(2), r.dialect.Placeholder(3),
		r.dialect.Placeholder(4), r.dialect.Placeholder(5), r.dialect.Placeholder(6),
		r.dialect.Placeholder(7), r.dialect.Placeholder(8),
	)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	var inserted []int64
	for _, m := range movies {
		var releaseDate interface{}
		if m.ReleaseDate != nil {
			releaseDate = *m.ReleaseDate
		}
		res, err := stmt.ExecContext(ctx, m.ID, m.Title, m.Overview, releaseDate,
			m.Popularity, m.VoteAverage, m.Adult, m.OriginalLanguage)
		if err != nil {
			return nil, fmt.Errorf("insert movie %d: %w", m.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("insert movie %d: %w", m.ID, err)
		}
		if affected > 0 {
			inserted = append(inserted, m.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert transaction: %w", err)
	}
	return inserted, nil
}

// Count reports the number of movies in the catalog.
func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	return n, nil
}

func scanMovies(rows *sql.Rows) ([]Movie, error) {
	var movies []Movie
	for rows.Next() {
		var (
			m           Movie
			releaseDate sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.Overview, &releaseDate,
			&m.Popularity, &m.VoteAverage, &m.Adult, &m.OriginalLanguage); err != nil {
			return nil, err
		}
		if releaseDate.Valid {
			t := releaseDate.Time
			m.ReleaseDate = &t
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}
