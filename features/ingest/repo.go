package ingest

import (
	"context"
	"database/sql"
)

type Repository interface {
	CreateIfAbsent(ctx context.Context, url string) (*Job, bool, error)
	Get(ctx context.Context, url string) (*Job, error)
	List(ctx context.Context) ([]Job, error)
	Count(ctx context.Context) (int, error)
	CompareAndSetStatus(ctx context.Context, url string, expected, next Status) (bool, error)
	SetFailed(ctx context.Context, url, message string) error
	SetCompleted(ctx context.Context, url string, chunkCount int) error
	Requeue(ctx context.Context, url string) (bool, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const jobColumns = `url, status, COALESCE(error_message, ''), chunk_count, created_at, updated_at`

// CreateIfAbsent inserts a pending job for url unless one already exists.
// The second return value reports whether a new row was created; either way
// the current row is returned.
func (r *PostgresRepo) CreateIfAbsent(ctx context.Context, url string) (*Job, bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ingestion_jobs (url, status) VALUES ($1, $2) ON CONFLICT (url) DO NOTHING`,
		url, StatusPending)
	if err != nil {
		return nil, false, err
	}

	created := false
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		created = true
	}

	job, err := r.Get(ctx, url)
	if err != nil {
		return nil, false, err
	}
	return job, created, nil
}

func (r *PostgresRepo) Get(ctx context.Context, url string) (*Job, error) {
	j := &Job{}
	query := `SELECT ` + jobColumns + ` FROM ingestion_jobs WHERE url = $1`
	err := r.db.QueryRowContext(ctx, query, url).
		Scan(&j.URL, &j.Status, &j.ErrorMessage, &j.ChunkCount, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM ingestion_jobs ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.URL, &j.Status, &j.ErrorMessage, &j.ChunkCount, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingestion_jobs`).Scan(&count)
	return count, err
}

// CompareAndSetStatus transitions url from expected to next in a single
// statement. The WHERE clause on status is what makes concurrent claims
// safe: of two workers racing on a pending job, only one update matches.
func (r *PostgresRepo) CompareAndSetStatus(ctx context.Context, url string, expected, next Status) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ingestion_jobs SET status = $3, updated_at = NOW() WHERE url = $1 AND status = $2`,
		url, expected, next)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepo) SetFailed(ctx context.Context, url, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ingestion_jobs SET status = $2, error_message = $3, chunk_count = 0, updated_at = NOW() WHERE url = $1`,
		url, StatusFailed, message)
	return err
}

func (r *PostgresRepo) SetCompleted(ctx context.Context, url string, chunkCount int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ingestion_jobs SET status = $2, error_message = NULL, chunk_count = $3, updated_at = NOW() WHERE url = $1`,
		url, StatusCompleted, chunkCount)
	return err
}

// Requeue resets a terminal job back to pending for an explicit retry. Jobs
// that are pending or processing are left untouched.
func (r *PostgresRepo) Requeue(ctx context.Context, url string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ingestion_jobs SET status = $2, error_message = NULL, chunk_count = 0, updated_at = NOW() WHERE url = $1 AND status IN ($3, $4)`,
		url, StatusPending, StatusCompleted, StatusFailed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
