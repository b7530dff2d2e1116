package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"assessment-pipeline/api/internal/types"
)

type PostgresRepo struct{ DB *sql.DB }

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

// OpenPostgres opens a pool through the pgx stdlib driver and pings it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

const schema = `
create table if not exists run_artifacts (
    run_id     text primary key,
    user_id    text not null default '',
    status     text not null,
    started_at timestamptz not null,
    artifact   jsonb not null,
    updated_at timestamptz not null default now()
);
create index if not exists run_artifacts_user_started_idx on run_artifacts (user_id, started_at desc);
create index if not exists run_artifacts_started_idx on run_artifacts (started_at desc);`

func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// Save upserts by run_id.
func (r *PostgresRepo) Save(ctx context.Context, a types.RunArtifact) (string, error) {
	if err := validID(a); err != nil {
		return "", err
	}
	js, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}
	const q = `
insert into run_artifacts(run_id, user_id, status, started_at, artifact)
values ($1,$2,$3,$4,$5)
on conflict (run_id)
do update set user_id=excluded.user_id, status=excluded.status,
              started_at=excluded.started_at, artifact=excluded.artifact, updated_at=now()`
	if _, err := r.DB.ExecContext(ctx, q, a.RunID, a.UserID, string(a.Final.Status), a.Timestamps.StartedAt, js); err != nil {
		return "", err
	}
	return a.RunID, nil
}

func (r *PostgresRepo) Get(ctx context.Context, runID string) (types.RunArtifact, error) {
	var js []byte
	err := r.DB.QueryRowContext(ctx, `select artifact from run_artifacts where run_id=$1`, runID).Scan(&js)
	if errors.Is(err, sql.ErrNoRows) {
		return types.RunArtifact{}, ErrNotFound
	}
	if err != nil {
		return types.RunArtifact{}, err
	}
	var a types.RunArtifact
	if err := json.Unmarshal(js, &a); err != nil {
		return types.RunArtifact{}, fmt.Errorf("decode artifact %s: %w", runID, err)
	}
	return a, nil
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string, limit int) ([]types.RunArtifact, error) {
	const q = `
select artifact from run_artifacts
where user_id = $1
order by started_at desc, run_id desc
limit $2`
	return r.list(ctx, q, userID, normLimit(limit))
}

func (r *PostgresRepo) ListAll(ctx context.Context, limit int) ([]types.RunArtifact, error) {
	const q = `
select artifact from run_artifacts
order by started_at desc, run_id desc
limit $1`
	return r.list(ctx, q, normLimit(limit))
}

func (r *PostgresRepo) list(ctx context.Context, q string, args ...any) ([]types.RunArtifact, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.RunArtifact{}
	for rows.Next() {
		var js []byte
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var a types.RunArtifact
		if err := json.Unmarshal(js, &a); err != nil {
			return nil, fmt.Errorf("decode artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Stats(ctx context.Context) (types.Stats, error) {
	const q = `
select count(*),
       count(*) filter (where status = 'approved'),
       count(*) filter (where status = 'rejected')
from run_artifacts`
	var total, approved, rejected int
	if err := r.DB.QueryRowContext(ctx, q).Scan(&total, &approved, &rejected); err != nil {
		return types.Stats{}, err
	}
	return types.NewStats(total, approved, rejected), nil
}

func (r *PostgresRepo) Clear(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `truncate run_artifacts`)
	return err
}

// SafeDSNSummary renders host/db/user of a DSN without the password.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
