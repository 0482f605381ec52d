package state

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-careerwatch/internal/dedup"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresBackend = "postgres"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS seen_postings (
	id TEXT PRIMARY KEY,
	first_seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres keeps the seen IDs in a table, for runs that have no durable disk
// (CI runners, containers).
type Postgres struct {
	db *pgxpool.Pool
}

func ConnectPostgres(ctx context.Context, connString string) (*Postgres, error) {
	if connString == "" {
		return nil, &Error{Backend: postgresBackend, Op: "open", Err: errors.New("database url is required")}
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, &Error{Backend: postgresBackend, Op: "open", Err: fmt.Errorf("unable to parse database url: %w", err)}
	}

	// One run, one reader, one writer.
	config.MaxConns = 2
	config.MaxConnLifetime = time.Hour

	// Poolers in transaction mode (PgBouncer, Supabase) do not support prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, &Error{Backend: postgresBackend, Op: "open", Err: fmt.Errorf("unable to connect to database: %w", err)}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &Error{Backend: postgresBackend, Op: "open", Err: fmt.Errorf("database unreachable: %w", err)}
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, &Error{Backend: postgresBackend, Op: "open", Err: fmt.Errorf("migrate: %w", err)}
	}

	return &Postgres{db: pool}, nil
}

func (p *Postgres) Load(ctx context.Context) (dedup.SeenSet, error) {
	rows, err := p.db.Query(ctx, "SELECT id FROM seen_postings")
	if err != nil {
		return nil, corrupt(postgresBackend, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, corrupt(postgresBackend, err)
	}

	seen := dedup.NewSeenSet(ids...)
	log.Printf("📋 Loaded %d previously seen postings", seen.Len())
	return seen, nil
}

// Save makes the table hold exactly seen, in one transaction.
func (p *Postgres) Save(ctx context.Context, seen dedup.SeenSet) error {
	fail := func(e error) error {
		return &Error{Backend: postgresBackend, Op: "save", Err: e}
	}

	ids := seen.IDs()
	err := pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM seen_postings WHERE NOT (id = ANY($1))", ids); err != nil {
			return fmt.Errorf("delete stale ids: %w", err)
		}
		query := `
			INSERT INTO seen_postings (id)
			SELECT unnest($1::text[])
			ON CONFLICT (id) DO NOTHING`
		if _, err := tx.Exec(ctx, query, ids); err != nil {
			return fmt.Errorf("insert ids: %w", err)
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	log.Printf("💾 Saved %d seen postings to postgres", len(ids))
	return nil
}

func (p *Postgres) Close() error {
	if p.db != nil {
		p.db.Close()
	}
	return nil
}
