// Package store holds the optional Postgres connection used for readiness
// checks and operator-maintained synonym overrides.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Skufu/symptomsense/internal/symptoms"
)

const synonymsQuery = `SELECT canonical, synonym FROM symptom_synonyms ORDER BY id`

// Querier is the subset of pgxpool.Pool the synonym loader needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

// LoadSynonyms reads override rows and groups them by canonical term in
// first-seen order. A row with an empty synonym only declares the canonical.
func LoadSynonyms(ctx context.Context, db Querier) ([]symptoms.Entry, error) {
	rows, err := db.Query(ctx, synonymsQuery)
	if err != nil {
		return nil, fmt.Errorf("query synonyms: %w", err)
	}
	defer rows.Close()

	var entries []symptoms.Entry
	index := make(map[string]int)
	for rows.Next() {
		var canonical, synonym string
		if err := rows.Scan(&canonical, &synonym); err != nil {
			return nil, fmt.Errorf("scan synonym: %w", err)
		}
		i, ok := index[canonical]
		if !ok {
			i = len(entries)
			index[canonical] = i
			entries = append(entries, symptoms.Entry{Canonical: canonical})
		}
		if synonym != "" {
			entries[i].Synonyms = append(entries[i].Synonyms, synonym)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	return entries, nil
}
