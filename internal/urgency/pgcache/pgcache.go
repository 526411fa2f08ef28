// Package pgcache provides a PostgreSQL implementation of urgency.Cache.
package pgcache

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/urgency/internal/taxonomy"
	"github.com/linnemanlabs/urgency/internal/urgency"
)

var tracer = otel.Tracer("github.com/linnemanlabs/urgency/internal/urgency/pgcache")

//go:embed schema.sql
var schema string

// Cache persists results in the urgency_cache table. Rows are keyed by the
// content hash and never expire.
type Cache struct {
	pool *pgxpool.Pool
}

// New applies the schema on pool and returns a ready Cache. The pool is
// owned by the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Cache, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Cache{pool: pool}, nil
}

func startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Get returns the result stored under key.
func (c *Cache) Get(ctx context.Context, key string) (urgency.Result, bool, error) {
	ctx, span := startSpan(ctx, "pgcache.Get", "SELECT")
	defer span.End()

	var (
		r        urgency.Result
		urg, sla string
	)
	err := c.pool.QueryRow(ctx,
		`SELECT urgency, subcategory, confidence, reasoning, sla FROM urgency_cache WHERE key = $1`,
		key,
	).Scan(&urg, &r.Subcategory, &r.Confidence, &r.Reasoning, &sla)
	if errors.Is(err, pgx.ErrNoRows) {
		return urgency.Result{}, false, nil
	}
	if err != nil {
		return urgency.Result{}, false, fail(span, fmt.Errorf("select: %w", err))
	}

	r.Urgency = taxonomy.Urgency(urg)
	r.SLA = taxonomy.SLA(sla)
	return r, true, nil
}

// Put upserts r under key. The row id is a fresh ULID on first insert and
// kept on update.
func (c *Cache) Put(ctx context.Context, key string, r urgency.Result) error {
	ctx, span := startSpan(ctx, "pgcache.Put", "UPSERT")
	defer span.End()

	now := time.Now().UTC()
	_, err := c.pool.Exec(ctx,
		`INSERT INTO urgency_cache (key, id, urgency, subcategory, confidence, reasoning, sla, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT (key) DO UPDATE SET
			urgency     = EXCLUDED.urgency,
			subcategory = EXCLUDED.subcategory,
			confidence  = EXCLUDED.confidence,
			reasoning   = EXCLUDED.reasoning,
			sla         = EXCLUDED.sla,
			updated_at  = EXCLUDED.updated_at`,
		key, ulid.Make().String(), string(r.Urgency), r.Subcategory, r.Confidence, r.Reasoning, string(r.SLA), now,
	)
	if err != nil {
		return fail(span, fmt.Errorf("upsert: %w", err))
	}
	return nil
}

// Clear deletes every cached row.
func (c *Cache) Clear(ctx context.Context) error {
	ctx, span := startSpan(ctx, "pgcache.Clear", "DELETE")
	defer span.End()

	tag, err := c.pool.Exec(ctx, `DELETE FROM urgency_cache`)
	if err != nil {
		return fail(span, fmt.Errorf("delete: %w", err))
	}
	span.SetAttributes(attribute.Int64("db.rows", tag.RowsAffected()))
	return nil
}
