package pgcache_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/linnemanlabs/urgency/internal/postgres"
	"github.com/linnemanlabs/urgency/internal/taxonomy"
	"github.com/linnemanlabs/urgency/internal/urgency"
	"github.com/linnemanlabs/urgency/internal/urgency/pgcache"
)

func openCache(t *testing.T) *pgcache.Cache {
	t.Helper()
	dsn := os.Getenv("URGENCY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("URGENCY_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	c, err := pgcache.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgcache.New: %v", err)
	}
	t.Cleanup(func() { _ = c.Clear(context.Background()) })
	return c
}

func TestPutAndGet(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	want := urgency.Result{
		Urgency:     taxonomy.Medium,
		Subcategory: "Billing_Error",
		Confidence:  0.81,
		Reasoning:   "Duplicate charge on statement.",
		SLA:         taxonomy.SLA24Hours,
	}
	key := urgency.CacheKey("I was charged twice")

	if err := c.Put(ctx, key, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestGet_Missing(t *testing.T) {
	c := openCache(t)

	_, ok, err := c.Get(context.Background(), strings.Repeat("0", 64))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing key")
	}
}

func TestPut_Upserts(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()
	key := urgency.CacheKey("upsert me")

	first := urgency.Fallback(urgency.CauseAPIError, "timeout")
	second := urgency.Result{
		Urgency:     taxonomy.Low,
		Subcategory: "Status_Check",
		Confidence:  0.6,
		Reasoning:   "Asking about a transfer.",
		SLA:         taxonomy.SLA48Hours,
	}
	if err := c.Put(ctx, key, first); err != nil {
		t.Fatalf("Put first: %v", err)
	}
	if err := c.Put(ctx, key, second); err != nil {
		t.Fatalf("Put second: %v", err)
	}

	got, _, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != second {
		t.Errorf("Get = %+v, want %+v", got, second)
	}
}

func TestClear(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()
	key := urgency.CacheKey("clear me")

	if err := c.Put(ctx, key, urgency.Fallback(urgency.CauseEmptyInput, "")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := c.Get(ctx, key); ok {
		t.Error("row survived Clear")
	}
}
