package memcache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/linnemanlabs/urgency/internal/taxonomy"
	"github.com/linnemanlabs/urgency/internal/urgency"
)

func result(sub string) urgency.Result {
	u, _ := taxonomy.Default().TierOf(sub)
	return urgency.Result{
		Urgency:     u,
		Subcategory: sub,
		Confidence:  0.9,
		Reasoning:   "test",
		SLA:         taxonomy.Default().SLA(u),
	}
}

func TestCache_PutAndGet(t *testing.T) {
	t.Parallel()

	c := New(0)
	ctx := context.Background()
	key := urgency.CacheKey("my card was stolen")

	if err := c.Put(ctx, key, result("Fraud_Report")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected result to be found")
	}
	if got != result("Fraud_Report") {
		t.Errorf("Get = %+v, want %+v", got, result("Fraud_Report"))
	}
}

func TestCache_GetMissing(t *testing.T) {
	t.Parallel()

	_, ok, err := New(0).Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing key")
	}
}

func TestCache_PutOverwrites(t *testing.T) {
	t.Parallel()

	c := New(0)
	ctx := context.Background()
	_ = c.Put(ctx, "k", result("Fraud_Report"))
	_ = c.Put(ctx, "k", result("Status_Check"))

	got, _, _ := c.Get(ctx, "k")
	if got.Subcategory != "Status_Check" {
		t.Errorf("Subcategory = %q, want Status_Check", got.Subcategory)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCache_UnboundedNeverEvicts(t *testing.T) {
	t.Parallel()

	c := New(0)
	ctx := context.Background()
	for i := range 1000 {
		_ = c.Put(ctx, fmt.Sprintf("k-%d", i), result("Status_Check"))
	}
	if c.Len() != 1000 {
		t.Errorf("Len = %d, want 1000", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "k-0"); !ok {
		t.Error("first entry evicted from unbounded cache")
	}
}

func TestCache_LRUEviction(t *testing.T) {
	t.Parallel()

	c := New(2)
	ctx := context.Background()
	_ = c.Put(ctx, "a", result("Fraud_Report"))
	_ = c.Put(ctx, "b", result("Status_Check"))

	// touch a so b becomes least recently used
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Fatal("a missing")
	}
	_ = c.Put(ctx, "c", result("KYC_Compliance"))

	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok, _ := c.Get(ctx, k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	c := New(0)
	ctx := context.Background()
	_ = c.Put(ctx, "a", result("Fraud_Report"))
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("entry survived Clear")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New(50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k-%d", n%70)
			_ = c.Put(ctx, key, result("Status_Check"))
			_, _, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len = %d, exceeds bound 50", c.Len())
	}
}

func TestCache_SatisfiesInterface(t *testing.T) {
	t.Parallel()
	var _ urgency.Cache = New(0)
}

func TestCache_BoundedOverwriteAndClear(t *testing.T) {
	t.Parallel()

	c := New(2)
	ctx := context.Background()
	_ = c.Put(ctx, "a", result("Fraud_Report"))
	_ = c.Put(ctx, "b", result("Status_Check"))
	_ = c.Put(ctx, "a", result("KYC_Compliance"))

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	got, ok, _ := c.Get(ctx, "a")
	if !ok || got.Subcategory != "KYC_Compliance" {
		t.Errorf("Get(a) = %+v, %v; want KYC_Compliance", got, ok)
	}
	if _, ok, _ := c.Get(ctx, "b"); !ok {
		t.Error("overwrite evicted b")
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("entry survived Clear")
	}
}

func TestNew_NegativeIsUnbounded(t *testing.T) {
	t.Parallel()

	c := New(-5)
	ctx := context.Background()
	for i := range 10 {
		_ = c.Put(ctx, fmt.Sprintf("k-%d", i), result("Status_Check"))
	}
	if c.Len() != 10 {
		t.Errorf("Len = %d, want 10", c.Len())
	}
}
