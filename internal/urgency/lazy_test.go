package urgency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLazyProvider_ConstructsOnce(t *testing.T) {
	t.Parallel()

	var built atomic.Int32
	inner := &mockProvider{reply: staticReply(`{}`)}
	lazy := NewLazyProvider(func() (Provider, error) {
		built.Add(1)
		return inner, nil
	})

	if built.Load() != 0 {
		t.Fatal("factory ran before first use")
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := lazy.Send(context.Background(), &LLMRequest{}); err != nil {
				t.Errorf("Send: %v", err)
			}
		}()
	}
	wg.Wait()

	if built.Load() != 1 {
		t.Errorf("factory ran %d times, want 1", built.Load())
	}
	if inner.calls.Load() != 16 {
		t.Errorf("inner calls = %d, want 16", inner.calls.Load())
	}
}

func TestLazyProvider_ConstructionErrorIsConfiguration(t *testing.T) {
	t.Parallel()

	cause := errors.New("missing api key")
	lazy := NewLazyProvider(func() (Provider, error) { return nil, cause })

	_, err := lazy.Send(context.Background(), &LLMRequest{})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("errors.Is(err, ErrConfiguration) = false for %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false for %v", err)
	}

	p, err := lazy.Get()
	if p != nil || err == nil {
		t.Errorf("Get() = %v, %v; want nil provider and remembered error", p, err)
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"wrapped deadline", &ProviderError{Kind: "transport", Err: context.DeadlineExceeded}, "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"provider", &ProviderError{Kind: "overloaded", Err: errors.New("529")}, "overloaded"},
		{"unknown", errors.New("boom"), "transport"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("%s: ErrorKind = %q, want %q", tt.name, got, tt.want)
		}
	}
}
