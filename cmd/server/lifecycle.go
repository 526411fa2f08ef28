package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

type stopFn struct {
	name string
	fn   func(context.Context) error
}

// waitForDrain sleeps for d so the load balancer sees the failing readiness
// probe. A value on force ends the wait early.
func waitForDrain(ctx context.Context, L log.Logger, d time.Duration, force <-chan os.Signal) {
	L.Info(ctx, "sleeping for drain period", "drain", d)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		L.Info(ctx, "drain period complete")
	case <-force:
		L.Warn(ctx, "second signal received, skipping drain")
	}
}

// shutdownAll stops components in order. Each gets an equal slice of budget;
// a failure is logged and does not stop the rest.
func shutdownAll(ctx context.Context, L log.Logger, budget time.Duration, fns []stopFn) {
	if len(fns) == 0 {
		return
	}
	perComponent := budget / time.Duration(len(fns))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), budget)
	defer cancel()

	for _, s := range fns {
		if s.fn == nil {
			continue
		}
		cctx, ccancel := context.WithTimeout(shutdownCtx, perComponent)
		if err := s.fn(cctx); err != nil {
			L.Error(ctx, err, s.name+" shutdown")
		}
		ccancel()
	}
}

func notifySystemd() error {
	// set by systemd for Type=notify units
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return fmt.Errorf("NOTIFY_SOCKET not set, skipping systemd notify")
	}
	conn, err := net.Dial("unixgram", addr) //nolint:gosec,noctx // G704: addr is from NOTIFY_SOCKET set by systemd not user input, no context support in net package for unixgram sockets
	if err != nil {
		return fmt.Errorf("systemd notify failed: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if _, err := conn.Write([]byte("READY=1")); err != nil {
		return fmt.Errorf("systemd notify failed: write failed: %w", err)
	}
	return nil
}
