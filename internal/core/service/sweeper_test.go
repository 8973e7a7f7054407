package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/yndnr/chatmesh-go/internal/telemetry/metric"
)

func TestSweeperReapsExpiredKeys(t *testing.T) {
	issuer := NewExchangeKeyIssuer()
	if _, err := issuer.Issue("alice"); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	issuer.mu.Lock()
	issuer.keys["alice"].ExpiresAt = time.Now().UnixMilli() - 1
	issuer.mu.Unlock()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := NewSweeper(issuer, 10*time.Millisecond, logger, metric.NewNop())
	sweeper.Start()
	defer sweeper.Stop()

	eventually(t, func() bool {
		return issuer.Len() == 0
	}, "expired key was never swept")
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := NewSweeper(NewExchangeKeyIssuer(), 0, logger, metric.NewNop())

	if sweeper.interval != DefaultSweepInterval {
		t.Errorf("interval = %v, want default %v", sweeper.interval, DefaultSweepInterval)
	}

	sweeper.Start()
	sweeper.Stop()
	sweeper.Stop()
}
