package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/chatmesh-go/internal/telemetry/metric"
)

// DefaultSweepInterval is how often expired exchange keys are reaped when
// no interval is configured.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes expired exchange keys. Expired keys are
// already rejected on use; the sweep only bounds memory held by clients
// that never finished their handshake.
type Sweeper struct {
	issuer   *ExchangeKeyIssuer
	interval time.Duration
	logger   *slog.Logger
	metrics  *metric.Registry

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper over the given issuer. A non-positive
// interval falls back to DefaultSweepInterval.
func NewSweeper(issuer *ExchangeKeyIssuer, interval time.Duration, logger *slog.Logger, metrics *metric.Registry) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		issuer:   issuer,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop halts the sweep loop and waits for it to exit. Safe to call more
// than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.issuer.SweepExpired(); n > 0 {
				s.metrics.ExchangeKeysExpired.Add(float64(n))
				s.logger.Debug("expired exchange keys swept", "count", n)
			}
		case <-s.stop:
			return
		}
	}
}
