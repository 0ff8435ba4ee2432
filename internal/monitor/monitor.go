package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"netcore/internal/domain"
)

// Store is the slice of the device store the monitor reads and writes
type Store interface {
	ListProbeTargets(ctx context.Context) ([]domain.ProbeTarget, error)
	UpdateStatuses(ctx context.Context, updates []domain.StatusUpdate) error
}

// Prober sends one reachability probe. It reports false for every failure
// and should return promptly once ctx is done.
type Prober interface {
	Probe(ctx context.Context, addr string) bool
}

// ProberFunc adapts a function to Prober
type ProberFunc func(ctx context.Context, addr string) bool

func (f ProberFunc) Probe(ctx context.Context, addr string) bool {
	return f(ctx, addr)
}

// Config holds monitor settings
type Config struct {
	// Interval is the pause between the end of one round and the next
	Interval time.Duration
	// ProbeTimeout bounds each individual probe
	ProbeTimeout time.Duration
	// MaxConcurrent limits in-flight probes per round; 0 means unbounded
	MaxConcurrent int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval:      60 * time.Second,
		ProbeTimeout:  2 * time.Second,
		MaxConcurrent: 64,
	}
}

// RoundResult summarizes one completed round
type RoundResult struct {
	Probed      int
	Alive       int
	Unreachable int
	Duration    time.Duration
}

// Monitor runs liveness rounds against a store
type Monitor struct {
	store  Store
	prober Prober
	config Config
	log    zerolog.Logger
}

// New creates a monitor. Zero durations in cfg fall back to DefaultConfig.
func New(store Store, prober Prober, cfg Config, log zerolog.Logger) *Monitor {
	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaults.ProbeTimeout
	}
	if cfg.MaxConcurrent < 0 {
		cfg.MaxConcurrent = 0
	}

	return &Monitor{
		store:  store,
		prober: prober,
		config: cfg,
		log:    log.With().Str("component", "monitor").Logger(),
	}
}

// Run executes rounds until ctx is cancelled. Round failures are logged and
// the loop continues.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().
		Dur("interval", m.config.Interval).
		Dur("probe_timeout", m.config.ProbeTimeout).
		Int("max_concurrent", m.config.MaxConcurrent).
		Msg("monitor started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("monitor stopped")
			return nil
		case <-timer.C:
		}

		if _, err := m.RunRound(ctx); err != nil {
			if ctx.Err() != nil {
				m.log.Info().Msg("monitor stopped")
				return nil
			}
			m.log.Error().Err(err).Msg("round failed")
		}

		// Sleep starts after the round's writes are done
		timer.Reset(m.config.Interval)
	}
}

// RunRound probes every device once and writes the results as one batch
func (m *Monitor) RunRound(ctx context.Context) (RoundResult, error) {
	start := time.Now()

	targets, err := m.store.ListProbeTargets(ctx)
	if err != nil {
		return RoundResult{}, &RoundError{Op: "list probe targets", Err: err}
	}
	if len(targets) == 0 {
		m.log.Info().Msg("no devices to probe")
		return RoundResult{}, nil
	}

	updates := m.probeAll(ctx, targets)
	if err := ctx.Err(); err != nil {
		return RoundResult{}, err
	}

	if err := m.store.UpdateStatuses(ctx, updates); err != nil {
		return RoundResult{}, &RoundError{Op: "update statuses", Err: err}
	}

	result := RoundResult{Probed: len(updates), Duration: time.Since(start)}
	for i, u := range updates {
		if u.Status == domain.StatusAlive {
			result.Alive++
		} else {
			result.Unreachable++
		}
		m.log.Info().Str("ip", targets[i].IPAddress).Str("status", string(u.Status)).Msg("probe")
	}

	m.log.Debug().
		Int("probed", result.Probed).
		Int("alive", result.Alive).
		Int("unreachable", result.Unreachable).
		Dur("duration", result.Duration).
		Msg("round complete")

	return result, nil
}

// probeAll fans out one probe per target and returns updates in target order
func (m *Monitor) probeAll(ctx context.Context, targets []domain.ProbeTarget) []domain.StatusUpdate {
	updates := make([]domain.StatusUpdate, len(targets))

	var g errgroup.Group
	if m.config.MaxConcurrent > 0 {
		g.SetLimit(m.config.MaxConcurrent)
	}

	for i, t := range targets {
		g.Go(func() error {
			// Each goroutine owns updates[i]
			updates[i] = domain.StatusUpdate{
				DeviceID: t.DeviceID,
				Status:   domain.StatusFromProbe(m.probe(ctx, t.IPAddress)),
			}
			return nil
		})
	}
	_ = g.Wait()

	return updates
}

// probe runs a single probe under its own timeout. A probe that has not
// answered by the deadline is unreachable even if the prober ignores ctx.
func (m *Monitor) probe(ctx context.Context, addr string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.config.ProbeTimeout)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		done <- m.prober.Probe(ctx, addr)
	}()

	select {
	case alive := <-done:
		return alive && !errors.Is(ctx.Err(), context.DeadlineExceeded)
	case <-ctx.Done():
		return false
	}
}
