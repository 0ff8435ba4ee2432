package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netcore/internal/domain"
)

// fakeStore records status batches and can fail on demand
type fakeStore struct {
	mu        sync.Mutex
	targets   []domain.ProbeTarget
	listErr   error
	updateErr error
	batches   [][]domain.StatusUpdate
	lists     int
}

func (s *fakeStore) ListProbeTargets(context.Context) ([]domain.ProbeTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	return s.targets, s.listErr
}

func (s *fakeStore) UpdateStatuses(_ context.Context, updates []domain.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.batches = append(s.batches, append([]domain.StatusUpdate(nil), updates...))
	return nil
}

func (s *fakeStore) listCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

func targets(addrs ...string) []domain.ProbeTarget {
	out := make([]domain.ProbeTarget, len(addrs))
	for i, a := range addrs {
		out[i] = domain.ProbeTarget{DeviceID: "dev-" + a, IPAddress: a}
	}
	return out
}

func testConfig() Config {
	return Config{Interval: 10 * time.Millisecond, ProbeTimeout: 50 * time.Millisecond, MaxConcurrent: 4}
}

func TestRunRoundEmpty(t *testing.T) {
	store := &fakeStore{}
	called := false
	prober := ProberFunc(func(context.Context, string) bool {
		called = true
		return true
	})

	result, err := New(store, prober, testConfig(), zerolog.Nop()).RunRound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RoundResult{}, result)
	assert.Empty(t, store.batches, "empty round writes nothing")
	assert.False(t, called)
}

func TestRunRoundWritesOneBatch(t *testing.T) {
	store := &fakeStore{targets: targets("10.0.0.1", "10.0.0.2", "10.0.0.3")}
	prober := ProberFunc(func(_ context.Context, addr string) bool {
		return addr != "10.0.0.2"
	})

	result, err := New(store, prober, testConfig(), zerolog.Nop()).RunRound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Probed)
	assert.Equal(t, 2, result.Alive)
	assert.Equal(t, 1, result.Unreachable)

	require.Len(t, store.batches, 1)
	assert.Equal(t, []domain.StatusUpdate{
		{DeviceID: "dev-10.0.0.1", Status: domain.StatusAlive},
		{DeviceID: "dev-10.0.0.2", Status: domain.StatusUnreachable},
		{DeviceID: "dev-10.0.0.3", Status: domain.StatusAlive},
	}, store.batches[0])
}

func TestRunRoundTimeoutIsUnreachable(t *testing.T) {
	store := &fakeStore{targets: targets("10.0.0.1", "10.0.0.2")}
	prober := ProberFunc(func(ctx context.Context, addr string) bool {
		if addr == "10.0.0.1" {
			return true
		}
		// Ignores ctx entirely and answers far too late
		time.Sleep(time.Second)
		return true
	})

	start := time.Now()
	result, err := New(store, prober, testConfig(), zerolog.Nop()).RunRound(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "round does not wait for a stuck probe")
	assert.Equal(t, 1, result.Unreachable)

	require.Len(t, store.batches, 1)
	assert.Equal(t, domain.StatusUnreachable, store.batches[0][1].Status)
}

func TestRunRoundBoundsConcurrency(t *testing.T) {
	addrs := make([]string, 20)
	for i := range addrs {
		addrs[i] = "10.0.1." + string(rune('a'+i))
	}
	store := &fakeStore{targets: targets(addrs...)}

	var inFlight, peak atomic.Int32
	prober := ProberFunc(func(context.Context, string) bool {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return true
	})

	cfg := testConfig()
	cfg.MaxConcurrent = 3
	result, err := New(store, prober, cfg, zerolog.Nop()).RunRound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, result.Alive)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunRoundStoreFailures(t *testing.T) {
	boom := errors.New("connection refused")
	prober := ProberFunc(func(context.Context, string) bool { return true })

	t.Run("list", func(t *testing.T) {
		store := &fakeStore{listErr: boom}
		_, err := New(store, prober, testConfig(), zerolog.Nop()).RunRound(context.Background())

		var rerr *RoundError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "list probe targets", rerr.Op)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("update", func(t *testing.T) {
		store := &fakeStore{targets: targets("10.0.0.1"), updateErr: boom}
		_, err := New(store, prober, testConfig(), zerolog.Nop()).RunRound(context.Background())

		var rerr *RoundError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "update statuses", rerr.Op)
		assert.ErrorIs(t, err, boom)
	})
}

func TestRunContinuesAfterRoundError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("store down")}
	prober := ProberFunc(func(context.Context, string) bool { return true })
	m := New(store, prober, testConfig(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return store.listCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	m := New(&fakeStore{}, ProberFunc(func(context.Context, string) bool { return false }), Config{MaxConcurrent: -1}, zerolog.Nop())
	assert.Equal(t, 60*time.Second, m.config.Interval)
	assert.Equal(t, 2*time.Second, m.config.ProbeTimeout)
	assert.Equal(t, 0, m.config.MaxConcurrent)
}
