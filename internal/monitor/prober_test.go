package monitor

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecProberArgs(t *testing.T) {
	tests := []struct {
		timeout time.Duration
		want    []string
	}{
		{2 * time.Second, []string{"-c", "1", "-W", "2", "10.0.0.1"}},
		{1500 * time.Millisecond, []string{"-c", "1", "-W", "2", "10.0.0.1"}},
		{100 * time.Millisecond, []string{"-c", "1", "-W", "1", "10.0.0.1"}},
		{0, []string{"-c", "1", "-W", "1", "10.0.0.1"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewExecProber(tt.timeout).args("10.0.0.1"))
	}
}

func TestExecProberExitStatus(t *testing.T) {
	for _, bin := range []string{"true", "false"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available", bin)
		}
	}
	ctx := context.Background()

	assert.True(t, (&ExecProber{Command: "true", Timeout: time.Second}).Probe(ctx, "10.0.0.1"))
	assert.False(t, (&ExecProber{Command: "false", Timeout: time.Second}).Probe(ctx, "10.0.0.1"))
}

func TestExecProberMissingBinary(t *testing.T) {
	p := &ExecProber{Command: "netcore-no-such-ping-binary", Timeout: time.Second}
	assert.False(t, p.Probe(context.Background(), "10.0.0.1"))
}

func TestExecProberCancelled(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, (&ExecProber{Command: "true", Timeout: time.Second}).Probe(ctx, "10.0.0.1"))
}

func TestICMPProberRejectsNonIPv4(t *testing.T) {
	p := NewICMPProber()
	assert.False(t, p.Probe(context.Background(), "not-an-ip"))
	assert.False(t, p.Probe(context.Background(), "::1"))
}

func TestNewProber(t *testing.T) {
	p, err := NewProber("", time.Second)
	require.NoError(t, err)
	assert.IsType(t, &ExecProber{}, p)

	p, err = NewProber(ProberICMP, time.Second)
	require.NoError(t, err)
	assert.IsType(t, &ICMPProber{}, p)

	_, err = NewProber("carrier-pigeon", time.Second)
	assert.Error(t, err)
}
