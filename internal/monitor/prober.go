package monitor

import (
	"context"
	"fmt"
	"math"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// Prober names accepted in configuration
const (
	ProberExec = "exec"
	ProberICMP = "icmp"
)

// NewProber builds the prober selected by name
func NewProber(name string, timeout time.Duration) (Prober, error) {
	switch name {
	case "", ProberExec:
		return NewExecProber(timeout), nil
	case ProberICMP:
		return NewICMPProber(), nil
	default:
		return nil, fmt.Errorf("unknown prober %q", name)
	}
}

// ExecProber shells out to the system ping binary with one packet
type ExecProber struct {
	// Command is the executable, "ping" by default
	Command string
	// Timeout is passed to ping as -W, rounded up to whole seconds
	Timeout time.Duration
}

// NewExecProber creates a ping-based prober
func NewExecProber(timeout time.Duration) *ExecProber {
	return &ExecProber{Command: "ping", Timeout: timeout}
}

// Probe runs `ping -c 1 -W <secs> addr`. Launch failures, non-zero exit
// and ctx expiry all count as unreachable.
func (p *ExecProber) Probe(ctx context.Context, addr string) bool {
	cmd := exec.CommandContext(ctx, p.Command, p.args(addr)...)
	return cmd.Run() == nil
}

func (p *ExecProber) args(addr string) []string {
	secs := int(math.Ceil(p.Timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return []string{"-c", "1", "-W", strconv.Itoa(secs), addr}
}

// ICMPProber sends one ICMP echo over an unprivileged datagram socket.
// Linux needs net.ipv4.ping_group_range to include the process group.
type ICMPProber struct {
	seq atomic.Uint32
}

// NewICMPProber creates an ICMP echo prober
func NewICMPProber() *ICMPProber {
	return &ICMPProber{}
}

// Probe sends one echo request and waits for the matching reply until ctx
// is done
func (p *ICMPProber) Probe(ctx context.Context, addr string) bool {
	ip := net.ParseIP(addr).To4()
	if ip == nil {
		return false
	}

	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		return false
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	// Unblock ReadFrom on cancellation without a deadline
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	seq := int(p.seq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  seq,
			Data: []byte("netcore"),
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return false
	}
	if _, err := conn.WriteTo(wb, &net.UDPAddr{IP: ip}); err != nil {
		return false
	}

	rb := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(rb)
		if err != nil {
			return false
		}
		if !peerIs(peer, ip) {
			continue
		}
		reply, err := icmp.ParseMessage(ipv4.ICMPTypeEcho.Protocol(), rb[:n])
		if err != nil || reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		// The kernel rewrites the echo ID on datagram sockets; match on seq
		if echo, ok := reply.Body.(*icmp.Echo); ok && echo.Seq == seq {
			return true
		}
	}
}

func peerIs(peer net.Addr, ip net.IP) bool {
	switch a := peer.(type) {
	case *net.UDPAddr:
		return a.IP.Equal(ip)
	case *net.IPAddr:
		return a.IP.Equal(ip)
	}
	return false
}
