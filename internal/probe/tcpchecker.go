package probe

import (
	"context"
	"net"
	"time"
)

type TCPChecker struct {
	Timeout time.Duration
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	return &TCPChecker{Timeout: timeout}
}

// Check reports online iff a TCP connection to target (host:port) establishes
// within the timeout. The connection is closed immediately.
func (t *TCPChecker) Check(ctx context.Context, target string) Outcome {
	start := time.Now()
	d := net.Dialer{Timeout: t.Timeout}

	conn, err := d.DialContext(ctx, "tcp", target)
	latency := time.Since(start).Seconds() * 1000
	if err != nil {
		return Outcome{Online: false, Reason: err.Error(), LatencyMS: latency}
	}
	_ = conn.Close()
	return Outcome{Online: true, Reason: "connected", LatencyMS: latency}
}
