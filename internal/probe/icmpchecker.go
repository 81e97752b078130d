package probe

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

type ICMPChecker struct {
	Timeout time.Duration
	// Privileged uses raw ICMP sockets (needs root/CAP_NET_RAW); the default
	// unprivileged mode uses UDP datagram ICMP where the kernel allows it.
	Privileged bool
}

func NewICMPChecker(timeout time.Duration) *ICMPChecker {
	return &ICMPChecker{Timeout: timeout}
}

// Check sends one echo request and reports online iff a reply arrives within
// the timeout.
func (i *ICMPChecker) Check(ctx context.Context, target string) Outcome {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return Outcome{Online: false, Reason: err.Error()}
	}
	pinger.Count = 1
	pinger.Timeout = i.Timeout
	pinger.SetPrivileged(i.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		return Outcome{Online: false, Reason: err.Error()}
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return Outcome{Online: false, Reason: "no echo reply"}
	}
	return Outcome{
		Online:    true,
		LatencyMS: float64(stats.AvgRtt) / float64(time.Millisecond),
		Reason:    "echo reply",
	}
}
