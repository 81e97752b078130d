// Package uptime turns a previous ServiceStatus plus one new observation into
// the next ServiceStatus. Pure arithmetic, no clocks and no side effects, so
// every edge (first observation, clock skew, state flips) is testable with
// fabricated timestamps.
package uptime

import (
	"time"

	"github.com/mayvqt/StatusBot/internal/domain"
)

// Update computes the successor status. Elapsed time since the previous check
// is attributed to the state that held during that interval: the previous
// one. Negative elapsed (clock skew, out-of-order calls) is clamped to zero.
func Update(prev domain.ServiceStatus, online bool, now time.Time) domain.ServiceStatus {
	now = now.UTC()

	next := domain.ServiceStatus{
		Online:              online,
		LastChecked:         now,
		LastChange:          prev.LastChange,
		MonitoringSince:     prev.MonitoringSince,
		CumulativeUpSeconds: prev.CumulativeUpSeconds,
		TotalChecks:         prev.TotalChecks + 1,
	}

	if prev.MonitoringSince.IsZero() {
		// First-ever observation: the window starts here and no time has
		// elapsed in any state yet.
		next.MonitoringSince = now
	} else if elapsed := now.Sub(prev.LastChecked).Seconds(); elapsed > 0 && prev.Online {
		next.CumulativeUpSeconds += elapsed
	}

	if prev.Online != online {
		next.LastChange = now
	}
	next.UptimePercent = Percent(next.CumulativeUpSeconds, next.MonitoringSince, now, online)
	return next
}

// Percent derives the uptime percentage over the monitoring window. A zero
// (or negative, under clock skew) window has no history to average, so it
// reports 100 when online and 0 when offline.
func Percent(upSeconds float64, since, now time.Time, online bool) float64 {
	window := now.Sub(since).Seconds()
	if window <= 0 {
		if online {
			return 100.0
		}
		return 0.0
	}
	pct := upSeconds / window * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
