package probe

import (
	"context"
	"fmt"

	"github.com/mayvqt/StatusBot/internal/domain"
)

// Outcome is the unified result of a single probe. A failed probe is a valid
// outcome (Online=false), never an error; Reason carries the detail for logs.
type Outcome struct {
	Online    bool
	LatencyMS float64
	Reason    string
}

// Checker performs one reachability check against a protocol-specific target.
// Implementations must respect ctx and their own timeout, and must not panic
// on unreachable hosts.
type Checker interface {
	Check(ctx context.Context, target string) Outcome
}

// ForKind returns the checker for an entity kind, or an error for unknown
// kinds so the caller can skip the entity with a warning.
func ForKind(kind domain.EntityKind, set Set) (Checker, error) {
	switch kind {
	case domain.KindHTTP:
		return set.HTTP, nil
	case domain.KindTCP:
		return set.TCP, nil
	case domain.KindICMP:
		return set.ICMP, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// Set bundles one checker per supported protocol.
type Set struct {
	HTTP Checker
	TCP  Checker
	ICMP Checker
}
