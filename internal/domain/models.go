package domain

import "time"

// EntityKind selects the probe protocol for a monitored entity.
type EntityKind string

const (
	KindHTTP EntityKind = "http"
	KindTCP  EntityKind = "tcp"
	KindICMP EntityKind = "icmp"
)

// Entity is one configured endpoint to monitor. Name is the key for every
// other structure; Target is protocol-specific (URL, host:port, or host).
type Entity struct {
	Name   string     `json:"name"`
	Kind   EntityKind `json:"kind"`
	Target string     `json:"target"`
}

// Observation is a single online/offline determination for an entity.
type Observation struct {
	EntityName string    `json:"entity_name"`
	Online     bool      `json:"online"`
	CheckedAt  time.Time `json:"checked_at"`
}

// ServiceStatus is the cumulative uptime record for one entity. All
// timestamps are UTC. MonitoringSince is frozen at the first observation and
// survives restarts; CumulativeUpSeconds never decreases.
type ServiceStatus struct {
	Online              bool      `json:"online"`
	LastChecked         time.Time `json:"last_checked"`
	LastChange          time.Time `json:"last_change"`
	MonitoringSince     time.Time `json:"monitoring_since"`
	CumulativeUpSeconds float64   `json:"cumulative_up_seconds"`
	TotalChecks         int       `json:"total_checks"`
	UptimePercent       float64   `json:"uptime_percent"`
}

// NotificationHandle identifies the one persistent chat message the notifier
// keeps editing. Opaque to everything but the sink.
type NotificationHandle struct {
	MessageID string    `json:"message_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SchemaVersion tags the persisted state layout. A mismatch on load is a
// warning, not a failure.
const SchemaVersion = "2"

// PersistedState is the on-disk mirror of the status store.
type PersistedState struct {
	Version  string                   `json:"version"`
	Statuses map[string]ServiceStatus `json:"statuses"`
	Handle   *NotificationHandle      `json:"notification_handle,omitempty"`
}

// NewPersistedState returns an empty state at the current schema version.
func NewPersistedState() PersistedState {
	return PersistedState{
		Version:  SchemaVersion,
		Statuses: make(map[string]ServiceStatus),
	}
}
