package watch

import "time"

// State is the loop's position in one iteration.
type State int

const (
	StateIdle State = iota
	StatePolling
	StateValidating
	StateParsing
	StateDeciding
	StateNotifying
	StateSleeping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateValidating:
		return "validating"
	case StateParsing:
		return "parsing"
	case StateDeciding:
		return "deciding"
	case StateNotifying:
		return "notifying"
	case StateSleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the loop state for status output.
type Snapshot struct {
	State       string    `json:"state"`
	Cursor      int64     `json:"cursor"`
	Last        string    `json:"last"`
	Iterations  uint64    `json:"iterations"`
	LastTickAt  time.Time `json:"last_tick_at,omitempty"`
	LastOutcome string    `json:"last_outcome,omitempty"`
	NextTickAt  time.Time `json:"next_tick_at,omitempty"`
}

// Result describes one Tick.
type Result struct {
	// Text is the candidate notification (status message or failure text).
	Text string
	// Emitted reports whether Text was handed to the notifier.
	Emitted bool
	// Err is the poll/validate/parse failure, if any.
	Err error
	// DeliveryErr is the notifier failure, if any. It never becomes a notification.
	DeliveryErr error
}
