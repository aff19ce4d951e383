package models

import "time"

// SessionState is the lifecycle state of a collection session. Transitions
// are forward-only: Idle -> Running -> {Stopped | Completed | Failed}.
type SessionState int

const (
	StateIdle SessionState = iota
	StateRunning
	StateStopped
	StateCompleted
	StateFailed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the session.
func (s SessionState) Terminal() bool {
	return s == StateStopped || s == StateCompleted || s == StateFailed
}

// SpeedMode trades pacing aggressiveness for throughput.
type SpeedMode string

const (
	SpeedFast   SpeedMode = "fast"
	SpeedStable SpeedMode = "stable"
)

// Valid reports whether the mode is known.
func (m SpeedMode) Valid() bool {
	return m == SpeedFast || m == SpeedStable
}

// CollectionConfig is the per-session collection plan.
type CollectionConfig struct {
	Stars        []int     `json:"stars"`
	PagesPerStar int       `json:"pages_per_star"`
	SpeedMode    SpeedMode `json:"speed_mode"`
}

// CollectionResult summarizes a finished session.
type CollectionResult struct {
	Identity     ProductIdentity
	Snapshot     *ProductSnapshot
	State        SessionState
	Records      []*ReviewRecord
	StartTime    time.Time
	EndTime      time.Time
	PagesFetched int
	RetryCount   int
	ErrorsByType map[string]int
	Captcha      bool
}
