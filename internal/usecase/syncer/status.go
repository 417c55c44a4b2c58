package syncer

import "time"

// State is the orchestrator's position in a cycle.
type State string

const (
	// StateIdle means no cycle is running.
	StateIdle State = "idle"
	// StateFetching means upstream pages are being read.
	StateFetching State = "fetching"
	// StateFinalizing means the cycle's batch is being written to the partitions.
	StateFinalizing State = "finalizing"
)

// Counts summarizes one completed cycle.
type Counts struct {
	All      int `json:"all"`
	Themes   int `json:"themes"`
	Plugins  int `json:"plugins"`
	Rejected int `json:"rejected"`
	Pages    int `json:"pages"`
}

// Status is a point-in-time copy of the orchestrator state.
type Status struct {
	State        State      `json:"state"`
	Page         int        `json:"page,omitempty"`
	Cycles       int        `json:"cycles"`
	LastStarted  *time.Time `json:"last_started,omitempty"`
	LastFinished *time.Time `json:"last_finished,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	LastCounts   *Counts    `json:"last_counts,omitempty"`
}

func (s Status) clone() Status {
	out := s
	out.LastStarted = copyTime(s.LastStarted)
	out.LastFinished = copyTime(s.LastFinished)
	out.LastSuccess = copyTime(s.LastSuccess)
	if s.LastCounts != nil {
		c := *s.LastCounts
		out.LastCounts = &c
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
