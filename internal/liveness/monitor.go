// Package liveness implements the participant side of the host-liveness
// protocol: deciding, from periodic observations of the owner heartbeat,
// whether the host is gone. Detection is deliberately sluggish - several
// consecutive stale checks are required - so a single network blip never
// tears a session down. A confirmed "session not found" is the one
// unambiguous signal and short-circuits the buffer.
package liveness

import "time"

const (
	// DefaultTimeout is the max heartbeat age before a check counts as a miss.
	DefaultTimeout = 90 * time.Second
	// DefaultFailureThreshold is how many consecutive misses declare the
	// host gone.
	DefaultFailureThreshold = 3
	// DefaultInterval is the suggested spacing between checks, matching the
	// owner's heartbeat cadence with slack.
	DefaultInterval = 15 * time.Second
)

type Verdict int

const (
	// Alive: heartbeat fresh, miss counter reset.
	Alive Verdict = iota
	// Suspect: stale, but not for long enough to act on.
	Suspect
	// Gone: host confirmed absent; the session should be abandoned.
	Gone
)

// Check is one observation of a session's owner heartbeat.
type Check struct {
	// NotFound reports that the session itself is absent (404-class).
	NotFound bool
	// HasHeartbeat is false when the owner never sent one.
	HasHeartbeat bool
	// HeartbeatAge is meaningful only when HasHeartbeat is true.
	HeartbeatAge time.Duration
}

// Monitor accumulates checks for one session. Not safe for concurrent use;
// each participant runs its own.
type Monitor struct {
	Timeout          time.Duration
	FailureThreshold int

	misses int
}

func NewMonitor() *Monitor {
	return &Monitor{
		Timeout:          DefaultTimeout,
		FailureThreshold: DefaultFailureThreshold,
	}
}

// Observe folds one check into the monitor and returns the verdict.
func (m *Monitor) Observe(c Check) Verdict {
	if c.NotFound {
		// The session object is confirmed absent; no buffering needed.
		m.misses = m.FailureThreshold
		return Gone
	}

	stale := c.HasHeartbeat && c.HeartbeatAge > m.Timeout
	if !stale {
		// A host that never heartbeated is handled by the server sweep via
		// session age; participants only judge observed heartbeats.
		m.misses = 0
		return Alive
	}

	m.misses++
	if m.misses >= m.FailureThreshold {
		return Gone
	}
	return Suspect
}

// Misses exposes the current consecutive-failure count.
func (m *Monitor) Misses() int { return m.misses }
