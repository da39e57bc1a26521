package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// State identifies where a monitoring session is in its lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

// Parameter bounds for Start.
const (
	MinInterval = 10 * time.Second
	MaxInterval = 3600 * time.Second

	MinTimeout = 10 * time.Second
	MaxTimeout = 300 * time.Second

	MinResultsPerPoll = 1
	MaxResultsPerPoll = 10000
)

// Params are the start arguments for a monitoring session.
type Params struct {
	Query      string
	Interval   time.Duration // time between poll starts
	MaxResults int           // result cap passed to the executor each poll
	Timeout    time.Duration // per-poll search timeout
}

func validateParams(p Params) error {
	if p.Query == "" {
		return invalidParamf("query must not be empty")
	}
	if p.Interval < MinInterval || p.Interval > MaxInterval {
		return invalidParamf("interval must be between %s and %s, got %s", MinInterval, MaxInterval, p.Interval)
	}
	if p.MaxResults < MinResultsPerPoll || p.MaxResults > MaxResultsPerPoll {
		return invalidParamf("max_results must be between %d and %d, got %d", MinResultsPerPoll, MaxResultsPerPoll, p.MaxResults)
	}
	if p.Timeout < MinTimeout || p.Timeout > MaxTimeout {
		return invalidParamf("timeout must be between %s and %s, got %s", MinTimeout, MaxTimeout, p.Timeout)
	}
	return nil
}

// PollBatch is the set of events returned by a single poll, tagged with
// the poll's start time. Buffer order is poll order.
type PollBatch struct {
	PollTime time.Time        `json:"poll_time"`
	Events   []map[string]any `json:"events"`
}

// session holds the configuration, lifecycle state, and result buffer of
// one monitoring run. It is owned exclusively by the Controller; every
// read and write goes through the controller mutex.
type session struct {
	id     string
	params Params
	state  State

	startedAt   time.Time
	lastPollAt  time.Time
	lastPollErr error

	buffer []PollBatch

	cancel context.CancelFunc
	done   chan struct{} // closed when the polling loop has exited
}

func newSession(p Params) *session {
	return &session{
		id:     uuid.NewString(),
		params: p,
		state:  StateIdle,
		done:   make(chan struct{}),
	}
}

func (s *session) active() bool {
	return s.state == StateRunning || s.state == StateStopping
}
