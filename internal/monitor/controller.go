// Package monitor implements the continuous log-monitoring session
// manager: a controller that owns at most one background polling session
// against the Splunk search API and buffers each poll's results until
// they are drained.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SearchExecutor runs one bounded search over an absolute time window.
// *splunk.Client satisfies this interface.
type SearchExecutor interface {
	ExecuteSearch(ctx context.Context, query string, earliest, latest time.Time, maxResults int) ([]map[string]any, error)
}

// BatchSink receives each successfully polled batch, e.g. for live
// streaming to websocket subscribers. Publish must not block.
type BatchSink interface {
	Publish(batch PollBatch)
}

// Controller is the single authority over the monitoring session
// lifecycle. All four control actions (Start, Stop, Status, GetResults)
// and the polling loop's buffer appends are serialized by one mutex, so
// a drain can never interleave with an append.
type Controller struct {
	mu       sync.Mutex
	sess     *session
	executor SearchExecutor
	sink     BatchSink // may be nil
	log      zerolog.Logger
	now      func() time.Time
}

// NewController creates a controller. sink may be nil when no live
// streaming is wanted.
func NewController(executor SearchExecutor, sink BatchSink, log zerolog.Logger) *Controller {
	return &Controller{
		executor: executor,
		sink:     sink,
		log:      log.With().Str("component", "monitor").Logger(),
		now:      time.Now,
	}
}

// StartConfirmation reports the effective configuration of a started
// session.
type StartConfirmation struct {
	SessionID         string    `json:"session_id"`
	Query             string    `json:"query"`
	IntervalSeconds   int       `json:"interval_seconds"`
	MaxResultsPerPoll int       `json:"max_results_per_poll"`
	TimeoutSeconds    int       `json:"timeout_seconds"`
	StartedAt         time.Time `json:"started_at"`
}

// StatusSnapshot is a read-only view of the current session.
type StatusSnapshot struct {
	State           State      `json:"state"`
	SessionID       string     `json:"session_id,omitempty"`
	Query           string     `json:"query,omitempty"`
	IntervalSeconds int        `json:"interval_seconds,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	LastPollAt      *time.Time `json:"last_poll_at,omitempty"`
	LastPollError   string     `json:"last_poll_error,omitempty"`
	BufferedBatches int        `json:"buffered_batches"`
	BufferedEvents  int        `json:"buffered_events"`
}

// Start validates the parameters, creates a new session with an empty
// buffer, and launches its polling loop as a background goroutine. It
// fails fast with ErrSessionActive while a session is running or
// stopping; it never queues or replaces one.
func (c *Controller) Start(p Params) (*StartConfirmation, error) {
	if err := validateParams(p); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil && c.sess.active() {
		return nil, ErrSessionActive
	}

	s := newSession(p)
	s.state = StateRunning
	s.startedAt = c.now()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	c.sess = s

	go c.run(ctx, s)

	c.log.Info().
		Str("session_id", s.id).
		Str("query", p.Query).
		Dur("interval", p.Interval).
		Int("max_results", p.MaxResults).
		Msg("monitoring session started")

	return &StartConfirmation{
		SessionID:         s.id,
		Query:             p.Query,
		IntervalSeconds:   int(p.Interval / time.Second),
		MaxResultsPerPoll: p.MaxResults,
		TimeoutSeconds:    int(p.Timeout / time.Second),
		StartedAt:         s.startedAt,
	}, nil
}

// Stop signals the polling loop to cancel and waits for it to exit before
// marking the session Stopped. Once Stop returns, the loop performs no
// further searches. Stopping an idle controller is a no-op success; the
// returned bool reports whether a running session was actually stopped.
// The stopped session is retained so Status and GetResults keep working
// until the next Start.
func (c *Controller) Stop() (bool, error) {
	c.mu.Lock()
	s := c.sess
	if s == nil || !s.active() {
		c.mu.Unlock()
		return false, nil
	}
	if s.state == StateRunning {
		s.state = StateStopping
		s.cancel()
	}
	done := s.done
	c.mu.Unlock()

	// Wait for any in-flight poll to finish; bounded by the per-poll
	// timeout on the search context.
	<-done

	c.mu.Lock()
	s.state = StateStopped
	c.mu.Unlock()

	c.log.Info().Str("session_id", s.id).Msg("monitoring session stopped")
	return true, nil
}

// Status returns a snapshot of the current session, or an idle snapshot
// when no session has ever been started.
func (c *Controller) Status() StatusSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return StatusSnapshot{State: StateIdle}
	}

	s := c.sess
	snap := StatusSnapshot{
		State:           s.state,
		SessionID:       s.id,
		Query:           s.params.Query,
		IntervalSeconds: int(s.params.Interval / time.Second),
		BufferedBatches: len(s.buffer),
	}
	for _, b := range s.buffer {
		snap.BufferedEvents += len(b.Events)
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.lastPollAt.IsZero() {
		t := s.lastPollAt
		snap.LastPollAt = &t
	}
	if s.lastPollErr != nil {
		snap.LastPollError = s.lastPollErr.Error()
	}
	return snap
}

// GetResults returns a copy of all buffered batches in poll order. When
// clear is true the buffer is emptied atomically after the copy, so no
// batch is both returned and dropped; a batch appended during the drain
// lands in the fresh buffer and shows up in a later call. With no session
// it returns an empty list, never an error.
func (c *Controller) GetResults(clearBuffer bool) []PollBatch {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return []PollBatch{}
	}

	out := make([]PollBatch, len(c.sess.buffer))
	copy(out, c.sess.buffer)
	if clearBuffer {
		c.sess.buffer = nil
	}
	return out
}

// run is the polling loop. It polls once immediately, then on a fixed
// schedule anchored to the previous tick's scheduled time, so slow polls
// do not accumulate drift. When a poll overruns the interval, the next
// tick fires immediately and the schedule re-anchors to now; ticks never
// queue up.
func (c *Controller) run(ctx context.Context, s *session) {
	defer close(s.done)

	next := c.now()
	for {
		if ctx.Err() != nil {
			return
		}
		c.poll(ctx, s)

		next = next.Add(s.params.Interval)
		wait := next.Sub(c.now())
		if wait < 0 {
			next = c.now()
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// poll runs one self-contained search over the interval-sized window
// ending at the tick start. A failed poll records the error and leaves
// the session running; it never aborts monitoring.
func (c *Controller) poll(ctx context.Context, s *session) {
	start := c.now()

	searchCtx, cancel := context.WithTimeout(ctx, s.params.Timeout)
	events, err := c.executor.ExecuteSearch(searchCtx, s.params.Query, start.Add(-s.params.Interval), start, s.params.MaxResults)
	cancel()

	c.mu.Lock()
	s.lastPollAt = start
	if err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			// Stop raced the in-flight poll; not a poll failure.
			c.mu.Unlock()
			return
		}
		s.lastPollErr = err
		c.mu.Unlock()
		c.log.Error().Err(err).Str("session_id", s.id).Msg("monitoring poll failed")
		return
	}
	s.lastPollErr = nil
	batch := PollBatch{PollTime: start, Events: events}
	s.buffer = append(s.buffer, batch)
	buffered := len(s.buffer)
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.Publish(batch)
	}
	c.log.Debug().
		Str("session_id", s.id).
		Int("events", len(events)).
		Int("buffered_batches", buffered).
		Msg("monitoring poll completed")
}
