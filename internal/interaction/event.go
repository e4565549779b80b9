// Package interaction implements the timed session object that represents one
// open UI flow (a role picker, a battle, an approval) for a single owner.
//
// An Event is Active from construction until it is stopped, either explicitly,
// by its inactivity timer, or by the registry superseding it. Stopped is
// terminal. Done is closed exactly once on that transition.
package interaction

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/idgen"
)

// StopReason records which trigger stopped an event
type StopReason string

const (
	StopReasonNone       StopReason = ""
	StopReasonManual     StopReason = "manual"
	StopReasonTimeout    StopReason = "timeout"
	StopReasonSuperseded StopReason = "superseded"
	StopReasonWaveEnd    StopReason = "wave_end"
	StopReasonShutdown   StopReason = "shutdown"
)

// releaseTimeout bounds the best-effort cleanup of a bound UI resource
const releaseTimeout = 5 * time.Second

// Resource is a UI artefact bound to an event, such as a picker message,
// that should be cleaned up when the event stops.
type Resource interface {
	Release(ctx context.Context) error
}

// ResourceFunc adapts a function to Resource
type ResourceFunc func(ctx context.Context) error

// Release calls f
func (f ResourceFunc) Release(ctx context.Context) error {
	return f(ctx)
}

// Options are the per-registration knobs callers may set
type Options struct {
	// Timeout overrides the kind's inactivity window when positive
	Timeout  time.Duration
	Resource Resource
}

// Config holds the configuration for an Event
type Config struct {
	Kind      Kind
	Owner     string
	Stoppable bool
	Timeout   time.Duration
	Resource  Resource

	Clock       clock.Clock
	IDGenerator idgen.Generator
}

// Validate validates the config
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("owner", c.Owner, vb)
	errors.ValidateRequired("kind", string(c.Kind), vb)
	if c.Timeout < 0 {
		vb.Field("timeout", "cannot be negative")
	}
	return vb.Build()
}

// Event is one open interaction bound to an owner identity
type Event struct {
	id        string
	owner     string
	kind      Kind
	stoppable bool
	timeout   time.Duration
	resource  Resource
	clock     clock.Clock

	mu      sync.Mutex
	timer   clock.Timer
	gen     uint64
	stopped bool
	reason  StopReason
	done    chan struct{}
}

// New creates an active event and starts its inactivity timer
func New(cfg *Config) (*Event, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	gen := cfg.IDGenerator
	if gen == nil {
		gen = idgen.NewUUID("evt")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	e := &Event{
		id:        gen.Generate(),
		owner:     cfg.Owner,
		kind:      cfg.Kind,
		stoppable: cfg.Stoppable,
		timeout:   timeout,
		resource:  cfg.Resource,
		clock:     c,
		done:      make(chan struct{}),
	}

	e.mu.Lock()
	e.armLocked()
	e.mu.Unlock()

	return e, nil
}

// ID returns the unique event ID
func (e *Event) ID() string { return e.id }

// Owner returns the identity the event is bound to
func (e *Event) Owner() string { return e.owner }

// Kind returns the event kind
func (e *Event) Kind() Kind { return e.kind }

// Stoppable reports whether a newer registration may supersede this event
func (e *Event) Stoppable() bool { return e.stoppable }

// Timeout returns the inactivity window
func (e *Event) Timeout() time.Duration { return e.timeout }

// Done is closed when the event stops
func (e *Event) Done() <-chan struct{} { return e.done }

// Stopped reports whether the event has reached its terminal state
func (e *Event) Stopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// Reason returns why the event stopped, or StopReasonNone while active
func (e *Event) Reason() StopReason {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reason
}

// Touch restarts the inactivity timer. It returns false if the event has
// already stopped.
func (e *Event) Touch() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return false
	}
	e.timer.Stop()
	e.armLocked()
	return true
}

// Stop stops the event manually. It returns false if it was already stopped.
func (e *Event) Stop() bool {
	return e.StopFor(StopReasonManual)
}

// StopFor stops the event recording the given reason. Only the first call
// has any effect.
func (e *Event) StopFor(reason StopReason) bool {
	e.mu.Lock()
	stopped := e.stopLocked(reason)
	e.mu.Unlock()

	if stopped && e.resource != nil {
		go e.release()
	}
	return stopped
}

func (e *Event) stopLocked(reason StopReason) bool {
	if e.stopped {
		return false
	}
	e.stopped = true
	e.reason = reason
	e.timer.Stop()
	close(e.done)
	return true
}

// armLocked schedules the expiry callback for the current generation.
// Callers hold e.mu.
func (e *Event) armLocked() {
	e.gen++
	gen := e.gen
	e.timer = e.clock.AfterFunc(e.timeout, func() { e.expire(gen) })
}

func (e *Event) expire(gen uint64) {
	e.mu.Lock()
	// A touch re-armed the timer after this callback was already due
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	stopped := e.stopLocked(StopReasonTimeout)
	e.mu.Unlock()

	if stopped && e.resource != nil {
		go e.release()
	}
}

func (e *Event) release() {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := e.resource.Release(ctx); err != nil {
		slog.WarnContext(ctx, "failed to release interaction resource",
			"event_id", e.id,
			"owner", e.owner,
			"kind", e.kind,
			"error", err)
	}
}
