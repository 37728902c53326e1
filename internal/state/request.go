// Package state tracks the lifecycle of server-backed operations.
//
// A Request is owned by a single goroutine (the TUI event loop or a CLI
// command). Start and Settlement.Apply must run there; only Runner.Run may
// be called from elsewhere, since it touches nothing but the network call.
package state

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"thronemind/internal/api"
)

// ErrPending is returned by Start while a previous call is still in flight.
var ErrPending = errors.New("request already pending")

type Status int

const (
	Idle Status = iota
	Pending
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Event is delivered to the observer on every lifecycle transition.
type Event struct {
	Name   string
	Status Status
}

type Request[T any] struct {
	name     string
	fallback string

	status  Status
	data    T
	hasData bool
	errMsg  string
	seq     uint64

	observer func(Event)
}

// New creates an idle request. fallback is the message shown when a failed
// response carries no server message.
func New[T any](name, fallback string) *Request[T] {
	return &Request[T]{name: name, fallback: fallback}
}

// Observe installs fn as the transition observer, replacing any previous one.
func (r *Request[T]) Observe(fn func(Event)) {
	r.observer = fn
}

func (r *Request[T]) Name() string   { return r.name }
func (r *Request[T]) Status() Status { return r.status }
func (r *Request[T]) Pending() bool  { return r.status == Pending }

// Err is the message of the last failure; empty unless Status is Failed.
func (r *Request[T]) Err() string {
	if r.status != Failed {
		return ""
	}
	return r.errMsg
}

// Data returns the payload of the last success; ok only while Succeeded.
func (r *Request[T]) Data() (T, bool) {
	if r.status != Succeeded {
		var zero T
		return zero, false
	}
	return r.data, true
}

// LastGood returns the most recent successful payload, kept across failures.
func (r *Request[T]) LastGood() (T, bool) {
	return r.data, r.hasData
}

// Reset returns the request to Idle and forgets its payload. An in-flight
// call started before Reset is discarded when it settles.
func (r *Request[T]) Reset() {
	var zero T
	r.seq++
	r.status = Idle
	r.data = zero
	r.hasData = false
	r.errMsg = ""
	r.emit()
}

// ClearError drops a failure message, leaving the request Idle.
func (r *Request[T]) ClearError() {
	if r.status != Failed {
		return
	}
	r.status = Idle
	r.errMsg = ""
	r.emit()
}

func (r *Request[T]) emit() {
	if r.observer != nil {
		r.observer(Event{Name: r.name, Status: r.status})
	}
}

func (r *Request[T]) begin() (uint64, error) {
	if r.status == Pending {
		return 0, ErrPending
	}
	r.seq++
	r.status = Pending
	r.errMsg = ""
	r.emit()
	return r.seq, nil
}

func (r *Request[T]) settle(seq uint64, v T, err error, merge func(T)) bool {
	if seq != r.seq || r.status != Pending {
		log.Debug().Str("op", r.name).Uint64("seq", seq).Msg("discarding stale response")
		return false
	}

	switch {
	case err == nil:
		r.status = Succeeded
		r.data = v
		r.hasData = true
		r.errMsg = ""
	case api.IsUnauthorized(err):
		// The session store has already handled it; nothing to show inline.
		r.status = Idle
		r.errMsg = ""
	default:
		r.status = Failed
		r.errMsg = api.Message(err, r.fallback)
		log.Warn().Err(err).Str("op", r.name).Msg("request failed")
	}

	if r.status == Succeeded && merge != nil {
		merge(v)
	}
	r.emit()
	return true
}

// Runner performs the network half of an operation.
type Runner interface {
	Run(ctx context.Context) Settlement
}

// Settlement applies a finished call to its Request. Apply reports whether
// the result was used (false when it was stale).
type Settlement interface {
	Apply() bool
	Err() error
}

// Start moves r to Pending and returns a Runner for call. merge folds a
// successful payload into the wider state and runs inside Apply.
func Start[T any](r *Request[T], call func(context.Context) (T, error), merge func(T)) (Runner, error) {
	seq, err := r.begin()
	if err != nil {
		return nil, err
	}
	return &runner[T]{req: r, seq: seq, call: call, merge: merge}, nil
}

type runner[T any] struct {
	req   *Request[T]
	seq   uint64
	call  func(context.Context) (T, error)
	merge func(T)
}

func (p *runner[T]) Run(ctx context.Context) Settlement {
	v, err := p.call(ctx)
	return &settlement[T]{runner: p, value: v, err: err}
}

type settlement[T any] struct {
	*runner[T]
	value T
	err   error
}

func (s *settlement[T]) Apply() bool {
	return s.req.settle(s.seq, s.value, s.err, s.merge)
}

func (s *settlement[T]) Err() error { return s.err }

// Do runs a Runner to completion on the calling goroutine.
func Do(ctx context.Context, r Runner) error {
	s := r.Run(ctx)
	s.Apply()
	return s.Err()
}
