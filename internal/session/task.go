// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/camrelay/internal/catalogue"
	"github.com/ManuGH/camrelay/internal/config"
	"github.com/ManuGH/camrelay/internal/discovery"
	"github.com/ManuGH/camrelay/internal/ingest"
	"github.com/ManuGH/camrelay/internal/relay"
)

// Reason classifies why a task failed.
type Reason string

const (
	ReasonNotFound        Reason = "not_found"
	ReasonPortUnreachable Reason = "port_unreachable"
	ReasonLaunchFailed    Reason = "launch_failed"
	ReasonConfiguration   Reason = "configuration"
	ReasonCanceled        Reason = "canceled"
	ReasonInternal        Reason = "internal"
)

// Failure is the single error outcome of a task.
type Failure struct {
	Reason  Reason
	Message string
	Err     error
}

func (f *Failure) Error() string { return string(f.Reason) + ": " + f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure classifies err into a Failure.
func NewFailure(err error) *Failure {
	var launchErr *relay.LaunchError
	switch {
	case errors.Is(err, config.ErrConfiguration):
		return &Failure{Reason: ReasonConfiguration, Message: err.Error(), Err: err}
	case errors.Is(err, discovery.ErrNotFound):
		return &Failure{Reason: ReasonNotFound, Message: discovery.ErrNotFound.Error(), Err: err}
	case errors.Is(err, ingest.ErrUnreachable):
		return &Failure{Reason: ReasonPortUnreachable, Message: err.Error(), Err: err}
	case errors.As(err, &launchErr):
		return &Failure{Reason: ReasonLaunchFailed, Message: err.Error(), Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Failure{Reason: ReasonCanceled, Message: "discovery canceled", Err: err}
	default:
		return &Failure{Reason: ReasonInternal, Message: fmt.Sprintf("internal error: %v", err), Err: err}
	}
}

// Result is the write-once outcome of a task. Exactly one of Relay and
// Failure is set.
type Result struct {
	JobID     string
	ViewerURL string
	Template  catalogue.PathTemplate
	Mount     string
	Port      int
	Relay     *relay.Session
	Failure   *Failure

	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether the task launched a relay.
func (r Result) OK() bool { return r.Failure == nil && r.Relay != nil }

// Err returns the failure as an error, or nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Notifier receives every result exactly once, from the worker goroutine.
type Notifier interface {
	Notify(Result)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Result)

// Notify calls f.
func (f NotifierFunc) Notify(r Result) { f(r) }

// Task is the future of one start action.
type Task struct {
	id        string
	host      string
	username  string
	createdAt time.Time

	done   chan struct{}
	result Result
}

func newTask(id string, cred discovery.Credential) *Task {
	return &Task{
		id:        id,
		host:      cred.Host,
		username:  cred.Username,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// ID is the job id used in logs and traces.
func (t *Task) ID() string { return t.id }

// Host is the camera host of the request.
func (t *Task) Host() string { return t.host }

// Username is the camera user of the request.
func (t *Task) Username() string { return t.username }

// CreatedAt is when the task was accepted.
func (t *Task) CreatedAt() time.Time { return t.createdAt }

// Done closes once the result is available.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result blocks until the task has finished and returns its result.
func (t *Task) Result() Result {
	<-t.done
	return t.result
}

// TryResult returns the result without blocking.
func (t *Task) TryResult() (Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the task finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
