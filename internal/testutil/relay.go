// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package testutil

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/camrelay/internal/relay"
)

// ErrTerminated is the exit error a FakeProcess reports after Stop.
var ErrTerminated = errors.New("signal: terminated")

var _ relay.Process = (*FakeProcess)(nil)

// FakeProcess is an in-memory relay.Process that runs until Exit or Stop.
type FakeProcess struct {
	pid  int
	done chan struct{}
	once sync.Once

	mu    sync.Mutex
	err   error
	stops int
	lines []string
}

// NewFakeProcess returns a running fake with the given pid.
func NewFakeProcess(pid int) *FakeProcess {
	return &FakeProcess{pid: pid, done: make(chan struct{})}
}

func (p *FakeProcess) PID() int              { return p.pid }
func (p *FakeProcess) Done() <-chan struct{} { return p.done }

func (p *FakeProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stop records the call and exits the fake with ErrTerminated.
func (p *FakeProcess) Stop(time.Duration) error {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
	p.Exit(ErrTerminated)
	return nil
}

// Exit finishes the fake once; later calls are ignored.
func (p *FakeProcess) Exit(err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(p.done)
	})
}

// Stops returns how often Stop was called.
func (p *FakeProcess) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

// SetDiagnostics replaces the stderr tail reported by Diagnostics.
func (p *FakeProcess) SetDiagnostics(lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append([]string(nil), lines...)
}

func (p *FakeProcess) Diagnostics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

var _ relay.Starter = (*FakeStarter)(nil)

// FakeStarter records every relay command and hands out FakeProcesses.
// When Err is set every start fails with it.
type FakeStarter struct {
	Err error

	mu       sync.Mutex
	commands []relay.Command
	procs    []*FakeProcess
}

func (s *FakeStarter) StartRelay(cmd relay.Command) (relay.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	if s.Err != nil {
		return nil, s.Err
	}
	p := NewFakeProcess(1000 + len(s.procs))
	s.procs = append(s.procs, p)
	return p, nil
}

// Calls returns the number of StartRelay invocations, failed ones included.
func (s *FakeStarter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commands)
}

func (s *FakeStarter) Commands() []relay.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]relay.Command(nil), s.commands...)
}

func (s *FakeStarter) Processes() []*FakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*FakeProcess(nil), s.procs...)
}

// StopAll exits every process handed out so far.
func (s *FakeStarter) StopAll() {
	for _, p := range s.Processes() {
		p.Exit(ErrTerminated)
	}
}
