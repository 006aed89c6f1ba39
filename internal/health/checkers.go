// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/ManuGH/camrelay/internal/session"
)

// FileChecker checks that an optional file exists and is non-empty
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a checker for file existence
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{
		name: name,
		path: path,
	}
}

func (c *FileChecker) Name() string {
	return c.name
}

func (c *FileChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "not configured (optional)",
		}
	}

	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusUnhealthy,
				Error:   "file not found",
				Message: c.path,
			}
		}
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  err.Error(),
		}
	}

	if info.IsDir() {
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  "expected file, got directory",
		}
	}

	if info.Size() == 0 {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "file is empty",
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "file exists and readable",
	}
}

// TranscoderChecker runs the transcoder preflight and caches the verdict for ttl,
// so frequent readiness probes do not spawn a process each time.
type TranscoderChecker struct {
	preflight func(ctx context.Context) (string, error)
	ttl       time.Duration
	now       func() time.Time

	mu      sync.Mutex
	checked time.Time
	last    CheckResult
}

// NewTranscoderChecker wraps a preflight function such as transcoder.Preflight.
func NewTranscoderChecker(preflight func(ctx context.Context) (string, error), ttl time.Duration) *TranscoderChecker {
	return &TranscoderChecker{preflight: preflight, ttl: ttl, now: time.Now}
}

func (c *TranscoderChecker) Name() string {
	return "transcoder"
}

func (c *TranscoderChecker) Check(ctx context.Context) CheckResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.checked.IsZero() && c.now().Sub(c.checked) < c.ttl {
		return c.last
	}

	version, err := c.preflight(ctx)
	if err != nil {
		c.last = CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	} else {
		c.last = CheckResult{Status: StatusHealthy, Message: version}
	}
	c.checked = c.now()
	return c.last
}

var _ session.Notifier = (*LastTaskChecker)(nil)

// LastTaskChecker reports the outcome of the most recent start action. It is
// fed by the session runner as its Notifier.
type LastTaskChecker struct {
	mu       sync.RWMutex
	finished time.Time
	failure  *session.Failure
}

// NewLastTaskChecker creates a checker with no task recorded yet.
func NewLastTaskChecker() *LastTaskChecker {
	return &LastTaskChecker{}
}

// Notify records a task result.
func (c *LastTaskChecker) Notify(res session.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = res.FinishedAt
	c.failure = res.Failure
}

func (c *LastTaskChecker) Name() string {
	return "last_task"
}

// Check never reports unhealthy: a camera that cannot be found says nothing
// about the daemon itself.
func (c *LastTaskChecker) Check(_ context.Context) CheckResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.finished.IsZero():
		return CheckResult{Status: StatusHealthy, Message: "no task run yet"}
	case c.failure == nil:
		return CheckResult{Status: StatusHealthy, Message: "last task published a relay"}
	case c.failure.Reason == session.ReasonInternal || c.failure.Reason == session.ReasonConfiguration:
		return CheckResult{Status: StatusDegraded, Message: "last task failed", Error: c.failure.Error()}
	default:
		return CheckResult{Status: StatusHealthy, Message: "last task failed", Error: c.failure.Error()}
	}
}

// SessionChecker reports whether a start action is in flight. It is
// informational and always healthy.
type SessionChecker struct {
	busy func() bool
}

// NewSessionChecker wraps a busy func such as session.Runner.Busy.
func NewSessionChecker(busy func() bool) *SessionChecker {
	return &SessionChecker{busy: busy}
}

func (c *SessionChecker) Name() string {
	return "session"
}

func (c *SessionChecker) Check(_ context.Context) CheckResult {
	if c.busy() {
		return CheckResult{Status: StatusHealthy, Message: "discovery in progress"}
	}
	return CheckResult{Status: StatusHealthy, Message: "idle"}
}
