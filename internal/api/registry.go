// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"sync"

	"github.com/ManuGH/camrelay/internal/session"
)

// defaultRegistrySize bounds how many tasks the API remembers.
const defaultRegistrySize = 64

// registry remembers submitted tasks by id. When full, the oldest finished
// task without a running relay is forgotten.
type registry struct {
	mu    sync.RWMutex
	limit int
	order []string
	tasks map[string]*session.Task
}

func newRegistry(limit int) *registry {
	if limit <= 0 {
		limit = defaultRegistrySize
	}
	return &registry{limit: limit, tasks: make(map[string]*session.Task)}
}

func (r *registry) add(t *session.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[t.ID()] = t
	r.order = append(r.order, t.ID())
	for len(r.order) > r.limit {
		if !r.evictOldestIdle() {
			break
		}
	}
}

// evictOldestIdle must be called with mu held.
func (r *registry) evictOldestIdle() bool {
	for i, id := range r.order {
		res, done := r.tasks[id].TryResult()
		if !done || (res.Relay != nil && res.Relay.Running()) {
			continue
		}
		delete(r.tasks, id)
		r.order = append(r.order[:i], r.order[i+1:]...)
		return true
	}
	return false
}

func (r *registry) get(id string) (*session.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}

func (r *registry) snapshot() []*session.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*session.Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id])
	}
	return out
}
