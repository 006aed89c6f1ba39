// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package transcoder

import (
	"bytes"
	"strings"
	"sync"
)

// LineRing keeps the last lines written to it. ffmpeg terminates progress
// lines with \r, so both \r and \n end a line. A trailing partial line is
// held back until it is completed or the ring is read.
type LineRing struct {
	mu      sync.Mutex
	lines   []string
	head    int
	size    int
	partial strings.Builder
}

// NewLineRing creates a LineRing with the specified capacity.
func NewLineRing(capacity int) *LineRing {
	if capacity < 1 {
		capacity = 50
	}
	return &LineRing{
		lines: make([]string, capacity),
		size:  capacity,
	}
}

// Write implements io.Writer.
func (r *LineRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rest := p
	for len(rest) > 0 {
		i := bytes.IndexAny(rest, "\r\n")
		if i < 0 {
			r.partial.Write(rest)
			break
		}
		r.partial.Write(rest[:i])
		r.push(r.partial.String())
		r.partial.Reset()
		rest = rest[i+1:]
	}
	return len(p), nil
}

func (r *LineRing) push(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	r.lines[r.head] = line
	r.head = (r.head + 1) % r.size
}

// LastN returns up to n of the most recent lines in chronological order,
// including a pending partial line.
func (r *LineRing) LastN(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ordered := make([]string, 0, r.size+1)
	for i := 0; i < r.size; i++ {
		if line := r.lines[(r.head+i)%r.size]; line != "" {
			ordered = append(ordered, line)
		}
	}
	if tail := strings.TrimSpace(r.partial.String()); tail != "" {
		ordered = append(ordered, tail)
	}

	if n <= 0 || len(ordered) <= n {
		return ordered
	}
	return ordered[len(ordered)-n:]
}

// tailBuffer keeps the head and the last limit bytes of everything written.
// The head holds ffmpeg's input banner; the tail holds the latest errors.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	head  []byte
	tail  []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if room := b.limit - len(b.head); room > 0 {
		take := min(room, len(p))
		b.head = append(b.head, p[:take]...)
		p = p[take:]
	}
	if len(p) > 0 {
		b.tail = append(b.tail, p...)
		if over := len(b.tail) - b.limit; over > 0 {
			b.tail = append(b.tail[:0], b.tail[over:]...)
		}
	}
	return n, nil
}

// Bytes returns head and tail joined; nothing in between is kept.
func (b *tailBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, 0, len(b.head)+len(b.tail))
	out = append(out, b.head...)
	return append(out, b.tail...)
}
