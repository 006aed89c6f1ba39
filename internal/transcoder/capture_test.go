// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package transcoder

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRing(t *testing.T) {
	r := NewLineRing(3)

	_, _ = fmt.Fprintf(r, "line1\n")
	_, _ = fmt.Fprintf(r, "line2\n")
	assert.Equal(t, []string{"line1", "line2"}, r.LastN(10))

	_, _ = fmt.Fprintf(r, "line3\n")
	assert.Equal(t, []string{"line1", "line2", "line3"}, r.LastN(10))

	// Wrap
	_, _ = fmt.Fprintf(r, "line4\n")
	assert.Equal(t, []string{"line2", "line3", "line4"}, r.LastN(10))
	assert.Equal(t, []string{"line3", "line4"}, r.LastN(2))
}

func TestLineRing_PartialWrites(t *testing.T) {
	r := NewLineRing(5)
	_, _ = r.Write([]byte("Input #0, rt"))
	_, _ = r.Write([]byte("sp, from 'x':\n  Stream"))

	assert.Equal(t, []string{"Input #0, rtsp, from 'x':", "Stream"}, r.LastN(10))

	_, _ = r.Write([]byte(" #0:0: Video\n"))
	assert.Equal(t, []string{"Input #0, rtsp, from 'x':", "Stream #0:0: Video"}, r.LastN(10))
}

func TestLineRing_CarriageReturnProgress(t *testing.T) {
	r := NewLineRing(5)
	_, _ = r.Write([]byte("frame=  10 fps=0.0\rframe=  20 fps=19\r\n"))

	assert.Equal(t, []string{"frame=  10 fps=0.0", "frame=  20 fps=19"}, r.LastN(0))
}

func TestTailBuffer_KeepsHeadAndTail(t *testing.T) {
	b := newTailBuffer(8)
	_, _ = b.Write([]byte("HEADHEAD"))
	_, _ = b.Write(bytes.Repeat([]byte("x"), 100))
	_, _ = b.Write([]byte("TAILTAIL"))

	assert.Equal(t, "HEADHEADTAILTAIL", string(b.Bytes()))
}

func TestTailBuffer_Small(t *testing.T) {
	b := newTailBuffer(64)
	n, err := b.Write([]byte("short"))

	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "short", string(b.Bytes()))
}
