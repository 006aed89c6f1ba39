// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package discovery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleOutput = `Input #0, rtsp, from 'rtsp://***@10.0.0.5:554/Streaming/Channels/101':
  Duration: N/A, start: 0.000000, bitrate: N/A
  Stream #0:0: Video: h264 (Main), yuvj420p(pc, bt709, progressive), 1920x1080, 25 fps
`

func TestHasStreamMarkers(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"video stream", sampleOutput, true},
		{"audio only", "Input #0, rtsp, from 'x':\n  Stream #0:0: Audio: pcm_alaw, 8000 Hz, mono\n", true},
		{"input without stream", "Input #0, rtsp, from 'x':\n", false},
		{"stream without input", "Stream #0:0: Video: h264\n", false},
		{"auth failure", "[rtsp @ 0x1] method DESCRIBE failed: 401 Unauthorized\n", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasStreamMarkers([]byte(tt.output)))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		out  Outcome
		want string
	}{
		{"success", Outcome{Started: true, Output: []byte(sampleOutput)}, OutcomeOK},
		{"not started", Outcome{Started: false, ExitCode: -1, Err: errors.New("exec: not found")}, OutcomeStartFailed},
		{"timed out with markers", Outcome{Started: true, TimedOut: true, ExitCode: -1, Output: []byte(sampleOutput)}, OutcomeTimeout},
		{"non-zero exit with markers", Outcome{Started: true, ExitCode: 1, Output: []byte(sampleOutput)}, OutcomeExitNonZero},
		{"clean exit without markers", Outcome{Started: true, Output: []byte("nothing useful")}, OutcomeNoMarkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.out))
		})
	}
}

func TestProbeFailureError(t *testing.T) {
	cause := errors.New("exec: \"ffmpeg\": executable file not found in $PATH")
	f := &ProbeFailure{Template: "/stream1", Outcome: OutcomeStartFailed, Err: cause}

	assert.ErrorIs(t, f, cause)
	assert.Contains(t, f.Error(), "/stream1")
	assert.Equal(t, "probe /live.sdp: no_markers", (&ProbeFailure{Template: "/live.sdp", Outcome: OutcomeNoMarkers}).Error())
}
