// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package transcoder

import (
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/camrelay/internal/config"
	"github.com/ManuGH/camrelay/internal/relay"
)

// ProbeArgs reads at most duration of url into the null muxer.
func ProbeArgs(url string, duration time.Duration) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-rtsp_transport", "tcp",
		"-i", url,
		"-t", formatSeconds(duration),
		"-f", "null",
		"-",
	}
}

// RelayArgs maps a relay command onto ffmpeg flags. Input options precede -i.
func RelayArgs(cmd relay.Command) []string {
	enc := cmd.Encoding
	return []string{
		"-hide_banner",
		"-nostdin",
		"-rtsp_transport", enc.RTSPTransport,
		"-thread_queue_size", strconv.Itoa(enc.ThreadQueueSize),
		"-i", cmd.InputURL,

		"-c:v", enc.VideoCodec,
		"-deadline", enc.Deadline,
		"-cpu-used", strconv.Itoa(enc.CPUUsed),
		"-g", strconv.Itoa(enc.GOPSize),
		"-b:v", enc.VideoBitrate,

		"-ar", strconv.Itoa(enc.AudioSampleRate),
		"-ac", strconv.Itoa(enc.AudioChannels),
		"-c:a", enc.AudioCodec,
		"-b:a", enc.AudioBitrate,

		"-content_type", enc.ContentType,
		"-f", enc.Format,
		cmd.PublishURL,
	}
}

// VersionArgs asks the binary for its version banner.
func VersionArgs() []string {
	return []string{"-version"}
}

// MaskArgs returns a copy of args with the userinfo of every URL redacted.
func MaskArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.Contains(a, "://") {
			a = config.MaskURL(a)
		}
		out[i] = a
	}
	return out
}

func formatSeconds(d time.Duration) string {
	if d <= 0 {
		d = time.Second
	}
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
