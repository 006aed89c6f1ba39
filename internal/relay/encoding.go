// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package relay

// Encoding is the fixed transcoding policy of a relay. It is never built from
// user input.
type Encoding struct {
	RTSPTransport   string
	ThreadQueueSize int

	VideoCodec   string
	Deadline     string
	CPUUsed      int
	GOPSize      int
	VideoBitrate string

	AudioCodec      string
	AudioChannels   int
	AudioSampleRate int
	AudioBitrate    string

	ContentType string
	Format      string
}

// DefaultEncoding is a low-latency VP8/Vorbis WebM feed suited to Icecast.
func DefaultEncoding() Encoding {
	return Encoding{
		RTSPTransport:   "tcp",
		ThreadQueueSize: 512,

		VideoCodec:   "libvpx",
		Deadline:     "realtime",
		CPUUsed:      5,
		GOPSize:      1,
		VideoBitrate: "1000k",

		AudioCodec:      "libvorbis",
		AudioChannels:   1,
		AudioSampleRate: 44100,
		AudioBitrate:    "128k",

		ContentType: "video/webm",
		Format:      "webm",
	}
}

// Command is everything a Starter needs to spawn one relay process.
type Command struct {
	InputURL   string
	PublishURL string
	Encoding   Encoding
}
