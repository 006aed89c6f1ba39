// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by every span camrelay emits.
const (
	// Job attributes
	JobIDKey     = "job.id"
	JobResultKey = "job.result"

	// Discovery attributes
	CameraHostKey     = "camera.host"
	ProbeTemplateKey  = "probe.template"
	ProbeTemplatesKey = "probe.templates"
	ProbeAttemptKey   = "probe.attempt"
	ProbeOutcomeKey   = "probe.outcome"

	// Relay attributes
	IcecastHostKey = "icecast.host"
	IcecastPortKey = "icecast.port"
	RelayMountKey  = "relay.mount"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// ProbeAttemptAttributes describes one template attempt. The URL is never
// attached because it carries credentials.
func ProbeAttemptAttributes(template string, attempt int, outcome string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ProbeTemplateKey, template),
		attribute.Int(ProbeAttemptKey, attempt),
		attribute.String(ProbeOutcomeKey, outcome),
	}
}

// RelayAttributes describes a relay publish target.
func RelayAttributes(host string, port int, mount string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if host != "" {
		attrs = append(attrs, attribute.String(IcecastHostKey, host))
	}
	if port > 0 {
		attrs = append(attrs, attribute.Int(IcecastPortKey, port))
	}
	if mount != "" {
		attrs = append(attrs, attribute.String(RelayMountKey, mount))
	}
	return attrs
}

// JobAttributes creates job-related span attributes.
func JobAttributes(jobID, result string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(JobIDKey, jobID)}
	if result != "" {
		attrs = append(attrs, attribute.String(JobResultKey, result))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
