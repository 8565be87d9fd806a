package events

import "time"

// Outcome of a relay request
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Event describes one relay request. It carries request metadata only, never
// the diagnosis itself.
type Event struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id,omitempty"`
	Provider       string    `json:"provider,omitempty"`
	Model          string    `json:"model,omitempty"`
	MimeType       string    `json:"mime_type,omitempty"`
	ImageBytes     int       `json:"image_bytes"`
	Outcome        Outcome   `json:"outcome"`
	UpstreamStatus int       `json:"upstream_status,omitempty"`
	ErrorKind      string    `json:"error_kind,omitempty"` // input | config | upstream | upstream_shape | internal
	Message        string    `json:"message,omitempty"`
	ArchiveKey     string    `json:"archive_key,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
