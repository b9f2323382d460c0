package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a notification event on the wire.
type EventType string

const (
	EventReportStatusChanged EventType = "report.status_changed"
	EventPasswordReset       EventType = "auth.password_reset"
	EventRegistrationDecided EventType = "registration.decided"
)

// Event is the notification payload published to Kafka and consumed by the
// email worker. Fields are optional depending on Type.
type Event struct {
	Timestamp time.Time  `json:"@timestamp"`
	Type      EventType  `json:"type"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Email     string     `json:"email,omitempty"`
	ReportID  *uuid.UUID `json:"report_id,omitempty"`
	RequestID *uuid.UUID `json:"request_id,omitempty"`
	Status    string     `json:"status,omitempty"`
	Detail    string     `json:"detail,omitempty"`
}
