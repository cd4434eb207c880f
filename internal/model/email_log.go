package model

import (
	"time"
)

// EmailStatus is the most recent known state of an outbound message. The full
// provenance lives in the Events history; Status is last-write-wins.
type EmailStatus string

const (
	StatusPending    EmailStatus = "pending"
	StatusSent       EmailStatus = "sent"
	StatusDelivered  EmailStatus = "delivered"
	StatusOpened     EmailStatus = "opened"
	StatusClicked    EmailStatus = "clicked"
	StatusHardBounce EmailStatus = "hard_bounce"
	StatusSoftBounce EmailStatus = "soft_bounce"
	StatusComplaint  EmailStatus = "complaint"
	StatusRejected   EmailStatus = "rejected"
	StatusFailed     EmailStatus = "failed"
)

// EventKind tags one entry in an email's tracking history.
type EventKind string

const (
	KindDelivery  EventKind = "Delivery"
	KindOpen      EventKind = "Open"
	KindClick     EventKind = "Click"
	KindBounce    EventKind = "Bounce"
	KindComplaint EventKind = "Complaint"
	KindReject    EventKind = "Reject"
	KindFail      EventKind = "Fail"
)

// TrackingEvent is one append-only history entry. Kind selects which of the
// optional fields are populated; Timestamp is kept as the raw string the
// provider sent because (Kind, Timestamp) is the redelivery dedup key and
// parsing could erase formatting the provider round-trips verbatim.
type TrackingEvent struct {
	Kind            EventKind `json:"kind"`
	Timestamp       string    `json:"timestamp,omitempty"`
	Recipients      string    `json:"recipients,omitempty"`
	IPAddress       string    `json:"ip_address,omitempty"`
	Link            string    `json:"link,omitempty"`
	BounceType      string    `json:"bounce_type,omitempty"`
	BounceSubType   string    `json:"bounce_sub_type,omitempty"`
	FeedbackType    string    `json:"feedback_type,omitempty"`
	FeedbackSubType string    `json:"feedback_sub_type,omitempty"`
	EmailAddress    string    `json:"email_address,omitempty"`
	Action          string    `json:"action,omitempty"`
	DiagnosticCode  string    `json:"diagnostic_code,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	TemplateName    string    `json:"template_name,omitempty"`
}

// EmailLog is one outbound message. MessageID is the provider-assigned
// correlation id; it is empty until the provider accepts the send and is the
// sole key the notification path addresses the record by.
type EmailLog struct {
	CreatedAt   time.Time       `json:"created_at"`
	Email       string          `json:"email"`
	Subject     string          `json:"subject"`
	Content     string          `json:"content"`
	Headers     string          `json:"headers"`
	Status      EmailStatus     `json:"status"`
	CreatedBy   string          `json:"created_by"`
	MessageID   *string         `json:"message_id"`
	Attachments *string         `json:"attachments"`
	Events      []TrackingEvent `json:"events"`
	OpenCount   int32           `json:"open_count"`
	ClickCount  int32           `json:"click_count"`
	ID          int64           `json:"id"`
}
