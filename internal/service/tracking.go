package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sestrack.app/tracking-server/internal/model"
	"sestrack.app/tracking-server/internal/store"
)

// ErrMalformedEvent marks a payload that decodes but lacks the fields its
// event type requires. Retrying cannot fix it, so callers acknowledge and
// drop it.
var ErrMalformedEvent = errors.New("malformed tracking event")

// TxRunner runs a function with stores bound to one transaction.
// Implemented by *store.DB.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores store.Provider) error) error
}

// TrackingService reconciles provider delivery events against the email log.
type TrackingService interface {
	// ProcessEvent applies one decoded notification body. A nil return means
	// the event was applied, was a duplicate, or referenced a message this
	// installation never logged; all three are acknowledged upstream. Only
	// persistence failures return an error, so the transport redelivers.
	ProcessEvent(ctx context.Context, payload []byte) error
}

type trackingService struct {
	tx TxRunner
}

func NewTrackingService(tx TxRunner) TrackingService {
	return &trackingService{tx: tx}
}

func (s *trackingService) ProcessEvent(ctx context.Context, payload []byte) error {
	var event model.SESEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: decoding event: %v", ErrMalformedEvent, err)
	}
	if event.Mail.MessageID == "" {
		return fmt.Errorf("%w: missing mail.messageId", ErrMalformedEvent)
	}

	kind, ok := eventKind(event.EventType)
	if !ok {
		slog.WarnContext(ctx, "ignoring unhandled event type",
			"event_type", event.EventType, "message_id", event.Mail.MessageID)
		return nil
	}

	entry, err := buildEntry(kind, &event)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(stores store.Provider) error {
		logs := stores.EmailLogs()

		// The row lock serializes concurrent notifications for one message;
		// the dedup scan and the history append happen under it.
		rec, err := logs.GetByMessageIDForUpdate(ctx, event.Mail.MessageID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				slog.InfoContext(ctx, "event for unknown message, skipping",
					"message_id", event.Mail.MessageID, "kind", string(kind))
				return nil
			}
			return err
		}

		if isDuplicate(rec.Events, kind, entry.Timestamp) {
			slog.InfoContext(ctx, "duplicate event, skipping",
				"message_id", event.Mail.MessageID, "kind", string(kind), "timestamp", entry.Timestamp)
			return nil
		}

		status, openCount, clickCount := applyTransition(rec, kind, entry)
		events := append(rec.Events, entry)

		if err := logs.UpdateTracking(ctx, rec.ID, status, openCount, clickCount, events); err != nil {
			return err
		}

		slog.InfoContext(ctx, "tracking event recorded",
			"message_id", event.Mail.MessageID, "kind", string(kind), "status", string(status))
		return nil
	})
}

// isDuplicate reports whether an entry of the same kind with the same
// timestamp was already recorded. Reject and Fail entries carry no timestamp
// and are never deduplicated; the provider does not retry them in practice.
func isDuplicate(events []model.TrackingEvent, kind model.EventKind, timestamp string) bool {
	if kind == model.KindReject || kind == model.KindFail {
		return false
	}
	for _, e := range events {
		if e.Kind == kind && e.Timestamp == timestamp {
			return true
		}
	}
	return false
}

// applyTransition computes the new status and counters. Status is
// last-write-wins except that an Open never downgrades a clicked record; the
// appended history keeps full provenance either way.
func applyTransition(rec *model.EmailLog, kind model.EventKind, entry model.TrackingEvent) (model.EmailStatus, int32, int32) {
	status := rec.Status
	openCount := rec.OpenCount
	clickCount := rec.ClickCount

	switch kind {
	case model.KindDelivery:
		status = model.StatusDelivered
	case model.KindOpen:
		openCount++
		if status != model.StatusOpened && status != model.StatusClicked {
			status = model.StatusOpened
		}
	case model.KindClick:
		clickCount++
		status = model.StatusClicked
	case model.KindBounce:
		if entry.BounceType == "Permanent" {
			status = model.StatusHardBounce
		} else {
			status = model.StatusSoftBounce
		}
	case model.KindComplaint:
		status = model.StatusComplaint
	case model.KindReject:
		status = model.StatusRejected
	case model.KindFail:
		status = model.StatusFailed
	}

	return status, openCount, clickCount
}

// buildEntry extracts the kind-specific fields into a history entry. A nil
// payload member for the claimed event type is malformed.
func buildEntry(kind model.EventKind, event *model.SESEvent) (model.TrackingEvent, error) {
	entry := model.TrackingEvent{Kind: kind}

	switch kind {
	case model.KindDelivery:
		if event.Delivery == nil {
			return entry, fmt.Errorf("%w: missing delivery payload", ErrMalformedEvent)
		}
		entry.Timestamp = event.Delivery.Timestamp
		entry.Recipients = strings.Join(event.Delivery.Recipients, ", ")
	case model.KindOpen:
		if event.Open == nil {
			return entry, fmt.Errorf("%w: missing open payload", ErrMalformedEvent)
		}
		entry.Timestamp = event.Open.Timestamp
		entry.IPAddress = event.Open.IPAddress
	case model.KindClick:
		if event.Click == nil {
			return entry, fmt.Errorf("%w: missing click payload", ErrMalformedEvent)
		}
		entry.Timestamp = event.Click.Timestamp
		entry.IPAddress = event.Click.IPAddress
		entry.Link = event.Click.Link
	case model.KindBounce:
		if event.Bounce == nil {
			return entry, fmt.Errorf("%w: missing bounce payload", ErrMalformedEvent)
		}
		entry.Timestamp = event.Bounce.Timestamp
		entry.BounceType = event.Bounce.BounceType
		entry.BounceSubType = event.Bounce.BounceSubType
		// Last recipient wins when the bounce covers several.
		for _, r := range event.Bounce.BouncedRecipients {
			entry.EmailAddress = r.EmailAddress
			entry.Action = r.Action
			entry.DiagnosticCode = r.DiagnosticCode
		}
	case model.KindComplaint:
		if event.Complaint == nil {
			return entry, fmt.Errorf("%w: missing complaint payload", ErrMalformedEvent)
		}
		entry.Timestamp = event.Complaint.Timestamp
		entry.FeedbackType = event.Complaint.ComplaintFeedbackType
		entry.FeedbackSubType = event.Complaint.ComplaintSubType
		for _, r := range event.Complaint.ComplainedRecipients {
			entry.EmailAddress = r.EmailAddress
		}
	case model.KindReject:
		if event.Reject == nil {
			return entry, fmt.Errorf("%w: missing reject payload", ErrMalformedEvent)
		}
		entry.Reason = event.Reject.Reason
	case model.KindFail:
		if event.Failure == nil {
			return entry, fmt.Errorf("%w: missing failure payload", ErrMalformedEvent)
		}
		entry.ErrorMessage = event.Failure.ErrorMessage
		entry.TemplateName = event.Failure.TemplateName
	}

	return entry, nil
}

func eventKind(eventType string) (model.EventKind, bool) {
	switch eventType {
	case "Delivery":
		return model.KindDelivery, true
	case "Open":
		return model.KindOpen, true
	case "Click":
		return model.KindClick, true
	case "Bounce":
		return model.KindBounce, true
	case "Complaint":
		return model.KindComplaint, true
	case "Reject":
		return model.KindReject, true
	case "Rendering Failure":
		return model.KindFail, true
	default:
		return "", false
	}
}
