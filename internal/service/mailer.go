package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"sestrack.app/tracking-server/common/id"
	"sestrack.app/tracking-server/internal/model"
	"sestrack.app/tracking-server/internal/store"
)

// Provider submits an assembled raw message and returns the provider-assigned
// message id used to correlate later delivery events.
type Provider interface {
	Send(ctx context.Context, from string, to []string, raw []byte) (string, error)
}

type Attachment struct {
	Filename string
	Content  []byte
}

type OutboundEmail struct {
	To          []string
	CC          []string
	BCC         []string
	From        string
	Subject     string
	HTMLBody    string
	Headers     []string
	Attachments []Attachment
	CreatedBy   string
}

// MailService is the send side of the pipeline: it logs the message before
// the provider call and reconciles the log with the result after, so the
// record exists (with an id threaded through explicitly) whichever way the
// send goes.
type MailService interface {
	Send(ctx context.Context, msg OutboundEmail) (*model.EmailLog, error)
}

type mailService struct {
	logs        store.EmailLogStore
	provider    Provider
	defaultFrom string
}

func NewMailService(logs store.EmailLogStore, provider Provider, defaultFrom string) MailService {
	return &mailService{
		logs:        logs,
		provider:    provider,
		defaultFrom: defaultFrom,
	}
}

func (s *mailService) Send(ctx context.Context, msg OutboundEmail) (*model.EmailLog, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("outbound email has no recipients")
	}
	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}

	rec := &model.EmailLog{
		ID:        id.New(),
		Email:     strings.Join(msg.To, ", "),
		Subject:   msg.Subject,
		Content:   msg.HTMLBody,
		Headers:   strings.Join(msg.Headers, ", "),
		Status:    model.StatusPending,
		CreatedBy: msg.CreatedBy,
	}
	if len(msg.Attachments) > 0 {
		names := make([]string, len(msg.Attachments))
		for i, a := range msg.Attachments {
			names[i] = a.Filename
		}
		joined := strings.Join(names, ", ")
		rec.Attachments = &joined
	}

	if err := s.logs.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("logging outbound email: %w", err)
	}

	raw, err := assembleMIME(from, msg)
	if err != nil {
		s.markFailed(ctx, rec, err)
		return rec, fmt.Errorf("assembling message: %w", err)
	}

	messageID, err := s.provider.Send(ctx, from, msg.To, raw)
	if err != nil {
		s.markFailed(ctx, rec, err)
		return rec, fmt.Errorf("submitting message: %w", err)
	}

	if err := s.logs.MarkSent(ctx, rec.ID, messageID); err != nil {
		return rec, fmt.Errorf("recording message id: %w", err)
	}
	rec.Status = model.StatusSent
	rec.MessageID = &messageID

	slog.InfoContext(ctx, "email sent", "log_id", rec.ID, "message_id", messageID, "to", rec.Email)
	return rec, nil
}

// markFailed records the failure outcome and a Fail history entry. The log
// record outlives the failed send so the admin surface can show what
// happened.
func (s *mailService) markFailed(ctx context.Context, rec *model.EmailLog, cause error) {
	events := append(rec.Events, model.TrackingEvent{
		Kind:         model.KindFail,
		ErrorMessage: cause.Error(),
	})
	if err := s.logs.UpdateTracking(ctx, rec.ID, model.StatusFailed, rec.OpenCount, rec.ClickCount, events); err != nil {
		slog.ErrorContext(ctx, "failed to record send failure", "log_id", rec.ID, "error", err)
		return
	}
	rec.Status = model.StatusFailed
	rec.Events = events
}

func assembleMIME(from string, msg OutboundEmail) ([]byte, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	if len(msg.CC) > 0 {
		m.SetHeader("Cc", msg.CC...)
	}
	if len(msg.BCC) > 0 {
		m.SetHeader("Bcc", msg.BCC...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	for _, a := range msg.Attachments {
		content := a.Content
		m.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
