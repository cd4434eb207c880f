// Package webhook holds handlers for inbound push notifications.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sestrack.app/tracking-server/internal/service"
	"sestrack.app/tracking-server/internal/sns"
)

const maxBodyBytes = 1 << 20

type Verifier interface {
	Verify(ctx context.Context, m *sns.Message) error
}

type Confirmer interface {
	Confirm(ctx context.Context, subscribeURL string) error
}

// SNSHandler terminates the SNS email-tracking topic. Trust is established
// entirely by signature verification; the route carries no auth header.
type SNSHandler struct {
	verifier  Verifier
	confirmer Confirmer
	tracking  service.TrackingService
	logger    *slog.Logger
}

func NewSNSHandler(verifier Verifier, confirmer Confirmer, tracking service.TrackingService, logger *slog.Logger) *SNSHandler {
	return &SNSHandler{
		verifier:  verifier,
		confirmer: confirmer,
		tracking:  tracking,
		logger:    logger,
	}
}

// HandleEvent processes one SNS delivery. Response policy: 404 when the
// envelope cannot be authenticated (indistinguishable from a missing route),
// 500 only for persistence failures so SNS redelivers, 200 for everything
// else including payloads this system ignores on purpose.
func (h *SNSHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "sns webhook: unreadable body", "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	m, err := sns.ParseMessage(body)
	if err != nil {
		h.logger.WarnContext(ctx, "sns webhook: rejected envelope", "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	// Nothing in the envelope is trusted until this passes; in particular the
	// Message body stays undecoded.
	if err := h.verifier.Verify(ctx, m); err != nil {
		h.logger.WarnContext(ctx, "sns webhook: signature verification failed",
			"sns_message_id", m.MessageID, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	switch m.Type {
	case sns.TypeSubscriptionConfirmation, sns.TypeUnsubscribeConfirmation:
		// SNS redelivers confirmation requests itself; a failed GET is logged
		// and acknowledged.
		if err := h.confirmer.Confirm(ctx, m.SubscribeURL); err != nil {
			h.logger.ErrorContext(ctx, "sns webhook: subscription confirmation failed",
				"sns_message_id", m.MessageID, "error", err)
		} else {
			h.logger.InfoContext(ctx, "sns webhook: subscription confirmed",
				"type", string(m.Type), "topic_arn", m.TopicArn)
		}

	case sns.TypeNotification:
		if err := h.tracking.ProcessEvent(ctx, []byte(m.Message)); err != nil {
			if errors.Is(err, service.ErrMalformedEvent) {
				// Permanent; a retry delivers the same bytes.
				h.logger.WarnContext(ctx, "sns webhook: dropping malformed event",
					"sns_message_id", m.MessageID, "error", err)
			} else {
				h.logger.ErrorContext(ctx, "sns webhook: event processing failed",
					"sns_message_id", m.MessageID, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
		}

	default:
		h.logger.InfoContext(ctx, "sns webhook: ignoring message type", "type", string(m.Type))
	}

	c.Status(http.StatusOK)
}
