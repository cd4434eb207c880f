package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sestrack.app/tracking-server/internal/http/dto"
	"sestrack.app/tracking-server/internal/model"
	"sestrack.app/tracking-server/internal/service"
	"sestrack.app/tracking-server/internal/store"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// EmailLogHandler is the admin surface over the send log: browse, inspect,
// delete. Reconciliation never goes through here.
type EmailLogHandler struct {
	logs   store.EmailLogStore
	mailer service.MailService
}

func NewEmailLogHandler(logs store.EmailLogStore, mailer service.MailService) *EmailLogHandler {
	return &EmailLogHandler{logs: logs, mailer: mailer}
}

// Send submits an outbound message through the tracked send pipeline.
func (h *EmailLogHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.mailer.Send(ctx, service.OutboundEmail{
		To:        req.To,
		CC:        req.CC,
		BCC:       req.BCC,
		From:      req.From,
		Subject:   req.Subject,
		HTMLBody:  req.Body,
		Headers:   req.Headers,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send email", "error", err)
		status := http.StatusBadGateway
		if rec == nil {
			status = http.StatusInternalServerError
		}
		resp := gin.H{"error": "failed to send email"}
		if rec != nil {
			resp["email"] = dto.ToEmailLogResponse(rec)
		}
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEmailLogResponse(rec))
}

func (h *EmailLogHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := store.ListFilter{Limit: defaultPerPage}
	if v := c.Query("per_page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 || n > maxPerPage {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid per_page"})
			return
		}
		filter.Limit = int32(n)
	}
	if v := c.Query("page"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		filter.Offset = (int32(n) - 1) * filter.Limit
	}
	if v := c.Query("status"); v != "" {
		status := model.EmailStatus(v)
		filter.Status = &status
	}

	logs, err := h.logs.List(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list email logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list emails"})
		return
	}
	total, err := h.logs.Count(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count email logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list emails"})
		return
	}

	resp := dto.ListEmailLogsResponse{
		Emails: make([]dto.EmailLogResponse, len(logs)),
		Total:  total,
	}
	for i := range logs {
		resp.Emails[i] = dto.ToEmailLogResponse(&logs[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EmailLogHandler) GetByID(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	log, err := h.logs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get email log", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get email"})
		return
	}

	c.JSON(http.StatusOK, dto.ToEmailLogDetailResponse(log))
}

func (h *EmailLogHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.logs.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to delete email log", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete email"})
		return
	}

	slog.InfoContext(ctx, "email log deleted", "id", id)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
