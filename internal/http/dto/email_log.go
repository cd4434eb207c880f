package dto

import (
	"time"

	"sestrack.app/tracking-server/internal/model"
)

type SendEmailRequest struct {
	To        []string `json:"to" binding:"required,min=1,dive,email"`
	CC        []string `json:"cc" binding:"omitempty,dive,email"`
	BCC       []string `json:"bcc" binding:"omitempty,dive,email"`
	From      string   `json:"from" binding:"omitempty,email"`
	Subject   string   `json:"subject" binding:"required,min=1"`
	Body      string   `json:"body" binding:"required,min=1"`
	Headers   []string `json:"headers"`
	CreatedBy string   `json:"created_by"`
}

type EmailLogResponse struct {
	CreatedAt   time.Time             `json:"created_at"`
	Email       string                `json:"email"`
	Subject     string                `json:"subject"`
	Status      string                `json:"status"`
	CreatedBy   string                `json:"created_by"`
	MessageID   *string               `json:"message_id"`
	Attachments *string               `json:"attachments"`
	Events      []model.TrackingEvent `json:"events"`
	OpenCount   int32                 `json:"open_count"`
	ClickCount  int32                 `json:"click_count"`
	ID          int64                 `json:"id,string"`
}

// EmailLogDetailResponse additionally carries the stored message body, which
// the list view leaves out.
type EmailLogDetailResponse struct {
	EmailLogResponse
	Content string `json:"content"`
	Headers string `json:"headers"`
}

type ListEmailLogsResponse struct {
	Emails []EmailLogResponse `json:"emails"`
	Total  int64              `json:"total"`
}

func ToEmailLogResponse(log *model.EmailLog) EmailLogResponse {
	return EmailLogResponse{
		ID:          log.ID,
		Email:       log.Email,
		Subject:     log.Subject,
		Status:      string(log.Status),
		CreatedBy:   log.CreatedBy,
		MessageID:   log.MessageID,
		Attachments: log.Attachments,
		Events:      log.Events,
		OpenCount:   log.OpenCount,
		ClickCount:  log.ClickCount,
		CreatedAt:   log.CreatedAt,
	}
}

func ToEmailLogDetailResponse(log *model.EmailLog) EmailLogDetailResponse {
	return EmailLogDetailResponse{
		EmailLogResponse: ToEmailLogResponse(log),
		Content:          log.Content,
		Headers:          log.Headers,
	}
}
