package store

import (
	"context"
	"errors"

	"sestrack.app/tracking-server/internal/model"
)

var ErrNotFound = errors.New("not found")

// ListFilter narrows and pages List results.
type ListFilter struct {
	Status *model.EmailStatus
	Limit  int32
	Offset int32
}

type EmailLogStore interface {
	GetByID(ctx context.Context, id int64) (*model.EmailLog, error)
	// GetByMessageIDForUpdate locks the row until the surrounding transaction
	// ends. Only meaningful on a transaction-scoped store.
	GetByMessageIDForUpdate(ctx context.Context, messageID string) (*model.EmailLog, error)
	Create(ctx context.Context, log *model.EmailLog) error
	// MarkSent records the provider-assigned message id and moves the record
	// to sent. The id is written at most once.
	MarkSent(ctx context.Context, id int64, messageID string) error
	// UpdateTracking persists status, counters, and the full event history in
	// one statement.
	UpdateTracking(ctx context.Context, id int64, status model.EmailStatus, openCount, clickCount int32, events []model.TrackingEvent) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]model.EmailLog, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
}
