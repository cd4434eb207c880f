package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sestrack.app/tracking-server/internal/model"
)

const emailLogColumns = "id, email, subject, content, status, created_by, date, headers, open_count, click_count, events, event_id, attachments"

type emailLogStore struct {
	q querier
}

func (s *emailLogStore) GetByID(ctx context.Context, id int64) (*model.EmailLog, error) {
	row := s.q.QueryRow(ctx, "SELECT "+emailLogColumns+" FROM email_log WHERE id = $1", id)
	return scanEmailLog(row)
}

func (s *emailLogStore) GetByMessageIDForUpdate(ctx context.Context, messageID string) (*model.EmailLog, error) {
	row := s.q.QueryRow(ctx, "SELECT "+emailLogColumns+" FROM email_log WHERE event_id = $1 FOR UPDATE", messageID)
	return scanEmailLog(row)
}

func (s *emailLogStore) Create(ctx context.Context, log *model.EmailLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	events, err := marshalEvents(log.Events)
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx,
		`INSERT INTO email_log (id, email, subject, content, status, created_by, date, headers, open_count, click_count, events, event_id, attachments)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		log.ID, log.Email, log.Subject, log.Content, string(log.Status), log.CreatedBy, log.CreatedAt,
		log.Headers, log.OpenCount, log.ClickCount, events, log.MessageID, log.Attachments,
	)
	if err != nil {
		return fmt.Errorf("inserting email log: %w", err)
	}
	return nil
}

func (s *emailLogStore) MarkSent(ctx context.Context, id int64, messageID string) error {
	tag, err := s.q.Exec(ctx,
		"UPDATE email_log SET status = $3, event_id = $2 WHERE id = $1 AND event_id IS NULL",
		id, messageID, string(model.StatusSent),
	)
	if err != nil {
		return fmt.Errorf("marking email sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *emailLogStore) UpdateTracking(ctx context.Context, id int64, status model.EmailStatus, openCount, clickCount int32, events []model.TrackingEvent) error {
	payload, err := marshalEvents(events)
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx,
		"UPDATE email_log SET status = $2, open_count = $3, click_count = $4, events = $5 WHERE id = $1",
		id, string(status), openCount, clickCount, payload,
	)
	if err != nil {
		return fmt.Errorf("updating tracking state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *emailLogStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM email_log WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting email log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *emailLogStore) List(ctx context.Context, filter ListFilter) ([]model.EmailLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		rows pgx.Rows
		err  error
	)
	if filter.Status != nil {
		rows, err = s.q.Query(ctx,
			"SELECT "+emailLogColumns+" FROM email_log WHERE status = $1 ORDER BY date DESC LIMIT $2 OFFSET $3",
			string(*filter.Status), limit, filter.Offset,
		)
	} else {
		rows, err = s.q.Query(ctx,
			"SELECT "+emailLogColumns+" FROM email_log ORDER BY date DESC LIMIT $1 OFFSET $2",
			limit, filter.Offset,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing email logs: %w", err)
	}
	defer rows.Close()

	var result []model.EmailLog
	for rows.Next() {
		log, err := scanEmailLog(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *log)
	}
	return result, rows.Err()
}

func (s *emailLogStore) Count(ctx context.Context, filter ListFilter) (int64, error) {
	var (
		count int64
		err   error
	)
	if filter.Status != nil {
		err = s.q.QueryRow(ctx, "SELECT COUNT(*) FROM email_log WHERE status = $1", string(*filter.Status)).Scan(&count)
	} else {
		err = s.q.QueryRow(ctx, "SELECT COUNT(*) FROM email_log").Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("counting email logs: %w", err)
	}
	return count, nil
}

func scanEmailLog(row pgx.Row) (*model.EmailLog, error) {
	var (
		log    model.EmailLog
		status string
		events []byte
	)
	err := row.Scan(
		&log.ID, &log.Email, &log.Subject, &log.Content, &status, &log.CreatedBy, &log.CreatedAt,
		&log.Headers, &log.OpenCount, &log.ClickCount, &events, &log.MessageID, &log.Attachments,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning email log: %w", err)
	}
	log.Status = model.EmailStatus(status)
	if len(events) > 0 {
		if err := json.Unmarshal(events, &log.Events); err != nil {
			return nil, fmt.Errorf("decoding event history: %w", err)
		}
	}
	return &log, nil
}

func marshalEvents(events []model.TrackingEvent) ([]byte, error) {
	if events == nil {
		events = []model.TrackingEvent{}
	}
	payload, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encoding event history: %w", err)
	}
	return payload, nil
}
