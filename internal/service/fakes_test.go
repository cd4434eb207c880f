package service_test

import (
	"context"
	"sync"

	"sestrack.app/tracking-server/internal/model"
	"sestrack.app/tracking-server/internal/store"
)

// fakeEmailLogStore is an in-memory EmailLogStore. A mutex stands in for the
// row locks the real store takes, so concurrency tests exercise the same
// serialization the pgx implementation guarantees.
type fakeEmailLogStore struct {
	mu      sync.Mutex
	records map[int64]*model.EmailLog

	getErr    error
	updateErr error
	createErr error

	updateCalls int
}

func newFakeEmailLogStore() *fakeEmailLogStore {
	return &fakeEmailLogStore{records: make(map[int64]*model.EmailLog)}
}

func (f *fakeEmailLogStore) add(log model.EmailLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[log.ID] = &log
}

func (f *fakeEmailLogStore) get(id int64) model.EmailLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.records[id]
}

func (f *fakeEmailLogStore) GetByID(ctx context.Context, id int64) (*model.EmailLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeEmailLogStore) GetByMessageIDForUpdate(ctx context.Context, messageID string) (*model.EmailLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, rec := range f.records {
		if rec.MessageID != nil && *rec.MessageID == messageID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeEmailLogStore) Create(ctx context.Context, log *model.EmailLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *log
	f.records[log.ID] = &cp
	return nil
}

func (f *fakeEmailLogStore) MarkSent(ctx context.Context, id int64, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.MessageID != nil {
		return store.ErrNotFound
	}
	rec.MessageID = &messageID
	rec.Status = model.StatusSent
	return nil
}

func (f *fakeEmailLogStore) UpdateTracking(ctx context.Context, id int64, status model.EmailStatus, openCount, clickCount int32, events []model.TrackingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	rec, ok := f.records[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.Status = status
	rec.OpenCount = openCount
	rec.ClickCount = clickCount
	rec.Events = append([]model.TrackingEvent(nil), events...)
	return nil
}

func (f *fakeEmailLogStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeEmailLogStore) List(ctx context.Context, filter store.ListFilter) ([]model.EmailLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.EmailLog
	for _, rec := range f.records {
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		result = append(result, *rec)
	}
	return result, nil
}

func (f *fakeEmailLogStore) Count(ctx context.Context, filter store.ListFilter) (int64, error) {
	logs, err := f.List(ctx, filter)
	return int64(len(logs)), err
}

// fakeTxRunner serializes transactions with a single mutex, matching the
// per-record guarantee the database gives the reconciler.
type fakeTxRunner struct {
	mu    sync.Mutex
	store *fakeEmailLogStore
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(stores store.Provider) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

func (f *fakeTxRunner) EmailLogs() store.EmailLogStore {
	return f.store
}
