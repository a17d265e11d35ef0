// Package memory provides an in-process record store for local development and tests
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/errors"
)

type table struct {
	order []string
	rows  map[string]outbound.Record
}

// RecordStore implements outbound.RecordStore on top of maps.
// Rows are copied on the way in and out, so callers never share field maps with the store.
type RecordStore struct {
	tables map[string]*table
	mutex  sync.RWMutex
	now    func() time.Time
}

var _ outbound.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates an empty in-memory record store
func NewRecordStore() *RecordStore {
	return &RecordStore{
		tables: make(map[string]*table),
		now:    time.Now,
	}
}

// NewRecordID returns an Airtable-shaped id: "rec" followed by 14 characters
func NewRecordID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}

// Seed inserts rows directly, bypassing batch limits. It is meant for fixtures.
func (s *RecordStore) Seed(tableName string, rows ...outbound.Fields) []outbound.Record {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]outbound.Record, 0, len(rows))
	for _, fields := range rows {
		out = append(out, s.insert(tableName, fields))
	}
	return out
}

// Create inserts one row
func (s *RecordStore) Create(ctx context.Context, tableName string, fields outbound.Fields) (*outbound.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec := s.insert(tableName, fields)
	return &rec, nil
}

// CreateBatch inserts rows in input order
func (s *RecordStore) CreateBatch(ctx context.Context, tableName string, rows []outbound.Fields) ([]outbound.Record, error) {
	created := make([]outbound.Record, 0, len(rows))
	for start := 0; start < len(rows); start += outbound.MaxBatchSize {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		end := start + outbound.MaxBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		s.mutex.Lock()
		for _, fields := range rows[start:end] {
			created = append(created, s.insert(tableName, fields))
		}
		s.mutex.Unlock()
	}
	return created, nil
}

// Get returns a copy of the row
func (s *RecordStore) Get(ctx context.Context, tableName, id string) (*outbound.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, ok := s.tables[tableName]
	if !ok {
		return nil, notFound(tableName, id)
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, notFound(tableName, id)
	}
	out := copyRecord(rec)
	return &out, nil
}

// ListAll returns the rows accepted by filter in insertion order
func (s *RecordStore) ListAll(ctx context.Context, tableName string, filter outbound.Filter) ([]outbound.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, ok := s.tables[tableName]
	if !ok {
		return []outbound.Record{}, nil
	}

	out := make([]outbound.Record, 0, len(t.order))
	for _, id := range t.order {
		rec := t.rows[id]
		if filter != nil && !filter.Match(rec) {
			continue
		}
		out = append(out, copyRecord(rec))
	}
	return out, nil
}

// Update merges fields into the row
func (s *RecordStore) Update(ctx context.Context, tableName, id string, fields outbound.Fields) (*outbound.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[tableName]
	if !ok {
		return nil, notFound(tableName, id)
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, notFound(tableName, id)
	}

	merged := rec.Fields.Clone()
	for k, v := range fields {
		merged[k] = v
	}
	rec.Fields = merged
	t.rows[id] = rec

	out := copyRecord(rec)
	return &out, nil
}

// Delete removes one row
func (s *RecordStore) Delete(ctx context.Context, tableName, id string) error {
	return s.DeleteBatch(ctx, tableName, []string{id})
}

// DeleteBatch removes every listed row. Nothing is removed when any id is unknown.
func (s *RecordStore) DeleteBatch(ctx context.Context, tableName string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[tableName]
	if !ok {
		return notFound(tableName, ids[0])
	}
	for _, id := range ids {
		if _, ok := t.rows[id]; !ok {
			return notFound(tableName, id)
		}
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		delete(t.rows, id)
		drop[id] = struct{}{}
	}
	kept := t.order[:0]
	for _, id := range t.order {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	t.order = kept
	return nil
}

// TestConnectivity always succeeds
func (s *RecordStore) TestConnectivity(ctx context.Context) bool {
	return ctx.Err() == nil
}

// Len returns the number of rows in a table
func (s *RecordStore) Len(tableName string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if t, ok := s.tables[tableName]; ok {
		return len(t.rows)
	}
	return 0
}

// insert must be called with the write lock held
func (s *RecordStore) insert(tableName string, fields outbound.Fields) outbound.Record {
	t, ok := s.tables[tableName]
	if !ok {
		t = &table{rows: make(map[string]outbound.Record)}
		s.tables[tableName] = t
	}

	rec := outbound.Record{
		ID:          NewRecordID(),
		CreatedTime: s.now().UTC(),
		Fields:      fields.Clone(),
	}
	t.rows[rec.ID] = rec
	t.order = append(t.order, rec.ID)
	return copyRecord(rec)
}

func copyRecord(r outbound.Record) outbound.Record {
	r.Fields = r.Fields.Clone()
	return r
}

func notFound(tableName, id string) error {
	return errors.NewNotFoundError("record").
		WithMetadata("table", tableName).
		WithMetadata("record_id", id)
}
