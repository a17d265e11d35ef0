package airtable

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

// RecordStore implements outbound.RecordStore against an Airtable base
type RecordStore struct {
	client *Client
	tables outbound.Tables
	logger *zap.Logger
}

var _ outbound.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a new Airtable-backed record store.
// tables.Recipes is used for connectivity probes.
func NewRecordStore(client *Client, tables outbound.Tables, logger *zap.Logger) *RecordStore {
	return &RecordStore{
		client: client,
		tables: tables,
		logger: logger.Named("airtable-store"),
	}
}

type recordPayload struct {
	Fields outbound.Fields `json:"fields"`
}

type recordsPayload struct {
	Records []recordPayload `json:"records"`
}

type recordsResponse struct {
	Records []outbound.Record `json:"records"`
	Offset  string            `json:"offset,omitempty"`
}

// Create inserts one row
func (s *RecordStore) Create(ctx context.Context, table string, fields outbound.Fields) (*outbound.Record, error) {
	var rec outbound.Record
	err := s.client.do(ctx, request{
		operation: "create",
		method:    http.MethodPost,
		table:     table,
		body:      recordPayload{Fields: fields},
	}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateBatch inserts rows in chunks of outbound.MaxBatchSize, one request per chunk
func (s *RecordStore) CreateBatch(ctx context.Context, table string, rows []outbound.Fields) ([]outbound.Record, error) {
	created := make([]outbound.Record, 0, len(rows))
	for start := 0; start < len(rows); start += outbound.MaxBatchSize {
		end := start + outbound.MaxBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		payload := recordsPayload{Records: make([]recordPayload, 0, end-start)}
		for _, fields := range rows[start:end] {
			payload.Records = append(payload.Records, recordPayload{Fields: fields})
		}

		var resp recordsResponse
		err := s.client.do(ctx, request{
			operation: "create_batch",
			method:    http.MethodPost,
			table:     table,
			body:      payload,
		}, &resp)
		if err != nil {
			s.logger.Error("Batch insert failed",
				zap.String("table", table),
				zap.Int("committed", len(created)),
				zap.Int("total", len(rows)),
				zap.Error(err),
			)
			return created, err
		}
		created = append(created, resp.Records...)
	}
	return created, nil
}

// Get fetches one row by id
func (s *RecordStore) Get(ctx context.Context, table, id string) (*outbound.Record, error) {
	var rec outbound.Record
	err := s.client.do(ctx, request{
		operation: "get",
		method:    http.MethodGet,
		table:     table,
		recordID:  id,
	}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListAll pages through the table. The filter's formula, when it has one, is
// sent to Airtable; its Match predicate is always applied to what comes back.
func (s *RecordStore) ListAll(ctx context.Context, table string, filter outbound.Filter) ([]outbound.Record, error) {
	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(s.client.config.PageSize))
	if filter != nil {
		if formula := filter.Formula(); formula != "" {
			query.Set("filterByFormula", formula)
		}
	}

	var all []outbound.Record
	pages := 0
	for {
		var resp recordsResponse
		err := s.client.do(ctx, request{
			operation: "list",
			method:    http.MethodGet,
			table:     table,
			query:     query,
		}, &resp)
		if err != nil {
			return nil, err
		}
		pages++
		all = append(all, resp.Records...)

		if resp.Offset == "" {
			break
		}
		query.Set("offset", resp.Offset)
	}

	matched := outbound.Apply(all, filter)
	s.logger.Debug("Listed records",
		zap.String("table", table),
		zap.Int("pages", pages),
		zap.Int("fetched", len(all)),
		zap.Int("matched", len(matched)),
	)
	return matched, nil
}

// Update merges fields into a row
func (s *RecordStore) Update(ctx context.Context, table, id string, fields outbound.Fields) (*outbound.Record, error) {
	var rec outbound.Record
	err := s.client.do(ctx, request{
		operation: "update",
		method:    http.MethodPatch,
		table:     table,
		recordID:  id,
		body:      recordPayload{Fields: fields},
	}, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes one row
func (s *RecordStore) Delete(ctx context.Context, table, id string) error {
	return s.client.do(ctx, request{
		operation: "delete",
		method:    http.MethodDelete,
		table:     table,
		recordID:  id,
	}, nil)
}

// DeleteBatch removes rows in chunks of outbound.MaxBatchSize
func (s *RecordStore) DeleteBatch(ctx context.Context, table string, ids []string) error {
	for start := 0; start < len(ids); start += outbound.MaxBatchSize {
		end := start + outbound.MaxBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		query := url.Values{}
		for _, id := range ids[start:end] {
			query.Add("records[]", id)
		}
		err := s.client.do(ctx, request{
			operation: "delete_batch",
			method:    http.MethodDelete,
			table:     table,
			query:     query,
		}, nil)
		if err != nil {
			return err
		}
	}
	return nil
}

// TestConnectivity reads a single recipe row
func (s *RecordStore) TestConnectivity(ctx context.Context) bool {
	query := url.Values{}
	query.Set("maxRecords", "1")

	var resp recordsResponse
	err := s.client.do(ctx, request{
		operation: "ping",
		method:    http.MethodGet,
		table:     s.tables.Recipes,
		query:     query,
	}, &resp)
	if err != nil {
		s.logger.Warn("Airtable connectivity check failed", zap.Error(err))
		return false
	}
	return true
}
