package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/errors"
)

const testBase = "appTestBase0001"

type seenRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Auth   string
	Body   map[string]interface{}
}

// fakeAirtable records every request and answers with handler
type fakeAirtable struct {
	mu       sync.Mutex
	requests []seenRequest
	handler  func(w http.ResponseWriter, r *http.Request, n int)
}

func (f *fakeAirtable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	n := len(f.requests)
	f.requests = append(f.requests, seenRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
	})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	f.handler(w, r, n)
}

func (f *fakeAirtable) seen() []seenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]seenRequest(nil), f.requests...)
}

type countingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (o *countingObserver) ObserveRemoteCall(operation, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[operation+":"+status]++
}

func newTestStore(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, n int)) (*RecordStore, *fakeAirtable, *countingObserver) {
	t.Helper()
	fake := &fakeAirtable{handler: handler}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	observer := &countingObserver{calls: map[string]int{}}
	client := NewClient(Config{
		APIKey:            "keyTest",
		BaseID:            testBase,
		BaseURL:           server.URL + "/v0/",
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
	}, observer, zap.NewNop())
	return NewRecordStore(client, outbound.DefaultTables(), zap.NewNop()), fake, observer
}

// statusIs is a scalar filter, so its formula goes to the server
type statusIs string

func (f statusIs) Formula() string { return "{Status} = '" + string(f) + "'" }

func (f statusIs) Match(r outbound.Record) bool { return r.Fields.String("Status") == string(f) }

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestRecordStore_CreateSendsFieldsAndAuth(t *testing.T) {
	store, fake, observer := newTestStore(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		writeJSON(w, http.StatusOK, `{"id":"recNew00000000001","createdTime":"2024-01-01T10:00:00.000Z","fields":{"Plan Name":"Week"}}`)
	})

	rec, err := store.Create(context.Background(), "Meal_Plans", outbound.Fields{"Plan Name": "Week"})

	require.NoError(t, err)
	assert.Equal(t, "recNew00000000001", rec.ID)
	assert.Equal(t, "Week", rec.Fields.String("Plan Name"))
	assert.Equal(t, 2024, rec.CreatedTime.Year())

	reqs := fake.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/v0/"+testBase+"/Meal_Plans", reqs[0].Path)
	assert.Equal(t, "Bearer keyTest", reqs[0].Auth)
	assert.Equal(t, map[string]interface{}{"Plan Name": "Week"}, reqs[0].Body["fields"])
	assert.Equal(t, 1, observer.calls["create:200"])
}

func TestRecordStore_ListAllFollowsOffsets(t *testing.T) {
	store, fake, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request, n int) {
		switch r.URL.Query().Get("offset") {
		case "":
			writeJSON(w, http.StatusOK, `{"records":[{"id":"rec1","fields":{"Meal Plan":["recA"]}},{"id":"rec2","fields":{"Meal Plan":["recB"]}}],"offset":"itrPage2"}`)
		case "itrPage2":
			writeJSON(w, http.StatusOK, `{"records":[{"id":"rec3","fields":{"Meal Plan":["recB","recA"]}}],"offset":"itrPage3"}`)
		default:
			writeJSON(w, http.StatusOK, `{"records":[{"id":"rec4","fields":{}}]}`)
		}
	})

	recs, err := store.ListAll(context.Background(), "Planned_Meals", outbound.LinkContains("Meal Plan", "recA"))

	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec1", recs[0].ID)
	assert.Equal(t, "rec3", recs[1].ID)

	reqs := fake.seen()
	require.Len(t, reqs, 3)
	for _, req := range reqs {
		assert.Equal(t, []string{"100"}, req.Query["pageSize"])
		assert.NotContains(t, req.Query, "filterByFormula", "link filters must not be pushed to the server")
	}
	assert.Equal(t, []string{"itrPage3"}, reqs[2].Query["offset"])
}

func TestRecordStore_ListAllSendsScalarFormula(t *testing.T) {
	store, fake, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		writeJSON(w, http.StatusOK, `{"records":[{"id":"rec1","fields":{"Status":"Active"}},{"id":"rec2","fields":{"Status":"Archived"}}]}`)
	})

	recs, err := store.ListAll(context.Background(), "Meal_Plans", statusIs("Active"))

	require.NoError(t, err)
	require.Len(t, recs, 1, "local match still applies")
	assert.Equal(t, "rec1", recs[0].ID)
	assert.Equal(t, []string{"{Status} = 'Active'"}, fake.seen()[0].Query["filterByFormula"])
}

func TestRecordStore_CreateBatchChunks(t *testing.T) {
	store, fake, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request, n int) {
		var b strings.Builder
		b.WriteString(`{"records":[`)
		// echo ids derived from the request index so order can be asserted
		size := 10
		if n == 2 {
			size = 3
		}
		for i := 0; i < size; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"id":"rec%02d%02d","fields":{}}`, n, i)
		}
		b.WriteString(`]}`)
		writeJSON(w, http.StatusOK, b.String())
	})

	rows := make([]outbound.Fields, 23)
	for i := range rows {
		rows[i] = outbound.Fields{"Meal Name": fmt.Sprintf("meal %d", i)}
	}

	created, err := store.CreateBatch(context.Background(), "Planned_Meals", rows)

	require.NoError(t, err)
	require.Len(t, created, 23)
	assert.Equal(t, "rec0000", created[0].ID)
	assert.Equal(t, "rec0100", created[10].ID)
	assert.Equal(t, "rec0202", created[22].ID)

	reqs := fake.seen()
	require.Len(t, reqs, 3)
	sizes := make([]int, 0, 3)
	for _, req := range reqs {
		sizes = append(sizes, len(req.Body["records"].([]interface{})))
	}
	assert.Equal(t, []int{10, 10, 3}, sizes)
	first := reqs[0].Body["records"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "meal 0", first["fields"].(map[string]interface{})["Meal Name"])
}

func TestRecordStore_CreateBatchPartialFailure(t *testing.T) {
	store, _, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request, n int) {
		if n == 1 {
			writeJSON(w, http.StatusUnprocessableEntity, `{"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"Field \"Servings\" cannot accept the provided value"}}`)
			return
		}
		var ids []string
		for i := 0; i < 10; i++ {
			ids = append(ids, fmt.Sprintf(`{"id":"rec%d","fields":{}}`, i))
		}
		writeJSON(w, http.StatusOK, `{"records":[`+strings.Join(ids, ",")+`]}`)
	})

	created, err := store.CreateBatch(context.Background(), "Planned_Meals", make([]outbound.Fields, 25))

	require.Error(t, err)
	assert.Len(t, created, 10, "first chunk stays committed")
	assert.True(t, errors.Is(err, errors.CodeExternalServiceError))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "INVALID_VALUE_FOR_COLUMN", apiErr.Type)
	assert.Contains(t, apiErr.Message, "Servings")
}

func TestRecordStore_GetNotFound(t *testing.T) {
	store, fake, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		writeJSON(w, http.StatusNotFound, `{"error":"NOT_FOUND"}`)
	})

	_, err := store.Get(context.Background(), "Meal_Plans", "recMissing")

	assert.True(t, errors.Is(err, errors.CodeNotFound))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Type)
	assert.Equal(t, "/v0/"+testBase+"/Meal_Plans/recMissing", fake.seen()[0].Path)
}

func TestRecordStore_MissingTableIsRemote(t *testing.T) {
	store, fake, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		writeJSON(w, http.StatusNotFound, `{"error":{"type":"TABLE_NOT_FOUND","message":"Could not find table Shopping_Lists"}}`)
	})
	ctx := context.Background()

	_, err := store.Create(ctx, "Shopping_Lists", outbound.Fields{"List Name": "x"})
	assert.True(t, errors.Is(err, errors.CodeExternalServiceError))
	assert.False(t, errors.Is(err, errors.CodeNotFound))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "TABLE_NOT_FOUND", apiErr.Type)

	_, err = store.CreateBatch(ctx, "Shopping_List_Items", make([]outbound.Fields, 3))
	assert.True(t, errors.Is(err, errors.CodeExternalServiceError))
	assert.False(t, errors.Is(err, errors.CodeNotFound))

	_, err = store.ListAll(ctx, "Shopping_Lists", nil)
	assert.True(t, errors.Is(err, errors.CodeExternalServiceError))

	assert.Len(t, fake.seen(), 3)
}

func TestRecordStore_ServerErrorIsRemote(t *testing.T) {
	store, _, observer := newTestStore(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		writeJSON(w, http.StatusInternalServerError, `not json`)
	})

	_, err := store.ListAll(context.Background(), "Recipes", nil)

	assert.True(t, errors.Is(err, errors.CodeExternalServiceError))
	assert.Equal(t, 1, observer.calls["list:500"])
}

func TestRecordStore_UpdateAndDelete(t *testing.T) {
	store, fake, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		switch r.Method {
		case http.MethodPatch:
			writeJSON(w, http.StatusOK, `{"id":"recL","fields":{"Status":"Done","List Name":"x"}}`)
		default:
			writeJSON(w, http.StatusOK, `{"records":[]}`)
		}
	})
	ctx := context.Background()

	rec, err := store.Update(ctx, "Shopping_Lists", "recL", outbound.Fields{"Status": "Done"})
	require.NoError(t, err)
	assert.Equal(t, "Done", rec.Fields.String("Status"))

	require.NoError(t, store.Delete(ctx, "Shopping_Lists", "recL"))

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("rec%02d", i)
	}
	require.NoError(t, store.DeleteBatch(ctx, "Shopping_List_Items", ids))

	reqs := fake.seen()
	require.Len(t, reqs, 4)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.Equal(t, "/v0/"+testBase+"/Shopping_Lists/recL", reqs[1].Path)
	assert.Equal(t, http.MethodDelete, reqs[2].Method)
	assert.Len(t, reqs[2].Query["records[]"], 10)
	assert.Equal(t, []string{"rec10", "rec11"}, reqs[3].Query["records[]"])
}

func TestRecordStore_TestConnectivity(t *testing.T) {
	healthy, fake, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		writeJSON(w, http.StatusOK, `{"records":[]}`)
	})
	assert.True(t, healthy.TestConnectivity(context.Background()))
	assert.Equal(t, "/v0/"+testBase+"/Recipes", fake.seen()[0].Path)
	assert.Equal(t, []string{"1"}, fake.seen()[0].Query["maxRecords"])

	unauthorized, _, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		writeJSON(w, http.StatusUnauthorized, `{"error":{"type":"AUTHENTICATION_REQUIRED","message":"Authentication required"}}`)
	})
	assert.False(t, unauthorized.TestConnectivity(context.Background()))
}

func TestParseAPIError(t *testing.T) {
	plain := parseAPIError(http.StatusNotFound, []byte(`{"error":"NOT_FOUND"}`))
	assert.Equal(t, "NOT_FOUND", plain.Type)
	assert.Empty(t, plain.Message)

	detailed := parseAPIError(http.StatusForbidden, []byte(`{"error":{"type":"INVALID_PERMISSIONS","message":"nope"}}`))
	assert.Equal(t, "INVALID_PERMISSIONS", detailed.Type)
	assert.Equal(t, "nope", detailed.Message)
	assert.Contains(t, detailed.Error(), "403")

	garbage := parseAPIError(http.StatusBadGateway, []byte(`<html>`))
	assert.Equal(t, "Bad Gateway", garbage.Type)
}
