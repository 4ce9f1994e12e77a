package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/screener"
	"github.com/marketlens/screener/pkg/logger"
)

// fakeService records the last call and returns canned results.
type fakeService struct {
	stored  contracts.StoredRange
	matches []contracts.MatchRecord
	err     error

	lastAttribute string
	lastCriterion contracts.Criterion
	lastCategory  string
	lastIncluded  bool
}

func (f *fakeService) ResolveAndStore(ctx context.Context, ownerID, name, attribute, period string, lo, hi *float64) (contracts.StoredRange, error) {
	f.lastAttribute = attribute
	return f.stored, f.err
}

func (f *fakeService) SetCriterion(ctx context.Context, ownerID, name, attribute string, c contracts.Criterion) error {
	f.lastAttribute = attribute
	f.lastCriterion = c
	return f.err
}

func (f *fakeService) ListMatches(ctx context.Context, ownerID, name string) ([]contracts.MatchRecord, error) {
	return f.matches, f.err
}

func (f *fakeService) ListCombinedMatches(ctx context.Context, ownerID string) ([]contracts.MatchRecord, error) {
	return f.matches, f.err
}

func (f *fakeService) ResetCategory(ctx context.Context, ownerID, name, category string) error {
	f.lastCategory = category
	return f.err
}

func (f *fakeService) ResetAll(ctx context.Context, ownerID, name string) error {
	return f.err
}

func (f *fakeService) SetIncluded(ctx context.Context, ownerID, name string, included bool) error {
	f.lastIncluded = included
	return f.err
}

func newRequest(t *testing.T, method, target string, body interface{}, vars map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("X-User-ID", "u1")
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func TestResolveBounds(t *testing.T) {
	svc := &fakeService{stored: contracts.StoredRange{Attribute: "pe", Lo: 1, Hi: 30}}
	h := NewScreenerHandler(svc, logger.NewNop())

	req := newRequest(t, "POST", "/api/screeners/value/bounds",
		BoundsRequest{Attribute: "pe", Lo: nil, Hi: nil},
		map[string]string{"name": "value"})
	w := httptest.NewRecorder()
	h.ResolveBounds(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "pe", svc.lastAttribute)
}

func TestResolveBoundsMissingUser(t *testing.T) {
	h := NewScreenerHandler(&fakeService{}, logger.NewNop())

	req := newRequest(t, "POST", "/api/screeners/value/bounds",
		BoundsRequest{Attribute: "pe"}, map[string]string{"name": "value"})
	req.Header.Del("X-User-ID")
	w := httptest.NewRecorder()
	h.ResolveBounds(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveBoundsValidation(t *testing.T) {
	h := NewScreenerHandler(&fakeService{}, logger.NewNop())

	// Attribute is required.
	req := newRequest(t, "POST", "/api/screeners/value/bounds",
		BoundsRequest{}, map[string]string{"name": "value"})
	w := httptest.NewRecorder()
	h.ResolveBounds(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Period vocabulary is closed.
	req = newRequest(t, "POST", "/api/screeners/value/bounds",
		BoundsRequest{Attribute: "performance", Period: "2W"},
		map[string]string{"name": "value"})
	w = httptest.NewRecorder()
	h.ResolveBounds(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{screener.ErrSetNotFound, http.StatusNotFound},
		{screener.ErrInvalidRange, http.StatusBadRequest},
		{screener.ErrUnknownAttribute, http.StatusBadRequest},
		{screener.ErrUnknownCategory, http.StatusBadRequest},
		{screener.ErrNoData, http.StatusUnprocessableEntity},
		{screener.ErrCorpusUnavailable, http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		svc := &fakeService{err: tt.err}
		h := NewScreenerHandler(svc, logger.NewNop())

		req := newRequest(t, "GET", "/api/screeners/value/matches", nil,
			map[string]string{"name": "value"})
		w := httptest.NewRecorder()
		h.ListMatches(w, req)

		assert.Equal(t, tt.want, w.Code, tt.err.Error())
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
	}
}

func TestSetCriterion(t *testing.T) {
	svc := &fakeService{}
	h := NewScreenerHandler(svc, logger.NewNop())

	req := newRequest(t, "PUT", "/api/screeners/tech/criteria/sector",
		CriterionRequest{Values: []string{"Technology"}},
		map[string]string{"name": "tech", "attribute": "sector"})
	w := httptest.NewRecorder()
	h.SetCriterion(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sector", svc.lastAttribute)
	assert.Equal(t, []string{"Technology"}, svc.lastCriterion.Values)
}

func TestListMatches(t *testing.T) {
	svc := &fakeService{matches: []contracts.MatchRecord{
		{Symbol: "AAA", Price: contracts.N(10)},
		{Symbol: "BBB", Price: contracts.N(20)},
	}}
	h := NewScreenerHandler(svc, logger.NewNop())

	req := newRequest(t, "GET", "/api/screeners/cheap/matches", nil,
		map[string]string{"name": "cheap"})
	w := httptest.NewRecorder()
	h.ListMatches(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["count"])
}

func TestResetCategory(t *testing.T) {
	svc := &fakeService{}
	h := NewScreenerHandler(svc, logger.NewNop())

	req := newRequest(t, "POST", "/api/screeners/value/reset",
		ResetRequest{Category: "FundGrowth"}, map[string]string{"name": "value"})
	w := httptest.NewRecorder()
	h.ResetCategory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FundGrowth", svc.lastCategory)

	// Category is required.
	req = newRequest(t, "POST", "/api/screeners/value/reset",
		ResetRequest{}, map[string]string{"name": "value"})
	w = httptest.NewRecorder()
	h.ResetCategory(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetIncluded(t *testing.T) {
	svc := &fakeService{}
	h := NewScreenerHandler(svc, logger.NewNop())

	included := false
	req := newRequest(t, "PATCH", "/api/screeners/value/included",
		IncludedRequest{Included: &included}, map[string]string{"name": "value"})
	w := httptest.NewRecorder()
	h.SetIncluded(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, svc.lastIncluded)

	// The flag itself is required; an empty body is not "false".
	req = newRequest(t, "PATCH", "/api/screeners/value/included",
		IncludedRequest{}, map[string]string{"name": "value"})
	w = httptest.NewRecorder()
	h.SetIncluded(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAttributes(t *testing.T) {
	h := NewScreenerHandler(&fakeService{}, logger.NewNop())

	req := httptest.NewRequest("GET", "/api/attributes", nil)
	w := httptest.NewRecorder()
	h.ListAttributes(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool            `json:"success"`
		Data    []attributeInfo `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, len(screener.Attributes()), len(body.Data))

	byName := make(map[string]attributeInfo)
	for _, info := range body.Data {
		byName[info.Name] = info
	}
	assert.Equal(t, "categorical", byName["sector"].Kind)
	assert.Len(t, byName["performance"].Periods, 7)
	assert.Len(t, byName["ma200"].Positions, 6)
}
