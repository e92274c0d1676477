package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-cli/internal/checkpoint"
	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/internal/report"
)

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	h := buildRouter(savedStore(t, &checkpoint.Snapshot{}), []string{"*"}, false)

	rr := serve(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Metrics(t *testing.T) {
	h := buildRouter(savedStore(t, &checkpoint.Snapshot{}), nil, false)
	rr := serve(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestRouter_Stages(t *testing.T) {
	snap := &checkpoint.Snapshot{
		Context:        checkpoint.Some(testContext()),
		KeywordRecords: checkpoint.Some([]model.KeywordRecord{{Keyword: "a"}, {Keyword: "b"}}),
	}
	h := buildRouter(savedStore(t, snap), []string{"*"}, false)

	rr := serve(t, h, http.MethodGet, "/v1/stages")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Stages []stageInfo `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Stages, 5)
	assert.Equal(t, stageInfo{Stage: "context", Present: true, Items: 1}, body.Stages[0])
	assert.Equal(t, stageInfo{Stage: "keywordRecords", Present: true, Items: 2}, body.Stages[1])
	assert.False(t, body.Stages[4].Present)
}

func TestRouter_Visibility(t *testing.T) {
	h := buildRouter(savedStore(t, completeSnapshot()), []string{"*"}, true)

	rr := serve(t, h, http.MethodGet, "/v1/visibility")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Brand     model.BrandInfo  `json:"brand"`
		Summaries []report.Summary `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "kidsandus.es", body.Brand.Domain)
	require.Len(t, body.Summaries, 3)
	assert.Equal(t, report.AllProviders, body.Summaries[0].Provider)
	assert.Equal(t, "EF", body.Summaries[0].Stats[0].Name)
	assert.Equal(t, 2, body.Summaries[0].Stats[0].Answer)

	rr = serve(t, h, http.MethodGet, "/v1/visibility?provider=gemini")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Summaries, 1)
	assert.Equal(t, 1, body.Summaries[0].Rows)

	rr = serve(t, h, http.MethodGet, "/v1/visibility?provider=jina")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_VisibilityBeforeAuditCompletes(t *testing.T) {
	snap := completeSnapshot()
	snap.EnrichedAudit = checkpoint.Stage[[]model.EnrichedAuditRow]{}
	h := buildRouter(savedStore(t, snap), nil, false)

	rr := serve(t, h, http.MethodGet, "/v1/visibility")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "not complete")
}

func TestRouter_CorruptCheckpoint(t *testing.T) {
	st := savedStore(t, &checkpoint.Snapshot{})
	require.NoError(t, writeFile(st.Path(), `[]`))
	h := buildRouter(st, nil, false)

	rr := serve(t, h, http.MethodGet, "/v1/stages")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := buildRouter(savedStore(t, &checkpoint.Snapshot{}), nil, false)
	rr := serve(t, h, http.MethodPost, "/v1/stages")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
