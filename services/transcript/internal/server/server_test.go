package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"transcriptvault/pkg/domain"
	"transcriptvault/pkg/storage"
	"transcriptvault/pkg/store"
	"transcriptvault/services/transcript/internal/app"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	appCore, err := app.New(app.Config{
		Index:         store.NewMemoryIndex(),
		Blobs:         storage.NewMemoryStore(),
		BlobKeyPrefix: "transcripts",
	})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	return New(Config{App: appCore})
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func uploadBody(sourceID string) map[string]any {
	return map[string]any{
		"content": "hello",
		"metadata": map[string]any{
			"sourceId": sourceID,
			"title":    "Standup",
			"date":     "2023-04-15",
			"speakers": []string{"Ada"},
			"format":   "json",
		},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadCreatesVersion(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/transcripts", uploadBody("s1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res domain.UploadResult
	decode(t, rec, &res)
	if res.Metadata.Version != 1 || res.StorageKey == "" || res.Location == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	rec = doJSON(t, s, http.MethodPost, "/transcripts", uploadBody("s1"))
	decode(t, rec, &res)
	if res.Metadata.Version != 2 {
		t.Fatalf("second upload version = %d, want 2", res.Metadata.Version)
	}
}

func TestUploadGeneratesSourceIDWhenAbsent(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/transcripts", uploadBody(""))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res domain.UploadResult
	decode(t, rec, &res)
	if res.Metadata.SourceID == "" {
		t.Fatalf("sourceId was not generated")
	}
}

func TestUploadValidationMapsTo400(t *testing.T) {
	s := newTestServer(t)
	body := uploadBody("s1")
	body["metadata"].(map[string]any)["format"] = "pdf"
	rec := doJSON(t, s, http.MethodPost, "/transcripts", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetLatestAndExactVersion(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/transcripts", uploadBody("s1"))
	doJSON(t, s, http.MethodPost, "/transcripts", uploadBody("s1"))

	rec := doJSON(t, s, http.MethodGet, "/transcripts/s1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var tr domain.Transcript
	decode(t, rec, &tr)
	if tr.Metadata.Version != 2 || tr.Content != "hello" {
		t.Fatalf("latest = %+v", tr)
	}

	rec = doJSON(t, s, http.MethodGet, "/transcripts/s1/versions/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	decode(t, rec, &tr)
	if tr.Metadata.Version != 1 {
		t.Fatalf("exact version = %+v", tr.Metadata)
	}

	if rec := doJSON(t, s, http.MethodGet, "/transcripts/absent", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("absent lineage status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/transcripts/s1/versions/9", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("absent version status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/transcripts/s1/versions/one", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-integer version status = %d, want 400", rec.Code)
	}
}

func TestListVersionsEndpoint(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/transcripts", uploadBody("s1"))
	doJSON(t, s, http.MethodPost, "/transcripts", uploadBody("s1"))

	rec := doJSON(t, s, http.MethodGet, "/transcripts/s1/versions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var entries []domain.VersionEntry
	decode(t, rec, &entries)
	if len(entries) != 2 || entries[0].Metadata.Version != 2 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestListAndSearchEndpoints(t *testing.T) {
	s := newTestServer(t)
	for i := 1; i <= 3; i++ {
		doJSON(t, s, http.MethodPost, "/transcripts", uploadBody(fmt.Sprintf("s%d", i)))
	}

	rec := doJSON(t, s, http.MethodGet, "/transcripts?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var page domain.Page
	decode(t, rec, &page)
	if len(page.Items) != 2 || page.Total != 3 {
		t.Fatalf("page = %d items, total %d", len(page.Items), page.Total)
	}

	if rec := doJSON(t, s, http.MethodGet, "/transcripts?limit=abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/transcripts/search?speaker=Ada&title=standup", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	decode(t, rec, &page)
	if page.Total != 3 {
		t.Fatalf("search total = %d, want 3", page.Total)
	}

	rec = doJSON(t, s, http.MethodGet, "/transcripts/search?speaker=Nobody", nil)
	decode(t, rec, &page)
	if len(page.Items) != 0 || page.Total != 0 {
		t.Fatalf("empty search = %+v", page)
	}

	if rec := doJSON(t, s, http.MethodGet, "/transcripts/search?dateFrom=2023-06-30&dateTo=2023-06-01", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted range status = %d, want 400", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/transcripts", uploadBody("s1"))

	rec := doJSON(t, s, http.MethodPatch, "/transcripts/s1/versions/1/status", map[string]string{"status": "processed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var meta domain.Metadata
	decode(t, rec, &meta)
	if meta.ProcessingStatus != domain.StatusProcessed || meta.ProcessingCompletedAt == nil {
		t.Fatalf("meta = %+v", meta)
	}

	if rec := doJSON(t, s, http.MethodPatch, "/transcripts/s1/versions/1/status", map[string]string{"status": "done"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status code = %d, want 400", rec.Code)
	}
}

func TestDeleteEndpoints(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/transcripts", uploadBody("s1"))
	doJSON(t, s, http.MethodPost, "/transcripts", uploadBody("s1"))

	if rec := doJSON(t, s, http.MethodDelete, "/transcripts/s1/versions/1", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete version status = %d, want 204", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/transcripts/s1/versions/1", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted version status = %d, want 404", rec.Code)
	}

	if rec := doJSON(t, s, http.MethodDelete, "/transcripts/s1", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete lineage status = %d, want 204", rec.Code)
	}
	// Deleting again is still a success.
	if rec := doJSON(t, s, http.MethodDelete, "/transcripts/s1", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("repeat delete status = %d, want 204", rec.Code)
	}
}
