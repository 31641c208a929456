package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"transcriptvault/internal/util"
	"transcriptvault/pkg/domain"
	"transcriptvault/pkg/engine"
	"transcriptvault/services/transcript/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	MaxUploadBytes int64
}

// Server exposes HTTP endpoints for the transcript service. It is a thin
// adapter: all storage semantics live in the engine.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 25 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/transcripts", s.handleTranscripts)
	s.mux.HandleFunc("/transcripts/search", s.handleSearch)
	s.mux.HandleFunc("/transcripts/", s.handleTranscriptPath)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleUpload(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type uploadRequest struct {
	Content  string          `json:"content"`
	Metadata domain.Metadata `json:"metadata"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	body := http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	// The engine never invents identifiers; new lineages get one here.
	if strings.TrimSpace(req.Metadata.SourceID) == "" {
		req.Metadata.SourceID = util.NewSourceID()
	}
	res, err := s.app.Engine.Upload(r.Context(), req.Content, req.Metadata)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := s.app.Engine.List(r.Context(), limit, offset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := domain.SearchQuery{
		Title:    r.URL.Query().Get("title"),
		Speaker:  r.URL.Query().Get("speaker"),
		Tag:      r.URL.Query().Get("tag"),
		DateFrom: r.URL.Query().Get("dateFrom"),
		DateTo:   r.URL.Query().Get("dateTo"),
		Status:   r.URL.Query().Get("status"),
		Limit:    limit,
		Offset:   offset,
	}
	page, err := s.app.Engine.Search(r.Context(), q)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleTranscriptPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/transcripts/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	sourceID := parts[0]
	if sourceID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case len(parts) == 1:
		s.handleLineage(w, r, sourceID)
	case len(parts) == 2 && parts[1] == "versions":
		s.handleVersions(w, r, sourceID)
	case len(parts) == 3 && parts[1] == "versions":
		s.handleVersion(w, r, sourceID, parts[2])
	case len(parts) == 4 && parts[1] == "versions" && parts[3] == "status":
		s.handleStatus(w, r, sourceID, parts[2])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request, sourceID string) {
	switch r.Method {
	case http.MethodGet:
		t, err := s.app.Engine.GetLatest(r.Context(), sourceID)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodDelete:
		if err := s.app.Engine.DeleteAll(r.Context(), sourceID); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request, sourceID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entries, err := s.app.Engine.ListVersions(r.Context(), sourceID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request, sourceID, rawVersion string) {
	version, err := strconv.Atoi(rawVersion)
	if err != nil {
		writeError(w, http.StatusBadRequest, "version must be an integer")
		return
	}
	switch r.Method {
	case http.MethodGet:
		t, err := s.app.Engine.Get(r.Context(), sourceID, version)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodDelete:
		if err := s.app.Engine.DeleteVersion(r.Context(), sourceID, version); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type statusRequest struct {
	Status domain.ProcessingStatus `json:"status"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, sourceID, rawVersion string) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	version, err := strconv.Atoi(rawVersion)
	if err != nil {
		writeError(w, http.StatusBadRequest, "version must be an integer")
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	meta, err := s.app.Engine.UpdateStatus(r.Context(), sourceID, version, req.Status)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch engine.KindOf(err) {
	case engine.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case engine.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case engine.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	case engine.KindUnavailable:
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
