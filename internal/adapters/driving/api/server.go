// Package api exposes the ingest and query services over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
	"github.com/quarrylabs/quarry/internal/logger"
)

// maxUploadBytes caps a single multipart ingest request.
const maxUploadBytes = 256 << 20

// Server handles HTTP requests for the retrieval pipeline.
type Server struct {
	ingest driving.IngestService
	query  driving.QueryService
	ledger driven.DocumentLedger
	index  driven.VectorIndex

	httpServer *http.Server
}

// NewServer creates an HTTP server bound to addr.
func NewServer(addr string, ingest driving.IngestService, query driving.QueryService,
	ledger driven.DocumentLedger, index driven.VectorIndex) *Server {
	s := &Server{
		ingest: ingest,
		query:  query,
		ledger: ledger,
		index:  index,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /ingest/pdfs", s.handleIngest)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /documents", s.handleDocuments)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	logger.Info("http server listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the HTTP handler, useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type healthResponse struct {
	Status     string `json:"status"`
	IndexCount int    `json:"index_count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	count := 0
	if s.index != nil {
		count = s.index.Count()
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", IndexCount: count})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	report := domain.IngestReport{TotalFiles: len(files)}
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			report.Results = append(report.Results, domain.IngestResult{
				File:   header.Filename,
				Status: domain.IngestStatusFailed,
				Reason: err.Error(),
			})
			continue
		}
		result := s.ingest.IngestDocument(r.Context(), header.Filename, f)
		f.Close()
		report.Results = append(report.Results, result)
	}

	writeJSON(w, http.StatusOK, report)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	answer, err := s.query.Answer(r.Context(), req.Query)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrExternalService):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			logger.Warn("query failed: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

type documentsResponse struct {
	Documents []domain.DocumentRecord `json:"documents"`
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeJSON(w, http.StatusOK, documentsResponse{})
		return
	}
	records, err := s.ledger.List(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing documents failed")
		return
	}
	writeJSON(w, http.StatusOK, documentsResponse{Documents: records})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
