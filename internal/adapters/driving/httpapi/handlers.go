package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// GenerationFailedMessage is returned when no answer could be generated.
const GenerationFailedMessage = "Gagal memproses permintaan"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.ports.Health.Check(r.Context())

	code := http.StatusOK
	if report.Status == driving.StatusDown {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status: report.Status,
		Details: map[string]string{
			"db":        report.DB,
			"rag":       report.RAG,
			"embedding": report.Embedding,
			"llm":       report.LLM,
		},
		Chunks: report.Chunks,
		Errors: report.Errors,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	filters := domain.Filters{Region: domain.DefaultRegion}
	if req.Region != nil {
		filters.Region = *req.Region
	}
	if req.PermitType != nil && *req.PermitType != "" {
		if !domain.PermitType(*req.PermitType).IsValid() {
			jsonError(w, fmt.Sprintf("unknown permit_type %q", *req.PermitType), http.StatusBadRequest)
			return
		}
		filters.PermitType = *req.PermitType
	}

	answer, err := s.ports.Answer.Answer(r.Context(), domain.Question{Text: req.Question, Filters: filters})
	if err != nil {
		s.log.Error("answer failed", "user_id", req.UserID, "error", err)
		jsonError(w, GenerationFailedMessage, http.StatusInternalServerError)
		return
	}

	s.log.Info("answered",
		"user_id", req.UserID,
		"state", answer.State.String(),
		"citations", len(answer.Citations),
	)
	writeJSON(w, http.StatusOK, NewAnswerResponse(answer))
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Sources) == 0 {
		jsonError(w, "sources must not be empty", http.StatusBadRequest)
		return
	}

	uploadedBy := r.Header.Get(UserHeader)
	specs := make([]domain.SourceSpec, len(req.Sources))
	for i, src := range req.Sources {
		specs[i] = src.Spec(uploadedBy)
	}

	results := s.ports.Ingestion.UpsertBatch(r.Context(), specs)

	resp := UpsertResponse{Results: make([]UpsertResult, len(results))}
	for i, res := range results {
		resp.Results[i] = UpsertResult{
			URL:         res.URL,
			DocumentID:  res.DocumentID,
			ChunkCount:  res.ChunkCount,
			ContentHash: res.ContentHash,
			Created:     res.Created,
		}
		if res.Err != nil {
			resp.Results[i].Error = res.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ports.Documents.List(r.Context())
	if err != nil {
		s.log.Error("list documents", "error", err)
		jsonError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}

	out := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = newDocumentResponse(d.Document, d.ChunkCount)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	details, err := s.ports.Documents.GetDetails(r.Context(), docParam(r))
	if err != nil {
		s.documentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDocumentDetailsResponse(details))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Documents.Delete(r.Context(), docParam(r)); err != nil {
		s.documentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) documentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		jsonError(w, "document not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("document request", "error", err)
		jsonError(w, "document request failed", http.StatusInternalServerError)
	}
}

// docParam returns the document ID or escaped URL from the path.
func docParam(r *http.Request) string {
	raw := chi.URLParam(r, "docID")
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// decodeJSON decodes a bounded JSON body, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
