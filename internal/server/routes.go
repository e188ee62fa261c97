package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"papercast/internal/auth"
	"papercast/internal/jobs"
)

// maxUploadBytes caps accepted PDF uploads at 50 MiB.
const maxUploadBytes = 50 << 20

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/ingest", s.withAuth(s.handleIngest))
	mux.HandleFunc("POST /api/generate/{job_id}", s.withAuth(s.handleGenerate))
	mux.HandleFunc("GET /api/generate/{job_id}/status", s.withAuth(s.handleStatus))
}

// identityKey is the context key for the resolved caller identity.
type identityKey struct{}

// withAuth resolves the bearer credential before the handler runs. Guest
// fallback happens inside the resolver; a hard failure means guests are
// disabled and the credential was missing or bad.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, err := s.resolver.Resolve(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, ident)
		next(w, r.WithContext(ctx))
	}
}

// identityFrom returns the resolved identity for the request, or the guest
// identity when the middleware did not run.
func identityFrom(ctx context.Context) auth.Identity {
	if ident, ok := ctx.Value(identityKey{}).(auth.Identity); ok {
		return ident
	}
	return auth.Guest
}

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Engine: "gemini"})
}

// IngestResponse reports the job id assigned to an uploaded document.
type IngestResponse struct {
	JobID    string `json:"job_id"`
	Filename string `json:"filename"`
}

// uploadMeta is the sidecar stored next to each uploaded PDF.
type uploadMeta struct {
	Filename  string `json:"filename"`
	VoicePair string `json:"voice_pair"`
	SubjectID string `json:"subject_id"`
}

// handleIngest accepts a multipart PDF upload, assigns a job id, and stores
// the file plus a metadata sidecar under the upload directory.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "A PDF file upload is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF uploads are supported")
		return
	}

	jobID := uuid.NewString()
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.logger.Error("creating upload dir", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not store upload")
		return
	}

	dst, err := os.Create(s.pdfPath(jobID))
	if err != nil {
		s.logger.Error("creating upload file", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not store upload")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		s.logger.Error("writing upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not store upload")
		return
	}

	voicePair := r.FormValue("voice_pair")
	if voicePair == "" {
		voicePair = s.voicePair
	}
	meta := uploadMeta{
		Filename:  header.Filename,
		VoicePair: voicePair,
		SubjectID: identityFrom(r.Context()).SubjectID,
	}
	if data, err := json.Marshal(meta); err == nil {
		if err := os.WriteFile(s.metaPath(jobID), data, 0o644); err != nil {
			s.logger.Warn("writing upload metadata", "job_id", jobID, "error", err)
		}
	}

	s.logger.Info("document ingested", "job_id", jobID,
		"filename", header.Filename, "subject", meta.SubjectID)
	writeJSON(w, http.StatusCreated, IngestResponse{JobID: jobID, Filename: header.Filename})
}

// handleGenerate enqueues the pipeline for an uploaded document. Enqueueing
// a job already in flight returns its current snapshot.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	pdfPath := s.pdfPath(jobID)

	if _, err := os.Stat(pdfPath); errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, "Upload a PDF first.")
		return
	}

	voicePair := s.voicePair
	if data, err := os.ReadFile(s.metaPath(jobID)); err == nil {
		var meta uploadMeta
		if json.Unmarshal(data, &meta) == nil && meta.VoicePair != "" {
			voicePair = meta.VoicePair
		}
	}

	rec, err := s.orchestrator.Enqueue(r.Context(), jobs.Request{
		JobID:     jobID,
		PDFPath:   pdfPath,
		VoicePair: voicePair,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleStatus returns the current job record snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.orchestrator.Poll(r.PathValue("job_id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found.")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) pdfPath(jobID string) string {
	return filepath.Join(s.uploadDir, jobID+".pdf")
}

func (s *Server) metaPath(jobID string) string {
	return filepath.Join(s.uploadDir, jobID+".meta.json")
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the JSON body for error replies.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
