/**
 * HTTP API for the MRZ scanner
 *
 * Endpoints:
 *   GET  /health       - liveness, no auth
 *   POST /scan         - multipart upload, synchronous scan
 *   POST /scan/base64  - base64 JSON body, synchronous scan
 *   POST /scan/async   - base64 JSON body, enqueue and return a job ID
 *   GET  /jobs/{id}    - async job status/result
 *
 * Authentication and rate limiting are optional: they activate only
 * when API keys are configured.
 */

package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/veridoc/mrzscan/internal/config"
	apperrors "github.com/veridoc/mrzscan/internal/errors"
	"github.com/veridoc/mrzscan/internal/logging"
	"github.com/veridoc/mrzscan/internal/queue"
	"github.com/veridoc/mrzscan/internal/scanner"
	"github.com/veridoc/mrzscan/internal/search"
)

// ScanRunner runs one synchronous scan. *scanner.Scanner implements
// it; tests substitute stubs.
type ScanRunner interface {
	Scan(ctx context.Context, req *scanner.Request) (*search.Result, error)
}

// Server is the HTTP API front end.
type Server struct {
	cfg      *config.Config
	scanner  ScanRunner
	enqueuer *queue.Enqueuer
	status   *queue.StatusStore
	auth     *authenticator
	log      *logging.Logger
}

// NewServer wires the API. enqueuer and status may be nil; the async
// endpoints then answer 503.
func NewServer(cfg *config.Config, sc ScanRunner, enqueuer *queue.Enqueuer, status *queue.StatusStore, log *logging.Logger) *Server {
	if log == nil {
		log = logging.NewLogger("server")
	}
	return &Server{
		cfg:      cfg,
		scanner:  sc,
		enqueuer: enqueuer,
		status:   status,
		auth:     newAuthenticator(cfg.APIKeys, cfg.RateLimitPerHour),
		log:      log,
	}
}

// Handler builds the routing table with auth and rate limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /scan", s.handleScanUpload)
	mux.HandleFunc("POST /scan/base64", s.handleScanBase64)
	mux.HandleFunc("POST /scan/async", s.handleScanAsync)
	mux.HandleFunc("GET /jobs/{id}", s.handleJobStatus)
	return s.auth.middleware(mux)
}

// ListenAndServe runs the API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP API listening", "addr", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "mrz-scanner-api",
	})
}

// scanRequest is the JSON body shared by the base64 and async
// endpoints. Per-request options override process-wide defaults.
type scanRequest struct {
	File          string `json:"file"`
	Filename      string `json:"filename"`
	StartPage     int    `json:"start_page,omitempty"`
	StartPageOnly bool   `json:"start_page_only,omitempty"`
	MaxPages      int    `json:"max_pages,omitempty"`
}

func (s *Server) handleScanBase64(w http.ResponseWriter, r *http.Request) {
	req, data, ok := s.decodeScanRequest(w, r)
	if !ok {
		return
	}
	s.runScan(w, r, &scanner.Request{
		Filename:      req.Filename,
		Data:          data,
		StartPage:     req.StartPage,
		StartPageOnly: req.StartPageOnly,
		MaxPages:      req.MaxPages,
	})
}

func (s *Server) handleScanUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSize); err != nil {
		writeMessage(w, http.StatusBadRequest, scanner.StatusError, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, scanner.StatusError, "Missing 'file' form field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, scanner.StatusError, "Failed to read upload: "+err.Error())
		return
	}

	s.runScan(w, r, &scanner.Request{
		Filename:      header.Filename,
		Data:          data,
		StartPage:     formInt(r, "start_page"),
		StartPageOnly: formBool(r, "start_page_only"),
		MaxPages:      formInt(r, "max_pages"),
	})
}

func (s *Server) handleScanAsync(w http.ResponseWriter, r *http.Request) {
	if s.enqueuer == nil {
		writeMessage(w, http.StatusServiceUnavailable, scanner.StatusError, "Async scanning is not configured")
		return
	}

	req, data, ok := s.decodeScanRequest(w, r)
	if !ok {
		return
	}

	jobID, err := s.enqueuer.Enqueue(r.Context(), &queue.ScanJob{
		Filename:      req.Filename,
		FileData:      data,
		StartPage:     req.StartPage,
		StartPageOnly: req.StartPageOnly,
		MaxPages:      req.MaxPages,
	})
	if err != nil {
		s.log.Error("enqueue failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, scanner.StatusError, "Failed to enqueue scan job")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "queued",
		"job_id": jobID,
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeMessage(w, http.StatusServiceUnavailable, scanner.StatusError, "Async scanning is not configured")
		return
	}

	jobID := r.PathValue("id")
	status, found, err := s.status.Get(r.Context(), jobID)
	if err != nil {
		s.log.Error("job status lookup failed", "job", jobID, "error", err)
		writeMessage(w, http.StatusInternalServerError, scanner.StatusError, "Failed to look up job")
		return
	}
	if !found {
		writeMessage(w, http.StatusNotFound, scanner.StatusError, "Unknown or expired job ID")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":     status.JobID,
		"status":     status.Status,
		"filename":   status.Filename,
		"result":     status.Result,
		"updated_at": status.UpdatedAt,
	})
}

// decodeScanRequest parses and validates the shared JSON body.
func (s *Server) decodeScanRequest(w http.ResponseWriter, r *http.Request) (*scanRequest, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, scanner.StatusError, "Invalid JSON body: "+err.Error())
		return nil, nil, false
	}
	if req.File == "" {
		writeMessage(w, http.StatusBadRequest, scanner.StatusError, "Missing 'file' field (base64 encoded document)")
		return nil, nil, false
	}

	data, err := base64.StdEncoding.DecodeString(req.File)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, scanner.StatusError, "Field 'file' is not valid base64")
		return nil, nil, false
	}
	return &req, data, true
}

// runScan executes a synchronous scan and writes the result envelope.
func (s *Server) runScan(w http.ResponseWriter, r *http.Request, req *scanner.Request) {
	start := time.Now()
	result, err := s.scanner.Scan(r.Context(), req)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrorUnreadableDocument) {
			writeJSON(w, http.StatusBadRequest, scanner.ErrorEnvelope(err, time.Since(start).Seconds()))
			return
		}
		s.log.Error("scan failed", "filename", req.Filename, "error", err)
		writeJSON(w, http.StatusInternalServerError, scanner.ErrorEnvelope(err, time.Since(start).Seconds()))
		return
	}
	writeJSON(w, http.StatusOK, scanner.Envelope(result))
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, code int, status, message string) {
	writeJSON(w, code, map[string]interface{}{
		"status":  status,
		"message": message,
	})
}

func formInt(r *http.Request, field string) int {
	v, err := strconv.Atoi(r.FormValue(field))
	if err != nil {
		return 0
	}
	return v
}

func formBool(r *http.Request, field string) bool {
	v, err := strconv.ParseBool(r.FormValue(field))
	if err != nil {
		return false
	}
	return v
}
