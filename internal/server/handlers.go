// ABOUTME: HTTP handlers for uploads, stored reports and health checks
// ABOUTME: Multi-file uploads are analyzed in parallel, one report per file
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/mbakholdina/srt-drift-tracer/internal/analysis"
	"github.com/mbakholdina/srt-drift-tracer/internal/protocol"
	"github.com/mbakholdina/srt-drift-tracer/internal/version"
	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

const (
	formFiles       = "files"
	formLocalClock  = "local_clock"
	formRemoteClock = "remote_clock"

	// multipart parts beyond this size spill to temporary files
	multipartMemory = 32 << 20
)

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Reports int    `json:"reports"`
	Clients int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	clients := len(s.clients)
	s.clientsMu.RUnlock()

	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
		Reports: s.reports.Len(),
		Clients: clients,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderIndex(w, s.config.Name); err != nil {
		log.Errorf("Error rendering index: %v", err)
	}
}

// handleAnalyze accepts a multipart upload of one or more drift logs
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	local, err := parseClockField(r.FormValue(formLocalClock))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	remote, err := parseClockField(r.FormValue(formRemoteClock))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	files := r.MultipartForm.File[formFiles]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	reqs := make([]analysis.Request, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("open %s: %v", fh.Filename, err))
			return
		}
		req, err := analysis.ReadRequest(f, fh.Filename, local, remote)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		reqs = append(reqs, req)
	}

	log.WithFields(log.Fields{"files": len(reqs), "local": local, "remote": remote}).Info("Analyzing upload")
	reports := s.analyzer.AnalyzeAll(r.Context(), reqs)
	for _, report := range reports {
		if report.Err() == nil {
			s.publish(report, "", "upload")
		}
	}

	writeJSON(w, uploadStatus(reports), reports)
}

// uploadStatus is 200 when any file succeeded. When all failed it is 400 if
// every failure was caused by the input and 500 otherwise.
func uploadStatus(reports []*analysis.Report) int {
	status := http.StatusBadRequest
	for _, r := range reports {
		if r.Err() == nil {
			return http.StatusOK
		}
		if errorKind(r.Err()) == protocol.ErrorKindInternal {
			status = http.StatusInternalServerError
		}
	}
	return status
}

// reportSummary is a stored report without its figures
type reportSummary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	LocalClock  drift.Clock `json:"local_clock"`
	RemoteClock drift.Clock `json:"remote_clock"`
	CreatedAt   time.Time   `json:"created_at"`
	Rows        int         `json:"rows"`
	Wraps       int         `json:"wraps"`
	Windows     int         `json:"windows"`
	RateMsPerS  float64     `json:"rate_ms_per_s"`
	Warnings    int         `json:"warnings"`
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports := s.reports.List()
	out := make([]reportSummary, 0, len(reports))
	for _, rep := range reports {
		summary := reportSummary{
			ID:          rep.ID,
			Name:        rep.Name,
			LocalClock:  rep.LocalClock,
			RemoteClock: rep.RemoteClock,
			CreatedAt:   rep.CreatedAt,
			Rows:        rep.Rows,
			Wraps:       rep.Wraps,
			Windows:     rep.Windows,
			Warnings:    len(rep.Warnings),
		}
		if rep.Adjusted != nil {
			summary.RateMsPerS = rep.Adjusted.RateMsPerS
		}
		out = append(out, summary)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, ok := s.reports.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: status})
}
