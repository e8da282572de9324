package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MaksimPopov64/ocr-drw/constants"
	"github.com/MaksimPopov64/ocr-drw/internal/common"
	"github.com/MaksimPopov64/ocr-drw/internal/pipeline"
)

type healthResponse struct {
	Status          string `json:"status"`
	SecondaryEngine string `json:"secondary_engine"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", SecondaryEngine: "unavailable"}
	if s.secondaryReady != nil && s.secondaryReady(r.Context()) {
		resp.SecondaryEngine = "ready"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleCheck runs one document through the pipeline. The request is
// multipart form data: a "file" part plus an optional "expected_claim" field.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.readUpload(r, "file")
	if err != nil {
		s.writeError(w, err)
		return
	}
	req := pipeline.Request{
		FileName:      name,
		Image:         data,
		ExpectedClaim: r.FormValue("expected_claim"),
	}

	rec := s.runner.Process(r.Context(), req)
	s.persist(r, rec)

	status := http.StatusOK
	if rec.RunStatus == constants.RunStatusFailed {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, rec)
}

type batchResponse struct {
	Results []pipeline.Record `json:"results"`
}

// handleBatch accepts several "files" parts and runs them on a bounded
// worker pool. Order of results follows the order of the parts.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		s.writeError(w, common.NewAppError("BAD_REQUEST", "malformed multipart body", common.ErrInvalidInput))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(w, common.NewAppError("BAD_REQUEST", "no files provided", common.ErrInvalidInput))
		return
	}
	expected := r.FormValue("expected_claim")

	results := make([]pipeline.Record, len(headers))
	workers := runtime.NumCPU()
	if workers > len(headers) {
		workers = len(headers)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.runOne(r, headers[i], expected)
			}
		}()
	}
	for i := range headers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, rec := range results {
		s.persist(r, rec)
	}
	s.writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

func (s *Server) runOne(r *http.Request, fh *multipart.FileHeader, expected string) pipeline.Record {
	data, err := readPart(fh)
	if err != nil {
		return pipeline.Record{
			FileName:   fh.Filename,
			RunStatus:  constants.RunStatusFailed,
			Error:      err.Error(),
			StartedAt:  time.Now(),
			FinishedAt: time.Now(),
		}
	}
	return s.runner.Process(r.Context(), pipeline.Request{
		FileName:      fh.Filename,
		Image:         data,
		ExpectedClaim: expected,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	recs, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recs == nil {
		recs = []pipeline.Record{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": recs})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.ExportHistoryXLSX(r.Context())
	if err != nil {
		s.writeError(w, common.NewAppError("EXPORT", err.Error(), common.ErrInternal))
		return
	}
	name := "results-" + time.Now().Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readUpload pulls one validated file out of the multipart form.
func (s *Server) readUpload(r *http.Request, field string) ([]byte, string, error) {
	if err := r.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		return nil, "", common.NewAppError("BAD_REQUEST", "malformed multipart body", common.ErrInvalidInput)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", common.NewAppError("BAD_REQUEST", fmt.Sprintf("missing %q part", field), common.ErrInvalidInput)
	}
	defer file.Close()

	if !constants.IsAllowedExt(filepath.Ext(header.Filename)) {
		return nil, "", common.NewAppError("BAD_REQUEST",
			fmt.Sprintf("unsupported file type %q", header.Filename), common.ErrInvalidInput)
	}
	data, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadBytes+1))
	if err != nil {
		return nil, "", common.NewAppError("READ", "read upload", err)
	}
	if len(data) > constants.MaxUploadBytes {
		return nil, "", common.NewAppError("BAD_REQUEST", "file too large", common.ErrInvalidInput)
	}
	return data, header.Filename, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	if !constants.IsAllowedExt(filepath.Ext(fh.Filename)) {
		return nil, common.NewAppError("BAD_REQUEST",
			fmt.Sprintf("unsupported file type %q", fh.Filename), common.ErrInvalidInput)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, constants.MaxUploadBytes+1))
}

func (s *Server) persist(r *http.Request, rec pipeline.Record) {
	if s.store == nil || rec.ID == "" {
		return
	}
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.logger.Error("server.history.save_failed", "run_id", rec.ID, "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("server.write_response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
