// handlers.go - API handlers.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/xob0t/namecard/pkg/compositor"
	"github.com/xob0t/namecard/pkg/template"
)

const (
	maxJSONBytes   = 1 << 20
	maxUploadBytes = 10 << 20
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type validateResponse struct {
	Warnings []template.Warning `json:"warnings"`
	Request  compositor.Request `json:"request"`
}

// ── Render / export ──

// decodeData reads an optional data.json body. An empty body means defaults.
func decodeData(w http.ResponseWriter, r *http.Request) (*template.DataSpec, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var data template.DataSpec
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// checkSource refuses client-supplied sources outside what the server may read.
func (s *Server) checkSource(w http.ResponseWriter, data *template.DataSpec) bool {
	if s.source == nil || data == nil || data.Source == nil {
		return true
	}
	if err := s.source.Allowed(*data.Source); err != nil {
		writeAPIError(w, http.StatusForbidden, "source_not_allowed", err.Error())
		return false
	}
	return true
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	data, err := decodeData(w, r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !s.checkSource(w, data) {
		return
	}

	surface, _, err := s.renderer.Render(r.Context(), data)
	if err != nil {
		// The placeholder frame is still a valid preview.
		s.log.Warn("render fell back to placeholder", "err", err)
	}

	art, err := compositor.Export(surface, "", "")
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "encode_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Card-Origin", surface.Origin.String())
	_, _ = w.Write(art.Data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := decodeData(w, r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if !s.checkSource(w, data) {
		return
	}

	art, _, err := s.renderer.Export(r.Context(), data)
	switch {
	case errors.Is(err, compositor.ErrImageLoad):
		writeAPIError(w, http.StatusBadGateway, "image_load_failed", err.Error())
		return
	case err != nil:
		writeAPIError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.FileName}))
	_, _ = w.Write(art.Data)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	data, err := decodeData(w, r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	warnings := template.ValidateData(data, s.renderer.Preset())
	if warnings == nil {
		warnings = []template.Warning{}
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Warnings: warnings,
		Request:  s.renderer.Request(data),
	})
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.renderer.Preset())
}

// ── Upload ──

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_upload", "no file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}
	mimeType, ok := sniffImage(data)
	if !ok {
		writeAPIError(w, http.StatusUnsupportedMediaType, "not_an_image", "uploaded file is not a supported image")
		return
	}

	name := filepath.Base(header.Filename)
	id := s.assets.add(name, data, mimeType)
	a, _ := s.assets.get(id)
	s.log.Info("asset uploaded", "id", id, "name", name, "mime", mimeType, "size", len(data))
	writeJSON(w, http.StatusCreated, info(id, a))
}

// ── Asset serving ──

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assets.get(r.PathValue("id"))
	if !ok {
		writeAPIError(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	w.Header().Set("Content-Type", a.Mime)
	_, _ = w.Write(a.Data)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.assets.listAll())
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.assets.remove(id) {
		writeAPIError(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	if s.cache != nil {
		s.cache.Invalidate(assetLocator(id))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ── Helpers ──

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
