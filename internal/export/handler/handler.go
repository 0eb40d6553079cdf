// Package handler exposes report export and download over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	analyzer "ledgertrace/internal/analyzer/service"
	"ledgertrace/internal/export/service"
	"ledgertrace/pkg/platform/httputil"
	"ledgertrace/pkg/requestcontext"
)

// Service defines the export operations the handler needs.
type Service interface {
	Export(ctx context.Context, req service.ExportRequest) (*service.ExportResult, error)
	FilePath(filename string) (string, error)
	ListExports() ([]service.ExportFile, error)
}

// Handler wires export endpoints to the export service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an export handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts export endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/export", h.HandleExport)
	r.Get("/exports", h.HandleList)
	r.Get("/exports/{filename}", h.HandleDownload)
}

// ExportRequest is the wire form of an export call.
type ExportRequest struct {
	Entity   EntityInput `json:"entity"`
	Sections []string    `json:"include_sections,omitempty"`
}

// EntityInput is the wire form of the entity under analysis.
type EntityInput struct {
	Name     string   `json:"name"`
	EIN      string   `json:"ein,omitempty"`
	Address  string   `json:"address,omitempty"`
	County   string   `json:"county,omitempty"`
	Officers []string `json:"officers,omitempty"`
}

// HandleExport handles POST /export requests.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeJSON[ExportRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Export(ctx, service.ExportRequest{
		Entity: analyzer.AnalyzeRequest{
			Name:     req.Entity.Name,
			EIN:      req.Entity.EIN,
			Address:  req.Entity.Address,
			County:   req.Entity.County,
			Officers: req.Entity.Officers,
		},
		Sections: req.Sections,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "export failed",
			"request_id", requestID,
			"entity", req.Entity.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "export served",
		"request_id", requestID,
		"entity", req.Entity.Name,
		"file", result.FileName,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleList handles GET /exports requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	exports, err := h.service.ListExports()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "export listing failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"exports": exports})
}

// HandleDownload handles GET /exports/{filename} requests.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.service.FilePath(filename)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, path)
}
