// Package handler exposes the composite entity analysis over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ledgertrace/internal/analyzer/service"
	"ledgertrace/pkg/platform/httputil"
	"ledgertrace/pkg/requestcontext"
)

// Service defines the analysis operation the handler needs.
type Service interface {
	Analyze(ctx context.Context, req service.AnalyzeRequest) (*service.EntityReport, error)
}

// Handler wires the analyze endpoint to the analyzer service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an analyzer handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts analyzer endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/analyze", h.HandleAnalyze)
}

// AnalyzeRequest is the wire form of an analysis call. Only the name is
// required.
type AnalyzeRequest struct {
	Name     string   `json:"name"`
	EIN      string   `json:"ein,omitempty"`
	Address  string   `json:"address,omitempty"`
	County   string   `json:"county,omitempty"`
	Officers []string `json:"officers,omitempty"`
}

// HandleAnalyze handles POST /analyze requests.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeJSON[AnalyzeRequest](w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.service.Analyze(ctx, service.AnalyzeRequest{
		Name:     req.Name,
		EIN:      req.EIN,
		Address:  req.Address,
		County:   req.County,
		Officers: req.Officers,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "entity analysis failed",
			"request_id", requestID,
			"entity", req.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "entity analysis served",
		"request_id", requestID,
		"entity", req.Name,
		"risk_score", report.RiskScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, report)
}
