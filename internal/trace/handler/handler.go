// Package handler exposes the ownership trace operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ledgertrace/internal/trace/models"
	"ledgertrace/internal/trace/service"
	"ledgertrace/pkg/platform/httputil"
	"ledgertrace/pkg/requestcontext"
)

// Service defines the trace operations the handler needs.
type Service interface {
	TraceOwnership(ctx context.Context, req service.TraceRequest) (*service.TraceResult, error)
	GenerateShellCompanyReport(ctx context.Context, entityName string) (models.ShellCompanyReport, error)
}

// Handler wires trace endpoints to the trace service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a trace handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts trace endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ownership/trace", h.HandleTrace)
	r.Post("/ownership/report", h.HandleReport)
}

// TraceRequest is the wire form of a trace call.
type TraceRequest struct {
	EntityName       string  `json:"entity_name"`
	MaxDepth         int     `json:"max_depth,omitempty"`
	NameThreshold    float64 `json:"name_threshold,omitempty"`
	AddressThreshold float64 `json:"address_threshold,omitempty"`
}

// TraceResponse lists the scored chains for an entity, highest risk first.
type TraceResponse struct {
	EntityName      string                  `json:"entity_name"`
	EntitiesFound   int                     `json:"entities_found"`
	OwnershipChains []models.OwnershipChain `json:"ownership_chains"`
}

// ReportRequest is the wire form of a report call.
type ReportRequest struct {
	EntityName string `json:"entity_name"`
}

// HandleTrace handles POST /ownership/trace requests.
func (h *Handler) HandleTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeJSON[TraceRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.TraceOwnership(ctx, service.TraceRequest{
		EntityName:       req.EntityName,
		MaxDepth:         req.MaxDepth,
		NameThreshold:    req.NameThreshold,
		AddressThreshold: req.AddressThreshold,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "ownership trace failed",
			"request_id", requestID,
			"entity", req.EntityName,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "ownership trace served",
		"request_id", requestID,
		"entity", req.EntityName,
		"chains", len(result.Chains),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	resp := TraceResponse{
		EntityName:      result.EntityName,
		OwnershipChains: result.Chains,
	}
	if result.Network != nil {
		resp.EntitiesFound = result.Network.Size()
	}
	if resp.OwnershipChains == nil {
		resp.OwnershipChains = []models.OwnershipChain{}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleReport handles POST /ownership/report requests.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeJSON[ReportRequest](w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.service.GenerateShellCompanyReport(ctx, req.EntityName)
	if err != nil {
		h.logger.ErrorContext(ctx, "shell company report failed",
			"request_id", requestID,
			"entity", req.EntityName,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "shell company report served",
		"request_id", requestID,
		"entity", req.EntityName,
		"risk", report.RiskAssessment,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, report)
}
