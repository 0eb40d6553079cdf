// Package handler exposes the report archive to administrators.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ledgertrace/internal/report/store"
	dErrors "ledgertrace/pkg/domain-errors"
	"ledgertrace/pkg/platform/httputil"
	"ledgertrace/pkg/platform/sentinel"
)

const defaultPageSize = 50

// Handler wires archive endpoints to the report store.
type Handler struct {
	store  store.Store
	logger *slog.Logger
}

// New constructs a report archive handler.
func New(store store.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts archive endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reports", h.HandleList)
	r.Get("/reports/{id}", h.HandleGet)
	r.Delete("/reports/{id}", h.HandleDelete)
}

// ListResponse is one page of archived reports.
type ListResponse struct {
	Reports []store.Record `json:"reports"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// HandleList handles GET /reports requests. Supports limit, offset, and
// entity query parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if entity := r.URL.Query().Get("entity"); entity != "" {
		records, err := h.store.ListByEntity(ctx, entity)
		if err != nil {
			h.logger.ErrorContext(ctx, "archive listing failed", "entity", entity, "error", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list reports"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, ListResponse{
			Reports: records,
			Total:   len(records),
			Limit:   len(records),
		})
		return
	}

	limit := queryInt(r, "limit", defaultPageSize)
	offset := queryInt(r, "offset", 0)

	records, err := h.store.List(ctx, limit, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "archive listing failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list reports"))
		return
	}
	total, err := h.store.Count(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "archive count failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "count reports"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ListResponse{
		Reports: records,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// HandleGet handles GET /reports/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid report id"))
		return
	}

	record, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, mapStoreError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleDelete handles DELETE /reports/{id} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid report id"))
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, mapStoreError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapStoreError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "report not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "report archive")
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
