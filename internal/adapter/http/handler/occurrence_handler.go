package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/duebook/internal/adapter/http/dto"
	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/usecase"
)

// ProjectionService defines the month view needed by OccurrenceHandler.
type ProjectionService interface {
	ProjectMonth(ctx context.Context, month domain.YearMonth) (usecase.Projection, error)
}

// SettlementService defines the settlement behavior needed by OccurrenceHandler.
type SettlementService interface {
	ResolveOccurrence(ctx context.Context, id string) (domain.Occurrence, error)
	ConfirmSettlement(ctx context.Context, occ domain.Occurrence, date domain.Date) (*domain.ObligationRow, error)
	ReverseSettlement(ctx context.Context, occ domain.Occurrence) (*domain.ObligationRow, error)
}

// OccurrenceHandler handles month views and settlements.
type OccurrenceHandler struct {
	projections ProjectionService
	settlements SettlementService
	now         func() time.Time
}

// NewOccurrenceHandler creates a new OccurrenceHandler.
func NewOccurrenceHandler(projections ProjectionService, settlements SettlementService) *OccurrenceHandler {
	return &OccurrenceHandler{
		projections: projections,
		settlements: settlements,
		now:         time.Now,
	}
}

// List returns the occurrences of ?month=YYYY-MM, the current month by default.
func (h *OccurrenceHandler) List(w http.ResponseWriter, r *http.Request) {
	month := domain.DateOf(h.now().UTC()).YearMonth()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := domain.ParseYearMonth(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month", err.Error())
			return
		}
		month = parsed
	}

	p, err := h.projections.ProjectMonth(r.Context(), month)
	if err != nil {
		writeDomainError(w, "failed to project month", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MonthFromProjection(p))
}

// Settle confirms the settlement of an occurrence, materializing it when virtual.
func (h *OccurrenceHandler) Settle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing occurrence ID", "")
		return
	}

	var req dto.SettlementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	date := domain.DateOf(h.now().UTC())
	if req.SettledDate != nil {
		date = *req.SettledDate
	}

	occ, err := h.settlements.ResolveOccurrence(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to resolve occurrence", err)
		return
	}

	row, err := h.settlements.ConfirmSettlement(r.Context(), occ, date)
	if err != nil {
		writeDomainError(w, "failed to confirm settlement", err)
		return
	}

	status := http.StatusOK
	if occ.IsVirtual() {
		status = http.StatusCreated
	}
	writeJSON(w, status, dto.ObligationFromDomain(row))
}

// Unsettle reverses the settlement of a stored occurrence.
func (h *OccurrenceHandler) Unsettle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing occurrence ID", "")
		return
	}

	occ, err := h.settlements.ResolveOccurrence(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to resolve occurrence", err)
		return
	}

	row, err := h.settlements.ReverseSettlement(r.Context(), occ)
	if err != nil {
		writeDomainError(w, "failed to reverse settlement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ObligationFromDomain(row))
}
