package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/duebook/internal/adapter/http/dto"
	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/usecase"
)

// ObligationService defines the behavior needed by ObligationHandler.
type ObligationService interface {
	CreateObligation(ctx context.Context, input usecase.ObligationInput) (*domain.ObligationRow, error)
	GetObligation(ctx context.Context, id string) (*domain.ObligationRow, error)
	ListObligations(ctx context.Context) ([]*domain.ObligationRow, error)
	UpdateObligation(ctx context.Context, id string, patch domain.ObligationPatch) (*domain.ObligationRow, error)
	DeleteObligation(ctx context.Context, id string) error
	ResolveEditTarget(ctx context.Context, id string) (domain.EditTarget, error)
	SaveObligation(ctx context.Context, target domain.EditTarget, input usecase.ObligationInput) (*domain.ObligationRow, error)
}

// ObligationHandler handles obligation row requests.
type ObligationHandler struct {
	obligationUC ObligationService
}

// NewObligationHandler creates a new ObligationHandler.
func NewObligationHandler(obligationUC ObligationService) *ObligationHandler {
	return &ObligationHandler{obligationUC: obligationUC}
}

// Create stores a new row.
func (h *ObligationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	row, err := h.obligationUC.CreateObligation(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create obligation", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ObligationFromDomain(row))
}

// Get retrieves a row by ID.
func (h *ObligationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing obligation ID", "")
		return
	}

	row, err := h.obligationUC.GetObligation(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get obligation", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ObligationFromDomain(row))
}

// List returns every stored row.
func (h *ObligationHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.obligationUC.ListObligations(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list obligations", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListObligationsResponse{
		Obligations: dto.ObligationsFromDomain(rows),
		Total:       int64(len(rows)),
	})
}

// Patch partially updates the edit target of id. A virtual occurrence id
// edits its template.
func (h *ObligationHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing obligation ID", "")
		return
	}

	var req dto.PatchObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	target, err := h.obligationUC.ResolveEditTarget(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to resolve edit target", err)
		return
	}

	var rowID string
	switch t := target.(type) {
	case *domain.EditConcrete:
		rowID = t.Row.ID
	case *domain.EditTemplate:
		rowID = t.Template.ID
	default:
		writeError(w, http.StatusNotFound, "nothing to edit", id)
		return
	}

	row, err := h.obligationUC.UpdateObligation(r.Context(), rowID, req.ToPatch())
	if err != nil {
		writeDomainError(w, "failed to update obligation", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ObligationFromDomain(row))
}

// Put overwrites the edit target of id with the full request body.
func (h *ObligationHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing obligation ID", "")
		return
	}

	var req dto.ObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	target, err := h.obligationUC.ResolveEditTarget(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to resolve edit target", err)
		return
	}

	row, err := h.obligationUC.SaveObligation(r.Context(), target, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to save obligation", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ObligationFromDomain(row))
}

// Delete removes a row.
func (h *ObligationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing obligation ID", "")
		return
	}

	if domain.IsVirtualID(id) {
		writeError(w, http.StatusConflict, "cannot delete a virtual occurrence", domain.ErrOccurrenceNotConcrete.Error())
		return
	}

	if err := h.obligationUC.DeleteObligation(r.Context(), id); err != nil {
		writeDomainError(w, "failed to delete obligation", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
