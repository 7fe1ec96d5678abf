package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/duebook/internal/adapter/http/dto"
	"github.com/iho/duebook/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"obligation not found", domain.ErrObligationNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrObligationNotFound), http.StatusNotFound},
		{"not in month", domain.ErrOccurrenceNotInMonth, http.StatusNotFound},
		{"conflict", &domain.ConflictError{TemplateID: "tpl"}, http.StatusConflict},
		{"not concrete", domain.ErrOccurrenceNotConcrete, http.StatusConflict},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"future settlement", domain.ErrInvalidSettlementDate, http.StatusBadRequest},
		{"invalid occurrence id", domain.ErrInvalidOccurrenceID, http.StatusBadRequest},
		{"empty description", domain.ErrEmptyDescription, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error != "bad request" || resp.Message != "detail" {
		t.Fatalf("expected error message to propagate, got %+v", resp)
	}
}

func TestWriteDomainErrorIncludesExistingRow(t *testing.T) {
	rr := httptest.NewRecorder()
	existing := &domain.ObligationRow{
		ID:            "row-1",
		Kind:          domain.KindExpense,
		Description:   "Rent",
		ScheduledDate: domain.NewDate(2024, time.March, 31),
	}

	writeDomainError(rr, "failed", &domain.ConflictError{Existing: existing, TemplateID: "tpl"})

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Existing == nil || resp.Existing.ID != "row-1" {
		t.Fatalf("expected existing row in response, got %+v", resp)
	}
}
