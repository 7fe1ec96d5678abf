package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/iho/duebook/internal/adapter/http/dto"
	"github.com/iho/duebook/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks. A
// materialization conflict carries the winning row when it is known.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	resp := dto.ErrorResponse{
		Error:   message,
		Message: err.Error(),
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) && conflict.Existing != nil {
		resp.Existing = dto.ObligationFromDomain(conflict.Existing)
	}

	writeJSON(w, mapDomainError(err), resp)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrObligationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOccurrenceNotInMonth):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyMaterialized):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOccurrenceNotConcrete):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOccurrenceID),
		errors.Is(err, domain.ErrInvalidSettlementDate),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidMonth),
		errors.Is(err, domain.ErrInvalidInstallments),
		errors.Is(err, domain.ErrEmptyDescription),
		errors.Is(err, domain.ErrDescriptionTooLong),
		errors.Is(err, domain.ErrInvalidKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
