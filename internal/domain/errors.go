package domain

import (
	"errors"
	"fmt"
)

var (
	// Obligation errors
	ErrObligationNotFound  = errors.New("obligation not found")
	ErrInvalidAmount       = errors.New("amount must have at most two decimal places")
	ErrInvalidDate         = errors.New("invalid calendar date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidInstallments = errors.New("installments out of range")
	ErrEmptyDescription    = errors.New("description is required")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrInvalidKind         = errors.New("kind must be income or expense")

	// Occurrence errors
	ErrInvalidOccurrenceID   = errors.New("invalid occurrence id")
	ErrOccurrenceNotConcrete = errors.New("occurrence is not stored yet")
	ErrOccurrenceNotInMonth  = errors.New("template has no occurrence in that month")
	ErrInvalidSettlementDate = errors.New("settlement date cannot be in the future")
	ErrAlreadyMaterialized   = errors.New("occurrence already settled by another action")
)

// ConflictError reports that a template month already has a concrete row.
// Callers can re-project and pick up Existing.
type ConflictError struct {
	Existing   *ObligationRow
	TemplateID string
	Month      YearMonth
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: template %s month %s", ErrAlreadyMaterialized, e.TemplateID, e.Month)
}

// Unwrap lets errors.Is match ErrAlreadyMaterialized.
func (e *ConflictError) Unwrap() error {
	return ErrAlreadyMaterialized
}
