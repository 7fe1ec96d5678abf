package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/usecase"
)

// ObligationRequest is the body of POST /obligations and PUT /obligations/{id}.
type ObligationRequest struct {
	ScheduledDate  domain.Date     `json:"scheduled_date"`
	Amount         decimal.Decimal `json:"amount"`
	SettledDate    *domain.Date    `json:"settled_date,omitempty"`
	CategoryID     *string         `json:"category_id,omitempty"`
	CounterpartyID *string         `json:"counterparty_id,omitempty"`
	ResponsibleID  *string         `json:"responsible_id,omitempty"`
	Kind           domain.Kind     `json:"kind"`
	Description    string          `json:"description"`
	Installments   int             `json:"installments,omitempty"`
	IsFixed        bool            `json:"is_fixed"`
}

// ToUseCaseInput converts to use case input.
func (r *ObligationRequest) ToUseCaseInput() usecase.ObligationInput {
	return usecase.ObligationInput{
		ScheduledDate:  r.ScheduledDate,
		Amount:         r.Amount,
		SettledDate:    r.SettledDate,
		CategoryID:     r.CategoryID,
		CounterpartyID: r.CounterpartyID,
		ResponsibleID:  r.ResponsibleID,
		Kind:           r.Kind,
		Description:    r.Description,
		Installments:   r.Installments,
		IsFixed:        r.IsFixed,
	}
}

// PatchObligationRequest is the body of PATCH /obligations/{id}. Omitted
// fields are left unchanged; an empty reference string clears it.
type PatchObligationRequest struct {
	Kind           *domain.Kind     `json:"kind,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	ScheduledDate  *domain.Date     `json:"scheduled_date,omitempty"`
	IsFixed        *bool            `json:"is_fixed,omitempty"`
	Installments   *int             `json:"installments,omitempty"`
	CategoryID     *string          `json:"category_id,omitempty"`
	CounterpartyID *string          `json:"counterparty_id,omitempty"`
	ResponsibleID  *string          `json:"responsible_id,omitempty"`
	Settled        *bool            `json:"settled,omitempty"`
	SettledDate    *domain.Date     `json:"settled_date,omitempty"`
}

// ToPatch converts to a domain patch. A settled date alone implies settled.
func (r *PatchObligationRequest) ToPatch() domain.ObligationPatch {
	patch := domain.ObligationPatch{
		Kind:           r.Kind,
		Description:    r.Description,
		Amount:         r.Amount,
		ScheduledDate:  r.ScheduledDate,
		IsFixed:        r.IsFixed,
		Installments:   r.Installments,
		CategoryID:     r.CategoryID,
		CounterpartyID: r.CounterpartyID,
		ResponsibleID:  r.ResponsibleID,
	}

	switch {
	case r.Settled != nil && !*r.Settled:
		patch.Settlement = domain.Unsettled()
	case r.Settled != nil || r.SettledDate != nil:
		patch.Settlement = &domain.Settlement{Settled: true, Date: r.SettledDate}
	}

	return patch
}

// SettlementRequest is the body of POST /occurrences/{id}/settlement. A
// missing date means today.
type SettlementRequest struct {
	SettledDate *domain.Date `json:"settled_date,omitempty"`
}
