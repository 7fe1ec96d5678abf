package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/usecase"
)

// ObligationResponse represents a stored row in API responses.
type ObligationResponse struct {
	ID                 string          `json:"id"`
	Kind               domain.Kind     `json:"kind"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	ScheduledDate      string          `json:"scheduled_date"`
	IsFixed            bool            `json:"is_fixed"`
	Installments       int             `json:"installments"`
	Settled            bool            `json:"settled"`
	SettledDate        *string         `json:"settled_date,omitempty"`
	OriginalTemplateID *string         `json:"original_template_id,omitempty"`
	CategoryID         *string         `json:"category_id,omitempty"`
	CounterpartyID     *string         `json:"counterparty_id,omitempty"`
	ResponsibleID      *string         `json:"responsible_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ObligationFromDomain converts a domain row to response.
func ObligationFromDomain(r *domain.ObligationRow) *ObligationResponse {
	resp := &ObligationResponse{
		ID:                 r.ID,
		Kind:               r.Kind,
		Description:        r.Description,
		Amount:             r.Amount,
		ScheduledDate:      r.ScheduledDate.String(),
		IsFixed:            r.IsFixed,
		Installments:       r.InstallmentCount(),
		Settled:            r.Settled,
		OriginalTemplateID: r.OriginalTemplateID,
		CategoryID:         r.CategoryID,
		CounterpartyID:     r.CounterpartyID,
		ResponsibleID:      r.ResponsibleID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.SettledDate != nil {
		s := r.SettledDate.String()
		resp.SettledDate = &s
	}
	return resp
}

// ObligationsFromDomain converts domain rows to responses.
func ObligationsFromDomain(rows []*domain.ObligationRow) []*ObligationResponse {
	result := make([]*ObligationResponse, len(rows))
	for i, r := range rows {
		result[i] = ObligationFromDomain(r)
	}
	return result
}

// ListObligationsResponse represents GET /obligations.
type ListObligationsResponse struct {
	Obligations []*ObligationResponse `json:"obligations"`
	Total       int64                 `json:"total"`
}

// OccurrenceResponse is one line of a month view. Installment is set for
// stored rows; virtual occurrences carry their template id.
type OccurrenceResponse struct {
	ID           string              `json:"id"`
	Virtual      bool                `json:"virtual"`
	DueDate      string              `json:"due_date"`
	Installment  int                 `json:"installment,omitempty"`
	Installments int                 `json:"installments,omitempty"`
	TemplateID   string              `json:"template_id,omitempty"`
	Obligation   *ObligationResponse `json:"obligation"`
}

// OccurrenceFromDomain converts an occurrence to response.
func OccurrenceFromDomain(occ domain.Occurrence) *OccurrenceResponse {
	resp := &OccurrenceResponse{
		ID:         occ.OccurrenceID(),
		Virtual:    occ.IsVirtual(),
		DueDate:    occ.DueDate().String(),
		Obligation: ObligationFromDomain(occ.View()),
	}

	switch o := occ.(type) {
	case *domain.ConcreteOccurrence:
		resp.Installment = o.Installment
		resp.Installments = o.Installments
	case *domain.VirtualOccurrence:
		resp.TemplateID = o.Template.ID
	}

	return resp
}

// SummaryResponse totals a month.
type SummaryResponse struct {
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Received    decimal.Decimal `json:"received"`
	Paid        decimal.Decimal `json:"paid"`
	Net         decimal.Decimal `json:"net"`
	Occurrences int             `json:"occurrences"`
	Settled     int             `json:"settled"`
	Virtual     int             `json:"virtual"`
}

// AnomalyResponse names a row left out of the month.
type AnomalyResponse struct {
	RowID  string `json:"row_id"`
	Reason string `json:"reason"`
}

// MonthResponse represents GET /occurrences.
type MonthResponse struct {
	Month       string                `json:"month"`
	Occurrences []*OccurrenceResponse `json:"occurrences"`
	Summary     SummaryResponse       `json:"summary"`
	Anomalies   []AnomalyResponse     `json:"anomalies,omitempty"`
}

// MonthFromProjection converts a projection to response.
func MonthFromProjection(p usecase.Projection) *MonthResponse {
	occurrences := make([]*OccurrenceResponse, len(p.Occurrences))
	for i, occ := range p.Occurrences {
		occurrences[i] = OccurrenceFromDomain(occ)
	}

	var anomalies []AnomalyResponse
	for _, a := range p.Anomalies {
		anomalies = append(anomalies, AnomalyResponse{RowID: a.RowID, Reason: a.Reason})
	}

	s := p.Summary()
	return &MonthResponse{
		Month:       p.Month.String(),
		Occurrences: occurrences,
		Summary: SummaryResponse{
			Income:      s.Income,
			Expense:     s.Expense,
			Received:    s.Received,
			Paid:        s.Paid,
			Net:         s.Net,
			Occurrences: s.Occurrences,
			Settled:     s.Settled,
			Virtual:     s.Virtual,
		},
		Anomalies: anomalies,
	}
}

// ErrorResponse represents an error in API responses. Existing is set on a
// materialization conflict when the winning row is known.
type ErrorResponse struct {
	Error    string              `json:"error"`
	Message  string              `json:"message,omitempty"`
	Existing *ObligationResponse `json:"existing,omitempty"`
}
