package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind says whether an obligation is money to receive or money to pay.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// ObligationRow is the only persisted entity: either a standalone occurrence
// (possibly spanning several monthly installments) or a fixed template.
type ObligationRow struct {
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ID                 string
	Kind               Kind
	Description        string
	Amount             decimal.Decimal
	ScheduledDate      Date
	SettledDate        *Date
	OriginalTemplateID *string
	CategoryID         *string
	CounterpartyID     *string
	ResponsibleID      *string
	Installments       int
	IsFixed            bool
	Settled            bool
}

// InstallmentCount returns the number of monthly occurrences the row stands for.
// Missing or non-positive counts mean one.
func (r *ObligationRow) InstallmentCount() int {
	if r.IsFixed || r.Installments <= 0 {
		return 1
	}
	return r.Installments
}

// AnchorMonth is the month of the first occurrence.
func (r *ObligationRow) AnchorMonth() YearMonth {
	return r.ScheduledDate.YearMonth()
}

// AnchorDay is the day of month the row recurs on.
func (r *ObligationRow) AnchorDay() int {
	return r.ScheduledDate.Day
}

// IsMaterializedFrom reports whether r is a concrete row materialized from templateID.
func (r *ObligationRow) IsMaterializedFrom(templateID string) bool {
	return !r.IsFixed && r.OriginalTemplateID != nil && *r.OriginalTemplateID == templateID
}

// Settle marks the row settled on the given date.
func (r *ObligationRow) Settle(on Date) {
	d := on
	r.Settled = true
	r.SettledDate = &d
}

// Unsettle clears the settlement state.
func (r *ObligationRow) Unsettle() {
	r.Settled = false
	r.SettledDate = nil
}

// Clone returns a deep copy of r.
func (r *ObligationRow) Clone() *ObligationRow {
	c := *r
	c.SettledDate = cloneDate(r.SettledDate)
	c.OriginalTemplateID = cloneString(r.OriginalTemplateID)
	c.CategoryID = cloneString(r.CategoryID)
	c.CounterpartyID = cloneString(r.CounterpartyID)
	c.ResponsibleID = cloneString(r.ResponsibleID)
	return &c
}

// Apply copies the set fields of p onto r.
func (r *ObligationRow) Apply(p ObligationPatch) {
	if p.Kind != nil {
		r.Kind = *p.Kind
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.ScheduledDate != nil {
		r.ScheduledDate = *p.ScheduledDate
	}
	if p.IsFixed != nil {
		r.IsFixed = *p.IsFixed
	}
	if p.Installments != nil {
		r.Installments = *p.Installments
	}
	if p.CategoryID != nil {
		r.CategoryID = emptyToNil(*p.CategoryID)
	}
	if p.CounterpartyID != nil {
		r.CounterpartyID = emptyToNil(*p.CounterpartyID)
	}
	if p.ResponsibleID != nil {
		r.ResponsibleID = emptyToNil(*p.ResponsibleID)
	}
	if p.Settlement != nil {
		if p.Settlement.Settled && p.Settlement.Date != nil {
			r.Settle(*p.Settlement.Date)
		} else {
			r.Unsettle()
		}
	}
}

// ObligationPatch is a partial update. Nil fields are left unchanged; an empty
// string clears a reference.
type ObligationPatch struct {
	Kind           *Kind
	Description    *string
	Amount         *decimal.Decimal
	ScheduledDate  *Date
	IsFixed        *bool
	Installments   *int
	CategoryID     *string
	CounterpartyID *string
	ResponsibleID  *string
	Settlement     *Settlement
}

// Settlement is the settled flag and its date, always changed together.
type Settlement struct {
	Date    *Date
	Settled bool
}

// SettledOn builds a settled Settlement.
func SettledOn(d Date) *Settlement {
	return &Settlement{Settled: true, Date: &d}
}

// Unsettled builds a cleared Settlement.
func Unsettled() *Settlement {
	return &Settlement{}
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
