package domain

import (
	"fmt"
	"strings"
	"time"
)

const virtualIDPrefix = "virtual"

// Occurrence is one month's instance of an obligation. It is either a
// *ConcreteOccurrence backed by a stored row or a *VirtualOccurrence
// synthesized for a template month that has not been materialized yet.
type Occurrence interface {
	// OccurrenceID is the stored row id, or the synthetic virtual id.
	OccurrenceID() string
	// DueDate is the date the occurrence is shown on.
	DueDate() Date
	// View returns the row as displayed for this occurrence.
	View() *ObligationRow
	// IsVirtual reports whether the occurrence has no stored row.
	IsVirtual() bool

	occurrence()
}

// ConcreteOccurrence is a stored row shown for a month.
type ConcreteOccurrence struct {
	Row *ObligationRow
	// Date is the displayed date: the scheduled date for single rows, the
	// k-th monthly anchor for installment rows.
	Date Date
	// Installment is the 1-based installment shown; Installments the total.
	Installment  int
	Installments int
}

func (c *ConcreteOccurrence) OccurrenceID() string { return c.Row.ID }
func (c *ConcreteOccurrence) DueDate() Date        { return c.Date }
func (c *ConcreteOccurrence) IsVirtual() bool      { return false }
func (c *ConcreteOccurrence) occurrence()          {}

// View returns the stored row. Installment rows are shown on their monthly date.
func (c *ConcreteOccurrence) View() *ObligationRow {
	v := c.Row.Clone()
	v.ScheduledDate = c.Date
	return v
}

// VirtualOccurrence is a projected stand-in for a template month.
type VirtualOccurrence struct {
	Template *ObligationRow
	Month    YearMonth
	Date     Date
}

// NewVirtualOccurrence projects template into month, clamping the anchor day.
func NewVirtualOccurrence(template *ObligationRow, month YearMonth) *VirtualOccurrence {
	return &VirtualOccurrence{
		Template: template,
		Month:    month,
		Date:     month.DateOn(template.AnchorDay()),
	}
}

func (v *VirtualOccurrence) OccurrenceID() string { return VirtualID(v.Template.ID, v.Month) }
func (v *VirtualOccurrence) DueDate() Date        { return v.Date }
func (v *VirtualOccurrence) IsVirtual() bool      { return true }
func (v *VirtualOccurrence) occurrence()          {}

// View copies the template's display fields onto the synthetic identity.
func (v *VirtualOccurrence) View() *ObligationRow {
	row := v.Template.Clone()
	templateID := v.Template.ID
	row.ID = v.OccurrenceID()
	row.ScheduledDate = v.Date
	row.OriginalTemplateID = &templateID
	row.Unsettle()
	return row
}

// Materialize builds the concrete row that replaces v once settled.
func (v *VirtualOccurrence) Materialize(id string, settledOn Date, now time.Time) *ObligationRow {
	row := v.View()
	row.ID = id
	row.IsFixed = false
	row.Installments = 1
	row.Settle(settledOn)
	row.CreatedAt = now
	row.UpdatedAt = now
	return row
}

// VirtualID is the deterministic identity of a template month.
func VirtualID(templateID string, month YearMonth) string {
	return fmt.Sprintf("%s:%s:%s", virtualIDPrefix, templateID, month.String())
}

// IsVirtualID reports whether id looks like a virtual occurrence id.
func IsVirtualID(id string) bool {
	return strings.HasPrefix(id, virtualIDPrefix+":")
}

// ParseVirtualID splits a virtual id into template id and month.
func ParseVirtualID(id string) (string, YearMonth, error) {
	rest, ok := strings.CutPrefix(id, virtualIDPrefix+":")
	if !ok {
		return "", YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidOccurrenceID, id)
	}

	sep := strings.LastIndex(rest, ":")
	if sep <= 0 {
		return "", YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidOccurrenceID, id)
	}

	month, err := ParseYearMonth(rest[sep+1:])
	if err != nil {
		return "", YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidOccurrenceID, id)
	}

	return rest[:sep], month, nil
}
