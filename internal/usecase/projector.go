package usecase

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/iho/duebook/internal/domain"
)

// Anomaly describes a stored row the projector had to skip.
type Anomaly struct {
	RowID  string
	Reason string
}

// Projection is the ordered set of occurrences visible in a month.
type Projection struct {
	Month       domain.YearMonth
	Occurrences []domain.Occurrence
	Anomalies   []Anomaly
}

type templateMonth struct {
	templateID string
	month      domain.YearMonth
}

// Project computes the occurrences of month from the full row set.
//
// Non-fixed rows show up in each of their installment months. A fixed template
// shows up as itself in its first month and, in every later month, either as
// the concrete row materialized from it or as a virtual occurrence dated on the
// template's anchor day (clamped to the month's length). Output is sorted by
// date; equal dates keep input order.
//
// Project is pure. Rows with unusable dates are omitted and listed in
// Anomalies instead of failing the whole projection.
func Project(rows []*domain.ObligationRow, month domain.YearMonth) Projection {
	p := Projection{
		Month:       month,
		Occurrences: make([]domain.Occurrence, 0),
	}

	materialized := materializedSlots(rows)

	for i, row := range rows {
		if reason, ok := malformed(row); ok {
			p.Anomalies = append(p.Anomalies, Anomaly{RowID: rowID(row, i), Reason: reason})
			continue
		}

		var occ domain.Occurrence
		if row.IsFixed {
			occ = projectTemplate(row, month, materialized)
		} else {
			occ = projectInstallment(row, month)
		}

		if occ != nil {
			p.Occurrences = append(p.Occurrences, occ)
		}
	}

	sort.SliceStable(p.Occurrences, func(i, j int) bool {
		return p.Occurrences[i].DueDate().Before(p.Occurrences[j].DueDate())
	})

	return p
}

// projectInstallment emits the k-th installment of row when it falls in month.
func projectInstallment(row *domain.ObligationRow, month domain.YearMonth) domain.Occurrence {
	k := month.MonthsSince(row.AnchorMonth())
	n := row.InstallmentCount()
	if k < 0 || k >= n {
		return nil
	}

	return &domain.ConcreteOccurrence{
		Row:          row,
		Date:         month.DateOn(row.AnchorDay()),
		Installment:  k + 1,
		Installments: n,
	}
}

func projectTemplate(template *domain.ObligationRow, month domain.YearMonth, materialized map[templateMonth]bool) domain.Occurrence {
	if month.Compare(template.AnchorMonth()) < 0 {
		return nil
	}

	// The materialized row is a non-fixed row and is emitted on its own.
	if materialized[templateMonth{templateID: template.ID, month: month}] {
		return nil
	}

	if month == template.AnchorMonth() {
		return &domain.ConcreteOccurrence{
			Row:          template,
			Date:         template.ScheduledDate,
			Installment:  1,
			Installments: 1,
		}
	}

	return domain.NewVirtualOccurrence(template, month)
}

func materializedSlots(rows []*domain.ObligationRow) map[templateMonth]bool {
	slots := make(map[templateMonth]bool)
	for _, row := range rows {
		if row == nil || row.IsFixed || row.OriginalTemplateID == nil || !row.ScheduledDate.Valid() {
			continue
		}
		anchor := row.AnchorMonth()
		for k := 0; k < row.InstallmentCount(); k++ {
			slots[templateMonth{templateID: *row.OriginalTemplateID, month: anchor.AddMonths(k)}] = true
		}
	}
	return slots
}

func malformed(row *domain.ObligationRow) (string, bool) {
	switch {
	case row == nil:
		return "nil row", true
	case !row.ScheduledDate.Valid():
		return "invalid scheduled date", true
	case row.SettledDate != nil && !row.SettledDate.Valid():
		return "invalid settled date", true
	default:
		return "", false
	}
}

func rowID(row *domain.ObligationRow, index int) string {
	if row == nil {
		return "#" + strconv.Itoa(index)
	}
	return row.ID
}

// MonthSummary totals a projection.
type MonthSummary struct {
	Income      decimal.Decimal
	Expense     decimal.Decimal
	Received    decimal.Decimal
	Paid        decimal.Decimal
	Net         decimal.Decimal
	Occurrences int
	Settled     int
	Virtual     int
}

// Summary totals the occurrences by kind and settlement state.
func (p Projection) Summary() MonthSummary {
	s := MonthSummary{
		Income:   decimal.Zero,
		Expense:  decimal.Zero,
		Received: decimal.Zero,
		Paid:     decimal.Zero,
	}

	for _, occ := range p.Occurrences {
		view := occ.View()
		s.Occurrences++
		if occ.IsVirtual() {
			s.Virtual++
		}
		if view.Settled {
			s.Settled++
		}

		switch view.Kind {
		case domain.KindIncome:
			s.Income = s.Income.Add(view.Amount)
			if view.Settled {
				s.Received = s.Received.Add(view.Amount)
			}
		case domain.KindExpense:
			s.Expense = s.Expense.Add(view.Amount)
			if view.Settled {
				s.Paid = s.Paid.Add(view.Amount)
			}
		}
	}

	s.Net = s.Income.Sub(s.Expense)
	return s
}
