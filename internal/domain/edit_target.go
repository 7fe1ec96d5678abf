package domain

// EditTarget says what an edit form is bound to. It is one of EditNone,
// *EditConcrete or *EditTemplate.
type EditTarget interface {
	editTarget()
}

// EditNone means nothing is selected: saving creates a new row.
type EditNone struct{}

// EditConcrete edits a stored non-fixed row.
type EditConcrete struct {
	Row *ObligationRow
}

// EditTemplate edits a fixed template. Changes reshape every month that is
// still virtual; materialized months keep their own values.
type EditTemplate struct {
	Template *ObligationRow
}

func (EditNone) editTarget()      {}
func (*EditConcrete) editTarget() {}
func (*EditTemplate) editTarget() {}

// EditTargetFor classifies a stored row.
func EditTargetFor(row *ObligationRow) EditTarget {
	switch {
	case row == nil:
		return EditNone{}
	case row.IsFixed:
		return &EditTemplate{Template: row}
	default:
		return &EditConcrete{Row: row}
	}
}
