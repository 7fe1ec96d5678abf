package domain

import "time"

// Event types
const (
	EventTypeObligationCreated      = "obligation.created"
	EventTypeObligationUpdated      = "obligation.updated"
	EventTypeObligationDeleted      = "obligation.deleted"
	EventTypeOccurrenceMaterialized = "occurrence.materialized"
	EventTypeOccurrenceSettled      = "occurrence.settled"
	EventTypeOccurrenceReversed     = "occurrence.reversed"
)

// Aggregate types
const (
	AggregateTypeObligation = "obligation"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewObligationEvent builds an outbox event describing row.
func NewObligationEvent(id, eventType string, row *ObligationRow, at time.Time) *OutboxEvent {
	payload := map[string]any{
		"obligation_id":  row.ID,
		"kind":           string(row.Kind),
		"description":    row.Description,
		"amount":         row.Amount.StringFixed(AmountScale),
		"scheduled_date": row.ScheduledDate.String(),
		"is_fixed":       row.IsFixed,
		"settled":        row.Settled,
	}
	if row.SettledDate != nil {
		payload["settled_date"] = row.SettledDate.String()
	}
	if row.OriginalTemplateID != nil {
		payload["original_template_id"] = *row.OriginalTemplateID
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   row.ID,
		AggregateType: AggregateTypeObligation,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}
