package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Obligation struct {
	ID                 string             `json:"id"`
	Kind               string             `json:"kind"`
	Description        string             `json:"description"`
	Amount             pgtype.Numeric     `json:"amount"`
	ScheduledDate      pgtype.Date        `json:"scheduled_date"`
	ScheduledMonth     string             `json:"scheduled_month"`
	IsFixed            bool               `json:"is_fixed"`
	Installments       int32              `json:"installments"`
	Settled            bool               `json:"settled"`
	SettledDate        pgtype.Date        `json:"settled_date"`
	OriginalTemplateID pgtype.Text        `json:"original_template_id"`
	CategoryID         pgtype.Text        `json:"category_id"`
	CounterpartyID     pgtype.Text        `json:"counterparty_id"`
	ResponsibleID      pgtype.Text        `json:"responsible_id"`
	CreatedAt          pgtype.Timestamptz `json:"created_at"`
	UpdatedAt          pgtype.Timestamptz `json:"updated_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}
