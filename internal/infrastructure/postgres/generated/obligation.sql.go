package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createObligation = `-- name: CreateObligation :exec
INSERT INTO obligations (id, kind, description, amount, scheduled_date, scheduled_month, is_fixed, installments, settled, settled_date, original_template_id, category_id, counterparty_id, responsible_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

type CreateObligationParams struct {
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

func (q *Queries) CreateObligation(ctx context.Context, arg CreateObligationParams) error {
	_, err := q.db.Exec(ctx, createObligation,
		arg.ID,
		arg.Kind,
		arg.Description,
		arg.Amount,
		arg.ScheduledDate,
		arg.ScheduledMonth,
		arg.IsFixed,
		arg.Installments,
		arg.Settled,
		arg.SettledDate,
		arg.OriginalTemplateID,
		arg.CategoryID,
		arg.CounterpartyID,
		arg.ResponsibleID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const deleteObligation = `-- name: DeleteObligation :execrows
DELETE FROM obligations WHERE id = $1
`

func (q *Queries) DeleteObligation(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteObligation, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const findMaterializedObligation = `-- name: FindMaterializedObligation :one
SELECT id, kind, description, amount, scheduled_date, scheduled_month, is_fixed, installments, settled, settled_date, original_template_id, category_id, counterparty_id, responsible_id, created_at, updated_at
FROM obligations
WHERE original_template_id = $1 AND scheduled_month = $2 AND NOT is_fixed
LIMIT 1
`

type FindMaterializedObligationParams struct {
	OriginalTemplateID pgtype.Text `json:"original_template_id"`
	ScheduledMonth     string      `json:"scheduled_month"`
}

func (q *Queries) FindMaterializedObligation(ctx context.Context, arg FindMaterializedObligationParams) (Obligation, error) {
	row := q.db.QueryRow(ctx, findMaterializedObligation, arg.OriginalTemplateID, arg.ScheduledMonth)
	var i Obligation
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Description,
		&i.Amount,
		&i.ScheduledDate,
		&i.ScheduledMonth,
		&i.IsFixed,
		&i.Installments,
		&i.Settled,
		&i.SettledDate,
		&i.OriginalTemplateID,
		&i.CategoryID,
		&i.CounterpartyID,
		&i.ResponsibleID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getObligationByID = `-- name: GetObligationByID :one
SELECT id, kind, description, amount, scheduled_date, scheduled_month, is_fixed, installments, settled, settled_date, original_template_id, category_id, counterparty_id, responsible_id, created_at, updated_at
FROM obligations
WHERE id = $1
`

func (q *Queries) GetObligationByID(ctx context.Context, id string) (Obligation, error) {
	row := q.db.QueryRow(ctx, getObligationByID, id)
	var i Obligation
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Description,
		&i.Amount,
		&i.ScheduledDate,
		&i.ScheduledMonth,
		&i.IsFixed,
		&i.Installments,
		&i.Settled,
		&i.SettledDate,
		&i.OriginalTemplateID,
		&i.CategoryID,
		&i.CounterpartyID,
		&i.ResponsibleID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getObligationByIDForUpdate = `-- name: GetObligationByIDForUpdate :one
SELECT id, kind, description, amount, scheduled_date, scheduled_month, is_fixed, installments, settled, settled_date, original_template_id, category_id, counterparty_id, responsible_id, created_at, updated_at
FROM obligations
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetObligationByIDForUpdate(ctx context.Context, id string) (Obligation, error) {
	row := q.db.QueryRow(ctx, getObligationByIDForUpdate, id)
	var i Obligation
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Description,
		&i.Amount,
		&i.ScheduledDate,
		&i.ScheduledMonth,
		&i.IsFixed,
		&i.Installments,
		&i.Settled,
		&i.SettledDate,
		&i.OriginalTemplateID,
		&i.CategoryID,
		&i.CounterpartyID,
		&i.ResponsibleID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listObligations = `-- name: ListObligations :many
SELECT id, kind, description, amount, scheduled_date, scheduled_month, is_fixed, installments, settled, settled_date, original_template_id, category_id, counterparty_id, responsible_id, created_at, updated_at
FROM obligations
ORDER BY created_at, id
`

func (q *Queries) ListObligations(ctx context.Context) ([]Obligation, error) {
	rows, err := q.db.Query(ctx, listObligations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Obligation
	for rows.Next() {
		var i Obligation
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.Description,
			&i.Amount,
			&i.ScheduledDate,
			&i.ScheduledMonth,
			&i.IsFixed,
			&i.Installments,
			&i.Settled,
			&i.SettledDate,
			&i.OriginalTemplateID,
			&i.CategoryID,
			&i.CounterpartyID,
			&i.ResponsibleID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateObligation = `-- name: UpdateObligation :execrows
UPDATE obligations
SET kind = $2,
    description = $3,
    amount = $4,
    scheduled_date = $5,
    scheduled_month = $6,
    is_fixed = $7,
    installments = $8,
    settled = $9,
    settled_date = $10,
    original_template_id = $11,
    category_id = $12,
    counterparty_id = $13,
    responsible_id = $14,
    updated_at = $15
WHERE id = $1
`

type UpdateObligationParams struct {
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
	UpdatedAt          pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateObligation(ctx context.Context, arg UpdateObligationParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateObligation,
		arg.ID,
		arg.Kind,
		arg.Description,
		arg.Amount,
		arg.ScheduledDate,
		arg.ScheduledMonth,
		arg.IsFixed,
		arg.Installments,
		arg.Settled,
		arg.SettledDate,
		arg.OriginalTemplateID,
		arg.CategoryID,
		arg.CounterpartyID,
		arg.ResponsibleID,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
