// Package sqlite stores obligation rows in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/usecase"
)

const obligationColumns = `id, kind, description, amount, scheduled_date, scheduled_month, is_fixed, installments,
	settled, settled_date, original_template_id, category_id, counterparty_id, responsible_id, created_at, updated_at`

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// ObligationRepository implements usecase.ObligationRepository.
type ObligationRepository struct {
	db *sql.DB
}

// NewObligationRepository creates a new ObligationRepository.
func NewObligationRepository(db *sql.DB) *ObligationRepository {
	return &ObligationRepository{db: db}
}

func (r *ObligationRepository) conn(tx usecase.Transaction) querier {
	if t, ok := tx.(*Tx); ok && t != nil {
		return t.SQLTx()
	}
	return r.db
}

// List returns every stored row in creation order.
func (r *ObligationRepository) List(ctx context.Context) ([]*domain.ObligationRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+obligationColumns+` FROM obligations ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.ObligationRow
	for rows.Next() {
		row, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// GetByID retrieves a row by ID.
func (r *ObligationRepository) GetByID(ctx context.Context, id string) (*domain.ObligationRow, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDForUpdate retrieves a row inside tx. The immediate transaction
// already holds the database write lock.
func (r *ObligationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ObligationRow, error) {
	return r.get(ctx, r.conn(tx), id)
}

func (r *ObligationRepository) get(ctx context.Context, q querier, id string) (*domain.ObligationRow, error) {
	row, err := scanObligation(q.QueryRowContext(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrObligationNotFound
		}
		return nil, err
	}
	return row, nil
}

// FindMaterialized returns the row materialized from templateID in month.
func (r *ObligationRepository) FindMaterialized(ctx context.Context, tx usecase.Transaction, templateID string, month domain.YearMonth) (*domain.ObligationRow, error) {
	row, err := scanObligation(r.conn(tx).QueryRowContext(ctx,
		`SELECT `+obligationColumns+` FROM obligations
		WHERE original_template_id = ? AND scheduled_month = ? AND is_fixed = 0
		LIMIT 1`,
		templateID, month.String(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrObligationNotFound
		}
		return nil, err
	}
	return row, nil
}

// Create inserts a row.
func (r *ObligationRepository) Create(ctx context.Context, tx usecase.Transaction, row *domain.ObligationRow) error {
	_, err := r.conn(tx).ExecContext(ctx,
		`INSERT INTO obligations (`+obligationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID,
		string(row.Kind),
		row.Description,
		row.Amount.StringFixed(domain.AmountScale),
		row.ScheduledDate.String(),
		row.AnchorMonth().String(),
		row.IsFixed,
		row.Installments,
		row.Settled,
		nullDate(row.SettledDate),
		nullString(row.OriginalTemplateID),
		nullString(row.CategoryID),
		nullString(row.CounterpartyID),
		nullString(row.ResponsibleID),
		row.CreatedAt.UTC().UnixMilli(),
		row.UpdatedAt.UTC().UnixMilli(),
	)
	if isMaterializedMonthViolation(err) {
		return domain.ErrAlreadyMaterialized
	}
	return err
}

// Update overwrites the stored row with row.
func (r *ObligationRepository) Update(ctx context.Context, tx usecase.Transaction, row *domain.ObligationRow) error {
	res, err := r.conn(tx).ExecContext(ctx,
		`UPDATE obligations SET
			kind = ?, description = ?, amount = ?, scheduled_date = ?, scheduled_month = ?,
			is_fixed = ?, installments = ?, settled = ?, settled_date = ?, original_template_id = ?,
			category_id = ?, counterparty_id = ?, responsible_id = ?, updated_at = ?
		WHERE id = ?`,
		string(row.Kind),
		row.Description,
		row.Amount.StringFixed(domain.AmountScale),
		row.ScheduledDate.String(),
		row.AnchorMonth().String(),
		row.IsFixed,
		row.Installments,
		row.Settled,
		nullDate(row.SettledDate),
		nullString(row.OriginalTemplateID),
		nullString(row.CategoryID),
		nullString(row.CounterpartyID),
		nullString(row.ResponsibleID),
		row.UpdatedAt.UTC().UnixMilli(),
		row.ID,
	)
	if err != nil {
		if isMaterializedMonthViolation(err) {
			return domain.ErrAlreadyMaterialized
		}
		return err
	}
	return requireAffected(res)
}

// Delete removes a row.
func (r *ObligationRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	res, err := r.conn(tx).ExecContext(ctx, `DELETE FROM obligations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Ping checks the database for readiness probes.
func (r *ObligationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrObligationNotFound
	}
	return nil
}

// scanObligation reads one row. Unparseable dates come back as the zero Date
// so the projector can report them instead of failing the whole listing.
func scanObligation(s scanner) (*domain.ObligationRow, error) {
	var (
		row                                domain.ObligationRow
		kind, amount, scheduled, month     string
		settledDate, templateID            sql.NullString
		categoryID, counterpartyID, respID sql.NullString
		createdAt, updatedAt               int64
	)

	if err := s.Scan(
		&row.ID, &kind, &row.Description, &amount, &scheduled, &month,
		&row.IsFixed, &row.Installments, &row.Settled, &settledDate, &templateID,
		&categoryID, &counterpartyID, &respID, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	row.Kind = domain.Kind(kind)
	row.Amount, _ = decimal.NewFromString(amount)
	row.ScheduledDate, _ = domain.ParseDate(scheduled)
	if settledDate.Valid {
		d, _ := domain.ParseDate(settledDate.String)
		row.SettledDate = &d
	}
	row.OriginalTemplateID = fromNullString(templateID)
	row.CategoryID = fromNullString(categoryID)
	row.CounterpartyID = fromNullString(counterpartyID)
	row.ResponsibleID = fromNullString(respID)
	row.CreatedAt = time.UnixMilli(createdAt).UTC()
	row.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return &row, nil
}

func nullDate(d *domain.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

var (
	_ usecase.ObligationRepository = (*ObligationRepository)(nil)
	_ usecase.TransactionManager   = (*TxManager)(nil)
)
