package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/infrastructure/postgres/generated"
	"github.com/iho/duebook/internal/usecase"
)

const (
	pgErrUniqueViolation = "23505"

	materializedMonthIndex = "obligations_materialized_month_uniq"
)

type queryPool interface {
	generated.DBTX
	Ping(context.Context) error
}

// ObligationRepository implements usecase.ObligationRepository.
type ObligationRepository struct {
	pool    queryPool
	queries *generated.Queries
}

// NewObligationRepository creates a new ObligationRepository.
func NewObligationRepository(pool *pgxpool.Pool) *ObligationRepository {
	return newObligationRepositoryWithPool(pool)
}

func newObligationRepositoryWithPool(pool queryPool) *ObligationRepository {
	return &ObligationRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// List returns every stored row in creation order.
func (r *ObligationRepository) List(ctx context.Context) ([]*domain.ObligationRow, error) {
	rows, err := r.queries.ListObligations(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.ObligationRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToObligation(row))
	}

	return result, nil
}

// GetByID retrieves a row by ID.
func (r *ObligationRepository) GetByID(ctx context.Context, id string) (*domain.ObligationRow, error) {
	row, err := r.queries.GetObligationByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObligationNotFound
		}

		return nil, err
	}

	return rowToObligation(row), nil
}

// GetByIDForUpdate retrieves a row by ID with a FOR UPDATE lock.
func (r *ObligationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ObligationRow, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetObligationByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObligationNotFound
		}

		return nil, err
	}

	return rowToObligation(row), nil
}

// FindMaterialized returns the row materialized from templateID in month.
func (r *ObligationRepository) FindMaterialized(ctx context.Context, tx usecase.Transaction, templateID string, month domain.YearMonth) (*domain.ObligationRow, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.FindMaterializedObligation(ctx, generated.FindMaterializedObligationParams{
		OriginalTemplateID: textToPg(&templateID),
		ScheduledMonth:     month.String(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObligationNotFound
		}

		return nil, err
	}

	return rowToObligation(row), nil
}

// Create inserts a row.
func (r *ObligationRepository) Create(ctx context.Context, tx usecase.Transaction, row *domain.ObligationRow) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateObligation(ctx, generated.CreateObligationParams{
		ID:                 row.ID,
		Kind:               string(row.Kind),
		Description:        row.Description,
		Amount:             decimalToNumeric(row.Amount),
		ScheduledDate:      dateToPgDate(row.ScheduledDate),
		ScheduledMonth:     row.AnchorMonth().String(),
		IsFixed:            row.IsFixed,
		Installments:       int32(row.Installments),
		Settled:            row.Settled,
		SettledDate:        optionalDateToPgDate(row.SettledDate),
		OriginalTemplateID: textToPg(row.OriginalTemplateID),
		CategoryID:         textToPg(row.CategoryID),
		CounterpartyID:     textToPg(row.CounterpartyID),
		ResponsibleID:      textToPg(row.ResponsibleID),
		CreatedAt:          timeToPgTimestamptz(row.CreatedAt),
		UpdatedAt:          timeToPgTimestamptz(row.UpdatedAt),
	})

	return mapWriteError(err)
}

// Update overwrites the stored row with row.
func (r *ObligationRepository) Update(ctx context.Context, tx usecase.Transaction, row *domain.ObligationRow) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	affected, err := queries.UpdateObligation(ctx, generated.UpdateObligationParams{
		ID:                 row.ID,
		Kind:               string(row.Kind),
		Description:        row.Description,
		Amount:             decimalToNumeric(row.Amount),
		ScheduledDate:      dateToPgDate(row.ScheduledDate),
		ScheduledMonth:     row.AnchorMonth().String(),
		IsFixed:            row.IsFixed,
		Installments:       int32(row.Installments),
		Settled:            row.Settled,
		SettledDate:        optionalDateToPgDate(row.SettledDate),
		OriginalTemplateID: textToPg(row.OriginalTemplateID),
		CategoryID:         textToPg(row.CategoryID),
		CounterpartyID:     textToPg(row.CounterpartyID),
		ResponsibleID:      textToPg(row.ResponsibleID),
		UpdatedAt:          timeToPgTimestamptz(row.UpdatedAt),
	})
	if err != nil {
		return mapWriteError(err)
	}
	if affected == 0 {
		return domain.ErrObligationNotFound
	}

	return nil
}

// Delete removes a row.
func (r *ObligationRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	affected, err := queries.DeleteObligation(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrObligationNotFound
	}

	return nil
}

// Ping checks the pool for readiness probes.
func (r *ObligationRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == materializedMonthIndex {
		return domain.ErrAlreadyMaterialized
	}
	return err
}

func rowToObligation(row generated.Obligation) *domain.ObligationRow {
	o := &domain.ObligationRow{
		ID:                 row.ID,
		Kind:               domain.Kind(row.Kind),
		Description:        row.Description,
		Amount:             numericToDecimal(row.Amount),
		ScheduledDate:      pgDateToDate(row.ScheduledDate),
		IsFixed:            row.IsFixed,
		Installments:       int(row.Installments),
		Settled:            row.Settled,
		OriginalTemplateID: pgToText(row.OriginalTemplateID),
		CategoryID:         pgToText(row.CategoryID),
		CounterpartyID:     pgToText(row.CounterpartyID),
		ResponsibleID:      pgToText(row.ResponsibleID),
		CreatedAt:          row.CreatedAt.Time,
		UpdatedAt:          row.UpdatedAt.Time,
	}

	if row.SettledDate.Valid {
		d := pgDateToDate(row.SettledDate)
		o.SettledDate = &d
	}

	return o
}
