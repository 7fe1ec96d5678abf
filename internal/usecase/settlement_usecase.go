package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/infrastructure/metrics"
)

// SettlementUseCase confirms and reverses settlements, materializing virtual
// occurrences on first confirmation.
type SettlementUseCase struct {
	txManager  TransactionManager
	repo       ObligationRepository
	outboxRepo OutboxRepository
	snapshots  *Snapshots
	retrier    Retrier
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time

	// inflight coalesces confirmations of the same virtual id.
	inflight singleflight.Group
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	repo ObligationRepository,
	outboxRepo OutboxRepository,
	snapshots *Snapshots,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SettlementUseCase {
	return &SettlementUseCase{
		txManager:  txManager,
		repo:       repo,
		outboxRepo: outboxRepo,
		snapshots:  snapshots,
		retrier:    retrier,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (uc *SettlementUseCase) WithClock(now func() time.Time) *SettlementUseCase {
	uc.now = now
	return uc
}

// ResolveOccurrence turns an occurrence id back into its occurrence. A
// template's own first month resolves to the template row.
func (uc *SettlementUseCase) ResolveOccurrence(ctx context.Context, id string) (domain.Occurrence, error) {
	if !domain.IsVirtualID(id) {
		row, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &domain.ConcreteOccurrence{
			Row:          row,
			Date:         row.ScheduledDate,
			Installment:  1,
			Installments: row.InstallmentCount(),
		}, nil
	}

	templateID, month, err := domain.ParseVirtualID(id)
	if err != nil {
		return nil, err
	}

	template, err := uc.repo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !template.IsFixed {
		return nil, domain.ErrInvalidOccurrenceID
	}

	switch c := month.Compare(template.AnchorMonth()); {
	case c < 0:
		return nil, domain.ErrOccurrenceNotInMonth
	case c == 0:
		return &domain.ConcreteOccurrence{Row: template, Date: template.ScheduledDate, Installment: 1, Installments: 1}, nil
	}

	return domain.NewVirtualOccurrence(template, month), nil
}

// ConfirmSettlement marks occ settled on date. A concrete occurrence is
// updated in place. A virtual one is materialized into a new non-fixed row
// linked to its template; the template is left untouched.
func (uc *SettlementUseCase) ConfirmSettlement(ctx context.Context, occ domain.Occurrence, date domain.Date) (*domain.ObligationRow, error) {
	start := time.Now()
	now := uc.now().UTC()

	if err := checkSettledOn(&date, now); err != nil {
		return nil, err
	}

	var (
		row *domain.ObligationRow
		err error
	)

	switch o := occ.(type) {
	case *domain.ConcreteOccurrence:
		row, err = uc.settleConcrete(ctx, o.Row.ID, date, now)
	case *domain.VirtualOccurrence:
		row, err = uc.confirmVirtual(ctx, o, date, now)
	default:
		err = domain.ErrInvalidOccurrenceID
	}

	if err != nil {
		uc.countError("confirm", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SettlementsConfirmed.Inc()
		uc.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}

	return row, nil
}

// ReverseSettlement clears the settlement of a stored occurrence. The row
// stays concrete; there is no way back to virtual.
func (uc *SettlementUseCase) ReverseSettlement(ctx context.Context, occ domain.Occurrence) (*domain.ObligationRow, error) {
	start := time.Now()

	concrete, ok := occ.(*domain.ConcreteOccurrence)
	if !ok {
		uc.countError("reverse", domain.ErrOccurrenceNotConcrete)
		return nil, domain.ErrOccurrenceNotConcrete
	}

	now := uc.now().UTC()

	var reversed *domain.ObligationRow
	err := inTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		row, err := uc.repo.GetByIDForUpdate(ctx, tx, concrete.Row.ID)
		if err != nil {
			return err
		}

		row.Unsettle()
		row.UpdatedAt = now

		if err := uc.repo.Update(ctx, tx, row); err != nil {
			return err
		}
		if err := uc.emit(ctx, tx, domain.EventTypeOccurrenceReversed, row, now); err != nil {
			return err
		}

		reversed = row
		return nil
	})
	if err != nil {
		uc.countError("reverse", err)
		return nil, err
	}

	uc.snapshots.Invalidate(ctx)

	if uc.metrics != nil {
		uc.metrics.SettlementsReversed.Inc()
		uc.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}

	return reversed, nil
}

func (uc *SettlementUseCase) settleConcrete(ctx context.Context, id string, date domain.Date, now time.Time) (*domain.ObligationRow, error) {
	var settled *domain.ObligationRow
	err := inTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		row, err := uc.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		row.Settle(date)
		row.UpdatedAt = now

		if err := uc.repo.Update(ctx, tx, row); err != nil {
			return err
		}
		if err := uc.emit(ctx, tx, domain.EventTypeOccurrenceSettled, row, now); err != nil {
			return err
		}

		settled = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.snapshots.Invalidate(ctx)
	return settled, nil
}

// confirmVirtual materializes v. Concurrent calls for the same virtual id
// share one attempt and all receive its row. A caller whose ctx ends first
// gets ctx.Err() while the attempt runs to completion.
func (uc *SettlementUseCase) confirmVirtual(ctx context.Context, v *domain.VirtualOccurrence, date domain.Date, now time.Time) (*domain.ObligationRow, error) {
	// attemptCtx keeps values but not cancellation; callers wait on their own ctx.
	attemptCtx := context.WithoutCancel(ctx)
	ch := uc.inflight.DoChan(v.OccurrenceID(), func() (any, error) {
		return uc.materialize(attemptCtx, v, date, now)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared && uc.metrics != nil {
			uc.metrics.CoalescedConfirmations.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.ObligationRow).Clone(), nil
	}
}

func (uc *SettlementUseCase) materialize(ctx context.Context, v *domain.VirtualOccurrence, date domain.Date, now time.Time) (*domain.ObligationRow, error) {
	templateID := v.Template.ID

	var created *domain.ObligationRow
	err := inTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		// Locking the template serializes materializations of its months.
		template, err := uc.repo.GetByIDForUpdate(ctx, tx, templateID)
		if err != nil {
			return err
		}
		if !template.IsFixed {
			return domain.ErrInvalidOccurrenceID
		}

		existing, err := uc.repo.FindMaterialized(ctx, tx, templateID, v.Month)
		switch {
		case err == nil:
			return &domain.ConflictError{Existing: existing, TemplateID: templateID, Month: v.Month}
		case !errors.Is(err, domain.ErrObligationNotFound):
			return err
		}

		row := domain.NewVirtualOccurrence(template, v.Month).Materialize(uc.idGen.Generate(), date, now)
		if err := row.Validate(); err != nil {
			return err
		}

		if err := uc.repo.Create(ctx, tx, row); err != nil {
			if errors.Is(err, domain.ErrAlreadyMaterialized) {
				return &domain.ConflictError{TemplateID: templateID, Month: v.Month}
			}
			return err
		}
		if err := uc.emit(ctx, tx, domain.EventTypeOccurrenceMaterialized, row, now); err != nil {
			return err
		}

		created = row
		return nil
	})
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			uc.logger.Info().
				Str("template_id", templateID).
				Str("month", v.Month.String()).
				Msg("occurrence already materialized")
			if uc.metrics != nil {
				uc.metrics.MaterializeConflicts.Inc()
			}
		}
		return nil, err
	}

	uc.snapshots.Invalidate(ctx)

	if uc.metrics != nil {
		uc.metrics.Materializations.Inc()
	}

	uc.logger.Debug().
		Str("template_id", templateID).
		Str("month", v.Month.String()).
		Str("row_id", created.ID).
		Msg("materialized occurrence")

	return created, nil
}

func (uc *SettlementUseCase) emit(ctx context.Context, tx Transaction, eventType string, row *domain.ObligationRow, at time.Time) error {
	return uc.outboxRepo.Create(ctx, tx, domain.NewObligationEvent(uc.idGen.Generate(), eventType, row, at))
}

func (uc *SettlementUseCase) countError(op string, err error) {
	if uc.metrics == nil {
		return
	}
	if errors.Is(err, domain.ErrAlreadyMaterialized) {
		op += "_conflict"
	}
	uc.metrics.SettlementErrors.WithLabelValues(op).Inc()
}
