package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/infrastructure/metrics"
)

// ObligationUseCase handles obligation rows and month projections.
type ObligationUseCase struct {
	txManager  TransactionManager
	repo       ObligationRepository
	outboxRepo OutboxRepository
	snapshots  *Snapshots
	retrier    Retrier
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewObligationUseCase creates a new ObligationUseCase.
func NewObligationUseCase(
	txManager TransactionManager,
	repo ObligationRepository,
	outboxRepo OutboxRepository,
	snapshots *Snapshots,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ObligationUseCase {
	return &ObligationUseCase{
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
func (uc *ObligationUseCase) WithClock(now func() time.Time) *ObligationUseCase {
	uc.now = now
	return uc
}

// ObligationInput represents input for creating or fully editing a row.
type ObligationInput struct {
	ScheduledDate  domain.Date
	Amount         decimal.Decimal
	SettledDate    *domain.Date
	CategoryID     *string
	CounterpartyID *string
	ResponsibleID  *string
	Kind           domain.Kind
	Description    string
	Installments   int
	IsFixed        bool
}

// Validate checks the input before it reaches the store.
func (in ObligationInput) Validate() error {
	return in.row("", time.Time{}).Validate()
}

// Patch converts the input into a patch that overwrites every field.
func (in ObligationInput) Patch() domain.ObligationPatch {
	kind := in.Kind
	description := in.Description
	amount := in.Amount
	scheduled := in.ScheduledDate
	isFixed := in.IsFixed
	installments := in.Installments

	settlement := domain.Unsettled()
	if in.SettledDate != nil {
		settlement = domain.SettledOn(*in.SettledDate)
	}

	return domain.ObligationPatch{
		Kind:           &kind,
		Description:    &description,
		Amount:         &amount,
		ScheduledDate:  &scheduled,
		IsFixed:        &isFixed,
		Installments:   &installments,
		CategoryID:     refOrClear(in.CategoryID),
		CounterpartyID: refOrClear(in.CounterpartyID),
		ResponsibleID:  refOrClear(in.ResponsibleID),
		Settlement:     settlement,
	}
}

func (in ObligationInput) row(id string, now time.Time) *domain.ObligationRow {
	installments := in.Installments
	if installments == 0 {
		installments = 1
	}

	row := &domain.ObligationRow{
		ID:             id,
		Kind:           in.Kind,
		Description:    in.Description,
		Amount:         in.Amount,
		ScheduledDate:  in.ScheduledDate,
		IsFixed:        in.IsFixed,
		Installments:   installments,
		CategoryID:     in.CategoryID,
		CounterpartyID: in.CounterpartyID,
		ResponsibleID:  in.ResponsibleID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.SettledDate != nil {
		row.Settle(*in.SettledDate)
	}
	return row
}

func refOrClear(s *string) *string {
	if s == nil {
		empty := ""
		return &empty
	}
	return s
}

// CreateObligation stores a new row.
func (uc *ObligationUseCase) CreateObligation(ctx context.Context, input ObligationInput) (*domain.ObligationRow, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	if err := checkSettledOn(input.SettledDate, now); err != nil {
		return nil, err
	}

	row := input.row(uc.idGen.Generate(), now)

	err := inTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		if err := uc.repo.Create(ctx, tx, row); err != nil {
			return err
		}
		return uc.emit(ctx, tx, domain.EventTypeObligationCreated, row, now)
	})
	if err != nil {
		return nil, err
	}

	uc.snapshots.Invalidate(ctx)
	uc.countOperation("create")

	return row, nil
}

// GetObligation retrieves a row by ID.
func (uc *ObligationUseCase) GetObligation(ctx context.Context, id string) (*domain.ObligationRow, error) {
	return uc.repo.GetByID(ctx, id)
}

// ListObligations returns every stored row.
func (uc *ObligationUseCase) ListObligations(ctx context.Context) ([]*domain.ObligationRow, error) {
	return uc.snapshots.Load(ctx)
}

// UpdateObligation applies patch to the stored row id.
func (uc *ObligationUseCase) UpdateObligation(ctx context.Context, id string, patch domain.ObligationPatch) (*domain.ObligationRow, error) {
	if domain.IsVirtualID(id) {
		return nil, domain.ErrOccurrenceNotConcrete
	}
	if s := patch.Settlement; s != nil && s.Settled && s.Date == nil {
		return nil, domain.ErrInvalidSettlementDate
	}

	now := uc.now().UTC()

	var updated *domain.ObligationRow
	err := inTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		row, err := uc.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		next := row.Clone()
		next.Apply(patch)
		next.UpdatedAt = now

		if err := next.Validate(); err != nil {
			return err
		}
		if patch.Settlement != nil {
			if err := checkSettledOn(next.SettledDate, now); err != nil {
				return err
			}
		}

		if err := uc.repo.Update(ctx, tx, next); err != nil {
			return err
		}
		if err := uc.emit(ctx, tx, domain.EventTypeObligationUpdated, next, now); err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.snapshots.Invalidate(ctx)
	uc.countOperation("update")

	return updated, nil
}

// DeleteObligation removes a row. Rows materialized from a deleted template
// keep their reference.
func (uc *ObligationUseCase) DeleteObligation(ctx context.Context, id string) error {
	now := uc.now().UTC()

	err := inTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		row, err := uc.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := uc.repo.Delete(ctx, tx, id); err != nil {
			return err
		}
		return uc.emit(ctx, tx, domain.EventTypeObligationDeleted, row, now)
	})
	if err != nil {
		return err
	}

	uc.snapshots.Invalidate(ctx)
	uc.countOperation("delete")

	return nil
}

// ResolveEditTarget maps an id to what an edit would change. An empty id
// selects nothing; a virtual id selects its template.
func (uc *ObligationUseCase) ResolveEditTarget(ctx context.Context, id string) (domain.EditTarget, error) {
	if id == "" {
		return domain.EditNone{}, nil
	}

	if domain.IsVirtualID(id) {
		templateID, _, err := domain.ParseVirtualID(id)
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
		return &domain.EditTemplate{Template: template}, nil
	}

	row, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.EditTargetFor(row), nil
}

// SaveObligation creates a row for EditNone and overwrites the target otherwise.
func (uc *ObligationUseCase) SaveObligation(ctx context.Context, target domain.EditTarget, input ObligationInput) (*domain.ObligationRow, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	switch t := target.(type) {
	case nil, domain.EditNone:
		return uc.CreateObligation(ctx, input)
	case *domain.EditConcrete:
		return uc.UpdateObligation(ctx, t.Row.ID, input.Patch())
	case *domain.EditTemplate:
		return uc.UpdateObligation(ctx, t.Template.ID, input.Patch())
	default:
		return nil, domain.ErrInvalidOccurrenceID
	}
}

// ProjectMonth projects the current snapshot into month.
func (uc *ObligationUseCase) ProjectMonth(ctx context.Context, month domain.YearMonth) (Projection, error) {
	start := time.Now()

	rows, err := uc.snapshots.Load(ctx)
	if err != nil {
		return Projection{}, err
	}

	p := Project(rows, month)

	for _, a := range p.Anomalies {
		uc.logger.Warn().
			Str("row_id", a.RowID).
			Str("reason", a.Reason).
			Str("month", month.String()).
			Msg("skipping malformed obligation row")
	}

	if uc.metrics != nil {
		uc.metrics.ProjectionsServed.Inc()
		uc.metrics.ProjectionDuration.Observe(time.Since(start).Seconds())
		uc.metrics.ProjectionAnomalies.Add(float64(len(p.Anomalies)))
		for _, occ := range p.Occurrences {
			variant := "concrete"
			if occ.IsVirtual() {
				variant = "virtual"
			}
			uc.metrics.OccurrencesProjected.WithLabelValues(variant).Inc()
		}
	}

	return p, nil
}

func (uc *ObligationUseCase) emit(ctx context.Context, tx Transaction, eventType string, row *domain.ObligationRow, at time.Time) error {
	return uc.outboxRepo.Create(ctx, tx, domain.NewObligationEvent(uc.idGen.Generate(), eventType, row, at))
}

func (uc *ObligationUseCase) countOperation(op string) {
	if uc.metrics != nil {
		uc.metrics.ObligationOperations.WithLabelValues(op).Inc()
	}
}
