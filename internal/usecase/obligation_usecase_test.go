package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/usecase"
	"github.com/iho/duebook/internal/usecase/mocks"
)

type obligationFixture struct {
	uc     *usecase.ObligationUseCase
	repo   *mocks.FakeObligationRepository
	outbox *mocks.FakeOutboxRepository
	cache  *mocks.FakeCache
}

func newObligationFixture(rows ...*domain.ObligationRow) *obligationFixture {
	repo := mocks.NewFakeObligationRepository(rows...)
	outbox := mocks.NewFakeOutboxRepository()
	cache := mocks.NewFakeCache()
	snapshots := usecase.NewSnapshots(repo, cache, time.Minute, nil, zerolog.Nop())

	uc := usecase.NewObligationUseCase(
		mocks.NewFakeTransactionManager(),
		repo,
		outbox,
		snapshots,
		nil,
		mocks.NewFakeIDGenerator(),
		nil,
		zerolog.Nop(),
	).WithClock(clock)

	return &obligationFixture{uc: uc, repo: repo, outbox: outbox, cache: cache}
}

func validInput() usecase.ObligationInput {
	return usecase.ObligationInput{
		Kind:          domain.KindExpense,
		Description:   "Internet",
		Amount:        decimal.RequireFromString("59.90"),
		ScheduledDate: domain.NewDate(2024, time.March, 10),
		IsFixed:       true,
	}
}

func TestObligationInput_Validate(t *testing.T) {
	future := domain.NewDate(2024, time.March, 20)

	tests := []struct {
		name    string
		mutate  func(in *usecase.ObligationInput)
		wantErr error
	}{
		{name: "valid", mutate: func(in *usecase.ObligationInput) {}},
		{name: "missing kind", mutate: func(in *usecase.ObligationInput) { in.Kind = "" }, wantErr: domain.ErrInvalidKind},
		{name: "empty description", mutate: func(in *usecase.ObligationInput) { in.Description = "  " }, wantErr: domain.ErrEmptyDescription},
		{name: "three decimals", mutate: func(in *usecase.ObligationInput) { in.Amount = decimal.RequireFromString("1.005") }, wantErr: domain.ErrInvalidAmount},
		{name: "bad date", mutate: func(in *usecase.ObligationInput) { in.ScheduledDate = domain.Date{} }, wantErr: domain.ErrInvalidDate},
		{name: "too many installments", mutate: func(in *usecase.ObligationInput) {
			in.IsFixed = false
			in.Installments = domain.MaxInstallments + 1
		}, wantErr: domain.ErrInvalidInstallments},
		{name: "negative installments", mutate: func(in *usecase.ObligationInput) {
			in.IsFixed = false
			in.Installments = -2
		}, wantErr: domain.ErrInvalidInstallments},
		{name: "settled date is only checked against the clock later", mutate: func(in *usecase.ObligationInput) { in.SettledDate = &future }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestObligationUseCase_CreateObligation(t *testing.T) {
	f := newObligationFixture()
	ctx := context.Background()
	f.cache.Set(ctx, usecase.SnapshotCacheKey, []byte("[]"), time.Minute)

	row, err := f.uc.CreateObligation(ctx, validInput())
	require.NoError(t, err)

	assert.Equal(t, "id-1", row.ID)
	assert.True(t, row.IsFixed)
	assert.Equal(t, 1, row.Installments)
	assert.True(t, row.CreatedAt.Equal(fixedNow))
	assert.False(t, f.cache.Has(usecase.SnapshotCacheKey))
	assert.Equal(t, []string{domain.EventTypeObligationCreated}, f.outbox.EventTypes())

	stored, err := f.repo.GetByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, "Internet", stored.Description)
}

func TestObligationUseCase_CreateRejectsFutureSettlement(t *testing.T) {
	f := newObligationFixture()
	future := domain.NewDate(2024, time.April, 1)
	in := validInput()
	in.SettledDate = &future

	_, err := f.uc.CreateObligation(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidSettlementDate)
	assert.Zero(t, f.repo.Len())
}

func TestObligationUseCase_UpdateObligation(t *testing.T) {
	f := newObligationFixture(rentTemplate())
	ctx := context.Background()

	amount := decimal.RequireFromString("1300.00")
	category := "housing"
	row, err := f.uc.UpdateObligation(ctx, "tpl", domain.ObligationPatch{Amount: &amount, CategoryID: &category})
	require.NoError(t, err)

	assert.True(t, row.Amount.Equal(amount))
	require.NotNil(t, row.CategoryID)
	assert.Equal(t, "housing", *row.CategoryID)
	assert.Equal(t, "Rent", row.Description)
	assert.True(t, row.UpdatedAt.Equal(fixedNow))
	assert.Equal(t, []string{domain.EventTypeObligationUpdated}, f.outbox.EventTypes())

	// Future virtual months carry the new amount.
	rows, _ := f.repo.List(ctx)
	p := usecase.Project(rows, ym(2024, time.June))
	require.Len(t, p.Occurrences, 1)
	assert.True(t, p.Occurrences[0].View().Amount.Equal(amount))
}

func TestObligationUseCase_UpdateObligationErrors(t *testing.T) {
	f := newObligationFixture(rentTemplate())
	ctx := context.Background()

	empty := ""
	_, err := f.uc.UpdateObligation(ctx, "tpl", domain.ObligationPatch{Description: &empty})
	assert.ErrorIs(t, err, domain.ErrEmptyDescription)

	_, err = f.uc.UpdateObligation(ctx, "missing", domain.ObligationPatch{Description: &empty})
	assert.ErrorIs(t, err, domain.ErrObligationNotFound)

	_, err = f.uc.UpdateObligation(ctx, "virtual:tpl:2024-05", domain.ObligationPatch{})
	assert.ErrorIs(t, err, domain.ErrOccurrenceNotConcrete)

	_, err = f.uc.UpdateObligation(ctx, "tpl", domain.ObligationPatch{Settlement: &domain.Settlement{Settled: true}})
	assert.ErrorIs(t, err, domain.ErrInvalidSettlementDate)

	_, err = f.uc.UpdateObligation(ctx, "tpl", domain.ObligationPatch{Settlement: domain.SettledOn(domain.NewDate(2024, time.December, 1))})
	assert.ErrorIs(t, err, domain.ErrInvalidSettlementDate)

	assert.Empty(t, f.outbox.EventTypes())
}

func TestObligationUseCase_UpdateMaterializedRowKeepsOneInstallment(t *testing.T) {
	templateID := "tpl"
	materialized := &domain.ObligationRow{
		ID:                 "m",
		Kind:               domain.KindExpense,
		Description:        "Rent",
		Amount:             decimal.RequireFromString("1200.00"),
		ScheduledDate:      domain.NewDate(2024, time.February, 29),
		Installments:       1,
		OriginalTemplateID: &templateID,
	}
	f := newObligationFixture(rentTemplate(), materialized)

	three := 3
	_, err := f.uc.UpdateObligation(context.Background(), "m", domain.ObligationPatch{Installments: &three})
	assert.ErrorIs(t, err, domain.ErrInvalidInstallments)

	stored, err := f.repo.GetByID(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Installments)
	assert.Empty(t, f.outbox.EventTypes())
}

func TestObligationUseCase_DeleteTemplateKeepsMaterializedRows(t *testing.T) {
	templateID := "tpl"
	materialized := singleRow("mat", domain.NewDate(2024, time.February, 29), 1200)
	materialized.OriginalTemplateID = &templateID
	f := newObligationFixture(rentTemplate(), materialized)
	ctx := context.Background()

	require.NoError(t, f.uc.DeleteObligation(ctx, "tpl"))

	_, err := f.repo.GetByID(ctx, "tpl")
	assert.ErrorIs(t, err, domain.ErrObligationNotFound)

	p, err := f.uc.ProjectMonth(ctx, ym(2024, time.February))
	require.NoError(t, err)
	assert.Equal(t, []string{"mat"}, ids(p))

	p, err = f.uc.ProjectMonth(ctx, ym(2024, time.March))
	require.NoError(t, err)
	assert.Empty(t, p.Occurrences)

	assert.Equal(t, []string{domain.EventTypeObligationDeleted}, f.outbox.EventTypes())
	assert.ErrorIs(t, f.uc.DeleteObligation(ctx, "tpl"), domain.ErrObligationNotFound)
}

func TestObligationUseCase_ResolveEditTarget(t *testing.T) {
	f := newObligationFixture(rentTemplate(), singleRow("single", domain.NewDate(2024, time.March, 3), 40))
	ctx := context.Background()

	target, err := f.uc.ResolveEditTarget(ctx, "")
	require.NoError(t, err)
	assert.IsType(t, domain.EditNone{}, target)

	target, err = f.uc.ResolveEditTarget(ctx, "single")
	require.NoError(t, err)
	concrete, ok := target.(*domain.EditConcrete)
	require.True(t, ok)
	assert.Equal(t, "single", concrete.Row.ID)

	target, err = f.uc.ResolveEditTarget(ctx, "virtual:tpl:2024-07")
	require.NoError(t, err)
	tpl, ok := target.(*domain.EditTemplate)
	require.True(t, ok)
	assert.Equal(t, "tpl", tpl.Template.ID)

	target, err = f.uc.ResolveEditTarget(ctx, "tpl")
	require.NoError(t, err)
	assert.IsType(t, &domain.EditTemplate{}, target)

	_, err = f.uc.ResolveEditTarget(ctx, "virtual:single:2024-07")
	assert.ErrorIs(t, err, domain.ErrInvalidOccurrenceID)
}

func TestObligationUseCase_SaveObligation(t *testing.T) {
	f := newObligationFixture(singleRow("single", domain.NewDate(2024, time.March, 3), 40))
	ctx := context.Background()

	created, err := f.uc.SaveObligation(ctx, domain.EditNone{}, validInput())
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.Len())

	target, err := f.uc.ResolveEditTarget(ctx, "single")
	require.NoError(t, err)

	in := validInput()
	in.IsFixed = false
	in.Installments = 4
	in.Description = "Laptop"
	updated, err := f.uc.SaveObligation(ctx, target, in)
	require.NoError(t, err)
	assert.Equal(t, "single", updated.ID)
	assert.Equal(t, "Laptop", updated.Description)
	assert.Equal(t, 4, updated.Installments)
	assert.NotEqual(t, created.ID, updated.ID)

	in.Description = ""
	_, err = f.uc.SaveObligation(ctx, target, in)
	assert.ErrorIs(t, err, domain.ErrEmptyDescription)
}

func TestObligationUseCase_ProjectMonthUsesCachedSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockObligationRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)

	rows := []*domain.ObligationRow{rentTemplate()}
	data, err := json.Marshal(rows)
	require.NoError(t, err)

	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), usecase.SnapshotCacheKey).Return(nil, nil),
		repo.EXPECT().List(gomock.Any()).Return(rows, nil),
		cache.EXPECT().Set(gomock.Any(), usecase.SnapshotCacheKey, data, time.Minute).Return(nil),
		cache.EXPECT().Get(gomock.Any(), usecase.SnapshotCacheKey).Return(data, nil),
	)

	snapshots := usecase.NewSnapshots(repo, cache, time.Minute, nil, zerolog.Nop())
	uc := usecase.NewObligationUseCase(nil, repo, nil, snapshots, nil, nil, nil, zerolog.Nop())

	first, err := uc.ProjectMonth(context.Background(), ym(2024, time.May))
	require.NoError(t, err)
	second, err := uc.ProjectMonth(context.Background(), ym(2024, time.May))
	require.NoError(t, err)

	assert.Equal(t, []string{"virtual:tpl:2024-05"}, ids(first))
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, first.Occurrences[0].DueDate(), second.Occurrences[0].DueDate())
}

func TestObligationUseCase_ProjectMonthFallsBackWhenCacheFails(t *testing.T) {
	repo := mocks.NewFakeObligationRepository(rentTemplate())
	cache := mocks.NewFakeCache()
	cache.GetFunc = func(ctx context.Context, key string) ([]byte, error) {
		return nil, errors.New("redis down")
	}
	cache.SetFunc = func(ctx context.Context, key string, value []byte, ttl time.Duration) error {
		return errors.New("redis down")
	}

	snapshots := usecase.NewSnapshots(repo, cache, time.Minute, nil, zerolog.Nop())
	uc := usecase.NewObligationUseCase(nil, repo, nil, snapshots, nil, nil, nil, zerolog.Nop())

	p, err := uc.ProjectMonth(context.Background(), ym(2024, time.January))
	require.NoError(t, err)
	assert.Equal(t, []string{"tpl"}, ids(p))
}

func TestObligationUseCase_ProjectMonthStoreUnavailable(t *testing.T) {
	storeDown := errors.New("connection refused")
	repo := mocks.NewFakeObligationRepository()
	repo.ListFunc = func(ctx context.Context) ([]*domain.ObligationRow, error) {
		return nil, storeDown
	}

	snapshots := usecase.NewSnapshots(repo, nil, time.Minute, nil, zerolog.Nop())
	uc := usecase.NewObligationUseCase(nil, repo, nil, snapshots, nil, nil, nil, zerolog.Nop())

	_, err := uc.ProjectMonth(context.Background(), ym(2024, time.January))
	assert.ErrorIs(t, err, storeDown)
}
