package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/usecase"
)

// FakeObligationRepository is an in-memory ObligationRepository. Set a Func
// field to override a method.
type FakeObligationRepository struct {
	mu    sync.RWMutex
	rows  map[string]*domain.ObligationRow
	order []string

	ListFunc             func(ctx context.Context) ([]*domain.ObligationRow, error)
	GetByIDFunc          func(ctx context.Context, id string) (*domain.ObligationRow, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.ObligationRow, error)
	FindMaterializedFunc func(ctx context.Context, tx usecase.Transaction, templateID string, month domain.YearMonth) (*domain.ObligationRow, error)
	CreateFunc           func(ctx context.Context, tx usecase.Transaction, row *domain.ObligationRow) error
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, row *domain.ObligationRow) error
	DeleteFunc           func(ctx context.Context, tx usecase.Transaction, id string) error
}

func NewFakeObligationRepository(rows ...*domain.ObligationRow) *FakeObligationRepository {
	m := &FakeObligationRepository{
		rows: make(map[string]*domain.ObligationRow),
	}
	for _, row := range rows {
		m.rows[row.ID] = row.Clone()
		m.order = append(m.order, row.ID)
	}
	return m
}

func (m *FakeObligationRepository) List(ctx context.Context) ([]*domain.ObligationRow, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]*domain.ObligationRow, 0, len(m.order))
	for _, id := range m.order {
		rows = append(rows, m.rows[id].Clone())
	}
	return rows, nil
}

func (m *FakeObligationRepository) GetByID(ctx context.Context, id string) (*domain.ObligationRow, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.rows[id]; ok {
		return row.Clone(), nil
	}
	return nil, domain.ErrObligationNotFound
}

func (m *FakeObligationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ObligationRow, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *FakeObligationRepository) FindMaterialized(ctx context.Context, tx usecase.Transaction, templateID string, month domain.YearMonth) (*domain.ObligationRow, error) {
	if m.FindMaterializedFunc != nil {
		return m.FindMaterializedFunc(ctx, tx, templateID, month)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row := m.materialized(templateID, month); row != nil {
		return row.Clone(), nil
	}
	return nil, domain.ErrObligationNotFound
}

func (m *FakeObligationRepository) Create(ctx context.Context, tx usecase.Transaction, row *domain.ObligationRow) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, row)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if row.OriginalTemplateID != nil && !row.IsFixed && m.materialized(*row.OriginalTemplateID, row.AnchorMonth()) != nil {
		return domain.ErrAlreadyMaterialized
	}
	m.rows[row.ID] = row.Clone()
	m.order = append(m.order, row.ID)
	return nil
}

func (m *FakeObligationRepository) Update(ctx context.Context, tx usecase.Transaction, row *domain.ObligationRow) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, row)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[row.ID]; !ok {
		return domain.ErrObligationNotFound
	}
	m.rows[row.ID] = row.Clone()
	return nil
}

func (m *FakeObligationRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrObligationNotFound
	}
	delete(m.rows, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored rows.
func (m *FakeObligationRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *FakeObligationRepository) materialized(templateID string, month domain.YearMonth) *domain.ObligationRow {
	for _, id := range m.order {
		row := m.rows[id]
		if row.IsMaterializedFrom(templateID) && row.AnchorMonth() == month {
			return row
		}
	}
	return nil
}

// FakeOutboxRepository records created events.
type FakeOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewFakeOutboxRepository() *FakeOutboxRepository {
	return &FakeOutboxRepository{}
}

func (m *FakeOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *FakeOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published && len(events) < limit {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *FakeOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			at := publishedAt
			e.Published = true
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *FakeOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// EventTypes returns the recorded event types in order.
func (m *FakeOutboxRepository) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.EventType)
	}
	return types
}

// FakeTransactionManager is a func-field implementation of TransactionManager.
type FakeTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &FakeTransaction{}, nil
}

// FakeTransaction is a func-field implementation of Transaction.
type FakeTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *FakeTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *FakeTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// FakeIDGenerator returns id-1, id-2, ... unless GenerateFunc is set.
type FakeIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewFakeIDGenerator() *FakeIDGenerator {
	return &FakeIDGenerator{}
}

func (m *FakeIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "id-" + strconv.Itoa(m.counter)
}

// FakeCache is an in-memory Cache.
type FakeCache struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewFakeCache() *FakeCache {
	return &FakeCache{
		data: make(map[string][]byte),
	}
}

func (m *FakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *FakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *FakeCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Has reports whether key is cached.
func (m *FakeCache) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

// FakeIdempotencyStore is an in-memory IdempotencyStore.
type FakeIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewFakeIdempotencyStore() *FakeIdempotencyStore {
	return &FakeIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *FakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *FakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *FakeIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

var (
	_ usecase.ObligationRepository = (*FakeObligationRepository)(nil)
	_ usecase.OutboxRepository     = (*FakeOutboxRepository)(nil)
	_ usecase.TransactionManager   = (*FakeTransactionManager)(nil)
	_ usecase.IDGenerator          = (*FakeIDGenerator)(nil)
	_ usecase.Cache                = (*FakeCache)(nil)
	_ usecase.IdempotencyStore     = (*FakeIdempotencyStore)(nil)
)
