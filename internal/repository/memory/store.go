// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces, with snapshot-based transaction rollback. Used by
// service tests; the production store is gorm/postgres.
package memory

import (
	"context"
	"sync"

	"taxengine/internal/model"

	"github.com/google/uuid"
)

// Store holds all entity maps behind a single lock so a transaction snapshot
// is consistent across repositories.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex // serializes transactions

	configs    map[uuid.UUID]model.ConfigEntry
	rules      map[uuid.UUID]model.Rule
	categories map[string]model.CostCategory
	mappings   map[string]model.AccountMapping // keyed by category id
	updates    map[uuid.UUID]model.TaxLawUpdate
	audits     []model.AuditLog
}

func NewStore() *Store {
	return &Store{
		configs:    make(map[uuid.UUID]model.ConfigEntry),
		rules:      make(map[uuid.UUID]model.Rule),
		categories: make(map[string]model.CostCategory),
		mappings:   make(map[string]model.AccountMapping),
		updates:    make(map[uuid.UUID]model.TaxLawUpdate),
	}
}

type storeState struct {
	configs    map[uuid.UUID]model.ConfigEntry
	rules      map[uuid.UUID]model.Rule
	categories map[string]model.CostCategory
	mappings   map[string]model.AccountMapping
	updates    map[uuid.UUID]model.TaxLawUpdate
	audits     []model.AuditLog
}

func (s *Store) snapshot() storeState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := storeState{
		configs:    make(map[uuid.UUID]model.ConfigEntry, len(s.configs)),
		rules:      make(map[uuid.UUID]model.Rule, len(s.rules)),
		categories: make(map[string]model.CostCategory, len(s.categories)),
		mappings:   make(map[string]model.AccountMapping, len(s.mappings)),
		updates:    make(map[uuid.UUID]model.TaxLawUpdate, len(s.updates)),
		audits:     make([]model.AuditLog, len(s.audits)),
	}
	for k, v := range s.configs {
		state.configs[k] = v
	}
	for k, v := range s.rules {
		state.rules[k] = v
	}
	for k, v := range s.categories {
		state.categories[k] = v
	}
	for k, v := range s.mappings {
		state.mappings[k] = v
	}
	for k, v := range s.updates {
		state.updates[k] = v
	}
	copy(state.audits, s.audits)
	return state
}

func (s *Store) restore(state storeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs = state.configs
	s.rules = state.rules
	s.categories = state.categories
	s.mappings = state.mappings
	s.updates = state.updates
	s.audits = state.audits
}

// TransactionManager implements repository.TransactionManager over a Store.
// On error the whole store is rolled back to the pre-transaction snapshot,
// so multi-record writes are all-or-nothing like their SQL counterpart.
type TransactionManager struct {
	store *Store
}

func NewTransactionManager(store *Store) *TransactionManager {
	return &TransactionManager{store: store}
}

func (t *TransactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}
