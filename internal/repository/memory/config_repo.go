package memory

import (
	"context"
	"fmt"
	"sort"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/google/uuid"
)

type ConfigEntryRepository struct {
	store *Store

	// CreateErr, when set, fails the next Create call. Lets tests simulate
	// a mid-batch store failure.
	CreateErr error
}

func NewConfigEntryRepository(store *Store) *ConfigEntryRepository {
	return &ConfigEntryRepository{store: store}
}

func (r *ConfigEntryRepository) Create(ctx context.Context, entry *model.ConfigEntry) error {
	if r.CreateErr != nil {
		err := r.CreateErr
		r.CreateErr = nil
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.store.configs[entry.ID] = *entry
	return nil
}

func (r *ConfigEntryRepository) Save(ctx context.Context, entry *model.ConfigEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.configs[entry.ID]; !exists {
		return fmt.Errorf("%w: config entry %s", repository.ErrNotFound, entry.ID)
	}
	r.store.configs[entry.ID] = *entry
	return nil
}

func (r *ConfigEntryRepository) FindActiveForYear(ctx context.Context, key string, taxYear int) ([]model.ConfigEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []model.ConfigEntry
	for _, e := range r.store.configs {
		if e.Key == key && e.IsActive && e.CoversYear(taxYear) {
			result = append(result, e)
		}
	}
	sortConfigsByFromDesc(result)
	return result, nil
}

func (r *ConfigEntryRepository) FindOpenVersion(ctx context.Context, key string) (*model.ConfigEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.configs {
		if e.Key == key && e.IsActive && e.ValidUntilTaxYear == nil {
			entry := e
			return &entry, nil
		}
	}
	return nil, fmt.Errorf("%w: open config version for key %s", repository.ErrNotFound, key)
}

func (r *ConfigEntryRepository) CountOverlapping(ctx context.Context, key string, from int, until *int, excludeID *uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, e := range r.store.configs {
		if e.Key != key || !e.IsActive {
			continue
		}
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		if model.WindowsOverlap(e.ValidFromTaxYear, e.ValidUntilTaxYear, from, until) {
			count++
		}
	}
	return count, nil
}

func (r *ConfigEntryRepository) FindByKey(ctx context.Context, key string) ([]model.ConfigEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []model.ConfigEntry
	for _, e := range r.store.configs {
		if e.Key == key {
			result = append(result, e)
		}
	}
	sortConfigsByFromDesc(result)
	return result, nil
}

func (r *ConfigEntryRepository) List(ctx context.Context, page, limit int) ([]model.ConfigEntry, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	all := make([]model.ConfigEntry, 0, len(r.store.configs))
	for _, e := range r.store.configs {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Key != all[j].Key {
			return all[i].Key < all[j].Key
		}
		return all[i].ValidFromTaxYear > all[j].ValidFromTaxYear
	})

	return paginate(all, page, limit), int64(len(all)), nil
}

func sortConfigsByFromDesc(entries []model.ConfigEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ValidFromTaxYear > entries[j].ValidFromTaxYear
	})
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = len(items)
	}
	offset := (page - 1) * limit
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
