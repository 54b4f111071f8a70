package memory

import (
	"context"
	"fmt"
	"sort"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/google/uuid"
)

type LawUpdateRepository struct {
	store *Store
}

func NewLawUpdateRepository(store *Store) *LawUpdateRepository {
	return &LawUpdateRepository{store: store}
}

func (r *LawUpdateRepository) Create(ctx context.Context, update *model.TaxLawUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if update.ID == uuid.Nil {
		update.ID = uuid.New()
	}
	r.store.updates[update.ID] = *update
	return nil
}

func (r *LawUpdateRepository) Save(ctx context.Context, update *model.TaxLawUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.updates[update.ID]; !exists {
		return fmt.Errorf("%w: law update %s", repository.ErrNotFound, update.ID)
	}
	r.store.updates[update.ID] = *update
	return nil
}

func (r *LawUpdateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxLawUpdate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	update, exists := r.store.updates[id]
	if !exists {
		return nil, fmt.Errorf("%w: law update %s", repository.ErrNotFound, id)
	}
	return &update, nil
}

func (r *LawUpdateRepository) FindBySourceRef(ctx context.Context, sourceRef string) (*model.TaxLawUpdate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, update := range r.store.updates {
		if update.SourceRef == sourceRef {
			found := update
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: law update with source ref %s", repository.ErrNotFound, sourceRef)
}

func (r *LawUpdateRepository) List(ctx context.Context, status string, page, limit int) ([]model.TaxLawUpdate, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var all []model.TaxLawUpdate
	for _, update := range r.store.updates {
		if status != "" && update.Status != status {
			continue
		}
		all = append(all, update)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	return paginate(all, page, limit), int64(len(all)), nil
}
