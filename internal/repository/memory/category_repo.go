package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/google/uuid"
)

type CategoryRepository struct {
	store *Store
}

func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.CostCategory) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.categories[category.ID]; exists {
		return fmt.Errorf("category %s already exists", category.ID)
	}
	stored := *category
	if stored.Mapping != nil {
		mapping := *stored.Mapping
		if mapping.ID == uuid.Nil {
			mapping.ID = uuid.New()
		}
		mapping.CategoryID = stored.ID
		r.store.mappings[stored.ID] = mapping
		stored.Mapping = nil
	}
	r.store.categories[category.ID] = stored
	return nil
}

func (r *CategoryRepository) CreateMapping(ctx context.Context, mapping *model.AccountMapping) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	r.store.mappings[mapping.CategoryID] = *mapping
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*model.CostCategory, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	category, exists := r.store.categories[id]
	if !exists {
		return nil, fmt.Errorf("%w: category %s", repository.ErrNotFound, id)
	}
	if mapping, ok := r.store.mappings[id]; ok {
		m := mapping
		category.Mapping = &m
	}
	return &category, nil
}

func (r *CategoryRepository) Search(ctx context.Context, filterText, typeFilter string) ([]model.CostCategory, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	needle := strings.ToLower(filterText)
	var result []model.CostCategory
	for _, c := range r.store.categories {
		if typeFilter != "" && c.Type != typeFilter {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.ID), needle) &&
			!strings.Contains(strings.ToLower(c.Name), needle) &&
			!strings.Contains(strings.ToLower(c.Description), needle) {
			continue
		}
		if mapping, ok := r.store.mappings[c.ID]; ok {
			m := mapping
			c.Mapping = &m
		}
		result = append(result, c)
	}
	sortCategories(result)
	return result, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.CostCategory, error) {
	return r.Search(ctx, "", "")
}

func sortCategories(categories []model.CostCategory) {
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Type != categories[j].Type {
			return categories[i].Type < categories[j].Type
		}
		return categories[i].Name < categories[j].Name
	})
}
