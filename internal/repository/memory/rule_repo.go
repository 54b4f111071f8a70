package memory

import (
	"context"
	"fmt"
	"sort"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/google/uuid"
)

type RuleRepository struct {
	store *Store

	// CreateErr, when set, fails the next Create call.
	CreateErr error
}

func NewRuleRepository(store *Store) *RuleRepository {
	return &RuleRepository{store: store}
}

func (r *RuleRepository) Create(ctx context.Context, rule *model.Rule) error {
	if r.CreateErr != nil {
		err := r.CreateErr
		r.CreateErr = nil
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	r.store.rules[rule.ID] = *rule
	return nil
}

func (r *RuleRepository) Save(ctx context.Context, rule *model.Rule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.rules[rule.ID]; !exists {
		return fmt.Errorf("%w: rule %s", repository.ErrNotFound, rule.ID)
	}
	r.store.rules[rule.ID] = *rule
	return nil
}

func (r *RuleRepository) FindActiveForYear(ctx context.Context, ruleCode string, taxYear int) ([]model.Rule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []model.Rule
	for _, rule := range r.store.rules {
		if rule.RuleCode == ruleCode && rule.IsActive && rule.CoversYear(taxYear) {
			result = append(result, rule)
		}
	}
	sortRulesByFromDesc(result)
	return result, nil
}

func (r *RuleRepository) FindOpenVersion(ctx context.Context, ruleCode string) (*model.Rule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, rule := range r.store.rules {
		if rule.RuleCode == ruleCode && rule.IsActive && rule.ValidUntilTaxYear == nil {
			found := rule
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: open rule version for code %s", repository.ErrNotFound, ruleCode)
}

func (r *RuleRepository) CountOverlapping(ctx context.Context, ruleCode string, from int, until *int, excludeID *uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, rule := range r.store.rules {
		if rule.RuleCode != ruleCode || !rule.IsActive {
			continue
		}
		if excludeID != nil && rule.ID == *excludeID {
			continue
		}
		if model.WindowsOverlap(rule.ValidFromTaxYear, rule.ValidUntilTaxYear, from, until) {
			count++
		}
	}
	return count, nil
}

func (r *RuleRepository) ListActive(ctx context.Context, ruleType string, taxYear int) ([]model.Rule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []model.Rule
	for _, rule := range r.store.rules {
		if !rule.IsActive || !rule.CoversYear(taxYear) {
			continue
		}
		if ruleType != "" && rule.RuleType != ruleType {
			continue
		}
		result = append(result, rule)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RuleCode < result[j].RuleCode
	})
	return result, nil
}

func (r *RuleRepository) FindByCode(ctx context.Context, ruleCode string) ([]model.Rule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []model.Rule
	for _, rule := range r.store.rules {
		if rule.RuleCode == ruleCode {
			result = append(result, rule)
		}
	}
	sortRulesByFromDesc(result)
	return result, nil
}

func (r *RuleRepository) List(ctx context.Context, page, limit int) ([]model.Rule, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	all := make([]model.Rule, 0, len(r.store.rules))
	for _, rule := range r.store.rules {
		all = append(all, rule)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].RuleCode != all[j].RuleCode {
			return all[i].RuleCode < all[j].RuleCode
		}
		return all[i].ValidFromTaxYear > all[j].ValidFromTaxYear
	})

	return paginate(all, page, limit), int64(len(all)), nil
}

func sortRulesByFromDesc(rules []model.Rule) {
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].ValidFromTaxYear > rules[j].ValidFromTaxYear
	})
}
