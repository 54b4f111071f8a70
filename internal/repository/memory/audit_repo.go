package memory

import (
	"context"

	"taxengine/internal/model"

	"github.com/google/uuid"
)

type AuditRepository struct {
	store *Store
}

func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

func (r *AuditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.store.audits = append(r.store.audits, *entry)
	return nil
}

func (r *AuditRepository) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	// Newest first
	all := make([]model.AuditLog, 0, len(r.store.audits))
	for i := len(r.store.audits) - 1; i >= 0; i-- {
		all = append(all, r.store.audits[i])
	}

	return paginate(all, page, limit), int64(len(all)), nil
}
