package memory

import (
	"taxengine/internal/repository"
)

var (
	_ repository.ConfigEntryRepository = (*ConfigEntryRepository)(nil)
	_ repository.RuleRepository        = (*RuleRepository)(nil)
	_ repository.CategoryRepository    = (*CategoryRepository)(nil)
	_ repository.LawUpdateRepository   = (*LawUpdateRepository)(nil)
	_ repository.AuditRepository       = (*AuditRepository)(nil)
	_ repository.TransactionManager    = (*TransactionManager)(nil)
)
