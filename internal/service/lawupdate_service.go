package service

import (
	"context"
	"fmt"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/repository"
	"taxengine/pkg/metrics"

	"github.com/google/uuid"
)

// --- Collaborators ---

// Classification is the external classifier's verdict on a law-update
// candidate.
type Classification struct {
	RelevanceScore   int      // 0-100
	AffectedTaxTypes []string // tags such as "income_tax", "speculation_tax"
}

// RelevanceClassifier scores a legislative-change candidate. Retries and
// timeouts are the caller's concern; Analyze is idempotent so a retry with
// backoff needs no extra locking here.
type RelevanceClassifier interface {
	Classify(ctx context.Context, title, summary string) (Classification, error)
}

// LawUpdateCandidate is a raw hit from the monitored legal source.
type LawUpdateCandidate struct {
	Title     string
	Summary   string
	SourceRef string
}

// LegalSourceMonitor supplies new law-update candidates. Candidates are
// never invented inside the engine.
type LegalSourceMonitor interface {
	FetchCandidates(ctx context.Context) ([]LawUpdateCandidate, error)
}

// EventBroadcaster pushes lifecycle events to connected admin sessions.
type EventBroadcaster interface {
	BroadcastEvent(event string, payload interface{})
}

// --- DTOs ---

type DetectLawUpdateRequest struct {
	Title     string `json:"title" binding:"required"`
	Summary   string `json:"summary"`
	SourceRef string `json:"source_ref"`
}

type ProducedChange struct {
	Kind   string                    `json:"kind" binding:"required,oneof=config rule"`
	Config *CreateConfigEntryRequest `json:"config,omitempty"`
	Rule   *CreateRuleRequest        `json:"rule,omitempty"`
}

type ReviewLawUpdateRequest struct {
	Decision string           `json:"decision" binding:"required,oneof=approve reject"`
	Reason   string           `json:"reason"`
	Changes  []ProducedChange `json:"changes"`
}

type LawUpdateFilter struct {
	Status string
	Page   int
	Limit  int
}

type LawUpdateResponse struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	SourceRef        string   `json:"source_ref"`
	Status           string   `json:"status"`
	RelevanceScore   int      `json:"relevance_score"`
	AffectedTaxTypes []string `json:"affected_tax_types"`
	ReviewedBy       *string  `json:"reviewed_by"`
	ReviewedAt       *string  `json:"reviewed_at"`
	RejectionReason  string   `json:"rejection_reason"`
	CreatedAt        string   `json:"created_at"`
}

// --- Interface ---

type LawUpdateService interface {
	Detect(ctx context.Context, req DetectLawUpdateRequest) (LawUpdateResponse, error)
	Scan(ctx context.Context) (int, error)
	Analyze(ctx context.Context, id string) (LawUpdateResponse, error)
	Review(ctx context.Context, id string, req ReviewLawUpdateRequest, userID string) (LawUpdateResponse, error)
	ListUpdates(ctx context.Context, filter LawUpdateFilter) ([]LawUpdateResponse, int64, error)
}

type lawUpdateService struct {
	repo       repository.LawUpdateRepository
	configRepo repository.ConfigEntryRepository
	ruleRepo   repository.RuleRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	classifier RelevanceClassifier
	monitor    LegalSourceMonitor
	hub        EventBroadcaster // optional
	cutoff     int              // relevance score below which Analyze auto-rejects
}

func NewLawUpdateService(
	repo repository.LawUpdateRepository,
	configRepo repository.ConfigEntryRepository,
	ruleRepo repository.RuleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	classifier RelevanceClassifier,
	monitor LegalSourceMonitor,
	hub EventBroadcaster,
	relevanceCutoff int,
) LawUpdateService {
	return &lawUpdateService{
		repo:       repo,
		configRepo: configRepo,
		ruleRepo:   ruleRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		classifier: classifier,
		monitor:    monitor,
		hub:        hub,
		cutoff:     relevanceCutoff,
	}
}

// --- Implementation ---

func (s *lawUpdateService) Detect(ctx context.Context, req DetectLawUpdateRequest) (LawUpdateResponse, error) {
	update := model.TaxLawUpdate{
		Title:     req.Title,
		Summary:   req.Summary,
		SourceRef: req.SourceRef,
		Status:    model.LawUpdateDetected,
	}
	update.SetTaxTypeTags(nil)

	if err := s.repo.Create(ctx, &update); err != nil {
		return LawUpdateResponse{}, fmt.Errorf("failed to create law update: %w", err)
	}

	writeAudit(ctx, s.auditRepo, "", model.ActionDetectLawUpdate, update.ID.String(), req.Title,
		map[string]interface{}{"source_ref": req.SourceRef})
	s.broadcast("law_update_detected", &update)
	metrics.LawUpdateTransitions.WithLabelValues(model.LawUpdateDetected).Inc()

	return toLawUpdateResponse(update), nil
}

// Scan pulls fresh candidates from the legal source monitor and records the
// unseen ones. Seen candidates are matched by source ref.
func (s *lawUpdateService) Scan(ctx context.Context) (int, error) {
	if s.monitor == nil {
		return 0, fmt.Errorf("no legal source monitor configured")
	}

	candidates, err := s.monitor.FetchCandidates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch law update candidates: %w", err)
	}

	created := 0
	for _, c := range candidates {
		if c.SourceRef != "" {
			if _, err := s.repo.FindBySourceRef(ctx, c.SourceRef); err == nil {
				continue
			} else if !isNotFound(err) {
				return created, fmt.Errorf("failed to dedupe candidate %q: %w", c.SourceRef, err)
			}
		}

		if _, err := s.Detect(ctx, DetectLawUpdateRequest{Title: c.Title, Summary: c.Summary, SourceRef: c.SourceRef}); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}

// Analyze scores the update via the external classifier and routes it to
// PENDING_REVIEW, or straight to REJECTED below the relevance cutoff.
// Calling it on an update past analysis is a no-op returning the current
// state, so callers may retry freely after a crash.
func (s *lawUpdateService) Analyze(ctx context.Context, id string) (LawUpdateResponse, error) {
	updateID, err := uuid.Parse(id)
	if err != nil {
		return LawUpdateResponse{}, fmt.Errorf("%w: invalid law update id", ErrValidation)
	}

	update, err := s.repo.FindByID(ctx, updateID)
	if err != nil {
		if isNotFound(err) {
			return LawUpdateResponse{}, fmt.Errorf("%w: law update %s", repository.ErrNotFound, id)
		}
		return LawUpdateResponse{}, fmt.Errorf("failed to load law update: %w", err)
	}

	// Idempotence: anything already past analysis keeps its state.
	if update.Status != model.LawUpdateDetected && update.Status != model.LawUpdateAnalyzing {
		return toLawUpdateResponse(*update), nil
	}

	if update.Status == model.LawUpdateDetected {
		update.Status = model.LawUpdateAnalyzing
		if err := s.repo.Save(ctx, update); err != nil {
			return LawUpdateResponse{}, fmt.Errorf("failed to mark law update analyzing: %w", err)
		}
		metrics.LawUpdateTransitions.WithLabelValues(model.LawUpdateAnalyzing).Inc()
	}

	verdict, err := s.classifier.Classify(ctx, update.Title, update.Summary)
	if err != nil {
		// Stays ANALYZING; the caller retries and Analyze picks it up again.
		return LawUpdateResponse{}, fmt.Errorf("classification failed: %w", err)
	}

	update.RelevanceScore = clampScore(verdict.RelevanceScore)
	update.SetTaxTypeTags(verdict.AffectedTaxTypes)

	if update.RelevanceScore < s.cutoff {
		update.Status = model.LawUpdateRejected
		update.RejectionReason = fmt.Sprintf("auto-rejected: relevance score %d below cutoff %d", update.RelevanceScore, s.cutoff)
	} else {
		update.Status = model.LawUpdatePendingReview
	}

	if err := s.repo.Save(ctx, update); err != nil {
		return LawUpdateResponse{}, fmt.Errorf("failed to save analysis result: %w", err)
	}

	writeAudit(ctx, s.auditRepo, "", model.ActionAnalyzeLawUpdate, update.ID.String(), update.Title,
		map[string]interface{}{"relevance_score": update.RelevanceScore, "status": update.Status})
	s.broadcast("law_update_analyzed", update)
	metrics.LawUpdateTransitions.WithLabelValues(update.Status).Inc()

	return toLawUpdateResponse(*update), nil
}

// Review is legal only from PENDING_REVIEW. Approval writes every produced
// config/rule version and the status flip in one transaction: either the
// stores gain all changes and the update becomes IMPLEMENTED, or nothing
// changes at all.
func (s *lawUpdateService) Review(ctx context.Context, id string, req ReviewLawUpdateRequest, userID string) (LawUpdateResponse, error) {
	updateID, err := uuid.Parse(id)
	if err != nil {
		return LawUpdateResponse{}, fmt.Errorf("%w: invalid law update id", ErrValidation)
	}

	if req.Decision == "approve" && len(req.Changes) == 0 {
		return LawUpdateResponse{}, fmt.Errorf("%w: approval requires at least one produced change", ErrValidation)
	}

	var update *model.TaxLawUpdate
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		loaded, err := s.repo.FindByID(txCtx, updateID)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: law update %s", repository.ErrNotFound, id)
			}
			return fmt.Errorf("failed to load law update: %w", err)
		}
		update = loaded

		if update.Status != model.LawUpdatePendingReview {
			return fmt.Errorf("%w: cannot review law update in status %s", ErrInvalidTransition, update.Status)
		}

		now := time.Now()
		update.ReviewedAt = &now
		if userID != "" {
			if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
				update.ReviewedBy = &parsed
			}
		}

		action := model.ActionRejectLawUpdate
		if req.Decision == "approve" {
			for i, change := range req.Changes {
				if err := s.applyChange(txCtx, change); err != nil {
					return fmt.Errorf("change %d: %w", i, err)
				}
			}
			update.Status = model.LawUpdateImplemented
			action = model.ActionApproveLawUpdate
		} else {
			update.Status = model.LawUpdateRejected
			update.RejectionReason = req.Reason
		}

		if err := s.repo.Save(txCtx, update); err != nil {
			return fmt.Errorf("failed to save review decision: %w", err)
		}

		audit := auditEntry(userID, action, update.ID.String(), update.Title,
			map[string]interface{}{"decision": req.Decision, "changes": len(req.Changes), "reason": req.Reason})
		if err := s.auditRepo.Create(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return LawUpdateResponse{}, err
	}

	s.broadcast("law_update_reviewed", update)
	metrics.LawUpdateTransitions.WithLabelValues(update.Status).Inc()

	return toLawUpdateResponse(*update), nil
}

func (s *lawUpdateService) applyChange(ctx context.Context, change ProducedChange) error {
	switch change.Kind {
	case "config":
		if change.Config == nil {
			return fmt.Errorf("%w: config change without config payload", ErrValidation)
		}
		_, err := applyConfigVersion(ctx, s.configRepo, *change.Config)
		return err
	case "rule":
		if change.Rule == nil {
			return fmt.Errorf("%w: rule change without rule payload", ErrValidation)
		}
		_, err := applyRuleVersion(ctx, s.ruleRepo, *change.Rule)
		return err
	default:
		return fmt.Errorf("%w: unknown change kind %q", ErrValidation, change.Kind)
	}
}

func (s *lawUpdateService) ListUpdates(ctx context.Context, filter LawUpdateFilter) ([]LawUpdateResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	updates, total, err := s.repo.List(ctx, filter.Status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list law updates: %w", err)
	}

	res := make([]LawUpdateResponse, 0, len(updates))
	for _, u := range updates {
		res = append(res, toLawUpdateResponse(u))
	}
	return res, total, nil
}

func (s *lawUpdateService) broadcast(event string, update *model.TaxLawUpdate) {
	if s.hub == nil || update == nil {
		return
	}
	s.hub.BroadcastEvent(event, toLawUpdateResponse(*update))
}

// --- Helpers ---

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func toLawUpdateResponse(u model.TaxLawUpdate) LawUpdateResponse {
	res := LawUpdateResponse{
		ID:               u.ID.String(),
		Title:            u.Title,
		Summary:          u.Summary,
		SourceRef:        u.SourceRef,
		Status:           u.Status,
		RelevanceScore:   u.RelevanceScore,
		AffectedTaxTypes: u.TaxTypeTags(),
		RejectionReason:  u.RejectionReason,
		CreatedAt:        u.CreatedAt.Format(time.RFC3339),
	}
	if u.ReviewedBy != nil {
		id := u.ReviewedBy.String()
		res.ReviewedBy = &id
	}
	if u.ReviewedAt != nil {
		ts := u.ReviewedAt.Format(time.RFC3339)
		res.ReviewedAt = &ts
	}
	return res
}
