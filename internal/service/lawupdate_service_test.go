package service_test

import (
	"context"
	"errors"
	"testing"

	"taxengine/internal/model"
	"taxengine/internal/repository"
	"taxengine/internal/service"
)

type stubClassifier struct {
	score int
	tags  []string
	err   error
}

func (s *stubClassifier) Classify(context.Context, string, string) (service.Classification, error) {
	if s.err != nil {
		return service.Classification{}, s.err
	}
	return service.Classification{RelevanceScore: s.score, AffectedTaxTypes: s.tags}, nil
}

type stubMonitor struct {
	candidates []service.LawUpdateCandidate
	err        error
}

func (s *stubMonitor) FetchCandidates(context.Context) ([]service.LawUpdateCandidate, error) {
	return s.candidates, s.err
}

type stubBroadcaster struct {
	events []string
}

func (s *stubBroadcaster) BroadcastEvent(event string, payload interface{}) {
	s.events = append(s.events, event)
}

func newLawUpdateEnv(classifier service.RelevanceClassifier, monitor service.LegalSourceMonitor, cutoff int) (*testEnv, service.LawUpdateService) {
	env := newTestEnv()
	svc := service.NewLawUpdateService(
		env.updateRepo, env.configRepo, env.ruleRepo, env.auditRepo, env.txManager,
		classifier, monitor, nil, cutoff,
	)
	return env, svc
}

func TestLawUpdateLifecycleApprove(t *testing.T) {
	env, svc := newLawUpdateEnv(&stubClassifier{score: 80, tags: []string{"income_tax"}}, nil, 30)
	ctx := context.Background()

	detected, err := svc.Detect(ctx, service.DetectLawUpdateRequest{
		Title:     "Wachstumschancengesetz: Freigrenze angehoben",
		Summary:   "Die Freigrenze für sonstige Einkünfte steigt auf 1000 Euro.",
		SourceRef: "bgbl-2024-108",
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if detected.Status != model.LawUpdateDetected {
		t.Fatalf("expected DETECTED, got %s", detected.Status)
	}

	analyzed, err := svc.Analyze(ctx, detected.ID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analyzed.Status != model.LawUpdatePendingReview {
		t.Fatalf("expected PENDING_REVIEW, got %s", analyzed.Status)
	}
	if analyzed.RelevanceScore != 80 {
		t.Errorf("expected score 80, got %d", analyzed.RelevanceScore)
	}

	mustCreateConfig(t, env, service.ConfigKeyFreigrenze, "600", 2009, nil)

	reviewed, err := svc.Review(ctx, detected.ID, service.ReviewLawUpdateRequest{
		Decision: "approve",
		Changes: []service.ProducedChange{{
			Kind: "config",
			Config: &service.CreateConfigEntryRequest{
				Key:              service.ConfigKeyFreigrenze,
				DisplayName:      "Freigrenze",
				Value:            "1000",
				ValueType:        model.ValueTypeCurrency,
				ValidFromTaxYear: 2024,
			},
		}},
	}, "")
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if reviewed.Status != model.LawUpdateImplemented {
		t.Fatalf("expected IMPLEMENTED, got %s", reviewed.Status)
	}

	// The produced change is live in the config store.
	got, err := env.configs.GetConfig(ctx, service.ConfigKeyFreigrenze, 2024)
	if err != nil {
		t.Fatalf("GetConfig after approval failed: %v", err)
	}
	if got.Value != "1000" {
		t.Errorf("expected value 1000 after approval, got %s", got.Value)
	}
}

func TestAnalyzeAutoRejectsBelowCutoff(t *testing.T) {
	_, svc := newLawUpdateEnv(&stubClassifier{score: 5}, nil, 30)
	ctx := context.Background()

	detected, err := svc.Detect(ctx, service.DetectLawUpdateRequest{Title: "Änderung des Jagdrechts"})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	analyzed, err := svc.Analyze(ctx, detected.ID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analyzed.Status != model.LawUpdateRejected {
		t.Fatalf("expected REJECTED, got %s", analyzed.Status)
	}
	if analyzed.RejectionReason == "" {
		t.Error("expected a rejection reason")
	}
}

func TestAnalyzeIsIdempotentOnSettledUpdates(t *testing.T) {
	classifier := &stubClassifier{score: 80}
	_, svc := newLawUpdateEnv(classifier, nil, 30)
	ctx := context.Background()

	detected, _ := svc.Detect(ctx, service.DetectLawUpdateRequest{Title: "EStG Änderung"})
	first, err := svc.Analyze(ctx, detected.ID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// A retry after the update settled keeps the state, even if the
	// classifier would now answer differently.
	classifier.score = 1
	second, err := svc.Analyze(ctx, detected.ID)
	if err != nil {
		t.Fatalf("second Analyze failed: %v", err)
	}
	if second.Status != first.Status || second.RelevanceScore != first.RelevanceScore {
		t.Errorf("retry changed state: %+v vs %+v", second, first)
	}
}

func TestAnalyzeRetriesAfterClassifierFailure(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("service unavailable")}
	_, svc := newLawUpdateEnv(classifier, nil, 30)
	ctx := context.Background()

	detected, _ := svc.Detect(ctx, service.DetectLawUpdateRequest{Title: "EStG Änderung"})
	if _, err := svc.Analyze(ctx, detected.ID); err == nil {
		t.Fatal("expected Analyze to fail while classifier is down")
	}

	// The update stays analyzable; a later retry completes it.
	classifier.err = nil
	classifier.score = 70
	analyzed, err := svc.Analyze(ctx, detected.ID)
	if err != nil {
		t.Fatalf("retry Analyze failed: %v", err)
	}
	if analyzed.Status != model.LawUpdatePendingReview {
		t.Fatalf("expected PENDING_REVIEW after retry, got %s", analyzed.Status)
	}
}

func TestReviewRejectsIllegalTransitions(t *testing.T) {
	_, svc := newLawUpdateEnv(&stubClassifier{score: 80}, nil, 30)
	ctx := context.Background()

	detected, _ := svc.Detect(ctx, service.DetectLawUpdateRequest{Title: "EStG Änderung"})

	// Review before analysis.
	_, err := svc.Review(ctx, detected.ID, service.ReviewLawUpdateRequest{Decision: "reject", Reason: "noise"}, "")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from DETECTED, got %v", err)
	}

	if _, err := svc.Analyze(ctx, detected.ID); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, err := svc.Review(ctx, detected.ID, service.ReviewLawUpdateRequest{Decision: "reject", Reason: "not relevant"}, ""); err != nil {
		t.Fatalf("Review reject failed: %v", err)
	}

	// Terminal states absorb further reviews.
	_, err = svc.Review(ctx, detected.ID, service.ReviewLawUpdateRequest{Decision: "reject", Reason: "again"}, "")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from REJECTED, got %v", err)
	}
}

func TestReviewApproveRequiresChanges(t *testing.T) {
	_, svc := newLawUpdateEnv(&stubClassifier{score: 80}, nil, 30)
	ctx := context.Background()

	detected, _ := svc.Detect(ctx, service.DetectLawUpdateRequest{Title: "EStG Änderung"})
	if _, err := svc.Analyze(ctx, detected.ID); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	_, err := svc.Review(ctx, detected.ID, service.ReviewLawUpdateRequest{Decision: "approve"}, "")
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for approval without changes, got %v", err)
	}
}

func TestReviewApproveIsAtomicAcrossStores(t *testing.T) {
	env, svc := newLawUpdateEnv(&stubClassifier{score: 80}, nil, 30)
	ctx := context.Background()

	detected, _ := svc.Detect(ctx, service.DetectLawUpdateRequest{Title: "EStG Änderung"})
	if _, err := svc.Analyze(ctx, detected.ID); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// First change succeeds, second fails; everything must roll back.
	env.ruleRepo.CreateErr = errors.New("disk on fire")
	_, err := svc.Review(ctx, detected.ID, service.ReviewLawUpdateRequest{
		Decision: "approve",
		Changes: []service.ProducedChange{
			{
				Kind: "config",
				Config: &service.CreateConfigEntryRequest{
					Key:              service.ConfigKeyFreigrenze,
					DisplayName:      "Freigrenze",
					Value:            "1000",
					ValueType:        model.ValueTypeCurrency,
					ValidFromTaxYear: 2024,
				},
			},
			{
				Kind: "rule",
				Rule: &service.CreateRuleRequest{
					RuleCode:         "minor_income_freigrenze",
					DisplayName:      "Freigrenze",
					RuleType:         model.RuleTypeThreshold,
					Body:             `{"threshold":{"limit_config_key":"freigrenze_sonstige_einkuenfte","basis":"absolute","cliff_taxation":true}}`,
					ValidFromTaxYear: 2024,
				},
			},
		},
	}, "")
	if err == nil {
		t.Fatal("expected Review to fail")
	}

	// Neither the config nor the status flip survived.
	if _, err := env.configs.GetConfig(ctx, service.ConfigKeyFreigrenze, 2024); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("config change should be rolled back, got %v", err)
	}
	updates, _, err := svc.ListUpdates(ctx, service.LawUpdateFilter{Status: model.LawUpdatePendingReview})
	if err != nil {
		t.Fatalf("ListUpdates failed: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("update should still be PENDING_REVIEW after rollback, got %d pending", len(updates))
	}

	// The retry goes through cleanly.
	reviewed, err := svc.Review(ctx, detected.ID, service.ReviewLawUpdateRequest{
		Decision: "approve",
		Changes: []service.ProducedChange{{
			Kind: "config",
			Config: &service.CreateConfigEntryRequest{
				Key:              service.ConfigKeyFreigrenze,
				DisplayName:      "Freigrenze",
				Value:            "1000",
				ValueType:        model.ValueTypeCurrency,
				ValidFromTaxYear: 2024,
			},
		}},
	}, "")
	if err != nil {
		t.Fatalf("retry Review failed: %v", err)
	}
	if reviewed.Status != model.LawUpdateImplemented {
		t.Fatalf("expected IMPLEMENTED after retry, got %s", reviewed.Status)
	}
}

func TestLifecycleEventsReachTheHub(t *testing.T) {
	env := newTestEnv()
	hub := &stubBroadcaster{}
	svc := service.NewLawUpdateService(
		env.updateRepo, env.configRepo, env.ruleRepo, env.auditRepo, env.txManager,
		&stubClassifier{score: 80}, nil, hub, 30,
	)
	ctx := context.Background()

	detected, err := svc.Detect(ctx, service.DetectLawUpdateRequest{Title: "EStG Änderung"})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if _, err := svc.Analyze(ctx, detected.ID); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, err := svc.Review(ctx, detected.ID, service.ReviewLawUpdateRequest{Decision: "reject", Reason: "not relevant"}, ""); err != nil {
		t.Fatalf("Review failed: %v", err)
	}

	want := []string{"law_update_detected", "law_update_analyzed", "law_update_reviewed"}
	if len(hub.events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, hub.events)
	}
	for i, event := range want {
		if hub.events[i] != event {
			t.Errorf("event %d: expected %s, got %s", i, event, hub.events[i])
		}
	}
}

func TestScanDeduplicatesBySourceRef(t *testing.T) {
	monitor := &stubMonitor{candidates: []service.LawUpdateCandidate{
		{Title: "Änderung A", SourceRef: "ref-a"},
		{Title: "Änderung B", SourceRef: "ref-b"},
	}}
	_, svc := newLawUpdateEnv(&stubClassifier{score: 80}, monitor, 30)
	ctx := context.Background()

	created, err := svc.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 new updates, got %d", created)
	}

	// Second scan sees the same feed and creates nothing.
	monitor.candidates = append(monitor.candidates, service.LawUpdateCandidate{Title: "Änderung C", SourceRef: "ref-c"})
	created, err = svc.Scan(ctx)
	if err != nil {
		t.Fatalf("second Scan failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected only the new candidate, got %d", created)
	}
}

func TestScanWithoutMonitorFails(t *testing.T) {
	_, svc := newLawUpdateEnv(&stubClassifier{score: 80}, nil, 30)
	if _, err := svc.Scan(context.Background()); err == nil {
		t.Fatal("expected Scan without a monitor to fail")
	}
}
