package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taxengine/internal/service"
)

// FeedMonitor polls a JSON feed of legislative announcements. The feed URL
// comes from LAW_FEED_URL; the expected payload is a flat array of items.
type FeedMonitor struct {
	feedURL string
	client  *http.Client
}

type feedItem struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	SourceRef string `json:"source_ref"`
}

func NewFeedMonitor(feedURL string) *FeedMonitor {
	return &FeedMonitor{
		feedURL: feedURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *FeedMonitor) FetchCandidates(ctx context.Context) ([]service.LawUpdateCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch law feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("law feed returned status %d", resp.StatusCode)
	}

	var items []feedItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode law feed: %w", err)
	}

	candidates := make([]service.LawUpdateCandidate, 0, len(items))
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		candidates = append(candidates, service.LawUpdateCandidate{
			Title:     item.Title,
			Summary:   item.Summary,
			SourceRef: item.SourceRef,
		})
	}
	return candidates, nil
}

var _ service.LegalSourceMonitor = (*FeedMonitor)(nil)
