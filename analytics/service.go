package analytics

import (
	"context"
	"fmt"

	"dataorbit/api/models"
)

// Target selects which click breakdown to compute.
type Target string

const (
	TargetBlog          Target = "blog"
	TargetRelatedSearch Target = "related_search"
)

// EventReader pulls aggregation feeds from the event log.
type EventReader interface {
	ClickRows(ctx context.Context, eventType models.EventType, entityColumn string) ([]models.ClickRow, error)
	CountsByType(ctx context.Context) (map[models.EventType]uint64, error)
	Recent(ctx context.Context, limit uint64) ([]models.TrackingEvent, error)
}

// NameResolver batch-resolves entity ids to display titles.
type NameResolver interface {
	TitlesByIDs(ctx context.Context, table string, ids []string) (map[string]string, error)
}

// SessionReader supplies the session counters for the summary.
type SessionReader interface {
	Stats(ctx context.Context) (models.SessionStats, error)
}

// EmailCounter counts captured email submissions.
type EmailCounter interface {
	Count(ctx context.Context) (int, error)
}

type Service struct {
	events   EventReader
	names    NameResolver
	sessions SessionReader
	emails   EmailCounter
}

func NewService(events EventReader, names NameResolver, sessions SessionReader, emails EmailCounter) *Service {
	return &Service{
		events:   events,
		names:    names,
		sessions: sessions,
		emails:   emails,
	}
}

// Breakdown computes per-entity click totals for one target type.
func (s *Service) Breakdown(ctx context.Context, target Target) ([]BreakdownRow, error) {
	var eventType models.EventType
	var entityColumn, titleTable string

	switch target {
	case TargetBlog:
		eventType, entityColumn, titleTable = models.EventBlogClick, "blog_id", "blogs"
	case TargetRelatedSearch:
		eventType, entityColumn, titleTable = models.EventRelatedSearchClick, "related_search_id", "related_searches"
	default:
		return nil, fmt.Errorf("unsupported breakdown target: %s", target)
	}

	rows, err := s.events.ClickRows(ctx, eventType, entityColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to load click rows: %w", err)
	}

	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{})
	for _, row := range rows {
		if row.EntityID == "" {
			continue
		}
		if _, ok := seen[row.EntityID]; ok {
			continue
		}
		seen[row.EntityID] = struct{}{}
		ids = append(ids, row.EntityID)
	}

	names, err := s.names.TitlesByIDs(ctx, titleTable, ids)
	if err != nil {
		// Name resolution is a display concern; totals are still correct
		// keyed by raw ids.
		names = map[string]string{}
	}

	return Aggregate(rows, names), nil
}

// Summary mirrors the admin dashboard counters.
type Summary struct {
	Sessions    models.SessionStats         `json:"sessions"`
	TotalEmails int                         `json:"totalEmails"`
	EventCounts map[models.EventType]uint64 `json:"eventCounts"`
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	stats, err := s.sessions.Stats(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load session stats: %w", err)
	}

	emails, err := s.emails.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count email submissions: %w", err)
	}

	counts, err := s.events.CountsByType(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load event counts: %w", err)
	}

	return Summary{
		Sessions:    stats,
		TotalEmails: emails,
		EventCounts: counts,
	}, nil
}

// RecentEvents returns the newest events with entity titles resolved for
// the admin event log table.
type RecentEvent struct {
	models.TrackingEvent
	EntityTitle string `json:"entityTitle,omitempty"`
}

func (s *Service) RecentEvents(ctx context.Context, limit uint64) ([]RecentEvent, error) {
	events, err := s.events.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent events: %w", err)
	}

	blogIDs := uniqueIDs(events, func(e models.TrackingEvent) string { return e.BlogID })
	searchIDs := uniqueIDs(events, func(e models.TrackingEvent) string { return e.RelatedSearchID })

	blogTitles, err := s.names.TitlesByIDs(ctx, "blogs", blogIDs)
	if err != nil {
		blogTitles = map[string]string{}
	}
	searchTitles, err := s.names.TitlesByIDs(ctx, "related_searches", searchIDs)
	if err != nil {
		searchTitles = map[string]string{}
	}

	result := make([]RecentEvent, 0, len(events))
	for _, e := range events {
		re := RecentEvent{TrackingEvent: e}
		switch {
		case e.BlogID != "":
			re.EntityTitle = blogTitles[e.BlogID]
		case e.RelatedSearchID != "":
			re.EntityTitle = searchTitles[e.RelatedSearchID]
		}
		result = append(result, re)
	}
	return result, nil
}

func uniqueIDs(events []models.TrackingEvent, key func(models.TrackingEvent) string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range events {
		id := key(e)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
