package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"dataorbit/api/database"
	"dataorbit/api/models"
	"dataorbit/api/utils"
)

// EventStore owns the append-only tracking_events log in ClickHouse.
// Rows are immutable once written; there are no updates or deletes.
type EventStore struct {
	DB *database.ClickHouseClient
}

func NewEventStore(chClient *database.ClickHouseClient) *EventStore {
	return &EventStore{DB: chClient}
}

func (s *EventStore) Insert(ctx context.Context, event models.TrackingEvent) error {
	err := s.DB.Conn.Exec(ctx, `
		INSERT INTO tracking_events (
			id, session_id, event_type, blog_id, related_search_id, web_result_id,
			ip_address, device, country, source, page_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.SessionID,
		string(event.EventType),
		event.BlogID,
		event.RelatedSearchID,
		event.WebResultID,
		event.IPAddress,
		event.Device,
		event.Country,
		event.Source,
		event.PageURL,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tracking event: %w", err)
	}
	return nil
}

// ClickRows returns the (entity id, ip) projection for one event type,
// keyed by the given entity column. Feed for the attribution aggregator.
func (s *EventStore) ClickRows(ctx context.Context, eventType models.EventType, entityColumn string) ([]models.ClickRow, error) {
	if entityColumn != "blog_id" && entityColumn != "related_search_id" && entityColumn != "web_result_id" {
		return nil, fmt.Errorf("unsupported entity column: %s", entityColumn)
	}

	query := fmt.Sprintf(`
		SELECT %s, ip_address
		FROM tracking_events
		WHERE event_type = ?
	`, entityColumn)

	rows, err := s.DB.Conn.Query(ctx, query, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("failed to query click rows: %w", err)
	}
	defer rows.Close()

	var results []models.ClickRow
	for rows.Next() {
		var row models.ClickRow
		if err := rows.Scan(&row.EntityID, &row.IPAddress); err != nil {
			log.Error().Err(err).Msg("Error scanning click row")
			continue
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during click rows query: %w", err)
	}
	return results, nil
}

// CountsByType returns total event counts grouped by event type.
func (s *EventStore) CountsByType(ctx context.Context) (map[models.EventType]uint64, error) {
	rows, err := s.DB.Conn.Query(ctx, `
		SELECT event_type, count() AS total
		FROM tracking_events
		GROUP BY event_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EventType]uint64)
	for rows.Next() {
		var eventType string
		var total uint64
		if err := rows.Scan(&eventType, &total); err != nil {
			log.Error().Err(err).Msg("Error scanning event type count")
			continue
		}
		counts[models.EventType(eventType)] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during event counts query: %w", err)
	}
	return counts, nil
}

// Recent returns the newest events for the admin event log view.
func (s *EventStore) Recent(ctx context.Context, limit uint64) ([]models.TrackingEvent, error) {
	if limit == 0 {
		limit = 100
	}

	rows, err := s.DB.Conn.Query(ctx, `
		SELECT id, session_id, event_type, blog_id, related_search_id, web_result_id,
		       ip_address, device, country, source, page_url, created_at
		FROM tracking_events
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	var results []models.TrackingEvent
	for rows.Next() {
		var event models.TrackingEvent
		var eventType string
		if err := rows.Scan(
			&event.ID,
			&event.SessionID,
			&eventType,
			&event.BlogID,
			&event.RelatedSearchID,
			&event.WebResultID,
			&event.IPAddress,
			&event.Device,
			&event.Country,
			&event.Source,
			&event.PageURL,
			&event.CreatedAt,
		); err != nil {
			log.Error().Err(err).Msg("Error scanning recent event")
			continue
		}
		event.EventType = models.EventType(eventType)
		results = append(results, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during recent events query: %w", err)
	}
	return results, nil
}

type EventTypeCountByTime struct {
	Time      time.Time `json:"time"`
	EventType *string   `json:"eventType,omitempty"`
	Count     uint64    `json:"count"`
}

// GetEventCountsOverTime buckets event counts by a ClickHouse interval
// (Minute, Hour, Day, ...), optionally filtered to one event type.
func (s *EventStore) GetEventCountsOverTime(ctx context.Context, interval string, start, end time.Time, eventTypeFilter string) ([]EventTypeCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	args := []interface{}{start, end}
	selectCols := fmt.Sprintf("toStartOf%s(created_at) as time_bucket, count() as total_events", interval)
	groupByCols := "time_bucket"
	whereClause := "WHERE created_at >= ? AND created_at <= ?"
	orderByCols := "time_bucket ASC"
	isFilteringByType := eventTypeFilter != ""

	if isFilteringByType {
		selectCols += ", event_type"
		groupByCols += ", event_type"
		whereClause += " AND event_type = ?"
		args = append(args, eventTypeFilter)
		orderByCols += ", event_type ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM tracking_events
		%s
		GROUP BY %s
		ORDER BY %s
	`, selectCols, whereClause, groupByCols, orderByCols)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts over time: %w", err)
	}
	defer rows.Close()

	var results []EventTypeCountByTime
	for rows.Next() {
		var (
			timeBucket    time.Time
			count         uint64
			eventTypeDB   string
			currentResult EventTypeCountByTime
		)

		if isFilteringByType {
			if err := rows.Scan(&timeBucket, &count, &eventTypeDB); err != nil {
				log.Error().Err(err).Msg("Error scanning event counts row (with type filter)")
				continue
			}
			currentResult.EventType = &eventTypeDB
		} else {
			if err := rows.Scan(&timeBucket, &count); err != nil {
				log.Error().Err(err).Msg("Error scanning event counts row")
				continue
			}
		}

		currentResult.Time = timeBucket
		currentResult.Count = count
		results = append(results, currentResult)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during event counts over time query: %w", err)
	}
	return results, nil
}

// GetUniqueSessionsOverTime buckets distinct session counts by interval.
func (s *EventStore) GetUniqueSessionsOverTime(ctx context.Context, interval string, start, end time.Time) ([]EventTypeCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	query := fmt.Sprintf(`
		SELECT toStartOf%s(created_at) AS time_bucket, uniq(session_id) AS unique_sessions
		FROM tracking_events
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY time_bucket
		ORDER BY time_bucket ASC
	`, interval)

	rows, err := s.DB.Conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query unique sessions over time: %w", err)
	}
	defer rows.Close()

	var results []EventTypeCountByTime
	for rows.Next() {
		var timeBucket time.Time
		var uniqueSessions uint64
		if err := rows.Scan(&timeBucket, &uniqueSessions); err != nil {
			log.Error().Err(err).Msg("Error scanning unique sessions row")
			continue
		}
		results = append(results, EventTypeCountByTime{
			Time:  timeBucket,
			Count: uniqueSessions,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during unique sessions query: %w", err)
	}
	return results, nil
}

// GetTopNPagePaths returns the most viewed page urls in a window.
func (s *EventStore) GetTopNPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error) {
	if limit == 0 {
		limit = 10
	}

	rows, err := s.DB.Conn.Query(ctx, `
		SELECT page_url, count() as view_count
		FROM tracking_events
		WHERE event_type = 'page_view' AND created_at >= ? AND created_at <= ?
		GROUP BY page_url
		ORDER BY view_count DESC
		LIMIT ?
	`, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top page paths: %w", err)
	}
	defer rows.Close()

	var results []models.TopPathResult
	for rows.Next() {
		var pagePath string
		var count uint64
		if err := rows.Scan(&pagePath, &count); err != nil {
			log.Error().Err(err).Msg("Error scanning top page path row")
			continue
		}
		results = append(results, models.TopPathResult{
			PagePath: pagePath,
			Count:    count,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during top page paths query: %w", err)
	}
	return results, nil
}
