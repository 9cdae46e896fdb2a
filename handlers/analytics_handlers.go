package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"dataorbit/api/analytics"
	"dataorbit/api/store"
)

type AnalyticsHandlers struct {
	Analytics  *analytics.Service
	EventStore *store.EventStore
}

func NewAnalyticsHandlers(service *analytics.Service, events *store.EventStore) *AnalyticsHandlers {
	return &AnalyticsHandlers{Analytics: service, EventStore: events}
}

// Summary serves the admin dashboard counters.
func (h *AnalyticsHandlers) Summary(c *gin.Context) {
	summary, err := h.Analytics.Summary(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to build analytics summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analytics summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Breakdown serves per-entity click totals: ?type=blog or
// ?type=related_search.
func (h *AnalyticsHandlers) Breakdown(c *gin.Context) {
	target := analytics.Target(c.Query("type"))
	if target != analytics.TargetBlog && target != analytics.TargetRelatedSearch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type query parameter must be 'blog' or 'related_search'"})
		return
	}

	rows, err := h.Analytics.Breakdown(c.Request.Context(), target)
	if err != nil {
		log.Error().Err(err).Str("target", string(target)).Msg("failed to compute breakdown")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve click breakdown"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// RecentEvents serves the newest rows of the event log.
func (h *AnalyticsHandlers) RecentEvents(c *gin.Context) {
	var limit uint64 = 100
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.ParseUint(limitParam, 10, 64)
		if err != nil || parsed == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsed
	}

	events, err := h.Analytics.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load recent events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

// parseTimeRange reads optional RFC3339 start/end query params, defaulting
// to the trailing 7 days.
func parseTimeRange(c *gin.Context) (start, end time.Time, ok bool) {
	var err error

	start = time.Now().UTC().Add(-7 * 24 * time.Hour)
	if startParam := c.Query("start"); startParam != "" {
		start, err = time.Parse(time.RFC3339, startParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'start' timestamp format. Use RFC3339 (e.g., 2006-01-02T15:04:05Z)"})
			return start, end, false
		}
	}

	end = time.Now().UTC()
	if endParam := c.Query("end"); endParam != "" {
		end, err = time.Parse(time.RFC3339, endParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'end' timestamp format. Use RFC3339 (e.g., 2006-01-02T15:04:05Z)"})
			return start, end, false
		}
	}

	return start, end, true
}

// EventCountsOverTime buckets event counts per interval, optionally
// filtered to one event type.
func (h *AnalyticsHandlers) EventCountsOverTime(c *gin.Context) {
	interval := c.Query("interval")
	if interval == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (e.g., 'Day', 'Hour')"})
		return
	}

	start, end, ok := parseTimeRange(c)
	if !ok {
		return
	}

	results, err := h.EventStore.GetEventCountsOverTime(c.Request.Context(), interval, start, end, c.Query("eventType"))
	if err != nil {
		log.Error().Err(err).Msg("failed to get event counts over time")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event statistics"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// UniqueSessionsOverTime buckets distinct session counts per interval.
func (h *AnalyticsHandlers) UniqueSessionsOverTime(c *gin.Context) {
	interval := c.Query("interval")
	if interval == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (e.g., 'Day', 'Hour')"})
		return
	}

	start, end, ok := parseTimeRange(c)
	if !ok {
		return
	}

	results, err := h.EventStore.GetUniqueSessionsOverTime(c.Request.Context(), interval, start, end)
	if err != nil {
		log.Error().Err(err).Msg("failed to get unique sessions over time")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve session statistics"})
		return
	}
	c.JSON(http.StatusOK, results)
}

// TopPages serves the most viewed page urls in a window.
func (h *AnalyticsHandlers) TopPages(c *gin.Context) {
	start, end, ok := parseTimeRange(c)
	if !ok {
		return
	}

	var limit uint64 = 10
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.ParseUint(limitParam, 10, 64)
		if err != nil || parsed == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsed
	}

	results, err := h.EventStore.GetTopNPagePaths(c.Request.Context(), start, end, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to get top page paths")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve top page statistics"})
		return
	}
	c.JSON(http.StatusOK, results)
}
