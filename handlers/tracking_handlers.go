package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dataorbit/api/models"
	"dataorbit/api/tracking"
)

type TrackingHandlers struct {
	Tracker *tracking.Service
}

func NewTrackingHandlers(tracker *tracking.Service) *TrackingHandlers {
	return &TrackingHandlers{Tracker: tracker}
}

// clientInfo collects the per-request client attributes. The session id is
// client-generated and arrives in the payload; transport-level attributes
// come off the request itself.
func clientInfo(c *gin.Context, sessionID, pageURL string) tracking.ClientInfo {
	return tracking.ClientInfo{
		SessionID: sessionID,
		UserAgent: c.Request.UserAgent(),
		RemoteIP:  c.ClientIP(),
		UTMSource: c.Query("utm_source"),
		PageURL:   pageURL,
	}
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

// EnsureSession is the idempotent session bootstrap: at most one session
// row is ever created per browsing context, repeat calls return the same
// id without re-inserting.
func (h *TrackingHandlers) EnsureSession(c *gin.Context) {
	var req sessionRequest
	// Body is optional; a missing session id means "issue me one".
	_ = c.ShouldBindJSON(&req)

	id := h.Tracker.EnsureSession(c.Request.Context(), clientInfo(c, req.SessionID, ""))
	c.JSON(http.StatusOK, gin.H{"sessionId": id})
}

type trackRequest struct {
	SessionID       string `json:"sessionId"`
	EventType       string `json:"eventType" binding:"required"`
	BlogID          string `json:"blogId"`
	RelatedSearchID string `json:"relatedSearchId"`
	WebResultID     string `json:"webResultId"`
	PageURL         string `json:"pageUrl"`
}

// TrackEvent records one interaction event. The write is fire-and-forget:
// the handler acknowledges before it lands and a failed insert is only
// logged, never surfaced.
func (h *TrackingHandlers) TrackEvent(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	eventType := models.EventType(req.EventType)
	if !eventType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown event type"})
		return
	}

	h.Tracker.Track(clientInfo(c, req.SessionID, c.Request.URL.Path), eventType, tracking.TrackOptions{
		BlogID:          req.BlogID,
		RelatedSearchID: req.RelatedSearchID,
		WebResultID:     req.WebResultID,
		PageURL:         req.PageURL,
	})

	c.Status(http.StatusAccepted)
}
