package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"dataorbit/api/funnel"
	"dataorbit/api/store"
	"dataorbit/api/tracking"
)

type FunnelHandlers struct {
	Funnel  *funnel.Manager
	Content *store.ContentStore
}

func NewFunnelHandlers(manager *funnel.Manager, content *store.ContentStore) *FunnelHandlers {
	return &FunnelHandlers{Funnel: manager, Content: content}
}

type clickRequest struct {
	SessionID       string `json:"sessionId"`
	WebResultID     string `json:"webResultId" binding:"required"`
	RelatedSearchID string `json:"relatedSearchId"`
	PageURL         string `json:"pageUrl"`
}

// Click starts a funnel for a result. The response tells the client what
// to do next: navigate directly, show the email gate, or render the
// pre-landing page.
func (h *FunnelHandlers) Click(c *gin.Context) {
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.Content.WebResultByID(c.Request.Context(), req.WebResultID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Web result not found"})
			return
		}
		log.Error().Err(err).Str("web_result_id", req.WebResultID).Msg("failed to load web result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load web result"})
		return
	}

	info := tracking.ClientInfo{
		SessionID: req.SessionID,
		UserAgent: c.Request.UserAgent(),
		RemoteIP:  c.ClientIP(),
		UTMSource: c.Query("utm_source"),
		PageURL:   req.PageURL,
	}

	outcome := h.Funnel.Click(c.Request.Context(), info, *result, req.RelatedSearchID)
	c.JSON(http.StatusOK, outcome)
}

type emailRequest struct {
	Email string `json:"email"`
}

// SubmitEmail handles the email gate. A failed persist keeps the funnel in
// the gate and reports an inline error; the client retries or cancels.
func (h *FunnelHandlers) SubmitEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	outcome, err := h.Funnel.SubmitEmail(c.Request.Context(), c.Param("id"), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, funnel.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No active funnel"})
		case errors.Is(err, funnel.ErrWrongPhase):
			c.JSON(http.StatusConflict, gin.H{"error": "Funnel is not waiting for an email"})
		case errors.Is(err, funnel.ErrEmptyEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email must not be empty"})
		default:
			log.Error().Err(err).Msg("failed to persist email submission")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Could not save your email, please try again"})
		}
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Visit is the pre-landing CTA: only succeeds once the countdown hits zero
// and responds with the true destination URL.
func (h *FunnelHandlers) Visit(c *gin.Context) {
	url, err := h.Funnel.Visit(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, funnel.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No active funnel"})
		case errors.Is(err, funnel.ErrWrongPhase):
			c.JSON(http.StatusConflict, gin.H{"error": "Funnel is not on the pre-landing page"})
		case errors.Is(err, funnel.ErrCountdownActive):
			remaining, _ := h.Funnel.Remaining(c.Param("id"))
			c.JSON(http.StatusTooEarly, gin.H{"error": "Countdown still running", "remainingSeconds": remaining})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete funnel"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Cancel is "Go back": the funnel instance is discarded without navigating.
func (h *FunnelHandlers) Cancel(c *gin.Context) {
	h.Funnel.Cancel(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// Status reports the remaining countdown for polling clients.
func (h *FunnelHandlers) Status(c *gin.Context) {
	remaining, err := h.Funnel.Remaining(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active funnel"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"remainingSeconds": remaining})
}
