package handlers_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataorbit/api/funnel"
	"dataorbit/api/handlers"
	"dataorbit/api/models"
	"dataorbit/api/store"
	"dataorbit/api/tracking"
)

type noopTracker struct{}

func (noopTracker) EnsureSession(ctx context.Context, info tracking.ClientInfo) string {
	return "SID-test"
}

func (noopTracker) Track(info tracking.ClientInfo, eventType models.EventType, opts tracking.TrackOptions) {
}

type staticConfigStore struct {
	cfg *models.PreLandingConfig
}

func (f *staticConfigStore) ByWebResult(ctx context.Context, webResultID string) (*models.PreLandingConfig, error) {
	if f.cfg == nil {
		return nil, store.ErrNotFound
	}
	return f.cfg, nil
}

type noopEmailStore struct{}

func (noopEmailStore) Insert(ctx context.Context, sub models.EmailSubmission) error { return nil }

func webResultRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "related_search_id", "name", "logo", "url", "title",
		"description", "is_sponsored", "position", "created_at",
	}).AddRow("wr-1", "rs-1", "Acme", nil, "https://acme.example.com/landing", "Acme", nil, true, 1, time.Now())
}

func newFunnelRouter(t *testing.T, db *sql.DB, cfg *models.PreLandingConfig) (*gin.Engine, *funnel.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := funnel.NewManager(&staticConfigStore{cfg: cfg}, noopEmailStore{}, noopTracker{})
	t.Cleanup(m.Close)

	h := handlers.NewFunnelHandlers(m, store.NewContentStore(db))
	r := gin.New()
	r.POST("/api/funnel/click", h.Click)
	r.GET("/api/funnel/:id", h.Status)
	r.POST("/api/funnel/:id/email", h.SubmitEmail)
	r.POST("/api/funnel/:id/visit", h.Visit)
	r.POST("/api/funnel/:id/cancel", h.Cancel)
	return r, m
}

func postJSON(r *gin.Engine, path, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClickNavigatesWhenUnconfigured(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`SELECT .* FROM "web_results"`).WillReturnRows(webResultRows())

	r, _ := newFunnelRouter(t, db, nil)

	w := postJSON(r, "/api/funnel/click", `{"sessionId":"SID-test","webResultId":"wr-1","relatedSearchId":"rs-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var outcome funnel.Outcome
	require.NoError(t, json.NewDecoder(w.Body).Decode(&outcome))
	assert.Equal(t, funnel.ActionNavigate, outcome.Action)
	assert.Equal(t, "https://acme.example.com/landing", outcome.URL)
}

func TestClickUnknownWebResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`SELECT .* FROM "web_results"`).WillReturnError(sql.ErrNoRows)

	r, _ := newFunnelRouter(t, db, nil)

	w := postJSON(r, "/api/funnel/click", `{"webResultId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClickRequiresWebResultID(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r, _ := newFunnelRouter(t, db, nil)

	w := postJSON(r, "/api/funnel/click", `{"sessionId":"SID-test"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVisitTooEarly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`SELECT .* FROM "web_results"`).WillReturnRows(webResultRows())

	r, _ := newFunnelRouter(t, db, &models.PreLandingConfig{
		WebResultID:      "wr-1",
		CountdownSeconds: 60,
	})

	w := postJSON(r, "/api/funnel/click", `{"webResultId":"wr-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var outcome funnel.Outcome
	require.NoError(t, json.NewDecoder(w.Body).Decode(&outcome))
	require.Equal(t, funnel.ActionPreLanding, outcome.Action)

	w = postJSON(r, "/api/funnel/"+outcome.FunnelID+"/visit", "")
	require.Equal(t, http.StatusTooEarly, w.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.EqualValues(t, 60, body["remainingSeconds"])
}

func TestVisitReturnsTrueURLOnceCountdownDone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`SELECT .* FROM "web_results"`).WillReturnRows(webResultRows())

	r, _ := newFunnelRouter(t, db, &models.PreLandingConfig{
		WebResultID:      "wr-1",
		CountdownSeconds: 0,
	})

	w := postJSON(r, "/api/funnel/click", `{"webResultId":"wr-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var outcome funnel.Outcome
	require.NoError(t, json.NewDecoder(w.Body).Decode(&outcome))

	w = postJSON(r, "/api/funnel/"+outcome.FunnelID+"/visit", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "https://acme.example.com/landing", body["url"])
}

func TestSubmitEmailOnUnknownFunnel(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r, _ := newFunnelRouter(t, db, nil)

	w := postJSON(r, "/api/funnel/no-such-id/email", `{"email":"visitor@example.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelAlwaysSucceeds(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r, _ := newFunnelRouter(t, db, nil)

	w := postJSON(r, "/api/funnel/no-such-id/cancel", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
