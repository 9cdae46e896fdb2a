package handlers_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataorbit/api/handlers"
	"dataorbit/api/store"
)

func newContentRouter(t *testing.T, db *sql.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := handlers.NewContentHandlers(store.NewContentStore(db))
	r := gin.New()
	r.GET("/api/blogs/:slug", h.BlogBySlug)
	r.GET("/api/results/:page", h.ResultsPage)
	return r
}

func TestResultsPageMasksDestinationURLs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "related_searches"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "blog_id", "position", "web_result_page", "created_at",
		}).AddRow("rs-1", "Best Deals", "blog-1", 1, 3, now))
	mock.ExpectQuery(`SELECT .* FROM "web_results"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "related_search_id", "name", "logo", "url", "title",
			"description", "is_sponsored", "position", "created_at",
		}).
			AddRow("wr-organic", "rs-1", "Organic Co", nil, "https://organic.example.com", "Organic", nil, false, 1, now).
			AddRow("wr-sponsored", "rs-1", "Sponsor Co", nil, "https://sponsor.example.com", "Sponsored", nil, true, 2, now))

	r := newContentRouter(t, db)
	t.Setenv("DISPLAY_MASK_HOST", "results.example.io")

	req := httptest.NewRequest(http.MethodGet, "/api/results/3", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		RelatedSearch struct {
			ID string `json:"id"`
		} `json:"relatedSearch"`
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "rs-1", body.RelatedSearch.ID)
	require.Len(t, body.Results, 2)

	// Sponsored first, organic second, display urls indexed over that order.
	assert.Equal(t, "wr-sponsored", body.Results[0]["id"])
	assert.Equal(t, "results.example.io-1", body.Results[0]["displayUrl"])
	assert.Equal(t, "wr-organic", body.Results[1]["id"])
	assert.Equal(t, "results.example.io-2", body.Results[1]["displayUrl"])

	// True destinations never leave the server in a listing.
	for _, result := range body.Results {
		_, leaked := result["url"]
		assert.False(t, leaked, "listing payload must not carry the destination url")
	}
}

func TestResultsPageUnknownPage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM "related_searches"`).
		WillReturnError(sql.ErrNoRows)

	r := newContentRouter(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/results/99", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultsPageRejectsBadPageParam(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := newContentRouter(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/results/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlogBySlugNotFoundResponse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM "blogs"`).
		WillReturnError(sql.ErrNoRows)

	r := newContentRouter(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/blogs/missing-post", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
