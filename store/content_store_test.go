package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataorbit/api/store"
)

var blogTestColumns = []string{
	"id", "serial_number", "title", "slug", "content", "featured_image",
	"author", "author_bio", "author_image", "category_id", "status",
	"published_at", "created_at",
}

func TestListCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "categories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "created_at"}).
			AddRow("cat-1", "Finance", "finance", now).
			AddRow("cat-2", "Travel", "travel", now))

	s := store.NewContentStore(db)
	categories, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "finance", categories[0].Slug)
}

func TestCategoryBySlugNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM "categories"`).
		WillReturnError(sql.ErrNoRows)

	s := store.NewContentStore(db)
	_, err = s.CategoryBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListBlogsPublishedOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "blogs" WHERE .*'published'`).
		WillReturnRows(sqlmock.NewRows(blogTestColumns).
			AddRow("blog-1", 1, "First Post", "first-post", "body", nil,
				"Jane Roe", nil, nil, "cat-1", "published", now, now))

	s := store.NewContentStore(db)
	blogs, err := s.ListBlogs(context.Background(), true, "", 0)
	require.NoError(t, err)
	require.Len(t, blogs, 1)
	assert.Equal(t, "first-post", blogs[0].Slug)
	assert.Equal(t, "cat-1", blogs[0].CategoryID)
	assert.Empty(t, blogs[0].FeaturedImage)
}

func TestBlogBySlugNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM "blogs"`).
		WillReturnError(sql.ErrNoRows)

	s := store.NewContentStore(db)
	_, err = s.BlogBySlug(context.Background(), "missing", true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWebResultsBySearchOrdering(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	// Sponsored-first, position-ascending ordering must be part of the query.
	mock.ExpectQuery(`SELECT .* FROM "web_results" WHERE .* ORDER BY "is_sponsored" DESC, "position" ASC`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "related_search_id", "name", "logo", "url", "title",
			"description", "is_sponsored", "position", "created_at",
		}).
			AddRow("wr-1", "rs-1", "Acme", nil, "https://acme.example.com", "Acme", nil, true, 1, now).
			AddRow("wr-2", "rs-1", "Other", nil, "https://other.example.com", "Other", nil, false, 2, now))

	s := store.NewContentStore(db)
	results, err := s.WebResultsBySearch(context.Background(), "rs-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].IsSponsored)
	assert.Equal(t, "https://acme.example.com", results[0].URL)
}

func TestRelatedSearchByPageNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM "related_searches"`).
		WillReturnError(sql.ErrNoRows)

	s := store.NewContentStore(db)
	_, err = s.RelatedSearchByPage(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTitlesByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM "blogs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
			AddRow("blog-1", "First Post").
			AddRow("blog-2", "Second Post"))

	s := store.NewContentStore(db)
	titles, err := s.TitlesByIDs(context.Background(), "blogs", []string{"blog-1", "blog-2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"blog-1": "First Post",
		"blog-2": "Second Post",
	}, titles)
}

func TestTitlesByIDsRejectsUnknownTable(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := store.NewContentStore(db)
	_, err = s.TitlesByIDs(context.Background(), "users", []string{"u-1"})
	assert.Error(t, err)
}

func TestTitlesByIDsEmptyInput(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := store.NewContentStore(db)
	titles, err := s.TitlesByIDs(context.Background(), "blogs", nil)
	require.NoError(t, err)
	assert.Empty(t, titles)
	require.NoError(t, mock.ExpectationsWereMet())
}
