package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"dataorbit/api/models"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("not found")

// ContentStore owns the operator-managed content entities: categories,
// blogs, related searches and web results. The funnel core only ever reads
// these; writes come from the admin console.
type ContentStore struct {
	db *sql.DB
	gq *goqu.Database
}

func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{
		db: db,
		gq: goqu.New("postgres", db),
	}
}

// --- categories ---

func (s *ContentStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	query, args, err := s.gq.Select("id", "name", "slug", "created_at").
		From("categories").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build categories query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *ContentStore) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	query, args, err := s.gq.Select("id", "name", "slug", "created_at").
		From("categories").
		Where(goqu.Ex{"slug": slug}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build category query: %w", err)
	}

	var c models.Category
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return &c, nil
}

func (s *ContentStore) CreateCategory(ctx context.Context, c models.Category) error {
	query, args, err := s.gq.Insert("categories").Rows(goqu.Record{
		"id":   c.ID,
		"name": c.Name,
		"slug": c.Slug,
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build category insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (s *ContentStore) DeleteCategory(ctx context.Context, id string) error {
	query, args, err := s.gq.Delete("categories").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build category delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// --- blogs ---

var blogColumns = []interface{}{
	"id", "serial_number", "title", "slug", "content", "featured_image",
	"author", "author_bio", "author_image", "category_id", "status",
	"published_at", "created_at",
}

func (s *ContentStore) scanBlog(scanner interface{ Scan(...any) error }) (models.Blog, error) {
	var b models.Blog
	var featuredImage, authorBio, authorImage, categoryID sql.NullString
	err := scanner.Scan(
		&b.ID, &b.SerialNumber, &b.Title, &b.Slug, &b.Content, &featuredImage,
		&b.Author, &authorBio, &authorImage, &categoryID, &b.Status,
		&b.PublishedAt, &b.CreatedAt,
	)
	if err != nil {
		return models.Blog{}, err
	}
	b.FeaturedImage = featuredImage.String
	b.AuthorBio = authorBio.String
	b.AuthorImage = authorImage.String
	b.CategoryID = categoryID.String
	return b, nil
}

// ListBlogs returns blogs newest-first. When publishedOnly is set, drafts
// are excluded (the public site only ever sees published posts); when
// categoryID is non-empty the list is scoped to that category.
func (s *ContentStore) ListBlogs(ctx context.Context, publishedOnly bool, categoryID string, limit uint) ([]models.Blog, error) {
	ds := s.gq.Select(blogColumns...).
		From("blogs").
		Order(goqu.I("published_at").Desc())

	if publishedOnly {
		ds = ds.Where(goqu.Ex{"status": models.BlogStatusPublished})
	}
	if categoryID != "" {
		ds = ds.Where(goqu.Ex{"category_id": categoryID})
	}
	if limit > 0 {
		ds = ds.Limit(limit)
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build blogs query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer rows.Close()

	var blogs []models.Blog
	for rows.Next() {
		b, err := s.scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}

func (s *ContentStore) BlogBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Blog, error) {
	ds := s.gq.Select(blogColumns...).From("blogs").Where(goqu.Ex{"slug": slug})
	if publishedOnly {
		ds = ds.Where(goqu.Ex{"status": models.BlogStatusPublished})
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build blog query: %w", err)
	}

	b, err := s.scanBlog(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blog by slug: %w", err)
	}
	return &b, nil
}

func (s *ContentStore) blogRecord(b models.Blog) goqu.Record {
	return goqu.Record{
		"title":          b.Title,
		"slug":           b.Slug,
		"content":        b.Content,
		"featured_image": sql.NullString{String: b.FeaturedImage, Valid: b.FeaturedImage != ""},
		"author":         b.Author,
		"author_bio":     sql.NullString{String: b.AuthorBio, Valid: b.AuthorBio != ""},
		"author_image":   sql.NullString{String: b.AuthorImage, Valid: b.AuthorImage != ""},
		"category_id":    sql.NullString{String: b.CategoryID, Valid: b.CategoryID != ""},
		"status":         b.Status,
	}
}

func (s *ContentStore) CreateBlog(ctx context.Context, b models.Blog) error {
	record := s.blogRecord(b)
	record["id"] = b.ID

	query, args, err := s.gq.Insert("blogs").Rows(record).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build blog insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create blog: %w", err)
	}
	return nil
}

func (s *ContentStore) UpdateBlog(ctx context.Context, b models.Blog) error {
	query, args, err := s.gq.Update("blogs").
		Set(s.blogRecord(b)).
		Where(goqu.Ex{"id": b.ID}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build blog update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update blog: %w", err)
	}
	return nil
}

func (s *ContentStore) DeleteBlog(ctx context.Context, id string) error {
	query, args, err := s.gq.Delete("blogs").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build blog delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	return nil
}

// --- related searches ---

func (s *ContentStore) relatedSearchRows(ctx context.Context, query string, args []interface{}) ([]models.RelatedSearch, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query related searches: %w", err)
	}
	defer rows.Close()

	var searches []models.RelatedSearch
	for rows.Next() {
		var rs models.RelatedSearch
		if err := rows.Scan(&rs.ID, &rs.Title, &rs.BlogID, &rs.Position, &rs.WebResultPage, &rs.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan related search: %w", err)
		}
		searches = append(searches, rs)
	}
	return searches, rows.Err()
}

func (s *ContentStore) ListRelatedSearches(ctx context.Context) ([]models.RelatedSearch, error) {
	query, args, err := s.gq.Select("id", "title", "blog_id", "position", "web_result_page", "created_at").
		From("related_searches").
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build related searches query: %w", err)
	}
	return s.relatedSearchRows(ctx, query, args)
}

func (s *ContentStore) RelatedSearchesByBlog(ctx context.Context, blogID string) ([]models.RelatedSearch, error) {
	query, args, err := s.gq.Select("id", "title", "blog_id", "position", "web_result_page", "created_at").
		From("related_searches").
		Where(goqu.Ex{"blog_id": blogID}).
		Order(goqu.I("position").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build related searches query: %w", err)
	}
	return s.relatedSearchRows(ctx, query, args)
}

func (s *ContentStore) RelatedSearchByID(ctx context.Context, id string) (*models.RelatedSearch, error) {
	query, args, err := s.gq.Select("id", "title", "blog_id", "position", "web_result_page", "created_at").
		From("related_searches").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build related search query: %w", err)
	}

	var rs models.RelatedSearch
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&rs.ID, &rs.Title, &rs.BlogID, &rs.Position, &rs.WebResultPage, &rs.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get related search: %w", err)
	}
	return &rs, nil
}

// RelatedSearchByPage resolves the /wr=<n> public page number.
func (s *ContentStore) RelatedSearchByPage(ctx context.Context, page int) (*models.RelatedSearch, error) {
	query, args, err := s.gq.Select("id", "title", "blog_id", "position", "web_result_page", "created_at").
		From("related_searches").
		Where(goqu.Ex{"web_result_page": page}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build related search query: %w", err)
	}

	var rs models.RelatedSearch
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&rs.ID, &rs.Title, &rs.BlogID, &rs.Position, &rs.WebResultPage, &rs.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get related search by page: %w", err)
	}
	return &rs, nil
}

func (s *ContentStore) CreateRelatedSearch(ctx context.Context, rs models.RelatedSearch) error {
	query, args, err := s.gq.Insert("related_searches").Rows(goqu.Record{
		"id":              rs.ID,
		"title":           rs.Title,
		"blog_id":         rs.BlogID,
		"position":        rs.Position,
		"web_result_page": rs.WebResultPage,
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build related search insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create related search: %w", err)
	}
	return nil
}

func (s *ContentStore) UpdateRelatedSearch(ctx context.Context, rs models.RelatedSearch) error {
	query, args, err := s.gq.Update("related_searches").
		Set(goqu.Record{
			"title":           rs.Title,
			"blog_id":         rs.BlogID,
			"position":        rs.Position,
			"web_result_page": rs.WebResultPage,
		}).
		Where(goqu.Ex{"id": rs.ID}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build related search update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update related search: %w", err)
	}
	return nil
}

func (s *ContentStore) DeleteRelatedSearch(ctx context.Context, id string) error {
	query, args, err := s.gq.Delete("related_searches").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build related search delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete related search: %w", err)
	}
	return nil
}

// --- web results ---

var webResultColumns = []interface{}{
	"id", "related_search_id", "name", "logo", "url", "title",
	"description", "is_sponsored", "position", "created_at",
}

func (s *ContentStore) scanWebResult(scanner interface{ Scan(...any) error }) (models.WebResult, error) {
	var wr models.WebResult
	var logo, description sql.NullString
	err := scanner.Scan(
		&wr.ID, &wr.RelatedSearchID, &wr.Name, &logo, &wr.URL, &wr.Title,
		&description, &wr.IsSponsored, &wr.Position, &wr.CreatedAt,
	)
	if err != nil {
		return models.WebResult{}, err
	}
	wr.Logo = logo.String
	wr.Description = description.String
	return wr, nil
}

// WebResultsBySearch returns all results for one related search, sponsored
// first, then by position. The funnel relies on this ordering for masked
// display url synthesis.
func (s *ContentStore) WebResultsBySearch(ctx context.Context, relatedSearchID string) ([]models.WebResult, error) {
	query, args, err := s.gq.Select(webResultColumns...).
		From("web_results").
		Where(goqu.Ex{"related_search_id": relatedSearchID}).
		Order(goqu.I("is_sponsored").Desc(), goqu.I("position").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build web results query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list web results: %w", err)
	}
	defer rows.Close()

	var results []models.WebResult
	for rows.Next() {
		wr, err := s.scanWebResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan web result: %w", err)
		}
		results = append(results, wr)
	}
	return results, rows.Err()
}

func (s *ContentStore) ListWebResults(ctx context.Context) ([]models.WebResult, error) {
	query, args, err := s.gq.Select(webResultColumns...).
		From("web_results").
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build web results query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list web results: %w", err)
	}
	defer rows.Close()

	var results []models.WebResult
	for rows.Next() {
		wr, err := s.scanWebResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan web result: %w", err)
		}
		results = append(results, wr)
	}
	return results, rows.Err()
}

func (s *ContentStore) WebResultByID(ctx context.Context, id string) (*models.WebResult, error) {
	query, args, err := s.gq.Select(webResultColumns...).
		From("web_results").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build web result query: %w", err)
	}

	wr, err := s.scanWebResult(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get web result: %w", err)
	}
	return &wr, nil
}

func (s *ContentStore) webResultRecord(wr models.WebResult) goqu.Record {
	return goqu.Record{
		"related_search_id": wr.RelatedSearchID,
		"name":              wr.Name,
		"logo":              sql.NullString{String: wr.Logo, Valid: wr.Logo != ""},
		"url":               wr.URL,
		"title":             wr.Title,
		"description":       sql.NullString{String: wr.Description, Valid: wr.Description != ""},
		"is_sponsored":      wr.IsSponsored,
		"position":          wr.Position,
	}
}

func (s *ContentStore) CreateWebResult(ctx context.Context, wr models.WebResult) error {
	record := s.webResultRecord(wr)
	record["id"] = wr.ID

	query, args, err := s.gq.Insert("web_results").Rows(record).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build web result insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create web result: %w", err)
	}
	return nil
}

func (s *ContentStore) UpdateWebResult(ctx context.Context, wr models.WebResult) error {
	query, args, err := s.gq.Update("web_results").
		Set(s.webResultRecord(wr)).
		Where(goqu.Ex{"id": wr.ID}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build web result update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update web result: %w", err)
	}
	return nil
}

func (s *ContentStore) DeleteWebResult(ctx context.Context, id string) error {
	query, args, err := s.gq.Delete("web_results").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build web result delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete web result: %w", err)
	}
	return nil
}

// --- title resolution (attribution aggregator batch lookup) ---

// TitlesByIDs resolves display titles for a set of entity ids from either
// the blogs or related_searches table.
func (s *ContentStore) TitlesByIDs(ctx context.Context, table string, ids []string) (map[string]string, error) {
	if table != "blogs" && table != "related_searches" {
		return nil, fmt.Errorf("unsupported title table: %s", table)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	query, args, err := s.gq.Select("id", "title").
		From(table).
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build titles query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer rows.Close()

	titles := make(map[string]string, len(ids))
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("failed to scan title row: %w", err)
		}
		titles[id] = title
	}
	return titles, rows.Err()
}
