package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"dataorbit/api/funnel"
	"dataorbit/api/models"
	"dataorbit/api/store"
)

// ContentHandlers serves the public read surface: blogs, categories,
// related searches and masked result listings.
type ContentHandlers struct {
	Content *store.ContentStore
}

func NewContentHandlers(content *store.ContentStore) *ContentHandlers {
	return &ContentHandlers{Content: content}
}

func (h *ContentHandlers) ListCategories(c *gin.Context) {
	categories, err := h.Content.ListCategories(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load categories"})
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListBlogs returns published posts, optionally scoped to a category slug
// or limited for the recent-posts sidebar.
func (h *ContentHandlers) ListBlogs(c *gin.Context) {
	var categoryID string
	if slug := c.Query("category"); slug != "" {
		category, err := h.Content.CategoryBySlug(c.Request.Context(), slug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
				return
			}
			log.Error().Err(err).Str("slug", slug).Msg("failed to load category")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load category"})
			return
		}
		categoryID = category.ID
	}

	var limit uint
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.ParseUint(limitParam, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter"})
			return
		}
		limit = uint(parsed)
	}

	blogs, err := h.Content.ListBlogs(c.Request.Context(), true, categoryID, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list blogs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load blogs"})
		return
	}
	c.JSON(http.StatusOK, blogs)
}

type blogResponse struct {
	models.Blog
	RelatedSearches []models.RelatedSearch `json:"relatedSearches"`
}

// BlogBySlug returns one published post plus its related searches in
// position order.
func (h *ContentHandlers) BlogBySlug(c *gin.Context) {
	blog, err := h.Content.BlogBySlug(c.Request.Context(), c.Param("slug"), true)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Blog not found"})
			return
		}
		log.Error().Err(err).Str("slug", c.Param("slug")).Msg("failed to load blog")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load blog"})
		return
	}

	searches, err := h.Content.RelatedSearchesByBlog(c.Request.Context(), blog.ID)
	if err != nil {
		log.Error().Err(err).Str("blog_id", blog.ID).Msg("failed to load related searches")
		searches = nil
	}

	c.JSON(http.StatusOK, blogResponse{Blog: *blog, RelatedSearches: searches})
}

type maskedResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsSponsored bool   `json:"isSponsored"`
	DisplayURL  string `json:"displayUrl"`
}

type resultsPageResponse struct {
	RelatedSearch models.RelatedSearch `json:"relatedSearch"`
	Results       []maskedResult       `json:"results"`
}

// ResultsPage serves a /wr=<n> listing: sponsored results first, then by
// position, each with a synthesized display url. True destination URLs are
// never part of this payload.
func (h *ContentHandlers) ResultsPage(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid results page"})
		return
	}

	search, err := h.Content.RelatedSearchByPage(c.Request.Context(), page)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Results page not found"})
			return
		}
		log.Error().Err(err).Int("page", page).Msg("failed to load related search")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load results page"})
		return
	}

	results, err := h.Content.WebResultsBySearch(c.Request.Context(), search.ID)
	if err != nil {
		log.Error().Err(err).Str("related_search_id", search.ID).Msg("failed to load web results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load results"})
		return
	}

	funnel.SortResults(results)
	displayURLs := funnel.DisplayURLs(results, funnel.MaskHost())

	masked := make([]maskedResult, len(results))
	for i, r := range results {
		masked[i] = maskedResult{
			ID:          r.ID,
			Name:        r.Name,
			Logo:        r.Logo,
			Title:       r.Title,
			Description: r.Description,
			IsSponsored: r.IsSponsored,
			DisplayURL:  displayURLs[i],
		}
	}

	c.JSON(http.StatusOK, resultsPageResponse{
		RelatedSearch: *search,
		Results:       masked,
	})
}
