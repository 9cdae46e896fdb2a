package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"dataorbit/api/models"
	"dataorbit/api/store"
	"dataorbit/api/utils"
)

// AdminHandlers is the operator CRUD surface for content entities. All of
// these routes sit behind the auth middleware.
type AdminHandlers struct {
	Content    *store.ContentStore
	PreLanding *store.PreLandingStore
}

func NewAdminHandlers(content *store.ContentStore, preLanding *store.PreLandingStore) *AdminHandlers {
	return &AdminHandlers{Content: content, PreLanding: preLanding}
}

// --- categories ---

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

func (h *AdminHandlers) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = utils.Slugify(req.Name)
	}

	category := models.Category{
		ID:   uuid.New().String(),
		Name: req.Name,
		Slug: slug,
	}
	if err := h.Content.CreateCategory(c.Request.Context(), category); err != nil {
		log.Error().Err(err).Msg("failed to create category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *AdminHandlers) DeleteCategory(c *gin.Context) {
	if err := h.Content.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		log.Error().Err(err).Msg("failed to delete category")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- blogs ---

type blogRequest struct {
	Title         string `json:"title" binding:"required"`
	Slug          string `json:"slug"`
	Content       string `json:"content" binding:"required"`
	FeaturedImage string `json:"featuredImage"`
	Author        string `json:"author" binding:"required"`
	AuthorBio     string `json:"authorBio"`
	AuthorImage   string `json:"authorImage"`
	CategoryID    string `json:"categoryId"`
	Status        string `json:"status"`
}

func (r *blogRequest) toModel(id string) models.Blog {
	slug := r.Slug
	if slug == "" {
		slug = utils.Slugify(r.Title)
	}
	status := r.Status
	if status == "" {
		status = models.BlogStatusDraft
	}
	return models.Blog{
		ID:            id,
		Title:         r.Title,
		Slug:          slug,
		Content:       r.Content,
		FeaturedImage: r.FeaturedImage,
		Author:        r.Author,
		AuthorBio:     r.AuthorBio,
		AuthorImage:   r.AuthorImage,
		CategoryID:    r.CategoryID,
		Status:        status,
	}
}

func (h *AdminHandlers) ListBlogs(c *gin.Context) {
	blogs, err := h.Content.ListBlogs(c.Request.Context(), false, "", 0)
	if err != nil {
		log.Error().Err(err).Msg("failed to list blogs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load blogs"})
		return
	}
	c.JSON(http.StatusOK, blogs)
}

func (h *AdminHandlers) CreateBlog(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	blog := req.toModel(uuid.New().String())
	if err := h.Content.CreateBlog(c.Request.Context(), blog); err != nil {
		log.Error().Err(err).Msg("failed to create blog")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create blog"})
		return
	}
	c.JSON(http.StatusCreated, blog)
}

func (h *AdminHandlers) UpdateBlog(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	blog := req.toModel(c.Param("id"))
	if err := h.Content.UpdateBlog(c.Request.Context(), blog); err != nil {
		log.Error().Err(err).Msg("failed to update blog")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update blog"})
		return
	}
	c.JSON(http.StatusOK, blog)
}

func (h *AdminHandlers) DeleteBlog(c *gin.Context) {
	if err := h.Content.DeleteBlog(c.Request.Context(), c.Param("id")); err != nil {
		log.Error().Err(err).Msg("failed to delete blog")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete blog"})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- related searches ---

type relatedSearchRequest struct {
	Title         string `json:"title" binding:"required"`
	BlogID        string `json:"blogId" binding:"required"`
	Position      int    `json:"position"`
	WebResultPage int    `json:"webResultPage" binding:"required"`
}

func (h *AdminHandlers) ListRelatedSearches(c *gin.Context) {
	searches, err := h.Content.ListRelatedSearches(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list related searches")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load related searches"})
		return
	}
	c.JSON(http.StatusOK, searches)
}

func (h *AdminHandlers) CreateRelatedSearch(c *gin.Context) {
	var req relatedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	rs := models.RelatedSearch{
		ID:            uuid.New().String(),
		Title:         req.Title,
		BlogID:        req.BlogID,
		Position:      req.Position,
		WebResultPage: req.WebResultPage,
	}
	if err := h.Content.CreateRelatedSearch(c.Request.Context(), rs); err != nil {
		log.Error().Err(err).Msg("failed to create related search")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create related search"})
		return
	}
	c.JSON(http.StatusCreated, rs)
}

func (h *AdminHandlers) UpdateRelatedSearch(c *gin.Context) {
	var req relatedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	rs := models.RelatedSearch{
		ID:            c.Param("id"),
		Title:         req.Title,
		BlogID:        req.BlogID,
		Position:      req.Position,
		WebResultPage: req.WebResultPage,
	}
	if err := h.Content.UpdateRelatedSearch(c.Request.Context(), rs); err != nil {
		log.Error().Err(err).Msg("failed to update related search")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update related search"})
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (h *AdminHandlers) DeleteRelatedSearch(c *gin.Context) {
	if err := h.Content.DeleteRelatedSearch(c.Request.Context(), c.Param("id")); err != nil {
		log.Error().Err(err).Msg("failed to delete related search")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete related search"})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- web results ---

// adminWebResult carries the true destination url. Public listing payloads
// mask it; the console has to read back what it configured.
type adminWebResult struct {
	models.WebResult
	URL string `json:"url"`
}

func toAdminWebResult(wr models.WebResult) adminWebResult {
	return adminWebResult{WebResult: wr, URL: wr.URL}
}

type webResultRequest struct {
	RelatedSearchID string `json:"relatedSearchId" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Logo            string `json:"logo"`
	URL             string `json:"url" binding:"required,url"`
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	IsSponsored     bool   `json:"isSponsored"`
	Position        int    `json:"position"`
}

func (r *webResultRequest) toModel(id string) models.WebResult {
	position := r.Position
	if position == 0 {
		position = 1
	}
	return models.WebResult{
		ID:              id,
		RelatedSearchID: r.RelatedSearchID,
		Name:            r.Name,
		Logo:            r.Logo,
		URL:             r.URL,
		Title:           r.Title,
		Description:     r.Description,
		IsSponsored:     r.IsSponsored,
		Position:        position,
	}
}

func (h *AdminHandlers) ListWebResults(c *gin.Context) {
	results, err := h.Content.ListWebResults(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list web results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load web results"})
		return
	}

	out := make([]adminWebResult, len(results))
	for i, wr := range results {
		out[i] = toAdminWebResult(wr)
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandlers) CreateWebResult(c *gin.Context) {
	var req webResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result := req.toModel(uuid.New().String())
	if err := h.Content.CreateWebResult(c.Request.Context(), result); err != nil {
		log.Error().Err(err).Msg("failed to create web result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create web result"})
		return
	}
	c.JSON(http.StatusCreated, toAdminWebResult(result))
}

func (h *AdminHandlers) UpdateWebResult(c *gin.Context) {
	var req webResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result := req.toModel(c.Param("id"))
	if err := h.Content.UpdateWebResult(c.Request.Context(), result); err != nil {
		log.Error().Err(err).Msg("failed to update web result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update web result"})
		return
	}
	c.JSON(http.StatusOK, toAdminWebResult(result))
}

func (h *AdminHandlers) DeleteWebResult(c *gin.Context) {
	if err := h.Content.DeleteWebResult(c.Request.Context(), c.Param("id")); err != nil {
		log.Error().Err(err).Msg("failed to delete web result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete web result"})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- pre-landing config ---

// adminPreLandingConfig exposes the destination override the visitor-facing
// payloads keep hidden.
type adminPreLandingConfig struct {
	models.PreLandingConfig
	TargetURL string `json:"targetUrl"`
}

func toAdminPreLanding(cfg models.PreLandingConfig) adminPreLandingConfig {
	return adminPreLandingConfig{PreLandingConfig: cfg, TargetURL: cfg.TargetURL}
}

type preLandingRequest struct {
	LogoURL          string `json:"logoUrl"`
	LogoSize         int    `json:"logoSize"`
	MainImageURL     string `json:"mainImageUrl"`
	Headline         string `json:"headline"`
	Description      string `json:"description"`
	HeadlineFontSize int    `json:"headlineFontSize"`
	HeadlineColor    string `json:"headlineColor"`
	DescriptionColor string `json:"descriptionColor"`
	ButtonText       string `json:"buttonText"`
	ButtonColor      string `json:"buttonColor"`
	BackgroundColor  string `json:"backgroundColor"`
	BackgroundImage  string `json:"backgroundImage"`
	CountdownSeconds int    `json:"countdownSeconds"`
	RequireEmail     bool   `json:"requireEmail"`
	TargetURL        string `json:"targetUrl"`
}

// defaults matching the admin console form.
func (r *preLandingRequest) toModel(webResultID string) models.PreLandingConfig {
	cfg := models.PreLandingConfig{
		ID:               uuid.New().String(),
		WebResultID:      webResultID,
		LogoURL:          r.LogoURL,
		LogoSize:         r.LogoSize,
		MainImageURL:     r.MainImageURL,
		Headline:         r.Headline,
		Description:      r.Description,
		HeadlineFontSize: r.HeadlineFontSize,
		HeadlineColor:    r.HeadlineColor,
		DescriptionColor: r.DescriptionColor,
		ButtonText:       r.ButtonText,
		ButtonColor:      r.ButtonColor,
		BackgroundColor:  r.BackgroundColor,
		BackgroundImage:  r.BackgroundImage,
		CountdownSeconds: r.CountdownSeconds,
		RequireEmail:     r.RequireEmail,
		TargetURL:        r.TargetURL,
	}
	if cfg.LogoSize == 0 {
		cfg.LogoSize = 100
	}
	if cfg.HeadlineFontSize == 0 {
		cfg.HeadlineFontSize = 32
	}
	if cfg.HeadlineColor == "" {
		cfg.HeadlineColor = "#ffffff"
	}
	if cfg.DescriptionColor == "" {
		cfg.DescriptionColor = "#cccccc"
	}
	if cfg.ButtonText == "" {
		cfg.ButtonText = "Visit Now"
	}
	if cfg.ButtonColor == "" {
		cfg.ButtonColor = "#3b82f6"
	}
	if cfg.BackgroundColor == "" {
		cfg.BackgroundColor = "#1a1a2e"
	}
	return cfg
}

func (h *AdminHandlers) GetPreLanding(c *gin.Context) {
	cfg, err := h.PreLanding.ByWebResult(c.Request.Context(), c.Param("webResultId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No pre-landing config for this web result"})
			return
		}
		log.Error().Err(err).Msg("failed to load pre-landing config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pre-landing config"})
		return
	}
	c.JSON(http.StatusOK, toAdminPreLanding(*cfg))
}

func (h *AdminHandlers) UpsertPreLanding(c *gin.Context) {
	var req preLandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cfg := req.toModel(c.Param("webResultId"))
	if err := h.PreLanding.Upsert(c.Request.Context(), cfg); err != nil {
		log.Error().Err(err).Msg("failed to upsert pre-landing config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save pre-landing config"})
		return
	}
	c.JSON(http.StatusOK, toAdminPreLanding(cfg))
}

func (h *AdminHandlers) DeletePreLanding(c *gin.Context) {
	if err := h.PreLanding.Delete(c.Request.Context(), c.Param("webResultId")); err != nil {
		log.Error().Err(err).Msg("failed to delete pre-landing config")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete pre-landing config"})
		return
	}
	c.Status(http.StatusNoContent)
}
