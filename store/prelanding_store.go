package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"

	"dataorbit/api/database"
	"dataorbit/api/models"
)

const preLandingCacheTTL = 60 * time.Second

// PreLandingStore reads and writes the per-result interstitial configs.
// Lookups sit on the hot path of every result click, so reads go through a
// short-lived redis cache; a cached "no config" marker avoids re-querying
// results that have none.
type PreLandingStore struct {
	db    *sql.DB
	gq    *goqu.Database
	cache *database.RedisClient
}

// cachedConfig distinguishes "config absent" from a cache miss.
type cachedConfig struct {
	Found  bool                     `json:"found"`
	Config *models.PreLandingConfig `json:"config,omitempty"`
}

func NewPreLandingStore(db *sql.DB, cache *database.RedisClient) *PreLandingStore {
	return &PreLandingStore{
		db:    db,
		gq:    goqu.New("postgres", db),
		cache: cache,
	}
}

func cacheKey(webResultID string) string {
	return "prelanding:" + webResultID
}

var preLandingColumns = []interface{}{
	"id", "web_result_id", "logo_url", "logo_size", "main_image_url",
	"headline", "description", "headline_font_size", "headline_color",
	"description_color", "button_text", "button_color", "background_color",
	"background_image", "countdown_seconds", "require_email", "target_url",
	"created_at",
}

func (s *PreLandingStore) scan(scanner interface{ Scan(...any) error }) (models.PreLandingConfig, error) {
	var cfg models.PreLandingConfig
	var logoURL, mainImageURL, headline, description, backgroundImage, targetURL sql.NullString
	err := scanner.Scan(
		&cfg.ID, &cfg.WebResultID, &logoURL, &cfg.LogoSize, &mainImageURL,
		&headline, &description, &cfg.HeadlineFontSize, &cfg.HeadlineColor,
		&cfg.DescriptionColor, &cfg.ButtonText, &cfg.ButtonColor, &cfg.BackgroundColor,
		&backgroundImage, &cfg.CountdownSeconds, &cfg.RequireEmail, &targetURL,
		&cfg.CreatedAt,
	)
	if err != nil {
		return models.PreLandingConfig{}, err
	}
	cfg.LogoURL = logoURL.String
	cfg.MainImageURL = mainImageURL.String
	cfg.Headline = headline.String
	cfg.Description = description.String
	cfg.BackgroundImage = backgroundImage.String
	cfg.TargetURL = targetURL.String
	return cfg, nil
}

// ByWebResult returns the config for a result, or ErrNotFound when the
// result has no interstitial configured (a valid state, not a failure).
func (s *PreLandingStore) ByWebResult(ctx context.Context, webResultID string) (*models.PreLandingConfig, error) {
	var cached cachedConfig
	if found, err := s.cache.Get(ctx, cacheKey(webResultID), &cached); err == nil && found {
		if !cached.Found {
			return nil, ErrNotFound
		}
		return cached.Config, nil
	}

	query, args, err := s.gq.Select(preLandingColumns...).
		From("pre_landing_config").
		Where(goqu.Ex{"web_result_id": webResultID}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build pre-landing query: %w", err)
	}

	cfg, err := s.scan(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		s.cacheSet(ctx, webResultID, cachedConfig{Found: false})
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pre-landing config: %w", err)
	}

	s.cacheSet(ctx, webResultID, cachedConfig{Found: true, Config: &cfg})
	return &cfg, nil
}

func (s *PreLandingStore) cacheSet(ctx context.Context, webResultID string, val cachedConfig) {
	if err := s.cache.Set(ctx, cacheKey(webResultID), val, preLandingCacheTTL); err != nil {
		log.Debug().Err(err).Msg("failed to cache pre-landing config")
	}
}

// Upsert creates or replaces the config for a web result and drops the
// cache entry so the next click sees the new styling.
func (s *PreLandingStore) Upsert(ctx context.Context, cfg models.PreLandingConfig) error {
	record := goqu.Record{
		"id":                 cfg.ID,
		"web_result_id":      cfg.WebResultID,
		"logo_url":           sql.NullString{String: cfg.LogoURL, Valid: cfg.LogoURL != ""},
		"logo_size":          cfg.LogoSize,
		"main_image_url":     sql.NullString{String: cfg.MainImageURL, Valid: cfg.MainImageURL != ""},
		"headline":           sql.NullString{String: cfg.Headline, Valid: cfg.Headline != ""},
		"description":        sql.NullString{String: cfg.Description, Valid: cfg.Description != ""},
		"headline_font_size": cfg.HeadlineFontSize,
		"headline_color":     cfg.HeadlineColor,
		"description_color":  cfg.DescriptionColor,
		"button_text":        cfg.ButtonText,
		"button_color":       cfg.ButtonColor,
		"background_color":   cfg.BackgroundColor,
		"background_image":   sql.NullString{String: cfg.BackgroundImage, Valid: cfg.BackgroundImage != ""},
		"countdown_seconds":  cfg.CountdownSeconds,
		"require_email":      cfg.RequireEmail,
		"target_url":         sql.NullString{String: cfg.TargetURL, Valid: cfg.TargetURL != ""},
	}

	update := goqu.Record{}
	for k, v := range record {
		if k == "id" || k == "web_result_id" {
			continue
		}
		update[k] = v
	}

	query, args, err := s.gq.Insert("pre_landing_config").
		Rows(record).
		OnConflict(goqu.DoUpdate("web_result_id", update)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build pre-landing upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert pre-landing config: %w", err)
	}

	if err := s.cache.Delete(ctx, cacheKey(cfg.WebResultID)); err != nil {
		log.Debug().Err(err).Msg("failed to invalidate pre-landing cache")
	}
	return nil
}

func (s *PreLandingStore) Delete(ctx context.Context, webResultID string) error {
	query, args, err := s.gq.Delete("pre_landing_config").
		Where(goqu.Ex{"web_result_id": webResultID}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build pre-landing delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete pre-landing config: %w", err)
	}

	if err := s.cache.Delete(ctx, cacheKey(webResultID)); err != nil {
		log.Debug().Err(err).Msg("failed to invalidate pre-landing cache")
	}
	return nil
}
