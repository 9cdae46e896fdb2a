package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"dataorbit/api/analytics"
	"dataorbit/api/database"
	"dataorbit/api/funnel"
	"dataorbit/api/geo"
	"dataorbit/api/handlers"
	"dataorbit/api/logger"
	"dataorbit/api/middleware"
	"dataorbit/api/store"
	"dataorbit/api/tracking"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	logger.Init("dataorbit-api")

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Initialize PostgreSQL (content, sessions, users, emails) ---
	dbClient, err := database.NewPostgresDB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL database")
	}
	defer dbClient.Close()

	// --- Initialize ClickHouse (tracking events) ---
	chClient, err := database.NewClickHouseDB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize ClickHouse database")
	}
	defer chClient.Close()

	// --- Initialize Redis cache (optional) ---
	cache, err := database.NewRedisCache()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Redis cache")
	}
	defer cache.Close()

	// --- Initialize Stores ---
	userStore := store.NewUserStore(dbClient.DB)
	sessionStore := store.NewSessionStore(dbClient.DB)
	emailStore := store.NewEmailStore(dbClient.DB)
	contentStore := store.NewContentStore(dbClient.DB)
	preLandingStore := store.NewPreLandingStore(dbClient.DB, cache)
	eventStore := store.NewEventStore(chClient)

	// --- Initialize Services ---
	geoClient := geo.NewClient(cache)
	tracker := tracking.NewService(sessionStore, eventStore, geoClient)
	funnelManager := funnel.NewManager(preLandingStore, emailStore, tracker)
	analyticsService := analytics.NewService(eventStore, contentStore, sessionStore, emailStore)

	// --- Initialize Handlers ---
	authHandlers := handlers.NewAuthHandlers(userStore)
	trackingHandlers := handlers.NewTrackingHandlers(tracker)
	contentHandlers := handlers.NewContentHandlers(contentStore)
	funnelHandlers := handlers.NewFunnelHandlers(funnelManager, contentStore)
	adminHandlers := handlers.NewAdminHandlers(contentStore, preLandingStore)
	analyticsHandlers := handlers.NewAnalyticsHandlers(analyticsService, eventStore)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		// Authentication endpoints (no authentication required)
		api.POST("/signup", authHandlers.Signup)
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		// Public visitor surface
		api.POST("/session", trackingHandlers.EnsureSession)
		api.POST("/track", trackingHandlers.TrackEvent)

		api.GET("/categories", contentHandlers.ListCategories)
		api.GET("/blogs", contentHandlers.ListBlogs)
		api.GET("/blogs/:slug", contentHandlers.BlogBySlug)
		api.GET("/results/:page", contentHandlers.ResultsPage)

		funnelGroup := api.Group("/funnel")
		{
			funnelGroup.POST("/click", funnelHandlers.Click)
			funnelGroup.GET("/:id", funnelHandlers.Status)
			funnelGroup.POST("/:id/email", funnelHandlers.SubmitEmail)
			funnelGroup.POST("/:id/visit", funnelHandlers.Visit)
			funnelGroup.POST("/:id/cancel", funnelHandlers.Cancel)
		}

		// Admin console (requires a valid JWT token)
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired())
		{
			admin.POST("/categories", adminHandlers.CreateCategory)
			admin.DELETE("/categories/:id", adminHandlers.DeleteCategory)

			admin.GET("/blogs", adminHandlers.ListBlogs)
			admin.POST("/blogs", adminHandlers.CreateBlog)
			admin.PUT("/blogs/:id", adminHandlers.UpdateBlog)
			admin.DELETE("/blogs/:id", adminHandlers.DeleteBlog)

			admin.GET("/related-searches", adminHandlers.ListRelatedSearches)
			admin.POST("/related-searches", adminHandlers.CreateRelatedSearch)
			admin.PUT("/related-searches/:id", adminHandlers.UpdateRelatedSearch)
			admin.DELETE("/related-searches/:id", adminHandlers.DeleteRelatedSearch)

			admin.GET("/web-results", adminHandlers.ListWebResults)
			admin.POST("/web-results", adminHandlers.CreateWebResult)
			admin.PUT("/web-results/:id", adminHandlers.UpdateWebResult)
			admin.DELETE("/web-results/:id", adminHandlers.DeleteWebResult)

			admin.GET("/pre-landing/:webResultId", adminHandlers.GetPreLanding)
			admin.PUT("/pre-landing/:webResultId", adminHandlers.UpsertPreLanding)
			admin.DELETE("/pre-landing/:webResultId", adminHandlers.DeletePreLanding)

			stats := admin.Group("/analytics")
			{
				stats.GET("/summary", analyticsHandlers.Summary)
				stats.GET("/breakdown", analyticsHandlers.Breakdown)
				stats.GET("/events", analyticsHandlers.RecentEvents)
				stats.GET("/event-counts", analyticsHandlers.EventCountsOverTime)
				stats.GET("/unique-sessions", analyticsHandlers.UniqueSessionsOverTime)
				stats.GET("/top-pages", analyticsHandlers.TopPages)
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", port).Msg("API server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("API server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	// Let in-flight event writes land and stop countdown goroutines before
	// the process exits.
	funnelManager.Close()
	tracker.Flush()

	log.Info().Msg("server exiting")
}
