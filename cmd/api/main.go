package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/leadforge/enricher/internal/auth"
	"github.com/leadforge/enricher/internal/config"
	"github.com/leadforge/enricher/internal/database"
	"github.com/leadforge/enricher/internal/handler"
	middlewarepkg "github.com/leadforge/enricher/internal/middleware"
	"github.com/leadforge/enricher/internal/repository"
	"github.com/leadforge/enricher/internal/router"
	"github.com/leadforge/enricher/internal/scraper"
	"github.com/leadforge/enricher/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	usersRepo := repository.NewPGXUsersRepository(pool)
	companiesRepo := repository.NewPGXCompaniesRepository(pool)

	authService := service.NewAuthService(usersRepo, jwtManager)
	userService := service.NewUserService(usersRepo)
	companiesService := service.NewCompaniesService(companiesRepo)

	// Many small-business sites run with broken certificate chains, which is
	// why verification is disabled for crawl traffic only.
	crawlClient := &http.Client{
		Timeout: cfg.CrawlTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	crawler := scraper.NewCrawler(crawlClient, scraper.WithMaxExtraPages(cfg.MaxExtraPages))
	processor := service.NewDataProcessor(cfg.PhoneRegion)
	enrichService := service.NewEnrichService(crawler, processor, companiesRepo)

	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Users:       handler.NewUserAdminHandler(userService),
		Companies:   handler.NewCompaniesHandler(companiesService),
		AdminUpload: handler.NewAdminUploadHandler(companiesService),
		Enrich:      handler.NewEnrichHandler(enrichService, companiesService),
	}

	if cfg.SearchAPIKey != "" && cfg.SearchEngineID != "" {
		provider, err := service.NewCustomSearchProvider(ctx, cfg.SearchAPIKey, cfg.SearchEngineID)
		if err != nil {
			log.Fatalf("failed to init search provider: %v", err)
		}
		lookupService := service.NewLookupService(provider)
		promptService := service.NewPromptService(cfg.DefaultCountry)
		handlers.Lookup = handler.NewLookupHandler(lookupService, promptService)
	} else {
		log.Printf("website lookup disabled: SEARCH_API_KEY or SEARCH_ENGINE_ID not set")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
