package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"briefforge/api/internal/app"
	"briefforge/api/internal/brief"
	"briefforge/api/internal/briefrepo"
	"briefforge/api/internal/cache"
	"briefforge/api/internal/config"
	"briefforge/api/internal/objstore"
	"briefforge/api/internal/search"
	"briefforge/api/internal/sharelink"
	"briefforge/api/internal/store"
	"briefforge/api/internal/suggest"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
	if err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	if applied > 0 {
		log.Printf("applied %d migrations", applied)
	}

	if err := os.MkdirAll(cfg.ReposDir, 0o755); err != nil {
		log.Fatalf("failed to create repos dir: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	briefRepo := briefrepo.New(cfg.ReposDir)
	shares := sharelink.New(dataStore)

	pgLike := search.NewPgLike(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgLike)

	var briefCache *cache.BriefCache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		briefCache, err = cache.NewBriefCache(cfg.RedisURL, cfg.BriefCacheTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		log.Printf("brief cache enabled ttl=%s", cfg.BriefCacheTTL)
	}

	var uploader brief.Uploader
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		objectStore, err := objstore.New(ctx, objstore.Config{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MinioPublicURL,
		})
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
		uploader = objectStore
		log.Printf("export artifacts uploading to bucket %s", cfg.MinioBucket)
	}

	var suggester *suggest.Generator
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		suggester = suggest.NewGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	exporter := brief.NewService(briefRepo, uploader, dataStore, log.Default())

	service := app.New(cfg, dataStore, app.Deps{
		Suggester: suggester,
		Exporter:  exporter,
		History:   briefRepo,
		Shares:    shares,
		Cache:     briefCache,
		Search:    searchService,
		Logger:    log.Default(),
	})

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("BriefForge API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
