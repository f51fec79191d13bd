package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ashhabsport/backend/internal/config"
	"ashhabsport/backend/internal/httpapi"
	"ashhabsport/backend/internal/ratelimit"
	"ashhabsport/backend/internal/service"
	"ashhabsport/backend/internal/store"
	"ashhabsport/backend/internal/store/memory"
	pgstore "ashhabsport/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	secret, err := sessionSecret(cfg)
	if err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if dsn := cfg.DSN(); dsn != "" {
		pg, err := pgstore.New(ctx, dsn)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and database is configured; refusing to start with in-memory fallback", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory (seeded demo data)")
	}

	var limiter ratelimit.AttemptStore = ratelimit.NewMemory(5, time.Minute)
	if cfg.RedisAddr != "" {
		redisLimiter, err := ratelimit.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, 5, time.Minute)
		if err != nil {
			log.Printf("redis unavailable (%v), using in-process login limiter", err)
		} else {
			limiter = redisLimiter
			closers = append(closers, redisLimiter.Close)
			log.Println("login limiter: redis")
		}
	} else {
		log.Println("login limiter: in-process")
	}

	svc := service.New(repo, cfg.DefaultWarehouseID)
	sessions := httpapi.NewSessionManager(secret, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	api, err := httpapi.New(svc, sessions, limiter, cfg.TemplatesDir, cfg.AssetsDir)
	if err != nil {
		log.Fatalf("httpapi: %v", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("storefront backend listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// sessionSecret validates SESSION_SECRET. A configured secret must be long
// enough to sign sessions safely; when unset a random one is generated,
// which invalidates sessions across restarts.
func sessionSecret(cfg config.Config) (string, error) {
	if cfg.SessionSecret != "" {
		if len(cfg.SessionSecret) < 32 {
			return "", fmt.Errorf("SESSION_SECRET must be at least 32 characters")
		}
		return cfg.SessionSecret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	log.Println("WARN: SESSION_SECRET not set, using a random secret; sessions will not survive restarts")
	return hex.EncodeToString(buf), nil
}
