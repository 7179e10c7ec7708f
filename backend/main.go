package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bloomelein/m/internal/api"
	"bloomelein/m/internal/catalog"
	"bloomelein/m/internal/config"
	"bloomelein/m/internal/database"
	"bloomelein/m/internal/draft"
	"bloomelein/m/internal/migrations"
	"bloomelein/m/internal/receipt"
	"bloomelein/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	seed.LoadStaff(db, cfg.StaffCSV)

	profile, err := catalog.Load(cfg.ProfilePath)
	if err != nil {
		log.Fatalf("failed to load shop profile: %v", err)
	}

	store := database.NewStore(db)
	counter := receipt.NewCounter(cfg.Timezone, store)
	composer := receipt.NewComposer(counter, profile.Layout())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	drafts := draft.NewMemoryStore(cfg.DraftTTL)
	go drafts.Run(ctx, 10*time.Minute)
	limiter := api.NewStaffRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, 10*time.Minute)

	handler := api.New(api.Deps{
		Staff:          store,
		Secret:         cfg.Secret,
		Profile:        profile,
		Composer:       composer,
		Drafts:         drafts,
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Bloomelein receipt server starting on :%s (%s)", cfg.HTTPPort, cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
