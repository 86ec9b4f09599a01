package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"scanandgo.org/internal/auth"
	"scanandgo.org/internal/config"
	"scanandgo.org/internal/httpapi"
	"scanandgo.org/internal/obs"
	"scanandgo.org/internal/pulsepoint"
)

var (
	version = "0.1.0"
	commit  = "none"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		log.Fatalf("ping db: %v", err)
	}

	codec, err := auth.NewCodec(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.Lifetime())
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	svc, err := auth.NewService(auth.NewPGStore(db), codec)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	admin := pulsepoint.New(pulsepoint.Config{
		BaseURL:   cfg.PulsePoint.BaseURL,
		ProjectID: cfg.PulsePoint.ProjectID,
		Username:  cfg.PulsePoint.Username,
		Password:  cfg.PulsePoint.Password,
	})
	defer admin.Close()

	api := httpapi.New(
		httpapi.ReadyProbe{DB: db},
		version,
		svc,
		admin,
		httpapi.WithCORSOrigins(cfg.CORSOrigins),
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Starting scanandgo-api %s on %s", version, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	log.Println("Stopped")
}
