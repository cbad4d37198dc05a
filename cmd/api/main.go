package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/config"
	"careconnect.org/internal/donations"
	"careconnect.org/internal/httpapi"
	"careconnect.org/internal/obs"
	"careconnect.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	cfg := config.Load()

	if err := obs.InitLogger(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer obs.Sync()
	log := obs.Logger()
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("CARECONNECT_COMMIT"))

	var (
		store donations.Store
		users auth.UserStore
		ready httpapi.ReadyProbe
	)
	if cfg.DatabaseDSN != "" {
		pgStore, err := pg.Open(cfg.DatabaseDSN)
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}
		defer pgStore.Close()
		store = pgStore
		users = pgStore
		ready = httpapi.ReadyProbe{DB: pgStore.DB()}
		log.Info("using postgres store")
	} else {
		mem := donations.NewInMemory()
		mem.SeedDemoData()
		memUsers := auth.NewInMemoryUsers()
		if err := memUsers.SeedDemoUsers(); err != nil {
			log.Fatal("seed demo users", zap.Error(err))
		}
		store = mem
		users = memUsers
		log.Info("using in-memory store with demo data")
	}

	api := httpapi.New(store, users, httpapi.Options{
		Version:      version,
		Ready:        ready,
		RateLimitRPS: cfg.RateLimitRPS,
		MaxBodyBytes: cfg.MaxBodyBytes,
		CORSOrigin:   cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("starting careconnect-api", zap.String("version", version), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("stopped")
}
