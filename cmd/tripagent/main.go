package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Desarso/tripagent"
	"github.com/Desarso/tripagent/api"
)

func main() {
	cfg, err := tripagent.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := tripagent.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer app.Close()
	app.Scheduler.Start()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewServer(app.Service).Router(),
	}
	go func() {
		log.Printf("Trip agent listening on %s (model %s/%s, store %s)", cfg.ListenAddr, cfg.ModelProvider, cfg.ModelName, cfg.StoreType)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}
