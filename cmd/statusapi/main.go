package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poolguard/uptime/internal/adapter"
	"github.com/poolguard/uptime/internal/config"
	"github.com/poolguard/uptime/internal/minerstore"
	"github.com/poolguard/uptime/internal/statusapi"
	"github.com/poolguard/uptime/internal/statussvc"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	log.Println("statusapi starting...")
	adapter.ClearProxyEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := minerstore.Open(cfg.Database.DSN, minerstore.Options{
		MaxOpenConns:   cfg.Database.MaxConnections,
		IdleTimeout:    cfg.Database.IdleTimeout,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		ConnectRetries: cfg.Database.Retries,
	})
	if err != nil {
		log.Fatalf("Failed to open miner store: %v", err)
	}
	defer store.Close()
	log.Println("miner store connected")

	registry := adapter.NewRegistry()
	svc := statussvc.NewService(store, registry)
	svc.Concurrency = cfg.Status.Concurrency

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := statusapi.NewServer(svc, addr, cfg.Reconcile.CronSpec)

	go func() {
		if err := server.Start(); err != nil {
			log.Printf("statusapi: HTTP server error: %v", err)
		}
	}()

	log.Printf("statusapi is running on %s. Press Ctrl+C to stop.", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("statusapi shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("statusapi stopped")
}
