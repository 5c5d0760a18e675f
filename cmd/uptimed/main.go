package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/poolguard/uptime/internal/adapter"
	"github.com/poolguard/uptime/internal/config"
	"github.com/poolguard/uptime/internal/kvstore"
	"github.com/poolguard/uptime/internal/minerstore"
	"github.com/poolguard/uptime/internal/notify"
	"github.com/poolguard/uptime/internal/reconcile"
)

// notifyAdapter lets a *notify.Notifier satisfy reconcile.Notifier, whose
// event type is decoupled from notify.Event so the engine package never
// has to import an HTTP-facing one.
type notifyAdapter struct {
	n *notify.Notifier
}

func (a notifyAdapter) Notify(ev reconcile.NotifyEvent) {
	a.n.NotifyReconcileEvent(ev.Type, ev.Pool, ev.WorkerName, ev.MinerID, ev.Timestamp)
}

// pools lists the pools reconciled every tick, per the Adapter Registry
// in spec §4.5.
var pools = []string{"viabtc", "litecoinpool", "miningdutch", "f2pool", "binance"}

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	log.Println("uptimed starting...")
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

	kv := kvstore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer kv.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := kv.Ping(pingCtx); err != nil {
		cancel()
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	cancel()
	log.Println("key-value store connected")

	if cfg.Reconcile.BinanceBaseOverride != "" {
		os.Setenv("BINANCE_BASE", cfg.Reconcile.BinanceBaseOverride)
	}

	registry := adapter.NewRegistry()
	coordinator := reconcile.NewCoordinator()
	engine := reconcile.NewEngine(registry, store, kv, coordinator)
	engine.Notifier = notifyAdapter{n: notify.New(cfg.Reconcile.WebhookURL)}

	loc, err := time.LoadLocation(cfg.Reconcile.CronTimezone)
	if err != nil {
		log.Printf("Warning: unknown timezone %q, falling back to UTC", cfg.Reconcile.CronTimezone)
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Reconcile.CronSpec, func() {
		runTick(engine)
	})
	if err != nil {
		log.Fatalf("Failed to schedule reconciliation cron: %v", err)
	}
	c.Start()
	defer c.Stop()

	log.Printf("uptimed running (cron=%s tz=%s). Press Ctrl+C to stop.", cfg.Reconcile.CronSpec, cfg.Reconcile.CronTimezone)

	// Run once immediately so a fresh deploy doesn't wait a full period.
	go runTick(engine)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("uptimed shutting down...")
}

// runTick reconciles every pool, logging but not failing the process on a
// per-pool error so one bad pool doesn't block the others.
func runTick(engine *reconcile.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	for _, pool := range pools {
		if err := engine.Tick(ctx, pool); err != nil {
			log.Printf("uptimed: reconcile %s failed: %v", pool, err)
		}
	}
}
