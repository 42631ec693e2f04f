package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reybrally/cart-service/internal/adapters/backend"
	"github.com/reybrally/cart-service/internal/adapters/cache"
	httpHandlers "github.com/reybrally/cart-service/internal/adapters/http/handlers"
	"github.com/reybrally/cart-service/internal/app/carts"
	"github.com/reybrally/cart-service/internal/app/commands"
	"github.com/reybrally/cart-service/internal/config"
	"github.com/reybrally/cart-service/internal/logging"
	svcPkg "github.com/reybrally/cart-service/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.LogError("config load failed", err, logrus.Fields{})
		os.Exit(1)
	}
	logging.InitLogger(cfg.App.LogLevel)
	logging.LogInfo("starting cart-service", logrus.Fields{
		"pid":     os.Getpid(),
		"port":    cfg.HTTP.Port,
		"backend": cfg.EventLog.Backend,
		"env":     cfg.App.Env,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventLog, err := backend.Open(ctx, cfg)
	if err != nil {
		logging.LogError("event log open failed", err, logrus.Fields{"backend": cfg.EventLog.Backend})
		os.Exit(1)
	}

	hcfg := commands.HandlerConfig{
		Producer: cfg.EventLog.Producer,
		Retries:  cfg.EventLog.PublishRetries,
		Backoff:  cfg.EventLog.PublishBackoff,
	}
	bus := commands.NewBus(
		commands.NewProductAddHandler(eventLog, hcfg),
		commands.NewProductRemoveHandler(eventLog, hcfg),
	)
	logging.LogInfo("command bus ready", logrus.Fields{"kinds": bus.Kinds()})

	folds := carts.DefaultFolds()
	if cfg.Carts.ApplyRemovals {
		folds = carts.FoldsWithRemovals()
	}
	registry := carts.NewRegistry(folds)
	dedupe := cache.NewSeenLRU(cfg.Carts.DedupeCapacity)
	router := carts.NewRouter(eventLog, registry, carts.RouterConfig{
		Dedupe:        dedupe,
		StatsInterval: cfg.Carts.StatsInterval,
	})

	routerDone := make(chan struct{})
	go func() {
		defer close(routerDone)
		if err := router.Run(ctx); err != nil {
			logging.LogError("cart router failed, shutting down", err, logrus.Fields{})
			cancel()
		}
	}()

	replayStart := time.Now()
	go func() {
		if err := registry.WaitLive(ctx); err == nil {
			logging.LogInfo("carts live", logrus.Fields{"carts": registry.Len(), "replay": time.Since(replayStart).String()})
		}
	}()

	svc := svcPkg.NewCartService(bus, registry)
	h := httpHandlers.NewCartHandlers(svc, cfg.App.PlaceholderProduct)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      httpHandlers.Routes(h, cfg.HTTP.RequestTimeout),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.LogInfo("http server listening", logrus.Fields{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogError("http server ListenAndServe failed", err, logrus.Fields{"addr": srv.Addr})
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logging.LogInfo("shutdown signal received", logrus.Fields{"signal": sig.String()})
	case <-ctx.Done():
		logging.LogInfo("shutting down after fatal error", logrus.Fields{})
	}

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logging.LogError("http server shutdown failed", err, logrus.Fields{})
	} else {
		logging.LogInfo("http server shutdown complete", logrus.Fields{})
	}

	// cancelling ctx tears down every topic subscription
	cancel()
	<-routerDone
	if err := eventLog.Close(); err != nil {
		logging.LogError("event log close failed", err, logrus.Fields{})
	} else {
		logging.LogInfo("event log closed", logrus.Fields{})
	}
	routed, skipped := router.Stats()
	logging.LogInfo("bye", logrus.Fields{
		"carts":       registry.Len(),
		"routed":      routed,
		"skipped":     skipped,
		"dedupe_size": dedupe.Len(),
	})
}
