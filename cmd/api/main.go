package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"carrier-gateway/internal/core/cache"
	"carrier-gateway/internal/core/config"
	"carrier-gateway/internal/core/logger"
	"carrier-gateway/internal/core/proxy"
	"carrier-gateway/internal/core/server"
	shippingadapter "carrier-gateway/internal/features/shipping/adapters"
	"carrier-gateway/internal/features/shipping/converter"
	shippinghandler "carrier-gateway/internal/features/shipping/handler"
	"carrier-gateway/internal/features/shipping/ports"
	shippingservice "carrier-gateway/internal/features/shipping/service"

	"go.uber.org/zap"
)

// @title Carrier Gateway API
// @version 1.0
// @description Shipping-carrier integration exposing order sync, tracking, serviceability and document retrieval over both provider API generations.
// @contact.name API Support
// @contact.email support@carriergateway.in
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	if err := cfg.Carrier.Validate(); err != nil {
		l.Fatal("Invalid carrier configuration", zap.Error(err))
	}

	redisCache, err := cache.NewRedisAdapter(cfg.RedisURL)
	if err != nil {
		l.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	proxySettings := proxy.FromConfig(cfg.Proxy)

	// Exactly one backend per process, selected by credential presence.
	var backend ports.CarrierBackend
	if cfg.Carrier.UsesModernAPI() {
		backend = shippingadapter.NewModernBackend(cfg.Carrier, proxySettings)
	} else {
		backend = shippingadapter.NewLegacyBackend(cfg.Carrier, proxySettings)
	}
	defer backend.Close()
	l.Info("Carrier backend selected", zap.String("mode", backend.Mode()))

	shippingSvc := shippingservice.NewShippingService(
		cfg.Carrier,
		backend,
		converter.New(cfg.Carrier),
		redisCache,
	)
	shippingHdl := shippinghandler.NewShippingHandler(shippingSvc)

	srv := server.New(cfg)
	shippingHdl.RegisterRoutes(srv.App)

	// Shut down cleanly on SIGINT/SIGTERM so the token refresher stops and
	// in-flight requests drain.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		l.Info("Shutting down", zap.String("signal", sig.String()))
		if err := srv.App.Shutdown(); err != nil {
			l.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
