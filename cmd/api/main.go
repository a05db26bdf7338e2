package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vereau-cart/internal/bus"
	"vereau-cart/internal/cart"
	"vereau-cart/internal/checkout"
	"vereau-cart/internal/config"
	"vereau-cart/internal/db"
	"vereau-cart/internal/httpserver"
	cartsnapshotrepo "vereau-cart/internal/repository/cartsnapshot"
	orderrepo "vereau-cart/internal/repository/order"
	productrepo "vereau-cart/internal/repository/product"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	redisClient, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatalf("connect to redis: %v", err)
	}
	defer redisClient.Close()

	eventBus := bus.New()
	if len(cfg.KafkaBrokers) > 0 {
		forwarder := bus.NewForwarder(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer forwarder.Close()
		eventBus.Subscribe(forwarder.Handle)
		logger.Printf("forwarding cart events to kafka topic %s", cfg.KafkaTopic)
	}

	productRepo := productrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool)
	snapshotRepo := cartsnapshotrepo.NewRedis(redisClient)

	cartStore := cart.NewStore(snapshotRepo, productRepo, eventBus)
	checkoutSvc := checkout.New(orderRepo, productRepo, cartStore, eventBus, logger, cfg.CheckoutStepTimeout)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Cart:     cartStore,
		Checkout: checkoutSvc,
		Orders:   orderRepo,
	}, httpserver.Options{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
