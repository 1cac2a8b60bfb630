package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safar/shop-orders/internal/catalog"
	"github.com/safar/shop-orders/internal/config"
	"github.com/safar/shop-orders/internal/database"
	"github.com/safar/shop-orders/internal/events"
	"github.com/safar/shop-orders/internal/httpx"
	"github.com/safar/shop-orders/internal/orders"
	"github.com/safar/shop-orders/internal/pricing"
	"github.com/safar/shop-orders/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic, cfg.Kafka.ServiceName, 1024)
	producer.Start(ctx)

	gateway := catalog.NewCache(catalog.NewSQLGateway(db), rdb, cfg.Redis.CacheTTL)
	sqlStore := store.New(db)

	router := httpx.NewRouter(cfg.Server.RequestTimeout)
	handler := &httpx.OrdersHandler{
		Calculator: pricing.NewCalculator(gateway),
		Builder:    orders.NewBuilder(gateway, sqlStore),
		Orders:     sqlStore,
		Producer:   producer,
		Timeout:    cfg.Server.RequestTimeout,
	}
	handler.Register(router)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	producer.Close()
	cancel()
	producer.WaitClosed()
}
