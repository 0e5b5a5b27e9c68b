package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocktake-service/config"
	"stocktake-service/internal/api"
	"stocktake-service/internal/broker"
	"stocktake-service/internal/catalog"
	"stocktake-service/internal/match"
	"stocktake-service/internal/redisclient"
	"stocktake-service/internal/report"
	"stocktake-service/internal/service"
	"stocktake-service/internal/store"
	"stocktake-service/internal/util"
	"stocktake-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting stocktake service")

	tp, err := util.InitTracer("stocktake-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStock)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	catalogClient := catalog.NewClient(catalog.Config{
		SearchURL:   cfg.Catalog.SearchURL,
		PriceURL:    cfg.Catalog.PriceURL,
		UserAgent:   cfg.Catalog.UserAgent,
		SessionUser: cfg.Catalog.SessionUser,
		SessionHash: cfg.Catalog.SessionHash,
		Timeout:     time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second,
	})

	reportWriter, err := report.NewWriter(cfg.Report)
	if err != nil {
		log.Fatalf("Failed to initialize report writer: %v", err)
	}

	matcher := match.NewMatcher()
	reconciler := service.NewPriceReconciler(db, catalogClient, redisClient, eventPublisher)
	ledgerBuilder := service.NewLedgerBuilder(db, matcher, reconciler)
	reportService := service.NewReportService(ledgerBuilder, reportWriter, eventPublisher)
	inventoryService := service.NewInventoryService(
		db, catalogClient, redisClient, eventPublisher,
		time.Duration(cfg.Catalog.LookupCacheTTL)*time.Second)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	auditConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStock, cfg.Kafka.ConsumerGroup)
	auditWorker := worker.NewAuditWorker(auditConsumer, db)
	go func() {
		if err := auditWorker.Start(workerCtx); err != nil {
			log.Printf("Audit worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(inventoryService, reportService, reportWriter)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	auditWorker.Stop()

	log.Println("Server exited")
}
