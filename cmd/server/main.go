package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rmarch/car-config/internal/adapter/handler"
	"github.com/rmarch/car-config/internal/adapter/storage"
	"github.com/rmarch/car-config/internal/auth"
	"github.com/rmarch/car-config/internal/config"
	"github.com/rmarch/car-config/internal/core/service"
	"github.com/rmarch/car-config/internal/pkg/logger"
	"github.com/rmarch/car-config/internal/token"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal("open mysql", "error", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("ping mysql", "error", err)
	}
	log.Info("connected to mysql")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("ping redis", "error", err)
	}
	log.Info("connected to redis")

	store := storage.NewMySQLAdapter(db)
	cache := storage.NewRedisAdapter(rdb, cfg.SnapshotTTL)

	cat, err := service.LoadCatalog(ctx, store)
	if err != nil {
		log.Fatal("load catalog", "error", err)
	}
	log.Info("catalog loaded", "models", len(cat.Models()), "accessories", len(cat.Accessories()))

	sessions := token.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	capabilities := token.NewIssuer(cfg.JWTSecret, cfg.CapabilityTTL)
	authService := auth.NewService(store, sessions, log)
	configService := service.NewConfigService(cat, store, cache, log)

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	handler.NewHTTPHandler(configService, authService, capabilities, log).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("http server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}

	rdb.Close()
	db.Close()
	log.Info("connections closed")
}
