package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rmarch/car-config/internal/adapter/handler"
	"github.com/rmarch/car-config/internal/config"
	"github.com/rmarch/car-config/internal/estimate"
	"github.com/rmarch/car-config/internal/pkg/logger"
	"github.com/rmarch/car-config/internal/token"
)

// The estimation service is deployed independently from the configurator
// and shares nothing with it but the token-signing secret.
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	verifier := token.NewIssuer(cfg.JWTSecret, cfg.CapabilityTTL)
	estimator := estimate.New(rand.New(rand.NewSource(time.Now().UnixNano())))

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	handler.NewEstimateHandler(verifier, estimator, log).Register(router)

	srv := &http.Server{Addr: cfg.EstimatorAddr, Handler: router}
	go func() {
		log.Info("estimator listening", "addr", cfg.EstimatorAddr)
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
}
