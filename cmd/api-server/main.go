package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/phealth-au/platform/pkg/common/config"
	"github.com/phealth-au/platform/pkg/common/database"
	"github.com/phealth-au/platform/pkg/common/logger"
	"github.com/phealth-au/platform/pkg/funds"
	"github.com/phealth-au/platform/pkg/products"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	fundsRepo := funds.NewRepository(db)
	productsRepo := products.NewRepository(db)
	for _, migrate := range []func() error{fundsRepo.AutoMigrate, productsRepo.AutoMigrate} {
		if err := migrate(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate tables")
		}
	}

	fundsHandler := funds.NewHTTPHandler(funds.NewService(fundsRepo))
	productsHandler := products.NewHTTPHandler(products.NewService(productsRepo),
		database.GetRedis(), cfg.SearchCacheTTL)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	fundsHandler.Register(api)
	productsHandler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("API server started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("API server stopped")
}
