package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/app"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/config"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/transport/rest"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/transport/ws"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Environment, cfg.LogLevel)
	ctx := context.Background()

	log.WithField("provider", cfg.Payment.Provider).WithField("test_mode", cfg.Payment.TestMode).Info("payment configured")

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer a.Close(context.Background())
	log.Info("connected to MongoDB and Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub(log)
	a.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:     a.AuthService,
		SurveyService:   a.SurveyService,
		PurchaseService: a.PurchaseService,
		ResponseService: a.ResponseService,
		ReportService:   a.ReportService,
		WSHub:           wsHub,
		AllowedOrigins:  cfg.AllowedOrigins,
		Logger:          log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server exited")
}
