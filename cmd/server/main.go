package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/xray-api/internal/envconfig"
	"github.com/Brownie44l1/xray-api/internal/handlers"
	"github.com/Brownie44l1/xray-api/internal/model"
	"github.com/Brownie44l1/xray-api/internal/onnx"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.SetLevel(envconfig.LogLevel())
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	modelsDir := envconfig.Models()
	log.Infof("Loading models from: %s", modelsDir)

	rt := onnx.NewRuntime(onnx.Options{
		SharedLibraryPath: envconfig.SharedLibrary(),
		NumThreads:        envconfig.NumThreads(),
		Logger:            log.WithField("component", "onnx"),
	})

	registry, err := model.NewRegistry(model.DefaultPaths(modelsDir), rt.Load)
	if err != nil {
		rt.Close()
		log.Fatalf("Failed to initialize model registry: %v", err)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			log.Warnf("Failed to close models: %v", err)
		}
		if err := rt.Close(); err != nil {
			log.Warnf("Failed to destroy ONNX environment: %v", err)
		}
	}()

	predictor := model.NewPredictor(registry, log.WithField("component", "predictor"))
	handler := handlers.NewHandler(predictor, registry, envconfig.MaxUploadBytes(), log.WithField("component", "http"))

	port := envconfig.Port()
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handlers.Routes(handler, envconfig.AllowedOrigins()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("Server starting on port %s", port)
	log.Infof("Models loaded: %v", registry.Names())
	log.Info("Endpoints:")
	log.Info("  GET  /health        - Health check")
	log.Info("  POST /predict       - Raw array prediction")
	log.Info("  POST /predict/image - Predict from image upload")
	log.Info("  POST /analyze       - Body part and fracture status")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Server failed: %v", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Server shutdown failed: %v", err)
		}
	}
}
