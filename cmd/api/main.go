package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrvoice-go/internal/api"
	"hrvoice-go/internal/auth"
	"hrvoice-go/internal/campaign"
	"hrvoice-go/internal/config"
	"hrvoice-go/internal/logger"
	"hrvoice-go/internal/media"
	"hrvoice-go/internal/store"
	"hrvoice-go/internal/voice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().WithError(err).Fatal("invalid configuration")
	}

	log := logger.NewWithOptions(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel})
	log.WithField("service", "hrvoice-go").WithField("store", cfg.StoreDriver).Info("starting service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.WithError(err).Warn("store close failed")
		}
	}()

	if cfg.ElevenLabsAPIKey == "" {
		log.Warn("ELEVENLABS_API_KEY not set; voice calls will fail")
	}
	if cfg.HRDevToken == "" && cfg.HRJWTSecret == "" {
		log.Warn("no HR_DEV_TOKEN or HR_JWT_SECRET; HR endpoints will reject every caller")
	}

	voiceClient := voice.NewClient(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, cfg.HTTPTimeout, log)
	defer voiceClient.Close()
	minter := media.NewMinter(cfg.LiveKitURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.LiveKitTokenTTL)

	hub := api.NewHub(log)
	go hub.Run(ctx)

	svc := campaign.NewService(st, voiceClient, minter, hub, campaign.Options{
		DefaultAgentID: cfg.ElevenLabsAgentID,
		PublicBaseURL:  cfg.PublicBaseURL,
	}, log.Component("campaign"))

	handler := &api.Handler{
		Service: svc,
		Auth:    auth.NewAuthenticator(cfg.HRDevToken, cfg.HRJWTSecret),
		Hub:     hub,
		Log:     log.Component("http"),
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server terminated")
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	if cfg.StoreDriver == config.StorePostgres {
		return store.OpenGorm(ctx, cfg.DatabaseURL, cfg.DBConnectAttempts, log)
	}
	log.Warn("using in-memory store; data is lost on restart")
	return store.NewMemory(), nil
}
