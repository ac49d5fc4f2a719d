package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arzan03/SchoolDesk/internal/certpdf"
	"github.com/arzan03/SchoolDesk/internal/config"
	"github.com/arzan03/SchoolDesk/internal/db"
	"github.com/arzan03/SchoolDesk/internal/handlers"
	"github.com/arzan03/SchoolDesk/internal/logger"
	"github.com/arzan03/SchoolDesk/internal/notify"
	"github.com/arzan03/SchoolDesk/internal/scheduler"
	"github.com/arzan03/SchoolDesk/internal/services"
	"github.com/arzan03/SchoolDesk/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	// Connect to the document store
	st, err := db.Open(ctx, cfg.Mongo, cfg.StoreDriver, log)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}

	// Initialize object storage for exports
	var objects storage.ObjectStore
	if cfg.StoreDriver == "memory" {
		objects = storage.NewMemory()
	} else {
		objects, err = storage.NewMinio(ctx, storage.MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
			Bucket:    cfg.Minio.Bucket,
		}, log)
		if err != nil {
			log.WithError(err).Fatal("connect to MinIO")
		}
	}

	notifier := notify.NewConsole(log)
	if cfg.Mail.SendgridKey != "" {
		notifier = notify.NewSendgrid(cfg.Mail.SendgridKey, cfg.AppName, cfg.Mail.FromName, cfg.Mail.FromEmail)
	}

	renderer, err := certpdf.NewRenderer(cfg.AppName, cfg.Certificate.TemplatePath)
	if err != nil {
		log.WithError(err).Fatal("load certificate template")
	}

	svc := services.New(services.Config{
		AppName:         cfg.AppName,
		JWTSecret:       cfg.JWT.Secret,
		JWTTTL:          cfg.JWT.TTL,
		MinProgress:     cfg.Certificate.MinProgress,
		PaymentSecret:   cfg.Payment.Secret,
		Currency:        cfg.Payment.Currency,
		ExportRetention: cfg.Export.Retention,
		ExportURLExpiry: cfg.Export.URLExpiry,
	}, st.Repos, objects, renderer, notifier, log)

	jobs := scheduler.New(log)
	if err = jobs.AddSweep("export-retention", cfg.Export.Schedule, svc.Exports, 5*time.Minute); err != nil {
		log.WithError(err).Fatal("schedule export sweep")
	}
	jobs.Start()

	app := handlers.NewApp(handlers.New(svc, log), handlers.Options{
		AppName:        cfg.AppName,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		AllowOrigins:   cfg.HTTP.AllowOrigins,
		AccessLog:      os.Stdout,
	})

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err = app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	jobs.Stop(shutdownCtx)
	if err = st.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("close store")
	}
}
