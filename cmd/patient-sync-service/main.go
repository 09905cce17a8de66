package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/simple-clinic/clinic-sync/pkg/common/config"
	"github.com/simple-clinic/clinic-sync/pkg/common/database"
	"github.com/simple-clinic/clinic-sync/pkg/common/kafka"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"github.com/simple-clinic/clinic-sync/pkg/common/middleware"
	"github.com/simple-clinic/clinic-sync/pkg/common/models"
	"github.com/simple-clinic/clinic-sync/pkg/observability/metrics"
	"github.com/simple-clinic/clinic-sync/pkg/patient"
	"github.com/simple-clinic/clinic-sync/pkg/synclock"
	"gorm.io/gorm"
)

type PatientSyncApp struct {
	service  *patient.Service
	consumer *kafka.Consumer
}

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer database.ClosePostgres()

	repo := patient.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate patient tables")
	}

	redisClient, err := database.GetRedis(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to redis")
	}
	defer database.CloseRedis()

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.MergeEventsTopic)
	defer producer.Close()

	opts := patient.ServiceOptions{
		Locker:    synclock.NewRedisLocker(redisClient, ""),
		LockTTL:   cfg.MergeLockTTL,
		Publisher: producer,
		Metrics:   metrics.New(),
	}
	consumerOpts := kafka.ConsumerOptions{
		Retry: kafka.RetryPolicy{
			MaxRetries:      uint64(max(cfg.ConsumerMaxRetries, 0)),
			InitialInterval: cfg.ConsumerRetryDelay,
			MaxInterval:     5 * time.Second,
			Retryable:       retryable,
		},
		Source: "patient-sync-service",
	}
	if cfg.MergeEventsDLQTopic != "" {
		dlq := kafka.NewProducer(cfg.KafkaBrokers, cfg.MergeEventsDLQTopic)
		defer dlq.Close()
		opts.DLQ = dlq
		consumerOpts.DLQ = dlq
	}

	svc := patient.NewService(repo, patient.NewNameFilter(cfg.FuzzyMatchThreshold), patient.SearchConfig{
		FuzzySearchV2Enabled: cfg.FuzzySearchV2Enabled,
		Limit:                cfg.SearchResultLimit,
	}, opts)

	app := &PatientSyncApp{service: svc}
	app.consumer = kafka.NewConsumer(cfg.KafkaBrokers, cfg.PatientSyncTopic, cfg.KafkaGroupID+"-patients", consumerOpts)
	defer app.consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := app.consumer.Consume(ctx, app.handleEvent); err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Fatal("consumer error")
		}
	}()

	router := mux.NewRouter()
	router.Use(middleware.Standard)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", readyHandler(db, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})).Methods(http.MethodGet)

	router.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)

	patient.NewHTTPHandler(svc, cfg.MaxRequestBody).Register(router.PathPrefix("/api/v1").Subrouter())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.ForService("patient-sync-service").WithFields(map[string]interface{}{
			"host":      cfg.ServerHost,
			"port":      cfg.ServerPort,
			"search_v2": cfg.FuzzySearchV2Enabled,
		}).Info("Patient Sync Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Patient Sync Service...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Patient Sync Service stopped")
}

func (a *PatientSyncApp) handleEvent(ctx context.Context, event models.Event) error {
	if event.Type != models.EventPatientSync {
		logger.Log.WithField("event_type", event.Type).Debug("ignoring event")
		return nil
	}
	var payloads []patient.PatientPayload
	if err := kafka.DecodeData(event, "patients", &payloads); err != nil {
		logger.Log.WithError(err).WithField("event_id", event.ID).Error("dropping malformed patient sync event")
		return nil
	}
	_, err := a.service.MergeWithLocalData(ctx, payloads)
	return err
}

func readyHandler(db *gorm.DB, pingRedis func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err == nil {
			err = pingRedis(ctx)
		}
		if err != nil {
			logger.Log.WithError(err).Warn("readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}

// retryable marks merge failures that a later attempt can get past.
func retryable(err error) bool {
	return errors.Is(err, synclock.ErrLockHeld) || errors.Is(err, patient.ErrStoreUnavailable)
}
