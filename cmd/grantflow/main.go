// cmd/grantflow/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"grantflow/internal/common/aws"
	"grantflow/internal/common/config"
	"grantflow/internal/common/database"
	"grantflow/internal/common/logger"
	"grantflow/internal/common/observability"
	"grantflow/internal/grants/audit"
	"grantflow/internal/grants/filter"
	"grantflow/internal/grants/lifecycle"
	"grantflow/internal/grants/notify"
	"grantflow/internal/grants/oracle"
	"grantflow/internal/grants/store"
	"grantflow/internal/models"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting grant engine...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Audit trail ---
	recorder := audit.NewRecorder(pg.DB, log)
	if err := recorder.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("audit schema setup failed", zap.Error(err))
	}

	// --- Notifications ---
	var senders notify.MultiSender
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client initialization failed", zap.Error(err))
		}
		senders = append(senders, notify.NewEmailSender(sesClient, cfg.Notifications, log))
		zapLog.Info("Email notifications enabled", zap.String("from", cfg.Notifications.Email.FromEmail))
	}
	if cfg.Notifications.SMS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client initialization failed", zap.Error(err))
		}
		senders = append(senders, notify.NewSMSSender(snsClient, cfg.Notifications, log))
		zapLog.Info("SMS notifications enabled")
	}
	var sender lifecycle.Sender
	if len(senders) > 0 {
		sender = senders
	} else {
		zapLog.Info("Notifications disabled")
	}

	// --- Core service ---
	grantStore := store.New(rdb.GetClient(), log)
	oracleClient := oracle.NewClient(cfg.Oracle, log)
	service := lifecycle.NewService(
		grantStore,
		oracleClient,
		recorder,
		sender,
		log,
		cfg.Budget.DefaultFiscalYear,
		cfg.Budget.DefaultTotal,
	).WithObservability(obs)

	// --- Categorization dispatcher ---
	dispatcherCtx, stopDispatcher := context.WithCancel(ctx)
	defer stopDispatcher()
	if cfg.Dispatcher.Enabled {
		go runDispatcher(dispatcherCtx, service, cfg.Dispatcher, log)
		zapLog.Info("Categorization dispatcher started",
			zap.Int("pollIntervalMs", cfg.Dispatcher.PollInterval))
	}

	// --- Health & Metrics Server ---
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			status := "ready"
			code := http.StatusOK
			if err := rdb.Ping(r.Context()); err != nil {
				status = "not ready"
				code = http.StatusServiceUnavailable
			}
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status": status,
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		mux.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, mux); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	stopDispatcher()
	zapLog.Info("Grant engine stopped gracefully")
}

// runDispatcher polls for submitted applications and pushes each through
// oracle categorization. Every poll cycle uses a fresh oracle session.
func runDispatcher(ctx context.Context, service *lifecycle.Service, cfg config.DispatcherConfig, log logger.Logger) {
	interval := time.Duration(cfg.PollInterval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dispatchOnce(ctx, service, log)
		}
	}
}

func dispatchOnce(ctx context.Context, service *lifecycle.Service, log logger.Logger) {
	apps, err := service.ListApplications(ctx, filter.Criteria{Status: models.StatusSubmitted})
	if err != nil {
		log.WithError(err).Error("dispatcher failed to list applications", nil)
		return
	}
	if len(apps) == 0 {
		return
	}

	session := oracle.Session{ID: uuid.NewString()}
	for _, app := range apps {
		if _, err := service.Categorize(ctx, app.ID, session); err != nil {
			log.WithError(err).Warn("categorization failed", map[string]interface{}{
				"applicationId": app.ID,
			})
		}
	}
}
