package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"transfer-pricing/internal/config"
	"transfer-pricing/internal/repositories/interfaces"
	"transfer-pricing/internal/repositories/mongodb"
	"transfer-pricing/pkg/database"
	"transfer-pricing/pkg/events"
	"transfer-pricing/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "usage_consumer_messages_consumed_total",
		Help: "Total rule usage events consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "usage_consumer_messages_invalid_total",
		Help: "Total usage events that could not be decoded",
	})
	usageApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "usage_consumer_increments_total",
		Help: "Total applied_count increments written",
	})
	usageErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "usage_consumer_errors_total",
		Help: "Total increments that failed after retries",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, usageApplied, usageErrors)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		AppName: cfg.App.Name + "-usage-consumer",
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	mongo, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongo.Close()

	rules := mongodb.NewPriceRuleRepository(mongo.Database)

	// start metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := mongo.Ping(r.Context()); err != nil {
				http.Error(w, "mongodb not ready", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		appLogger.Infof("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			appLogger.WithError(err).Warn("metrics server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.UsageTopic,
		GroupID:  cfg.Kafka.UsageGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer r.Close()

	appLogger.WithFields(map[string]interface{}{
		"topic":   cfg.Kafka.UsageTopic,
		"brokers": cfg.Kafka.Brokers,
		"group":   cfg.Kafka.UsageGroup,
	}).Info("usage consumer listening")

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				appLogger.Info("shutting down usage consumer")
				return
			}
			appLogger.WithError(err).Warnf("kafka read error, backing off %s", backoff)
			if !sleepCtx(ctx, backoff) {
				appLogger.Info("shutting down usage consumer")
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second
		msgsConsumed.Inc()

		if err := handleMessage(ctx, rules, m.Value, 3, 200*time.Millisecond); err != nil {
			if errors.Is(err, events.ErrPoisonMessage) {
				msgsInvalid.Inc()
			} else {
				usageErrors.Inc()
			}
			appLogger.WithError(err).WithField("offset", m.Offset).Warn("usage event not applied")
		} else {
			usageApplied.Inc()
		}

		// Commit either way: a message that failed after retries is logged and
		// counted, not replayed forever.
		if err := r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			appLogger.WithError(err).Warn("failed to commit offset")
		}
	}
}

// usageIncrementer is the subset of the rule repository the consumer needs.
type usageIncrementer interface {
	IncrementUsage(ctx context.Context, id primitive.ObjectID) error
}

// handleMessage decodes one event and applies it with retry/backoff. Events
// for deleted rules are dropped without retry.
// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func handleMessage(ctx context.Context, rules usageIncrementer, value []byte, attempts int, delay time.Duration) error {
	_, ruleID, err := events.DecodeRuleApplied(value)
	if err != nil {
		return err
	}

	for i := 0; i < attempts; i++ {
		err = rules.IncrementUsage(ctx, ruleID)
		if err == nil || errors.Is(err, interfaces.ErrNotFound) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if !sleepCtx(ctx, delay) {
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
