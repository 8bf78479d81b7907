package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"transfer-pricing/internal/config"
	"transfer-pricing/internal/handlers"
	"transfer-pricing/internal/middleware"
	"transfer-pricing/internal/repositories/interfaces"
	"transfer-pricing/internal/repositories/mongodb"
	"transfer-pricing/internal/services"
	"transfer-pricing/pkg/cache"
	"transfer-pricing/pkg/database"
	"transfer-pricing/pkg/events"
	"transfer-pricing/pkg/logger"
	"transfer-pricing/routes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
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

	if cfg.Database.RunMigrations {
		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		err := database.NewMigrator(mongo.Database, appLogger).Up(migrateCtx)
		cancel()
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			if cfg.Pricing.UsageBackend == config.UsageBackendRedis {
				appLogger.WithError(err).Fatal("Redis is required by the redis usage backend")
			}
			appLogger.WithError(err).Warn("Redis unavailable, route cache disabled")
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	// Repositories
	var routeCache mongodb.CacheService
	if redisCache != nil {
		routeCache = redisCache
	}
	routeRepo := mongodb.NewRouteRepository(mongo.Database, routeCache, cfg.Pricing.RouteCacheTTL)
	ruleRepo := mongodb.NewPriceRuleRepository(mongo.Database)

	// Usage accounting
	// The flusher outlives the signal so it can take a final pass after
	// the recorder has drained.
	usageCtx, stopUsage := context.WithCancel(context.WithoutCancel(ctx))
	defer stopUsage()
	var background sync.WaitGroup
	usage, closeUsage, err := buildUsageRecorder(usageCtx, cfg, ruleRepo, redisCache, &background, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to set up usage accounting")
	}

	// Services
	location, _ := cfg.Pricing.Location() // validated by config.Load
	pricingService := services.NewPricingService(routeRepo, ruleRepo, usage, services.PricingOptions{
		FetchTimeout: cfg.Pricing.FetchTimeout,
		Location:     location,
	}, appLogger)

	// Initialize handlers
	pricingHandler := handlers.NewPricingHandler(pricingService, appLogger)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.App.TrustedProxies); err != nil {
		appLogger.WithError(err).Warn("Ignoring invalid TRUSTED_PROXIES")
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.App.CORSAllowedOrigins))

	v1 := router.Group("/api/v1")
	{
		routes.SetupPricingRoutes(v1, pricingHandler)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		checks := gin.H{"mongodb": "ok"}
		if err := mongo.Ping(pingCtx); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
			checks["mongodb"] = err.Error()
		}
		if redisCache != nil {
			checks["redis"] = "ok"
			if err := redisCache.Ping(pingCtx); err != nil {
				checks["redis"] = err.Error()
			}
		}

		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.App.Version,
			"checks":  checks,
		})
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLogger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server stopped")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("HTTP shutdown incomplete")
	}

	// In-flight quotes are done; drain usage before the stores go away.
	closeUsage()
	stopUsage()
	background.Wait()
}

// buildUsageRecorder wires the configured usage backend. The returned close
// function drains pending increments.
func buildUsageRecorder(
	ctx context.Context,
	cfg *config.Config,
	rules interfaces.PriceRuleRepository,
	redisCache *cache.RedisCache,
	background *sync.WaitGroup,
	log *logger.Logger,
) (services.UsageRecorder, func(), error) {
	var (
		sink    services.UsageSink
		closers []func()
	)

	switch cfg.Pricing.UsageBackend {
	case config.UsageBackendNone:
		return services.NoopUsageRecorder{}, func() {}, nil
	case config.UsageBackendMongo:
		sink = services.NewRepositoryUsageSink(rules)
	case config.UsageBackendRedis:
		if redisCache == nil {
			return nil, nil, errors.New("redis usage backend needs REDIS_ENABLED=true")
		}
		sink = services.NewCounterUsageSink(redisCache)
		flusher := services.NewUsageFlusher(redisCache, rules, cfg.Pricing.UsageFlushInterval, log)
		background.Add(1)
		go func() {
			defer background.Done()
			flusher.Run(ctx)
		}()
	case config.UsageBackendKafka:
		publisher := events.NewUsagePublisher(cfg.Kafka.Brokers, cfg.Kafka.UsageTopic)
		sink = publisher
		closers = append(closers, func() {
			if err := publisher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close usage publisher")
			}
		})
	default:
		return nil, nil, fmt.Errorf("unknown usage backend %q", cfg.Pricing.UsageBackend)
	}

	log.WithFields(map[string]interface{}{
		"backend": sink.Name(),
		"async":   cfg.Pricing.UsageAsync,
	}).Info("Usage accounting configured")

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if !cfg.Pricing.UsageAsync {
		return services.NewSyncUsageRecorder(sink, cfg.Pricing.UsageTimeout, log), closeAll, nil
	}

	recorder := services.NewAsyncUsageRecorder(sink, cfg.Pricing.UsageBuffer, cfg.Pricing.UsageWorkers, cfg.Pricing.UsageTimeout, log)
	return recorder, func() {
		recorder.Close()
		closeAll()
	}, nil
}
