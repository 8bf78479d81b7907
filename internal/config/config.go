package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      *AppConfig      `yaml:"app"`
	Database *DatabaseConfig `yaml:"database"`
	Redis    *RedisConfig    `yaml:"redis"`
	Kafka    *KafkaConfig    `yaml:"kafka"`
	Pricing  *PricingConfig  `yaml:"pricing"`
}

type AppConfig struct {
	Name               string   `yaml:"name"`
	Version            string   `yaml:"version"`
	Environment        string   `yaml:"environment"`
	Port               int      `yaml:"port"`
	Host               string   `yaml:"host"`
	Debug              bool     `yaml:"debug"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
	Timezone           string   `yaml:"timezone"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	TrustedProxies     []string `yaml:"trusted_proxies"`
}

func Load() (*Config, error) {
	app := loadAppConfig()
	config := &Config{
		App:      app,
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		Kafka:    loadKafkaConfig(),
		Pricing:  loadPricingConfig(app.Timezone),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the pricing engine cannot start with.
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", c.App.Port)
	}
	if err := c.Pricing.validate(); err != nil {
		return err
	}
	if c.Pricing.UsageBackend == UsageBackendKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("PRICING_USAGE_BACKEND=kafka needs KAFKA_BROKERS")
	}
	return nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:               getEnv("APP_NAME", "transfer-pricing"),
		Version:            getEnv("APP_VERSION", "1.0.0"),
		Environment:        getEnv("APP_ENV", "development"),
		Port:               getEnvAsInt("APP_PORT", 8080),
		Host:               getEnv("APP_HOST", "0.0.0.0"),
		Debug:              getEnvAsBool("APP_DEBUG", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		Timezone:           getEnv("APP_TIMEZONE", "UTC"),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}
