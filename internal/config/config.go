package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/corray333/backend-labs/fulfillment/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MustInit loads ./.env when present, reads config.yaml over the defaults and installs the logger.
func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	SetDefaults()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/fulfillment-svc")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic("error while reading config file: " + err.Error())
		}
	}

	SetupLogger()
}

// SetDefaults registers the value of every key the service reads.
func SetDefaults() {
	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Request-Id"})
	viper.SetDefault("server.http.cors.max_age", 300)
	viper.SetDefault("server.http.shutdown_timeout", "10s")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
	viper.SetDefault("log.max_size_mb", 50)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age_days", 7)

	viper.SetDefault("postgres.migrations_path", "./migrations")

	viper.SetDefault("orders.strict_transitions", false)
	viper.SetDefault("payments.on_fulfillment_method", "Bayar di Tempat")
	viper.SetDefault("payments.proof_base_url", "")

	viper.SetDefault("lease.backend", "redis")
	viper.SetDefault("lease.ttl", "30s")
	viper.SetDefault("lease.wait", "5s")
	viper.SetDefault("lease.poll_interval", "25ms")

	viper.SetDefault("reports.timezone", "Asia/Jakarta")
	viper.SetDefault("reports.currency", "IDR")
	viper.SetDefault("reports.retry.max_attempts", 3)
	viper.SetDefault("reports.retry.base_delay", "1s")
	viper.SetDefault("reports.cache_ttl", "5m")
	viper.SetDefault("reports.warm_days", 30)
	viper.SetDefault("reports.warm_interval", "5m")

	viper.SetDefault("rabbitmq.outbox.poll_interval_seconds", 10)
	viper.SetDefault("rabbitmq.outbox.batch_size", 100)
	viper.SetDefault("rabbitmq.outbox.retry_interval_seconds", 30)
	viper.SetDefault("rabbitmq.outbox.max_attempts", 5)

	viper.SetDefault("tracing.jaeger_endpoint", "http://jaeger:14268/api/traces")
	viper.SetDefault("tracing.service_name", "fulfillment-svc")
}

func SetupLogger() {
	handler := logger.NewHandler(&logger.Options{
		Level:      viper.GetString("log.level"),
		File:       viper.GetString("log.file"),
		MaxSizeMB:  viper.GetInt("log.max_size_mb"),
		MaxBackups: viper.GetInt("log.max_backups"),
		MaxAgeDays: viper.GetInt("log.max_age_days"),
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}
