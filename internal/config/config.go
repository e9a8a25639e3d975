package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName            string `mapstructure:"SERVICE_NAME"`
	HTTPPort               string `mapstructure:"HTTP_PORT"`
	MongoURI               string `mapstructure:"MONGO_URI"`
	MongoDatabase          string `mapstructure:"MONGO_DATABASE"`
	MinIOEndpoint          string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey         string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey         string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket            string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL            bool   `mapstructure:"MINIO_USE_SSL"`
	RedisAddress           string `mapstructure:"REDIS_ADDRESS"`
	NATSURL                string `mapstructure:"NATS_URL"`
	JWTSecret              string `mapstructure:"JWT_SECRET"`
	PrometheusMetricsPort  string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadConfig reads configuration from environment variables. Defaults suit a
// local docker-compose setup; production overrides everything via env.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVICE_NAME", "accommodation-api")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "tripshare")
	viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	viper.SetDefault("MINIO_BUCKET", "accommodation-images")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("REDIS_ADDRESS", "")
	viper.SetDefault("NATS_URL", "")
	viper.SetDefault("JWT_SECRET", "change-me")
	viper.SetDefault("PROMETHEUS_METRICS_PORT", "")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
