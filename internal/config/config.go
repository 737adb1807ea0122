package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

// Config holds the main configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Logging  Logging  `mapstructure:"logging"`
	Pipeline Pipeline `mapstructure:"pipeline"`
	Storage  Storage  `mapstructure:"storage"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Retry    Retry    `mapstructure:"retry"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP port to listen on
}

// Logging holds logger configuration.
type Logging struct {
	Level string `mapstructure:"level"` // zerolog level name
}

// Pipeline holds processing pipeline configuration.
type Pipeline struct {
	Concurrency   int    `mapstructure:"concurrency"`     // images processed at the same time, at most 3
	DefaultFormat string `mapstructure:"default_format"`  // output format when a request omits it
	MaxUploadSize int64  `mapstructure:"max_upload_size"` // multipart form limit in bytes
}

// Storage holds configuration for the object storage backend.
type Storage struct {
	Enabled    bool   `mapstructure:"enabled"`
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// Kafka holds configuration for the Kafka message queue.
type Kafka struct {
	Enabled     bool     `mapstructure:"enabled"`
	GroupID     string   `mapstructure:"group_id"`     // Consumer group ID
	Topic       string   `mapstructure:"topic"`        // Topic with image submissions
	EventsTopic string   `mapstructure:"events_topic"` // Topic for processed image events
	Brokers     []string `mapstructure:"brokers"`      // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("pipeline.concurrency", 3)
	v.SetDefault("pipeline.default_format", "webp")
	v.SetDefault("pipeline.max_upload_size", 32<<20)
	v.SetDefault("storage.bucket_name", "images")
	v.SetDefault("kafka.group_id", "image-compressor")
	v.SetDefault("kafka.topic", "image.submitted")
	v.SetDefault("kafka.events_topic", "image.processed")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", time.Second)
	v.SetDefault("retry.backoff", 2.0)
}

// bindEnv binds critical environment variables to Viper keys.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"storage.endpoint":   "MINIO_ENDPOINT",
		"storage.access_key": "MINIO_ACCESS_KEY",
		"storage.secret_key": "MINIO_SECRET_KEY",
		"kafka.brokers":      "KAFKA_BROKERS",
		"server.http_port":   "HTTP_PORT",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}

	return nil
}

// Load reads the configuration from the YAML file at path. An empty path
// yields the defaults overridden by the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Pipeline.Concurrency < 1 || cfg.Pipeline.Concurrency > 3 {
		cfg.Pipeline.Concurrency = 3
	}

	return &cfg, nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msgf("failed to load config %s", path)
	}

	return cfg
}
