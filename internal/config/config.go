package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port                  int    `mapstructure:"port"`
	AllowedOrigins        string `mapstructure:"allowed_origins"`
	IntakeRateLimitPerIP  int    `mapstructure:"intake_rate_limit_per_ip"`
	LoginRateLimitPerHour int    `mapstructure:"login_rate_limit_per_hour"`
}

// Origins splits the comma separated allow list used by the websocket upgrader.
func (a APIConfig) Origins() []string {
	var out []string
	for _, origin := range strings.Split(a.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains the Redis address shared by rate limits, pub/sub and the task queue.
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Region           string `mapstructure:"region"`
	BucketLookup     string `mapstructure:"bucket_lookup"`
	Bucket           string `mapstructure:"bucket"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
	MaxUploadBytes   int64  `mapstructure:"max_upload_bytes"`
}

// AuthConfig points at the RSA key pair used to sign operator tokens.
type AuthConfig struct {
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// ClamdConfig configures the optional antivirus scan of uploads. An empty address disables it.
type ClamdConfig struct {
	Addr string `mapstructure:"addr"`
}

// WorkerConfig tunes the background task server.
type WorkerConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	// ChromeBin overrides the browser used for PDF sheets; empty means auto-detect.
	ChromeBin   string `mapstructure:"chrome_bin"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.allowed_origins", "")
	v.SetDefault("api.intake_rate_limit_per_ip", 30)
	v.SetDefault("api.login_rate_limit_per_hour", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "caseintake")
	v.SetDefault("database.user", "caseintake")
	v.SetDefault("database.password", "caseintake")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.bucket", "formularios")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("minio.max_upload_bytes", 10485760)
	v.SetDefault("auth.private_key_path", "keys/operator.pem")
	v.SetDefault("auth.public_key_path", "keys/operator.pub.pem")
	v.SetDefault("auth.access_token_ttl", 8*time.Hour)
	v.SetDefault("clamd.addr", "")
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.metrics_addr", ":9091")
	v.SetDefault("worker.chrome_bin", "")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                      "API_PORT",
		"api.allowed_origins":           "API_ALLOWED_ORIGINS",
		"api.intake_rate_limit_per_ip":  "INTAKE_RATE_LIMIT_PER_IP",
		"api.login_rate_limit_per_hour": "LOGIN_RATE_LIMIT_PER_HOUR",
		"database.host":                 "DATABASE_HOST",
		"database.port":                 "DATABASE_PORT",
		"database.name":                 "POSTGRES_DB",
		"database.user":                 "POSTGRES_USER",
		"database.password":             "POSTGRES_PASSWORD",
		"database.sslmode":              "DATABASE_SSLMODE",
		"redis.host":                    "REDIS_HOST",
		"redis.port":                    "REDIS_PORT",
		"minio.endpoint":                "MINIO_ENDPOINT",
		"minio.public_endpoint":         "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":           "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":       "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                 "MINIO_USE_SSL",
		"minio.region":                  "MINIO_REGION",
		"minio.bucket_lookup":           "MINIO_BUCKET_LOOKUP",
		"minio.bucket":                  "MINIO_BUCKET",
		"minio.auto_create_bucket":      "MINIO_AUTO_CREATE_BUCKET",
		"minio.max_upload_bytes":        "MINIO_MAX_UPLOAD_BYTES",
		"auth.private_key_path":         "AUTH_PRIVATE_KEY_PATH",
		"auth.public_key_path":          "AUTH_PUBLIC_KEY_PATH",
		"auth.access_token_ttl":         "AUTH_ACCESS_TOKEN_TTL",
		"clamd.addr":                    "CLAMD_ADDR",
		"worker.concurrency":            "WORKER_CONCURRENCY",
		"worker.metrics_addr":           "WORKER_METRICS_ADDR",
		"worker.chrome_bin":             "CHROME_BIN",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.PublicEndpoint == "" {
		return errors.New("minio public endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.MinIO.MaxUploadBytes <= 0 {
		return errors.New("minio max upload bytes must be positive")
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		return errors.New("auth access token ttl must be positive")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	return nil
}
