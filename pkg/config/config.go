package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported blob store backends.
const (
	BlobBackendMinio  = "minio"
	BlobBackendGridFS = "gridfs"
	BlobBackendLocal  = "local"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Blob      BlobConfig
	Inference InferenceConfig
	Upload    UploadConfig
	Files     FilesConfig
	Reconcile ReconcileConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BlobConfig selects and configures the binary store behind uploads.
type BlobConfig struct {
	Backend      string
	ConnectRetry time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	MongoURI     string
	MongoDB      string
	GridFSBucket string

	LocalDir string
}

// InferenceConfig points at the external question-answering service.
type InferenceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// UploadConfig bounds accepted uploads.
type UploadConfig struct {
	MaxFileSizeBytes int64
}

// FilesConfig governs the file directory cache and download links.
type FilesConfig struct {
	CacheEnabled    bool
	CacheTTL        time.Duration
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// ReconcileConfig tunes the orphaned blob/file sweeper.
type ReconcileConfig struct {
	Enabled  bool
	Interval time.Duration
	Grace    time.Duration
	Workers  int
	Retries  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Env == EnvProduction && strings.TrimSpace(c.Files.SignedURLSecret) == "" {
		return fmt.Errorf("FILES_SIGNED_URL_SECRET is required in %s", EnvProduction)
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Blob = BlobConfig{
		Backend:        strings.ToLower(strings.TrimSpace(v.GetString("BLOB_BACKEND"))),
		ConnectRetry:   parseDuration(v.GetString("BLOB_CONNECT_RETRY"), 5*time.Second),
		MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:    v.GetString("MINIO_BUCKET"),
		MinioUseSSL:    v.GetBool("MINIO_USE_SSL"),
		MongoURI:       v.GetString("MONGO_URI"),
		MongoDB:        v.GetString("MONGO_DB"),
		GridFSBucket:   v.GetString("GRIDFS_BUCKET"),
		LocalDir:       v.GetString("BLOB_LOCAL_DIR"),
	}

	cfg.Inference = InferenceConfig{
		BaseURL: strings.TrimRight(v.GetString("INFERENCE_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("INFERENCE_TIMEOUT"), 60*time.Second),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 25 * 1024 * 1024
	}
	cfg.Upload = UploadConfig{MaxFileSizeBytes: maxUpload}

	cfg.Files = FilesConfig{
		CacheEnabled:    v.GetBool("ENABLE_FILES_CACHE"),
		CacheTTL:        parseDuration(v.GetString("FILES_CACHE_TTL"), 2*time.Minute),
		SignedURLSecret: v.GetString("FILES_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("FILES_SIGNED_URL_TTL"), 15*time.Minute),
	}

	cfg.Reconcile = ReconcileConfig{
		Enabled:  v.GetBool("ENABLE_RECONCILE"),
		Interval: positiveDuration(v.GetString("RECONCILE_INTERVAL"), time.Hour),
		Grace:    parseDuration(v.GetString("RECONCILE_GRACE"), 30*time.Minute),
		Workers:  v.GetInt("RECONCILE_WORKERS"),
		Retries:  v.GetInt("RECONCILE_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "studynotes")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BLOB_BACKEND", BlobBackendMinio)
	v.SetDefault("BLOB_CONNECT_RETRY", "5s")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "uploads")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "studynotes")
	v.SetDefault("GRIDFS_BUCKET", "uploads")
	v.SetDefault("BLOB_LOCAL_DIR", "./uploads")

	v.SetDefault("INFERENCE_BASE_URL", "http://localhost:8000")
	v.SetDefault("INFERENCE_TIMEOUT", "60s")

	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 25*1024*1024)

	v.SetDefault("ENABLE_FILES_CACHE", false)
	v.SetDefault("FILES_CACHE_TTL", "2m")
	v.SetDefault("FILES_SIGNED_URL_SECRET", "dev_files_secret")
	v.SetDefault("FILES_SIGNED_URL_TTL", "15m")

	v.SetDefault("ENABLE_RECONCILE", false)
	v.SetDefault("RECONCILE_INTERVAL", "1h")
	v.SetDefault("RECONCILE_GRACE", "30m")
	v.SetDefault("RECONCILE_WORKERS", 1)
	v.SetDefault("RECONCILE_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// positiveDuration is parseDuration that also rejects zero and negative values.
func positiveDuration(raw string, fallback time.Duration) time.Duration {
	if d := parseDuration(raw, fallback); d > 0 {
		return d
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
