package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Logging  LoggingConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Query    QueryConfig
	Worker   WorkerConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
	RateLimit       int
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains token verification settings. Tokens are issued by an
// external identity service sharing JWTSecret.
type AuthConfig struct {
	JWTSecret         string
	AccessTokenExpiry time.Duration
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// StorageConfig selects and configures the remote artifact store.
type StorageConfig struct {
	Provider string // memory, s3 or gcs
	Bucket   string
	Region   string
	// Endpoint overrides the S3 endpoint (MinIO, localstack).
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// CredentialsFile is a GCS service account key file.
	CredentialsFile string
	// PublicBaseURL prefixes object keys to build returned references.
	PublicBaseURL string
}

// UploadConfig bounds image uploads.
type UploadConfig struct {
	MaxFiles     int
	MaxFileSize  int64
	OutputFormat string
	Quality      string
	MaxDimension int
	// MaxPixels bounds the decoded width*height of a single image.
	MaxPixels    int
	MaxParallel  int
	ResourceKind string
	BatchTag     string
	Tags         []string
}

// QueryConfig holds listing page sizes.
type QueryConfig struct {
	PageSize          int
	FavoritesPageSize int
	MaxPageSize       int
}

// WorkerConfig schedules background jobs.
type WorkerConfig struct {
	FavoritesSweepEnabled bool
	FavoritesSweepSpec    string
}

// Load loads configuration from environment variables. Callers serving
// requests check it with Validate.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := Defaults()
	cfg.Server = ServerConfig{
		Host:            getEnv("SERVER_HOST", cfg.Server.Host),
		Port:            getEnvAsInt("SERVER_PORT", cfg.Server.Port),
		ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout),
		WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout),
		ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout),
		FrontendURL:     getEnv("FRONTEND_URL", cfg.Server.FrontendURL),
		Environment:     getEnv("ENVIRONMENT", cfg.Server.Environment),
		RateLimit:       getEnvAsInt("RATE_LIMIT_PER_MINUTE", cfg.Server.RateLimit),
	}
	cfg.Database = DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", cfg.Database.Driver),
		Host:            getEnv("DB_HOST", cfg.Database.Host),
		Port:            getEnvAsInt("DB_PORT", cfg.Database.Port),
		Name:            getEnv("DB_NAME", cfg.Database.Name),
		User:            getEnv("DB_USER", ""),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSLMODE", cfg.Database.SSLMode),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime),
		Path:            getEnv("DB_PATH", cfg.Database.Path),
	}
	cfg.Auth = AuthConfig{
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", cfg.Auth.AccessTokenExpiry),
	}
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", cfg.Logging.Level),
		Format:     getEnv("LOG_FORMAT", cfg.Logging.Format),
		OutputPath: getEnv("LOG_OUTPUT", cfg.Logging.OutputPath),
	}
	cfg.Storage = StorageConfig{
		Provider:        getEnv("STORAGE_PROVIDER", cfg.Storage.Provider),
		Bucket:          getEnv("STORAGE_BUCKET", ""),
		Region:          getEnv("STORAGE_REGION", cfg.Storage.Region),
		Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
		AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
		CredentialsFile: getEnv("STORAGE_CREDENTIALS_FILE", ""),
		PublicBaseURL:   getEnv("STORAGE_PUBLIC_BASE_URL", ""),
	}
	cfg.Upload = UploadConfig{
		MaxFiles:     getEnvAsInt("UPLOAD_MAX_FILES", cfg.Upload.MaxFiles),
		MaxFileSize:  int64(getEnvAsInt("UPLOAD_MAX_FILE_SIZE", int(cfg.Upload.MaxFileSize))),
		OutputFormat: getEnv("UPLOAD_OUTPUT_FORMAT", cfg.Upload.OutputFormat),
		Quality:      getEnv("UPLOAD_QUALITY", cfg.Upload.Quality),
		MaxDimension: getEnvAsInt("UPLOAD_MAX_DIMENSION", cfg.Upload.MaxDimension),
		MaxPixels:    getEnvAsInt("UPLOAD_MAX_PIXELS", cfg.Upload.MaxPixels),
		MaxParallel:  getEnvAsInt("UPLOAD_MAX_PARALLEL", cfg.Upload.MaxParallel),
		ResourceKind: getEnv("UPLOAD_RESOURCE_KIND", cfg.Upload.ResourceKind),
		BatchTag:     getEnv("UPLOAD_BATCH_TAG", cfg.Upload.BatchTag),
		Tags:         getEnvAsList("UPLOAD_TAGS", cfg.Upload.Tags),
	}
	cfg.Query = QueryConfig{
		PageSize:          getEnvAsInt("QUERY_PAGE_SIZE", cfg.Query.PageSize),
		FavoritesPageSize: getEnvAsInt("QUERY_FAVORITES_PAGE_SIZE", cfg.Query.FavoritesPageSize),
		MaxPageSize:       getEnvAsInt("QUERY_MAX_PAGE_SIZE", cfg.Query.MaxPageSize),
	}
	cfg.Worker = WorkerConfig{
		FavoritesSweepEnabled: getEnvAsBool("FAVORITES_SWEEP_ENABLED", cfg.Worker.FavoritesSweepEnabled),
		FavoritesSweepSpec:    getEnv("FAVORITES_SWEEP_SPEC", cfg.Worker.FavoritesSweepSpec),
	}

	return cfg, nil
}

// Defaults returns the configuration used when no variable is set. The JWT
// secret is left empty and must be provided.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			FrontendURL:     "http://localhost:5173",
			Environment:     "development",
			RateLimit:       120,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Host:            "localhost",
			Port:            5432,
			Name:            "datahub",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			Path:            "./datahub.db",
		},
		Auth: AuthConfig{
			AccessTokenExpiry: 15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
		Storage: StorageConfig{
			Provider: "memory",
			Region:   "eu-west-3",
		},
		Upload: UploadConfig{
			MaxFiles:     3,
			MaxFileSize:  5 << 20,
			OutputFormat: "jpg",
			Quality:      "auto",
			MaxDimension: 2560,
			MaxPixels:    40_000_000,
			MaxParallel:  3,
			ResourceKind: "publications",
			BatchTag:     "Publication",
			Tags:         []string{"publications"},
		},
		Query: QueryConfig{
			PageSize:          50,
			FavoritesPageSize: 15,
			MaxPageSize:       100,
		},
		Worker: WorkerConfig{
			FavoritesSweepEnabled: true,
			FavoritesSweepSpec:    "@every 1h",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Storage.Provider {
	case "memory":
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for provider %s", c.Storage.Provider)
		}
	default:
		return fmt.Errorf("unsupported storage provider: %s", c.Storage.Provider)
	}

	if c.Upload.MaxFiles < 1 {
		return fmt.Errorf("UPLOAD_MAX_FILES must be positive")
	}
	if c.Upload.MaxFileSize < 1 {
		return fmt.Errorf("UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.MaxPixels < 1 {
		return fmt.Errorf("UPLOAD_MAX_PIXELS must be positive")
	}
	if c.Upload.MaxParallel < 1 {
		return fmt.Errorf("UPLOAD_MAX_PARALLEL must be positive")
	}
	if c.Upload.ResourceKind == "" || c.Upload.BatchTag == "" {
		return fmt.Errorf("UPLOAD_RESOURCE_KIND and UPLOAD_BATCH_TAG must be set")
	}

	if c.Query.PageSize < 1 || c.Query.FavoritesPageSize < 1 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.Query.MaxPageSize < c.Query.PageSize || c.Query.MaxPageSize < c.Query.FavoritesPageSize {
		return fmt.Errorf("QUERY_MAX_PAGE_SIZE must not be below the page sizes")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
