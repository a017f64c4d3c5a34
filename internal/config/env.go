package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"

	BlobFS = "fs"
	BlobS3 = "s3"
)

type Config struct {
	Port           string
	JWTSecret      string
	LogLevel       string
	AllowedOrigins []string
	MaxUploadBytes int64

	MetadataBackend string
	DatabaseURL     string
	SslCertPath     string
	MongoURI        string
	MongoDatabase   string
	SQLitePath      string

	BlobBackend  string
	UploadDir    string
	TempDir      string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	S3Endpoint   string

	AIAPIKey string
	GenModel string
}

// LoadConfig loads the environment variables and returns the config, or an
// error naming the first missing value the selected backends need.
func LoadConfig() (*Config, error) {

	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 50)) << 20,

		MetadataBackend: strings.ToLower(getEnv("METADATA_BACKEND", BackendPostgres)),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SslCertPath:     getEnv("SSL_CERT_PATH", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "docvault"),
		SQLitePath:      getEnv("SQLITE_PATH", "./docvault.db"),

		BlobBackend:  strings.ToLower(getEnv("BLOB_BACKEND", BlobFS)),
		UploadDir:    getEnv("UPLOAD_DIR", "./uploads"),
		TempDir:      getEnv("TEMP_DIR", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),

		AIAPIKey: getEnv("GEMINI_API_KEY", ""),
		GenModel: getEnv("GEN_MODEL", "gemini-1.5-flash"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	switch c.MetadataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL not set")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI not set")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH not set")
		}
	default:
		return fmt.Errorf("unknown METADATA_BACKEND %q", c.MetadataBackend)
	}

	switch c.BlobBackend {
	case BlobFS:
		if c.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR not set")
		}
	case BlobS3:
		if c.BucketName == "" {
			return fmt.Errorf("BUCKET_NAME not set")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}
	return nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("env value is not an int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
