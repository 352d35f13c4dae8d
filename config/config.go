package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dosada05/x1-arena/storage"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	DatabaseURL        string
	JWTSecretKey       string
	AdminPasswordHash  string
	ServerPort         int
	CORSAllowedOrigins []string
	SyncTimeout        time.Duration

	// R2 is nil when remote snapshot sync is disabled.
	R2 *storage.CloudflareR2UploaderConfig
}

var errR2Partial = errors.New("R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME and R2_PUBLIC_BASE_URL must be set together")

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	adminHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	syncTimeout := 8 * time.Second
	if raw := os.Getenv("SYNC_TIMEOUT"); raw != "" {
		syncTimeout, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SYNC_TIMEOUT environment variable: %w", err)
		}
		if syncTimeout <= 0 {
			return nil, fmt.Errorf("SYNC_TIMEOUT must be positive, got %s", syncTimeout)
		}
	}

	r2, err := loadR2()
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		AdminPasswordHash:  adminHash,
		ServerPort:         port,
		CORSAllowedOrigins: splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		SyncTimeout:        syncTimeout,
		R2:                 r2,
	}, nil
}

func loadR2() (*storage.CloudflareR2UploaderConfig, error) {
	cfg := storage.CloudflareR2UploaderConfig{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}
	fields := []string{cfg.AccountID, cfg.AccessKeyID, cfg.SecretAccessKey, cfg.BucketName, cfg.PublicBaseURL}
	set := 0
	for _, f := range fields {
		if f != "" {
			set++
		}
	}
	switch set {
	case 0:
		return nil, nil
	case len(fields):
		return &cfg, nil
	default:
		return nil, errR2Partial
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
