// Package config loads the billed configuration from an optional .env file
// and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret signs tokens when DEV_MODE is set and JWT_SECRET is not.
// It is public, so Validate refuses it outside development.
const DevJWTSecret = "dev-secret-change-me"

// Config is the configuration shared by cmd/server and cmd/web.
type Config struct {
	Port    int
	WebPort int

	// StoreDriver selects the bill repository: "sqlite" or "bolt".
	StoreDriver string
	DBPath      string

	// ReceiptsBackend selects the receipt blob store: "local" or "gcs".
	ReceiptsBackend string
	ReceiptsDir     string
	GCSBucket       string
	MaxReceiptBytes int64

	// PublicURL is the externally reachable base URL of the API server,
	// used to build receipt file URLs.
	PublicURL string

	// APIURL is the API server base URL the HTML front talks to.
	APIURL string

	JWTSecret string
	TokenTTL  time.Duration

	// DevMode allows the built-in development JWT secret.
	DevMode bool

	// AdminEmail and AdminPassword seed the back-office account at startup.
	// Admins cannot be created through the public Register procedure.
	AdminEmail    string
	AdminPassword string

	RequestTimeout time.Duration
	FormTTL        time.Duration

	LogLevel string
}

// Load reads envPath (or ./.env when empty, ignoring a missing file) and
// builds the configuration from the environment.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	webPort, err := getInt("WEB_PORT", 8081)
	if err != nil {
		return nil, err
	}
	maxReceipt, err := getInt("MAX_RECEIPT_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := getDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	reqTimeout, err := getDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	formTTL, err := getDuration("FORM_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	devMode, err := getBool("DEV_MODE", false)
	if err != nil {
		return nil, err
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" && devMode {
		jwtSecret = DevJWTSecret
	}

	cfg := &Config{
		Port:            port,
		WebPort:         webPort,
		StoreDriver:     getEnv("STORE_DRIVER", "sqlite"),
		DBPath:          getEnv("DB_PATH", "./data/billed.db"),
		ReceiptsBackend: getEnv("RECEIPTS_BACKEND", "local"),
		ReceiptsDir:     getEnv("RECEIPTS_DIR", "./data/receipts"),
		GCSBucket:       os.Getenv("GCS_BUCKET"),
		MaxReceiptBytes: int64(maxReceipt),
		PublicURL:       getEnv("PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port)),
		APIURL:          getEnv("API_URL", fmt.Sprintf("http://localhost:%d", port)),
		JWTSecret:       jwtSecret,
		TokenTTL:        tokenTTL,
		DevMode:         devMode,
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		RequestTimeout:  reqTimeout,
		FormTTL:         formTTL,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings and their dependencies.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "sqlite", "bolt":
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want sqlite or bolt", c.StoreDriver)
	}
	switch c.ReceiptsBackend {
	case "local":
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when RECEIPTS_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("invalid RECEIPTS_BACKEND %q: want local or gcs", c.ReceiptsBackend)
	}
	if c.MaxReceiptBytes <= 0 {
		return fmt.Errorf("MAX_RECEIPT_BYTES must be positive")
	}
	switch {
	case c.JWTSecret == "":
		return fmt.Errorf("JWT_SECRET is required (set DEV_MODE=true to use the development secret)")
	case c.JWTSecret == DevJWTSecret && !c.DevMode:
		return fmt.Errorf("JWT_SECRET must not be the development secret outside DEV_MODE")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
