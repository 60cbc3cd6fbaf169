package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("RECEIPTS_BACKEND", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("API_URL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatalf("expected error for explicit missing env file, got config %+v", cfg)
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.StoreDriver != "sqlite" {
		t.Errorf("StoreDriver = %q, want sqlite", cfg.StoreDriver)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.APIURL != "http://localhost:8080" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("STORE_DRIVER", "")
	os.Unsetenv("PORT")
	os.Unsetenv("STORE_DRIVER")

	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "PORT=9090\nSTORE_DRIVER=bolt\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("STORE_DRIVER")
	})

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.StoreDriver != "bolt" {
		t.Errorf("StoreDriver = %q, want bolt", cfg.StoreDriver)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad port", "PORT", "eighty"},
		{"bad driver", "STORE_DRIVER", "postgres"},
		{"bad backend", "RECEIPTS_BACKEND", "s3"},
		{"bad duration", "REQUEST_TIMEOUT", "soon"},
		{"bad dev mode", "DEV_MODE", "maybe"},
		{"admin email without password", "ADMIN_EMAIL", "admin@test.tld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			t.Setenv("ADMIN_PASSWORD", "")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(""); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestValidateGCSRequiresBucket(t *testing.T) {
	cfg := &Config{StoreDriver: "sqlite", ReceiptsBackend: "gcs", MaxReceiptBytes: 1, JWTSecret: "s"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when GCS_BUCKET is missing")
	}
	cfg.GCSBucket = "receipts"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		devMode string
		want    string
		wantErr bool
	}{
		{"missing", "", "", "", true},
		{"development secret outside dev mode", DevJWTSecret, "", "", true},
		{"dev mode falls back", "", "true", DevJWTSecret, false},
		{"explicit secret", "s3cr3t", "", "s3cr3t", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("DEV_MODE", tt.devMode)

			cfg, err := Load("")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got secret %q", cfg.JWTSecret)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.JWTSecret != tt.want {
				t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, tt.want)
			}
		})
	}
}
