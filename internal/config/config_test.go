package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultPort(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TRUST_PROXY_HEADERS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port: got %d, want 3000", cfg.Port)
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("Addr: got %q, want %q", cfg.Addr(), ":3000")
	}
	if cfg.BodyLimit != DefaultBodyLimit {
		t.Errorf("BodyLimit: got %d, want %d", cfg.BodyLimit, DefaultBodyLimit)
	}
	if cfg.TrustProxyHeaders {
		t.Error("TrustProxyHeaders should default to false")
	}
}

func TestLoad_PortFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("HOST", "127.0.0.1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port: got %d, want 8080", cfg.Port)
	}
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr: got %q", cfg.Addr())
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	for _, v := range []string{"abc", "0", "-1", "70000", "80a"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("PORT", v)
			_, err := Load()
			if !errors.Is(err, ErrInvalidPort) {
				t.Errorf("Load with PORT=%q: got err %v, want ErrInvalidPort", v, err)
			}
		})
	}
}

func TestLoad_Optional(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, ,http://localhost:5173 ")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("BODY_LIMIT", "not-a-number")
	t.Setenv("TLS_CERT_FILE", "cert.pem")
	t.Setenv("TLS_KEY_FILE", "")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
		t.Errorf("CORSAllowedOrigins: got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS: got %v, want 2.5", cfg.RateLimitRPS)
	}
	if cfg.BodyLimit != DefaultBodyLimit {
		t.Errorf("BodyLimit should fall back, got %d", cfg.BodyLimit)
	}
	if cfg.TLSEnabled() {
		t.Error("TLSEnabled: want false with only a cert file")
	}
	if !cfg.TrustProxyHeaders {
		t.Error("TrustProxyHeaders: want true")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PORT=4321\nBOOTSTRAP_TEST_KEEP=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	t.Setenv("BOOTSTRAP_TEST_KEEP", "from-env")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("PORT") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 4321 {
		t.Errorf("Port: got %d, want 4321 from env file", cfg.Port)
	}
	if got := os.Getenv("BOOTSTRAP_TEST_KEEP"); got != "from-env" {
		t.Errorf("existing variable overridden: got %q", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
