package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultPort is used when PORT is unset or empty.
const DefaultPort = 3000

// DefaultBodyLimit is the maximum accepted request body size (100 KiB).
const DefaultBodyLimit = 100 << 10

// ErrInvalidPort is returned by Load when PORT is set but is not a valid TCP port.
var ErrInvalidPort = errors.New("invalid PORT")

type Config struct {
	Port int
	// Host is the interface to bind. Empty means all interfaces.
	Host string

	// Env is "dev" (default) or "prod". When "prod", HSTS is sent on TLS listeners.
	Env string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string
	// LogLevel is one of debug, info (default), warn, error.
	LogLevel string

	// BodyLimit caps JSON and URL-encoded request bodies, in bytes.
	BodyLimit int64
	// FormMaxDepth limits nesting of bracketed form keys such as a[b][c].
	FormMaxDepth int

	// CORSAllowedOrigins is a list of origins allowed for CORS.
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent.
	CORSAllowedOrigins []string

	// RateLimitRPS is the per-IP request rate. 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	// Only enable behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// MetricsPort serves /metrics on its own listener. 0 disables it.
	MetricsPort int
}

// LoadEnvFile injects variables from a dotenv file into the process environment.
// Variables that are already set are left alone. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// EnvFile returns the dotenv path to load, from ENV_FILE or ".env".
func EnvFile() string {
	return getEnv("ENV_FILE", ".env")
}

func Load() (Config, error) {
	port, err := parsePort(os.Getenv("PORT"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Port: port,
		Host: getEnv("HOST", ""),

		Env: getEnv("ENV", "dev"),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		BodyLimit:    int64(getEnvInt("BODY_LIMIT", DefaultBodyLimit)),
		FormMaxDepth: getEnvInt("FORM_MAX_DEPTH", 5),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		MetricsPort: getEnvInt("METRICS_PORT", 0),
	}, nil
}

// Addr is the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// parsePort only defaults when the value is absent. Anything present must be 1..65535.
func parsePort(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultPort, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, v)
	}
	return n, nil
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
