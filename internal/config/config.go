package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PayPalSandboxURL = "https://api-m.sandbox.paypal.com"
	PayPalLiveURL    = "https://api-m.paypal.com"
)

// Config is the process configuration, read from the environment by LoadFromEnv
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	PayPal      PayPalConfig
	Auth        AuthConfig
	Secrets     SecretsConfig
	RateLimit   RateLimitConfig
	Logger      LoggerConfig
}

type ServerConfig struct {
	Port            int
	Host            string
	MetricsPort     int
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
// URL (DATABASE_URL) wins over the discrete DB_* fields.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// PayPalConfig holds REST credentials for refunds
type PayPalConfig struct {
	Mode         string // sandbox or live
	BaseURL      string
	ClientID     string
	ClientSecret string
	Currency     string
	Timeout      time.Duration
}

// AuthConfig holds payments-admin credential sources
type AuthConfig struct {
	AdminToken string
	// AllowListJSON is the raw PAYMENTS_ADMIN_USERS value:
	// [{"username": "...", "password_hash": "...", "role": "CFO"}]
	AllowListJSON     string
	SiteAdminUsers    []string
	SessionSecret     string
	SessionCookieName string
	SessionTTL        time.Duration
	SecureCookies     bool
}

// SecretsConfig selects the secret backend and the paths of secrets to resolve
// through it. Empty paths leave the environment value in place.
type SecretsConfig struct {
	Backend  string // env, local, aws, vault
	CacheTTL time.Duration

	LocalPath string

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress    string
	VaultAuthMethod string
	VaultToken      string
	VaultRoleID     string
	VaultSecretID   string
	VaultK8sRole    string
	VaultNamespace  string
	VaultMountPath  string
	VaultKVVersion  string

	PayPalClientSecretPath string
	AdminTokenPath         string
	SessionSecretPath      string
}

// RateLimitConfig holds per-IP request limits
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding the process environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadFromEnv reads the environment. Secrets named by SecretsConfig paths are
// resolved later and Validate runs after that.
func LoadFromEnv() (*Config, error) {
	env := strings.ToLower(getEnv("ENVIRONMENT", "development"))

	cfg := &Config{
		Environment: env,
		Server: ServerConfig{
			Port:            getEnvAsInt("PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "payments_admin"),
			SSLMode:  os.Getenv("PGSSLMODE"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 2)),
		},
		PayPal: PayPalConfig{
			Mode:         strings.ToLower(getEnv("PAYPAL_MODE", "sandbox")),
			BaseURL:      os.Getenv("PAYPAL_BASE_URL"),
			ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
			ClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
			Currency:     getEnv("PAYPAL_CURRENCY", "USD"),
			Timeout:      getEnvAsDuration("PAYPAL_TIMEOUT", 20*time.Second),
		},
		Auth: AuthConfig{
			AdminToken:        os.Getenv("PAYMENTS_ADMIN_TOKEN"),
			AllowListJSON:     os.Getenv("PAYMENTS_ADMIN_USERS"),
			SiteAdminUsers:    getEnvAsList("SITE_ADMIN_USERS", []string{"admin", "admin@example.com"}),
			SessionSecret:     getEnvWithFallback("SESSION_SECRET", "SECRET_KEY", ""),
			SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session"),
			SessionTTL:        getEnvAsDuration("SESSION_TTL", 12*time.Hour),
			SecureCookies:     getEnvAsBool("SESSION_COOKIE_SECURE", env == "production"),
		},
		Secrets: SecretsConfig{
			Backend:                strings.ToLower(getEnv("SECRET_MANAGER", "env")),
			CacheTTL:               getEnvAsDuration("SECRET_CACHE_TTL", 5*time.Minute),
			LocalPath:              getEnv("SECRETS_DIR", "./secrets"),
			AWSRegion:              getEnvWithFallback("AWS_REGION", "AWS_DEFAULT_REGION", "us-east-1"),
			AWSProfile:             os.Getenv("AWS_PROFILE"),
			AWSEndpoint:            os.Getenv("AWS_SECRETS_ENDPOINT"),
			VaultAddress:           getEnv("VAULT_ADDR", "http://127.0.0.1:8200"),
			VaultAuthMethod:        getEnv("VAULT_AUTH_METHOD", "token"),
			VaultToken:             os.Getenv("VAULT_TOKEN"),
			VaultRoleID:            os.Getenv("VAULT_ROLE_ID"),
			VaultSecretID:          os.Getenv("VAULT_SECRET_ID"),
			VaultK8sRole:           os.Getenv("VAULT_K8S_ROLE"),
			VaultNamespace:         os.Getenv("VAULT_NAMESPACE"),
			VaultMountPath:         getEnv("VAULT_MOUNT_PATH", "secret"),
			VaultKVVersion:         getEnv("VAULT_KV_VERSION", "v2"),
			PayPalClientSecretPath: os.Getenv("PAYPAL_CLIENT_SECRET_PATH"),
			AdminTokenPath:         os.Getenv("PAYMENTS_ADMIN_TOKEN_PATH"),
			SessionSecretPath:      os.Getenv("SESSION_SECRET_PATH"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: env != "production",
		},
	}

	if cfg.PayPal.BaseURL == "" {
		cfg.PayPal.BaseURL = PayPalSandboxURL
		if cfg.PayPal.Mode == "live" {
			cfg.PayPal.BaseURL = PayPalLiveURL
		}
	}

	switch cfg.Secrets.Backend {
	case "env", "local", "aws", "vault":
	default:
		return nil, fmt.Errorf("SECRET_MANAGER must be one of env, local, aws, vault; got %q", cfg.Secrets.Backend)
	}

	return cfg, nil
}

// Validate checks settings that must hold once secrets are resolved
func (c *Config) Validate() error {
	if c.IsProduction() && c.Auth.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST is required")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ConnectionString returns the PostgreSQL URL. DATABASE_URL is normalized
// (postgres:// becomes postgresql://) and gets an sslmode when it has none:
// PGSSLMODE if set, otherwise require for remote hosts and disable for local ones.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return ensureSSLMode(normalizeScheme(c.URL), c.SSLMode)
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode(c.Host)
	}
	u := &url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

func normalizeScheme(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(dsn, "postgres://")
	}
	return dsn
}

func ensureSSLMode(dsn, sslMode string) string {
	if !strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if sslMode == "" {
		host := ""
		if u, err := url.Parse(dsn); err == nil {
			host = u.Hostname()
		}
		sslMode = defaultSSLMode(host)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "sslmode=" + sslMode
}

func defaultSSLMode(host string) string {
	switch host {
	case "", "localhost", "127.0.0.1", "::1", "postgres", "db":
		return "disable"
	default:
		return "require"
	}
}

// envOr returns parse(os.Getenv(key)), or def when the variable is unset or
// does not parse.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func getEnv(key, def string) string {
	return envOr(key, def, func(s string) (string, error) { return s, nil })
}

// getEnvWithFallback reads primary, then fallback, then def
func getEnvWithFallback(primary, fallback, def string) string {
	return getEnv(primary, getEnv(fallback, def))
}

func getEnvAsInt(key string, def int) int { return envOr(key, def, strconv.Atoi) }

func getEnvAsBool(key string, def bool) bool { return envOr(key, def, strconv.ParseBool) }

func getEnvAsFloat(key string, def float64) float64 {
	return envOr(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// getEnvAsDuration accepts Go durations ("20s") or a bare number of seconds
func getEnvAsDuration(key string, def time.Duration) time.Duration {
	return envOr(key, def, func(s string) (time.Duration, error) {
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		secs, err := strconv.Atoi(s)
		return time.Duration(secs) * time.Second, err
	})
}

func getEnvAsList(key string, def []string) []string {
	return envOr(key, def, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	})
}
