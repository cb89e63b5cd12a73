package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PAYPAL_MODE", "")
	t.Setenv("PAYPAL_BASE_URL", "")
	t.Setenv("SITE_ADMIN_USERS", "")
	t.Setenv("SECRET_MANAGER", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, PayPalSandboxURL, cfg.PayPal.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.PayPal.Timeout)
	assert.Equal(t, []string{"admin", "admin@example.com"}, cfg.Auth.SiteAdminUsers)
	assert.Equal(t, "env", cfg.Secrets.Backend)
	assert.True(t, cfg.Logger.Development)
	assert.False(t, cfg.Auth.SecureCookies)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PAYPAL_MODE", "live")
	t.Setenv("PAYPAL_BASE_URL", "")
	t.Setenv("PAYPAL_TIMEOUT", "15")
	t.Setenv("SITE_ADMIN_USERS", " root , ops@example.com ,")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SECRET_KEY", "legacy-key")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, PayPalLiveURL, cfg.PayPal.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.PayPal.Timeout)
	assert.Equal(t, []string{"root", "ops@example.com"}, cfg.Auth.SiteAdminUsers)
	assert.Equal(t, "legacy-key", cfg.Auth.SessionSecret)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.Auth.SecureCookies)
	assert.False(t, cfg.Logger.Development)
}

func TestLoadFromEnv_UnknownSecretBackend(t *testing.T) {
	t.Setenv("SECRET_MANAGER", "gcp")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("SECRET_MANAGER", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate(), "production needs a session secret")

	cfg.Auth.SessionSecret = "resolved-from-vault"
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "remote url gets sslmode require",
			cfg:  DatabaseConfig{URL: "postgres://u:p@db.example.com:5432/shop"},
			want: "postgresql://u:p@db.example.com:5432/shop?sslmode=require",
		},
		{
			name: "existing query keeps params",
			cfg:  DatabaseConfig{URL: "postgresql://u:p@db.example.com/shop?connect_timeout=5"},
			want: "postgresql://u:p@db.example.com/shop?connect_timeout=5&sslmode=require",
		},
		{
			name: "explicit sslmode untouched",
			cfg:  DatabaseConfig{URL: "postgresql://u:p@db.example.com/shop?sslmode=verify-full"},
			want: "postgresql://u:p@db.example.com/shop?sslmode=verify-full",
		},
		{
			name: "local url disables ssl",
			cfg:  DatabaseConfig{URL: "postgresql://u:p@localhost:5432/shop"},
			want: "postgresql://u:p@localhost:5432/shop?sslmode=disable",
		},
		{
			name: "PGSSLMODE wins over host default",
			cfg:  DatabaseConfig{URL: "postgresql://u:p@localhost/shop", SSLMode: "prefer"},
			want: "postgresql://u:p@localhost/shop?sslmode=prefer",
		},
		{
			name: "discrete fields",
			cfg:  DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "pw", Database: "payments_admin"},
			want: "postgresql://postgres:pw@localhost:5432/payments_admin?sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ConnectionString())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PAYMENTS_ADMIN_TEST_VAR=from-file\n"), 0o600))

	t.Setenv("PAYMENTS_ADMIN_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("PAYMENTS_ADMIN_TEST_VAR"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("PAYMENTS_ADMIN_TEST_VAR"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
