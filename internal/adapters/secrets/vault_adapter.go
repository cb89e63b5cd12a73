package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"
	adapterports "github.com/kevin07696/payments-admin/internal/adapters/ports"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
)

// VaultConfig selects the Vault server, login method and KV mount.
// AuthMethod is one of token, approle or kubernetes.
type VaultConfig struct {
	Address    string
	Namespace  string
	AuthMethod string

	Token        string
	RoleID       string
	SecretID     string
	K8sRole      string
	K8sTokenPath string

	MountPath string
	KVVersion string // v1 or v2

	CacheTTL      time.Duration
	EnableCache   bool
	TLSSkipVerify bool
}

// DefaultVaultConfig targets a KV v2 mount named "secret" with token login
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:      address,
		AuthMethod:   "token",
		K8sTokenPath: "/var/run/secrets/kubernetes.io/serviceaccount/token",
		MountPath:    "secret",
		KVVersion:    "v2",
		CacheTTL:     5 * time.Minute,
		EnableCache:  true,
	}
}

// logicalReader is satisfied by *vault.Logical
type logicalReader interface {
	ReadWithContext(ctx context.Context, path string) (*vault.Secret, error)
}

// vaultAdapter implements the SecretStore port for HashiCorp Vault
type vaultAdapter struct {
	logical logicalReader
	config  *VaultConfig
	logger  ports.Logger
	cache   *secretCache
}

// NewVaultAdapter creates a new HashiCorp Vault adapter
func NewVaultAdapter(ctx context.Context, cfg *VaultConfig, logger ports.Logger) (adapterports.SecretStore, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault adapter initialized",
		ports.String("address", cfg.Address),
		ports.String("auth_method", cfg.AuthMethod),
		ports.String("mount_path", cfg.MountPath),
		ports.String("kv_version", cfg.KVVersion),
	)

	return newVaultAdapter(client.Logical(), cfg, logger), nil
}

func newVaultAdapter(logical logicalReader, cfg *VaultConfig, logger ports.Logger) *vaultAdapter {
	return &vaultAdapter{
		logical: logical,
		config:  cfg,
		logger:  logger,
		cache:   newSecretCache(cfg.EnableCache, cfg.CacheTTL),
	}
}

// authenticateVault handles authentication with Vault
func authenticateVault(ctx context.Context, client *vault.Client, cfg *VaultConfig) error {
	switch cfg.AuthMethod {
	case "token":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		return vaultLogin(ctx, client, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})

	case "kubernetes":
		if cfg.K8sTokenPath == "" || cfg.K8sRole == "" {
			return fmt.Errorf("k8s_token_path and k8s_role are required for Kubernetes auth")
		}
		jwt, err := os.ReadFile(cfg.K8sTokenPath)
		if err != nil {
			return fmt.Errorf("failed to read k8s token: %w", err)
		}
		return vaultLogin(ctx, client, "auth/kubernetes/login", map[string]interface{}{
			"jwt":  strings.TrimSpace(string(jwt)),
			"role": cfg.K8sRole,
		})

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

func vaultLogin(ctx context.Context, client *vault.Client, path string, data map[string]interface{}) error {
	resp, err := client.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return fmt.Errorf("%s failed: %w", path, err)
	}
	if resp == nil || resp.Auth == nil {
		return fmt.Errorf("%s returned no auth info", path)
	}
	client.SetToken(resp.Auth.ClientToken)
	return nil
}

// GetSecret reads path from the KV mount. A "#field" suffix selects a key;
// otherwise "value" is used, falling back to the first string key in
// sorted order.
func (a *vaultAdapter) GetSecret(ctx context.Context, path string) (*adapterports.Secret, error) {
	if cached := a.cache.get(path); cached != nil {
		return cached, nil
	}

	secretPath, field, _ := strings.Cut(path, "#")

	start := time.Now()
	secret, err := a.logical.ReadWithContext(ctx, a.kvPath(secretPath))
	if err != nil {
		a.logger.Error("Vault read failed",
			ports.String("path", secretPath),
			ports.Err(err))
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", adapterports.ErrSecretNotFound, secretPath)
	}

	data, version, created, err := a.unwrap(secret.Data)
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", secretPath, err)
	}
	value, err := pickVaultValue(data, field)
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", secretPath, err)
	}

	result := &adapterports.Secret{
		Value:     value,
		Version:   version,
		CreatedAt: created,
		Metadata:  make(map[string]string),
	}
	for k, v := range data {
		if str, ok := v.(string); ok && k != "value" && k != field {
			result.Metadata[k] = str
		}
	}
	a.cache.set(path, result)

	a.logger.Debug("Vault secret loaded",
		ports.String("path", secretPath),
		ports.String("version", version),
		ports.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (a *vaultAdapter) kvPath(secretPath string) string {
	if a.config.KVVersion == "v2" {
		return a.config.MountPath + "/data/" + secretPath
	}
	return a.config.MountPath + "/" + secretPath
}

// unwrap strips the KV v2 envelope, returning the key/value data plus the
// version and creation time from its metadata.
func (a *vaultAdapter) unwrap(raw map[string]interface{}) (map[string]interface{}, string, string, error) {
	if a.config.KVVersion != "v2" {
		return raw, "1", "", nil
	}

	data, ok := raw["data"].(map[string]interface{})
	if !ok {
		return nil, "", "", fmt.Errorf("unexpected KV v2 response shape")
	}

	var version, created string
	if metadata, ok := raw["metadata"].(map[string]interface{}); ok {
		if v, ok := metadata["version"].(json.Number); ok {
			version = v.String()
		}
		created, _ = metadata["created_time"].(string)
	}
	return data, version, created, nil
}

func pickVaultValue(data map[string]interface{}, field string) (string, error) {
	if field != "" {
		if v, ok := data[field].(string); ok && v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%w: field %q", adapterports.ErrSecretNotFound, field)
	}
	if v, ok := data["value"].(string); ok && v != "" {
		return v, nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v, ok := data[k].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("secret value is empty or not found")
}
