package main

import (
	"context"
	"errors"
	"fmt"

	adapterports "github.com/kevin07696/payments-admin/internal/adapters/ports"
	"github.com/kevin07696/payments-admin/internal/adapters/secrets"
	"github.com/kevin07696/payments-admin/internal/config"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
)

// initSecretStore builds the backend selected by SECRET_MANAGER:
//   - env (default): secrets are plain environment variables
//   - local: files under SECRETS_DIR
//   - aws: AWS Secrets Manager (AWS_REGION, AWS_PROFILE, AWS_SECRETS_ENDPOINT)
//   - vault: HashiCorp Vault KV (VAULT_ADDR, VAULT_AUTH_METHOD, ...)
func initSecretStore(ctx context.Context, cfg config.SecretsConfig, logger ports.Logger) (adapterports.SecretStore, error) {
	switch cfg.Backend {
	case "local":
		logger.Warn("Using local file secret store - not for production use",
			ports.String("path", cfg.LocalPath))
		return secrets.NewLocalSecretManager(cfg.LocalPath, logger), nil

	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Profile = cfg.AWSProfile
		awsCfg.Endpoint = cfg.AWSEndpoint
		awsCfg.CacheTTL = cfg.CacheTTL
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.AuthMethod = cfg.VaultAuthMethod
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.RoleID = cfg.VaultRoleID
		vaultCfg.SecretID = cfg.VaultSecretID
		vaultCfg.K8sRole = cfg.VaultK8sRole
		vaultCfg.Namespace = cfg.VaultNamespace
		vaultCfg.MountPath = cfg.VaultMountPath
		vaultCfg.KVVersion = cfg.VaultKVVersion
		vaultCfg.CacheTTL = cfg.CacheTTL
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)

	default:
		return secrets.NewEnvSecretManager(), nil
	}
}

// resolveSecrets replaces configured values with the ones stored at the
// *_PATH locations. A missing secret keeps the environment value.
func resolveSecrets(ctx context.Context, store adapterports.SecretStore, cfg *config.Config, logger ports.Logger) error {
	targets := []struct {
		name  string
		path  string
		value *string
	}{
		{"paypal_client_secret", cfg.Secrets.PayPalClientSecretPath, &cfg.PayPal.ClientSecret},
		{"payments_admin_token", cfg.Secrets.AdminTokenPath, &cfg.Auth.AdminToken},
		{"session_secret", cfg.Secrets.SessionSecretPath, &cfg.Auth.SessionSecret},
	}

	for _, t := range targets {
		if t.path == "" {
			continue
		}

		secret, err := store.GetSecret(ctx, t.path)
		if errors.Is(err, adapterports.ErrSecretNotFound) {
			logger.Warn("Secret not found, keeping environment value",
				ports.String("secret", t.name),
				ports.String("path", t.path))
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve %s: %w", t.name, err)
		}

		*t.value = secret.Value
		logger.Info("Secret resolved",
			ports.String("secret", t.name),
			ports.String("backend", cfg.Secrets.Backend),
			ports.String("version", secret.Version))
	}
	return nil
}
