package ports

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned (wrapped) when a backend has no such secret
var ErrSecretNotFound = errors.New("secret not found")

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., PayPal client secret)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretStore resolves runtime secrets (PayPal client secret, admin token,
// session signing key) from a secret management backend.
// Backends: environment, local filesystem, AWS Secrets Manager, HashiCorp Vault.
type SecretStore interface {
	// GetSecret retrieves a secret by its path/name
	// Path format depends on implementation:
	//   - Env: variable name, e.g. "PAYPAL_CLIENT_SECRET"
	//   - Local: file relative to the base directory
	//   - AWS: "payments-admin/paypal/client-secret" or full ARN
	//   - Vault: "payments-admin/paypal" under the KV mount
	// Returns ErrSecretNotFound (wrapped) when the secret does not exist.
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
