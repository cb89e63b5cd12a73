package secrets

import (
	"context"
	"fmt"
	"os"

	adapterports "github.com/kevin07696/payments-admin/internal/adapters/ports"
)

// envSecretManager resolves secrets from process environment variables.
// The path is the variable name.
type envSecretManager struct {
	lookup func(string) (string, bool)
}

// NewEnvSecretManager creates the default environment-backed secret store
func NewEnvSecretManager() adapterports.SecretStore {
	return &envSecretManager{lookup: os.LookupEnv}
}

func (m *envSecretManager) GetSecret(ctx context.Context, name string) (*adapterports.Secret, error) {
	value, ok := m.lookup(name)
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: %s", adapterports.ErrSecretNotFound, name)
	}
	return &adapterports.Secret{
		Value:    value,
		Version:  "env",
		Metadata: map[string]string{"source": "environment"},
	}, nil
}
