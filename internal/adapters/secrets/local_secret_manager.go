package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	adapterports "github.com/kevin07696/payments-admin/internal/adapters/ports"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
)

// localSecretManager implements SecretStore using local filesystem
// WARNING: This is for development only. Use AWS Secrets Manager or Vault in production.
type localSecretManager struct {
	basePath string
	logger   ports.Logger
}

// NewLocalSecretManager creates a new local filesystem secret manager
func NewLocalSecretManager(basePath string, logger ports.Logger) adapterports.SecretStore {
	return &localSecretManager{
		basePath: basePath,
		logger:   logger,
	}
}

// GetSecret reads a secret file. The file may hold the plain value or a JSON
// document of the form {"value": "...", "tags": {...}, "created_at": "..."}.
func (m *localSecretManager) GetSecret(ctx context.Context, secretPath string) (*adapterports.Secret, error) {
	cleaned := filepath.Clean("/" + secretPath)
	filePath := filepath.Join(m.basePath, cleaned)

	m.logger.Debug("Reading secret from filesystem", ports.String("path", secretPath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", adapterports.ErrSecretNotFound, secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	var secretData struct {
		Value     string            `json:"value"`
		Tags      map[string]string `json:"tags"`
		CreatedAt string            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &secretData); err == nil && secretData.Value != "" {
		return &adapterports.Secret{
			Value:     secretData.Value,
			Version:   "v1",
			Metadata:  secretData.Tags,
			CreatedAt: secretData.CreatedAt,
		}, nil
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return nil, fmt.Errorf("empty secret value in file %s", filePath)
	}

	return &adapterports.Secret{
		Value:    value,
		Version:  "v1",
		Metadata: map[string]string{"source": "filesystem"},
	}, nil
}
