package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	secretsmanagertypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	vault "github.com/hashicorp/vault/api"
	adapterports "github.com/kevin07696/payments-admin/internal/adapters/ports"
	"github.com/kevin07696/payments-admin/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSecretManager(t *testing.T) {
	m := &envSecretManager{lookup: func(name string) (string, bool) {
		if name == "PAYPAL_CLIENT_SECRET" {
			return "s3cr3t", true
		}
		if name == "EMPTY" {
			return "", true
		}
		return "", false
	}}

	secret, err := m.GetSecret(context.Background(), "PAYPAL_CLIENT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", secret.Value)

	_, err = m.GetSecret(context.Background(), "EMPTY")
	assert.ErrorIs(t, err, adapterports.ErrSecretNotFound)

	_, err = m.GetSecret(context.Background(), "MISSING")
	assert.ErrorIs(t, err, adapterports.ErrSecretNotFound)
}

func TestLocalSecretManager(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "paypal"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "paypal", "client_secret"), []byte("plain-value\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "admin_token.json"),
		[]byte(`{"value":"tok","tags":{"owner":"ops"},"created_at":"2025-03-01T00:00:00Z"}`), 0o600))

	m := NewLocalSecretManager(dir, mocks.NewMockLogger())
	ctx := context.Background()

	secret, err := m.GetSecret(ctx, "paypal/client_secret")
	require.NoError(t, err)
	assert.Equal(t, "plain-value", secret.Value)

	secret, err = m.GetSecret(ctx, "admin_token.json")
	require.NoError(t, err)
	assert.Equal(t, "tok", secret.Value)
	assert.Equal(t, "ops", secret.Metadata["owner"])

	_, err = m.GetSecret(ctx, "nope")
	assert.ErrorIs(t, err, adapterports.ErrSecretNotFound)

	// Traversal is confined to the base directory
	_, err = m.GetSecret(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, adapterports.ErrSecretNotFound)
}

type fakeSecretsManager struct {
	calls  int
	values map[string]string
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[aws.ToString(in.SecretId)]
	if !ok {
		return nil, &secretsmanagertypes.ResourceNotFoundException{Message: aws.String("not found")}
	}
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(v),
		VersionId:    aws.String("v-1"),
		Name:         in.SecretId,
		CreatedDate:  &created,
	}, nil
}

func TestAWSSecretsManagerAdapter(t *testing.T) {
	fake := &fakeSecretsManager{values: map[string]string{
		"payments-admin/token":  "admin-token",
		"payments-admin/paypal": `{"client_id":"id","client_secret":"sec"}`,
	}}
	a := newAWSSecretsManagerAdapter(fake, DefaultAWSSecretsManagerConfig("us-east-1"), mocks.NewMockLogger())
	ctx := context.Background()

	secret, err := a.GetSecret(ctx, "payments-admin/token")
	require.NoError(t, err)
	assert.Equal(t, "admin-token", secret.Value)
	assert.Equal(t, "v-1", secret.Version)
	assert.Equal(t, "2025-01-02T03:04:05Z", secret.CreatedAt)

	// Cached
	_, err = a.GetSecret(ctx, "payments-admin/token")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)

	secret, err = a.GetSecret(ctx, "payments-admin/paypal#client_secret")
	require.NoError(t, err)
	assert.Equal(t, "sec", secret.Value)

	_, err = a.GetSecret(ctx, "payments-admin/paypal#missing")
	assert.ErrorIs(t, err, adapterports.ErrSecretNotFound)

	_, err = a.GetSecret(ctx, "payments-admin/absent")
	assert.ErrorIs(t, err, adapterports.ErrSecretNotFound)
}

type fakeVault struct {
	paths map[string]*vault.Secret
	err   error
}

func (f *fakeVault) ReadWithContext(ctx context.Context, path string) (*vault.Secret, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.paths[path], nil
}

func TestVaultAdapter_KVv2(t *testing.T) {
	fake := &fakeVault{paths: map[string]*vault.Secret{
		"secret/data/payments-admin/paypal": {Data: map[string]interface{}{
			"data": map[string]interface{}{"client_secret": "sec", "client_id": "id"},
			"metadata": map[string]interface{}{
				"version":      json.Number("3"),
				"created_time": "2025-02-01T00:00:00Z",
			},
		}},
		"secret/data/payments-admin/token": {Data: map[string]interface{}{
			"data": map[string]interface{}{"value": "tok"},
		}},
	}}
	a := newVaultAdapter(fake, DefaultVaultConfig("http://vault:8200"), mocks.NewMockLogger())
	ctx := context.Background()

	secret, err := a.GetSecret(ctx, "payments-admin/paypal#client_secret")
	require.NoError(t, err)
	assert.Equal(t, "sec", secret.Value)
	assert.Equal(t, "3", secret.Version)
	assert.Equal(t, "id", secret.Metadata["client_id"])

	secret, err = a.GetSecret(ctx, "payments-admin/token")
	require.NoError(t, err)
	assert.Equal(t, "tok", secret.Value)

	_, err = a.GetSecret(ctx, "payments-admin/absent")
	assert.ErrorIs(t, err, adapterports.ErrSecretNotFound)
}

func TestVaultAdapter_KVv1AndErrors(t *testing.T) {
	cfg := DefaultVaultConfig("http://vault:8200")
	cfg.KVVersion = "v1"
	cfg.EnableCache = false

	fake := &fakeVault{paths: map[string]*vault.Secret{
		"secret/session": {Data: map[string]interface{}{"b": "second", "a": "first"}},
	}}
	a := newVaultAdapter(fake, cfg, mocks.NewMockLogger())

	secret, err := a.GetSecret(context.Background(), "session")
	require.NoError(t, err)
	assert.Equal(t, "first", secret.Value, "falls back to first key in sorted order")

	fake.err = errors.New("connection refused")
	_, err = a.GetSecret(context.Background(), "session")
	require.Error(t, err)
	assert.NotErrorIs(t, err, adapterports.ErrSecretNotFound)
}

func TestSecretCache_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newSecretCache(true, time.Minute)
	c.now = func() time.Time { return now }

	c.set("k", &adapterports.Secret{Value: "v"})
	require.NotNil(t, c.get("k"))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.get("k"))

	disabled := newSecretCache(false, time.Minute)
	disabled.set("k", &adapterports.Secret{Value: "v"})
	assert.Nil(t, disabled.get("k"))
}
