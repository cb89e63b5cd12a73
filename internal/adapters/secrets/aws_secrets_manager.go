package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	secretsmanagertypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	adapterports "github.com/kevin07696/payments-admin/internal/adapters/ports"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
)

// AWSSecretsManagerConfig selects the region and credentials profile.
// Endpoint overrides the service URL, e.g. for LocalStack.
type AWSSecretsManagerConfig struct {
	Region   string
	Profile  string
	Endpoint string

	CacheTTL    time.Duration
	EnableCache bool
}

// DefaultAWSSecretsManagerConfig caches secrets for five minutes
func DefaultAWSSecretsManagerConfig(region string) *AWSSecretsManagerConfig {
	return &AWSSecretsManagerConfig{
		Region:      region,
		CacheTTL:    5 * time.Minute,
		EnableCache: true,
	}
}

// secretValueGetter is the slice of the Secrets Manager client the adapter uses
type secretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// awsSecretsManagerAdapter implements the SecretStore port for AWS Secrets Manager
type awsSecretsManagerAdapter struct {
	client secretValueGetter
	logger ports.Logger
	cache  *secretCache
}

// NewAWSSecretsManagerAdapter creates a new AWS Secrets Manager adapter
func NewAWSSecretsManagerAdapter(ctx context.Context, cfg *AWSSecretsManagerConfig, logger ports.Logger) (adapterports.SecretStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOptions []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("Using AWS Secrets Manager",
		ports.String("region", cfg.Region),
		ports.String("endpoint", cfg.Endpoint),
		ports.Duration("cache_ttl", cfg.CacheTTL))

	return newAWSSecretsManagerAdapter(secretsmanager.NewFromConfig(awsConfig, clientOptions...), cfg, logger), nil
}

func newAWSSecretsManagerAdapter(client secretValueGetter, cfg *AWSSecretsManagerConfig, logger ports.Logger) *awsSecretsManagerAdapter {
	return &awsSecretsManagerAdapter{
		client: client,
		logger: logger,
		cache:  newSecretCache(cfg.EnableCache, cfg.CacheTTL),
	}
}

// GetSecret retrieves a secret by name or ARN. A "#field" suffix selects one
// key of a JSON secret, e.g. "payments-admin/paypal#client_secret".
func (a *awsSecretsManagerAdapter) GetSecret(ctx context.Context, path string) (*adapterports.Secret, error) {
	if cached := a.cache.get(path); cached != nil {
		return cached, nil
	}

	secretID, field, _ := strings.Cut(path, "#")

	out, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	var notFound *secretsmanagertypes.ResourceNotFoundException
	switch {
	case errors.As(err, &notFound):
		return nil, fmt.Errorf("%w: %s", adapterports.ErrSecretNotFound, secretID)
	case err != nil:
		a.logger.Error("Secrets Manager read failed",
			ports.String("secret_id", secretID),
			ports.Err(err))
		return nil, fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}

	value := aws.ToString(out.SecretString)
	if field != "" {
		if value, err = jsonField(value, field); err != nil {
			return nil, fmt.Errorf("secret %s: %w", secretID, err)
		}
	}

	secret := &adapterports.Secret{
		Value:   value,
		Version: aws.ToString(out.VersionId),
		Metadata: map[string]string{
			"arn":  aws.ToString(out.ARN),
			"name": aws.ToString(out.Name),
		},
	}
	if out.CreatedDate != nil {
		secret.CreatedAt = out.CreatedDate.UTC().Format(time.RFC3339)
	}
	a.cache.set(path, secret)

	a.logger.Debug("Secrets Manager secret loaded",
		ports.String("secret_id", secretID),
		ports.String("version", secret.Version))
	return secret, nil
}

// jsonField extracts a string field from a JSON object secret
func jsonField(raw, field string) (string, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return "", fmt.Errorf("field %q requested but secret is not a JSON object", field)
	}
	v, ok := data[field].(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q", adapterports.ErrSecretNotFound, field)
	}
	return v, nil
}
