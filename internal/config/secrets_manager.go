package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/CleanAfricaNow/civic-service/internal/util/logger"
)

// SecretsManagerClient is the minimal Secrets Manager surface used here;
// narrowed for test fakes.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsLoader reads secrets from AWS Secrets Manager.
type SecretsLoader struct {
	client SecretsManagerClient
}

// NewSecretsLoader builds a loader from the default AWS config chain.
func NewSecretsLoader(ctx context.Context) (*SecretsLoader, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SecretsLoader{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// GetSecret retrieves a string secret by name.
func (l *SecretsLoader) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := l.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		logger.Errorf("secrets: get %s: %v", name, err)
		return "", fmt.Errorf("get secret: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}
	return *out.SecretString, nil
}
