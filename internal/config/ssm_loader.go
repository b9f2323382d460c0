package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/CleanAfricaNow/civic-service/internal/util/logger"
)

// SSMClient is the minimal Parameter Store surface used here; narrowed for
// test fakes.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMLoader reads parameters from AWS Systems Manager Parameter Store.
type SSMLoader struct {
	client SSMClient
}

// NewSSMLoader builds a loader from the default AWS config chain.
func NewSSMLoader(ctx context.Context) (*SSMLoader, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SSMLoader{client: ssm.NewFromConfig(cfg)}, nil
}

// GetParameter retrieves a parameter value, optionally decrypting it.
func (l *SSMLoader) GetParameter(ctx context.Context, name string, decrypt bool) (string, error) {
	out, err := l.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		logger.Errorf("ssm: get %s: %v", name, err)
		return "", fmt.Errorf("get parameter: %w", err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	return *out.Parameter.Value, nil
}
