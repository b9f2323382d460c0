package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path, expanding ${ENV_VAR} references before
// unmarshaling.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// ResolveSecrets overrides secret config fields from AWS SSM / Secrets
// Manager when the corresponding sources are enabled. YAML values stand when
// no override source is configured.
func ResolveSecrets(ctx context.Context, cfg *Config) error {
	if cfg.AWS.UseSSM && cfg.AWS.DatabaseURLParam != "" {
		loader, err := NewSSMLoader(ctx)
		if err != nil {
			return fmt.Errorf("init ssm loader: %w", err)
		}
		v, err := loader.GetParameter(ctx, cfg.AWS.DatabaseURLParam, true)
		if err != nil {
			return fmt.Errorf("resolve database url: %w", err)
		}
		cfg.DatabaseURL = v
	}

	if cfg.AWS.UseSecretsManager && cfg.AWS.JWTSecretName != "" {
		loader, err := NewSecretsLoader(ctx)
		if err != nil {
			return fmt.Errorf("init secrets loader: %w", err)
		}
		v, err := loader.GetSecret(ctx, cfg.AWS.JWTSecretName)
		if err != nil {
			return fmt.Errorf("resolve jwt secret: %w", err)
		}
		cfg.JWT.SigningKey = v
	}

	return nil
}
