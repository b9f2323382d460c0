package config

import "time"

// Config is the root application configuration, loaded from YAML with
// environment expansion. Secret fields may be overridden at boot from AWS
// SSM / Secrets Manager (see ssm_loader.go, secrets_manager.go).
type Config struct {
	Env         string       `yaml:"env"` // "development" or "production"
	Port        int          `yaml:"port"`
	DatabaseURL string       `yaml:"database_url"`
	Logger      LoggerConfig `yaml:"logger"`

	JWT       JWTConfig       `yaml:"jwt"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	AWS       AWSConfig       `yaml:"aws"`
}

// Development reports whether the service runs in development mode; it gates
// taxonomy lookup strictness among other things.
func (c *Config) Development() bool {
	return c.Env != "production"
}

type LoggerConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type JWTConfig struct {
	SigningKey      string        `yaml:"signing_key"`
	AccessDuration  time.Duration `yaml:"access_duration"`
	RefreshDuration time.Duration `yaml:"refresh_duration"`
	Issuer          string        `yaml:"issuer"`
}

type RedisConfig struct {
	Address      string        `yaml:"address"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	FailureRatio float64       `yaml:"failure_ratio"`
	RecoveryTime time.Duration `yaml:"recovery_time"`
	MinRequests  uint64        `yaml:"min_requests"`
}

// StorageConfig points at an S3-compatible object store holding report
// photos and registration documents.
type StorageConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UseSSL       bool   `yaml:"use_ssl"`
	UsePathStyle bool   `yaml:"use_path_style"`
	PublicBase   string `yaml:"public_base"` // base URL for returned object links
}

// NotifierConfig configures the Kafka notification pipeline.
type NotifierConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	BatchSize     int           `yaml:"batch_size"`
	FlushEvery    time.Duration `yaml:"flush_every"`
	QueueCapacity int           `yaml:"queue_capacity"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	TLS           bool          `yaml:"tls"`

	GroupID string `yaml:"group_id"` // consumer side (email worker)
}

// RateLimitConfig bounds the anonymous public bin-reporting endpoint.
type RateLimitConfig struct {
	RatePerInterval int           `yaml:"rate_per_interval"`
	Interval        time.Duration `yaml:"interval"`
	Burst           int           `yaml:"burst"`
	KeyPrefix       string        `yaml:"key_prefix"`
}

// AWSConfig names the optional parameter-store locations of secrets that
// should override the YAML values at boot.
type AWSConfig struct {
	UseSSM            bool   `yaml:"use_ssm"`
	DatabaseURLParam  string `yaml:"database_url_param"`
	UseSecretsManager bool   `yaml:"use_secrets_manager"`
	JWTSecretName     string `yaml:"jwt_secret_name"`
}
