// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// hostname_port validates "host:port" with a numeric port.
	validate.RegisterValidation("hostname_port", func(fl validator.FieldLevel) bool {
		addr := fl.Field().String()
		_, port, err := net.SplitHostPort(addr)
		if err != nil || port == "" {
			return false
		}
		_, err = net.LookupPort("tcp", port)
		return err == nil
	})
}

// ServiceConfig points at one downstream HTTP service.
type ServiceConfig struct {
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	// TimeoutSeconds is the transport-level guard; per-attempt budgets
	// come from the workflow retry policies.
	TimeoutSeconds int `yaml:"timeout_seconds" default:"30" validate:"gte=1"`
}

// RetryConfig tunes one state's retry policy.
type RetryConfig struct {
	MaxAttempts    int  `yaml:"max_attempts" validate:"gte=1,lte=10"`
	DelayMS        int  `yaml:"delay_ms" default:"1000" validate:"gte=0"`
	Jitter         bool `yaml:"jitter" default:"true"`
	TimeoutSeconds int  `yaml:"timeout_seconds" validate:"gte=1"`
}

// WorkflowConfig carries the per-state retry settings.
type WorkflowConfig struct {
	Validation   RetryConfig `yaml:"validation"`
	Inventory    RetryConfig `yaml:"inventory"`
	Payment      RetryConfig `yaml:"payment"`
	Notification RetryConfig `yaml:"notification"`
	// MaxTotalAmount caps accepted order totals. Zero disables the cap.
	MaxTotalAmount float64 `yaml:"max_total_amount" default:"10000"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Mode            string `yaml:"mode" default:"memory" validate:"oneof=memory dynamodb"`
	Region          string `yaml:"region"`
	ExecutionsTable string `yaml:"executions_table" default:"order-executions"`
	ProductsTable   string `yaml:"products_table" default:"products"`
}

// AlertsConfig configures the operator alert sink.
type AlertsConfig struct {
	TopicARN string `yaml:"topic_arn"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" default:"false"`
	Endpoint   string  `yaml:"endpoint" default:"localhost:4317"`
	SampleRate float64 `yaml:"sample_rate" default:"1.0" validate:"gte=0,lte=1"`
}

type Config struct {
	Addr      string         `yaml:"addr" default:":8080" validate:"hostname_port"`
	AuthToken string         `yaml:"auth_token"`
	Inventory ServiceConfig  `yaml:"inventory"`
	Payment   ServiceConfig  `yaml:"payment"`
	Notifier  ServiceConfig  `yaml:"notifier"`
	Workflow  WorkflowConfig `yaml:"workflow"`
	Storage   StorageConfig  `yaml:"storage"`
	Alerts    AlertsConfig   `yaml:"alerts"`
	Tracing   TracingConfig  `yaml:"tracing"`
}

func applyRetryDefaults(c *Config) {
	setIfZero := func(rc *RetryConfig, attempts, timeout int) {
		if rc.MaxAttempts == 0 {
			rc.MaxAttempts = attempts
		}
		if rc.TimeoutSeconds == 0 {
			rc.TimeoutSeconds = timeout
		}
	}
	setIfZero(&c.Workflow.Validation, 3, 30)
	setIfZero(&c.Workflow.Inventory, 3, 60)
	setIfZero(&c.Workflow.Payment, 2, 45)
	setIfZero(&c.Workflow.Notification, 2, 30)
}

// Load reads, defaults, env-expands, and validates a config file. A
// missing path yields the pure-default configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(body, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshalling config: %w", err)
		}
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}
	applyRetryDefaults(&cfg)
	expandEnv(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fieldErr := range verrs {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", fieldErr.Field(), fieldErr.Tag()))
			}
			return nil, fmt.Errorf("config validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
		}
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:default}.
var envVarPattern = regexp.MustCompile(`^\$\{([A-Z_][A-Z0-9_]*)(:[^}]*)?\}$`)

// ResolveEnv expands ${VAR} / ${VAR:default} values. Non-matching strings
// pass through untouched.
func ResolveEnv(value string) string {
	matches := envVarPattern.FindStringSubmatch(value)
	if matches == nil {
		return value
	}
	if env, ok := os.LookupEnv(matches[1]); ok {
		return env
	}
	if matches[2] != "" {
		return strings.TrimPrefix(matches[2], ":")
	}
	return ""
}

func expandEnv(c *Config) {
	c.AuthToken = ResolveEnv(c.AuthToken)
	c.Inventory.BaseURL = ResolveEnv(c.Inventory.BaseURL)
	c.Payment.BaseURL = ResolveEnv(c.Payment.BaseURL)
	c.Notifier.BaseURL = ResolveEnv(c.Notifier.BaseURL)
	c.Alerts.TopicARN = ResolveEnv(c.Alerts.TopicARN)
	c.Storage.Region = ResolveEnv(c.Storage.Region)
	c.Tracing.Endpoint = ResolveEnv(c.Tracing.Endpoint)
}
