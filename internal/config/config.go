package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full service configuration. Values come from an optional
// YAML file plus FINPULSE_* environment overrides (FINPULSE_PROVIDER_BASE_URL
// overrides provider.base_url, and so on).
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	BigQuery  BigQueryConfig  `mapstructure:"bigquery"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Assistant AssistantConfig `mapstructure:"assistant"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

// ProviderConfig configures the upstream aggregation provider client.
type ProviderConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	ClientID       string `mapstructure:"client_id"`
	Secret         string `mapstructure:"secret"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// BigQueryConfig locates the document store dataset. An empty ProjectID
// selects the in-memory store (local development and tests).
type BigQueryConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Dataset   string `mapstructure:"dataset"`
}

// ArchiveConfig configures raw delta payload archival. An empty bucket
// disables archival.
type ArchiveConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// AssistantConfig configures the conversational layer. Keywords drive the
// relevance gate and are configuration data on purpose: the list can be
// extended (new merchants, new phrasings) without a code change.
type AssistantConfig struct {
	Model    string   `mapstructure:"model"`
	Keywords []string `mapstructure:"keywords"`
}

// DefaultGateKeywords is the built-in relevance keyword list: finance verbs
// plus merchants users commonly ask about by name.
var DefaultGateKeywords = []string{
	"spend", "purchase", "cost", "transaction", "budget",
	"buy", "bought", "amount", "paid", "expense",
	"amazon", "starbucks", "uber", "walmart", "target", "costco",
}

// Load reads configuration from the given file (optional, "" to skip) and
// the environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Every key gets a default so environment overrides bind even
	// without a config file.
	v.SetDefault("http.port", "8080")
	v.SetDefault("provider.base_url", "https://sandbox.plaid.com")
	v.SetDefault("provider.client_id", "")
	v.SetDefault("provider.secret", "")
	v.SetDefault("provider.timeout_seconds", 30)
	v.SetDefault("bigquery.project_id", "")
	v.SetDefault("bigquery.dataset", "finpulse")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("assistant.model", "gemini-2.0-flash")
	v.SetDefault("assistant.keywords", DefaultGateKeywords)

	v.SetEnvPrefix("FINPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
