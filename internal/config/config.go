package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/open-kbs/ai-invoice/internal/reports"
)

// FileName is the default config file name.
const FileName = "ai-invoice.yaml"

// Config represents the top-level ai-invoice.yaml configuration.
type Config struct {
	Business   BusinessConfig   `yaml:"business"`
	Store      StoreConfig      `yaml:"store"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Limits     LimitsConfig     `yaml:"limits"`
	Reports    ReportsConfig    `yaml:"reports"`
	Server     ServerConfig     `yaml:"server"`
	AI         AIConfig         `yaml:"ai"`
	Log        LogConfig        `yaml:"log"`
	ActionLog  ActionLogConfig  `yaml:"actionlog"`
}

// BusinessConfig identifies the tenant.
type BusinessConfig struct {
	Name      string `yaml:"name"`
	VATNumber string `yaml:"vat_number,omitempty"`
}

// Store drivers.
const (
	DriverDir      = "dir"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// StoreConfig selects the item store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// Path is the data directory of the dir driver, relative to the config
	// file.
	Path string `yaml:"path,omitempty"`
	DSN  string `yaml:"dsn,omitempty"`
	// DSNEnv names an environment variable holding the DSN. It wins over DSN.
	DSNEnv string `yaml:"dsn_env,omitempty"`
}

// EncryptionConfig names the environment variable holding the tenant secret.
type EncryptionConfig struct {
	KeyEnv string `yaml:"key_env"`
}

// LimitsConfig caps how many documents one call reads.
type LimitsConfig struct {
	ReportDocuments int `yaml:"report_documents"`
	ListDocuments   int `yaml:"list_documents"`
}

// ReportsConfig holds report settings.
type ReportsConfig struct {
	Accounts reports.ControlAccounts `yaml:"accounts"`
}

// ServerConfig controls the HTTP chat host.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AIConfig controls the OpenAI collaborator.
type AIConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// ActionLogConfig controls the CSV audit log. An empty path disables it.
type ActionLogConfig struct {
	Path string `yaml:"path"`
}

// Load reads an ai-invoice.yaml file from disk. Missing sections keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new tenant.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name: businessName,
		},
		Store: StoreConfig{
			Driver: DriverDir,
			Path:   "data",
			DSNEnv: "DATABASE_URL",
		},
		Encryption: EncryptionConfig{
			KeyEnv: "AI_INVOICE_SECRET",
		},
		Limits: LimitsConfig{
			ReportDocuments: 1000,
			ListDocuments:   100,
		},
		Reports: ReportsConfig{
			Accounts: reports.DefaultControlAccounts(),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		AI: AIConfig{
			Model:     "gpt-4o",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		ActionLog: ActionLogConfig{
			Path: "logs/action-log.csv",
		},
	}
}

// Validate checks settings that would fail later in confusing ways.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverDir, DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Limits.ReportDocuments < 0 || c.Limits.ListDocuments < 0 {
		return fmt.Errorf("document limits must not be negative")
	}
	return nil
}

// StoreDSN returns the Postgres connection string.
func (c *Config) StoreDSN() string {
	if c.Store.DSNEnv != "" {
		if v := os.Getenv(c.Store.DSNEnv); v != "" {
			return v
		}
	}
	return c.Store.DSN
}

// Secret returns the tenant encryption secret, or "" when unset.
func (c *Config) Secret() string {
	if c.Encryption.KeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Encryption.KeyEnv)
}

// APIKey returns the OpenAI API key, or "" when unset.
func (c *Config) APIKey() string {
	if c.AI.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.AI.APIKeyEnv)
}
