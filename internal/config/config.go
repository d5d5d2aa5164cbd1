package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. MAIL_TRIAGE_DISPATCHER_DRY_RUN
const EnvPrefix = "MAIL_TRIAGE"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. A .env file in the working
// directory is loaded into the environment first when present.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/llm-mail-triage/")
	v.AddConfigPath("$HOME/.llm-mail-triage")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a configuration from an explicit config file
func NewFromFile(path string) (*Config, error) {
	v := NewEmptyViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults and env bindings
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return v
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Oracle
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("oracle.timeout", "60s")
	v.SetDefault("temperature.structured", 0.3)
	v.SetDefault("temperature.text", 0.5)
	v.SetDefault("text.max_body_size", 8000)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1500)
	v.SetDefault("openai.top_p", 0.9)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-2.5-flash")
	v.SetDefault("gemini.max_tokens", 1500)
	v.SetDefault("gemini.top_p", 0.9)

	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1500)
	v.SetDefault("bedrock.top_p", 0.9)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model_name", "claude-3-5-haiku-latest")
	v.SetDefault("anthropic.max_tokens", 1500)

	// Stores
	v.SetDefault("stores.complaints_path", "logs/complaints.json")
	v.SetDefault("stores.quotes_path", "logs/sent_quotes.json")
	v.SetDefault("stores.conversations_path", "conversations.json")
	v.SetDefault("conversation.history_size", 5)
	v.SetDefault("conversation.max_message_chars", 500)

	// Dispatcher and scheduler
	v.SetDefault("dispatcher.dry_run", true)
	v.SetDefault("dispatcher.poll_interval", "5m")
	v.SetDefault("dispatcher.reply_to_other", true)
	v.SetDefault("dispatcher.ignored_domains", []string{})
	v.SetDefault("dispatcher.ignored_senders", []string{})
	v.SetDefault("followup.threshold_days", 1)
	v.SetDefault("estimate.auto_promote", false)

	// Calendar
	v.SetDefault("calendar.type", "none")
	v.SetDefault("calendar.timezone", "Europe/Stockholm")
	v.SetDefault("calendar.duration_minutes", 60)
	v.SetDefault("calendar.calendar_id", "primary")
	v.SetDefault("calendar.credentials_file", "credentials.json")
	v.SetDefault("calendar.token_file", "token_calendar.json")

	// Transport
	v.SetDefault("transport.type", "stub")
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.starttls", true)
	v.SetDefault("smtp.timeout", "30s")
	v.SetDefault("smtp.intake_address", "0.0.0.0:2525")
	v.SetDefault("smtp.intake_domain", "localhost")
	v.SetDefault("smtp.intake_username", "")
	v.SetDefault("smtp.intake_password", "")
	v.SetDefault("gmail.credentials_file", "credentials.json")
	v.SetDefault("gmail.token_file", "token.json")
	v.SetDefault("gmail.query", "is:unread in:inbox")
	v.SetDefault("gmail.max_results", 25)
	v.SetDefault("gmail.sender", "")

	// Ledger
	v.SetDefault("ledger.type", "memory")
	v.SetDefault("ledger.enabled", true)
	v.SetDefault("ledger.retention", "720h")
	v.SetDefault("ledger.cleanup_frequency", "1h")
	v.SetDefault("ledger.sqlite_path", "data/ledger.db")
	v.SetDefault("ledger.mysql_dsn", "user:password@tcp(localhost:3306)/mail_triage?parseTime=true")

	// Ops API
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.listen_address", "127.0.0.1:8080")

	v.SetDefault("business.name", "Bengtssons Trävaror")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// Set overrides a key, used by CLI flags
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

// Validate checks the whole configuration and reports every problem at once
func (c *Config) Validate() error {
	var errs []error

	switch p := c.GetLLM().Provider; p {
	case "openai", "gemini", "bedrock", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("unsupported llm.provider %q", p))
	}

	switch t := c.GetTransport().Type; t {
	case "stub", "demo", "smtp", "gmail":
	default:
		errs = append(errs, fmt.Errorf("unsupported transport.type %q", t))
	}
	if c.GetTransport().Type == "smtp" && c.GetSMTP().Host == "" {
		errs = append(errs, errors.New("smtp.host is required for the smtp transport"))
	}

	switch t := c.GetCalendar().Type; t {
	case "none", "google":
	default:
		errs = append(errs, fmt.Errorf("unsupported calendar.type %q", t))
	}
	if _, err := time.LoadLocation(c.GetString("calendar.timezone")); err != nil {
		errs = append(errs, fmt.Errorf("invalid calendar.timezone: %w", err))
	}

	switch t := c.GetString("ledger.type"); t {
	case "memory", "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Errorf("unsupported ledger.type %q", t))
	}

	for _, key := range []string{"oracle.timeout", "dispatcher.poll_interval", "ledger.retention", "ledger.cleanup_frequency", "smtp.timeout"} {
		d, err := c.GetDuration(key)
		if err != nil {
			errs = append(errs, err)
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}

	if c.GetInt("followup.threshold_days") < 0 {
		errs = append(errs, errors.New("followup.threshold_days must not be negative"))
	}
	if c.GetInt("calendar.duration_minutes") <= 0 {
		errs = append(errs, errors.New("calendar.duration_minutes must be positive"))
	}

	return errors.Join(errs...)
}
