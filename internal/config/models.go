package config

import (
	"time"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
	Timeout  time.Duration
}

// TemperatureConfig holds sampling temperatures per kind of oracle call
type TemperatureConfig struct {
	Structured float32
	Text       float32
}

// OpenAIConfig represents the configuration for OpenAI or an
// OpenAI-compatible endpoint
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	ModelName string
	MaxTokens int
	TopP      float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey    string
	ModelName string
	MaxTokens int
	TopP      float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region    string
	ModelID   string
	MaxTokens int
	TopP      float32
}

// AnthropicConfig represents the configuration for the Anthropic API
type AnthropicConfig struct {
	APIKey    string
	ModelName string
	MaxTokens int
}

// StoresConfig holds the file locations of the persistent stores
type StoresConfig struct {
	ComplaintsPath    string
	QuotesPath        string
	ConversationsPath string
	HistorySize       int
	MaxMessageChars   int
}

// DispatcherConfig controls the triage loop
type DispatcherConfig struct {
	DryRun         bool
	PollInterval   time.Duration
	ReplyToOther   bool
	IgnoredDomains []string
	IgnoredSenders []string
}

// FollowupConfig controls quote follow-ups
type FollowupConfig struct {
	ThresholdDays int
}

// CalendarConfig controls meeting booking
type CalendarConfig struct {
	Type            string
	Location        *time.Location
	DurationMinutes int
	CalendarID      string
	CredentialsFile string
	TokenFile       string
}

// TransportConfig selects the mail transport
type TransportConfig struct {
	Type string
}

// SMTPConfig configures outgoing SMTP and the inbound intake server
type SMTPConfig struct {
	Host           string
	Port           int
	Username       string
	Password       string
	From           string
	StartTLS       bool
	Timeout        time.Duration
	IntakeAddress  string
	IntakeDomain   string
	IntakeUsername string
	IntakePassword string
}

// GmailConfig configures the Gmail API transport
type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
	Query           string
	MaxResults      int64
	Sender          string
}

// LedgerConfig configures the processed-message ledger
type LedgerConfig struct {
	Type             string
	Enabled          bool
	Retention        time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// APIConfig configures the ops HTTP server
type APIConfig struct {
	Enabled       bool
	ListenAddress string
}

// BusinessConfig describes the business the assistant answers for
type BusinessConfig struct {
	Name string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	timeout, err := c.GetDuration("oracle.timeout")
	if err != nil {
		timeout = 60 * time.Second
	}
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
		Timeout:  timeout,
	}
}

// GetTemperatures returns the sampling temperatures
func (c *Config) GetTemperatures() TemperatureConfig {
	return TemperatureConfig{
		Structured: float32(c.GetFloat64("temperature.structured")),
		Text:       float32(c.GetFloat64("temperature.text")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:    c.GetString("openai.api_key"),
		BaseURL:   c.GetString("openai.base_url"),
		ModelName: c.GetString("openai.model_name"),
		MaxTokens: c.GetInt("openai.max_tokens"),
		TopP:      float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:    c.GetString("gemini.api_key"),
		ModelName: c.GetString("gemini.model_name"),
		MaxTokens: c.GetInt("gemini.max_tokens"),
		TopP:      float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:    c.GetString("bedrock.region"),
		ModelID:   c.GetString("bedrock.model_id"),
		MaxTokens: c.GetInt("bedrock.max_tokens"),
		TopP:      float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetAnthropic returns the Anthropic configuration
func (c *Config) GetAnthropic() AnthropicConfig {
	return AnthropicConfig{
		APIKey:    c.GetString("anthropic.api_key"),
		ModelName: c.GetString("anthropic.model_name"),
		MaxTokens: c.GetInt("anthropic.max_tokens"),
	}
}

// GetStores returns the store locations
func (c *Config) GetStores() StoresConfig {
	return StoresConfig{
		ComplaintsPath:    c.GetString("stores.complaints_path"),
		QuotesPath:        c.GetString("stores.quotes_path"),
		ConversationsPath: c.GetString("stores.conversations_path"),
		HistorySize:       c.GetInt("conversation.history_size"),
		MaxMessageChars:   c.GetInt("conversation.max_message_chars"),
	}
}

// GetDispatcher returns the dispatcher configuration
func (c *Config) GetDispatcher() DispatcherConfig {
	interval, err := c.GetDuration("dispatcher.poll_interval")
	if err != nil {
		interval = 5 * time.Minute
	}
	return DispatcherConfig{
		DryRun:         c.GetBool("dispatcher.dry_run"),
		PollInterval:   interval,
		ReplyToOther:   c.GetBool("dispatcher.reply_to_other"),
		IgnoredDomains: c.GetStringSlice("dispatcher.ignored_domains"),
		IgnoredSenders: c.GetStringSlice("dispatcher.ignored_senders"),
	}
}

// GetFollowup returns the follow-up configuration
func (c *Config) GetFollowup() FollowupConfig {
	return FollowupConfig{
		ThresholdDays: c.GetInt("followup.threshold_days"),
	}
}

// GetCalendar returns the calendar configuration. An unknown timezone falls
// back to UTC; Validate reports it.
func (c *Config) GetCalendar() CalendarConfig {
	loc, err := time.LoadLocation(c.GetString("calendar.timezone"))
	if err != nil {
		loc = time.UTC
	}
	return CalendarConfig{
		Type:            c.GetString("calendar.type"),
		Location:        loc,
		DurationMinutes: c.GetInt("calendar.duration_minutes"),
		CalendarID:      c.GetString("calendar.calendar_id"),
		CredentialsFile: c.GetString("calendar.credentials_file"),
		TokenFile:       c.GetString("calendar.token_file"),
	}
}

// GetTransport returns the transport selection
func (c *Config) GetTransport() TransportConfig {
	return TransportConfig{
		Type: c.GetString("transport.type"),
	}
}

// GetSMTP returns the SMTP configuration
func (c *Config) GetSMTP() SMTPConfig {
	timeout, err := c.GetDuration("smtp.timeout")
	if err != nil {
		timeout = 30 * time.Second
	}
	return SMTPConfig{
		Host:           c.GetString("smtp.host"),
		Port:           c.GetInt("smtp.port"),
		Username:       c.GetString("smtp.username"),
		Password:       c.GetString("smtp.password"),
		From:           c.GetString("smtp.from"),
		StartTLS:       c.GetBool("smtp.starttls"),
		Timeout:        timeout,
		IntakeAddress:  c.GetString("smtp.intake_address"),
		IntakeDomain:   c.GetString("smtp.intake_domain"),
		IntakeUsername: c.GetString("smtp.intake_username"),
		IntakePassword: c.GetString("smtp.intake_password"),
	}
}

// GetGmail returns the Gmail configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		CredentialsFile: c.GetString("gmail.credentials_file"),
		TokenFile:       c.GetString("gmail.token_file"),
		Query:           c.GetString("gmail.query"),
		MaxResults:      int64(c.GetInt("gmail.max_results")),
		Sender:          c.GetString("gmail.sender"),
	}
}

// GetLedger returns the ledger configuration
func (c *Config) GetLedger() LedgerConfig {
	retention, err := c.GetDuration("ledger.retention")
	if err != nil {
		retention = 720 * time.Hour
	}
	cleanup, err := c.GetDuration("ledger.cleanup_frequency")
	if err != nil {
		cleanup = time.Hour
	}
	return LedgerConfig{
		Type:             c.GetString("ledger.type"),
		Enabled:          c.GetBool("ledger.enabled"),
		Retention:        retention,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("ledger.sqlite_path"),
		MySQLDSN:         c.GetString("ledger.mysql_dsn"),
	}
}

// GetAPI returns the ops API configuration
func (c *Config) GetAPI() APIConfig {
	return APIConfig{
		Enabled:       c.GetBool("api.enabled"),
		ListenAddress: c.GetString("api.listen_address"),
	}
}

// GetBusiness returns the business identity
func (c *Config) GetBusiness() BusinessConfig {
	return BusinessConfig{
		Name: c.GetString("business.name"),
	}
}
