package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Environment string          `yaml:"environment"`
	LogLevel    string          `yaml:"log_level"`
	DryRun      bool            `yaml:"dry_run"`
	Server      ServerConfig    `yaml:"server"`
	Storage     StorageConfig   `yaml:"storage"`
	Auth        AuthConfig      `yaml:"auth"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	WhatsApp    WhatsAppConfig  `yaml:"whatsapp"`
	Email       EmailConfig     `yaml:"email"`
	Import      ImportConfig    `yaml:"import"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// UsesMemoryStore reports whether state is kept in process instead of DynamoDB.
func (c *Config) UsesMemoryStore() bool {
	return strings.EqualFold(c.Storage.Backend, "memory")
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// TrustedProxies lists the load balancers (IPs or CIDRs) whose
	// X-Forwarded-For entries are believed. Empty means the socket address
	// is the client.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// StorageConfig holds DynamoDB/S3 settings. Table names are overridable per
// deployment stage.
type StorageConfig struct {
	Backend         string `yaml:"backend"` // "dynamodb" or "memory" (local development)
	AWSRegion       string `yaml:"aws_region"`
	AWSProfile      string `yaml:"aws_profile"` // Empty string uses default credential chain
	Endpoint        string `yaml:"endpoint"`    // DynamoDB Local / LocalStack
	SessionsTable   string `yaml:"sessions_table"`
	AdminsTable     string `yaml:"admins_table"`
	CampaignsTable  string `yaml:"campaigns_table"`
	RecipientsTable string `yaml:"recipients_table"`
	TemplatesTable  string `yaml:"templates_table"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// AuthConfig holds the admin-surface login settings.
type AuthConfig struct {
	WhatsAppCookieName     string `yaml:"whatsapp_cookie_name"`
	EmailCookieName        string `yaml:"email_cookie_name"`
	SessionMaxAgeSeconds   int    `yaml:"session_max_age_seconds"`
	FailedLoginDelayMillis int    `yaml:"failed_login_delay_ms"`
	EmailAdminUsername     string `yaml:"email_admin_username"`
	EmailAdminPasswordHash string `yaml:"email_admin_password_hash"`
}

// SessionMaxAge returns the session lifetime as a duration
func (c AuthConfig) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeSeconds) * time.Second
}

// FailedLoginDelay returns the artificial delay applied after a bad password
func (c AuthConfig) FailedLoginDelay() time.Duration {
	return time.Duration(c.FailedLoginDelayMillis) * time.Millisecond
}

// RateLimitConfig holds login lockout policy and backend selection.
type RateLimitConfig struct {
	MaxAttempts    int    `yaml:"max_attempts"`
	LockoutMinutes int    `yaml:"lockout_minutes"`
	RecordTTLHours int    `yaml:"record_ttl_hours"`
	RedisURL       string `yaml:"redis_url"` // when set, Redis replaces the DynamoDB store
}

// Lockout returns the lock window as a duration
func (c RateLimitConfig) Lockout() time.Duration {
	return time.Duration(c.LockoutMinutes) * time.Minute
}

// RecordTTL returns how long an idle counter survives before auto-expiry
func (c RateLimitConfig) RecordTTL() time.Duration {
	return time.Duration(c.RecordTTLHours) * time.Hour
}

// WhatsAppConfig holds WhatsApp Cloud API settings
type WhatsAppConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIVersion        string `yaml:"api_version"`
	AccessToken       string `yaml:"access_token"`
	PhoneNumberID     string `yaml:"phone_number_id"`
	BusinessAccountID string `yaml:"business_account_id"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	SendDelayMillis   int    `yaml:"send_delay_ms"`
}

// Timeout returns the configured timeout as a duration
func (c WhatsAppConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SendDelay returns the pause between consecutive messages in a bulk loop
func (c WhatsAppConfig) SendDelay() time.Duration {
	return time.Duration(c.SendDelayMillis) * time.Millisecond
}

// Configured reports whether real sends are possible.
func (c WhatsAppConfig) Configured() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// EmailConfig holds transactional email settings. Provider is "gmail" or "ses".
type EmailConfig struct {
	Provider                string `yaml:"provider"`
	FromName                string `yaml:"from_name"`
	Sender                  string `yaml:"sender"`
	GmailClientID           string `yaml:"gmail_client_id"`
	GmailClientSecret       string `yaml:"gmail_client_secret"`
	GmailRefreshToken       string `yaml:"gmail_refresh_token"`
	GmailAPIBaseURL         string `yaml:"gmail_api_base_url"`
	SESRegion               string `yaml:"ses_region"`
	SESAccessKey            string `yaml:"ses_access_key"`
	SESSecretKey            string `yaml:"ses_secret_key"`
	TimeoutSeconds          int    `yaml:"timeout_seconds"`
	SendDelayMillis         int    `yaml:"send_delay_ms"`
	MaxRecipientsPerRequest int    `yaml:"max_recipients_per_request"`
}

// Timeout returns the configured timeout as a duration
func (c EmailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SendDelay returns the pause between consecutive emails in a bulk loop
func (c EmailConfig) SendDelay() time.Duration {
	return time.Duration(c.SendDelayMillis) * time.Millisecond
}

// Configured reports whether the selected provider has credentials.
func (c EmailConfig) Configured() bool {
	switch c.Provider {
	case "ses":
		return c.Sender != ""
	default:
		return c.GmailClientID != "" && c.GmailClientSecret != "" && c.GmailRefreshToken != "" && c.Sender != ""
	}
}

// ImportConfig holds recipient import settings
type ImportConfig struct {
	AuditBucket   string `yaml:"audit_bucket"` // S3 bucket for import reports, optional
	AuditPrefix   string `yaml:"audit_prefix"`
	MaxLineBytes  int    `yaml:"max_line_bytes"`
	DispatchLimit int    `yaml:"dispatch_limit"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "dynamodb"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "ap-south-1"
	}
	if cfg.Storage.SessionsTable == "" {
		cfg.Storage.SessionsTable = "vendorhub-admin-sessions"
	}
	if cfg.Storage.AdminsTable == "" {
		cfg.Storage.AdminsTable = "vendorhub-admins"
	}
	if cfg.Storage.CampaignsTable == "" {
		cfg.Storage.CampaignsTable = "vendorhub-campaigns"
	}
	if cfg.Storage.RecipientsTable == "" {
		cfg.Storage.RecipientsTable = "vendorhub-campaign-recipients"
	}
	if cfg.Storage.TemplatesTable == "" {
		cfg.Storage.TemplatesTable = "vendorhub-whatsapp-templates"
	}

	if cfg.Auth.WhatsAppCookieName == "" {
		cfg.Auth.WhatsAppCookieName = "whatsapp_admin_session"
	}
	if cfg.Auth.EmailCookieName == "" {
		cfg.Auth.EmailCookieName = "email_admin_session"
	}
	if cfg.Auth.SessionMaxAgeSeconds == 0 {
		cfg.Auth.SessionMaxAgeSeconds = 24 * 60 * 60
	}
	if cfg.Auth.FailedLoginDelayMillis == 0 {
		cfg.Auth.FailedLoginDelayMillis = 100
	}
	if cfg.Auth.EmailAdminUsername == "" {
		cfg.Auth.EmailAdminUsername = "admin"
	}

	if cfg.RateLimit.MaxAttempts == 0 {
		cfg.RateLimit.MaxAttempts = 5
	}
	if cfg.RateLimit.LockoutMinutes == 0 {
		cfg.RateLimit.LockoutMinutes = 15
	}
	if cfg.RateLimit.RecordTTLHours == 0 {
		cfg.RateLimit.RecordTTLHours = 24
	}

	if cfg.WhatsApp.BaseURL == "" {
		cfg.WhatsApp.BaseURL = "https://graph.facebook.com"
	}
	if cfg.WhatsApp.APIVersion == "" {
		cfg.WhatsApp.APIVersion = "v21.0"
	}
	if cfg.WhatsApp.TimeoutSeconds == 0 {
		cfg.WhatsApp.TimeoutSeconds = 30
	}
	if cfg.WhatsApp.SendDelayMillis == 0 {
		cfg.WhatsApp.SendDelayMillis = 500
	}

	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "gmail"
	}
	if cfg.Email.GmailAPIBaseURL == "" {
		cfg.Email.GmailAPIBaseURL = "https://gmail.googleapis.com"
	}
	if cfg.Email.SESRegion == "" {
		cfg.Email.SESRegion = cfg.Storage.AWSRegion
	}
	if cfg.Email.TimeoutSeconds == 0 {
		cfg.Email.TimeoutSeconds = 30
	}
	if cfg.Email.SendDelayMillis == 0 {
		cfg.Email.SendDelayMillis = 500
	}
	if cfg.Email.MaxRecipientsPerRequest == 0 {
		cfg.Email.MaxRecipientsPerRequest = 500
	}

	if cfg.Import.AuditPrefix == "" {
		cfg.Import.AuditPrefix = "campaign-imports"
	}
	if cfg.Import.MaxLineBytes == 0 {
		cfg.Import.MaxLineBytes = 1024
	}
	if cfg.Import.DispatchLimit == 0 {
		cfg.Import.DispatchLimit = 50
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars in production. A missing config
// file is not an error: defaults plus environment are a complete config.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
		applyDefaults(cfg)
	}

	overrideString(&cfg.Environment, "ENVIRONMENT")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	overrideBool(&cfg.DryRun, "DRY_RUN")
	overrideInt(&cfg.Server.Port, "PORT")
	overrideList(&cfg.Server.TrustedProxies, "TRUSTED_PROXIES")

	// Region selector: dedicated var first, then the SDK's own.
	overrideString(&cfg.Storage.AWSRegion, "AWS_REGION")
	overrideString(&cfg.Storage.AWSRegion, "APP_AWS_REGION")
	overrideString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	overrideString(&cfg.Storage.Endpoint, "DYNAMODB_ENDPOINT")
	overrideString(&cfg.Storage.SessionsTable, "SESSIONS_TABLE")
	overrideString(&cfg.Storage.AdminsTable, "ADMINS_TABLE")
	overrideString(&cfg.Storage.CampaignsTable, "CAMPAIGNS_TABLE")
	overrideString(&cfg.Storage.RecipientsTable, "RECIPIENTS_TABLE")
	overrideString(&cfg.Storage.TemplatesTable, "TEMPLATES_TABLE")

	overrideString(&cfg.Auth.EmailAdminPasswordHash, "EMAIL_ADMIN_PASSWORD_HASH")
	overrideString(&cfg.RateLimit.RedisURL, "REDIS_URL")

	overrideString(&cfg.WhatsApp.AccessToken, "WHATSAPP_ACCESS_TOKEN")
	overrideString(&cfg.WhatsApp.PhoneNumberID, "WHATSAPP_PHONE_NUMBER_ID")
	overrideString(&cfg.WhatsApp.BusinessAccountID, "WHATSAPP_BUSINESS_ACCOUNT_ID")
	overrideString(&cfg.WhatsApp.APIVersion, "WHATSAPP_API_VERSION")

	overrideString(&cfg.Email.Provider, "EMAIL_PROVIDER")
	overrideString(&cfg.Email.Sender, "GMAIL_SENDER")
	overrideString(&cfg.Email.Sender, "EMAIL_SENDER")
	overrideString(&cfg.Email.GmailClientID, "GMAIL_CLIENT_ID")
	overrideString(&cfg.Email.GmailClientSecret, "GMAIL_CLIENT_SECRET")
	overrideString(&cfg.Email.GmailRefreshToken, "GMAIL_REFRESH_TOKEN")
	overrideString(&cfg.Email.SESAccessKey, "AWS_SES_ACCESS_KEY")
	overrideString(&cfg.Email.SESSecretKey, "AWS_SES_SECRET_KEY")
	overrideString(&cfg.Email.SESRegion, "AWS_SES_REGION")

	overrideString(&cfg.Import.AuditBucket, "IMPORT_AUDIT_BUCKET")

	return cfg, nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// overrideList reads a comma-separated list.
func overrideList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func overrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
