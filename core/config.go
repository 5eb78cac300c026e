package core

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds all configuration values for the tools service.
type Config struct {
	// Server
	Host            string
	Port            int
	CORSOrigin      string
	PublicBaseURL   string // Prefix for generated file URLs (empty = relative)
	ShutdownTimeout time.Duration
	TrustProxy      bool // Honor X-Forwarded-For / X-Real-IP for client IPs
	DevMode         bool

	// Logging
	LogLevel string
	LogFile  string

	// Storage
	DatabasePath         string
	OutputDir            string
	RetentionDays        int
	OutputRetentionHours int // Age after which generated images are deleted (0 = keep)

	// Rate limiting (mirrors the express-rate-limit defaults)
	RateLimitWindow time.Duration
	RateLimitMax    int

	// Collaborators
	UpstreamTimeout    time.Duration
	MaxImageBytes      int64
	AllowPrivateFetch  bool // Let image URLs point at loopback and private networks
	OpenAIAPIKey       string
	RewriteLLMURL      string
	RewriteModel       string
	GoogleVisionAPIKey string
	DomainProvider     string // "net" or "static"
	RDAPURL            string

	// Admin
	AdminPassword     string
	AdminPasswordHash string
}

// Defaults for values that are not set in the environment.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 5000
	DefaultRateLimitMax    = 100
	DefaultRateLimitWindow = 15 * time.Minute
	DefaultMaxImageBytes   = 10 << 20
	DefaultRewriteModel    = "gpt-4o-mini"
	DefaultRDAPURL         = "https://rdap.org"

	DefaultOutputRetentionHours = 24
)

// LoadConfig loads configuration from environment variables. Nothing is
// required; every value has a default that gives a working local server.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Host:            GetEnvOrDefault("HOST", DefaultHost),
		Port:            ParseIntEnv("PORT", DefaultPort),
		CORSOrigin:      GetEnvOrDefault("CORS_ORIGIN", "*"),
		PublicBaseURL:   strings.TrimSuffix(GetEnvOrDefault("PUBLIC_BASE_URL", ""), "/"),
		ShutdownTimeout: ParseDurationEnv("SHUTDOWN_TIMEOUT", 30),
		TrustProxy:      ParseBoolEnv("TRUST_PROXY", false),
		DevMode:         ParseBoolEnv("DEV_MODE", false),

		LogLevel: GetEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  GetEnvOrDefault("LOG_FILE", "seotools.log"),

		DatabasePath:         GetEnvOrDefault("DATABASE_PATH", "data/seotools.db"),
		OutputDir:            GetEnvOrDefault("OUTPUT_DIR", "data/output"),
		RetentionDays:        ParseIntEnv("RETENTION_DAYS", 90),
		OutputRetentionHours: ParseIntEnv("OUTPUT_RETENTION_HOURS", DefaultOutputRetentionHours),

		RateLimitWindow: ParseMillisEnv("RATE_LIMIT_WINDOW_MS", DefaultRateLimitWindow),
		RateLimitMax:    ParseIntEnv("RATE_LIMIT_MAX", DefaultRateLimitMax),

		UpstreamTimeout:    ParseDurationEnv("UPSTREAM_TIMEOUT", 30),
		MaxImageBytes:      ParseInt64Env("MAX_IMAGE_BYTES", DefaultMaxImageBytes),
		AllowPrivateFetch:  ParseBoolEnv("ALLOW_PRIVATE_FETCH", false),
		OpenAIAPIKey:       GetEnvOrDefault("OPENAI_API_KEY", ""),
		RewriteLLMURL:      GetEnvOrDefault("REWRITE_LLM_URL", ""),
		RewriteModel:       GetEnvOrDefault("REWRITE_MODEL", DefaultRewriteModel),
		GoogleVisionAPIKey: GetEnvOrDefault("GOOGLE_VISION_API_KEY", ""),
		DomainProvider:     strings.ToLower(GetEnvOrDefault("DOMAIN_PROVIDER", "net")),
		RDAPURL:            strings.TrimSuffix(GetEnvOrDefault("RDAP_URL", DefaultRDAPURL), "/"),

		AdminPassword:     GetEnvOrDefault("ADMIN_PASSWORD", ""),
		AdminPasswordHash: GetEnvOrDefault("ADMIN_PASSWORD_HASH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. It returns the first problem found as a *ConfigError.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidValue("PORT", fmt.Sprint(c.Port), "must be between 1 and 65535")
	}
	if c.RateLimitMax < 1 {
		return ErrInvalidValue("RATE_LIMIT_MAX", fmt.Sprint(c.RateLimitMax), "must be at least 1")
	}
	if c.RateLimitWindow <= 0 {
		return ErrInvalidValue("RATE_LIMIT_WINDOW_MS", c.RateLimitWindow.String(), "must be positive")
	}
	if c.MaxImageBytes <= 0 {
		return ErrInvalidValue("MAX_IMAGE_BYTES", fmt.Sprint(c.MaxImageBytes), "must be positive")
	}
	if c.RetentionDays < 0 {
		return ErrInvalidValue("RETENTION_DAYS", fmt.Sprint(c.RetentionDays), "must not be negative")
	}
	if c.OutputRetentionHours < 0 {
		return ErrInvalidValue("OUTPUT_RETENTION_HOURS", fmt.Sprint(c.OutputRetentionHours), "must not be negative")
	}
	if c.DatabasePath == "" {
		return ErrMissingConfig("DATABASE_PATH")
	}
	if c.OutputDir == "" {
		return ErrMissingConfig("OUTPUT_DIR")
	}
	switch c.DomainProvider {
	case "net", "static":
	default:
		return ErrInvalidValue("DOMAIN_PROVIDER", c.DomainProvider, `must be "net" or "static"`)
	}
	if c.PublicBaseURL != "" {
		if err := ValidateURL(c.PublicBaseURL); err != nil {
			return ErrInvalidValue("PUBLIC_BASE_URL", c.PublicBaseURL, err.Error())
		}
	}
	if c.RewriteLLMURL != "" {
		if err := ValidateURL(c.RewriteLLMURL); err != nil {
			return ErrInvalidValue("REWRITE_LLM_URL", c.RewriteLLMURL, err.Error())
		}
	}
	if err := ValidateURL(c.RDAPURL); err != nil {
		return ErrInvalidValue("RDAP_URL", c.RDAPURL, err.Error())
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RewriteEnabled reports whether an LLM endpoint is configured for the
// paraphrase and rewrite tools.
func (c *Config) RewriteEnabled() bool {
	return c.OpenAIAPIKey != "" || c.RewriteLLMURL != ""
}

// AdminEnabled reports whether the admin endpoints should be mounted.
func (c *Config) AdminEnabled() bool {
	return c.AdminPassword != "" || c.AdminPasswordHash != ""
}

// Retention returns the usage-log retention period (0 disables pruning).
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// OutputRetention returns how long generated images are kept (0 keeps them).
func (c *Config) OutputRetention() time.Duration {
	return time.Duration(c.OutputRetentionHours) * time.Hour
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// NewHTTPClient returns the client used for outbound collaborator calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
