package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Supabase   SupabaseConfig
	Transcript TranscriptConfig
	Summarizer SummarizerConfig
	RateLimit  RateLimitConfig
	Credits    CreditsConfig
	Pipeline   PipelineConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowOrigins    string
	BodyLimit       int
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// SupabaseConfig holds the account backend configuration
type SupabaseConfig struct {
	URL        string
	ServiceKey string
}

// Configured reports whether both the project URL and a key are set.
func (s SupabaseConfig) Configured() bool {
	return s.URL != "" && s.ServiceKey != ""
}

// TranscriptConfig holds transcript provider configuration
type TranscriptConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SummarizerConfig holds text generation configuration
type SummarizerConfig struct {
	Provider           string
	Model              string
	BaseURL            string
	APIKeys            []string
	MinInterval        time.Duration
	Timeout            time.Duration
	MaxTranscriptChars int
	Language           string
	CacheTTL           time.Duration
	Titles             bool
}

// RateLimitConfig holds the per-IP limiter configuration
type RateLimitConfig struct {
	Enabled       bool
	Max           int
	WindowMs      int64
	SweepInterval time.Duration
}

// Window is WindowMs as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowMs) * time.Millisecond
}

// CreditsConfig holds credit gate configuration
type CreditsConfig struct {
	Enabled     bool
	MaxAttempts int
}

// PipelineConfig holds summary pipeline configuration
type PipelineConfig struct {
	Timeout time.Duration
}

// envBindings maps config keys to the environment variables that may set them.
// Earlier names take precedence.
var envBindings = map[string][]string{
	"server.port":            {"PORT"},
	"log.level":              {"LOG_LEVEL"},
	"supabase.url":           {"SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"},
	"supabase.serviceKey":    {"SUPABASE_SERVICE_KEY", "SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"},
	"transcript.apiKey":      {"SUPADATA_API_KEY"},
	"summarizer.provider":    {"SUMMARIZER_PROVIDER"},
	"summarizer.model":       {"SUMMARIZER_MODEL"},
	"summarizer.baseURL":     {"SUMMARIZER_BASE_URL"},
	"summarizer.apiKeys":     {"SUMMARIZER_API_KEYS", "GEMINI_API_KEYS", "GEMINI_API_KEY", "OPENAI_API_KEY"},
	"rateLimit.max":          {"RATE_LIMIT_MAX"},
	"rateLimit.windowMs":     {"RATE_LIMIT_WINDOW_MS"},
	"credits.enabled":        {"CREDITS_ENABLED"},
	"pipeline.timeout":       {"PIPELINE_TIMEOUT"},
	"transcript.timeout":     {"TRANSCRIPT_TIMEOUT"},
	"summarizer.minInterval": {"SUMMARIZER_MIN_INTERVAL"},
}

// Load reads configuration from an optional YAML file and the environment.
// An empty configPath skips the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Summarizer.APIKeys = splitKeys(config.Summarizer.APIKeys)
	if !v.IsSet("credits.enabled") {
		config.Credits.Enabled = config.Supabase.Configured()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the gateway cannot start with. Missing
// provider keys are not fatal; requests then fail with a configuration error.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Credits.Enabled && !c.Supabase.Configured() {
		errs = append(errs, errors.New("credits are enabled but supabase.url or supabase.serviceKey is not set"))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Max <= 0 {
			errs = append(errs, errors.New("rateLimit.max must be positive"))
		}
		// the limiter counts windows in whole seconds
		if c.RateLimit.WindowMs < 1000 {
			errs = append(errs, fmt.Errorf("rateLimit.windowMs %d must be at least 1000", c.RateLimit.WindowMs))
		}
	}
	switch strings.ToLower(c.Summarizer.Provider) {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown summarizer.provider %q", c.Summarizer.Provider))
	}
	return errors.Join(errs...)
}

// Keys may arrive as one comma-separated env value.
func splitKeys(in []string) []string {
	var out []string
	for _, item := range in {
		for _, k := range strings.Split(item, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "120s")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.allowOrigins", "*")
	v.SetDefault("server.bodyLimit", 64*1024) // 64KB

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Supabase defaults
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.serviceKey", "")

	// Transcript defaults
	v.SetDefault("transcript.baseURL", "https://api.supadata.ai/v1")
	v.SetDefault("transcript.apiKey", "")
	v.SetDefault("transcript.timeout", "30s")

	// Summarizer defaults
	v.SetDefault("summarizer.provider", "gemini")
	v.SetDefault("summarizer.model", "")
	v.SetDefault("summarizer.baseURL", "")
	v.SetDefault("summarizer.apiKeys", []string{})
	v.SetDefault("summarizer.minInterval", "5s")
	v.SetDefault("summarizer.timeout", "60s")
	v.SetDefault("summarizer.maxTranscriptChars", 30000)
	v.SetDefault("summarizer.language", "English")
	v.SetDefault("summarizer.cacheTTL", "1h")
	v.SetDefault("summarizer.titles", false)

	// Rate limit defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.max", 10)
	v.SetDefault("rateLimit.windowMs", 3600000) // 1 hour
	v.SetDefault("rateLimit.sweepInterval", "10m")

	// Credit defaults; credits.enabled follows supabase when unset
	v.SetDefault("credits.maxAttempts", 5)

	// Pipeline defaults
	v.SetDefault("pipeline.timeout", "90s")
}
