// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig               `mapstructure:"app"`
	Camunda     CamundaConfig           `mapstructure:"camunda"`
	Redis       RedisConfig             `mapstructure:"redis"`
	Workers     map[string]WorkerConfig `mapstructure:"workers"`
	APIs        APIsConfig              `mapstructure:"apis"`
	Originality OriginalityConfig       `mapstructure:"originality"`
	Rewrite     RewriteConfig           `mapstructure:"rewrite"`
	Session     SessionConfig           `mapstructure:"session"`
	RateLimit   RateLimitConfig         `mapstructure:"rate_limit"`
	Export      ExportConfig            `mapstructure:"export"`
	Server      ServerConfig            `mapstructure:"server"`
	Logging     LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- External APIs ---

// APIsConfig holds settings for the generative model and the web search API.
type APIsConfig struct {
	GenAI     GenAIConfig     `mapstructure:"genai"`
	WebSearch WebSearchConfig `mapstructure:"web_search"`
}

type GenAIConfig struct {
	Provider    string  `mapstructure:"provider"` // gemini or openai
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type WebSearchConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	EngineID       string        `mapstructure:"engine_id"`
	Timeout        int           `mapstructure:"timeout"` // milliseconds
	MaxRetries     int           `mapstructure:"max_retries"`
	MaxResults     int           `mapstructure:"max_results"`
	MaxQueryLength int           `mapstructure:"max_query_length"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// --- Domain Settings ---

type OriginalityConfig struct {
	Cap                  int `mapstructure:"cap"`
	LongSnippetThreshold int `mapstructure:"long_snippet_threshold"`
	PenaltyPerMatch      int `mapstructure:"penalty_per_match"`
	Threshold            int `mapstructure:"threshold"`
}

type RewriteConfig struct {
	ThesaurusPath string `mapstructure:"thesaurus_path"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type ExportConfig struct {
	DefaultFormat string `mapstructure:"default_format"`
	FileBaseName  string `mapstructure:"file_base_name"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
