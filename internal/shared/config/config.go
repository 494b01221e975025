package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port             string
	Env              string
	CORSAllowOrigins []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	MetadataStore string
	DataFile      string
	DatabaseURL   string

	LLMProvider     string
	LLMModel        string
	LLMBaseURL      string
	OpenAIAPIKey    string
	LLMTimeout      time.Duration
	MaxContextChars int
	MaxUploadBytes  int64

	LogLevel  string
	LogPretty bool

	RateLimitAskPerMinute     int
	RateLimitDefaultPerMinute int

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
}

const (
	MetadataMemory   = "memory"
	MetadataPostgres = "postgres"
	MetadataJSONFile = "jsonfile"

	devJWTSecret = "sortir-dev-secret"
)

// Load reads configuration from environment variables with sensible defaults.
// configFile is optional; when set, values in it are overridden by the environment.
func Load(configFile string) (Config, error) {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile == "" {
		configFile = v.GetString("SORTIR_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))

	cfg := Config{
		Port:             v.GetString("PORT"),
		Env:              env,
		CORSAllowOrigins: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),

		ObjectStoreType: normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:   v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:       v.GetString("AWS_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Prefix:        v.GetString("S3_PREFIX"),
		SSEKMSKeyID:     v.GetString("SSE_KMS_KEY_ID"),

		MetadataStore: normalizeMetadataStore(v.GetString("METADATA_STORE"), dbURL),
		DataFile:      v.GetString("DATA_FILE"),
		DatabaseURL:   dbURL,

		LLMProvider:     strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER"))),
		LLMModel:        v.GetString("LLM_MODEL"),
		LLMBaseURL:      v.GetString("LLM_BASE_URL"),
		OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
		LLMTimeout:      parseDuration(v.GetString("LLM_TIMEOUT"), 60*time.Second),
		MaxContextChars: positiveInt(v.GetInt("MAX_CONTEXT_CHARS"), 100000),
		MaxUploadBytes:  int64(positiveInt(v.GetInt("MAX_UPLOAD_BYTES"), 20<<20)),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogPretty: v.GetBool("LOG_PRETTY"),

		RateLimitAskPerMinute:     v.GetInt("RATE_LIMIT_ASK_PER_MINUTE"),
		RateLimitDefaultPerMinute: v.GetInt("RATE_LIMIT_DEFAULT_PER_MINUTE"),

		JWTSecret:          v.GetString("JWT_SECRET"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		UIRedirectURL:      v.GetString("UI_REDIRECT_URL"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data/objects")
	v.SetDefault("DATA_FILE", "./data/db.json")
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM_TIMEOUT", "60s")
	v.SetDefault("MAX_CONTEXT_CHARS", 100000)
	v.SetDefault("MAX_UPLOAD_BYTES", 20<<20)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("RATE_LIMIT_ASK_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_DEFAULT_PER_MINUTE", 120)
}

func (c Config) validate() error {
	if c.Env == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.MetadataStore == MetadataPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when METADATA_STORE=postgres")
	}
	if c.ObjectStoreType == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when OBJECT_STORE=s3")
	}
	return nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeMetadataStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "memory", "mem":
		return MetadataMemory
	case "postgres", "pg":
		return MetadataPostgres
	case "jsonfile", "json", "file":
		return MetadataJSONFile
	}
	if dbURL != "" {
		return MetadataPostgres
	}
	return MetadataJSONFile
}

// parseDuration accepts Go durations ("45s") or a bare number of seconds.
func parseDuration(raw string, def time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return def
		}
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func positiveInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
