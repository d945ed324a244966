package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	CORSAllowOrigins       string
	DatabaseURL            string
	DatabaseMaxOpenConns   int
	DatabaseMaxIdleConns   int
	DatabaseConnLifetime   time.Duration
	RedisURL               string
	NATSURL                string
	RealtimeChannel        string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeMB        int
	DashboardCacheTTL      time.Duration
	SSEKeepAlive           time.Duration
	AIProvider             string
	AIModel                string
	AIMaxTokens            int
	AITimeout              time.Duration
	OpenAIAPIKey           string
	AnthropicAPIKey        string
	HuggingFaceToken       string
	HuggingFaceBaseURL     string
	AIRateLimit            int
	AIRateWindow           time.Duration
	SeedEnabled            bool
	SeedToken              string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// AssistantAPIKey returns the credential for the configured assistant provider.
func (c Config) AssistantAPIKey() string {
	if c.AIProvider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LIRA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "LIRA Intern API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("realtime.channel", "lira")
	v.SetDefault("cloudinary.folder", "lira/channel-media")
	v.SetDefault("upload.max_size_mb", 5)
	v.SetDefault("dashboard.cache_ttl", "2m")
	v.SetDefault("sse.keepalive", "30s")
	v.SetDefault("ai.provider", "anthropic")
	v.SetDefault("ai.max_tokens", 1500)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.rate_limit", 20)
	v.SetDefault("ai.rate_window", "1m")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("huggingface.base_url", "https://api-inference.huggingface.co")

	ttl, err := parseDuration(v, "dashboard.cache_ttl", "2m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	keepAlive, err := parseDuration(v, "sse.keepalive", "30s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid sse keepalive: %w", err)
	}

	aiTimeout, err := parseDuration(v, "ai.timeout", "60s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	connLifetime, err := parseDuration(v, "database.conn_max_lifetime", "30m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid database connection lifetime: %w", err)
	}

	rateWindow, err := parseDuration(v, "ai.rate_window", "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai rate window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		DatabaseURL:            v.GetString("database.url"),
		DatabaseMaxOpenConns:   v.GetInt("database.max_open_conns"),
		DatabaseMaxIdleConns:   v.GetInt("database.max_idle_conns"),
		DatabaseConnLifetime:   connLifetime,
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		RealtimeChannel:        v.GetString("realtime.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		DashboardCacheTTL:      ttl,
		SSEKeepAlive:           keepAlive,
		AIProvider:             strings.ToLower(v.GetString("ai.provider")),
		AIModel:                v.GetString("ai.model"),
		AIMaxTokens:            v.GetInt("ai.max_tokens"),
		AITimeout:              aiTimeout,
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		AnthropicAPIKey:        v.GetString("anthropic_api_key"),
		HuggingFaceToken:       v.GetString("hugging_face_access_token"),
		HuggingFaceBaseURL:     v.GetString("huggingface.base_url"),
		AIRateLimit:            v.GetInt("ai.rate_limit"),
		AIRateWindow:           rateWindow,
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.AIProvider {
	case "openai", "anthropic":
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 5
	}

	if cfg.AIMaxTokens <= 0 {
		cfg.AIMaxTokens = 1500
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		raw = fallback
	}
	return time.ParseDuration(raw)
}
