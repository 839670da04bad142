package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	StoreDriver       string
	DatabaseURL       string
	DBConnectAttempts int

	// Voice provider
	ElevenLabsAPIKey  string
	ElevenLabsAgentID string
	ElevenLabsBaseURL string

	// Realtime media
	LiveKitURL       string
	LiveKitAPIKey    string
	LiveKitAPISecret string
	LiveKitTokenTTL  time.Duration

	HRDevToken    string
	HRJWTSecret   string
	PublicBaseURL string
	HTTPTimeout   time.Duration
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("DB_CONNECT_ATTEMPTS", 10)
	v.SetDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io")
	v.SetDefault("LIVEKIT_URL", "wss://your-project.livekit.cloud")
	v.SetDefault("LIVEKIT_TOKEN_TTL", "2h")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("HTTP_TIMEOUT", "15s")

	for _, k := range []string{
		"DATABASE_URL", "ELEVENLABS_API_KEY", "ELEVENLABS_AGENT_ID",
		"LIVEKIT_API_KEY", "LIVEKIT_API_SECRET", "HR_DEV_TOKEN", "HR_JWT_SECRET", "CONFIG_FILE",
	} {
		v.SetDefault(k, "")
	}
}

// Load reads .env (if any), an optional CONFIG_FILE, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // loads .env

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:              v.GetString("PORT"),
		Environment:       v.GetString("ENVIRONMENT"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		StoreDriver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		DBConnectAttempts: v.GetInt("DB_CONNECT_ATTEMPTS"),
		ElevenLabsAPIKey:  v.GetString("ELEVENLABS_API_KEY"),
		ElevenLabsAgentID: v.GetString("ELEVENLABS_AGENT_ID"),
		ElevenLabsBaseURL: strings.TrimRight(v.GetString("ELEVENLABS_BASE_URL"), "/"),
		LiveKitURL:        v.GetString("LIVEKIT_URL"),
		LiveKitAPIKey:     v.GetString("LIVEKIT_API_KEY"),
		LiveKitAPISecret:  v.GetString("LIVEKIT_API_SECRET"),
		LiveKitTokenTTL:   v.GetDuration("LIVEKIT_TOKEN_TTL"),
		HRDevToken:        v.GetString("HR_DEV_TOKEN"),
		HRJWTSecret:       v.GetString("HR_JWT_SECRET"),
		PublicBaseURL:     strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		HTTPTimeout:       v.GetDuration("HTTP_TIMEOUT"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings needed at startup. Provider credentials are checked
// when a call needs them.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.LiveKitTokenTTL <= 0 {
		return fmt.Errorf("LIVEKIT_TOKEN_TTL must be positive")
	}
	if c.DBConnectAttempts < 1 {
		c.DBConnectAttempts = 1
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
