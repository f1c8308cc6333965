package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Meta      MetaConfig
	Gemini    GeminiConfig
	Brevo     BrevoConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	AllowOrigin  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// MetaConfig holds Graph API credentials. One long-lived user token covers
// both the Instagram business account and the Facebook page.
type MetaConfig struct {
	AccessToken        string
	PageID             string
	InstagramAccountID string
	APIVersion         string
	CallsPerHour       int
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type BrevoConfig struct {
	APIKey     string
	SenderName string
	SenderMail string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type SchedulerConfig struct {
	Enabled      bool
	PollInterval time.Duration
	ClaimLimit   int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("CORS_ALLOW_ORIGIN", "*")
	viper.SetDefault("MONGODB_DATABASE", "social_media_assistant")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("META_API_VERSION", "v19.0")
	viper.SetDefault("META_CALLS_PER_HOUR", 100)
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("SCHEDULER_POLL_SECONDS", 30)
	viper.SetDefault("SCHEDULER_CLAIM_LIMIT", 10)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			AllowOrigin:  viper.GetString("CORS_ALLOW_ORIGIN"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      getEnvOrPanic("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Meta: MetaConfig{
			AccessToken:        os.Getenv("META_ACCESS_TOKEN"),
			PageID:             viper.GetString("FACEBOOK_PAGE_ID"),
			InstagramAccountID: viper.GetString("INSTAGRAM_BUSINESS_ACCOUNT_ID"),
			APIVersion:         viper.GetString("META_API_VERSION"),
			CallsPerHour:       viper.GetInt("META_CALLS_PER_HOUR"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  viper.GetString("GEMINI_MODEL"),
		},
		Brevo: BrevoConfig{
			APIKey:     os.Getenv("BREVO_API_KEY"),
			SenderName: viper.GetString("BREVO_SENDER_NAME"),
			SenderMail: viper.GetString("BREVO_SENDER_EMAIL"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Scheduler: SchedulerConfig{
			Enabled:      viper.GetBool("SCHEDULER_ENABLED"),
			PollInterval: time.Duration(viper.GetInt("SCHEDULER_POLL_SECONDS")) * time.Second,
			ClaimLimit:   viper.GetInt("SCHEDULER_CLAIM_LIMIT"),
		},
	}

	// Basic validation
	if cfg.Meta.AccessToken == "" {
		log.Println("WARNING: META_ACCESS_TOKEN is not set; publishing and analytics will be unavailable")
	}

	return cfg, nil
}

func getEnvOrPanic(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("environment variable %s is required", key)
	}
	return v
}
