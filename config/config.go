package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             string
	MongoURI         string
	MongoDatabase    string
	JWTSecret        string
	JWTTTL           time.Duration
	RedisAddress     string
	RedisPassword    string
	IssueLimitQueue  string
	IssueDailyLimit  int
	NotifyChannel    string
	NotifyEnabled    bool
	FrontendURL      string
	MaxContentLength int64
	Environment      string
	CookieDomain     string
	AdminUsername    string
	AdminEmail       string
	AdminPassword    string
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:             getenv("PORT", "8080"),
		MongoURI:         os.Getenv("MONGODB_URI"),
		MongoDatabase:    getenv("MONGODB_DATABASE", "civicreport"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTTTL:           time.Duration(getenvInt("JWT_TTL_HOURS", 72)) * time.Hour,
		RedisAddress:     os.Getenv("REDIS_ADDRESS"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		IssueLimitQueue:  getenv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue_limit"),
		IssueDailyLimit:  getenvInt("ISSUE_DAILY_LIMIT", 10),
		NotifyChannel:    getenv("NOTIFICATION_CHANNEL", "civicreport:notifications"),
		NotifyEnabled:    getenv("NOTIFICATIONS_ENABLED", "true") != "false",
		FrontendURL:      getenv("FRONTEND_URL", "http://localhost:3000"),
		MaxContentLength: int64(getenvInt("MAX_CONTENT_LENGTH", 16*1024*1024)),
		Environment:      getenv("GO_ENV", "development"),
		CookieDomain:     os.Getenv("DOMAIN"),
		AdminUsername:    os.Getenv("ADMIN_USERNAME"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
	}
	if cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
