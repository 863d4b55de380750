package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the console reads from the environment
type Config struct {
	DatabaseURL        string
	Port               string
	GinMode            string
	JWTSecret          []byte
	RedisAddr          string
	RedisPassword      string
	PermissionCacheTTL time.Duration
	CORSOrigins        []string
	LogLevel           string
	LogFile            string
	RosterFanoutLimit  int
	SeedDefaults       bool
}

const devJWTSecret = "default_super_secret_key"

// Load reads configs/.env when present, then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Port:               getenv("PORT", "8080"),
		GinMode:            os.Getenv("GIN_MODE"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		PermissionCacheTTL: 5 * time.Minute,
		CORSOrigins:        []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogFile:            os.Getenv("LOG_FILE"),
		SeedDefaults:       true,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "postgres://" + getenv("DB_USER", "postgres") + ":" + getenv("DB_PASSWORD", "postgres") +
			"@" + getenv("DB_HOST", "localhost") + ":" + getenv("DB_PORT", "5432") +
			"/" + getenv("DB_NAME", "postgres") + "?sslmode=" + getenv("DB_SSLMODE", "disable")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if cfg.GinMode == "release" {
			return nil, errors.New("JWT_SECRET environment variable is required in release mode")
		}
		secret = devJWTSecret // Development fallback only
	}
	cfg.JWTSecret = []byte(secret)

	if v := os.Getenv("PERMISSION_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.New("PERMISSION_CACHE_TTL: " + err.Error())
		}
		cfg.PermissionCacheTTL = ttl
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}

	if v := os.Getenv("ROSTER_FANOUT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("ROSTER_FANOUT_LIMIT: " + err.Error())
		}
		cfg.RosterFanoutLimit = n
	}

	if v := os.Getenv("SEED_DEFAULTS"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("SEED_DEFAULTS: " + err.Error())
		}
		cfg.SeedDefaults = seed
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
