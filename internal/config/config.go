package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	AppPort        string
	APIBaseURL     string
	StorageDriver  string
	StateDir       string
	DatabaseURL    string
	RedisAddr      string
	AllowedOrigins []string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:        os.Getenv("APP_ENV"),
		AppPort:       getEnv("APP_PORT", "7780"),
		APIBaseURL:    os.Getenv("API_BASE_URL"),
		StorageDriver: getEnv("STORAGE_DRIVER", "file"),
		StateDir:      getEnv("STATE_DIR", ".agribasket"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.APIBaseURL == "" {
		log.Fatal("API_BASE_URL is required, environment not loaded properly")
	}

	switch cfg.StorageDriver {
	case "memory", "file":
	case "postgres":
		if cfg.DatabaseURL == "" {
			log.Fatal("STORAGE_DRIVER=postgres requires DATABASE_URL")
		}
	case "redis":
		if cfg.RedisAddr == "" {
			log.Fatal("STORAGE_DRIVER=redis requires REDIS_ADDR")
		}
	default:
		log.Fatalf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
