package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env          string
	HTTPPort     string
	APIBaseURL   string
	Email        string
	Password     string
	Token        string
	AcademicYear int
	Semester     string
	CycleType    string
	GroupCode    string
	CacheBackend string
	CacheFile    string
	RedisAddr    string
	DatabaseURL  string
	PollInterval time.Duration
	RateLimit    int
}

// Load returns application config populated from environment variables
// with sensible defaults. A .env file in the working directory is loaded
// first when present.
func Load() App {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("config: .env load failed: %v", err)
		}
	}

	return App{
		Env:          getEnv("APP_ENV", "dev"),
		HTTPPort:     getEnv("HTTP_PORT", "8090"),
		APIBaseURL:   getEnv("API_BASE_URL", "http://127.0.0.1:8000"),
		Email:        getEnv("PORTAL_EMAIL", ""),
		Password:     getEnv("PORTAL_PASSWORD", ""),
		Token:        getEnv("PORTAL_TOKEN", ""),
		AcademicYear: intEnv("ACADEMIC_YEAR", 0),
		Semester:     getEnv("SEMESTER", ""),
		CycleType:    getEnv("CYCLE_TYPE", ""),
		GroupCode:    getEnv("GROUP_CODE", ""),
		CacheBackend: getEnv("CACHE_BACKEND", "file"),
		CacheFile:    getEnv("CACHE_FILE", "orarsync-cache.json"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		PollInterval: durationEnv("POLL_INTERVAL", time.Minute),
		RateLimit:    intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
