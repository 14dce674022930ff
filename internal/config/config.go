package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Addr string

	DBUrl  string
	DBNs   string
	DBDb   string
	DBUser string
	DBPass string

	JWTSecret string
	JWTTTL    time.Duration
}

// New loads configuration from environment variables.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Addr:      os.Getenv("APP_ADDR"),
		DBUrl:     os.Getenv("SURREAL_URL"),
		DBUser:    os.Getenv("SURREAL_USER"),
		DBPass:    os.Getenv("SURREAL_PASS"),
		DBNs:      os.Getenv("SURREAL_NS"),
		DBDb:      os.Getenv("SURREAL_DB"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    30 * 24 * time.Hour,
	}

	if cfg.Addr == "" {
		cfg.Addr = ":5001"
	}

	if ttl := os.Getenv("JWT_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			log.Fatalf("Invalid JWT_TTL %q: %v", ttl, err)
		}
		cfg.JWTTTL = d
	}

	if cfg.DBUrl == "" || cfg.DBNs == "" || cfg.DBDb == "" {
		log.Fatal("Required environment variables SURREAL_URL, SURREAL_NS, or SURREAL_DB are not set.")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("Required environment variable JWT_SECRET is not set.")
	}

	return cfg
}
