package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr      string
	DBDSN     string
	JWTSecret string
	RedisAddr string
	PhotosDir string
}

// Load reads configuration from the environment. A .env file in the working
// directory is picked up if present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:      ":8080",
		RedisAddr: "localhost:6379",
		PhotosDir: "photos",
	}

	if v := os.Getenv("APP_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("PHOTOS_DIR"); v != "" {
		cfg.PhotosDir = v
	}

	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return cfg, fmt.Errorf("DB_DSN is not set")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is not set")
	}

	return cfg, nil
}
