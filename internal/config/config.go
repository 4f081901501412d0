package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment    string
	DSN            string
	JWTSecret      string
	DownloadSecret string
	AppPort        string
	BaseURL        string
	StorageDir     string
}

func Load() Config {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg := Config{
		Environment:    os.Getenv("ENV"),
		DSN:            os.Getenv("MYSQL_DSN"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		DownloadSecret: os.Getenv("DOWNLOAD_SECRET"),
		AppPort:        os.Getenv("APP_PORT"),
		BaseURL:        os.Getenv("BASE_URL"),
		StorageDir:     os.Getenv("STORAGE_DIR"),
	}

	if cfg.DSN == "" {
		log.Fatal("MYSQL_DSN not set in environment")
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-only"
	}
	if cfg.DownloadSecret == "" {
		// Session and download tokens must not share a key, even in dev.
		cfg.DownloadSecret = "dev-download-secret-only"
	}
	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.AppPort
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "./data/resources"
	}

	return cfg
}
