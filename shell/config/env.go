package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from a .env file if one exists.
// Missing files are not an error; real environment variables always win.
func LoadEnv() {
	_ = godotenv.Load()
}

// EnvOrDefault returns the value of the environment variable or the fallback
// when it is unset or empty.
func EnvOrDefault(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
