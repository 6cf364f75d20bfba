package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	PORT string

	DB_USERNAME string
	DB_PASSWORD string
	DB_HOST     string
	DB_PORT     string
	DB_NAME     string
	DISABLE_TLS string

	// Secret used to sign and verify access tokens
	JWT_SECRET string

	// CORS
	ALLOWED_ORIGINS []string
	ALLOWED_HEADERS string

	// Optional Redis backend for distributed rate limiting
	REDIS_ADDR     string
	REDIS_PASSWORD string

	// Requests allowed per user per minute, 0 disables rate limiting
	RATE_LIMIT_PER_MIN int

	// Otel
	OTEL_EXPORTER_OTLP_ENDPOINT string
}

func ReadConfig() *Config {
	rateLimit := 0
	if limitStr := os.Getenv("RATE_LIMIT_PER_MIN"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			rateLimit = limit
		}
	}

	return &Config{
		PORT: GetEnvOrDefault("PORT", "6060"),

		DB_USERNAME: os.Getenv("DB_USERNAME"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_NAME:     os.Getenv("DB_NAME"),
		DISABLE_TLS: os.Getenv("DISABLE_TLS"),

		JWT_SECRET: os.Getenv("JWT_SECRET"),

		ALLOWED_ORIGINS: splitOrigins(os.Getenv("ALLOWED_ORIGINS")),
		ALLOWED_HEADERS: GetEnvOrDefault("ALLOWED_HEADERS", "Authorization,Content-Type"),

		REDIS_ADDR:     os.Getenv("REDIS_ADDR"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),

		RATE_LIMIT_PER_MIN: rateLimit,

		OTEL_EXPORTER_OTLP_ENDPOINT: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}

	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
