package app

import "os"

type Config struct {
	UserPoolID   string // Required: full pool id, e.g. "ap-southeast-2_AbCdEfGh"
	ClientID     string // Required: app client id
	ClientSecret string // Optional: app client secret, if the client has one
	Username     string // Required: login alias
	Password     string // Required: password for the login command
	Region       string // Required unless Endpoint and Issuer are both set
	Endpoint     string // Optional: provider endpoint override
	Issuer       string // Optional: token issuer override

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
}

func LoadConfig() Config {
	return Config{
		UserPoolID:   os.Getenv("POOLAUTH_USER_POOL_ID"),
		ClientID:     os.Getenv("POOLAUTH_CLIENT_ID"),
		ClientSecret: os.Getenv("POOLAUTH_CLIENT_SECRET"),
		Username:     os.Getenv("POOLAUTH_USERNAME"),
		Password:     os.Getenv("POOLAUTH_PASSWORD"),
		Region:       os.Getenv("POOLAUTH_REGION"),
		Endpoint:     os.Getenv("POOLAUTH_ENDPOINT"),
		Issuer:       os.Getenv("POOLAUTH_ISSUER"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
