package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Billing BillingConfig
	POS     POSConfig
}

type ServerConfig struct {
	Port string
}

type DBConfig struct {
	DSN string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  int // hours
}

type BillingConfig struct {
	WebhookSecret string
	VIPEmails     string // comma separated allowlist
	VIPOrgs       string // comma separated organization ids
}

type POSConfig struct {
	RestaurantMode bool
	IVAPercent     string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, _ := strconv.Atoi(getEnv("JWT_TTL_HOURS", "12"))
	restaurantMode, _ := strconv.ParseBool(getEnv("RESTAURANT_MODE", "false"))

	return Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		DB: DBConfig{
			DSN: getEnv("POS_DSN", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  tokenTTL,
		},
		Billing: BillingConfig{
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
			VIPEmails:     getEnv("VIP_EMAILS", ""),
			VIPOrgs:       getEnv("VIP_ORGANIZATIONS", ""),
		},
		POS: POSConfig{
			RestaurantMode: restaurantMode,
			IVAPercent:     getEnv("IVA_PERCENT", "0"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
