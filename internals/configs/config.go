package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	JWTSecret        string
	JWTRefreshSecret string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ No .env file found, using system ENV")
		} else {
			log.Println("✅ .env file loaded")
		}
	} else {
		log.Println("🚀 Running on Railway, using system ENV")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	JWTRefreshSecret = GetEnv("JWT_REFRESH_SECRET")

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// =======================
// M-PESA OPENAPI GATEWAY
// =======================

// GatewayConfig carries everything the Vodacom OpenAPI client needs.
// SessionCooldown is the provider-mandated wait after getSession before the
// session may be used; overridable via env so tests do not sit for 30 seconds.
type GatewayConfig struct {
	BaseURL             string
	Market              string
	APIKey              string
	PublicKey           string // base64 DER, provider-issued
	ServiceProviderCode string
	Country             string
	Currency            string
	SessionCooldown     time.Duration
	HTTPTimeout         time.Duration
}

func LoadGatewayConfig() GatewayConfig {
	cooldown := time.Duration(GetEnvInt("MPESA_SESSION_COOLDOWN_SECONDS", 30)) * time.Second
	return GatewayConfig{
		BaseURL:             GetEnv("MPESA_BASE_URL", "https://openapi.m-pesa.com"),
		Market:              GetEnv("MPESA_MARKET", "vodacomTZN"),
		APIKey:              GetEnv("MPESA_API_KEY"),
		PublicKey:           GetEnv("MPESA_PUBLIC_KEY"),
		ServiceProviderCode: GetEnv("MPESA_SERVICE_PROVIDER_CODE"),
		Country:             GetEnv("MPESA_COUNTRY", "TZN"),
		Currency:            GetEnv("MPESA_CURRENCY", "TZS"),
		SessionCooldown:     cooldown,
		HTTPTimeout:         45 * time.Second,
	}
}
