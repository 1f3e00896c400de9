package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port              string
	DatabaseURL       string
	JWTSecret         string
	JWTExpiresMinutes int
	SiteURL           string

	Payments Payments
	Fees     Fees

	KafkaBroker string
	KafkaTopic  string
	RabbitMQURL string
	PushQueue   string
	RedisURL    string

	AuthRatePerSec int
	AuthRateBurst  int
}

type Payments struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	MidtransServerKey   string
	MidtransEnv         string // sandbox | production
	AdPostingFeeIDR     decimal.Decimal
	MembershipPriceIDR  decimal.Decimal
	MembershipDays      int
}

type Fees struct {
	CommissionRate   decimal.Decimal
	CommissionMinIDR decimal.Decimal
	// IDR per one unit of the currency
	Rates map[string]decimal.Decimal
}

func Load() Config {
	_ = godotenv.Load()

	port := getEnv("PORT", "8080")
	dbURL := getEnv("DATABASE_URL", "")
	jwtSecret := getEnv("JWT_SECRET", "dev-secret-change-me")
	jwtExp := getEnvInt("JWT_EXPIRES_MINUTES", 60*24*7)

	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	return Config{
		Port:              port,
		DatabaseURL:       dbURL,
		JWTSecret:         jwtSecret,
		JWTExpiresMinutes: jwtExp,
		SiteURL:           getEnv("SITE_URL", "https://bagasi.id"),
		Payments: Payments{
			StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			MidtransServerKey:   getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransEnv:         getEnv("MIDTRANS_ENV", "sandbox"),
			AdPostingFeeIDR:     getEnvDecimal("AD_POSTING_FEE_IDR", "25000"),
			MembershipPriceIDR:  getEnvDecimal("MEMBERSHIP_PRICE_IDR", "95000"),
			MembershipDays:      getEnvInt("MEMBERSHIP_DAYS", 30),
		},
		Fees:           LoadFees(),
		KafkaBroker:    getEnv("KAFKA_BROKER", ""),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "bagasi.listing-events"),
		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		PushQueue:      getEnv("PUSH_QUEUE", "bagasi.push"),
		RedisURL:       getEnv("REDIS_URL", ""),
		AuthRatePerSec: getEnvInt("AUTH_RATE_PER_SEC", 5),
		AuthRateBurst:  getEnvInt("AUTH_RATE_BURST", 10),
	}
}

// LoadFees reads commission settings and exchange rates.
// EXCHANGE_RATES format: "AUD=10500,USD=16000".
func LoadFees() Fees {
	rates := map[string]decimal.Decimal{
		"IDR": decimal.NewFromInt(1),
		"AUD": decimal.NewFromInt(10500),
		"USD": decimal.NewFromInt(16000),
		"SGD": decimal.NewFromInt(12000),
		"KRW": decimal.RequireFromString("11.5"),
	}
	for _, pair := range strings.Split(getEnv("EXCHANGE_RATES", ""), ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil || !d.IsPositive() {
			continue
		}
		rates[strings.ToUpper(strings.TrimSpace(k))] = d
	}

	return Fees{
		CommissionRate:   getEnvDecimal("COMMISSION_RATE", "0.1"),
		CommissionMinIDR: getEnvDecimal("COMMISSION_MIN_IDR", "50000"),
		Rates:            rates,
	}
}

// Client is the terminal client configuration.
type Client struct {
	APIURL      string
	StorePath   string
	SiteURL     string
	SitemapPath string
	// StreamPayments watches payment status over server-sent events instead of polling.
	StreamPayments bool
}

func LoadClient() Client {
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	return Client{
		APIURL:         strings.TrimRight(getEnv("BAGASI_API_URL", "http://localhost:8080/api"), "/"),
		StorePath:      getEnv("BAGASI_STORE_PATH", home+"/.bagasi.db"),
		SiteURL:        strings.TrimRight(getEnv("SITE_URL", "https://bagasi.id"), "/"),
		SitemapPath:    getEnv("SITEMAP_PATH", "public/sitemap.xml"),
		StreamPayments: getEnv("BAGASI_PAYMENT_STREAM", "true") == "true",
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDecimal(key, def string) decimal.Decimal {
	d, err := decimal.NewFromString(getEnv(key, def))
	if err != nil {
		return decimal.RequireFromString(def)
	}
	return d
}
