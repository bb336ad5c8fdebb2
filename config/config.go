package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Square   SquareConfig
	Checkout CheckoutConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// SquareConfig holds the commerce provider credentials and target.
type SquareConfig struct {
	AccessToken string
	LocationID  string
	Environment string
	Currency    string
	Timeout     time.Duration
}

type CheckoutConfig struct {
	StoreName       string
	SupportEmail    string
	RedirectBaseURL string
	// AllowedOrigins lists storefront origins trusted as redirect bases in
	// addition to RedirectBaseURL. "*" trusts any origin.
	AllowedOrigins   []string
	AllowTipping     bool
	QuickPayFallback bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	TopicEvents string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

const (
	EnvironmentProduction = "production"
	EnvironmentSandbox    = "sandbox"
)

// Load reads the optional env files (".env" when none given) and then the
// process environment.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, _ := strconv.Atoi(getEnv("CATALOG_CACHE_TTL_SECONDS", "60"))
	timeout, _ := strconv.Atoi(getEnv("SQUARE_TIMEOUT_SECONDS", "15"))
	if timeout <= 0 {
		timeout = 15
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Square: SquareConfig{
			AccessToken: os.Getenv("SQUARE_ACCESS_TOKEN"),
			LocationID:  os.Getenv("SQUARE_LOCATION_ID"),
			Environment: strings.ToLower(getEnv("SQUARE_ENVIRONMENT", EnvironmentProduction)),
			Currency:    strings.ToUpper(getEnv("SQUARE_CURRENCY", "USD")),
			Timeout:     time.Duration(timeout) * time.Second,
		},
		Checkout: CheckoutConfig{
			StoreName:        getEnv("STORE_NAME", "A Slice of G"),
			SupportEmail:     getEnv("MERCHANT_SUPPORT_EMAIL", ""),
			RedirectBaseURL:  strings.TrimSuffix(getEnv("CHECKOUT_REDIRECT_BASE_URL", "https://asliceof-g.vercel.app"), "/"),
			AllowedOrigins:   splitList(getEnv("CHECKOUT_ALLOWED_ORIGINS", "")),
			AllowTipping:     getBool("CHECKOUT_ALLOW_TIPPING", true),
			QuickPayFallback: getBool("QUICK_PAY_FALLBACK", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			CacheTTL: time.Duration(cacheTTL) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(getEnv("KAFKA_BROKERS", "")),
			TopicEvents: getEnv("KAFKA_TOPIC_STOREFRONT_EVENTS", "storefront-events"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, square_env=%s", cfg.Server.Env, cfg.Server.Port, cfg.Square.Environment)
	return cfg
}

// IsProduction reports whether the provider production environment is
// targeted. Anything other than "sandbox" counts as production.
func (c SquareConfig) IsProduction() bool {
	return c.Environment != EnvironmentSandbox
}

// Validate returns an error naming the missing credentials, if any.
func (c SquareConfig) Validate() error {
	var missing []string
	if c.AccessToken == "" {
		missing = append(missing, "SQUARE_ACCESS_TOKEN")
	}
	if c.LocationID == "" {
		missing = append(missing, "SQUARE_LOCATION_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
