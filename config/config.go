package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresEnabled  bool

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	MaxPages       int
	PageTimeoutSec int
	WindowDays     int

	Transport     string // "browser" (chromedp) or "http" (plain client)
	BaseURL       string
	TargetCountry string
	Currency      string

	DataDir       string
	InventoryPath string
	ServerAddr    string
	ChromeBin     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "lego_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		MaxPages:       getEnvInt("MAX_PAGES", 20),
		PageTimeoutSec: getEnvInt("PAGE_TIMEOUT_SEC", 30),
		WindowDays:     getEnvInt("WINDOW_DAYS", 30),

		Transport:     getEnv("TRANSPORT", "browser"),
		BaseURL:       getEnv("EBAY_BASE_URL", "https://www.ebay.de"),
		TargetCountry: getEnv("TARGET_COUNTRY", "Deutschland"),
		Currency:      getEnv("CURRENCY", "EUR"),

		DataDir:       getEnv("DATA_DIR", "./data"),
		InventoryPath: getEnv("INVENTORY_PATH", "./Inventory/Reselling Profit Calculator2.xlsx"),
		ServerAddr:    getEnv("SERVER_ADDR", "127.0.0.1:5000"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
