package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds application configuration values.
type Config struct {
	Secret         string
	DatabaseDSN    string
	HTTPPort       string
	Timezone       *time.Location
	ProfilePath    string
	StaffCSV       string
	DraftTTL       time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

const defaultTimezone = "Asia/Kuala_Lumpur"

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "file:bloomelein.db?_pragma=busy_timeout(5000)"
	}

	tzName := os.Getenv("SHOP_TIMEZONE")
	if tzName == "" {
		tzName = defaultTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Printf("invalid SHOP_TIMEZONE value %q, defaulting to %s", tzName, defaultTimezone)
		loc, err = time.LoadLocation(defaultTimezone)
		if err != nil {
			loc = time.FixedZone("MYT", 8*60*60)
		}
	}

	staffCSV := os.Getenv("STAFF_CSV")
	if staffCSV == "" {
		staffCSV = "assets/staff.csv"
	}

	origins := []string{"*"}
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		origins = splitList(raw)
	}

	return Config{
		Secret:         secret,
		DatabaseDSN:    dsn,
		HTTPPort:       port,
		Timezone:       loc,
		ProfilePath:    os.Getenv("SHOP_PROFILE"),
		StaffCSV:       staffCSV,
		DraftTTL:       durationEnv("DRAFT_TTL", 12*time.Hour),
		RateLimitRPS:   floatEnv("RATE_LIMIT_RPS", 2),
		RateLimitBurst: intEnv("RATE_LIMIT_BURST", 10),
		AllowedOrigins: origins,
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("invalid %s value %q, defaulting to %s", key, raw, fallback)
		return fallback
	}
	return d
}

func floatEnv(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		log.Printf("invalid %s value %q, defaulting to %v", key, raw, fallback)
		return fallback
	}
	return f
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("invalid %s value %q, defaulting to %d", key, raw, fallback)
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
