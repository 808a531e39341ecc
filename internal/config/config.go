package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/joho/godotenv"
)

// Price sources accepted by ORDER_PRICE_SOURCE.
const (
	PriceSourceCatalog = "catalog" // unit prices are re-read from the catalog at order time
	PriceSourceClient  = "client"  // unit prices are taken from the request body
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	AutoMigrate    bool   // create tables on startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time‑to‑live in minutes
	RefreshTTLDays int    // refresh token time‑to‑live in days
	BcryptCost     int    // bcrypt cost for password hashing
	PriceSource    string // where order unit prices come from (catalog|client)
	MediaDir       string // directory for uploaded product images
	MediaURL       string // public URL prefix of MediaDir
	MediaMaxBytes  int64  // upload size limit for product images
	AdminEmail     string // default admin account, seeded when set
	AdminPassword  string // password of the default admin account
	AdminFullName  string // display name of the default admin account
	LogLevel       string // zerolog level (debug, info, warn, error)
	LogFormat      string // "json" or "console"
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when it
// exists; real environment variables take precedence over it.  Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // optional; absence of .env is not an error

	level, format := LoadLogConfig()
	return Config{
		Env:            must("APP_ENV"),                          // environment (dev/test/prod)
		Port:           must("APP_PORT"),                         // port to bind the HTTP server
		DBUser:         must("DB_USER"),                          // database user
		DBPass:         os.Getenv("DB_PASS"),                     // database password (empty allowed)
		DBHost:         must("DB_HOST"),                          // database host
		DBPort:         must("DB_PORT"),                          // database port
		DBName:         must("DB_NAME"),                          // database name
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", true),         // schema bootstrap
		JWTSecret:      must("JWT_SECRET"),                       // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),          // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),        // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST"),                   // bcrypt cost factor
		PriceSource:    priceSource(envStr("ORDER_PRICE_SOURCE", PriceSourceCatalog)),
		MediaDir:       envStr("MEDIA_DIR", "media"),
		MediaURL:       envStr("MEDIA_URL", "/media"),
		MediaMaxBytes:  int64(envInt("MEDIA_MAX_BYTES", 5<<20)),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		AdminFullName:  envStr("ADMIN_FULL_NAME", "Store Admin"),
		LogLevel:       level,
		LogFormat:      format,
	}
}

// LoadLogConfig reads LOG_LEVEL and LOG_FORMAT on their own, for processes
// that do not need the rest of Config.
func LoadLogConfig() (level, format string) {
	return envStr("LOG_LEVEL", "info"), envStr("LOG_FORMAT", "json")
}

// priceSource validates ORDER_PRICE_SOURCE.  Unknown values are fatal so a
// typo cannot silently switch the trust model.
func priceSource(v string) string {
	switch v {
	case PriceSourceCatalog, PriceSourceClient:
		return v
	}
	log.Fatalf("invalid ORDER_PRICE_SOURCE: %q (want %s or %s)", v, PriceSourceCatalog, PriceSourceClient)
	return ""
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
