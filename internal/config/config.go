package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	StorePath       string // path of the embedded store file
	StorePassphrase string // passphrase for encryption at rest (empty disables it)
	JWTSecret       string // secret used to sign JWT access tokens
	AccessTTLMin    int    // access token time-to-live in minutes
	SessionTTLHours int    // opaque session time-to-live in hours
	BcryptCost      int    // bcrypt cost for password hashing
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The passphrase is
// deliberately optional: an empty value opens or creates a plaintext store.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),                  // environment (dev/test/prod)
		Port:            must("APP_PORT"),                 // port to bind the HTTP server
		StorePath:       must("STORE_PATH"),               // location of the store file
		StorePassphrase: os.Getenv("STORE_PASSPHRASE"),    // encryption passphrase (empty allowed)
		JWTSecret:       must("JWT_SECRET"),               // secret used for signing JWTs
		AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),  // TTL for access tokens in minutes
		SessionTTLHours: mustInt("SESSION_TTL_HOURS"),     // TTL for opaque sessions in hours
		BcryptCost:      mustInt("BCRYPT_COST"),           // bcrypt cost factor
	}
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
