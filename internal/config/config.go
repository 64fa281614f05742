package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time expresses the lock TTL and sweep interval
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The types reflect how the values are used
// in the application: strings for identifiers and secrets, durations for
// time windows.  LockTTL is shared between server-side enforcement and
// the countdown a client may display, so it must stay a single source of
// truth.
type Config struct {
    Env            string        // application environment (e.g. "dev", "prod")
    Port           string        // HTTP port to listen on
    DBUser         string        // database username
    DBPass         string        // database password (optional)
    DBHost         string        // database host address
    DBPort         string        // database port number
    DBName         string        // database name
    JWTSecret      string        // secret used to sign JWTs
    AccessTTLMin   int           // access token time-to-live in minutes
    RefreshTTLDays int           // refresh token time-to-live in days
    BcryptCost     int           // bcrypt cost for password hashing
    LockTTL        time.Duration // how long a seat lock stays valid
    SweepInterval  time.Duration // how often the sweeper reclaims expired locks
    SeatCount      int           // number of seats created by the init endpoint
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The seat-booking
// knobs all have sensible defaults: a 60 second lock window, a 5 second
// sweep, 30 seats.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),                        // environment (dev/test/prod)
        Port:           must("APP_PORT"),                       // port to bind the HTTP server
        DBUser:         must("DB_USER"),                        // database user
        DBPass:         os.Getenv("DB_PASS"),                   // database password (empty allowed)
        DBHost:         must("DB_HOST"),                        // database host
        DBPort:         must("DB_PORT"),                        // database port
        DBName:         must("DB_NAME"),                        // database name
        JWTSecret:      must("JWT_SECRET"),                     // secret used for signing JWTs
        AccessTTLMin:   intOr("ACCESS_TOKEN_TTL_MIN", 15),      // TTL for access tokens in minutes
        RefreshTTLDays: intOr("REFRESH_TOKEN_TTL_DAYS", 7),     // TTL for refresh tokens in days
        BcryptCost:     intOr("BCRYPT_COST", 12),               // bcrypt cost factor
        LockTTL:        secondsOr("LOCK_TTL_SECONDS", 60),      // seat lock validity window
        SweepInterval:  secondsOr("SWEEP_INTERVAL_SECONDS", 5), // sweeper cadence
        SeatCount:      intOr("SEAT_COUNT", 30),                // seats seeded by /seats/init
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

// intOr converts the named variable to an integer, falling back to the
// provided default when unset.  An unparsable value is fatal rather than
// silently ignored.
func intOr(key string, def int) int {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// secondsOr reads an integer number of seconds with a default, returned
// as a time.Duration.
func secondsOr(key string, def int) time.Duration {
    return time.Duration(intOr(key, def)) * time.Second
}
