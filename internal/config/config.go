package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Resolution engine
	SecureOrigin      bool          // true => UI is served over https, plain-http targets are policy-blocked for Direct
	AttemptTimeout    time.Duration // per-attempt network timeout
	RetryBudget       int           // full race repetitions per candidate URL
	RetryBaseDelay    time.Duration // first backoff delay
	RetryFactor       float64       // backoff multiplier
	RetryMaxDelay     time.Duration // backoff cap
	RaceGraceWindow   time.Duration // how long to keep collecting stragglers after a winner
	CacheTTL          time.Duration // result cache TTL (minutes-scale)
	RestrictedMarkers []string      // host/IP markers putting a target in restricted scope

	// Sources
	ProxyFile     string // optional YAML with the relay roster (built-ins when empty)
	AlternateFile string // optional YAML with curated alternate URLs
	DBPath        string // SQLite file for forensic log + crowd alternates

	DownvoteThreshold int // crowd alternate removed past this many downvotes

	// Background jobs
	ProbeInterval     time.Duration // relay health probe cadence
	ProbeTarget       string        // known-stable URL used by the prober
	RefreshInterval   time.Duration // offline channel re-check cadence
	RefreshBatchLimit int           // max channels re-probed per cycle
	RefreshPause      time.Duration // pause between serial re-probes

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict admin endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SALVAGE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SALVAGE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SALVAGE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SALVAGE_PRETTY_LOG", true),

		// Resolution engine. Retry and backoff values are empirical
		// defaults, tunable per deployment.
		SecureOrigin:      mustBool("SALVAGE_SECURE_ORIGIN", true),
		AttemptTimeout:    mustDuration("SALVAGE_ATTEMPT_TIMEOUT", 12*time.Second),
		RetryBudget:       getenvInt("SALVAGE_RETRY_BUDGET", 2),
		RetryBaseDelay:    mustDuration("SALVAGE_RETRY_BASE_DELAY", 600*time.Millisecond),
		RetryFactor:       mustFloat("SALVAGE_RETRY_FACTOR", 2.0),
		RetryMaxDelay:     mustDuration("SALVAGE_RETRY_MAX_DELAY", 8*time.Second),
		RaceGraceWindow:   mustDuration("SALVAGE_RACE_GRACE_WINDOW", 750*time.Millisecond),
		CacheTTL:          mustDuration("SALVAGE_CACHE_TTL", 10*time.Minute),
		RestrictedMarkers: splitAndTrim(getenv("SALVAGE_RESTRICTED_MARKERS", "")),

		// Sources
		ProxyFile:         getenv("SALVAGE_PROXY_FILE", ""),
		AlternateFile:     getenv("SALVAGE_ALTERNATE_FILE", ""),
		DBPath:            getenv("SALVAGE_DB_PATH", "/data/salvage.db"),
		DownvoteThreshold: getenvInt("SALVAGE_DOWNVOTE_THRESHOLD", 3),

		// Background jobs
		ProbeInterval:     mustDuration("SALVAGE_PROBE_INTERVAL", 5*time.Minute),
		ProbeTarget:       getenv("SALVAGE_PROBE_TARGET", "https://www.gstatic.com/generate_204"),
		RefreshInterval:   mustDuration("SALVAGE_REFRESH_INTERVAL", 10*time.Minute),
		RefreshBatchLimit: getenvInt("SALVAGE_REFRESH_BATCH_LIMIT", 10),
		RefreshPause:      mustDuration("SALVAGE_REFRESH_PAUSE", 2*time.Second),

		// Redis settings
		RedisAddr:           requireEnv("SALVAGE_REDIS_ADDR"),
		RedisUser:           getenv("SALVAGE_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("SALVAGE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SALVAGE_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("SALVAGE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("SALVAGE_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SALVAGE_TRUST_PROXY", true),
	}

	if cfg.RetryBudget < 1 {
		panic(fmt.Sprintf("❌ FATAL: SALVAGE_RETRY_BUDGET must be >= 1, got %d", cfg.RetryBudget))
	}
	if cfg.RetryFactor < 1.0 {
		panic(fmt.Sprintf("❌ FATAL: SALVAGE_RETRY_FACTOR must be >= 1.0, got %v", cfg.RetryFactor))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
