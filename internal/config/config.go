package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL       string        `validate:"required_without=RouteAPIURL"`
	City              string        `validate:"omitempty,excluded_without=DatabaseURL"`
	RouteAPIURL       string        `validate:"omitempty,excluded_with=DatabaseURL,url"`
	NATSURL           string        `validate:"omitempty,url"`
	NATSSubjectPrefix string        `validate:"required"`
	LogNATSSubjects   bool
	SearchQuietPeriod time.Duration `validate:"gt=0"`
	RequestTimeout    time.Duration `validate:"gt=0"`
	SearchCacheSize   int           `validate:"gt=0"`
	SearchCacheTTL    time.Duration `validate:"gte=0"`
	MetricsAddr       string        `validate:"omitempty,hostname_port"`
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	// Route catalog in Postgres: prefer DATABASE_URL / PG_DSN, else build from PG* vars when PGDATABASE or CITY is set
	dsn := firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PG_DSN"))
	if dsn == "" {
		db := os.Getenv("PGDATABASE")
		if db == "" && os.Getenv("CITY") != "" {
			db = "postgres"
		}
		if db != "" {
			host := getenvDefault("PGHOST", "127.0.0.1")
			port := getenvDefault("PGPORT", "5432")
			user := getenvDefault("PGUSER", "postgres")
			pass := os.Getenv("PGPASSWORD")
			sslmode := getenvDefault("PGSSLMODE", "disable")
			if pass != "" {
				dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
			} else {
				dsn = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
			}
		}
	}
	cfg.DatabaseURL = dsn
	cfg.City = firstNonEmpty(os.Getenv("CITY"), os.Getenv("CITY_NAME"))

	// Remote route service; mutually exclusive with the database
	cfg.RouteAPIURL = strings.TrimSpace(os.Getenv("ROUTE_API_URL"))

	// NATS events are optional; empty disables publishing
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "cityride")
	cfg.LogNATSSubjects = parseBool(os.Getenv("LOG_NATS_SUBJECTS"))

	var err error
	if cfg.SearchQuietPeriod, err = millis("SEARCH_DEBOUNCE_MS", 500); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = millis("REQUEST_TIMEOUT_MS", 10000); err != nil {
		return nil, err
	}

	cfg.SearchCacheSize = 256
	if v := os.Getenv("SEARCH_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SEARCH_CACHE_SIZE: %q", v)
		}
		cfg.SearchCacheSize = n
	}

	// Cache TTL (seconds); 0 keeps entries until evicted
	cfg.SearchCacheTTL = 60 * time.Second
	if v := os.Getenv("SEARCH_CACHE_TTL_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SEARCH_CACHE_TTL_SEC: %q", v)
		}
		cfg.SearchCacheTTL = time.Duration(sec) * time.Second
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func millis(key string, def int) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(def) * time.Millisecond, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
