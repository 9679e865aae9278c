package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	APIBaseURL   string
	APITimeout   time.Duration
	DBDSN        string
	LogFile      string
	LogLevel     string
	RedisURL     string
	SessionKey   string
	TemplatesDir string
	StaticDir    string
	LocalesDir   string
	DefaultLang  string
	ProductStale time.Duration
	CookieSecure bool
	// TemplateReload re-parses templates on every render. Development only.
	TemplateReload bool
}

// Load reads the environment. Files in envFiles are loaded first when they
// exist; variables already set in the process win.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("[warn] could not load %s: %v", f, err)
		}
	}

	cfg := Config{
		Port:           env("PORT", "8080"),
		APIBaseURL:     env("API_BASE_URL", "https://api-ecom.duthanhduoc.com/"),
		APITimeout:     duration("API_TIMEOUT", 0), // zero keeps the client default
		DBDSN:          env("DB_DSN", "shopfront.db"),
		LogFile:        env("LOG_FILE", "./shopfront.log"),
		LogLevel:       env("LOG_LEVEL", "info"),
		RedisURL:       os.Getenv("REDIS_URL"),
		SessionKey:     os.Getenv("SESSION_KEY"),
		TemplatesDir:   env("TEMPLATES_DIR", "./web/templates"),
		StaticDir:      env("STATIC_DIR", "./web/static"),
		LocalesDir:     env("LOCALES_DIR", "./web/locales"),
		DefaultLang:    env("DEFAULT_LANG", "vi"),
		ProductStale:   duration("PRODUCT_STALE_TIME", 3*time.Minute),
		CookieSecure:   os.Getenv("COOKIE_SECURE") == "true",
		TemplateReload: os.Getenv("TEMPLATE_RELOAD") == "true",
	}
	log.Printf("[config] PORT=%s API_BASE_URL=%s DB_DSN=%s LOG_FILE=%s REDIS=%t LANG=%s",
		cfg.Port, cfg.APIBaseURL, cfg.DBDSN, cfg.LogFile, cfg.RedisURL != "", cfg.DefaultLang)
	return cfg
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// duration accepts Go durations ("90s") or a bare number of seconds.
func duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	log.Printf("[warn] ignoring malformed %s=%q", key, raw)
	return def
}
