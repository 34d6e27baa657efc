package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string

	StorageDriver string
	MongoURI      string
	MongoDatabase string
	SQLitePath    string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	ObjectDir      string
	PublicBaseURL  string
	UploadSecret   string
	UploadURLTTL   time.Duration
	MaxUploadBytes int64

	PredictURL     string
	PredictTimeout time.Duration

	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []string

	LogLevel string
}

// Load reads .env when present and falls back to defaults for anything unset.
func Load() AppConfig {
	_ = godotenv.Load()

	cfg := AppConfig{
		Port: get("PORT", "10000"),

		StorageDriver: strings.ToLower(get("STORAGE_DRIVER", "memory")),
		MongoURI:      get("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: get("MONGODB_DATABASE", "coffee"),
		SQLitePath:    get("SQLITE_PATH", "coffee.db"),

		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),
		CacheTTL:      getDuration("CACHE_TTL", 2*time.Hour),

		ObjectDir:      get("OBJECT_DIR", "./data/objects"),
		PublicBaseURL:  strings.TrimRight(get("PUBLIC_BASE_URL", ""), "/"),
		UploadSecret:   get("UPLOAD_SECRET", ""),
		UploadURLTTL:   getDuration("UPLOAD_URL_TTL", 15*time.Minute),
		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 10<<20),

		PredictURL:     strings.TrimRight(get("PREDICT_URL", ""), "/"),
		PredictTimeout: getDuration("PREDICT_TIMEOUT", 20*time.Second),

		JWTSecret:      get("JWT_SECRET", ""),
		AllowedOrigins: splitList(get("ALLOWED_ORIGINS", "*")),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: int(getInt64("RATE_LIMIT_BURST", 10)),
		TrustedProxies: splitList(get("TRUSTED_PROXIES", "")),

		LogLevel: strings.ToLower(get("LOG_LEVEL", "info")),
	}
	return cfg
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}

func getInt64(k string, def int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(k), 10, 64); err == nil && n > 0 {
		return n
	}
	return def
}

func getFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil && f > 0 {
		return f
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
