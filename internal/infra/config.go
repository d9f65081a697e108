package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported capability backends.
const (
	GenAIBackendREST = "rest"
	GenAIBackendSDK  = "sdk"
)

// DefaultImageModel is the image-capable Gemini model used for try-on.
const DefaultImageModel = "gemini-2.5-flash-image"

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiImageModel  string
	GenAIBackend      string
	FetchTimeout      time.Duration
	CapabilityTimeout time.Duration
	MaxImageBytes     int64
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RateLimitPerMin   int
	TrustProxyHeaders bool
	CORSOrigins       []string
	DefaultLocale     string
	GeoIPDBPath       string
	TraceExporter     string
	OTLPEndpoint      string
	OTLPInsecure      bool
	SeedCatalog       bool
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// A missing GEMINI_API_KEY is not an error here: the try-on requester reports it per call.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", DefaultImageModel),
		GenAIBackend:      strings.ToLower(getEnv("GENAI_BACKEND", GenAIBackendREST)),
		FetchTimeout:      time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 20)),
		CapabilityTimeout: time.Second * time.Duration(getEnvInt("CAPABILITY_TIMEOUT_SECONDS", 120)),
		MaxImageBytes:     int64(getEnvInt("MAX_IMAGE_BYTES", 10<<20)),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 150)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
		CORSOrigins:       splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		DefaultLocale:     strings.ToLower(getEnv("DEFAULT_LOCALE", "es")),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		TraceExporter:     strings.ToLower(getEnv("TRACE_EXPORTER", "none")),
		OTLPEndpoint:      os.Getenv("OTLP_ENDPOINT"),
		OTLPInsecure:      getEnvBool("OTLP_INSECURE", false),
		SeedCatalog:       getEnvBool("SEED_CATALOG", true),
	}

	switch cfg.GenAIBackend {
	case GenAIBackendREST, GenAIBackendSDK:
	default:
		return nil, fmt.Errorf("GENAI_BACKEND must be %q or %q, got %q", GenAIBackendREST, GenAIBackendSDK, cfg.GenAIBackend)
	}

	if cfg.MaxImageBytes <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}

	if cfg.RateLimitPerMin <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	if cfg.FetchTimeout <= 0 || cfg.CapabilityTimeout <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT_SECONDS and CAPABILITY_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
