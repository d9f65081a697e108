package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"modaflow/internal/catalog"
	"modaflow/internal/http/handlers"
	"modaflow/internal/http/httpapi"
	"modaflow/internal/infra"
	"modaflow/internal/infra/geoip"
	"modaflow/internal/metrics"
	"modaflow/internal/providers/genai"
	"modaflow/internal/providers/genaisdk"
	"modaflow/internal/telemetry"
	"modaflow/internal/tryon"
)

func main() {
	// .env is optional
	_ = godotenv.Load(".env.local", ".env")

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  "modaflow-api",
		Exporter:     cfg.TraceExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	store := catalog.NewStore()
	if cfg.SeedCatalog {
		store.Seed()
	}

	m := metrics.New()
	m.RegisterCatalogSize(store.Counts)

	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY is not set; try-on requests will fail")
	}
	requester := tryon.NewRequester(tryon.Options{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiImageModel,
		Normalizer: tryon.NewNormalizer(tryon.NormalizerOptions{
			Timeout:  cfg.FetchTimeout,
			MaxBytes: cfg.MaxImageBytes,
			Logger:   &logger,
		}),
		Capability: newCapability(ctx, cfg, &logger),
		Logger:     &logger,
		Observer:   m,
	})

	app := &handlers.App{
		Products:     store,
		Categories:   store,
		Requester:    requester,
		Logger:       &logger,
		MaxBodyBytes: 3*cfg.MaxImageBytes + 1<<20,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:            logger,
		Metrics:           m,
		CORSOrigins:       cfg.CORSOrigins,
		DefaultLocale:     cfg.DefaultLocale,
		CountryLookup:     resolver.Lookup(),
		RateLimitPerMin:   cfg.RateLimitPerMin,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("model", requester.Model()).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFlush()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Error().Err(err).Msg("failed to flush traces")
	}
	logger.Info().Msg("server stopped")
}

// newCapability selects the generation backend. The SDK backend needs a key
// at construction, so without one the REST client is used and the requester
// reports the missing credential per call.
func newCapability(ctx context.Context, cfg *infra.Config, logger *infra.Logger) tryon.Capability {
	httpClient := &http.Client{Timeout: cfg.CapabilityTimeout}
	if cfg.GenAIBackend == infra.GenAIBackendSDK && cfg.GeminiAPIKey != "" {
		client, err := genaisdk.NewClient(ctx, genaisdk.Options{
			APIKey:     cfg.GeminiAPIKey,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		if err == nil {
			logger.Info().Str("backend", infra.GenAIBackendSDK).Msg("generation backend ready")
			return client
		}
		logger.Warn().Err(err).Msg("genai sdk unavailable, falling back to REST")
	}
	logger.Info().Str("backend", infra.GenAIBackendREST).Msg("generation backend ready")
	return genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: httpClient,
		Timeout:    cfg.CapabilityTimeout,
		Logger:     logger,
	})
}
