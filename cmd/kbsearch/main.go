package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lexora/kbsearch/internal/config"
	"github.com/lexora/kbsearch/internal/db"
	dbMemory "github.com/lexora/kbsearch/internal/db/memory"
	dbRedis "github.com/lexora/kbsearch/internal/db/redis"
	"github.com/lexora/kbsearch/internal/domain"
	logpkg "github.com/lexora/kbsearch/internal/logger"
	"github.com/lexora/kbsearch/internal/metrics"
	"github.com/lexora/kbsearch/internal/repository/content"
	"github.com/lexora/kbsearch/internal/repository/embcache"
	"github.com/lexora/kbsearch/internal/retry"
	chiTransport "github.com/lexora/kbsearch/internal/transport/chi"
	"github.com/lexora/kbsearch/internal/transport/fetch"
	openaiEmb "github.com/lexora/kbsearch/internal/transport/openai"
	embeddinguc "github.com/lexora/kbsearch/internal/usecase/embedding"
	healthuc "github.com/lexora/kbsearch/internal/usecase/health"
	searchuc "github.com/lexora/kbsearch/internal/usecase/search"
	"github.com/lexora/kbsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kbsearch API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Create cache store based on driver
	var store db.Store
	switch cfg.Cache.Driver {
	case "memory":
		store = dbMemory.NewStore()
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
	default:
		logger.Fatal("Unknown cache driver", zap.String("driver", cfg.Cache.Driver))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	// Build embedder chain — composition root
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:         cfg.Embedding.APIKey,
		BaseURL:        cfg.Embedding.BaseURL,
		Model:          cfg.Embedding.Model,
		Dimensions:     cfg.Embedding.Dimensions,
		Provider:       cfg.Embedding.Provider,
		RequestTimeout: time.Duration(cfg.Embedding.RequestTimeoutSec) * time.Second,
		Logger:         logger,
	})
	cached := embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	instrumented := embeddinguc.NewInstrumentedEmbedder(
		cached, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	)

	// Documents: chunked batches with per-item degradation, no retry.
	docEmbedder := embeddinguc.NewBatchedEmbedder(instrumented, cfg.Embedding.BatchSize, logger)

	// Query: retried — a failed query embedding sinks the whole search.
	queryEmbedder := embeddinguc.NewRetryEmbedder(instrumented, retry.Config{
		MaxAttempts: cfg.Embedding.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Embedding.Retry.BaseDelayMs) * time.Millisecond,
	}, logger)

	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Content extractor: stores up to the /extract cap, the search path
	// reads with its own tighter cap.
	fetcher := fetch.New(cfg.Extract.UserAgent)
	extractor := content.New(fetcher, store, content.Config{
		FetchTimeout:  time.Duration(cfg.Extract.FetchTimeoutMs) * time.Millisecond,
		ExportTimeout: time.Duration(cfg.Extract.ExportTimeoutMs) * time.Millisecond,
		MaxChars:      cfg.Extract.MaxExtractChars,
		CacheTTL:      time.Duration(cfg.Cache.ContentTTLSec) * time.Second,
	}, logger)

	searchSvc := searchuc.New(
		queryEmbedder, docEmbedder,
		cappedExtractor{inner: extractor, limit: cfg.Extract.MaxContentChars},
		searchuc.Config{
			PrefilterMultiplier: cfg.Search.PrefilterMultiplier,
			DeepBatchSize:       cfg.Search.DeepBatchSize,
			ShortQueryMaxLen:    cfg.Search.ShortQueryMaxLen,
			ShortQueryFloor:     cfg.Search.ShortQueryFloor,
		}, logger,
	)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(base))

	server := chiTransport.NewServer(searchSvc, extractor, healthSvc, chiTransport.Config{
		DefaultThreshold: cfg.Search.DefaultThreshold,
		MaxDocuments:     cfg.Search.MaxDocuments,
		MaxExtractChars:  cfg.Extract.MaxExtractChars,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// cappedExtractor narrows the extractor to the search path's content cap.
type cappedExtractor struct {
	inner *content.Extractor
	limit int
}

func (c cappedExtractor) Extract(ctx context.Context, url string, docType domain.DocumentType) string {
	return c.inner.ExtractLimit(ctx, url, docType, c.limit)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
