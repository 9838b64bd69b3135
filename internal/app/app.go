// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/garyellow/campus-ai-go/internal/api"
	"github.com/garyellow/campus-ai-go/internal/assistant"
	"github.com/garyellow/campus-ai-go/internal/buildinfo"
	"github.com/garyellow/campus-ai-go/internal/command"
	"github.com/garyellow/campus-ai-go/internal/config"
	"github.com/garyellow/campus-ai-go/internal/corpus"
	"github.com/garyellow/campus-ai-go/internal/genai"
	"github.com/garyellow/campus-ai-go/internal/logger"
	"github.com/garyellow/campus-ai-go/internal/metrics"
	"github.com/garyellow/campus-ai-go/internal/r2client"
	"github.com/garyellow/campus-ai-go/internal/ratelimit"
	"github.com/garyellow/campus-ai-go/internal/retrieval"
	"github.com/garyellow/campus-ai-go/internal/roster"
	"github.com/garyellow/campus-ai-go/internal/sentry"
	"github.com/garyellow/campus-ai-go/internal/storage"
	"github.com/garyellow/campus-ai-go/internal/subjects"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg         *config.Config
	logger      *logger.Logger
	db          *storage.DB
	metrics     *metrics.Metrics
	registry    *prometheus.Registry
	holder      *corpus.Holder
	reloader    *corpus.Reloader
	publisher   *r2client.Publisher // nil unless R2 is configured
	converser   *genai.FallbackConverser
	chatLimiter *ratelimit.KeyedLimiter
	server      *http.Server
	wg          sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(logger.Options{
		Level:            cfg.LogLevel,
		Writer:           os.Stdout,
		BetterStackToken: cfg.BetterStackToken,
	})
	log = log.WithField("service", "campus-ai-go")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context calls pick up request_id, user_email and class_id.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error tracking enabled")
	}

	db, err := storage.New(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	holder := corpus.NewHolder(nil)
	reloader := corpus.NewReloader(cfg.CorpusDir, holder, m)

	var publisher *r2client.Publisher
	if cfg.R2Enabled() {
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2Endpoint(),
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
		})
		if err != nil {
			log.WithError(err).Warn("R2 client initialization failed, corpus pull disabled")
		} else {
			publisher = r2client.NewPublisher(client, cfg.R2CorpusKey)
		}
	}

	var converser *genai.FallbackConverser
	if cfg.HasLLMProvider() {
		llmCfg := buildLLMConfig(cfg)
		if converser, err = genai.NewConverser(ctx, llmCfg, m); err != nil {
			log.WithError(err).Warn("Chat model initialization failed")
		} else if converser != nil {
			log.WithField("models", converser.Len()).
				WithField("primary", converser.Provider().String()+"/"+converser.Model()).
				Info("Chat models enabled")
		}
	} else {
		log.Warn("No LLM provider configured, chat answers will report the model as unavailable")
	}

	chatLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:       "chat",
		Burst:      cfg.ChatRateBurst,
		RefillRate: cfg.ChatRateRefillPerSec,
		Observer:   m,
	})

	resolver := command.NewResolver(db, command.WithObserver(m))
	svc := assistant.NewService(assistant.Config{
		Store:     db,
		Retriever: retrieval.New(holder, m),
		Converser: conversers(converser),
		Resolver:  resolver,
		Observer:  m,
		Timeout:   cfg.ChatTimeout,
	})

	handler := api.New(api.Config{
		Chat:        svc,
		Store:       db,
		Roster:      roster.NewImporter(db),
		Subjects:    subjects.Default(),
		Corpus:      holder,
		Reloader:    reloader,
		ChatLimiter: chatLimiter,
		DataDir:     cfg.DataDir,
		AdminToken:  cfg.AdminToken,
	})

	app := &Application{
		cfg:         cfg,
		logger:      log,
		db:          db,
		metrics:     m,
		registry:    registry,
		holder:      holder,
		reloader:    reloader,
		publisher:   publisher,
		converser:   converser,
		chatLimiter: chatLimiter,
	}
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router(handler),
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// conversers keeps a typed nil pointer out of the interface.
func conversers(c *genai.FallbackConverser) genai.Converser {
	if c == nil {
		return nil
	}
	return c
}

// router builds the gin engine: recovery, request ids, Sentry, security
// headers, CORS and request logging wrap every API route.
func (a *Application) router(handler *api.Handler) *gin.Engine {
	if a.logger.GetLevel() <= slog.LevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(api.RequestIDMiddleware())
	if sentry.IsEnabled() {
		r.Use(api.SentryMiddleware()...)
	}
	r.Use(api.SecurityHeadersMiddleware())
	r.Use(api.CORSMiddleware())
	r.Use(api.LoggingMiddleware(a.logger.WithModule("http")))

	handler.Register(r)
	r.GET("/metrics",
		api.MetricsAuthMiddleware(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	return r
}

// buildLLMConfig creates an LLMConfig from the application config.
func buildLLMConfig(cfg *config.Config) genai.LLMConfig {
	return genai.LLMConfig{
		GeminiAPIKey:      cfg.GeminiAPIKey,
		GeminiChatModels:  genai.ModelChain(cfg.GeminiChatModel, genai.DefaultGeminiChatModels),
		GeminiVisionModel: cfg.GeminiVisionModel,
		GroqAPIKey:        cfg.GroqAPIKey,
		GroqChatModels:    genai.ModelChain(cfg.GroqChatModel, genai.DefaultGroqChatModels),
		Retry:             genai.DefaultRetryConfig(),
	}
}

// Run starts the HTTP server and background jobs.
//
// Shutdown order:
//  1. Receive shutdown signal (SIGINT/SIGTERM)
//  2. Cancel context so the corpus watcher stops
//  3. Wait for background jobs to finish
//  4. Stop the HTTP server, then close the model clients, database and limiters
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.loadCorpus(ctx)
	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// loadCorpus installs the knowledge base before traffic arrives. With R2
// configured the published bundle is pulled first; a failed pull falls back
// to whatever is already on disk. A missing corpus is not fatal: the
// retriever answers with its no-data sentinel until a reload succeeds.
func (a *Application) loadCorpus(ctx context.Context) {
	log := a.logger.WithModule("corpus")
	if a.publisher != nil {
		pullCtx, cancel := context.WithTimeout(ctx, config.R2Transfer)
		c, err := a.publisher.Pull(pullCtx, a.cfg.CorpusDir)
		cancel()
		switch {
		case err == nil:
			log.WithField("segments", c.Len()).Info("Corpus pulled from R2")
		case errors.Is(err, r2client.ErrNotFound):
			log.Info("No corpus bundle published to R2 yet")
		default:
			log.WithError(err).Warn("Corpus pull from R2 failed, using local artifacts")
		}
	}

	n, err := a.reloader.Reload(ctx)
	if err != nil {
		log.WithError(err).WithField("dir", a.cfg.CorpusDir).
			Warn("Corpus not loaded, knowledge base answers disabled until reload")
		return
	}
	log.WithField("segments", n).Info("Corpus ready")
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	if a.cfg.CorpusWatch {
		a.wg.Go(func() {
			a.watchCorpus(ctx)
		})
	}
}

// watchCorpus reloads the knowledge base whenever the builder rewrites it.
func (a *Application) watchCorpus(ctx context.Context) {
	log := a.logger.WithModule("corpus")
	log.Debug("Corpus watcher started")
	defer log.Debug("Corpus watcher stopped")

	// Save installs the corpus directory itself as a link, so only its parent is created here.
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(a.cfg.CorpusDir)), 0o755); err != nil {
		log.WithError(err).Warn("Cannot create corpus parent directory, hot reload disabled")
		return
	}
	if err := a.reloader.Watch(ctx, config.CorpusReloadDebounce); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Corpus watcher failed, hot reload disabled")
	}
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown stops the HTTP server and releases resources. Call it after the
// background jobs have returned.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Closing resources...")

	if a.converser != nil {
		if err := a.converser.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "converser").Error("Component close error")
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	if a.chatLimiter != nil {
		a.chatLimiter.Stop()
	}

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}
