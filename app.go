package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"seotools/api"
	"seotools/core"
	"seotools/db"
	"seotools/domaininfo"
	"seotools/fetch"
	"seotools/imaging"
	"seotools/llm"
	"seotools/logging"
	"seotools/ocrprocessor"
	"seotools/plagiarism"
	"seotools/shutdown"
)

// usageBufferSize is the number of usage rows that may queue before inserts
// fall back to running inline.
const usageBufferSize = 512

// application is everything the serve command starts and stops.
type application struct {
	cfg      *core.Config
	logger   *logging.Logger
	database *db.Database
	writer   *db.AsyncWriter[db.UsageRecord]
	usage    *db.UsageRepository
	outputs  *imaging.Store
	server   *api.Server
}

// newApplication opens the database and builds the HTTP server. Nothing is
// listening yet.
func newApplication(cfg *core.Config, logger *logging.Logger) (*application, error) {
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, core.ErrDatabaseUnavailable(cfg.DatabasePath, err)
	}

	dbLogger := logger.Named("db")
	writer := db.NewUsageWriter(database, usageBufferSize, func(rec db.UsageRecord, err error) {
		dbLogger.Warn("usage insert failed",
			zap.String("tool", rec.Tool),
			zap.String("request_id", rec.RequestID),
			zap.Error(err),
		)
	})
	writer.Start()
	usage := db.NewUsageRepository(database, writer)

	app := &application{
		cfg:      cfg,
		logger:   logger,
		database: database,
		writer:   writer,
		usage:    usage,
	}

	providers, err := buildProviders(cfg, logger)
	if err != nil {
		app.close()
		return nil, err
	}
	app.outputs, err = imaging.NewStore(cfg.OutputDir, cfg.PublicBaseURL)
	if err != nil {
		app.close()
		return nil, err
	}

	hash, err := adminHash(cfg)
	if err != nil {
		app.close()
		return nil, err
	}

	serverCfg := api.DefaultConfig()
	serverCfg.Addr = cfg.Addr()
	serverCfg.CORSOrigin = cfg.CORSOrigin
	serverCfg.TrustProxy = cfg.TrustProxy
	serverCfg.RateLimitMax = cfg.RateLimitMax
	serverCfg.RateLimitWindow = cfg.RateLimitWindow
	serverCfg.OutputDir = cfg.OutputDir
	serverCfg.AdminPasswordHash = hash
	serverCfg.ShutdownTimeout = cfg.ShutdownTimeout
	serverCfg.Version = core.Version

	server, err := api.NewServer(serverCfg, api.Deps{
		Providers: providers,
		Usage:     usage,
		Health:    database,
		Logger:    logger,
	})
	if err != nil {
		app.close()
		return nil, err
	}
	app.server = server
	return app, nil
}

// buildProviders picks a backend for each collaborator tool: live services
// when credentials are configured, the deterministic stand-ins otherwise.
func buildProviders(cfg *core.Config, logger *logging.Logger) (api.Providers, error) {
	httpClient := core.NewHTTPClient(cfg.UpstreamTimeout)
	fetcher := fetch.New(httpClient, cfg.MaxImageBytes, fetch.WithPrivateNetworks(cfg.AllowPrivateFetch))

	store, err := imaging.NewStore(cfg.OutputDir, cfg.PublicBaseURL)
	if err != nil {
		return api.Providers{}, err
	}

	var recognizer ocrprocessor.Recognizer = ocrprocessor.StaticOCR{}
	if cfg.GoogleVisionAPIKey != "" {
		vision, err := ocrprocessor.NewVisionClient(cfg.GoogleVisionAPIKey, httpClient, logger,
			ocrprocessor.DefaultVisionClientConfig())
		if err != nil {
			return api.Providers{}, core.ErrInvalidValue("GOOGLE_VISION_API_KEY",
				ocrprocessor.MaskAPIKey(cfg.GoogleVisionAPIKey), err.Error())
		}
		logger.Info("Google Vision OCR enabled", zap.String("credential", vision.MaskedAPIKey()))
		recognizer = vision
	}

	var rewriter api.Rewriter = llm.PrefixRewriter{}
	if cfg.RewriteEnabled() {
		client := llm.NewClient(llm.ClientConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.RewriteLLMURL,
			HTTPClient: httpClient,
		})
		rewriter = llm.NewOpenAIRewriter(client, cfg.RewriteModel)
	}

	var domains api.DomainInfo = domaininfo.StaticInfo{}
	if cfg.DomainProvider == "net" {
		domains = domaininfo.NewNetInfo(net.DefaultResolver,
			domaininfo.NewRDAPClient(cfg.RDAPURL, httpClient), logger)
	}

	return api.Providers{
		Plagiarism: plagiarism.NewRandomChecker(nil),
		Rewriter:   rewriter,
		Text:       ocrprocessor.NewDocumentExtractor(fetcher, recognizer),
		Images:     imaging.NewProcessor(fetcher, store, logger),
		Domains:    domains,
	}, nil
}

// adminHash returns the bcrypt hash guarding the admin report. A plaintext
// ADMIN_PASSWORD is hashed at startup; an explicit hash wins.
func adminHash(cfg *core.Config) (string, error) {
	if cfg.AdminPasswordHash != "" {
		return cfg.AdminPasswordHash, nil
	}
	if cfg.AdminPassword == "" {
		return "", nil
	}
	hash, err := api.HashPassword(cfg.AdminPassword)
	if err != nil {
		return "", core.ErrInvalidValue("ADMIN_PASSWORD", "***", err.Error())
	}
	return hash, nil
}

// registerShutdown orders teardown: stop taking requests, drain queued
// usage rows, close the database, then sweep half-written outputs.
func (a *application) registerShutdown(m *shutdown.Manager) {
	m.Register("http", shutdown.PriorityServer, a.server.Shutdown)
	m.Register("usage-writer", shutdown.PriorityWorkers, func(ctx context.Context) error {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if !a.writer.Stop(timeout) {
			return fmt.Errorf("usage writer still had %d rows queued", a.writer.Pending())
		}
		a.logger.Info("usage writer drained",
			zap.Int64("processed", a.writer.Processed()),
			zap.Int64("failed", a.writer.Failed()))
		return nil
	})
	m.Register("database", shutdown.PriorityDatabase, func(ctx context.Context) error {
		return a.database.Close()
	})
	m.Register("output-temp-files", shutdown.PriorityFiles,
		shutdown.CleanupTempFiles(a.logger.Zap(), a.cfg.OutputDir, imaging.TempPrefix))

	a.logger.Debug("shutdown hooks registered", zap.Strings("order", m.Handlers()))
}

// close releases what newApplication opened when it fails part way.
func (a *application) close() {
	a.writer.Stop(5 * time.Second)
	a.database.Close()
}

// serve runs until ctx is cancelled, a signal arrives (when handleSignals
// is set) or the listener fails, then shuts everything down.
func serve(ctx context.Context, cfg *core.Config, logger *logging.Logger, handleSignals bool) error {
	app, err := newApplication(cfg, logger)
	if err != nil {
		return err
	}

	m := shutdown.NewManager(logger.Zap(), shutdown.WithTimeout(cfg.ShutdownTimeout))
	app.registerShutdown(m)
	if handleSignals {
		m.Start()
	}
	go func() {
		select {
		case <-ctx.Done():
			m.Trigger()
		case <-m.Context().Done():
		}
	}()

	pruneLogger := logger.Named("retention")
	db.StartRetention(m.Context(), app.usage, db.RetentionConfig{
		Retention: cfg.Retention(),
		OnPrune: func(deleted int64, err error) {
			if err != nil {
				pruneLogger.Warn("usage pruning failed", zap.Error(err))
				return
			}
			if deleted > 0 {
				pruneLogger.Info("pruned old usage rows", zap.Int64("deleted", deleted))
			}
		},
		Files:         app.outputs,
		FileRetention: cfg.OutputRetention(),
		OnFilePrune: func(deleted int64, err error) {
			if err != nil {
				pruneLogger.Warn("output sweep failed", zap.Error(err))
				return
			}
			if deleted > 0 {
				pruneLogger.Info("deleted expired output files", zap.Int64("deleted", deleted))
			}
		},
	})

	logger.Info("Configuration loaded",
		zap.String("addr", cfg.Addr()),
		zap.String("database", cfg.DatabasePath),
		zap.String("output_dir", cfg.OutputDir),
		zap.String("domain_provider", cfg.DomainProvider),
		zap.Bool("llm_rewrite", cfg.RewriteEnabled()),
		zap.Bool("vision_ocr", cfg.GoogleVisionAPIKey != ""),
		zap.Bool("admin", app.server.AdminEnabled()),
		zap.Bool("trust_proxy", cfg.TrustProxy),
		zap.Bool("allow_private_fetch", cfg.AllowPrivateFetch),
		zap.Duration("output_retention", cfg.OutputRetention()),
		zap.String("log_file", logger.LogFilePath()),
		zap.Bool("dev_mode", logger.IsDevelopment()),
		zap.String("version", core.GetVersionInfo()),
	)

	listenErr := make(chan error, 1)
	go func() {
		err := app.server.Start(m.Context())
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		listenErr <- err
		m.Trigger()
	}()

	<-m.Context().Done()
	shutdownErr := m.Shutdown()
	if err := <-listenErr; err != nil {
		return err
	}
	return shutdownErr
}

// healthz is used by the check command against a running server.
func healthz(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned %s", resp.Status)
	}
	return nil
}
