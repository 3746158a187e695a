package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleister1102/snapcrawl/internal/config"
	"github.com/aleister1102/snapcrawl/internal/crawler"
	"github.com/aleister1102/snapcrawl/internal/datastore"
	"github.com/aleister1102/snapcrawl/internal/delivery"
	"github.com/aleister1102/snapcrawl/internal/logger"
	"github.com/aleister1102/snapcrawl/internal/render"
	"github.com/aleister1102/snapcrawl/internal/rslimiter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl and snapshot pages starting from a URL",
		Long: `Crawl starts a session at --url (or crawler_config.start_url) and visits
same-origin pages breadth-first within the depth and page budget.

While running, commands are read from standard input:
  pause | resume, stop, status, allow <entry>, disallow <entry>, allowlist

Examples:
  # Crawl two levels deep using an existing Chrome profile for authentication
  snapcrawl crawl -u https://app.example.com/ -d 2 --user-data-dir ~/.config/chromium

  # Deliver captures to a collector, falling back to ./captures
  snapcrawl crawl -u https://app.example.com/ --endpoint https://collector.local/ingest -o ./captures`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("url", "u", "", "Start URL")
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlerMaxDepth, "Maximum link depth from the start page")
	cmd.Flags().IntP("max-pages", "p", config.DefaultCrawlerMaxPages, "Maximum number of pages to visit")
	cmd.Flags().Int("delay", config.DefaultCrawlerInterVisitDelayMs, "Delay between page visits in milliseconds")
	cmd.Flags().StringSlice("allow", nil, "Additional allowlist entries (hostname or /regex/)")
	cmd.Flags().String("endpoint", "", "Remote endpoint receiving captures")
	cmd.Flags().StringP("output", "o", "", "Directory for local capture artifacts")
	cmd.Flags().String("ledger", "", "SQLite delivery ledger path")
	cmd.Flags().String("manifest-dir", "", "Directory for Parquet session manifests")
	cmd.Flags().String("chrome-path", "", "Chrome binary")
	cmd.Flags().String("user-data-dir", "", "Chrome profile directory carrying the authenticated session")
	cmd.Flags().String("control-url", "", "DevTools URL of an already running Chrome")
	cmd.Flags().Bool("headless", config.DefaultBrowserHeadless, "Run Chrome headless")
	cmd.Flags().Duration("status-interval", 30*time.Second, "Interval between status log lines (0 disables)")
	cmd.Flags().Bool("no-stdin", false, "Do not read control commands from standard input")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadGlobalConfig(configPath, bootLogger)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if err := applyCrawlFlags(cmd, cfg); err != nil {
		return err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.CrawlerConfig.StartURL == "" {
		return fmt.Errorf("a start URL is required (--url or crawler_config.start_url)")
	}

	log, err := logger.New(cfg.LogConfig)
	if err != nil {
		return fmt.Errorf("could not initialize logger: %w", err)
	}

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	engine, cleanup, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := engine.Start(ctx, cfg.CrawlerConfig.StartURL); err != nil {
		return fmt.Errorf("could not start crawl: %w", err)
	}

	if noStdin, _ := cmd.Flags().GetBool("no-stdin"); !noStdin {
		go readCommands(ctx, cmd.InOrStdin(), engine, cmd.OutOrStdout(), log)
	}

	interval, _ := cmd.Flags().GetDuration("status-interval")
	superviseSession(ctx, engine, interval, log)

	status := engine.Status()
	log.Info().
		Str("session_id", status.SessionID).
		Int("visited", status.Visited).
		Dur("elapsed", status.Elapsed).
		Msg("Crawl finished")
	return nil
}

// superviseSession logs status periodically and turns a signal into Stop until the session is idle
func superviseSession(ctx context.Context, engine *crawler.Engine, interval time.Duration, log zerolog.Logger) {
	done := make(chan struct{})
	go func() {
		_ = engine.Wait(context.Background())
		close(done)
	}()

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	signalled := ctx.Done()
	for {
		select {
		case <-done:
			return
		case <-signalled:
			log.Info().Msg("Signal received, stopping crawl")
			_ = engine.Stop()
			signalled = nil
		case <-tick:
			log.Info().Msg(formatStatus(engine.Status()))
		}
	}
}

// buildEngine wires renderer, delivery, persistence and the memory guard from cfg
func buildEngine(cfg *config.GlobalConfig, log zerolog.Logger) (*crawler.Engine, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	renderer := render.NewRodRenderer(cfg.HeadlessBrowserConfig, log)
	if err := renderer.Start(); err != nil {
		return nil, cleanup, fmt.Errorf("could not start browser: %w", err)
	}
	closers = append(closers, func() { _ = renderer.Close() })

	pipelineBuilder := delivery.NewPipelineBuilder(log).
		WithDeliveryConfig(cfg.DeliveryConfig).
		WithOutputDir(cfg.StorageConfig.OutputDir).
		WithUserAgent(cfg.HeadlessBrowserConfig.UserAgent)

	engineBuilder := crawler.NewEngineBuilder(log).
		WithCrawlerConfig(cfg.CrawlerConfig).
		WithQuiescenceConfig(cfg.QuiescenceConfig).
		WithRenderer(renderer).
		WithMemoryGuard(rslimiter.NewMemoryGuard(cfg.ResourceLimiterConfig, nil, log))

	if cfg.StorageConfig.LedgerPath != "" {
		ledger, err := datastore.NewLedger(cfg.StorageConfig.LedgerPath, log)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("could not open delivery ledger: %w", err)
		}
		closers = append(closers, func() { _ = ledger.Close() })
		pipelineBuilder = pipelineBuilder.WithRecorder(ledger)
		engineBuilder = engineBuilder.WithSessionRecorder(ledger)
	}

	if cfg.StorageConfig.ManifestDir != "" {
		engineBuilder = engineBuilder.WithManifestSink(
			datastore.NewManifestWriter(cfg.StorageConfig.ManifestDir, cfg.StorageConfig.CompressionCodec, log),
		)
	}

	pipeline, err := pipelineBuilder.Build()
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("could not build delivery pipeline: %w", err)
	}

	engine, err := engineBuilder.WithDeliverer(pipeline).Build()
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("could not build crawl engine: %w", err)
	}
	return engine, cleanup, nil
}

// applyCrawlFlags overrides config values with flags the user set explicitly
func applyCrawlFlags(cmd *cobra.Command, cfg *config.GlobalConfig) error {
	flags := cmd.Flags()

	stringOverrides := map[string]*string{
		"url":           &cfg.CrawlerConfig.StartURL,
		"endpoint":      &cfg.DeliveryConfig.Endpoint,
		"output":        &cfg.StorageConfig.OutputDir,
		"ledger":        &cfg.StorageConfig.LedgerPath,
		"manifest-dir":  &cfg.StorageConfig.ManifestDir,
		"chrome-path":   &cfg.HeadlessBrowserConfig.ChromePath,
		"user-data-dir": &cfg.HeadlessBrowserConfig.UserDataDir,
		"control-url":   &cfg.HeadlessBrowserConfig.ControlURL,
	}
	for name, target := range stringOverrides {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = value
	}

	intOverrides := map[string]*int{
		"depth":     &cfg.CrawlerConfig.MaxDepth,
		"max-pages": &cfg.CrawlerConfig.MaxPages,
		"delay":     &cfg.CrawlerConfig.InterVisitDelayMs,
	}
	for name, target := range intOverrides {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*target = value
	}

	if flags.Changed("headless") {
		headless, err := flags.GetBool("headless")
		if err != nil {
			return err
		}
		cfg.HeadlessBrowserConfig.Headless = headless
	}

	if flags.Changed("allow") {
		entries, err := flags.GetStringSlice("allow")
		if err != nil {
			return err
		}
		cfg.CrawlerConfig.Allowlist = append(cfg.CrawlerConfig.Allowlist, entries...)
	}
	return nil
}
