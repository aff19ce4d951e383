package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reviewpulse/go-collect-reviews/collector"
	"github.com/reviewpulse/go-collect-reviews/config"
	"github.com/reviewpulse/go-collect-reviews/export"
	"github.com/reviewpulse/go-collect-reviews/fetcher"
	"github.com/reviewpulse/go-collect-reviews/models"
)

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		os.Exit(1)
	}

	productURL := flag.String("url", "", "Product page URL to resolve the identity from")
	asin := flag.String("asin", "", "Product identifier (skips page resolution)")
	marketplace := flag.String("marketplace", cfg.Marketplace, "Marketplace code: US, UK, DE, FR, or JP")
	stars := flag.String("stars", joinInts(cfg.Stars), "Star segments to collect, comma-separated")
	pages := flag.Int("pages", cfg.PagesPerStar, "Maximum pages per star segment")
	speed := flag.String("speed", cfg.SpeedMode, "Pacing mode: fast or stable")
	mode := flag.String("mode", cfg.FetchMode, "Fetch mode: http or browser")
	outputFile := flag.String("output", cfg.OutputFile, "Output file path")
	outputFormat := flag.String("format", cfg.OutputFormat, "Output format: csv, json, or dual")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", cfg.Verbose, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	starValues, err := parseStars(*stars)
	if err != nil {
		slog.Error("invalid stars flag", slog.Any("error", err))
		os.Exit(1)
	}

	cfg.Marketplace = strings.ToUpper(*marketplace)
	cfg.Stars = starValues
	cfg.PagesPerStar = *pages
	cfg.SpeedMode = strings.ToLower(*speed)
	cfg.FetchMode = strings.ToLower(*mode)
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if *productURL == "" && *asin == "" {
		slog.Error("either -url or -asin is required")
		os.Exit(1)
	}
	if *asin != "" && !models.ValidProductID(*asin) {
		slog.Error("invalid product identifier", slog.String("asin", *asin))
		os.Exit(1)
	}

	var pf fetcher.PageFetcher
	if cfg.FetchMode == config.FetchModeHTTP {
		pf = fetcher.NewHTTPFetcher(cfg)
	} else {
		pf = fetcher.NewBrowserFetcher(cfg)
	}

	metrics := collector.NewMetrics()
	reporter := collector.NewChannelReporter(64)
	engine := collector.NewEngine(cfg, pf, reporter, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	engineCtx, cancelEngine := context.WithCancel(context.Background())
	engineDone := make(chan struct{})
	go func() {
		engine.Run(engineCtx)
		close(engineDone)
	}()

	start := models.StartCollectionCommand{
		ProductURL: *productURL,
		Config:     cfg.CollectionConfig(),
	}
	if *asin != "" {
		start.Identity = &models.ProductIdentity{
			ID:          *asin,
			Marketplace: cfg.MarketplaceValue(),
		}
	}
	engine.Submit(start)

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing the in-flight page")
		engine.Submit(models.StopCommand{})
	}()

	startTime := time.Now()
	done := consumeEvents(reporter)

	cancelEngine()
	<-engineDone

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if len(done.Records) > 0 {
		writer, err := export.ForFormat(cfg.OutputFormat, cfg.OutputFile)
		if err != nil {
			slog.Error("creating writer", slog.Any("error", err))
			os.Exit(1)
		}
		if err := writer.Write(done.Records); err != nil {
			slog.Error("writing output", slog.Any("error", err))
			os.Exit(1)
		}
		if err := writer.Validate(); err != nil {
			slog.Error("output validation failed", slog.Any("error", err))
			os.Exit(1)
		}
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
			os.Exit(1)
		}
	}

	printSummary(done, engine.Results(), time.Since(startTime), cfg.OutputFile)

	if !done.Success {
		os.Exit(1)
	}
}

// consumeEvents drains reporter channels until the completion event lands.
func consumeEvents(reporter *collector.ChannelReporter) models.CompletionEvent {
	for {
		select {
		case e := <-reporter.ProgressCh:
			slog.Info("progress",
				slog.Int("star", e.Star),
				slog.Int("page", e.Page),
				slog.Int("max_pages", e.MaxPages),
				slog.Int("total_reviews", e.TotalReviews),
				slog.String("percent", fmt.Sprintf("%.0f%%", e.Percent)),
			)
		case e := <-reporter.FailureCh:
			slog.Warn("collection error", slog.String("message", e.Message))
		case done := <-reporter.CompletionCh:
			return done
		}
	}
}

func parseStars(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("star %q is not a number", part)
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no star values given")
	}
	return values, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func printSummary(done models.CompletionEvent, results []models.CollectionResult, duration time.Duration, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Collection complete")

	fmt.Printf("  Reviews:       %d\n", done.ReviewCount)
	if len(results) > 0 {
		last := results[len(results)-1]
		fmt.Printf("  State:         %s\n", last.State)
		fmt.Printf("  Pages fetched: %d\n", last.PagesFetched)
		fmt.Printf("  Retries:       %d\n", last.RetryCount)
		if len(last.ErrorsByType) > 0 {
			fmt.Printf("  Error types:   %v\n", last.ErrorsByType)
		}
	}
	if done.Snapshot != nil && done.Snapshot.Title != "" {
		fmt.Printf("  Product:       %s\n", done.Snapshot.Title)
	}
	if done.Error != "" {
		fmt.Printf("  Error:         %s\n", done.Error)
	}
	fmt.Printf("  Duration:      %v\n", duration)
	if done.ReviewCount > 0 {
		fmt.Printf("  Output file:   %s\n", outputFile)
	}
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
