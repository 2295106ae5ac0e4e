package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"lipsync/cfg"
	"lipsync/db"
	"lipsync/internal/app/api"
	"lipsync/internal/app/lipsync"
	"lipsync/internal/app/monitoring"
	"lipsync/pkg/alignhttp"
	"lipsync/pkg/ffmpeg"
	immediateticker "lipsync/pkg/immediate_ticker"
	"lipsync/pkg/mfa"
	"lipsync/pkg/s3client"
	"lipsync/pkg/viseme"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatal("failed to load .env file: ", err)
	}

	var cfgPath string
	flag.StringVar(&cfgPath, "cfg-path", cfg.DefaultPath(), "path to config file")
	flag.Parse()

	cfg, err := cfg.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	slog.SetDefault(logger)

	createDbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := db.New(createDbCtx, &cfg.DB)
	if err != nil {
		log.Fatal("failed to init db: ", err)
	}
	defer db.Close()

	langs, err := cfgLanguages(cfg, logger.WithGroup("languages"))
	if err != nil {
		log.Fatal("failed to load viseme mappings: ", err)
	}

	httpClient := &http.Client{
		Timeout: cfg.Api.Timeout,
	}

	var aligner lipsync.Aligner
	switch cfg.Aligner.Backend {
	case "http":
		aligner = alignhttp.New(httpClient, &cfg.Aligner.HTTP)
	default:
		aligner = mfa.New(&cfg.Aligner.MFA, logger.WithGroup("mfa"))
	}

	ffmpeg := ffmpeg.New(&cfg.Ffmpeg)
	if err := os.MkdirAll(ffmpeg.TmpDir(), 0o755); err != nil {
		log.Fatal("failed to create tmp dir: ", err)
	}

	var archive lipsync.Archive
	if cfg.S3.Enabled() {
		s3, err := s3client.New(&cfg.S3)
		if err != nil {
			log.Fatal("failed to init s3 client: ", err)
		}
		archive = s3
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	monitoring.RegisterMetrics(reg)

	builder := viseme.NewBuilder(langs, logger.WithGroup("viseme"))

	service := lipsync.NewService(logger.WithGroup("lipsync"), builder, aligner, db, archive, ffmpeg, ffmpeg.TmpDir())

	api := api.NewAPI(&cfg.Api, logger.WithGroup("api"), service, db, reg)

	router := api.NewRouter()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	srv := &http.Server{
		Addr:           ":" + strconv.Itoa(cfg.Api.Port),
		Handler:        http.TimeoutHandler(router, cfg.Api.Timeout, `{"error": "request timed out"}`),
		MaxHeaderBytes: 1 << 20,
	}

	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		logger.Info("Starting server", "port", cfg.Api.Port, "languages", langs.Codes(), "aligner", cfg.Aligner.Backend)

		if err := srv.ListenAndServe(); err != nil {
			logger.Error("ListenAndServe finished", "err", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := immediateticker.New(cfg.Cleanup.Interval)

	loop:
		for {
			select {
			case <-ticker.C:
				cleanup(ctx, logger.WithGroup("cleanup"), &cfg.Cleanup, service, db)
			case <-ctx.Done():
				ticker.Stop()
				break loop
			}
		}
	}()

	select {
	case <-ctx.Done():
	case <-stop:
		logger.Info("Interrupt triggerred")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "err", err)
	}
	cancel()

	wg.Wait()
}

func cfgLanguages(c *cfg.Config, logger *slog.Logger) (*viseme.Languages, error) {
	return cfg.BuildLanguages(c.Languages, logger)
}

func cleanup(ctx context.Context, logger *slog.Logger, c *cfg.CleanupConfig, service *lipsync.Service, db *db.DB) {
	if n, err := service.SweepStale(c.MaxAge); err != nil {
		logger.Error("failed to sweep work dirs", "err", err)
	} else if n > 0 {
		logger.Info("Removed stale work dirs", "count", n)
	}

	now := time.Now()

	if n, err := db.CleanAlignments(ctx, now.Add(-c.CacheTTL)); err != nil {
		logger.Error("failed to clean alignment cache", "err", err)
	} else if n > 0 {
		logger.Info("Expired cached alignments", "count", n)
	}

	if n, err := db.CleanRequests(ctx, now.Add(-c.MaxAge)); err != nil {
		logger.Error("failed to clean request log", "err", err)
	} else if n > 0 {
		logger.Info("Removed old request records", "count", n)
	}
}
