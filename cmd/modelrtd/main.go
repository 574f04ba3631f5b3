package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelrt/internal/adapter"
	"modelrt/internal/common/fsutil"
	"modelrt/internal/config"
	"modelrt/internal/httpapi"
	"modelrt/internal/install"
	"modelrt/internal/manifest"
	"modelrt/internal/scheduler"
	"modelrt/internal/selector"
	"modelrt/pkg/types"
)

// daemonFlags mirrors the teacher's cmd/modeld flag/env-default pattern,
// wired through cobra the way internal/testctl's root command does for
// its own CLI.
type daemonFlags struct {
	configPath string
	addr       string
	cacheDir   string
	manifest   string
	logLevel   string
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	f := &daemonFlags{}
	root := &cobra.Command{
		Use:           "modelrtd",
		Short:         "On-device model lifecycle runtime daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(f)
		},
	}
	root.Flags().StringVar(&f.configPath, "config", envDefault("MODELRT_CONFIG", ""), "Path to config file (yaml/json/toml); overrides --addr, --cache-dir and --manifest when set")
	root.Flags().StringVar(&f.addr, "addr", envDefault("MODELRT_ADDR", ":8080"), "HTTP listen address")
	root.Flags().StringVar(&f.cacheDir, "cache-dir", envDefault("MODELRT_CACHE_DIR", "~/.cache/modelrt"), "Install pipeline cache directory")
	root.Flags().StringVar(&f.manifest, "manifest", envDefault("MODELRT_MANIFEST", "~/.config/modelrt/manifest.json"), "Path to the model manifest document")
	root.Flags().StringVar(&f.logLevel, "log-level", envDefault("MODELRT_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(f *daemonFlags) error {
	cfg := config.Config{
		Addr:                f.addr,
		ManifestPath:        f.manifest,
		CacheDir:            f.cacheDir,
		EvictionThresholdMB: 20000,
		MaxTotalConcurrent:  4,
		DownloadTimeoutSeconds: 300,
	}
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	applyDefaults(&cfg)

	if expanded, err := fsutil.ExpandHome(cfg.CacheDir); err == nil {
		cfg.CacheDir = expanded
	}
	if expanded, err := fsutil.ExpandHome(cfg.ManifestPath); err == nil {
		cfg.ManifestPath = expanded
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(parseZerologLevel(f.logLevel)).
		With().Timestamp().Logger()
	install.SetLogger(logger)
	manifest.SetLogger(logger)
	httpapi.SetLogger(logger)

	if !fsutil.PathExists(cfg.ManifestPath) {
		return fmt.Errorf("manifest path does not exist: %s (set --manifest or MODELRT_MANIFEST)", cfg.ManifestPath)
	}
	store, err := manifest.NewStore(cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	if err := store.WatchReload(); err != nil {
		logger.Warn().Err(err).Msg("modelrtd: manifest hot-reload watch failed to start, continuing without it")
	}
	defer store.Close()

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	evictor, err := install.NewEvictor(cfg.CacheDir, cfg.EvictionThresholdMB*1024*1024)
	if err != nil {
		return fmt.Errorf("build evictor: %w", err)
	}
	pipeline := install.NewPipeline(cfg.CacheDir, install.NewURLSource(cfg.ArtifactBaseURL), evictor)
	pipeline.Client = &http.Client{Timeout: time.Duration(cfg.DownloadTimeoutSeconds) * time.Second}

	gcWatcher, err := install.StartGCWatcher(cfg.CacheDir)
	if err != nil {
		logger.Warn().Err(err).Msg("modelrtd: gc watcher failed to start, continuing with startup-only sweep")
	} else {
		defer gcWatcher.Close()
	}

	queueCaps := make(map[types.TaskType]int, len(cfg.QueueCaps))
	for k, v := range cfg.QueueCaps {
		queueCaps[types.TaskType(k)] = v
	}
	sched := scheduler.New(scheduler.Config{MaxTotalConcurrent: cfg.MaxTotalConcurrent, QueueCaps: queueCaps})

	// No Backend implementations ship in this module (§1: numeric
	// inference is explicitly out of scope, the core only orchestrates
	// installed adapters). A production deployment registers its
	// llama.cpp/ONNX/Whisper/Vosk backends here before ListenAndServe.
	registry := adapter.NewRegistry()

	probeFn := func() (types.CapabilityProbe, error) {
		p, err := selector.ProbeHost(installedBackendVersions(registry), nil)
		if cfg.HostPlatform != "" {
			p.Platform = cfg.HostPlatform
		}
		return p, err
	}

	svc := httpapi.NewService(store.Current(), pipeline, sched, registry, probeFn)
	mux := httpapi.NewMux(svc)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("manifest", cfg.ManifestPath).Msg("modelrtd: listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("modelrtd: graceful HTTP shutdown error")
	}
	if err := sched.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("modelrtd: scheduler shutdown error")
	}
	return nil
}

func applyDefaults(cfg *config.Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "./modelrt-cache"
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = "./manifest.json"
	}
	if cfg.EvictionThresholdMB == 0 {
		cfg.EvictionThresholdMB = 20000
	}
	if cfg.MaxTotalConcurrent == 0 {
		cfg.MaxTotalConcurrent = 4
	}
	if cfg.DownloadTimeoutSeconds == 0 {
		cfg.DownloadTimeoutSeconds = 300
	}
}

func installedBackendVersions(reg *adapter.Registry) map[string]string {
	names := reg.InstalledBackendNames()
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = ""
	}
	return out
}

func parseZerologLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
