package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/alnah/go-photocal"
	"github.com/alnah/go-photocal/internal/config"
	"github.com/alnah/go-photocal/internal/dateutil"
	"github.com/alnah/go-photocal/internal/fileutil"
	"github.com/alnah/go-photocal/internal/hints"
	"github.com/alnah/go-photocal/internal/logging"
	"github.com/alnah/go-photocal/internal/server"
)

// runServe starts the HTTP service and blocks until ctx is done.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if flags.help {
		printServeUsage(env.Stdout)
		return nil
	}
	if flags.version {
		fmt.Fprintf(env.Stdout, "photocal %s\n", Version)
		return nil
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, positional[0])
	}

	warnUnknownEnvVars(env.Stderr)
	envCfg := loadEnvConfig()
	warnInvalidEnvVars(env.Stderr, envCfg)

	cfg, err := resolveConfig(flags, envCfg)
	if err != nil {
		return err
	}

	if flags.printConfig {
		out, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(out)
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	defer func() { _ = logger.Sync() }()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	undo, _ := maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf))
	defer undo()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	port := strconv.Itoa(cfg.Server.Port)
	if err := a.server.ListenAndServe(ctx); err != nil {
		if errors.Is(err, server.ErrListen) {
			return fmt.Errorf("%w%s", err, hints.ForPortInUse(port))
		}
		return err
	}
	logger.Info("stopped")
	return nil
}

// resolveConfig layers defaults, config file, environment and flags.
func resolveConfig(flags *serveFlags, env *envConfig) (*config.Config, error) {
	name := flags.common.config
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(searchedConfigPaths(name)))
			}
			return nil, err
		}
		cfg = loaded
	}

	applyEnvConfig(env, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// searchedConfigPaths lists where a config name is looked up, for hints.
// Explicit paths are not searched.
func searchedConfigPaths(name string) []string {
	if strings.ContainsAny(name, "/\\") {
		return nil
	}
	return []string{name + ".yaml", "~/.config/photocal/" + name + ".yaml"}
}

// mergeFlags overlays flags given on the command line.
func mergeFlags(flags *serveFlags, cfg *config.Config) {
	changed := flags.changed
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if changed("port") {
		cfg.Server.Port = flags.port
	}
	if changed("asset-dir") {
		cfg.Assets.Dir = flags.assetDir
	}
	if changed("static-dir") {
		cfg.Server.StaticDir = flags.staticDir
	}
	if changed("workers") {
		cfg.Render.Workers = flags.workers
	}
	if changed("timeout") {
		cfg.Render.Timeout = flags.timeout
	}
	if changed("strict-export") {
		cfg.Render.StrictExport = flags.strictExport
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	if flags.common.verbose {
		cfg.Log.Level = "debug"
	}
}

// app is the wired service: pipeline, renderer pool and HTTP front end.
type app struct {
	server *server.Server
	pool   *photocal.RendererPool
	logger *zap.Logger
}

// newApp builds every component from a validated config.
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	renderTimeout, err := cfg.RenderTimeout()
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := cfg.ShutdownTimeout()
	if err != nil {
		return nil, err
	}
	weekStart, err := dateutil.ParseWeekday(cfg.Calendar.WeekStart)
	if err != nil {
		return nil, err
	}

	assetDir, err := filepath.Abs(cfg.Assets.Dir)
	if err != nil || !fileutil.DirExists(assetDir) {
		return nil, fmt.Errorf("%w: %s%s", photocal.ErrInvalidAssetDir, cfg.Assets.Dir, hints.ForAssetDir())
	}

	compiler, err := photocal.NewCompiler(photocal.CompilerConfig{
		AssetDir: assetDir,
		Calendar: photocal.CalendarSettings{
			Year:          cfg.Calendar.Year,
			HeadingFormat: cfg.Calendar.HeadingFormat,
			WeekStart:     weekStart,
		},
	})
	if err != nil {
		return nil, err
	}

	page := &photocal.PageSettings{
		Size:        cfg.Render.Page.Size,
		Orientation: cfg.Render.Page.Orientation,
		Margin:      cfg.Render.Page.Margin,
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	policy := photocal.ExportLenient
	if cfg.Render.StrictExport {
		policy = photocal.ExportStrict
	}

	workers := photocal.ResolvePoolSize(cfg.Render.Workers)
	pool := photocal.NewRendererPool(workers, renderTimeout)
	exporter := photocal.NewExporter(pool, photocal.ExporterConfig{Page: page, Timeout: renderTimeout})
	metrics := server.NewMetrics()

	maker := photocal.NewMaker(compiler, exporter,
		photocal.WithLogger(logger),
		photocal.WithObserver(server.StateObserver(logger, metrics)),
		photocal.WithAssetDir(assetDir),
		photocal.WithExportPolicy(policy),
		photocal.WithWorkers(workers),
	)

	if !fileutil.DirExists(cfg.Server.StaticDir) {
		logger.Warn("static directory missing, / will answer 404", zap.String("dir", cfg.Server.StaticDir))
	}

	srv := server.New(maker, server.Config{
		Addr:            ":" + strconv.Itoa(cfg.Server.Port),
		StaticDir:       cfg.Server.StaticDir,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		ShutdownTimeout: shutdownTimeout,
	}, server.WithLogger(logger), server.WithMetrics(metrics))

	logger.Info("configured",
		zap.Int("port", cfg.Server.Port),
		zap.String("asset_dir", assetDir),
		zap.Int("workers", workers),
		zap.Duration("render_timeout", renderTimeout),
		zap.Stringer("export_policy", policy),
		zap.String("version", Version))

	return &app{server: srv, pool: pool, logger: logger}, nil
}

// close shuts the renderer pool down, killing any browser it started.
func (a *app) close() {
	done := make(chan error, 1)
	go func() { done <- a.pool.Close() }()

	select {
	case err := <-done:
		if err != nil {
			a.logger.Warn("closing renderers failed", zap.Error(err))
		}
	case <-time.After(10 * time.Second):
		a.logger.Warn("closing renderers timed out")
	}
}
