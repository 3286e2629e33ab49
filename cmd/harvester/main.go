// Command harvester runs the full pipeline: read links files, fetch feeds
// and pages, and write the job corpus as JSON (plus the optional sqlite
// catalog). With -every it keeps re-running on an interval until
// interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"avature-harvest/internal/config"
	"avature-harvest/internal/corpus"
	"avature-harvest/internal/fetch"
	"avature-harvest/internal/pipeline"
	"avature-harvest/internal/scheduler"
	"avature-harvest/internal/store"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	var (
		cfgPath  = flag.String("config", "", "config file (default: <data>/config.yml, created on first run)")
		dataDir  = flag.String("data", "", "data directory (overrides HARVEST_DATA_DIR and app.data_dir)")
		outPath  = flag.String("out", "", "output JSON path (overrides output.json_path)")
		dbPath   = flag.String("db", "", "sqlite catalog path (overrides output.sqlite_path)")
		noFeeds  = flag.Bool("no-feeds", false, "skip the feed stage")
		noPages  = flag.Bool("no-pages", false, "skip page extraction")
		probeAPI = flag.Bool("probe-api", false, "also probe each site's search API")
		maxPages = flag.Int("max-pages", 0, "cap on pages fetched per run (0 = config value)")
		every    = flag.Duration("every", 0, "re-run on this interval until interrupted (0 = single run)")
	)
	var linkFiles stringList
	flag.Var(&linkFiles, "links", "links file (repeatable; default: initial_links.txt, all_links.txt, career_links.txt under the data dir)")
	flag.Parse()

	config.LoadDotenv()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// Data dir: flag beats env beats the built-in default.
	dir := *dataDir
	if dir == "" {
		dir = os.Getenv("HARVEST_DATA_DIR")
	}
	if dir == "" {
		dir = config.Default().App.DataDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Fatal("data dir", zap.String("dir", dir), zap.Error(err))
	}

	// One harvester per data dir; concurrent runs would race on the output
	// files and hammer the sites twice.
	lock := flock.New(filepath.Join(dir, "harvester.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		logger.Fatal("lock", zap.Error(err))
	}
	if !locked {
		logger.Fatal("another harvester is running against this data dir", zap.String("dir", dir))
	}
	defer lock.Unlock()

	userCfg := *cfgPath
	if userCfg == "" {
		userCfg, err = config.EnsureUserConfig(dir, filepath.Join("config", "config.yml"))
		if err != nil {
			logger.Fatal("config bootstrap", zap.Error(err))
		}
	}
	cfg, err := config.Load(userCfg)
	if err != nil {
		logger.Fatal("config load", zap.String("path", userCfg), zap.Error(err))
	}
	config.OverlayEnv(&cfg)
	cfg.App.DataDir = dir

	if *outPath != "" {
		cfg.Output.JSONPath = *outPath
	}
	if *dbPath != "" {
		cfg.Output.SQLitePath = *dbPath
	}
	if *noFeeds {
		cfg.Pipeline.FetchFeeds = false
	}
	if *noPages {
		cfg.Pipeline.FetchPages = false
	}
	if *probeAPI {
		cfg.Pipeline.ProbeSearchAPI = true
	}
	if *maxPages > 0 {
		cfg.Pipeline.MaxPages = *maxPages
	}

	cfg, val := config.NormalizeAndValidate(cfg)
	for _, w := range val.Warnings {
		logger.Warn("config: " + w)
	}
	if !val.OK() {
		for _, e := range val.Errors {
			logger.Error("config: " + e)
		}
		logger.Fatal("config invalid", zap.String("path", userCfg))
	}

	client := fetch.New(fetch.Config{
		Timeout:           time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		UserAgent:         cfg.HTTP.UserAgent,
		MaxBodyBytes:      int64(cfg.HTTP.MaxBodyKB) << 10,
		RequestsPerSecond: cfg.Politeness.RequestsPerSecond,
		Burst:             cfg.Politeness.Burst,
	})
	pipe := pipeline.New(client, logger, pipeline.Options{
		FetchFeeds:          cfg.Pipeline.FetchFeeds,
		FetchPages:          cfg.Pipeline.FetchPages,
		ProbeSearchAPI:      cfg.Pipeline.ProbeSearchAPI,
		MaxPages:            cfg.Pipeline.MaxPages,
		MaxPerListing:       cfg.Pipeline.MaxPerListing,
		Parallelism:         cfg.Pipeline.Parallelism,
		MinDescriptionChars: cfg.Pipeline.MinDescriptionChars,
		MaxDescriptionChars: cfg.Pipeline.MaxDescriptionChars,
	})

	inputs := []string(linkFiles)
	if len(inputs) == 0 {
		for _, name := range []string{"initial_links.txt", "all_links.txt", "career_links.txt"} {
			inputs = append(inputs, filepath.Join(dir, name))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context) error {
		return runOnce(ctx, pipe, cfg, inputs, logger)
	}

	if *every > 0 {
		scheduler.Every(ctx, *every, "harvest", logger, run)
		logger.Info("stopping")
		return
	}
	if err := run(ctx); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if config.Debug() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runOnce(ctx context.Context, pipe *pipeline.Pipeline, cfg config.Config, inputs []string, logger *zap.Logger) error {
	start := time.Now()

	links, err := pipeline.LoadLinks(inputs)
	if err != nil {
		return err
	}

	crps, _, err := pipe.Run(ctx, links)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoLinks) {
			return fmt.Errorf("no usable links in %s", strings.Join(inputs, ", "))
		}
		return err
	}

	outPath := cfg.Output.JSONPath
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(cfg.App.DataDir, outPath)
	}
	if err := crps.WriteFile(outPath); err != nil {
		return err
	}
	logger.Info("corpus written",
		zap.String("path", outPath),
		zap.Int("records", crps.Len()),
		zap.Duration("took", time.Since(start)))

	if cfg.Output.SQLitePath != "" {
		if err := updateCatalog(ctx, cfg, crps, logger); err != nil {
			// The JSON output already landed; a catalog failure should not
			// fail the run.
			logger.Error("catalog update failed", zap.Error(err))
		}
	}
	return nil
}

func updateCatalog(ctx context.Context, cfg config.Config, crps *corpus.Corpus, logger *zap.Logger) error {
	path := cfg.Output.SQLitePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.App.DataDir, path)
	}
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		return err
	}
	added, updated, err := store.UpsertRecords(ctx, db.Pool, crps.Snapshot(), time.Now().UTC())
	if err != nil {
		return err
	}
	total, err := store.CountJobs(ctx, db.Pool)
	if err != nil {
		return err
	}
	logger.Info("catalog updated",
		zap.String("path", path),
		zap.Int("added", added),
		zap.Int("updated", updated),
		zap.Int("total", total))
	return nil
}
