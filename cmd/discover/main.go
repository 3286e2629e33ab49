// Command discover finds tenant career sites on the vendor platform via
// certificate transparency logs and web search, then writes the links files
// the harvester reads: career_links.txt (live entry pages) and
// all_links.txt (entry pages plus job links pulled from site feeds).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"avature-harvest/internal/config"
	"avature-harvest/internal/discover"
	"avature-harvest/internal/fetch"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "config file (default: <data>/config.yml, created on first run)")
		dataDir    = flag.String("data", "", "data directory (overrides HARVEST_DATA_DIR and app.data_dir)")
		vendor     = flag.String("vendor", "", "vendor platform domain (overrides discovery.vendor_domain)")
		noValidate = flag.Bool("no-validate", false, "skip liveness checks on discovered sites")
		noFeeds    = flag.Bool("no-feeds", false, "do not collect job links from site feeds")
	)
	flag.Parse()

	config.LoadDotenv()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

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

	if *vendor != "" {
		cfg.Discovery.VendorDomain = *vendor
	}
	if *noValidate {
		cfg.Discovery.Validate = false
	}
	if *noFeeds {
		cfg.Discovery.CollectFeedLinks = false
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

	// The CT aggregator routinely takes tens of seconds to answer; give the
	// discovery client more rope than the pipeline gets.
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout < 30*time.Second {
		timeout = 30 * time.Second
	}
	client := fetch.New(fetch.Config{
		Timeout:           timeout,
		UserAgent:         cfg.HTTP.UserAgent,
		MaxBodyBytes:      int64(cfg.HTTP.MaxBodyKB) << 10,
		RequestsPerSecond: cfg.Politeness.RequestsPerSecond,
		Burst:             cfg.Politeness.Burst,
	})

	d := discover.New(client, logger, discover.Options{
		VendorDomain:     cfg.Discovery.VendorDomain,
		SkipSubdomains:   cfg.Discovery.SkipSubdomains,
		SearchQueries:    cfg.Discovery.SearchQueries,
		Validate:         cfg.Discovery.Validate,
		CollectFeedLinks: cfg.Discovery.CollectFeedLinks,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	sites, feedLinks, err := d.Run(ctx)
	if err != nil {
		logger.Fatal("discovery failed", zap.Error(err))
	}

	careerLinks := discover.Links(sites)
	live := 0
	for _, s := range sites {
		if s.Live {
			live++
		}
	}

	careerPath := filepath.Join(dir, "career_links.txt")
	if err := discover.WriteLinks(careerPath, careerLinks); err != nil {
		logger.Fatal("write career links", zap.Error(err))
	}
	allLinks := append(append([]string{}, careerLinks...), feedLinks...)
	allPath := filepath.Join(dir, "all_links.txt")
	if err := discover.WriteLinks(allPath, allLinks); err != nil {
		logger.Fatal("write all links", zap.Error(err))
	}

	logger.Info("discovery complete",
		zap.Int("sites", len(sites)),
		zap.Int("live", live),
		zap.Int("career_links", len(careerLinks)),
		zap.Int("feed_links", len(feedLinks)),
		zap.String("career_path", careerPath),
		zap.String("all_path", allPath),
		zap.Duration("took", time.Since(start)))
}

func newLogger() (*zap.Logger, error) {
	if config.Debug() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
