package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"paybench-engine/internal/cachekey"
	"paybench-engine/internal/config"
	"paybench-engine/internal/events"
	"paybench-engine/internal/httpapi"
	"paybench-engine/internal/jobcache"
	"paybench-engine/internal/provider"
	"paybench-engine/internal/resolver"
	"paybench-engine/internal/scheduler"
	"paybench-engine/internal/search"
	"paybench-engine/internal/secrets"
	"paybench-engine/internal/store"
	"paybench-engine/internal/suggest"
	"paybench-engine/internal/sweeper"
)

func main() {
	// Engine data dir: use env if provided, else local folder.
	dataDir := os.Getenv("PAYBENCH_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		normalized, vr := config.NormalizeAndValidate(cfg)
		if !vr.OK() {
			return cfg, fmt.Errorf("config invalid: %v", vr.Errors)
		}
		return normalized, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	db, err := store.Open(filepath.Join(dataDir, "paybench.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Category TTL policies: seed reference rows from the config file, then
	// keep an in-memory snapshot refreshed in the background.
	policies := cachekey.NewPolicies(db, cachekey.PoliciesCollection)
	if err := seedPolicies(ctx, db, cfg.Cache.PoliciesFile); err != nil {
		log.Fatalf("policy seed failed: %v", err)
	}
	if err := policies.Refresh(ctx); err != nil {
		log.Fatalf("policy load failed: %v", err)
	}

	searchKey, err := secrets.SearchAPIKey()
	if err != nil {
		log.Fatalf("search credentials: %v", err)
	}
	searchClient, err := search.NewClient(cfg.Search.AppID, searchKey)
	if err != nil {
		log.Fatalf("search client: %v", err)
	}

	appID, appKey, err := secrets.ProviderCredentials()
	if err != nil {
		log.Fatalf("provider credentials: %v", err)
	}
	prov, err := provider.New(appID, appKey,
		provider.WithEndpoint(cfg.Provider.Endpoint),
		provider.WithRateLimit(cfg.Provider.RateLimitPerSec, cfg.Provider.Burst),
	)
	if err != nil {
		log.Fatalf("provider client: %v", err)
	}

	idx := resolver.Indexes{
		National: searchClient.Index(cfg.Search.NationalIndex),
		Regional: searchClient.Index(cfg.Search.RegionalIndex),
	}
	if cfg.Search.TitlesIndex != "" {
		idx.Titles = searchClient.Index(cfg.Search.TitlesIndex)
	}
	res := resolver.New(idx)

	jobsCache := jobcache.New(db, jobcache.CollectionJobs, policies,
		func(ctx context.Context, title, location, country string, limit int) (map[string]any, error) {
			return prov.Jobs(ctx, title, location, country, limit)
		})
	distCache := jobcache.New(db, jobcache.CollectionDistribution, policies,
		func(ctx context.Context, title, location, country string, _ int) (map[string]any, error) {
			return prov.Histogram(ctx, title, location, country)
		})

	ledger := suggest.NewLedger(db, jobcache.CollectionJobs)
	sw := sweeper.New(db, policies, dataDir, jobcache.CollectionJobs, jobcache.CollectionDistribution)
	hub := events.NewHub()

	go scheduler.Every(ctx, time.Duration(cfg.Cache.PolicyRefreshMinutes)*time.Minute, "policy-refresh", policies.Refresh)
	go scheduler.Every(ctx, time.Duration(cfg.Cache.SweepIntervalHours)*time.Hour, "cache-sweep", func(ctx context.Context) error {
		_, err := sw.Sweep(ctx)
		if errors.Is(err, sweeper.ErrAlreadyRunning) {
			return nil
		}
		return err
	})

	mux := httpapi.NewMux(httpapi.Deps{
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		Resolver:    res,
		JobsCache:   jobsCache,
		DistCache:   distCache,
		Provider:    prov,
		Ledger:      ledger,
		Sweep:       sw.Sweep,
	})
	handler := httpapi.Chain(mux, httpapi.Cors, httpapi.RequestID, httpapi.AccessLog, httpapi.Recover)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (data=%s)", addr, dataDir)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutCtx)
}

// seedPolicies upserts the config-file policy rows into the store so the
// sweeper and TTL lookups share one source of truth.
func seedPolicies(ctx context.Context, db *store.DB, path string) error {
	rows, err := config.LoadPolicies(path)
	if err != nil {
		return err
	}
	for _, p := range rows {
		fields := map[string]any{"tag": p.Tag, "ttl_days": p.TTLDays}
		if err := db.Set(ctx, cachekey.PoliciesCollection, p.Tag, fields, false); err != nil {
			return err
		}
	}
	return nil
}
