package httpapi

import (
	"context"
	"sync/atomic"

	"paybench-engine/internal/config"
	"paybench-engine/internal/events"
	"paybench-engine/internal/jobcache"
	"paybench-engine/internal/provider"
	"paybench-engine/internal/resolver"
	"paybench-engine/internal/suggest"
)

type Deps struct {
	Hub *events.Hub

	// Atomic store; holds config.Config so handlers always see the latest
	// saved config without a restart.
	CfgVal *atomic.Value

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Resolver  *resolver.Resolver
	JobsCache *jobcache.Manager
	DistCache *jobcache.Manager
	Provider  *provider.Client
	Ledger    *suggest.Ledger

	// Sweep entrypoint (inject for testability)
	Sweep func(ctx context.Context) (map[string]int, error)
}

func (d Deps) config() config.Config {
	return d.CfgVal.Load().(config.Config)
}
