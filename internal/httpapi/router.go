package httpapi

import "net/http"

// NewMux wires every route. main() wraps the result in the middleware chain.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Benchmark resolution
	sa := SalaryHandler{Resolver: d.Resolver}
	mux.HandleFunc("/salary", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sa.Get,
	}))

	// Cached provider data
	mh := MarketHandler{Jobs: d.JobsCache, Dist: d.DistCache, Provider: d.Provider, CfgVal: d.CfgVal}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: mh.ListJobs,
	}))
	mux.HandleFunc("/distribution", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: mh.Distribution,
	}))
	mux.HandleFunc("/categories", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: mh.Categories,
	}))
	mux.HandleFunc("/history", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: mh.History,
	}))

	// Corrections
	sh := SuggestionHandler{Ledger: d.Ledger, Hub: d.Hub}
	mux.HandleFunc("/suggestions", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Submit,
	}))

	// Admin (token gated)
	adminToken := func() string { return d.config().Admin.Token }
	ah := AdminHandler{Ledger: d.Ledger, Sweep: d.Sweep, Hub: d.Hub}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			AdminAuth(adminToken)(h).ServeHTTP(w, r)
		}
	}
	mux.HandleFunc("/admin/suggestions", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: admin(ah.ListSuggestions),
	}))
	mux.HandleFunc("/admin/suggestions/approve", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: admin(ah.ApproveSuggestion),
	}))
	mux.HandleFunc("/admin/suggestions/", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: admin(ah.RejectByPath), // expects /admin/suggestions/{id}
	}))
	mux.HandleFunc("/admin/cache/sweep", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: admin(ah.SweepCache),
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: admin(ch.Put),
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets
	sec := SecretsHandler{}
	mux.HandleFunc("/api/secrets/provider", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: admin(sec.SetProvider),
	}))
	mux.HandleFunc("/api/secrets/search", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: admin(sec.SetSearch),
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Health
	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}
