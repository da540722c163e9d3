package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/glassd/unqork-audit-logs/internal/api"
	"github.com/glassd/unqork-audit-logs/internal/auth"
	"github.com/glassd/unqork-audit-logs/internal/cache"
	"github.com/glassd/unqork-audit-logs/internal/config"
	"github.com/glassd/unqork-audit-logs/internal/fetcher"
)

// loadConfig loads and validates the effective configuration, printing
// the failure to stderr.
func loadConfig() (config.Config, bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Set UNQORK_BASE_URL, UNQORK_CLIENT_ID and UNQORK_CLIENT_SECRET, or create a config file.")
		return config.Config{}, false
	}
	return cfg, true
}

// openStore opens the cache database for the configured data dir.
func openStore(cfg config.Config) (*cache.Store, bool) {
	store, err := cache.Open(cfg.CacheDBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		return nil, false
	}
	return store, true
}

// newAPIClient wires the token manager and upstream client from config.
// Both share one HTTP client, so the configured timeout and TLS
// settings apply to token requests too.
func newAPIClient(cfg config.Config) *api.Client {
	httpClient := api.NewHTTPClient(cfg.HTTPTimeout, !cfg.VerifySSL)

	tokens := auth.NewTokenManager(auth.Options{
		TokenURL:      cfg.TokenURL(),
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		RefreshBuffer: cfg.TokenRefreshBuffer,
	}, httpClient)

	return api.NewClient(api.Options{
		AuditLogsURL:           cfg.AuditLogsURL(),
		MaxConcurrentDownloads: cfg.MaxConcurrentDownloads,
		Timeout:                cfg.HTTPTimeout,
		InsecureSkipVerify:     !cfg.VerifySSL,
	}, tokens, httpClient)
}

// filterFlags is the filter set shared by list, export and summary.
type filterFlags struct {
	start    *string
	end      *string
	category *string
	action   *string
	actor    *string
	outcome  *string
	source   *string
	ip       *string
	search   *string
}

func addFilterFlags(fs *flag.FlagSet) *filterFlags {
	return &filterFlags{
		start:    fs.String("start", "", "Only entries at or after this time"),
		end:      fs.String("end", "", "Only entries at or before this time"),
		category: fs.String("category", "", "Filter by category (substring)"),
		action:   fs.String("action", "", "Filter by action (substring)"),
		actor:    fs.String("actor", "", "Filter by actor identifier (substring)"),
		outcome:  fs.String("outcome", "", "Filter by outcome type (substring)"),
		source:   fs.String("source", "", "Filter by source (substring)"),
		ip:       fs.String("ip", "", "Filter by client IP (substring)"),
		search:   fs.String("search", "", "Free-text search across payload and key fields"),
	}
}

// build converts the parsed flags into a store filter, resolving the
// time bounds into the cache's timestamp format.
func (f *filterFlags) build() (cache.Filter, error) {
	filter := cache.Filter{
		Category: *f.category,
		Action:   *f.action,
		Actor:    *f.actor,
		Outcome:  *f.outcome,
		Source:   *f.source,
		IP:       *f.ip,
		Search:   *f.search,
	}

	if *f.start != "" {
		t, err := fetcher.ParseTimeInput(*f.start)
		if err != nil {
			return cache.Filter{}, err
		}
		filter.Start = fetcher.FormatAPITime(t)
	}
	if *f.end != "" {
		t, err := fetcher.ParseTimeInput(*f.end)
		if err != nil {
			return cache.Filter{}, err
		}
		filter.End = fetcher.FormatAPITime(t)
	}
	return filter, nil
}
