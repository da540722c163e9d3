package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/glassd/unqork-audit-logs/internal/api"
	"github.com/glassd/unqork-audit-logs/internal/auth"
	"github.com/glassd/unqork-audit-logs/internal/config"
	"github.com/glassd/unqork-audit-logs/internal/display"
)

// runCheck verifies that configuration loads and that the credentials
// can obtain a token.
func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: unqork-logs check [options]

Verify that configuration is complete and the configured credentials
can authenticate against the instance.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	setupLogging(*verbose)

	cfg, err := config.Load()
	if err != nil {
		display.ConfigStatus(os.Stdout, cfg.BaseURL, false, false, err.Error())
		return ExitConfigError
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tokens := auth.NewTokenManager(auth.Options{
		TokenURL:      cfg.TokenURL(),
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		RefreshBuffer: cfg.TokenRefreshBuffer,
	}, api.NewHTTPClient(cfg.HTTPTimeout, !cfg.VerifySSL))

	if _, err := tokens.Token(ctx); err != nil {
		display.ConfigStatus(os.Stdout, cfg.BaseURL, true, false, err.Error())
		return ExitAuthError
	}

	display.ConfigStatus(os.Stdout, cfg.BaseURL, true, true, "")
	return ExitSuccess
}
