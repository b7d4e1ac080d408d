package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sydlexius/calliope/internal/config"
	"github.com/sydlexius/calliope/internal/provider"
	"github.com/sydlexius/calliope/internal/reconcile"
)

const checkTimeout = 10 * time.Second

type providerRow struct {
	Provider     string                  `json:"provider"`
	Tier         string                  `json:"tier"`
	RateLimit    *provider.RateLimitInfo `json:"rate_limit,omitempty"`
	RequiresAuth bool                    `json:"requires_auth"`
	Enabled      bool                    `json:"enabled"`
	Configured   bool                    `json:"configured"`
	Status       string                  `json:"status,omitempty"`
	HelpURL      string                  `json:"help_url,omitempty"`
}

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show provider status, tiers, and rate limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer env.close()

			caps := provider.Capabilities()
			rows := make([]providerRow, 0, len(reconcile.AllProviders()))
			for _, p := range reconcile.AllProviders() {
				capability := caps[p]
				client := env.registry.Get(p)
				row := providerRow{
					Provider:     p.DisplayName(),
					Tier:         string(capability.Tier),
					RateLimit:    capability.RateLimit,
					RequiresAuth: capability.Tier == provider.TierFreeKey,
					Enabled:      providerEnabled(env.cfg, p),
					Configured:   client != nil,
					HelpURL:      capability.HelpURL,
				}
				if client != nil {
					row.RequiresAuth = client.RequiresAuth()
				}
				if check {
					row.Status = checkProvider(cmd.Context(), client)
				}
				rows = append(rows, row)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, rows)
			}

			headers := []string{"Provider", "Tier", "Rate limit", "Auth", "Enabled", "Configured"}
			if check {
				headers = append(headers, "Status")
			}
			display := make([][]string, 0, len(rows))
			for _, row := range rows {
				r := []string{
					row.Provider,
					row.Tier,
					formatRateLimit(row.RateLimit),
					yesNo(row.RequiresAuth),
					yesNo(row.Enabled),
					yesNo(row.Configured),
				}
				if check {
					r = append(r, row.Status)
				}
				display = append(display, r)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(headers, display))

			if missing := env.cfg.MissingCredentials(); len(missing) > 0 {
				fmt.Fprintf(out, "Missing credentials: %s. Add them to %s to enable these providers.\n",
					strings.Join(missing, ", "), ctx.configPath())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "test connectivity to each configured provider")

	return cmd
}

func providerEnabled(cfg *config.Config, p reconcile.Provider) bool {
	switch p {
	case reconcile.MusicBrainz:
		return cfg.Providers.MusicBrainz.Enabled
	case reconcile.Discogs:
		return cfg.Providers.Discogs.Enabled
	case reconcile.Spotify:
		return cfg.Providers.Spotify.Enabled
	case reconcile.LastFm:
		return cfg.Providers.LastFm.Enabled
	case reconcile.Genius:
		return cfg.Providers.Genius.Enabled
	case reconcile.YouTube:
		return cfg.Providers.YouTube.Enabled
	default:
		return false
	}
}

func formatRateLimit(info *provider.RateLimitInfo) string {
	if info == nil {
		return "-"
	}
	var parts []string
	if info.RequestsPerSecond > 0 {
		parts = append(parts, fmt.Sprintf("%g req/s", info.RequestsPerSecond))
	}
	if info.RequestsPerDay > 0 {
		parts = append(parts, fmt.Sprintf("%d/day", info.RequestsPerDay))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func checkProvider(ctx context.Context, client provider.Client) string {
	if client == nil {
		return "-"
	}
	tc, ok := client.(provider.TestableClient)
	if !ok {
		return "n/a"
	}
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := tc.TestConnection(checkCtx); err != nil {
		return "failed: " + truncate(err.Error(), 60)
	}
	return "ok"
}
