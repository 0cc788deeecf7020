package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var serveConfigCmd = &cobra.Command{
	Use:   "serve-config",
	Short: "Print the resolved server configuration",
	Long: `Prints the effective configuration the server would start with, after
defaults, config file and environment overrides are applied. Secrets are
redacted.`,
	RunE: runServeConfig,
}

func init() {
	rootCmd.AddCommand(serveConfigCmd)
}

func runServeConfig(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		return fmt.Errorf("no configuration loaded")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "server.host\t%s\n", cfg.Server.Host)
	fmt.Fprintf(w, "server.port\t%d\n", cfg.Server.Port)
	fmt.Fprintf(w, "redis.addr\t%s\n", cfg.Redis.Addr)
	fmt.Fprintf(w, "redis.password\t%s\n", redact(cfg.Redis.Password))
	fmt.Fprintf(w, "database.url\t%s\n", redact(cfg.Database.URL))
	fmt.Fprintf(w, "catalog.search_index_url\t%s\n", cfg.Catalog.SearchIndexURL)
	fmt.Fprintf(w, "catalog.search_index_name\t%s\n", cfg.Catalog.SearchIndexName)
	fmt.Fprintf(w, "catalog.origin_url\t%s\n", cfg.Catalog.OriginURL)
	fmt.Fprintf(w, "catalog.category_url\t%s\n", cfg.Catalog.CategoryURL)
	fmt.Fprintf(w, "catalog.request_timeout\t%s\n", cfg.Catalog.RequestTimeout)
	fmt.Fprintf(w, "catalog.retries\t%d\n", cfg.Catalog.Retries)
	fmt.Fprintf(w, "catalog.result_cache_ttl\t%s\n", cfg.Catalog.ResultCacheTTL)
	fmt.Fprintf(w, "catalog.category_stale_ttl\t%s\n", cfg.Catalog.CategoryStaleTTL)
	fmt.Fprintf(w, "cart.ttl\t%s\n", cfg.Cart.TTL)
	fmt.Fprintf(w, "cart.default_tier\t%s\n", cfg.Cart.DefaultTier)
	fmt.Fprintf(w, "pricing.currency\t%s\n", cfg.Pricing.Currency)
	fmt.Fprintf(w, "pricing.tax_rate\t%.1f\n", cfg.Pricing.TaxRate)
	fmt.Fprintf(w, "pricing.precision\t%d\n", cfg.Pricing.Precision)
	fmt.Fprintf(w, "rate_limit.requests_per_second\t%.1f\n", cfg.RateLimit.RequestsPerSecond)
	fmt.Fprintf(w, "rate_limit.burst_size\t%d\n", cfg.RateLimit.BurstSize)
	fmt.Fprintf(w, "internal.api_key\t%s\n", redact(cfg.Internal.APIKey))
	fmt.Fprintf(w, "logging.level\t%s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "logging.format\t%s\n", cfg.Logging.Format)
	return w.Flush()
}

func redact(value string) string {
	if value == "" {
		return "(unset)"
	}
	return "********"
}
