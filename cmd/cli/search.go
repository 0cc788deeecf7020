package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/veloria/storefront/internal/catalog"
)

var searchFlags struct {
	category string
	brand    string
	minPrice float64
	maxPrice float64
	sort     string
	limit    int
	offset   int
	inStock  bool
	noCache  bool
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a product search through the backend cascade",
	Long: `Runs one search through the configured backend cascade, exactly as the
API server would, and prints the normalized results with facet counts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchFlags.category, "category", "", "category handle filter")
	searchCmd.Flags().StringVar(&searchFlags.brand, "brand", "", "brand filter")
	searchCmd.Flags().Float64Var(&searchFlags.minPrice, "min-price", 0, "minimum price")
	searchCmd.Flags().Float64Var(&searchFlags.maxPrice, "max-price", 0, "maximum price")
	searchCmd.Flags().StringVar(&searchFlags.sort, "sort", "newest", "sort order (name_asc, name_desc, price_asc, price_desc, newest, popular)")
	searchCmd.Flags().IntVar(&searchFlags.limit, "limit", 20, "page size")
	searchCmd.Flags().IntVar(&searchFlags.offset, "offset", 0, "page offset")
	searchCmd.Flags().BoolVar(&searchFlags.inStock, "in-stock", false, "only in-stock products")
	searchCmd.Flags().BoolVar(&searchFlags.noCache, "no-cache", false, "bypass the result cache and query the backends directly")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cascade, err := buildCascade()
	if err != nil {
		return err
	}

	query := catalog.Query{
		Category:    searchFlags.category,
		Brand:       searchFlags.brand,
		MinPrice:    searchFlags.minPrice,
		MaxPrice:    searchFlags.maxPrice,
		Sort:        catalog.ParseSortOption(searchFlags.sort),
		Limit:       searchFlags.limit,
		Offset:      searchFlags.offset,
		InStockOnly: searchFlags.inStock,
		NoCache:     searchFlags.noCache,
	}
	if len(args) > 0 {
		query.Search = args[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	start := time.Now()
	result := cascade.Search(ctx, query)
	elapsed := time.Since(start)

	fmt.Printf("%d result(s) in %s\n\n", result.Total, elapsed.Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tBRAND\tPRICE\tSTOCK")
	for _, p := range result.Products {
		stockMark := "yes"
		if !p.InStock {
			stockMark = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Brand, p.Price.Formatted, stockMark)
	}
	w.Flush()

	if len(result.Facets.Brands) > 0 {
		fmt.Println("\nBrands:")
		for _, f := range result.Facets.Brands {
			fmt.Printf("  %s (%d)\n", f.Value, f.Count)
		}
	}
	if len(result.Facets.Categories) > 0 {
		fmt.Println("\nCategories:")
		for _, f := range result.Facets.Categories {
			fmt.Printf("  %s (%d)\n", f.Value, f.Count)
		}
	}
	return nil
}

// buildCascade wires the backends the same way the server does, minus the
// database fallback: the CLI talks HTTP only.
func buildCascade() (*catalog.Cascade, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required for search")
	}

	var backends []catalog.SearchBackend
	if cfg.Catalog.SearchIndexURL != "" {
		backends = append(backends, catalog.NewSearchIndexBackend(
			apiClient(cfg.Catalog.SearchIndexURL), cfg.Catalog.SearchIndexName))
	}
	if cfg.Catalog.OriginURL != "" {
		backends = append(backends, catalog.NewOriginBackend(apiClient(cfg.Catalog.OriginURL)))
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no search backends configured (set SEARCH_INDEX_URL or ORIGIN_API_URL)")
	}

	return catalog.NewCascade(cfg.Catalog.ResultCacheTTL, backends...), nil
}
