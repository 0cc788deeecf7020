package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veloria/storefront/internal/category"
)

var categoriesFlags struct {
	breadcrumbs string
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Fetch and print the category hierarchy",
	RunE:  runCategories,
}

func init() {
	categoriesCmd.Flags().StringVar(&categoriesFlags.breadcrumbs, "breadcrumbs", "", "print the breadcrumb trail for a category handle instead of the tree")

	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		return fmt.Errorf("config required for categories")
	}
	baseURL := cfg.Catalog.CategoryURL
	if baseURL == "" {
		baseURL = cfg.Catalog.OriginURL
	}
	if baseURL == "" {
		return fmt.Errorf("no category backend configured (set CATEGORY_API_URL or ORIGIN_API_URL)")
	}

	svc := category.NewService(apiClient(baseURL), cfg.Catalog.CategoryStaleTTL)
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	idx, err := svc.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch categories: %w", err)
	}

	if categoriesFlags.breadcrumbs != "" {
		trail := idx.Breadcrumbs(categoriesFlags.breadcrumbs)
		if trail == nil {
			return fmt.Errorf("unknown category handle %q", categoriesFlags.breadcrumbs)
		}
		parts := make([]string, 0, len(trail))
		for _, crumb := range trail {
			parts = append(parts, fmt.Sprintf("%s (%s)", crumb.Name, crumb.Handle))
		}
		fmt.Println(strings.Join(parts, " > "))
		return nil
	}

	fmt.Printf("%d categories\n\n", idx.Total())
	printTree(idx.Roots())
	return nil
}

func printTree(nodes []*category.Node) {
	for _, n := range nodes {
		indent := strings.Repeat("  ", n.Depth)
		fmt.Printf("%s%s [%s]", indent, n.Name, n.Handle)
		if n.ProductCount > 0 {
			fmt.Printf(" (%d products)", n.ProductCount)
		}
		fmt.Println()
		printTree(n.Children)
	}
}
