package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"infohub/internal/backend"
	"infohub/internal/domain"
	"infohub/internal/service/catalog"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List catalog products",
	Args:  cobra.NoArgs,
	RunE:  runProducts,
}

func init() {
	productsCmd.Flags().String("search", "", "Filter by name")
	productsCmd.Flags().Int64("category", 0, "Filter by category id")
	productsCmd.Flags().Bool("promotions", false, "Only products with a markdown")
	productsCmd.Flags().String("format", "table", "Output format: table, json")
	rootCmd.AddCommand(productsCmd)
}

func runProducts(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)
	search, _ := cmd.Flags().GetString("search")
	category, _ := cmd.Flags().GetInt64("category")
	promotions, _ := cmd.Flags().GetBool("promotions")
	format, _ := cmd.Flags().GetString("format")

	svc := catalog.New(backend.New(cfg.BackendURL, nil, logger), nil, logger)
	var products []domain.Product
	if promotions {
		products = svc.Promotions(cmd.Context())
	} else {
		products = svc.Products(cmd.Context(), backend.ProductQuery{CategoryID: category, Search: search})
	}

	if format == "json" {
		return printJSON(cmd.OutOrStdout(), products)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tOLD PRICE")
	for _, p := range products {
		old := "-"
		if p.OldPrice != nil {
			old = p.OldPrice.StringFixed(2)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), old)
	}
	return w.Flush()
}
