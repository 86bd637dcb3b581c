package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vxgen/ProductCheck/internal/usecase"
)

var scanFlags struct {
	query     string
	worldwide bool
	items     []string
	csv       bool
}

func init() {
	scanCmd.Flags().StringVar(&scanFlags.query, "query", "", "discover pages for this product first")
	scanCmd.Flags().BoolVar(&scanFlags.worldwide, "worldwide", false, "search all regions")
	scanCmd.Flags().StringArrayVar(&scanFlags.items, "item", nil, "manual entry as sku=url, repeatable")
	scanCmd.Flags().BoolVar(&scanFlags.csv, "csv", false, "print results as CSV")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Builds a watchlist and scans every entry once.",
	Run: func(cmd *cobra.Command, args []string) {
		runJob(func(ctx context.Context, d jobDeps) error {
			if scanFlags.query != "" {
				req := usecase.DiscoverRequest{Query: scanFlags.query, Worldwide: scanFlags.worldwide}
				if err := discover(ctx, d.Watchlist, req, 0); err != nil {
					return err
				}
			}
			for _, raw := range scanFlags.items {
				sku, url, ok := strings.Cut(raw, "=")
				if !ok {
					return fmt.Errorf("invalid --item %q, want sku=url", raw)
				}
				if _, err := d.Watchlist.AddManual(ctx, sku, url); err != nil {
					return fmt.Errorf("add %q: %w", raw, err)
				}
			}

			st, err := d.Scans.Run(ctx, nil, func(done, total int) {
				fmt.Fprintf(os.Stderr, "[%d/%d]\n", done, total)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "scan %s %s: %d/%d done, %d failed\n", st.ID, st.State, st.Done, st.Total, st.Failed)

			if scanFlags.csv {
				return d.Watchlist.Export(ctx, os.Stdout, nil)
			}
			printItems(d.Watchlist.List(ctx))
			return nil
		})
	},
}
