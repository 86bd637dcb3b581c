package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vxgen/ProductCheck/internal/usecase"
)

var discoverFlags struct {
	worldwide bool
	blacklist []string
	more      int
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverFlags.worldwide, "worldwide", false, "search all regions")
	discoverCmd.Flags().StringSliceVar(&discoverFlags.blacklist, "blacklist", nil, "domains to skip (defaults to SEARCH_BLACKLIST)")
	discoverCmd.Flags().IntVar(&discoverFlags.more, "more", 0, "extra load-more rounds")
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover <query>",
	Short: "Finds candidate storefront pages for a product.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runJob(func(ctx context.Context, d jobDeps) error {
			req := usecase.DiscoverRequest{
				Query:     args[0],
				Worldwide: discoverFlags.worldwide,
				Blacklist: discoverFlags.blacklist,
			}
			if err := discover(ctx, d.Watchlist, req, discoverFlags.more); err != nil {
				return err
			}
			printItems(d.Watchlist.List(ctx))
			return nil
		})
	},
}

func discover(ctx context.Context, wl usecase.WatchlistUsecase, req usecase.DiscoverRequest, more int) error {
	res, err := wl.Discover(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "added %d, skipped %d\n", res.Added, res.Skipped)
	for i := 0; i < more; i++ {
		res, err = wl.LoadMore(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "added %d, skipped %d\n", res.Added, res.Skipped)
	}
	return nil
}
