package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vxgen/ProductCheck/internal/app"
	"github.com/vxgen/ProductCheck/internal/server"
	"github.com/vxgen/ProductCheck/pkg/logger/log"
)

var rootCmd = &cobra.Command{
	Use:           "productcheck",
	Short:         "Tracks storefront prices for a product watchlist.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		app.Invoke(server.StartServer).Run()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
