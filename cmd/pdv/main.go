package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mercadobetel/pdv/config"
	// Import migrations so their init() funcs run and register themselves.
	_ "github.com/mercadobetel/pdv/database/migrations"
	"github.com/mercadobetel/pdv/internal/kernel"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pdv",
		Short:         "Mercado Betel PDV point of sale",
		Long:          "Point-of-sale server and maintenance tools for Mercado Betel.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Load(); err != nil {
				return err
			}
			if d, _ := cmd.Flags().GetString("driver"); d != "" {
				config.Set("STORE_DRIVER", d)
			}
			return nil
		},
	}
	root.PersistentFlags().String("driver", "", "store driver (local|memory|s3|redis|sql|mongo), overrides STORE_DRIVER")

	// Server
	root.AddCommand(newServeCmd())
	root.AddCommand(newRouteListCmd())

	// Data
	root.AddCommand(newExportCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newClearCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newSeedCmd())

	// Database
	root.AddCommand(newMigrateCmd())

	return root
}

// bootApp opens the configured stores and builds the application.
func bootApp() (*kernel.App, error) {
	opts, err := kernel.OptionsFromConfig()
	if err != nil {
		return nil, err
	}
	return kernel.New(opts)
}
