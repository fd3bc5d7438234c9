package main

import (
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mercadobetel/pdv/config"
	"github.com/mercadobetel/pdv/internal/server"
)

// pdv serve: start the HTTP API.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, websocket feed and backup schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootApp()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			port, _ := cmd.Flags().GetString("port")
			if port == "" {
				port = config.AppPort()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s running on :%s\n", config.AppName(), port)
			return server.Start(ctx, app, server.Options{
				Addr:       net.JoinHostPort("", port),
				BackupCron: config.BackupCron(),
			})
		},
	}
	cmd.Flags().String("port", "", "listen port, overrides APP_PORT")
	return cmd
}

// pdv route:list: print all registered routes.
func newRouteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "List all registered routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootApp()
			if err != nil {
				return err
			}
			r, err := app.Router()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tNAME")
			fmt.Fprintln(w, "------\t----\t----")
			for _, ri := range r.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
			}
			return w.Flush()
		},
	}
}
