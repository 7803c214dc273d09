package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"Popmap_discord_bot/internal/metrics"
	"Popmap_discord_bot/internal/viewer"
)

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (VIEWER_ADDR overrides the default)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interactive web viewer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if !cmd.Flags().Changed("addr") && cfg.ViewerAddr != "" {
			addr = cfg.ViewerAddr
		}
		collector, err := metrics.NewCollector(nil)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loader := newLoader()
		srv := viewer.New(viewer.Options{
			Loader:  loader,
			Metrics: collector,
			Render:  renderOptions(),
			Locale:  cfg.Locale,
		})
		go func() {
			if _, err := loadDataset(ctx, loader); err != nil {
				cmd.PrintErrf("dataset warmup failed: %v\n", err)
			}
		}()
		return srv.ListenAndServe(ctx, addr)
	},
}
