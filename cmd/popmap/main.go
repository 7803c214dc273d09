package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"Popmap_discord_bot/internal/config"
	"Popmap_discord_bot/internal/regions"
	"Popmap_discord_bot/internal/render"
	"Popmap_discord_bot/internal/utils"
	"Popmap_discord_bot/internal/version"
)

var (
	rootCmd = &cobra.Command{
		Use:           "popmap",
		Short:         "Render and serve the population choropleth",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyFlags(cmd)
		},
	}

	cfg = config.Load()

	datasetURL   string
	datasetCache string
	locale       string
	width        int
	height       int
	loadTimeout  time.Duration
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&datasetURL, "dataset", "", "GeoJSON URL of the region dataset (default from POPMAP_DATASET_URL)")
	flags.StringVar(&datasetCache, "cache", "", "path of the on-disk dataset cache (default from POPMAP_DATASET_CACHE)")
	flags.StringVar(&locale, "locale", "", "locale for population grouping, e.g. en, ja, de")
	flags.IntVar(&width, "width", 0, "image width in pixels")
	flags.IntVar(&height, "height", 0, "image height in pixels")
	flags.DurationVar(&loadTimeout, "timeout", 45*time.Second, "dataset load timeout")
}

// applyFlags 指定されたフラグだけ環境変数の設定を上書きする
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("dataset") {
		cfg.DatasetURL = datasetURL
	}
	if flags.Changed("cache") {
		cfg.DatasetCache = datasetCache
	}
	if flags.Changed("locale") {
		cfg.Locale = locale
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
}

func newLoader() *regions.Loader {
	return regions.NewLoader(regions.LoaderOptions{
		URL:       cfg.DatasetURL,
		CachePath: cfg.DatasetCache,
		Keys:      cfg.Keys,
		Limiter:   utils.NewRateLimiter(cfg.FetchRPS),
	})
}

func loadDataset(ctx context.Context, loader *regions.Loader) (*regions.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	return loader.Load(ctx)
}

func renderOptions() render.Options {
	return render.Options{Width: cfg.Width, Height: cfg.Height, Title: "Population by country"}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "popmap:", err)
		os.Exit(1)
	}
}
