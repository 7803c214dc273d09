package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Popmap_discord_bot/internal/choropleth"
)

func init() {
	rootCmd.AddCommand(legendCmd)
	rootCmd.AddCommand(regionsCmd)
}

var legendCmd = &cobra.Command{
	Use:   "legend",
	Short: "Print the legend entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		panel := choropleth.LegendPanel()
		fmt.Fprintln(cmd.OutOrStdout(), panel.Title)
		for _, e := range panel.Entries {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", choropleth.HexColor(e.Color), e.Label)
		}
		return nil
	},
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List regions with their population bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context(), newLoader())
		if err != nil {
			return err
		}
		f := choropleth.NewFormatter(cfg.Locale)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPOPULATION\tBUCKET")
		for _, r := range ds.SortedByName() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, f.Population(r.Population), choropleth.BucketFor(r.Population))
		}
		return w.Flush()
	},
}
