package main

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"Popmap_discord_bot/internal/choropleth"
	"Popmap_discord_bot/internal/render"
	"Popmap_discord_bot/internal/session"
	"Popmap_discord_bot/internal/utils"
)

var (
	renderFocus string
	renderOut   string
)

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderFocus, "country", "", "region to highlight (name or ISO code)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "popmap.png", "output file")
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the map to an image file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context(), newLoader())
		if err != nil {
			log.Printf("Region dataset unavailable, rendering base map: %v", err)
			ds = nil
		}
		sess, err := session.New(ds, renderOptions(), choropleth.NewFormatter(cfg.Locale))
		if err != nil {
			writeFailureImage(renderOut)
			return err
		}
		if renderFocus != "" {
			reg, ok := ds.Find(renderFocus)
			if !ok {
				return fmt.Errorf("unknown region: %s", renderFocus)
			}
			if _, err := sess.Focus(reg.ID); err != nil {
				return err
			}
		}

		img, st, err := sess.Render()
		if err != nil {
			return err
		}
		out := renderOut
		if strings.HasSuffix(img.Filename, ".jpg") && filepath.Ext(out) == ".png" {
			out = strings.TrimSuffix(out, ".png") + ".jpg"
		}
		if err := utils.WriteFileAtomic(out, img.Data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(img.Data))
		if st.Label != "" {
			fmt.Fprintln(cmd.OutOrStdout(), strings.ReplaceAll(st.Label, "<br>", "\n"))
		}
		return nil
	},
}

// writeFailureImage 描画面を作れなかったときは出力先に失敗メッセージの画像を置く
func writeFailureImage(out string) {
	data, _, _, err := render.Encode(render.FailureImage(cfg.Width, cfg.Height))
	if err != nil {
		return
	}
	if err := utils.WriteFileAtomic(out, data); err != nil {
		log.Printf("Failed to write failure image: %v", err)
	}
}
