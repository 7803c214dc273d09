package embeds

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"Popmap_discord_bot/internal/choropleth"
	"Popmap_discord_bot/internal/models"
	"Popmap_discord_bot/internal/version"
)

// DataAttribution 地図に添えるデータ出典
const DataAttribution = "Population data © Natural Earth"

// InfoStats /info に載せる稼働状況
type InfoStats struct {
	Regions  int // 0ならデータ未取得
	Sessions int
	Locale   string
	Viewer   string
}

// BuildInfoEmbed info コマンド用の埋め込みを作成
func BuildInfoEmbed(botInfo *models.BotInfo, stats InfoStats) *discordgo.MessageEmbed {
	dataset := "未取得（/popmap 実行時に読み込みます）"
	if stats.Regions > 0 {
		dataset = fmt.Sprintf("%d 地域", stats.Regions)
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Bot バージョン", Value: botInfo.Version, Inline: true},
		{Name: "起動時刻", Value: botInfo.StartTime.Format("2006-01-02 15:04:05 MST"), Inline: true},
		{Name: "稼働時間", Value: formatUptime(botInfo.Uptime()), Inline: false},
	}
	if _, guilds, ok := botInfo.Ready(); ok {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "導入サーバー数", Value: fmt.Sprintf("%d", guilds), Inline: true})
	}
	fields = append(fields,
		&discordgo.MessageEmbedField{Name: "地域データ", Value: dataset, Inline: true},
		&discordgo.MessageEmbedField{Name: "表示中のマップ", Value: fmt.Sprintf("%d", stats.Sessions), Inline: true},
	)
	if stats.Locale != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "数値ロケール", Value: stats.Locale, Inline: true})
	}
	if stats.Viewer != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Webビューア", Value: stats.Viewer, Inline: false})
	}
	return &discordgo.MessageEmbed{
		Title:       "🗺️ Popmap Bot 情報",
		Description: "国別人口のコロプレスマップを表示するBotです。",
		Color:       0xFFD700, // Gold
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Popmap Discord Bot - " + version.Version,
		},
	}
}

// BuildLegendEmbed 凡例を色コード付きで並べる
func BuildLegendEmbed() *discordgo.MessageEmbed {
	panel := choropleth.LegendPanel()
	lines := make([]string, 0, len(panel.Entries))
	for _, e := range panel.Entries {
		lines = append(lines, fmt.Sprintf("`%s` %s", choropleth.HexColor(e.Color), e.Label))
	}
	return &discordgo.MessageEmbed{
		Title:       "📊 凡例: " + panel.Title,
		Description: strings.Join(lines, "\n"),
		Color:       colorInt(choropleth.Bucket50M.Color()),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "境界値ちょうどの人口は下の区分に入ります | " + DataAttribution,
		},
	}
}

// PopmapView /popmap の埋め込みに必要な表示内容
type PopmapView struct {
	Label    string // "<br>" 区切りのラベル。空なら未選択
	Notice   string
	Page     int
	Pages    int
	Filename string
}

// BuildPopmapEmbed 地図画像を添付として参照する埋め込み
func BuildPopmapEmbed(v PopmapView) *discordgo.MessageEmbed {
	description := "地域を選択すると強調表示します。"
	if v.Label != "" {
		description = "**選択中**\n" + strings.ReplaceAll(v.Label, choropleth.LabelBreak, "\n")
	}
	if v.Notice != "" {
		description = v.Notice + "\n\n" + description
	}
	footer := DataAttribution
	if v.Pages > 1 {
		footer = fmt.Sprintf("ページ %d / %d | %s", v.Page+1, v.Pages, DataAttribution)
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🌍 国別人口マップ",
		Description: description,
		Color:       0x3498DB, // Blue
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if v.Filename != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + v.Filename}
	}
	return embed
}

func colorInt(c color.NRGBA) int {
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

// formatUptime 稼働時間を人間が読みやすい形式にフォーマット
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%d日 %d時間 %d分 %d秒", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%d時間 %d分 %d秒", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%d分 %d秒", minutes, seconds)
	}
	return fmt.Sprintf("%d秒", seconds)
}
