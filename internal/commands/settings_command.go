package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"Popmap_discord_bot/internal/config"
	"Popmap_discord_bot/internal/regions"
)

// 選択できる数値ロケール
var settingsLocales = []struct {
	Name  string
	Value string
}{
	{"English (1,234,567)", "en"},
	{"日本語 (1,234,567)", "ja"},
	{"Deutsch (1.234.567)", "de"},
	{"Français (1 234 567)", "fr"},
	{"Español (1.234.567)", "es"},
	{"既定に戻す", "reset"},
}

// SettingsCommand サーバーごとの地図設定（サーバー管理権限が必要）
type SettingsCommand struct {
	settings *config.SettingsManager
	loader   *regions.Loader
}

func NewSettingsCommand(settings *config.SettingsManager, loader *regions.Loader) *SettingsCommand {
	return &SettingsCommand{settings: settings, loader: loader}
}

func (c *SettingsCommand) Name() string { return "popmap-settings" }

func (c *SettingsCommand) Description() string {
	return "このサーバーでの /popmap の既定値を設定します（管理者専用）"
}

func (c *SettingsCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	_, err := s.ChannelMessageSend(m.ChannelID, "このコマンドはスラッシュコマンドで利用してください。")
	return err
}

func (c *SettingsCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return respondEphemeral(s, i, "❌ このコマンドはサーバー内でのみ使用できます。")
	}
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionManageServer == 0 {
		return respondEphemeral(s, i, "❌ このコマンドは管理者のみ使用できます。")
	}

	var locale, region string
	var hasLocale, hasRegion bool
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "locale":
			locale, hasLocale = opt.StringValue(), true
		case "default_region":
			region, hasRegion = strings.TrimSpace(opt.StringValue()), true
		}
	}

	if hasRegion && region != "" && region != "-" {
		resolved, err := c.resolveRegion(region)
		if err != nil {
			return respondEphemeral(s, i, "❌ "+err.Error())
		}
		region = resolved
	}

	err := c.settings.UpdateGuildSetting(i.GuildID, func(gs *config.GuildSettings) {
		if hasLocale {
			if locale == "reset" {
				gs.Locale = ""
			} else {
				gs.Locale = locale
			}
		}
		if hasRegion {
			if region == "-" {
				gs.DefaultRegion = ""
			} else {
				gs.DefaultRegion = region
			}
		}
	})
	if err != nil {
		return respondEphemeral(s, i, "❌ 設定の保存に失敗しました: "+err.Error())
	}
	return respondEphemeral(s, i, describeGuildSettings(c.settings.GetGuildSettings(i.GuildID)))
}

func (c *SettingsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(settingsLocales))
	for _, l := range settingsLocales {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: l.Name, Value: l.Value})
	}
	perm := int64(discordgo.PermissionManageServer)
	return &discordgo.ApplicationCommand{
		Name:                     c.Name(),
		Description:              c.Description(),
		DefaultMemberPermissions: &perm,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "locale",
				Description: "人口の桁区切りに使うロケール",
				Choices:     choices,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "default_region",
				Description: "国を省略したときに強調表示する地域（- で解除）",
			},
		},
	}
}

// resolveRegion データ取得済みなら名前をIDに解決する
func (c *SettingsCommand) resolveRegion(query string) (string, error) {
	if c.loader == nil {
		return query, nil
	}
	ds, ok := c.loader.Cached()
	if !ok {
		return query, nil
	}
	r, ok := ds.Find(query)
	if !ok {
		return "", fmt.Errorf("地域が見つかりません: %s", query)
	}
	return r.ID, nil
}

func describeGuildSettings(gs config.GuildSettings) string {
	locale := gs.Locale
	if locale == "" {
		locale = "（既定）"
	}
	region := gs.DefaultRegion
	if region == "" {
		region = "（なし）"
	}
	return fmt.Sprintf("✅ 設定を更新しました。\nロケール: %s\n既定の地域: %s", locale, region)
}
