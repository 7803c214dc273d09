package commands

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"Popmap_discord_bot/internal/version"
)

type HelpCommand struct {
	registry *Registry
}

func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{registry: registry}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "利用可能なコマンド一覧を表示します"
}

func (c *HelpCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	embed := c.buildHelpEmbed()
	_, err := s.ChannelMessageSendEmbed(m.ChannelID, embed)
	return err
}

func (c *HelpCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	embed := c.buildHelpEmbed()
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *HelpCommand) buildHelpEmbed() *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📋 コマンド一覧",
		Description: "国別人口マップBotのコマンド一覧です。",
		Color:       0x5865F2, // Discord Blurple
		Fields:      []*discordgo.MessageEmbedField{},
	}

	// コマンドを登録順に追加
	for _, cmd := range c.registry.All() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "🔹 /" + cmd.Name(),
			Value:  cmd.Description(),
			Inline: false,
		})
	}

	if len(version.PatchNotes) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📝 v" + version.Version + " の更新内容",
			Value: "・" + strings.Join(version.PatchNotes, "\n・"),
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "サポートサーバー",
		Value: version.SupportServerURL,
	})

	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: "地図の地域はセレクトメニューで選択し、「選択解除」で元に戻せます。テキストコマンドは ! プレフィックスでも利用できます。",
	}

	return embed
}
