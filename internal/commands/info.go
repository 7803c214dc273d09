package commands

import (
	"github.com/bwmarrin/discordgo"

	"Popmap_discord_bot/internal/embeds"
	"Popmap_discord_bot/internal/models"
)

type InfoCommand struct {
	botInfo   *models.BotInfo
	popmap    *Popmap
	viewerURL string
}

func NewInfoCommand(botInfo *models.BotInfo, p *Popmap, viewerURL string) *InfoCommand {
	return &InfoCommand{botInfo: botInfo, popmap: p, viewerURL: viewerURL}
}

func (c *InfoCommand) Name() string {
	return "info"
}

func (c *InfoCommand) Description() string {
	return "Botの情報を表示します"
}

func (c *InfoCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	_, err := s.ChannelMessageSendEmbed(m.ChannelID, c.buildEmbed(m.GuildID))
	return err
}

func (c *InfoCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{c.buildEmbed(i.GuildID)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func (c *InfoCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *InfoCommand) buildEmbed(guildID string) *discordgo.MessageEmbed {
	stats := embeds.InfoStats{Viewer: c.viewerURL}
	if c.popmap != nil {
		if ds, ok := c.popmap.Loader.Cached(); ok {
			stats.Regions = ds.Len()
		}
		stats.Sessions = c.popmap.Sessions.Len()
		stats.Locale = c.popmap.Settings.LocaleFor(guildID, c.popmap.Locale)
	}
	return embeds.BuildInfoEmbed(c.botInfo, stats)
}
