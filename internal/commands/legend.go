package commands

import (
	"github.com/bwmarrin/discordgo"

	"Popmap_discord_bot/internal/embeds"
)

type LegendCommand struct{}

func (c *LegendCommand) Name() string { return "legend" }

func (c *LegendCommand) Description() string {
	return "人口区分の凡例を表示します"
}

func (c *LegendCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	_, err := s.ChannelMessageSendEmbed(m.ChannelID, embeds.BuildLegendEmbed())
	return err
}

func (c *LegendCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embeds.BuildLegendEmbed()},
		},
	})
}

func (c *LegendCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}
