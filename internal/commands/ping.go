package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type PingCommand struct{}

func (c *PingCommand) Name() string {
	return "ping"
}

func (c *PingCommand) Description() string {
	return "Botの応答とゲートウェイ遅延を確認します"
}

func (c *PingCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	_, err := s.ChannelMessageSend(m.ChannelID, pongMessage(s))
	return err
}

func (c *PingCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return respondText(s, i, pongMessage(s))
}

func (c *PingCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func pongMessage(s *discordgo.Session) string {
	latency := s.HeartbeatLatency()
	if latency <= 0 {
		return "Pong!"
	}
	return fmt.Sprintf("Pong! (%dms)", latency.Milliseconds())
}
