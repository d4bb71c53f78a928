package handlers

import (
	"log"

	"csmc-bot/config"
	"csmc-bot/lang"
	"csmc-bot/storage"
	"csmc-bot/support"

	"github.com/bwmarrin/discordgo"
)

func RegisterWelcome(s *discordgo.Session) {
	if !storage.Cfg.Welcome.DMEnabled {
		return
	}
	s.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		handleMemberJoin(s, m)
	})
}

// handleMemberJoin greets a new member by DM, pointing them at the
// language selection channel. Closed DMs are logged and ignored.
func handleMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	langCh := textChannelByName(s, m.GuildID, config.ChannelChooseLanguage)
	if langCh == nil {
		return
	}

	channel, err := s.UserChannelCreate(m.User.ID)
	if err != nil {
		log.Printf("[Welcome] DM channel for %s: %v", m.User.Username, err)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: lang.T("en", "welcome_dm_title"),
		Description: lang.T("en", "welcome_dm_body",
			"user", "<@"+m.User.ID+">",
			"channel", "<#"+langCh.ID+">"),
		Color: support.ColorPrimary,
	}
	if _, err := s.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		log.Printf("[Welcome] Could not DM %s, DMs disabled", m.User.Username)
		return
	}
	log.Printf("[Welcome] Sent welcome DM to %s", m.User.Username)
}
