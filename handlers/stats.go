package handlers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"csmc-bot/config"
	"csmc-bot/storage"

	"github.com/bwmarrin/discordgo"
)

// StartStatsLoop renames the stat voice channels on a fixed interval
// until the stop channel closes. Renames are skipped when the name is
// already current to stay clear of channel-edit rate limits.
func StartStatsLoop(s *discordgo.Session, stop <-chan struct{}) {
	cfg := storage.Cfg
	if !cfg.Stats.Enabled {
		return
	}

	go func() {
		ticker := time.NewTicker(cfg.Stats.Interval())
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				for _, g := range s.State.Guilds {
					refreshGuildStats(s, g.ID)
				}
			}
		}
	}()
}

func refreshGuildStats(s *discordgo.Session, guildID string) {
	channels, err := s.GuildChannels(guildID)
	if err != nil {
		log.Printf("[Stats] List channels for %s: %v", guildID, err)
		return
	}

	total, online := memberCounts(s, guildID)
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildVoice {
			continue
		}
		var want string
		switch {
		case strings.HasPrefix(ch.Name, config.StatTotalPrefix):
			want = fmt.Sprintf(config.ChannelTotalMembersFmt, total)
		case strings.HasPrefix(ch.Name, config.StatOnlinePrefix):
			want = fmt.Sprintf(config.ChannelOnlineMembersFmt, online)
		default:
			continue
		}
		if ch.Name == want {
			continue
		}
		if _, err := s.ChannelEdit(ch.ID, &discordgo.ChannelEdit{Name: want}); err != nil {
			log.Printf("[Stats] Rename %s: %v", ch.Name, err)
			continue
		}
		log.Printf("[Stats] Updated counter channel: %s", want)
	}
}
