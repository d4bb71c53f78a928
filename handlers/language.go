package handlers

import (
	"log"

	"csmc-bot/support"

	"github.com/bwmarrin/discordgo"
)

func handleLanguageButton(s *discordgo.Session, i *discordgo.InteractionCreate, locale support.Locale) {
	if LangAssigner == nil {
		return
	}

	req := support.AssignRequest{
		GuildID: i.GuildID,
		UserID:  i.Member.User.ID,
		Locale:  locale,
		Reply:   &interactionReplier{s: s, i: i},
	}

	go func() {
		if err := LangAssigner.Assign(req); err != nil {
			log.Printf("[Language] Assign %s for %s: %v", locale, req.UserID, err)
		}
	}()
}
