package handlers

import (
	"log"
	"strings"

	"csmc-bot/storage"

	"github.com/bwmarrin/discordgo"
)

var adminPerm = int64(discordgo.PermissionAdministrator)

func Commands() []*discordgo.ApplicationCommand {
	cmds := []*discordgo.ApplicationCommand{
		{Name: "setup", Description: "Provision the bilingual server structure", DefaultMemberPermissions: &adminPerm},
		{Name: "fresh", Description: "Wipe the server and recreate it from scratch", DefaultMemberPermissions: &adminPerm},
		{Name: "cleanup", Description: "Delete the bot-managed channels and roles", DefaultMemberPermissions: &adminPerm},
		{Name: "language-setup", Description: "Repost the language selection panel", DefaultMemberPermissions: &adminPerm},
		{Name: "refresh-support", Description: "Clear and repost the support channel panels", DefaultMemberPermissions: &adminPerm},
		{Name: "clear-support", Description: "Clear all bot messages from the support channels", DefaultMemberPermissions: &adminPerm},
		{Name: "reset-tickets", Description: "Clear all active ticket tracking", DefaultMemberPermissions: &adminPerm},
		{Name: "check-tickets", Description: "Show active ticket status", DefaultMemberPermissions: &adminPerm},
		{
			Name: "clear-user-tickets", Description: "Clear active tickets for one user",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to clear", Required: true},
			},
		},
		{Name: "fix-permissions", Description: "Check and repair the bot's permissions", DefaultMemberPermissions: &adminPerm},
		{Name: "stats", Description: "Show server statistics", DefaultMemberPermissions: &adminPerm},
		{Name: "info", Description: "Show bot information", DefaultMemberPermissions: &adminPerm},
	}
	return append(cmds, utilityCommands()...)
}

func Register(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" {
			return
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			handleSlashCommand(s, i)
		case discordgo.InteractionMessageComponent:
			handleComponent(s, i)
		}
	})
}

func handleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	if !isAdmin(s, i) {
		respond(s, i, "This command is restricted to Administrators only.", true)
		return
	}

	switch name {
	case "setup":
		handleSetup(s, i)
	case "fresh":
		handleFresh(s, i)
	case "cleanup":
		handleCleanup(s, i)
	case "language-setup":
		handleLanguageSetup(s, i)
	case "refresh-support":
		handleRefreshSupport(s, i)
	case "clear-support":
		handleClearSupport(s, i)
	case "reset-tickets":
		handleResetTickets(s, i)
	case "check-tickets":
		handleCheckTickets(s, i)
	case "clear-user-tickets":
		handleClearUserTickets(s, i)
	case "fix-permissions":
		handleFixPermissions(s, i)
	case "stats":
		handleStats(s, i)
	case "info":
		handleInfo(s, i)
	case "say":
		handleSay(s, i)
	case "embed":
		handleEmbed(s, i)
	default:
		log.Printf("Unknown command: %s", name)
	}
}

func handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch {
	case customID == "language_english":
		handleLanguageButton(s, i, "english")
	case customID == "language_russian":
		handleLanguageButton(s, i, "russian")
	case customID == "simple_ticket_english":
		handleTicketButton(s, i, "english")
	case customID == "simple_ticket_russian":
		handleTicketButton(s, i, "russian")
	case strings.HasPrefix(customID, "close_ticket_"):
		handleCloseButton(s, i, customID)
	case customID == "fresh_confirm":
		handleFreshConfirm(s, i)
	case customID == "fresh_cancel":
		handleFreshCancel(s, i)
	default:
		log.Printf("Unknown component: %s", customID)
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		log.Printf("Failed to respond: %v", err)
	}
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

func followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		m[opt.Name] = opt
	}
	return m
}

func roleByName(s *discordgo.Session, guildID, name string) *discordgo.Role {
	roles, err := s.GuildRoles(guildID)
	if err != nil {
		return nil
	}
	for _, r := range roles {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func memberHasRoleName(s *discordgo.Session, guildID string, member *discordgo.Member, name string) bool {
	role := roleByName(s, guildID, name)
	if role == nil || member == nil {
		return false
	}
	for _, id := range member.Roles {
		if id == role.ID {
			return true
		}
	}
	return false
}

func isAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return memberHasRoleName(s, i.GuildID, i.Member, storage.Cfg.Roles.Admin)
}
