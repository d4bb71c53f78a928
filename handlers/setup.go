package handlers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"csmc-bot/config"
	"csmc-bot/lang"
	"csmc-bot/storage"
	"csmc-bot/support"

	"github.com/bwmarrin/discordgo"
)

// Role permission sets. Members start restrictive; per-channel
// overwrites open up what each category allows.
const (
	basicMemberPerms = discordgo.PermissionViewChannel |
		discordgo.PermissionAddReactions |
		discordgo.PermissionReadMessageHistory

	moderatorPerms = basicMemberPerms |
		discordgo.PermissionSendMessages |
		discordgo.PermissionManageMessages |
		discordgo.PermissionManageChannels |
		discordgo.PermissionKickMembers |
		discordgo.PermissionBanMembers |
		discordgo.PermissionUseExternalEmojis |
		discordgo.PermissionEmbedLinks |
		discordgo.PermissionAttachFiles |
		discordgo.PermissionMentionEveryone |
		discordgo.PermissionManageThreads |
		discordgo.PermissionVoiceConnect |
		discordgo.PermissionVoiceSpeak |
		discordgo.PermissionVoiceMuteMembers |
		discordgo.PermissionVoiceDeafenMembers |
		discordgo.PermissionVoiceMoveMembers

	botRolePerms = basicMemberPerms |
		discordgo.PermissionSendMessages |
		discordgo.PermissionManageMessages |
		discordgo.PermissionManageChannels |
		discordgo.PermissionManageRoles |
		discordgo.PermissionUseExternalEmojis |
		discordgo.PermissionEmbedLinks |
		discordgo.PermissionAttachFiles |
		discordgo.PermissionMentionEveryone |
		discordgo.PermissionManageThreads |
		discordgo.PermissionCreatePublicThreads |
		discordgo.PermissionCreatePrivateThreads |
		discordgo.PermissionSendMessagesInThreads |
		discordgo.PermissionVoiceConnect |
		discordgo.PermissionVoiceSpeak

	languageRolePerms = discordgo.PermissionViewChannel | discordgo.PermissionAddReactions
)

type roleSpec struct {
	name  string
	perms int64
	color int
	hoist bool
}

func roleSpecs() []roleSpec {
	r := storage.Cfg.Roles
	return []roleSpec{
		{r.Admin, int64(discordgo.PermissionAdministrator), 0xe74c3c, true},
		{r.Moderator, moderatorPerms, 0xe67e22, true},
		{r.Bot, botRolePerms, 0x3498db, true},
		{r.Member, basicMemberPerms, 0x2ecc71, false},
		{r.English, languageRolePerms, 0x007bff, false},
		{r.Russian, languageRolePerms, 0xffc107, false},
	}
}

func handleSetup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🔧 Setting Up Server",
		Description: "Creating the complete bilingual server structure.\nThis may take a few minutes.",
		Color:       support.ColorInfo,
	}, false)

	go func() {
		if err := provisionGuild(s, i.GuildID); err != nil {
			log.Printf("[Setup] Provisioning failed: %v", err)
			followup(s, i, fmt.Sprintf("Setup failed: %v", err))
			return
		}
		_, _ = s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "✅ Server Setup Complete",
				Description: "The bilingual community structure has been created.\nNew members can now select their language and get started.",
				Color:       support.ColorSuccess,
			}},
		})
	}()
}

// provisionGuild builds the whole managed structure: roles first, then
// the stats, language-selection, English and Russian category trees.
func provisionGuild(s *discordgo.Session, guildID string) error {
	roleIDs, err := ensureRoles(s, guildID)
	if err != nil {
		return err
	}
	return buildStructure(s, guildID, roleIDs)
}

// ensureRoles creates any missing managed role and returns name -> ID.
// Existing roles are reused, not recreated.
func ensureRoles(s *discordgo.Session, guildID string) (map[string]string, error) {
	roles, err := s.GuildRoles(guildID)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]string, len(roles))
	for _, r := range roles {
		existing[r.Name] = r.ID
	}

	ids := make(map[string]string)
	for _, spec := range roleSpecs() {
		if id, ok := existing[spec.name]; ok {
			ids[spec.name] = id
			continue
		}
		perms := spec.perms
		color := spec.color
		hoist := spec.hoist
		role, err := s.GuildRoleCreate(guildID, &discordgo.RoleParams{
			Name:        spec.name,
			Permissions: &perms,
			Color:       &color,
			Hoist:       &hoist,
		})
		if err != nil {
			return nil, fmt.Errorf("create role %q: %w", spec.name, err)
		}
		log.Printf("[Setup] Created role %s", spec.name)
		ids[spec.name] = role.ID
	}
	return ids, nil
}

// staffOverwrites hides a channel from @everyone and opens it to the
// admin, moderator and bot roles.
func staffOverwrites(guildID string, roleIDs map[string]string) []*discordgo.PermissionOverwrite {
	r := storage.Cfg.Roles
	staffAllow := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionManageMessages)
	ows := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
	}
	for _, name := range []string{r.Admin, r.Moderator, r.Bot} {
		if id, ok := roleIDs[name]; ok {
			ows = append(ows, &discordgo.PermissionOverwrite{
				ID: id, Type: discordgo.PermissionOverwriteTypeRole, Allow: staffAllow,
			})
		}
	}
	return ows
}

func withLanguageOverwrite(base []*discordgo.PermissionOverwrite, roleID string, writable bool) []*discordgo.PermissionOverwrite {
	allow := int64(discordgo.PermissionViewChannel | discordgo.PermissionAddReactions | discordgo.PermissionReadMessageHistory)
	deny := int64(0)
	if writable {
		allow |= discordgo.PermissionSendMessages
		deny = discordgo.PermissionEmbedLinks | discordgo.PermissionAttachFiles
	} else {
		deny = discordgo.PermissionSendMessages
	}
	out := make([]*discordgo.PermissionOverwrite, len(base), len(base)+1)
	copy(out, base)
	return append(out, &discordgo.PermissionOverwrite{
		ID: roleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: allow, Deny: deny,
	})
}

func createCategory(s *discordgo.Session, guildID, name string, ows []*discordgo.PermissionOverwrite) (*discordgo.Channel, error) {
	return s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: ows,
	})
}

func buildStructure(s *discordgo.Session, guildID string, roleIDs map[string]string) error {
	base := staffOverwrites(guildID, roleIDs)

	// Stats category with two voice counters.
	stats, err := createCategory(s, guildID, config.CategoryServerStats, base)
	if err != nil {
		return err
	}
	total, online := memberCounts(s, guildID)
	for _, name := range []string{
		fmt.Sprintf(config.ChannelTotalMembersFmt, total),
		fmt.Sprintf(config.ChannelOnlineMembersFmt, online),
	} {
		_, err = s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
			Name:     name,
			Type:     discordgo.ChannelTypeGuildVoice,
			ParentID: stats.ID,
		})
		if err != nil {
			return err
		}
	}

	// Language selection, visible to everyone but read-only.
	langOws := append([]*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory,
			Deny:  discordgo.PermissionSendMessages},
	}, base[1:]...)
	langCat, err := createCategory(s, guildID, config.CategoryLanguageSelection, langOws)
	if err != nil {
		return err
	}
	langCh, err := s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 config.ChannelChooseLanguage,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             langCat.ID,
		PermissionOverwrites: langOws,
	})
	if err != nil {
		return err
	}
	if err := postLanguagePanel(s, langCh.ID); err != nil {
		return err
	}

	if err := buildLanguageTree(s, guildID, roleIDs[storage.Cfg.Roles.English], support.English, config.EnglishStructure(), base); err != nil {
		return err
	}
	return buildLanguageTree(s, guildID, roleIDs[storage.Cfg.Roles.Russian], support.Russian, config.RussianStructure(), base)
}

func buildLanguageTree(s *discordgo.Session, guildID, roleID string, locale support.Locale, sets []config.ChannelSet, base []*discordgo.PermissionOverwrite) error {
	for idx, set := range sets {
		// Welcome (first set) and support (last set) are read-only for
		// the language role; community and trading are writable.
		writable := idx != 0 && idx != len(sets)-1

		cat, err := createCategory(s, guildID, set.Category, base)
		if err != nil {
			return err
		}
		for _, chName := range set.Channels {
			ows := withLanguageOverwrite(base, roleID, writable)
			ch, err := s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
				Name:                 chName,
				Type:                 discordgo.ChannelTypeGuildText,
				ParentID:             cat.ID,
				PermissionOverwrites: ows,
			})
			if err != nil {
				return err
			}
			if chName == config.ChannelENSupport || chName == config.ChannelRUSupport {
				if err := postSupportPanel(s, ch.ID, locale); err != nil {
					return err
				}
			} else if err := postChannelIntro(s, ch, locale); err != nil {
				log.Printf("[Setup] Intro for %s: %v", chName, err)
			}
		}
	}
	return nil
}

func postLanguagePanel(s *discordgo.Session, channelID string) error {
	embed := &discordgo.MessageEmbed{
		Title:       lang.T("en", "panel_language_title"),
		Description: lang.T("en", "panel_language_body"),
		Color:       support.ColorPrimary,
	}
	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "🇺🇸 English", Style: discordgo.PrimaryButton, CustomID: "language_english"},
					discordgo.Button{Label: "🇷🇺 Русский", Style: discordgo.PrimaryButton, CustomID: "language_russian"},
				},
			},
		},
	})
	return err
}

func postSupportPanel(s *discordgo.Session, channelID string, locale support.Locale) error {
	tag := locale.Tag()
	customID := "simple_ticket_english"
	if locale == support.Russian {
		customID = "simple_ticket_russian"
	}
	embed := &discordgo.MessageEmbed{
		Title:       lang.T(tag, "panel_support_title"),
		Description: lang.T(tag, "panel_support_body"),
		Color:       support.ColorInfo,
	}
	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    lang.T(tag, "ticket_open_button"),
						Style:    discordgo.SuccessButton,
						CustomID: customID,
					},
				},
			},
		},
	})
	return err
}

// postChannelIntro drops a pinned-style intro into freshly created
// channels so they are not empty on first visit.
func postChannelIntro(s *discordgo.Session, ch *discordgo.Channel, locale support.Locale) error {
	tag := locale.Tag()
	var key string
	var color int
	switch {
	case strings.Contains(ch.Name, "announcements") || strings.Contains(ch.Name, "объявления"):
		key, color = "intro_announcements", support.ColorPrimary
	case strings.Contains(ch.Name, "general") || strings.Contains(ch.Name, "общий"):
		key, color = "intro_general", support.ColorInfo
	case strings.Contains(ch.Name, "market") || strings.Contains(ch.Name, "рынок"):
		key, color = "intro_market", support.ColorSuccess
	default:
		return nil
	}
	_, err := s.ChannelMessageSendEmbed(ch.ID, &discordgo.MessageEmbed{
		Title:       lang.T(tag, key+"_title"),
		Description: lang.T(tag, key+"_body"),
		Color:       color,
	})
	return err
}

func handleFresh(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title: "⚠️ DANGEROUS OPERATION",
				Description: "This will **COMPLETELY WIPE** the server and recreate it from scratch.\n\n" +
					"**This will delete:**\n• All channels\n• All roles (except protected)\n• All messages\n\n" +
					"Confirm below to proceed.",
				Color: support.ColorError,
			}},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "Wipe and Rebuild", Style: discordgo.DangerButton, CustomID: "fresh_confirm"},
						discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: "fresh_cancel"},
					},
				},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func handleFreshConfirm(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(s, i) {
		respond(s, i, "This command is restricted to Administrators only.", true)
		return
	}
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🔄 Fresh Setup Starting",
		Description: "Starting complete server wipe and recreation.\nThis may take several minutes.",
		Color:       support.ColorInfo,
	}, true)

	go func() {
		if err := wipeGuild(s, i.GuildID); err != nil {
			log.Printf("[Setup] Wipe failed: %v", err)
			return
		}
		if err := provisionGuild(s, i.GuildID); err != nil {
			log.Printf("[Setup] Rebuild failed: %v", err)
		}
	}()
}

func handleFreshCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "❌ Cancelled",
		Description: "Fresh setup cancelled.",
		Color:       support.ColorWarning,
	}, true)
}

// wipeGuild removes every channel and every deletable role. Managed
// (integration) roles and @everyone are left alone.
func wipeGuild(s *discordgo.Session, guildID string) error {
	channels, err := s.GuildChannels(guildID)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		if _, err := s.ChannelDelete(ch.ID); err != nil {
			log.Printf("[Setup] Delete channel %s: %v", ch.Name, err)
		}
	}

	roles, err := s.GuildRoles(guildID)
	if err != nil {
		return err
	}
	for _, r := range roles {
		if r.ID == guildID || r.Managed {
			continue
		}
		if err := s.GuildRoleDelete(guildID, r.ID); err != nil {
			log.Printf("[Setup] Delete role %s: %v", r.Name, err)
		}
	}
	return nil
}

func handleCleanup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🧹 Cleaning Up Server",
		Description: "Removing the bot-managed channels and roles.",
		Color:       support.ColorInfo,
	}, false)

	go func() {
		managed := make(map[string]bool)
		for _, name := range config.AllCategories() {
			managed[name] = true
		}
		for _, name := range config.AllManagedChannels() {
			managed[name] = true
		}

		channels, err := s.GuildChannels(i.GuildID)
		if err != nil {
			log.Printf("[Setup] Cleanup list channels: %v", err)
			return
		}
		deleted := 0
		for _, ch := range channels {
			if managed[ch.Name] || strings.HasPrefix(ch.Name, config.StatTotalPrefix) || strings.HasPrefix(ch.Name, config.StatOnlinePrefix) {
				if _, err := s.ChannelDelete(ch.ID); err == nil {
					deleted++
				}
			}
		}

		removed := 0
		for _, spec := range roleSpecs() {
			if role := roleByName(s, i.GuildID, spec.name); role != nil {
				if err := s.GuildRoleDelete(i.GuildID, role.ID); err == nil {
					removed++
				}
			}
		}

		_, _ = s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "✅ Cleanup Complete",
				Description: fmt.Sprintf("Deleted %d channels and %d roles.", deleted, removed),
				Color:       support.ColorSuccess,
			}},
		})
	}()
}

func handleLanguageSetup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ch := textChannelByName(s, i.GuildID, config.ChannelChooseLanguage)
	if ch == nil {
		respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "❌ Channel Not Found",
			Description: fmt.Sprintf("Could not find the %s channel. Run `/setup` first.", config.ChannelChooseLanguage),
			Color:       support.ColorError,
		}, true)
		return
	}
	if err := postLanguagePanel(s, ch.ID); err != nil {
		respond(s, i, fmt.Sprintf("Failed to post the language panel: %v", err), true)
		return
	}
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "✅ Language Selection Ready",
		Description: fmt.Sprintf("Posted the language selection panel in <#%s>.", ch.ID),
		Color:       support.ColorSuccess,
	}, true)
}

func handleRefreshSupport(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🔄 Refreshing Support Channels",
		Description: "Clearing old panels and posting fresh ones.",
		Color:       support.ColorInfo,
	}, true)

	go func() {
		var updated []string
		for _, target := range []struct {
			name   string
			locale support.Locale
			label  string
		}{
			{config.ChannelENSupport, support.English, "English"},
			{config.ChannelRUSupport, support.Russian, "Russian"},
		} {
			ch := textChannelByName(s, i.GuildID, target.name)
			if ch == nil {
				continue
			}
			cleared := purgeOwnMessages(s, ch.ID)
			if err := postSupportPanel(s, ch.ID, target.locale); err != nil {
				log.Printf("[Setup] Support panel for %s: %v", target.name, err)
				continue
			}
			updated = append(updated, fmt.Sprintf("%s (%d old messages cleared)", target.label, cleared))
		}

		if len(updated) == 0 {
			followup(s, i, "Could not find support channels. Run `/setup` first.")
			return
		}
		followup(s, i, "Refreshed support channels:\n• "+strings.Join(updated, "\n• "))
	}()
}

func handleClearSupport(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🧹 Clearing Support Channels",
		Description: "Removing all bot messages from the support channels.",
		Color:       support.ColorInfo,
	}, true)

	go func() {
		var cleared []string
		for _, target := range []struct{ name, label string }{
			{config.ChannelENSupport, "English"},
			{config.ChannelRUSupport, "Russian"},
		} {
			ch := textChannelByName(s, i.GuildID, target.name)
			if ch == nil {
				continue
			}
			n := purgeOwnMessages(s, ch.ID)
			cleared = append(cleared, fmt.Sprintf("%s (%d messages)", target.label, n))
		}

		if len(cleared) == 0 {
			followup(s, i, "Could not find support channels to clear.")
			return
		}
		followup(s, i, "Cleared channels:\n• "+strings.Join(cleared, "\n• ")+"\n\nUse `/refresh-support` to post new panels.")
	}()
}

// purgeOwnMessages deletes every message the bot authored in a channel,
// paging backwards through the history.
func purgeOwnMessages(s *discordgo.Session, channelID string) int {
	botID := s.State.User.ID
	deleted := 0
	before := ""
	for {
		msgs, err := s.ChannelMessages(channelID, 100, before, "", "")
		if err != nil || len(msgs) == 0 {
			break
		}
		for _, m := range msgs {
			if m.Author != nil && m.Author.ID == botID {
				if err := s.ChannelMessageDelete(channelID, m.ID); err == nil {
					deleted++
					time.Sleep(100 * time.Millisecond)
				}
			}
		}
		before = msgs[len(msgs)-1].ID
		if len(msgs) < 100 {
			break
		}
	}
	return deleted
}

func handleResetTickets(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cleared := 0
	if TicketSvc != nil {
		cleared = TicketSvc.ClearAll()
	}
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "✅ Ticket System Reset",
		Description: fmt.Sprintf("Cleared %d stuck active tickets.\nUsers can now create new tickets normally.", cleared),
		Color:       support.ColorSuccess,
	}, true)
}

func handleCheckTickets(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if TicketSvc == nil {
		respond(s, i, "The ticket system is not running.", true)
		return
	}

	var parts []string
	for _, entry := range []struct {
		locale support.Locale
		label  string
	}{
		{support.English, "English Support"},
		{support.Russian, "Russian Support"},
	} {
		subjects := TicketSvc.Registry(entry.locale).Subjects()
		if len(subjects) == 0 {
			parts = append(parts, fmt.Sprintf("**%s:** No active tickets", entry.label))
			continue
		}
		lines := make([]string, 0, len(subjects))
		for _, id := range subjects {
			lines = append(lines, "• "+memberLabel(s, i.GuildID, id))
		}
		parts = append(parts, fmt.Sprintf("**%s:** %d active tickets\n%s", entry.label, len(subjects), strings.Join(lines, "\n")))
	}

	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🎫 Active Tickets Status",
		Description: strings.Join(parts, "\n\n"),
		Color:       support.ColorInfo,
	}, true)
}

func handleClearUserTickets(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	user := opts["user"].UserValue(s)

	cleared := 0
	if TicketSvc != nil {
		cleared = TicketSvc.ReleaseEverywhere(user.ID)
	}

	desc := fmt.Sprintf("Cleared %d active tickets for <@%s>.\nThe user can now create new tickets.", cleared, user.ID)
	if history := recentEventLines(i.GuildID, user.ID, 5); len(history) > 0 {
		desc += "\n\n**Recent history:**\n" + strings.Join(history, "\n")
	}

	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🧹 User Tickets Cleared",
		Description: desc,
		Color:       support.ColorSuccess,
	}, true)
}

// recentEventLines formats the user's latest audit events, newest
// first. Empty when the event store is unavailable.
func recentEventLines(guildID, userID string, limit int) []string {
	if storage.DB == nil {
		return nil
	}
	events, err := storage.DB.GetEvents(guildID, userID, limit)
	if err != nil {
		log.Printf("[Audit] Event history for %s: %v", userID, err)
		return nil
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		line := fmt.Sprintf("• `%s` %s (%s)", ev.Timestamp, ev.Action, ev.Language)
		if ev.ThreadID != "" {
			line += " in <#" + ev.ThreadID + ">"
		}
		lines = append(lines, line)
	}
	return lines
}

func handleFixPermissions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🔧 Checking Bot Permissions",
		Description: "Analyzing bot permissions and role assignment.",
		Color:       support.ColorInfo,
	}, true)

	go func() {
		var issues, fixes []string
		guildID := i.GuildID
		botID := s.State.User.ID

		botRole := roleByName(s, guildID, storage.Cfg.Roles.Bot)
		if botRole == nil {
			issues = append(issues, "❌ Bot role not found")
			perms := int64(botRolePerms)
			color := 0x3498db
			hoist := true
			created, err := s.GuildRoleCreate(guildID, &discordgo.RoleParams{
				Name: storage.Cfg.Roles.Bot, Permissions: &perms, Color: &color, Hoist: &hoist,
			})
			if err != nil {
				issues = append(issues, fmt.Sprintf("❌ Failed to create bot role: %v", err))
			} else {
				botRole = created
				fixes = append(fixes, "✅ Created bot role")
			}
		}

		if botRole != nil {
			member, err := s.GuildMember(guildID, botID)
			if err == nil && !memberHasRoleName(s, guildID, member, botRole.Name) {
				if err := s.GuildMemberRoleAdd(guildID, botID, botRole.ID); err != nil {
					issues = append(issues, fmt.Sprintf("❌ Failed to add bot role: %v", err))
				} else {
					fixes = append(fixes, "✅ Added bot role to bot")
				}
			}
		}

		for _, name := range []string{config.ChannelENSupport, config.ChannelRUSupport} {
			ch := textChannelByName(s, guildID, name)
			if ch == nil {
				continue
			}
			perms, err := s.State.UserChannelPermissions(botID, ch.ID)
			if err != nil {
				perms, err = s.UserChannelPermissions(botID, ch.ID)
			}
			if err != nil {
				issues = append(issues, fmt.Sprintf("❌ %s: permission check failed: %v", name, err))
				continue
			}
			var missing []string
			for _, need := range []struct {
				bit   int64
				label string
			}{
				{discordgo.PermissionViewChannel, "view_channel"},
				{discordgo.PermissionSendMessages, "send_messages"},
				{discordgo.PermissionCreatePublicThreads, "create_public_threads"},
				{discordgo.PermissionManageThreads, "manage_threads"},
			} {
				if perms&need.bit == 0 {
					missing = append(missing, need.label)
				}
			}
			if len(missing) == 0 {
				fixes = append(fixes, fmt.Sprintf("✅ %s: permissions OK", name))
				continue
			}
			issues = append(issues, fmt.Sprintf("❌ %s: missing %s", name, strings.Join(missing, ", ")))
			if botRole != nil {
				allow := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
					discordgo.PermissionManageMessages | discordgo.PermissionManageThreads |
					discordgo.PermissionCreatePublicThreads | discordgo.PermissionCreatePrivateThreads |
					discordgo.PermissionSendMessagesInThreads)
				if err := s.ChannelPermissionSet(ch.ID, botRole.ID, discordgo.PermissionOverwriteTypeRole, allow, 0); err != nil {
					issues = append(issues, fmt.Sprintf("❌ Failed to fix %s: %v", name, err))
				} else {
					fixes = append(fixes, fmt.Sprintf("✅ Fixed permissions in %s", name))
				}
			}
		}

		var parts []string
		if len(issues) > 0 {
			parts = append(parts, "**Issues Found:**\n"+strings.Join(issues, "\n"))
		}
		if len(fixes) > 0 {
			parts = append(parts, "**Actions Taken:**\n"+strings.Join(fixes, "\n"))
		}
		if len(issues) == 0 {
			parts = append(parts, "**All permissions are correctly configured! ✅**")
		}
		color := support.ColorSuccess
		if len(issues) > 0 {
			color = support.ColorWarning
		}
		_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "🔧 Bot Permission Check Complete",
				Description: strings.Join(parts, "\n\n"),
				Color:       color,
			}},
			Flags: discordgo.MessageFlagsEphemeral,
		})
	}()
}

func handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		respond(s, i, "Guild state unavailable, try again shortly.", true)
		return
	}
	total, online := memberCounts(s, i.GuildID)

	platform := &discordPlatform{s: s}
	english, _ := platform.RoleMembers(i.GuildID, storage.Cfg.Roles.English)
	russian, _ := platform.RoleMembers(i.GuildID, storage.Cfg.Roles.Russian)

	categories, text, voice := 0, 0, 0
	for _, ch := range guild.Channels {
		switch ch.Type {
		case discordgo.ChannelTypeGuildCategory:
			categories++
		case discordgo.ChannelTypeGuildText:
			text++
		case discordgo.ChannelTypeGuildVoice:
			voice++
		}
	}

	noLanguage := total - len(english) - len(russian)
	if noLanguage < 0 {
		noLanguage = 0
	}

	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "📊 Server Statistics",
		Description: fmt.Sprintf("Statistics for **%s**", guild.Name),
		Color:       support.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👥 Member Statistics", Value: fmt.Sprintf("**Total Members:** %d\n**Online Members:** %d", total, online), Inline: true},
			{Name: "🌐 Language Distribution", Value: fmt.Sprintf("**English:** %d\n**Russian:** %d\n**No Language:** %d", len(english), len(russian), noLanguage), Inline: true},
			{Name: "📁 Server Structure", Value: fmt.Sprintf("**Categories:** %d\n**Text Channels:** %d\n**Voice Channels:** %d", categories, text, voice), Inline: true},
		},
	}, true)
}

func handleInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "ℹ️ Bot Information",
		Description: "CSMarketCap Discord Bot for the CS2 Trading Community",
		Color:       support.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🤖 Bot", Value: fmt.Sprintf("**Name:** %s\n**ID:** %s\n**Servers:** %d", s.State.User.Username, s.State.User.ID, len(s.State.Guilds)), Inline: false},
			{Name: "🎯 Features", Value: "• Bilingual server setup (EN/RU)\n• Language role management\n• Support ticket system\n• Live member statistics\n• Admin-only command system", Inline: false},
		},
	}, true)
}

// memberLabel renders a mention plus the resolved member name, so the
// listing stays readable for users who have since left the guild.
func memberLabel(s *discordgo.Session, guildID, userID string) string {
	member, err := s.State.Member(guildID, userID)
	if err != nil {
		member, err = s.GuildMember(guildID, userID)
	}
	if err != nil || member.User == nil {
		return "<@" + userID + ">"
	}
	return fmt.Sprintf("<@%s> (%s)", userID, member.User.Username)
}

func textChannelByName(s *discordgo.Session, guildID, name string) *discordgo.Channel {
	channels, err := s.GuildChannels(guildID)
	if err != nil {
		return nil
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == name {
			return ch
		}
	}
	return nil
}

// memberCounts reads total and presence counts for a guild, falling
// back to the gateway state when the REST lookup fails.
func memberCounts(s *discordgo.Session, guildID string) (total, online int) {
	g, err := s.GuildWithCounts(guildID)
	if err == nil {
		return g.ApproximateMemberCount, g.ApproximatePresenceCount
	}
	if sg, err := s.State.Guild(guildID); err == nil {
		return sg.MemberCount, len(sg.Presences)
	}
	return 0, 0
}
