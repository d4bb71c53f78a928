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

var (
	TicketSvc    *support.TicketService
	LangAssigner *support.Assigner
)

// InitSupport wires the ticket and language services to a live session.
// Must be called after the session is created and the config is loaded.
func InitSupport(s *discordgo.Session, cfg *config.Config) {
	platform := &discordPlatform{s: s}
	audit := newDatabaseAudit()

	TicketSvc = support.NewTicketService(platform, audit, support.TicketConfig{
		CooldownWindow: cfg.Tickets.Cooldown(),
		PacingDelay:    cfg.Tickets.Pacing(),
		ArchiveDelay:   cfg.Tickets.ArchiveDelay(),
		SharedRegistry: cfg.Tickets.SharedRegistry,
		AdminRole:      cfg.Roles.Admin,
		ModeratorRole:  cfg.Roles.Moderator,
	})
	LangAssigner = support.NewAssigner(platform, audit, support.AssignerConfig{
		EnglishRole: cfg.Roles.English,
		RussianRole: cfg.Roles.Russian,
	}, support.NewCooldown(cfg.Language.Cooldown()))
}

const threadPerms = discordgo.PermissionCreatePublicThreads |
	discordgo.PermissionSendMessagesInThreads |
	discordgo.PermissionManageThreads

// discordPlatform adapts a discordgo session to the support.Platform interface.
type discordPlatform struct {
	s *discordgo.Session
}

func (p *discordPlatform) CanCreateThread(channelID string) bool {
	botID := p.s.State.User.ID
	perms, err := p.s.State.UserChannelPermissions(botID, channelID)
	if err != nil {
		perms, err = p.s.UserChannelPermissions(botID, channelID)
		if err != nil {
			log.Printf("[Tickets] Permission lookup failed for %s: %v", channelID, err)
			return false
		}
	}
	return perms&threadPerms == threadPerms || perms&discordgo.PermissionAdministrator != 0
}

func (p *discordPlatform) CreateThread(channelID, name string) (string, error) {
	thread, err := p.s.ThreadStart(channelID, name, discordgo.ChannelTypeGuildPublicThread, 10080)
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (p *discordPlatform) AddThreadMember(threadID, userID string) error {
	return p.s.ThreadMemberAdd(threadID, userID)
}

func (p *discordPlatform) SendNotice(channelID string, n support.Notice, control *support.CloseControl) error {
	msg := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{noticeEmbed(n)}}
	if control != nil {
		tag := control.Locale.Tag()
		msg.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    lang.T(tag, "ticket_close_button"),
						Style:    discordgo.DangerButton,
						CustomID: fmt.Sprintf("close_ticket_%s:%s", tag, control.OwnerID),
						Emoji:    &discordgo.ComponentEmoji{Name: "🔒"},
					},
				},
			},
		}
	}
	_, err := p.s.ChannelMessageSendComplex(channelID, msg)
	return err
}

func (p *discordPlatform) ArchiveThread(threadID string) error {
	archived := true
	locked := false
	_, err := p.s.ChannelEditComplex(threadID, &discordgo.ChannelEdit{Archived: &archived, Locked: &locked})
	return err
}

func (p *discordPlatform) RoleExists(guildID, roleName string) bool {
	return roleByName(p.s, guildID, roleName) != nil
}

func (p *discordPlatform) RoleMembers(guildID, roleName string) ([]string, error) {
	role := roleByName(p.s, guildID, roleName)
	if role == nil {
		return nil, nil
	}

	var ids []string
	after := ""
	for {
		members, err := p.s.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			break
		}
		for _, m := range members {
			if m.User == nil || m.User.Bot {
				continue
			}
			for _, rid := range m.Roles {
				if rid == role.ID {
					ids = append(ids, m.User.ID)
					break
				}
			}
		}
		after = members[len(members)-1].User.ID
		if len(members) < 1000 {
			break
		}
	}
	return ids, nil
}

func (p *discordPlatform) MemberHasRole(guildID, userID, roleName string) bool {
	member, err := p.s.State.Member(guildID, userID)
	if err != nil {
		member, err = p.s.GuildMember(guildID, userID)
		if err != nil {
			return false
		}
	}
	return memberHasRoleName(p.s, guildID, member, roleName)
}

func (p *discordPlatform) SwapRoles(guildID, userID string, remove []string, add string) error {
	member, err := p.s.GuildMember(guildID, userID)
	if err != nil {
		return err
	}

	held := make(map[string]bool, len(member.Roles))
	for _, rid := range member.Roles {
		held[rid] = true
	}

	for _, name := range remove {
		role := roleByName(p.s, guildID, name)
		if role == nil || !held[role.ID] {
			continue
		}
		if err := p.s.GuildMemberRoleRemove(guildID, userID, role.ID); err != nil {
			return err
		}
	}

	role := roleByName(p.s, guildID, add)
	if role == nil {
		return fmt.Errorf("role %q not found", add)
	}
	return p.s.GuildMemberRoleAdd(guildID, userID, role.ID)
}

func (p *discordPlatform) DirectMessage(userID string, n support.Notice) error {
	ch, err := p.s.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = p.s.ChannelMessageSendEmbed(ch.ID, noticeEmbed(n))
	return err
}

func noticeEmbed(n support.Notice) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Body,
		Color:       n.Color,
	}
}

// interactionReplier surfaces ticket flow notices through one interaction.
type interactionReplier struct {
	s *discordgo.Session
	i *discordgo.InteractionCreate
}

func (r *interactionReplier) Ephemeral(n support.Notice) error {
	return r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{noticeEmbed(n)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func (r *interactionReplier) Public(n support.Notice) error {
	return r.s.InteractionRespond(r.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{noticeEmbed(n)},
		},
	})
}

func (r *interactionReplier) Edit(n support.Notice) error {
	embeds := []*discordgo.MessageEmbed{noticeEmbed(n)}
	_, err := r.s.InteractionResponseEdit(r.i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	return err
}

func (r *interactionReplier) FollowUp(n support.Notice) error {
	_, err := r.s.FollowupMessageCreate(r.i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{noticeEmbed(n)},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	return err
}

// databaseAudit records support events through the configured database.
type databaseAudit struct{}

func newDatabaseAudit() support.Audit {
	if storage.DB == nil {
		return support.NopAudit{}
	}
	return databaseAudit{}
}

func (databaseAudit) record(ev storage.Event) {
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if err := storage.DB.AddEvent(ev); err != nil {
		log.Printf("[Audit] Failed to record %s: %v", ev.Action, err)
	}
}

func (a databaseAudit) TicketOpened(guildID, ownerID, threadID string, locale support.Locale) {
	a.record(storage.Event{GuildID: guildID, UserID: ownerID, ActorID: ownerID, Action: storage.EventTicketOpened, Language: string(locale), ThreadID: threadID})
}

func (a databaseAudit) TicketClosed(guildID, ownerID, closerID, threadID string, locale support.Locale) {
	a.record(storage.Event{GuildID: guildID, UserID: ownerID, ActorID: closerID, Action: storage.EventTicketClosed, Language: string(locale), ThreadID: threadID})
}

func (a databaseAudit) LanguageSelected(guildID, userID string, locale support.Locale) {
	a.record(storage.Event{GuildID: guildID, UserID: userID, ActorID: userID, Action: storage.EventLanguageSelected, Language: string(locale)})
}

func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

func handleTicketButton(s *discordgo.Session, i *discordgo.InteractionCreate, locale support.Locale) {
	if TicketSvc == nil {
		return
	}

	req := support.CreateRequest{
		GuildID:     i.GuildID,
		ChannelID:   i.ChannelID,
		UserID:      i.Member.User.ID,
		DisplayName: displayName(i.Member),
		Locale:      locale,
		Reply:       &interactionReplier{s: s, i: i},
	}

	go func() {
		if err := TicketSvc.Create(req); err != nil {
			log.Printf("[Tickets] Create for %s (%s): %v", req.UserID, locale, err)
		}
	}()
}

func handleCloseButton(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	if TicketSvc == nil {
		return
	}

	rest := strings.TrimPrefix(customID, "close_ticket_")
	tag, ownerID, ok := strings.Cut(rest, ":")
	if !ok {
		log.Printf("[Tickets] Malformed close control: %s", customID)
		return
	}
	locale := support.English
	if tag == "ru" {
		locale = support.Russian
	}

	req := support.CloseRequest{
		GuildID:  i.GuildID,
		ThreadID: i.ChannelID,
		OwnerID:  ownerID,
		CloserID: i.Member.User.ID,
		Locale:   locale,
		Reply:    &interactionReplier{s: s, i: i},
	}

	go func() {
		if err := TicketSvc.Close(req); err != nil {
			log.Printf("[Tickets] Close %s by %s: %v", req.ThreadID, req.CloserID, err)
		}
	}()
}
