package support

import (
	"fmt"
	"log"
	"time"

	"csmc-bot/lang"
)

// Embed colours shared by both controllers.
const (
	ColorPrimary = 0x00ff88
	ColorSuccess = 0x00ff00
	ColorWarning = 0xffaa00
	ColorError   = 0xff0000
	ColorInfo    = 0x00aaff
)

// TicketConfig carries the tunables of the ticket lifecycle.
type TicketConfig struct {
	CooldownWindow time.Duration
	PacingDelay    time.Duration // between staff thread invites
	ArchiveDelay   time.Duration // grace between closing notice and archive

	// SharedRegistry collapses the per-language registries into one, so
	// a user may hold at most one ticket across both queues instead of
	// one per queue.
	SharedRegistry bool

	AdminRole     string
	ModeratorRole string

	Glyph string // thread name prefix
}

func (c *TicketConfig) defaults() {
	if c.CooldownWindow <= 0 {
		c.CooldownWindow = DefaultCooldown
	}
	if c.PacingDelay <= 0 {
		c.PacingDelay = 100 * time.Millisecond
	}
	if c.ArchiveDelay <= 0 {
		c.ArchiveDelay = 5 * time.Second
	}
	if c.Glyph == "" {
		c.Glyph = "🎫 "
	}
}

// TicketService runs the ticket lifecycle for both language queues.
// Every registry is held here, so closure cleanup never has to go
// looking for the view that issued a reservation.
type TicketService struct {
	platform Platform
	audit    Audit
	cfg      TicketConfig

	registries map[Locale]*Registry
	cooldowns  map[Locale]*Cooldown

	sleep func(time.Duration)
}

func NewTicketService(p Platform, audit Audit, cfg TicketConfig) *TicketService {
	cfg.defaults()
	if audit == nil {
		audit = NopAudit{}
	}

	t := &TicketService{
		platform:   p,
		audit:      audit,
		cfg:        cfg,
		registries: make(map[Locale]*Registry),
		cooldowns:  make(map[Locale]*Cooldown),
		sleep:      time.Sleep,
	}

	if cfg.SharedRegistry {
		shared := NewRegistry()
		t.registries[English] = shared
		t.registries[Russian] = shared
	} else {
		t.registries[English] = NewRegistry()
		t.registries[Russian] = NewRegistry()
	}
	t.cooldowns[English] = NewCooldown(cfg.CooldownWindow)
	t.cooldowns[Russian] = NewCooldown(cfg.CooldownWindow)
	return t
}

// Registry exposes one queue's registry for the admin surface.
func (t *TicketService) Registry(l Locale) *Registry { return t.registries[l] }

// ReleaseEverywhere drops the user from every registry and returns how
// many held a reservation.
func (t *TicketService) ReleaseEverywhere(userID string) int {
	n := 0
	seen := make(map[*Registry]struct{})
	for _, reg := range t.registries {
		if _, dup := seen[reg]; dup {
			continue
		}
		seen[reg] = struct{}{}
		if reg.Has(userID) {
			reg.Release(userID)
			n++
		}
	}
	return n
}

// ClearAll empties every registry and returns how many reservations
// were dropped.
func (t *TicketService) ClearAll() int {
	n := 0
	seen := make(map[*Registry]struct{})
	for _, reg := range t.registries {
		if _, dup := seen[reg]; dup {
			continue
		}
		seen[reg] = struct{}{}
		n += reg.Clear()
	}
	return n
}

type CreateRequest struct {
	GuildID     string
	ChannelID   string
	UserID      string
	DisplayName string
	Locale      Locale
	Reply       Replier
}

// Create turns one button press into a staffed support thread. The
// reservation is taken before the thread-creation call so a concurrent
// duplicate press is rejected instead of racing to a second thread.
func (t *TicketService) Create(req CreateRequest) error {
	tag := req.Locale.Tag()
	cd := t.cooldowns[req.Locale]
	reg := t.registries[req.Locale]

	if !t.platform.CanCreateThread(req.ChannelID) {
		log.Printf("[Ticket] Missing thread permission in channel %s", req.ChannelID)
		t.reply(req.Reply, Notice{
			Title: lang.T(tag, "ticket_perm_title"),
			Body:  lang.T(tag, "ticket_perm_body"),
			Color: ColorError,
		})
		return permissionDenied()
	}

	if on, left := cd.OnCooldown(req.UserID); on {
		t.reply(req.Reply, Notice{
			Title: lang.T(tag, "cooldown_title"),
			Body:  lang.T(tag, "ticket_cooldown_body", "seconds", fmt.Sprintf("%.1f", left.Seconds())),
			Color: ColorWarning,
		})
		return throttled(left)
	}

	if reg.Has(req.UserID) {
		t.reply(req.Reply, Notice{
			Title: lang.T(tag, "ticket_exists_title"),
			Body:  lang.T(tag, "ticket_exists_body"),
			Color: ColorError,
		})
		return duplicateTicket()
	}

	// Ack now: thread creation can outlive the platform's response
	// window.
	if err := req.Reply.Ephemeral(Notice{
		Title: lang.T(tag, "ticket_creating_title"),
		Body:  lang.T(tag, "ticket_creating_body"),
		Color: ColorInfo,
	}); err != nil {
		return platformErr(err)
	}

	cd.Set(req.UserID)
	if !reg.Reserve(req.UserID) {
		// A second press won the race between the check and here.
		t.edit(req.Reply, Notice{
			Title: lang.T(tag, "ticket_exists_title"),
			Body:  lang.T(tag, "ticket_exists_body"),
			Color: ColorError,
		})
		return duplicateTicket()
	}

	threadID, err := t.platform.CreateThread(req.ChannelID, t.cfg.Glyph+req.DisplayName)
	if err != nil {
		// Roll back the reservation; the cooldown stays so a failing
		// channel cannot be hammered.
		reg.Release(req.UserID)
		log.Printf("[Ticket] Thread creation failed for %s: %v", req.UserID, err)
		t.edit(req.Reply, Notice{
			Title: lang.T(tag, "ticket_perm_title"),
			Body:  lang.T(tag, "ticket_perm_body"),
			Color: ColorError,
		})
		return platformErr(err)
	}

	if err := t.platform.AddThreadMember(threadID, req.UserID); err != nil {
		log.Printf("[Ticket] Could not add creator %s to thread %s: %v", req.UserID, threadID, err)
	}

	t.inviteStaff(req.GuildID, threadID)

	welcome := Notice{
		Title: lang.T(tag, "ticket_welcome_title"),
		Body:  lang.T(tag, "ticket_welcome_body", "user", mention(req.UserID)),
		Color: ColorSuccess,
	}
	if err := t.platform.SendNotice(threadID, welcome, &CloseControl{OwnerID: req.UserID, Locale: req.Locale}); err != nil {
		reg.Release(req.UserID)
		log.Printf("[Ticket] Welcome message failed in thread %s: %v", threadID, err)
		t.edit(req.Reply, Notice{
			Title: lang.T(tag, "ticket_failed_title"),
			Body:  lang.T(tag, "ticket_failed_body"),
			Color: ColorError,
		})
		return platformErr(err)
	}

	t.edit(req.Reply, Notice{
		Title: lang.T(tag, "ticket_created_title"),
		Body:  lang.T(tag, "ticket_created_body", "thread", channelMention(threadID)),
		Color: ColorSuccess,
	})

	t.audit.TicketOpened(req.GuildID, req.UserID, threadID, req.Locale)
	log.Printf("[Ticket] Opened thread %s for %s (%s)", threadID, req.UserID, req.Locale)
	return nil
}

func (t *TicketService) inviteStaff(guildID, threadID string) {
	added := 0
	for _, role := range []string{t.cfg.AdminRole, t.cfg.ModeratorRole} {
		if role == "" {
			continue
		}
		members, err := t.platform.RoleMembers(guildID, role)
		if err != nil {
			log.Printf("[Ticket] Could not list %s members: %v", role, err)
			continue
		}
		for _, id := range members {
			if err := t.platform.AddThreadMember(threadID, id); err != nil {
				log.Printf("[Ticket] Could not add %s %s to thread %s: %v", role, id, threadID, err)
				continue
			}
			added++
			t.sleep(t.cfg.PacingDelay)
		}
	}
	log.Printf("[Ticket] Added %d staff members to thread %s", added, threadID)
}

type CloseRequest struct {
	GuildID  string
	ThreadID string
	OwnerID  string
	CloserID string
	Locale   Locale
	Reply    Replier
}

// Close archives a ticket thread: authorize, post the closing notice,
// release the owner from every registry, wait the grace interval, then
// archive.
func (t *TicketService) Close(req CloseRequest) error {
	tag := req.Locale.Tag()

	authorized := req.CloserID == req.OwnerID ||
		t.platform.MemberHasRole(req.GuildID, req.CloserID, t.cfg.AdminRole) ||
		t.platform.MemberHasRole(req.GuildID, req.CloserID, t.cfg.ModeratorRole)
	if !authorized {
		t.reply(req.Reply, Notice{
			Title: lang.T(tag, "ticket_noperm_title"),
			Body:  lang.T(tag, "ticket_noperm_body"),
			Color: ColorError,
		})
		return permissionDenied()
	}

	if err := req.Reply.Public(Notice{
		Title: lang.T(tag, "ticket_closing_title"),
		Body:  lang.T(tag, "ticket_closing_body", "user", mention(req.CloserID)),
		Color: ColorInfo,
	}); err != nil {
		// Nothing unregistered yet; the close can simply be retried.
		log.Printf("[Ticket] Closing notice failed in thread %s: %v", req.ThreadID, err)
		return platformErr(err)
	}

	released := t.ReleaseEverywhere(req.OwnerID)
	log.Printf("[Ticket] Released %s from %d registries", req.OwnerID, released)

	t.sleep(t.cfg.ArchiveDelay)

	if err := t.platform.ArchiveThread(req.ThreadID); err != nil {
		log.Printf("[Ticket] Could not archive thread %s: %v", req.ThreadID, err)
	}

	t.audit.TicketClosed(req.GuildID, req.OwnerID, req.CloserID, req.ThreadID, req.Locale)
	log.Printf("[Ticket] Thread %s closed by %s", req.ThreadID, req.CloserID)
	return nil
}

func (t *TicketService) reply(r Replier, n Notice) {
	if err := r.Ephemeral(n); err != nil {
		log.Printf("[Ticket] Failed to respond: %v", err)
	}
}

func (t *TicketService) edit(r Replier, n Notice) {
	if err := r.Edit(n); err != nil {
		log.Printf("[Ticket] Failed to edit response: %v", err)
	}
}

func mention(userID string) string    { return "<@" + userID + ">" }
func channelMention(id string) string { return "<#" + id + ">" }
