package support

import (
	"errors"
	"fmt"
	"log"

	"csmc-bot/lang"
)

// AssignerConfig names the two mutually-exclusive language roles.
type AssignerConfig struct {
	EnglishRole string
	RussianRole string
}

// Assigner swaps a member onto the requested language role. One
// cooldown is shared across both language buttons, so picking English
// and then Russian within the window is throttled as one action.
type Assigner struct {
	platform Platform
	audit    Audit
	cfg      AssignerConfig
	cooldown *Cooldown
}

func NewAssigner(p Platform, audit Audit, cfg AssignerConfig, cooldown *Cooldown) *Assigner {
	if audit == nil {
		audit = NopAudit{}
	}
	if cooldown == nil {
		cooldown = NewCooldown(DefaultCooldown)
	}
	return &Assigner{platform: p, audit: audit, cfg: cfg, cooldown: cooldown}
}

type AssignRequest struct {
	GuildID string
	UserID  string
	Locale  Locale
	Reply   Replier
}

// Assign removes whichever language role the member holds and adds the
// requested one, then confirms ephemerally and attempts a DM channel
// guide.
func (a *Assigner) Assign(req AssignRequest) error {
	tag := req.Locale.Tag()

	if on, left := a.cooldown.OnCooldown(req.UserID); on {
		a.reply(req.Reply, Notice{
			Title: lang.T(tag, "cooldown_title"),
			Body:  lang.T(tag, "language_cooldown_body", "seconds", fmt.Sprintf("%.1f", left.Seconds())),
			Color: ColorWarning,
		})
		return throttled(left)
	}
	a.cooldown.Set(req.UserID)

	if !a.platform.RoleExists(req.GuildID, a.cfg.EnglishRole) ||
		!a.platform.RoleExists(req.GuildID, a.cfg.RussianRole) {
		a.reply(req.Reply, Notice{
			Title: lang.T(tag, "language_error_title"),
			Body:  lang.T(tag, "language_missing_roles_body"),
			Color: ColorError,
		})
		return configuration(errors.New("language roles not provisioned"))
	}

	add := a.cfg.EnglishRole
	if req.Locale == Russian {
		add = a.cfg.RussianRole
	}
	remove := []string{a.cfg.EnglishRole, a.cfg.RussianRole}

	if err := a.platform.SwapRoles(req.GuildID, req.UserID, remove, add); err != nil {
		log.Printf("[Language] Role swap failed for %s: %v", req.UserID, err)
		a.reply(req.Reply, Notice{
			Title: lang.T(tag, "language_error_title"),
			Body:  lang.T(tag, "language_failed_body"),
			Color: ColorError,
		})
		return platformErr(err)
	}

	if err := req.Reply.Ephemeral(Notice{
		Title: lang.T(tag, "language_selected_title"),
		Body:  lang.T(tag, "language_selected_body"),
		Color: ColorSuccess,
	}); err != nil {
		// The swap already happened; use the follow-up path rather than
		// leaving the interaction hanging.
		log.Printf("[Language] Confirmation reply failed for %s: %v", req.UserID, err)
		if err := req.Reply.FollowUp(Notice{
			Title: lang.T(tag, "language_selected_title"),
			Body:  lang.T(tag, "language_selected_body"),
			Color: ColorSuccess,
		}); err != nil {
			log.Printf("[Language] Follow-up also failed for %s: %v", req.UserID, err)
		}
	}

	if err := a.platform.DirectMessage(req.UserID, Notice{
		Title: lang.T(tag, "language_dm_title"),
		Body:  lang.T(tag, "language_dm_body", "user", mention(req.UserID)),
		Color: ColorInfo,
	}); err != nil {
		log.Printf("[Language] Could not DM %s, DMs disabled (%v)", req.UserID, err)
	}

	a.audit.LanguageSelected(req.GuildID, req.UserID, req.Locale)
	log.Printf("[Language] %s selected %s", req.UserID, req.Locale)
	return nil
}

func (a *Assigner) reply(r Replier, n Notice) {
	if err := r.Ephemeral(n); err != nil {
		log.Printf("[Language] Failed to respond: %v", err)
	}
}
