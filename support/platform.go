package support

// Locale identifies one of the two community languages.
type Locale string

const (
	English Locale = "english"
	Russian Locale = "russian"
)

// Tag is the short form used in message-catalog lookups and custom IDs.
func (l Locale) Tag() string {
	if l == Russian {
		return "ru"
	}
	return "en"
}

// Notice is a renderable message. The surface decides how it becomes an
// embed; the controllers only pick texts and colours.
type Notice struct {
	Title string
	Body  string
	Color int
}

// CloseControl asks the surface to attach a closure button bound to the
// ticket owner and language.
type CloseControl struct {
	OwnerID string
	Locale  Locale
}

// Replier is the one-shot interaction response surface. Ephemeral sends
// the primary reply (visible only to the presser), Edit rewrites it,
// FollowUp is for when the primary reply was already consumed. Public
// sends a non-ephemeral primary reply.
type Replier interface {
	Ephemeral(n Notice) error
	Public(n Notice) error
	Edit(n Notice) error
	FollowUp(n Notice) error
}

// Platform is the messaging/thread/role capability the controllers
// drive. handlers implements it over the chat client; tests fake it.
type Platform interface {
	// CanCreateThread reports whether the bot holds thread-creation
	// permission in the channel.
	CanCreateThread(channelID string) bool

	// CreateThread opens a new public thread and returns its ID.
	CreateThread(channelID, name string) (string, error)

	// AddThreadMember invites one user into a thread. Best-effort for
	// staff population; failures are the caller's to log.
	AddThreadMember(threadID, userID string) error

	// SendNotice posts into a channel or thread, optionally carrying a
	// closure control.
	SendNotice(channelID string, n Notice, control *CloseControl) error

	ArchiveThread(threadID string) error

	// RoleExists reports whether a role with the given name is
	// provisioned in the guild.
	RoleExists(guildID, roleName string) bool

	// RoleMembers lists the IDs of members holding the named role.
	RoleMembers(guildID, roleName string) ([]string, error)

	// MemberHasRole reports whether the member holds the named role.
	MemberHasRole(guildID, userID, roleName string) bool

	// SwapRoles removes every role in remove the user holds, then adds
	// the requested one.
	SwapRoles(guildID, userID string, remove []string, add string) error

	// DirectMessage delivers a DM. Fails when the recipient disallows
	// them; never fatal to the calling operation.
	DirectMessage(userID string, n Notice) error
}

// Audit receives lifecycle events for the persistent event log. All
// methods are fire-and-forget from the controllers' point of view.
type Audit interface {
	TicketOpened(guildID, ownerID, threadID string, locale Locale)
	TicketClosed(guildID, ownerID, closerID, threadID string, locale Locale)
	LanguageSelected(guildID, userID string, locale Locale)
}

// NopAudit is used when the event store is unavailable.
type NopAudit struct{}

func (NopAudit) TicketOpened(string, string, string, Locale)         {}
func (NopAudit) TicketClosed(string, string, string, string, Locale) {}
func (NopAudit) LanguageSelected(string, string, Locale)             {}
