package support

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeReplier struct {
	ephemerals []Notice
	publics    []Notice
	edits      []Notice
	followups  []Notice

	ephemeralErr error
}

func (r *fakeReplier) Ephemeral(n Notice) error {
	if r.ephemeralErr != nil {
		return r.ephemeralErr
	}
	r.ephemerals = append(r.ephemerals, n)
	return nil
}
func (r *fakeReplier) Public(n Notice) error   { r.publics = append(r.publics, n); return nil }
func (r *fakeReplier) Edit(n Notice) error     { r.edits = append(r.edits, n); return nil }
func (r *fakeReplier) FollowUp(n Notice) error { r.followups = append(r.followups, n); return nil }

type fakePlatform struct {
	mu    sync.Mutex
	calls []string

	canThread   bool
	threadErr   error
	noticeErr   error
	swapErr     error
	dmErr       error
	threadSeq   int
	roles       map[string]bool
	roleMembers map[string][]string
	memberRoles map[string]map[string]bool

	onCreateThread func()
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		canThread:   true,
		roles:       map[string]bool{"Admin": true, "Moderator": true, "English": true, "Russian": true},
		roleMembers: map[string][]string{},
		memberRoles: map[string]map[string]bool{},
	}
}

func (p *fakePlatform) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *fakePlatform) CanCreateThread(channelID string) bool { return p.canThread }

func (p *fakePlatform) CreateThread(channelID, name string) (string, error) {
	p.record("CreateThread")
	if p.onCreateThread != nil {
		p.onCreateThread()
	}
	if p.threadErr != nil {
		return "", p.threadErr
	}
	p.threadSeq++
	return fmt.Sprintf("thread-%d", p.threadSeq), nil
}

func (p *fakePlatform) AddThreadMember(threadID, userID string) error {
	p.record("AddThreadMember:" + userID)
	return nil
}

func (p *fakePlatform) SendNotice(channelID string, n Notice, control *CloseControl) error {
	p.record("SendNotice:" + channelID)
	return p.noticeErr
}

func (p *fakePlatform) ArchiveThread(threadID string) error {
	p.record("ArchiveThread:" + threadID)
	return nil
}

func (p *fakePlatform) RoleExists(guildID, roleName string) bool { return p.roles[roleName] }

func (p *fakePlatform) RoleMembers(guildID, roleName string) ([]string, error) {
	return p.roleMembers[roleName], nil
}

func (p *fakePlatform) MemberHasRole(guildID, userID, roleName string) bool {
	return p.memberRoles[userID][roleName]
}

func (p *fakePlatform) SwapRoles(guildID, userID string, remove []string, add string) error {
	p.record("SwapRoles:" + userID + ":" + add)
	if p.swapErr != nil {
		return p.swapErr
	}
	held := p.memberRoles[userID]
	if held == nil {
		held = map[string]bool{}
		p.memberRoles[userID] = held
	}
	for _, r := range remove {
		delete(held, r)
	}
	held[add] = true
	return nil
}

func (p *fakePlatform) DirectMessage(userID string, n Notice) error {
	p.record("DirectMessage:" + userID)
	return p.dmErr
}

func (p *fakePlatform) mutatingCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func newService(p *fakePlatform) *TicketService {
	svc := NewTicketService(p, nil, TicketConfig{
		AdminRole:     "Admin",
		ModeratorRole: "Moderator",
	})
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestRegistryReserveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	if !r.Reserve("u1") {
		t.Fatalf("first reserve should be new")
	}
	if r.Reserve("u1") {
		t.Fatalf("second reserve should not be new")
	}
	if r.Count() != 1 {
		t.Fatalf("expected count 1, got %d", r.Count())
	}

	r.Release("absent")
	r.Release("u1")
	r.Release("u1")
	if r.Count() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Count())
	}
}

func TestCooldownWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCooldown(5 * time.Second)
	c.now = func() time.Time { return now }

	if on, left := c.OnCooldown("u1"); on || left != 0 {
		t.Fatalf("fresh user should not be throttled, got %v %v", on, left)
	}

	c.Set("u1")
	on, left := c.OnCooldown("u1")
	if !on || left <= 0 || left > 5*time.Second {
		t.Fatalf("expected throttle with 0 < left <= 5s, got %v %v", on, left)
	}

	now = now.Add(5 * time.Second)
	if on, left := c.OnCooldown("u1"); on || left != 0 {
		t.Fatalf("window elapsed, expected clear, got %v %v", on, left)
	}

	// Set overwrites and restarts the window.
	c.Set("u1")
	now = now.Add(2 * time.Second)
	c.Set("u1")
	if _, left := c.OnCooldown("u1"); left <= 4*time.Second {
		t.Fatalf("overwrite should restart the window, left=%v", left)
	}
}

func TestCooldownSweepOnWrite(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCooldown(time.Second)
	c.now = func() time.Time { return now }

	c.Set("old")
	now = now.Add(time.Minute)
	for i := 0; i < sweepInterval; i++ {
		c.Set(fmt.Sprintf("u%d", i))
	}
	c.mu.Lock()
	_, kept := c.expires["old"]
	c.mu.Unlock()
	if kept {
		t.Fatalf("expired entry survived the sweep")
	}
}

func TestCreateDuplicateTicket(t *testing.T) {
	p := newFakePlatform()
	svc := newService(p)
	svc.Registry(English).Reserve("u1")

	reply := &fakeReplier{}
	err := svc.Create(CreateRequest{
		GuildID: "g", ChannelID: "c", UserID: "u1", DisplayName: "User One",
		Locale: English, Reply: reply,
	})
	if KindOf(err) != KindDuplicate {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if len(p.mutatingCalls()) != 0 {
		t.Fatalf("duplicate rejection must not touch the platform: %v", p.mutatingCalls())
	}
	if len(reply.ephemerals) != 1 {
		t.Fatalf("expected one ephemeral rejection, got %d", len(reply.ephemerals))
	}
}

func TestCreateWithoutThreadPermission(t *testing.T) {
	p := newFakePlatform()
	p.canThread = false
	svc := newService(p)

	reply := &fakeReplier{}
	err := svc.Create(CreateRequest{
		GuildID: "g", ChannelID: "c", UserID: "u1", DisplayName: "User One",
		Locale: English, Reply: reply,
	})
	if KindOf(err) != KindPermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if svc.Registry(English).Count() != 0 {
		t.Fatalf("permission failure must not reserve")
	}
	if on, _ := svc.cooldowns[English].OnCooldown("u1"); on {
		t.Fatalf("permission failure must not set cooldown")
	}
}

func TestCreateThreadFailureRollsBackReservation(t *testing.T) {
	p := newFakePlatform()
	p.threadErr = errors.New("forbidden")
	svc := newService(p)

	reply := &fakeReplier{}
	err := svc.Create(CreateRequest{
		GuildID: "g", ChannelID: "c", UserID: "u2", DisplayName: "User Two",
		Locale: Russian, Reply: reply,
	})
	if KindOf(err) != KindPlatform {
		t.Fatalf("expected platform error, got %v", err)
	}
	if svc.Registry(Russian).Has("u2") {
		t.Fatalf("reservation must roll back on thread failure")
	}
	if on, _ := svc.cooldowns[Russian].OnCooldown("u2"); !on {
		t.Fatalf("cooldown must stay in effect after thread failure")
	}
	if len(reply.edits) != 1 {
		t.Fatalf("ack must be edited into an error notice, edits=%d", len(reply.edits))
	}
}

func TestCreateStaffsAndNotifies(t *testing.T) {
	p := newFakePlatform()
	p.roleMembers["Admin"] = []string{"a1"}
	p.roleMembers["Moderator"] = []string{"m1", "m2"}
	svc := newService(p)

	slept := 0
	svc.sleep = func(time.Duration) { slept++ }

	reply := &fakeReplier{}
	if err := svc.Create(CreateRequest{
		GuildID: "g", ChannelID: "c", UserID: "u3", DisplayName: "User Three",
		Locale: English, Reply: reply,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if !svc.Registry(English).Has("u3") {
		t.Fatalf("owner should be registered after open")
	}
	if slept != 3 {
		t.Fatalf("expected one pacing delay per staff invite, got %d", slept)
	}
	if len(reply.ephemerals) != 1 || len(reply.edits) != 1 {
		t.Fatalf("expected ack then success edit, got %d/%d", len(reply.ephemerals), len(reply.edits))
	}

	calls := p.mutatingCalls()
	wantOrder := []string{
		"CreateThread",
		"AddThreadMember:u3",
		"AddThreadMember:a1",
		"AddThreadMember:m1",
		"AddThreadMember:m2",
		"SendNotice:thread-1",
	}
	if len(calls) != len(wantOrder) {
		t.Fatalf("call count mismatch: %v", calls)
	}
	for i, want := range wantOrder {
		if calls[i] != want {
			t.Fatalf("call %d = %s, want %s (all: %v)", i, calls[i], want, calls)
		}
	}
}

func TestCreateSecondPressDuringThreadCreation(t *testing.T) {
	p := newFakePlatform()
	svc := newService(p)

	var secondErr error
	second := &fakeReplier{}
	p.onCreateThread = func() {
		// The duplicate press arrives while the first thread call is
		// still in flight; it must see the reservation already taken.
		secondErr = svc.Create(CreateRequest{
			GuildID: "g", ChannelID: "c", UserID: "u1", DisplayName: "User One",
			Locale: English, Reply: second,
		})
		p.onCreateThread = nil
	}

	first := &fakeReplier{}
	if err := svc.Create(CreateRequest{
		GuildID: "g", ChannelID: "c", UserID: "u1", DisplayName: "User One",
		Locale: English, Reply: first,
	}); err != nil {
		t.Fatalf("first press failed: %v", err)
	}
	if KindOf(secondErr) != KindThrottled && KindOf(secondErr) != KindDuplicate {
		t.Fatalf("interleaved press must be rejected, got %v", secondErr)
	}
	if svc.Registry(English).Count() != 1 {
		t.Fatalf("exactly one reservation expected, got %d", svc.Registry(English).Count())
	}
}

func TestPerLanguageRegistriesAreIndependent(t *testing.T) {
	p := newFakePlatform()
	svc := newService(p)
	svc.Registry(English).Reserve("u1")

	if svc.Registry(Russian).Has("u1") {
		t.Fatalf("per-language silo expected by default")
	}

	shared := NewTicketService(p, nil, TicketConfig{SharedRegistry: true, AdminRole: "Admin", ModeratorRole: "Moderator"})
	shared.Registry(English).Reserve("u1")
	if !shared.Registry(Russian).Has("u1") {
		t.Fatalf("shared registry flag should collapse the silos")
	}
	if shared.ReleaseEverywhere("u1") != 1 {
		t.Fatalf("shared registry counts as one release")
	}
}

func TestCloseUnauthorized(t *testing.T) {
	p := newFakePlatform()
	svc := newService(p)
	svc.Registry(English).Reserve("owner")

	reply := &fakeReplier{}
	err := svc.Close(CloseRequest{
		GuildID: "g", ThreadID: "th", OwnerID: "owner", CloserID: "stranger",
		Locale: English, Reply: reply,
	})
	if KindOf(err) != KindPermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if !svc.Registry(English).Has("owner") {
		t.Fatalf("unauthorized close must not unregister")
	}
	for _, c := range p.mutatingCalls() {
		if c == "ArchiveThread:th" {
			t.Fatalf("unauthorized close must not archive")
		}
	}
}

func TestCloseByOwnerOrder(t *testing.T) {
	p := newFakePlatform()
	svc := newService(p)
	svc.Registry(Russian).Reserve("owner")

	var order []string
	svc.sleep = func(time.Duration) {
		order = append(order, "sleep")
	}

	reply := &fakeReplier{}
	if err := svc.Close(CloseRequest{
		GuildID: "g", ThreadID: "th", OwnerID: "owner", CloserID: "owner",
		Locale: Russian, Reply: reply,
	}); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if len(reply.publics) != 1 {
		t.Fatalf("expected one public closing notice, got %d", len(reply.publics))
	}
	if svc.Registry(Russian).Has("owner") {
		t.Fatalf("owner must be unregistered")
	}
	if len(order) != 1 {
		t.Fatalf("expected the grace wait before archive, got %v", order)
	}
	calls := p.mutatingCalls()
	if len(calls) != 1 || calls[0] != "ArchiveThread:th" {
		t.Fatalf("expected archive as the only platform call, got %v", calls)
	}
}

func TestCloseByStaff(t *testing.T) {
	p := newFakePlatform()
	p.memberRoles["mod"] = map[string]bool{"Moderator": true}
	svc := newService(p)
	svc.Registry(English).Reserve("owner")

	reply := &fakeReplier{}
	if err := svc.Close(CloseRequest{
		GuildID: "g", ThreadID: "th", OwnerID: "owner", CloserID: "mod",
		Locale: English, Reply: reply,
	}); err != nil {
		t.Fatalf("staff close failed: %v", err)
	}
	if svc.Registry(English).Has("owner") {
		t.Fatalf("staff close must unregister the owner")
	}
}

func newAssigner(p *fakePlatform) *Assigner {
	return NewAssigner(p, nil, AssignerConfig{EnglishRole: "English", RussianRole: "Russian"}, nil)
}

func TestAssignSwapsNotUnions(t *testing.T) {
	p := newFakePlatform()
	p.memberRoles["u1"] = map[string]bool{"English": true}
	a := newAssigner(p)

	reply := &fakeReplier{}
	if err := a.Assign(AssignRequest{GuildID: "g", UserID: "u1", Locale: Russian, Reply: reply}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	held := p.memberRoles["u1"]
	if held["English"] || !held["Russian"] {
		t.Fatalf("expected exactly {Russian}, got %v", held)
	}
	if len(reply.ephemerals) != 1 {
		t.Fatalf("expected ephemeral confirmation")
	}
}

func TestAssignFromNoRole(t *testing.T) {
	p := newFakePlatform()
	a := newAssigner(p)

	reply := &fakeReplier{}
	if err := a.Assign(AssignRequest{GuildID: "g", UserID: "u2", Locale: English, Reply: reply}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	held := p.memberRoles["u2"]
	if !held["English"] || held["Russian"] {
		t.Fatalf("expected exactly {English}, got %v", held)
	}
}

func TestAssignThrottledOnSecondPress(t *testing.T) {
	p := newFakePlatform()
	a := newAssigner(p)

	if err := a.Assign(AssignRequest{GuildID: "g", UserID: "u1", Locale: English, Reply: &fakeReplier{}}); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	err := a.Assign(AssignRequest{GuildID: "g", UserID: "u1", Locale: Russian, Reply: &fakeReplier{}})
	if KindOf(err) != KindThrottled {
		t.Fatalf("second press within the window must throttle, got %v", err)
	}
	if p.memberRoles["u1"]["Russian"] {
		t.Fatalf("throttled press must not mutate roles")
	}
}

func TestAssignMissingRoles(t *testing.T) {
	p := newFakePlatform()
	delete(p.roles, "Russian")
	a := newAssigner(p)

	err := a.Assign(AssignRequest{GuildID: "g", UserID: "u1", Locale: English, Reply: &fakeReplier{}})
	if KindOf(err) != KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAssignSurvivesBlockedDMs(t *testing.T) {
	p := newFakePlatform()
	p.dmErr = errors.New("forbidden")
	a := newAssigner(p)

	if err := a.Assign(AssignRequest{GuildID: "g", UserID: "u1", Locale: English, Reply: &fakeReplier{}}); err != nil {
		t.Fatalf("blocked DMs must not fail the assignment: %v", err)
	}
	if !p.memberRoles["u1"]["English"] {
		t.Fatalf("role swap should have happened")
	}
}

type auditRecord struct {
	action   string
	guildID  string
	ownerID  string
	actorID  string
	threadID string
	locale   Locale
}

type fakeAudit struct {
	mu      sync.Mutex
	records []auditRecord
}

func (a *fakeAudit) TicketOpened(guildID, ownerID, threadID string, locale Locale) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, auditRecord{"opened", guildID, ownerID, ownerID, threadID, locale})
}

func (a *fakeAudit) TicketClosed(guildID, ownerID, closerID, threadID string, locale Locale) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, auditRecord{"closed", guildID, ownerID, closerID, threadID, locale})
}

func (a *fakeAudit) LanguageSelected(guildID, userID string, locale Locale) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, auditRecord{action: "language", guildID: guildID, ownerID: userID, actorID: userID, locale: locale})
}

func TestTicketLifecycleEmitsAuditEvents(t *testing.T) {
	p := newFakePlatform()
	p.memberRoles["mod"] = map[string]bool{"Moderator": true}
	audit := &fakeAudit{}
	svc := NewTicketService(p, audit, TicketConfig{AdminRole: "Admin", ModeratorRole: "Moderator"})
	svc.sleep = func(time.Duration) {}

	if err := svc.Create(CreateRequest{
		GuildID: "g", ChannelID: "c", UserID: "u1", DisplayName: "User One",
		Locale: Russian, Reply: &fakeReplier{},
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Close(CloseRequest{
		GuildID: "g", ThreadID: "thread-1", OwnerID: "u1", CloserID: "mod",
		Locale: Russian, Reply: &fakeReplier{},
	}); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if len(audit.records) != 2 {
		t.Fatalf("expected open and close events, got %+v", audit.records)
	}
	open := audit.records[0]
	if open.action != "opened" || open.guildID != "g" || open.ownerID != "u1" ||
		open.threadID != "thread-1" || open.locale != Russian {
		t.Fatalf("open event wrong: %+v", open)
	}
	closed := audit.records[1]
	if closed.action != "closed" || closed.ownerID != "u1" || closed.actorID != "mod" ||
		closed.threadID != "thread-1" || closed.locale != Russian {
		t.Fatalf("close event wrong: %+v", closed)
	}
}

func TestRejectedCreateEmitsNoAuditEvent(t *testing.T) {
	p := newFakePlatform()
	audit := &fakeAudit{}
	svc := NewTicketService(p, audit, TicketConfig{AdminRole: "Admin", ModeratorRole: "Moderator"})
	svc.sleep = func(time.Duration) {}
	svc.Registry(English).Reserve("u1")

	err := svc.Create(CreateRequest{
		GuildID: "g", ChannelID: "c", UserID: "u1", DisplayName: "User One",
		Locale: English, Reply: &fakeReplier{},
	})
	if KindOf(err) != KindDuplicate {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if len(audit.records) != 0 {
		t.Fatalf("rejected create must not be audited: %+v", audit.records)
	}
}

func TestAssignEmitsAuditEvent(t *testing.T) {
	p := newFakePlatform()
	audit := &fakeAudit{}
	a := NewAssigner(p, audit, AssignerConfig{EnglishRole: "English", RussianRole: "Russian"}, nil)

	if err := a.Assign(AssignRequest{GuildID: "g", UserID: "u9", Locale: English, Reply: &fakeReplier{}}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	if len(audit.records) != 1 {
		t.Fatalf("expected one language event, got %+v", audit.records)
	}
	rec := audit.records[0]
	if rec.action != "language" || rec.guildID != "g" || rec.actorID != "u9" || rec.locale != English {
		t.Fatalf("language event wrong: %+v", rec)
	}
}
