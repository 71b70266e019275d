package registration_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/scrimspace/scrim-server/internals/apperr"
	"github.com/scrimspace/scrim-server/internals/communities"
	"github.com/scrimspace/scrim-server/internals/events"
	"github.com/scrimspace/scrim-server/internals/registration"
	"github.com/scrimspace/scrim-server/internals/scrims"
	"github.com/scrimspace/scrim-server/internals/slots"
	"github.com/scrimspace/scrim-server/internals/teams"
	"github.com/scrimspace/scrim-server/internals/testutil"
	"github.com/scrimspace/scrim-server/pkg/kvstore"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ScrimEvent
}

func (p *recordingPublisher) Publish(ev events.ScrimEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

type recordingRoles struct {
	granted map[string][]int
	revoked map[string][]int
}

func newRecordingRoles() *recordingRoles {
	return &recordingRoles{granted: map[string][]int{}, revoked: map[string][]int{}}
}

func (r *recordingRoles) Grant(communityID string, userIDs []int) {
	r.granted[communityID] = append(r.granted[communityID], userIDs...)
}

func (r *recordingRoles) Revoke(communityID string, userIDs []int) {
	r.revoked[communityID] = append(r.revoked[communityID], userIDs...)
}

func newService(g *gorm.DB, pub events.Publisher, rm *recordingRoles) *registration.RegistrationService {
	if rm == nil {
		return registration.New(kvstore.NewMemory(), g, pub, nil)
	}
	return registration.New(kvstore.NewMemory(), g, pub, rm)
}

func TestRegisterTeamSnapshotsRoster(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageRegistration,
		MinPlayersPerTeam: 2, MaxPlayersPerTeam: 5, MaxSubstitutesPerTeam: 1,
	})
	team := testutil.SeedTeam(t, g, "comm1", "alpha", 100, 2, 1)
	pub := &recordingPublisher{}
	rm := newRecordingRoles()
	svc := newService(g, pub, rm)

	registered, err := svc.RegisterTeam("scrim1", team.TeamID)
	if err != nil {
		t.Fatalf("register team: %v", err)
	}

	var snapshot []registration.SnapshotMember
	if err := json.Unmarshal([]byte(registered.Roster), &snapshot); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snapshot) != 4 {
		t.Fatalf("expected 4 snapshot members, got %d", len(snapshot))
	}
	if snapshot[0].Role != teams.RoleCaptain || snapshot[0].UserID != 100 {
		t.Fatalf("unexpected snapshot head: %+v", snapshot[0])
	}

	// Later roster edits must not rewrite the snapshot.
	if err := g.Exec("DELETE FROM team_members WHERE team_id = ? AND user_id = ?", team.TeamID, 101).Error; err != nil {
		t.Fatalf("edit roster: %v", err)
	}
	rows, err := svc.GetRegisteredTeams("scrim1")
	if err != nil {
		t.Fatalf("get registered teams: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one registration, got %d", len(rows))
	}
	if rows[0].Roster != registered.Roster {
		t.Fatal("snapshot changed after roster edit")
	}

	if got := rm.granted["comm1"]; len(got) != 4 {
		t.Fatalf("expected 4 role grants, got %v", got)
	}
	found := false
	for _, kind := range pub.kinds() {
		if kind == events.KindTeamRegistered {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s event, got %v", events.KindTeamRegistered, pub.kinds())
	}
}

func TestRegisterTeamRequiresOpenRegistration(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	team := testutil.SeedTeam(t, g, "comm1", "alpha", 100, 0, 0)
	svc := newService(g, nil, nil)

	for _, stage := range []string{scrims.StageConfiguration, scrims.StageOngoing, scrims.StageCompleted, scrims.StageCanceled} {
		id := "scrim-" + stage
		testutil.SeedScrim(t, g, &scrims.Scrim{ScrimID: id, CommunityID: "comm1", Stage: stage})
		_, err := svc.RegisterTeam(id, team.TeamID)
		if !apperr.IsRule(err) {
			t.Fatalf("stage %s: expected rule violation, got %v", stage, err)
		}
	}
}

func TestRegisterTeamTwice(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageRegistration,
	})
	team := testutil.SeedTeam(t, g, "comm1", "alpha", 100, 0, 0)
	svc := newService(g, nil, nil)

	if _, err := svc.RegisterTeam("scrim1", team.TeamID); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.RegisterTeam("scrim1", team.TeamID)
	if !apperr.IsRule(err) {
		t.Fatalf("expected rule violation, got %v", err)
	}

	var count int64
	g.Table("registered_teams").Where("scrim_id = ?", "scrim1").Count(&count)
	if count != 1 {
		t.Fatalf("expected one registration row, got %d", count)
	}
}

func TestRegisterTeamRosterBounds(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageRegistration,
		MinPlayersPerTeam: 3, MaxPlayersPerTeam: 4, MaxSubstitutesPerTeam: 1,
	})
	svc := newService(g, nil, nil)

	small := testutil.SeedTeam(t, g, "comm1", "small", 100, 1, 0)    // 2 players
	big := testutil.SeedTeam(t, g, "comm1", "big", 200, 4, 0)        // 5 players
	subs := testutil.SeedTeam(t, g, "comm1", "subs", 300, 2, 2)      // 3 players, 2 subs
	fitting := testutil.SeedTeam(t, g, "comm1", "fits", 400, 2, 1)   // 3 players, 1 sub

	if _, err := svc.RegisterTeam("scrim1", small.TeamID); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation for undersized roster, got %v", err)
	}
	if _, err := svc.RegisterTeam("scrim1", big.TeamID); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation for oversized roster, got %v", err)
	}
	if _, err := svc.RegisterTeam("scrim1", subs.TeamID); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation for too many substitutes, got %v", err)
	}
	if _, err := svc.RegisterTeam("scrim1", fitting.TeamID); err != nil {
		t.Fatalf("register fitting roster: %v", err)
	}
}

func TestRegisterTeamBannedChecks(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageRegistration,
	})
	svc := newService(g, nil, nil)

	banned := testutil.SeedTeam(t, g, "comm1", "banned", 100, 1, 0)
	if err := teams.New(g).SetTeamBanned(banned.TeamID, true); err != nil {
		t.Fatalf("ban team: %v", err)
	}
	if _, err := svc.RegisterTeam("scrim1", banned.TeamID); !apperr.IsCheck(err) {
		t.Fatalf("expected check failure for banned team, got %v", err)
	}

	tainted := testutil.SeedTeam(t, g, "comm1", "tainted", 200, 1, 0)
	if err := communities.New(g).BanUser("comm1", 201); err != nil {
		t.Fatalf("ban member: %v", err)
	}
	if _, err := svc.RegisterTeam("scrim1", tainted.TeamID); !apperr.IsCheck(err) {
		t.Fatalf("expected check failure for banned member, got %v", err)
	}
}

func TestRegisterTeamRejectsMemberOverlap(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageRegistration,
	})
	svc := newService(g, nil, nil)

	first := testutil.SeedTeam(t, g, "comm1", "first", 100, 1, 0) // users 100, 101
	second := testutil.SeedTeam(t, g, "comm1", "second", 200, 0, 0)
	// User 101 plays for both teams.
	err := g.Table("team_members").Create(&teams.TeamMember{
		TeamID: second.TeamID, UserID: 101, IGN: "shared", Role: teams.RoleMember, Position: 2,
	}).Error
	if err != nil {
		t.Fatalf("seed shared member: %v", err)
	}

	if _, err := svc.RegisterTeam("scrim1", first.TeamID); err != nil {
		t.Fatalf("register first: %v", err)
	}
	if _, err := svc.RegisterTeam("scrim1", second.TeamID); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation for member overlap, got %v", err)
	}
}

func TestRegisterTeamAutoSlotList(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	scrim := testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageRegistration,
		MaxTeams: 5, AutoSlotList: true,
	})
	team := testutil.SeedTeam(t, g, "comm1", "alpha", 100, 0, 0)
	svc := newService(g, nil, nil)

	if _, err := svc.RegisterTeam(scrim.ScrimID, team.TeamID); err != nil {
		t.Fatalf("register: %v", err)
	}

	var count int64
	g.Table("assigned_slots").Where("scrim_id = ? AND team_id = ?", "scrim1", team.TeamID).Count(&count)
	if count != 1 {
		t.Fatalf("expected an auto-assigned slot, got %d rows", count)
	}
}

func TestRegisterTeamReservationWithoutAutoSlotList(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageRegistration,
		MaxTeams: 5, AutoSlotList: false,
	})
	team := testutil.SeedTeam(t, g, "comm1", "alpha", 100, 0, 0)
	err := g.Table("reserved_slots").Create(&slots.ReservedSlot{
		ScrimID: "scrim1", CaptainUserID: 100, SlotNumber: 4,
	}).Error
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	svc := newService(g, nil, nil)

	if _, err := svc.RegisterTeam("scrim1", team.TeamID); err != nil {
		t.Fatalf("register: %v", err)
	}

	var numbers []int
	g.Table("assigned_slots").Where("scrim_id = ? AND team_id = ?", "scrim1", team.TeamID).
		Pluck("slot_number", &numbers)
	if len(numbers) != 1 || numbers[0] != 4 {
		t.Fatalf("expected reserved slot 4, got %v", numbers)
	}

	// Without a reservation and with the auto slot list off, no slot appears.
	other := testutil.SeedTeam(t, g, "comm1", "beta", 200, 0, 0)
	if _, err := svc.RegisterTeam("scrim1", other.TeamID); err != nil {
		t.Fatalf("register other: %v", err)
	}
	var count int64
	g.Table("assigned_slots").Where("scrim_id = ? AND team_id = ?", "scrim1", other.TeamID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no slot, got %d rows", count)
	}
}

func TestAutoCloseOnCapacity(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageRegistration,
		MaxTeams: 2, AutoCloseRegistration: true,
	})
	a := testutil.SeedTeam(t, g, "comm1", "a", 100, 0, 0)
	b := testutil.SeedTeam(t, g, "comm1", "b", 200, 0, 0)
	c := testutil.SeedTeam(t, g, "comm1", "c", 300, 0, 0)
	svc := newService(g, nil, nil)

	if _, err := svc.RegisterTeam("scrim1", a.TeamID); err != nil {
		t.Fatalf("register a: %v", err)
	}
	scrim, _ := scrims.New(g, nil).GetScrim("scrim1")
	if scrim.Stage != scrims.StageRegistration {
		t.Fatalf("registration closed early at %s", scrim.Stage)
	}

	if _, err := svc.RegisterTeam("scrim1", b.TeamID); err != nil {
		t.Fatalf("register b: %v", err)
	}
	scrim, _ = scrims.New(g, nil).GetScrim("scrim1")
	if scrim.Stage != scrims.StageOngoing {
		t.Fatalf("expected auto-close to %s, got %s", scrims.StageOngoing, scrim.Stage)
	}
	if scrim.RegistrationEndedTime == nil {
		t.Fatal("expected registration_ended_time to be stamped")
	}

	if _, err := svc.RegisterTeam("scrim1", c.TeamID); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation after auto-close, got %v", err)
	}
}

func TestUnregisterTeamFreesSlot(t *testing.T) {
	g := testutil.DB(t)
	testutil.SeedCommunity(t, g, "comm1")
	testutil.SeedScrim(t, g, &scrims.Scrim{
		ScrimID: "scrim1", CommunityID: "comm1", Stage: scrims.StageRegistration,
		MaxTeams: 5, AutoSlotList: true,
	})
	team := testutil.SeedTeam(t, g, "comm1", "alpha", 100, 1, 0)
	pub := &recordingPublisher{}
	rm := newRecordingRoles()
	svc := newService(g, pub, rm)

	if _, err := svc.RegisterTeam("scrim1", team.TeamID); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.UnregisterTeam("scrim1", team.TeamID); err != nil {
		t.Fatalf("unregister: %v", err)
	}

	var count int64
	g.Table("registered_teams").Where("scrim_id = ?", "scrim1").Count(&count)
	if count != 0 {
		t.Fatalf("expected registration removed, %d rows remain", count)
	}
	g.Table("assigned_slots").Where("scrim_id = ?", "scrim1").Count(&count)
	if count != 0 {
		t.Fatalf("expected slot freed, %d rows remain", count)
	}
	if got := rm.revoked["comm1"]; len(got) != 2 {
		t.Fatalf("expected 2 role revocations, got %v", got)
	}

	if err := svc.UnregisterTeam("scrim1", team.TeamID); !apperr.IsRule(err) {
		t.Fatalf("expected rule violation on second unregister, got %v", err)
	}
}
