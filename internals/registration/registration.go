package registration

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/internals/apperr"
	"github.com/scrimspace/scrim-server/internals/communities"
	"github.com/scrimspace/scrim-server/internals/events"
	"github.com/scrimspace/scrim-server/internals/notification"
	"github.com/scrimspace/scrim-server/internals/roles"
	"github.com/scrimspace/scrim-server/internals/scrims"
	"github.com/scrimspace/scrim-server/internals/slots"
	"github.com/scrimspace/scrim-server/internals/teams"
	"github.com/scrimspace/scrim-server/pkg/kvstore"
)

type RegistrationService struct {
	DB          *gorm.DB
	KV          kvstore.KVStore
	Pub         events.Publisher
	Roles       roles.RoleManager
	Scrims      *scrims.ScrimService
	Teams       *teams.TeamService
	Slots       *slots.SlotService
	Communities *communities.CommunityService
	Notifs      *notification.NotificationService
}

func New(kv kvstore.KVStore, db *gorm.DB, pub events.Publisher, rm roles.RoleManager) *RegistrationService {
	return &RegistrationService{
		DB:          db,
		KV:          kv,
		Pub:         pub,
		Roles:       rm,
		Scrims:      scrims.New(db, pub),
		Teams:       teams.New(db),
		Slots:       slots.New(db, pub),
		Communities: communities.New(db),
		Notifs:      notification.New(db),
	}
}

func (rs *RegistrationService) publish(ev events.ScrimEvent) {
	if rs.Pub == nil {
		return
	}
	if err := rs.Pub.Publish(ev); err != nil {
		log.Printf("error publishing event %s for scrim %s: %v", ev.Kind, ev.ScrimID, err)
	}
}

func memberUserIDs(members []teams.TeamMember) []int {
	ids := make([]int, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// validateRoster checks the roster against the scrim's player bounds.
func validateRoster(scrim *scrims.Scrim, members []teams.TeamMember) error {
	players := 0
	substitutes := 0
	for _, m := range members {
		if m.Role == teams.RoleSubstitute {
			substitutes++
		} else {
			players++
		}
	}
	if players < scrim.MinPlayersPerTeam {
		return apperr.Rule("team needs at least %d players, has %d", scrim.MinPlayersPerTeam, players)
	}
	if players > scrim.MaxPlayersPerTeam {
		return apperr.Rule("team may have at most %d players, has %d", scrim.MaxPlayersPerTeam, players)
	}
	if substitutes > scrim.MaxSubstitutesPerTeam {
		return apperr.Rule("team may have at most %d substitutes, has %d", scrim.MaxSubstitutesPerTeam, substitutes)
	}
	return nil
}

// membersAlreadyRegistered checks the snapshots of every team already
// registered for the scrim for overlap with the joining roster.
func (rs *RegistrationService) membersAlreadyRegistered(scrimID string, members []teams.TeamMember) (bool, error) {
	var rows []RegisteredTeam
	err := rs.DB.Table("registered_teams").Where("scrim_id = ?", scrimID).Find(&rows).Error
	if err != nil {
		return false, err
	}

	joining := make(map[int]bool, len(members))
	for _, m := range members {
		joining[m.UserID] = true
	}

	for _, row := range rows {
		var snapshot []SnapshotMember
		if err := json.Unmarshal([]byte(row.Roster), &snapshot); err != nil {
			continue
		}
		for _, m := range snapshot {
			if joining[m.UserID] {
				return true, nil
			}
		}
	}
	return false, nil
}

// RegisterTeam validates eligibility, snapshots the roster, allocates a slot
// when configured, and finally evaluates the auto-close policy against a
// freshly re-read count.
func (rs *RegistrationService) RegisterTeam(scrimID, teamID string) (*RegisteredTeam, error) {
	scrim, err := rs.Scrims.GetScrim(scrimID)
	if err != nil {
		return nil, err
	}
	if scrim.Stage != scrims.StageRegistration {
		return nil, apperr.Rule("registration is not open for this scrim")
	}

	team, err := rs.Teams.GetTeam(teamID)
	if err != nil {
		return nil, err
	}
	if team.Banned {
		return nil, apperr.Check("this team is banned")
	}

	var existing int64
	err = rs.DB.Table("registered_teams").
		Where("scrim_id = ? AND team_id = ?", scrimID, teamID).
		Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, apperr.Rule("team %s is already registered for this scrim", team.Name)
	}

	members, err := rs.Teams.GetMembers(teamID)
	if err != nil {
		return nil, err
	}
	if err := validateRoster(scrim, members); err != nil {
		return nil, err
	}

	banned, err := rs.Communities.AnyBanned(scrim.CommunityID, memberUserIDs(members))
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, apperr.Check("a member of this team is banned in the community")
	}

	overlap, err := rs.membersAlreadyRegistered(scrimID, members)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, apperr.Rule("a member of this team is already registered for this scrim with another team")
	}

	snapshot := make([]SnapshotMember, 0, len(members))
	for _, m := range members {
		snapshot = append(snapshot, SnapshotMember{
			UserID:   m.UserID,
			IGN:      m.IGN,
			Role:     m.Role,
			Position: m.Position,
		})
	}
	roster, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	registered := RegisteredTeam{
		ScrimID:      scrimID,
		TeamID:       teamID,
		Roster:       string(roster),
		RegisteredAt: time.Now(),
	}
	err = rs.DB.Table("registered_teams").Create(&registered).Error
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Rule("team %s is already registered for this scrim", team.Name)
		}
		return nil, err
	}

	rs.publish(events.ScrimEvent{ScrimID: scrimID, Kind: events.KindTeamRegistered, TeamID: teamID})

	captain, err := rs.Teams.Captain(teamID)
	if err != nil {
		return nil, err
	}

	// A reservation forces allocation even when the auto slot list is off.
	reserved := false
	if !scrim.AutoSlotList {
		var count int64
		err = rs.DB.Table("reserved_slots").
			Where("scrim_id = ? AND captain_user_id = ?", scrimID, captain.UserID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		reserved = count > 0
	}
	if scrim.AutoSlotList || reserved {
		slotNumber, err := rs.Slots.AssignSlot(scrim, teamID, 0)
		if err != nil {
			log.Printf("error assigning slot to team %s in scrim %s: %v", teamID, scrimID, err)
		} else if rs.Notifs != nil {
			rs.Notifs.Notify(captain.UserID, notification.KindSlotAssigned,
				"%s got slot %d in %s", team.Name, slotNumber, scrim.Name)
		}
	}

	if rs.Roles != nil {
		rs.Roles.Grant(scrim.CommunityID, memberUserIDs(members))
	}
	if rs.Notifs != nil {
		rs.Notifs.Notify(captain.UserID, notification.KindRegistered,
			"%s is registered for %s", team.Name, scrim.Name)
	}

	if err := rs.evaluateAutoClose(scrimID); err != nil {
		log.Printf("error evaluating auto-close for scrim %s: %v", scrimID, err)
	}

	return &registered, nil
}

// evaluateAutoClose is deliberately check-then-act without a global lock.
// Concurrent registrations may briefly overshoot max_teams; the slot
// allocator running out of numbers is the hard capacity backstop.
func (rs *RegistrationService) evaluateAutoClose(scrimID string) error {
	scrim, err := rs.Scrims.GetScrim(scrimID)
	if err != nil {
		return err
	}
	if !scrim.AutoCloseRegistration || scrim.Stage != scrims.StageRegistration {
		return nil
	}

	count, err := rs.Scrims.RegisteredCount(scrimID)
	if err != nil {
		return err
	}
	if count < int64(scrim.MaxTeams) {
		return nil
	}

	err = rs.Scrims.CloseRegistration(scrimID)
	if err != nil && apperr.IsRule(err) {
		// Someone else already closed it.
		return nil
	}
	return err
}

// UnregisterTeam removes the registration and any assigned slot, then
// revokes participant roles best-effort.
func (rs *RegistrationService) UnregisterTeam(scrimID, teamID string) error {
	scrim, err := rs.Scrims.GetScrim(scrimID)
	if err != nil {
		return err
	}
	team, err := rs.Teams.GetTeam(teamID)
	if err != nil {
		return err
	}

	var registered RegisteredTeam
	err = rs.DB.Table("registered_teams").
		Where("scrim_id = ? AND team_id = ?", scrimID, teamID).
		First(&registered).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Rule("team %s is not registered for this scrim", team.Name)
		}
		return err
	}

	err = rs.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("registered_teams").Where("id = ?", registered.ID).Delete(&RegisteredTeam{}).Error; err != nil {
			return err
		}
		return tx.Table("assigned_slots").
			Where("scrim_id = ? AND team_id = ?", scrimID, teamID).
			Delete(&slots.AssignedSlot{}).Error
	})
	if err != nil {
		return err
	}

	rs.publish(events.ScrimEvent{ScrimID: scrimID, Kind: events.KindTeamWithdrawn, TeamID: teamID})

	var snapshot []SnapshotMember
	if err := json.Unmarshal([]byte(registered.Roster), &snapshot); err == nil && rs.Roles != nil {
		ids := make([]int, 0, len(snapshot))
		for _, m := range snapshot {
			ids = append(ids, m.UserID)
		}
		rs.Roles.Revoke(scrim.CommunityID, ids)
	}

	if rs.Notifs != nil {
		if captain, err := rs.Teams.Captain(teamID); err == nil {
			rs.Notifs.Notify(captain.UserID, notification.KindUnregistered,
				"%s is no longer registered for %s", team.Name, scrim.Name)
		}
	}
	return nil
}

// GetRegisteredTeams lists registrations for a scrim in registration order.
func (rs *RegistrationService) GetRegisteredTeams(scrimID string) ([]RegisteredTeam, error) {
	rows := make([]RegisteredTeam, 0)
	err := rs.DB.Table("registered_teams").
		Where("scrim_id = ?", scrimID).
		Order("registered_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
