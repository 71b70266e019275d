package teams

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/internals/apperr"
	"github.com/scrimspace/scrim-server/internals/communities"
	"github.com/scrimspace/scrim-server/internals/scrims"
)

type TeamService struct {
	DB          *gorm.DB
	Communities *communities.CommunityService
}

func New(db *gorm.DB) *TeamService {
	return &TeamService{
		DB:          db,
		Communities: communities.New(db),
	}
}

func generateCode(n int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	rand.Seed(uint64(time.Now().UnixNano()))
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

func (ts *TeamService) GetTeam(teamID string) (*Team, error) {
	var team Team
	err := ts.DB.Table("teams").Where("team_id = ?", teamID).First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("team %s not found", teamID)
		}
		return nil, err
	}
	return &team, nil
}

func (ts *TeamService) GetTeamDetails(teamID string) (*TeamDetails, error) {
	team, err := ts.GetTeam(teamID)
	if err != nil {
		return nil, err
	}
	members, err := ts.GetMembers(teamID)
	if err != nil {
		return nil, err
	}
	return &TeamDetails{Team: *team, Members: members}, nil
}

func (ts *TeamService) GetMembers(teamID string) ([]TeamMember, error) {
	var members []TeamMember
	err := ts.DB.Table("team_members").Where("team_id = ?", teamID).Order("position").Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// CreateTeam creates the team row and its sole captain membership in one
// transaction, so a team without a captain is never observable.
func (ts *TeamService) CreateTeam(userID int, body CreateTeamRequestBody) (*Team, error) {
	if body.Name == "" || body.IGN == "" {
		return nil, apperr.Rule("team name and ign are required")
	}

	community, err := ts.Communities.GetCommunity(body.CommunityID)
	if err != nil {
		return nil, err
	}

	banned, err := ts.Communities.IsBanned(body.CommunityID, userID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, apperr.Check("you are banned in this community")
	}

	var nameCount int64
	err = ts.DB.Table("teams").
		Where("community_id = ? AND name = ?", body.CommunityID, body.Name).
		Count(&nameCount).Error
	if err != nil {
		return nil, err
	}
	if nameCount > 0 {
		return nil, apperr.Rule("team name %s is already taken in this community", body.Name)
	}

	var captainCount int64
	err = ts.DB.Table("team_members").
		Joins("JOIN teams ON teams.team_id = team_members.team_id").
		Where("teams.community_id = ? AND team_members.user_id = ? AND team_members.role = ?",
			body.CommunityID, userID, RoleCaptain).
		Count(&captainCount).Error
	if err != nil {
		return nil, err
	}
	if captainCount >= int64(community.MaxTeamsPerCaptain) {
		return nil, apperr.Rule("you already captain %d teams, the limit in this community", captainCount)
	}

	team := Team{
		TeamID:      generateCode(8),
		CommunityID: body.CommunityID,
		Name:        body.Name,
		Tag:         body.Tag,
		Code:        generateCode(6),
	}

	err = ts.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("teams").Create(&team).Error; err != nil {
			return err
		}
		captain := TeamMember{
			TeamID:   team.TeamID,
			UserID:   userID,
			IGN:      body.IGN,
			Role:     RoleCaptain,
			Position: 1,
		}
		return tx.Table("team_members").Create(&captain).Error
	})
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Rule("team name %s is already taken in this community", body.Name)
		}
		return nil, err
	}
	return &team, nil
}

func (ts *TeamService) JoinTeam(userID int, body JoinTeamRequestBody) (*Team, error) {
	if body.IGN == "" {
		return nil, apperr.Rule("ign is required")
	}

	var team Team
	err := ts.DB.Table("teams").
		Where("community_id = ? AND code = ?", body.CommunityID, body.Code).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Rule("no team with that join code")
		}
		return nil, err
	}
	if team.Banned {
		return nil, apperr.Check("this team is banned")
	}

	banned, err := ts.Communities.IsBanned(body.CommunityID, userID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, apperr.Check("you are banned in this community")
	}

	members, err := ts.GetMembers(team.TeamID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return nil, apperr.Rule("you are already a member of %s", team.Name)
		}
	}
	if len(members) >= RosterHardMax {
		return nil, apperr.Rule("team %s is full", team.Name)
	}

	role := RoleMember
	if body.Substitute {
		role = RoleSubstitute
	}
	position := 1
	for _, m := range members {
		if m.Position >= position {
			position = m.Position + 1
		}
	}

	member := TeamMember{
		TeamID:   team.TeamID,
		UserID:   userID,
		IGN:      body.IGN,
		Role:     role,
		Position: position,
	}
	err = ts.DB.Table("team_members").Create(&member).Error
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Rule("you are already a member of %s", team.Name)
		}
		return nil, err
	}
	return &team, nil
}

// activeRegistrations counts registered-team rows for scrims that have not
// yet finished; roster edits are blocked while any exist.
func (ts *TeamService) activeRegistrations(teamID string) (int64, error) {
	var count int64
	err := ts.DB.Table("registered_teams").
		Joins("JOIN scrims ON scrims.scrim_id = registered_teams.scrim_id").
		Where("registered_teams.team_id = ? AND scrims.stage NOT IN ?",
			teamID, []string{scrims.StageCompleted, scrims.StageCanceled}).
		Count(&count).Error
	return count, err
}

func (ts *TeamService) guardRosterEdit(team *Team) error {
	if team.Banned {
		return apperr.Check("this team is banned")
	}
	active, err := ts.activeRegistrations(team.TeamID)
	if err != nil {
		return err
	}
	if active > 0 {
		return apperr.Rule("team %s is registered for an active scrim, unregister first", team.Name)
	}
	return nil
}

func (ts *TeamService) KickMember(teamID string, userID int) error {
	team, err := ts.GetTeam(teamID)
	if err != nil {
		return err
	}
	if err := ts.guardRosterEdit(team); err != nil {
		return err
	}

	var member TeamMember
	err = ts.DB.Table("team_members").
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user is not a member of this team")
		}
		return err
	}
	if member.Role == RoleCaptain {
		return apperr.Rule("the captain cannot be kicked, disband the team instead")
	}

	return ts.DB.Table("team_members").
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&TeamMember{}).Error
}

func (ts *TeamService) LeaveTeam(teamID string, userID int) error {
	team, err := ts.GetTeam(teamID)
	if err != nil {
		return err
	}
	if err := ts.guardRosterEdit(team); err != nil {
		return err
	}

	var member TeamMember
	err = ts.DB.Table("team_members").
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("you are not a member of this team")
		}
		return err
	}
	if member.Role == RoleCaptain {
		return apperr.Rule("the captain cannot leave, disband the team instead")
	}

	return ts.DB.Table("team_members").
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&TeamMember{}).Error
}

// DisbandTeam removes the whole team including its captain. The caller must
// be the captain.
func (ts *TeamService) DisbandTeam(teamID string, userID int) error {
	team, err := ts.GetTeam(teamID)
	if err != nil {
		return err
	}
	if err := ts.guardRosterEdit(team); err != nil {
		return err
	}

	var captain TeamMember
	err = ts.DB.Table("team_members").
		Where("team_id = ? AND role = ?", teamID, RoleCaptain).
		First(&captain).Error
	if err != nil {
		return err
	}
	if captain.UserID != userID {
		return apperr.Check("only the captain can disband the team")
	}

	return ts.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("team_members").Where("team_id = ?", teamID).Delete(&TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Table("teams").Where("team_id = ?", teamID).Delete(&Team{}).Error
	})
}

func (ts *TeamService) SetTeamBanned(teamID string, banned bool) error {
	res := ts.DB.Table("teams").Where("team_id = ?", teamID).Update("banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("team %s not found", teamID)
	}
	return nil
}

// Captain returns the team's captain membership.
func (ts *TeamService) Captain(teamID string) (*TeamMember, error) {
	var captain TeamMember
	err := ts.DB.Table("team_members").
		Where("team_id = ? AND role = ?", teamID, RoleCaptain).
		First(&captain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("team %s has no captain", teamID)
		}
		return nil, err
	}
	return &captain, nil
}
