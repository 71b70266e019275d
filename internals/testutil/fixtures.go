package testutil

import (
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/internals/communities"
	"github.com/scrimspace/scrim-server/internals/scrims"
	"github.com/scrimspace/scrim-server/internals/teams"
)

func SeedCommunity(t *testing.T, g *gorm.DB, id string) *communities.Community {
	t.Helper()
	community := communities.Community{
		CommunityID:        id,
		Name:               "community " + id,
		Timezone:           "UTC",
		MaxTeamsPerCaptain: 2,
		CleanupHour:        4,
	}
	if err := g.Table("communities").Create(&community).Error; err != nil {
		t.Fatalf("seed community: %v", err)
	}
	return &community
}

func SeedScrim(t *testing.T, g *gorm.DB, scrim *scrims.Scrim) *scrims.Scrim {
	t.Helper()
	if scrim.Stage == "" {
		scrim.Stage = scrims.StageConfiguration
	}
	if scrim.Name == "" {
		scrim.Name = "scrim " + scrim.ScrimID
	}
	if scrim.MaxTeams == 0 {
		scrim.MaxTeams = 16
	}
	if scrim.MinPlayersPerTeam == 0 {
		scrim.MinPlayersPerTeam = 1
	}
	if scrim.MaxPlayersPerTeam == 0 {
		scrim.MaxPlayersPerTeam = 5
	}
	if err := g.Table("scrims").Create(scrim).Error; err != nil {
		t.Fatalf("seed scrim: %v", err)
	}
	return scrim
}

// SeedTeam creates a team with a captain and the requested number of extra
// members and substitutes. Member user ids follow the captain's.
func SeedTeam(t *testing.T, g *gorm.DB, communityID, teamID string, captainID, members, substitutes int) *teams.Team {
	t.Helper()
	team := teams.Team{
		TeamID:      teamID,
		CommunityID: communityID,
		Name:        "team " + teamID,
		Code:        "code-" + teamID,
	}
	if err := g.Table("teams").Create(&team).Error; err != nil {
		t.Fatalf("seed team: %v", err)
	}

	rows := []teams.TeamMember{{
		TeamID:   teamID,
		UserID:   captainID,
		IGN:      fmt.Sprintf("ign-%d", captainID),
		Role:     teams.RoleCaptain,
		Position: 1,
	}}
	next := captainID + 1
	position := 2
	for i := 0; i < members; i++ {
		rows = append(rows, teams.TeamMember{
			TeamID:   teamID,
			UserID:   next,
			IGN:      fmt.Sprintf("ign-%d", next),
			Role:     teams.RoleMember,
			Position: position,
		})
		next++
		position++
	}
	for i := 0; i < substitutes; i++ {
		rows = append(rows, teams.TeamMember{
			TeamID:   teamID,
			UserID:   next,
			IGN:      fmt.Sprintf("ign-%d", next),
			Role:     teams.RoleSubstitute,
			Position: position,
		})
		next++
		position++
	}
	for i := range rows {
		if err := g.Table("team_members").Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed team member: %v", err)
		}
	}
	return &team
}
