package teams

import "time"

// Roster roles. Exactly one CAPTAIN exists per team; only disbanding the
// team removes a captain.
const (
	RoleCaptain    = "CAPTAIN"
	RoleMember     = "MEMBER"
	RoleSubstitute = "SUBSTITUTE"
)

// RosterHardMax is the absolute roster ceiling regardless of scrim limits.
const RosterHardMax = 10

// Teams Table structure.
type Team struct {
	TeamID      string    `json:"team_id" gorm:"primaryKey;not null"`
	CommunityID string    `json:"community_id" gorm:"uniqueIndex:idx_team_name;not null"`
	Name        string    `json:"name" gorm:"uniqueIndex:idx_team_name;not null"`
	Tag         string    `json:"tag"`
	Code        string    `json:"code" gorm:"uniqueIndex;not null"`
	Banned      bool      `json:"banned" gorm:"default:false;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamMembers Table structure.
type TeamMember struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	TeamID    string    `json:"team_id" gorm:"uniqueIndex:idx_team_user;not null"`
	UserID    int       `json:"user_id" gorm:"uniqueIndex:idx_team_user;not null"`
	IGN       string    `json:"ign" gorm:"not null"`
	Role      string    `json:"role" gorm:"not null"`
	Position  int       `json:"position" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateTeamRequestBody struct {
	CommunityID string `json:"community_id"`
	Name        string `json:"name"`
	IGN         string `json:"ign"`
	Tag         string `json:"tag"`
}

type JoinTeamRequestBody struct {
	CommunityID string `json:"community_id"`
	Code        string `json:"code"`
	IGN         string `json:"ign"`
	Substitute  bool   `json:"substitute"`
}

type TeamDetails struct {
	Team    Team         `json:"team"`
	Members []TeamMember `json:"members"`
}
