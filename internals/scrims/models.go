package scrims

import "time"

// Lifecycle stages. Stages only move forward; CANCELED is reachable from
// any non-terminal stage by an admin.
const (
	StageConfiguration = "CONFIGURATION"
	StageRegistration  = "REGISTRATION"
	StageOngoing       = "ONGOING"
	StageCompleted     = "COMPLETED"
	StageCanceled      = "CANCELED"
)

// Scrims Table structure.
type Scrim struct {
	ScrimID               string     `json:"scrim_id" gorm:"primaryKey;not null"`
	CommunityID           string     `json:"community_id" gorm:"index;not null"`
	Name                  string     `json:"name" gorm:"not null"`
	Stage                 string     `json:"stage" gorm:"default:'CONFIGURATION';not null"`
	MaxTeams              int        `json:"max_teams" gorm:"not null"`
	MinPlayersPerTeam     int        `json:"min_players_per_team" gorm:"not null"`
	MaxPlayersPerTeam     int        `json:"max_players_per_team" gorm:"not null"`
	MaxSubstitutesPerTeam int        `json:"max_substitutes_per_team" gorm:"default:0;not null"`
	RegistrationStartTime time.Time  `json:"registration_start_time"`
	RegistrationEndedTime *time.Time `json:"registration_ended_time"`
	AutoCloseRegistration bool       `json:"auto_close_registration" gorm:"default:false;not null"`
	AutoSlotList          bool       `json:"auto_slot_list" gorm:"default:false;not null"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type CreateScrimRequestBody struct {
	CommunityID           string    `json:"community_id"`
	Name                  string    `json:"name"`
	MaxTeams              int       `json:"max_teams"`
	MinPlayersPerTeam     int       `json:"min_players_per_team"`
	MaxPlayersPerTeam     int       `json:"max_players_per_team"`
	MaxSubstitutesPerTeam int       `json:"max_substitutes_per_team"`
	RegistrationStartTime time.Time `json:"registration_start_time"`
	AutoCloseRegistration bool      `json:"auto_close_registration"`
	AutoSlotList          bool      `json:"auto_slot_list"`
}

type UpdateScrimRequestBody struct {
	ScrimID               string     `json:"scrim_id"`
	Name                  string     `json:"name"`
	MaxTeams              int        `json:"max_teams"`
	MinPlayersPerTeam     int        `json:"min_players_per_team"`
	MaxPlayersPerTeam     int        `json:"max_players_per_team"`
	MaxSubstitutesPerTeam *int       `json:"max_substitutes_per_team"`
	RegistrationStartTime *time.Time `json:"registration_start_time"`
	AutoCloseRegistration *bool      `json:"auto_close_registration"`
	AutoSlotList          *bool      `json:"auto_slot_list"`
}
