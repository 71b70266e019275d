package registration

import "time"

// RegisteredTeams Table structure. Roster is the JSON snapshot of the
// members at the moment of registration; later roster edits do not touch it.
type RegisteredTeam struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ScrimID      string    `json:"scrim_id" gorm:"uniqueIndex:idx_scrim_registered;not null"`
	TeamID       string    `json:"team_id" gorm:"uniqueIndex:idx_scrim_registered;not null"`
	Roster       string    `json:"roster" gorm:"not null"`
	RegisteredAt time.Time `json:"registered_at" gorm:"not null"`
}

type SnapshotMember struct {
	UserID   int    `json:"user_id"`
	IGN      string `json:"ign"`
	Role     string `json:"role"`
	Position int    `json:"position"`
}
