package communities

import "time"

// Communities Table structure.
type Community struct {
	CommunityID        string    `json:"community_id" gorm:"primaryKey;not null"`
	Name               string    `json:"name" gorm:"not null"`
	Timezone           string    `json:"timezone" gorm:"default:'UTC';not null"`
	MaxTeamsPerCaptain int       `json:"max_teams_per_captain" gorm:"default:2;not null"`
	CleanupHour        int       `json:"cleanup_hour" gorm:"default:4;not null"`
	CreatedAt          time.Time `json:"created_at"`
}

// Bans Table structure. One row per banned user per community.
type Ban struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CommunityID string    `json:"community_id" gorm:"uniqueIndex:idx_community_ban;not null"`
	UserID      int       `json:"user_id" gorm:"uniqueIndex:idx_community_ban;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateCommunityRequestBody struct {
	Name               string `json:"name"`
	Timezone           string `json:"timezone"`
	MaxTeamsPerCaptain int    `json:"max_teams_per_captain"`
	CleanupHour        int    `json:"cleanup_hour"`
}

// CleanupHour is a pointer so an explicit 0 (midnight) is distinguishable
// from an omitted field.
type UpdateCommunityRequestBody struct {
	CommunityID        string `json:"community_id"`
	Name               string `json:"name"`
	Timezone           string `json:"timezone"`
	MaxTeamsPerCaptain int    `json:"max_teams_per_captain"`
	CleanupHour        *int   `json:"cleanup_hour"`
}
