package slots

import "time"

// AssignedSlots Table structure. The two unique indexes are the allocator's
// concurrency backstop: at most one team per slot, at most one slot per team.
type AssignedSlot struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ScrimID    string    `json:"scrim_id" gorm:"uniqueIndex:idx_scrim_slot;uniqueIndex:idx_scrim_team;not null"`
	SlotNumber int       `json:"slot_number" gorm:"uniqueIndex:idx_scrim_slot;not null"`
	TeamID     string    `json:"team_id" gorm:"uniqueIndex:idx_scrim_team;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReservedSlots Table structure. A reservation is consumed the first time
// the captain's team registers.
type ReservedSlot struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ScrimID       string    `json:"scrim_id" gorm:"uniqueIndex:idx_scrim_reserved_slot;uniqueIndex:idx_scrim_captain;not null"`
	SlotNumber    int       `json:"slot_number" gorm:"uniqueIndex:idx_scrim_reserved_slot;not null"`
	CaptainUserID int       `json:"captain_user_id" gorm:"uniqueIndex:idx_scrim_captain;not null"`
	CreatedAt     time.Time `json:"created_at"`
}

// Fill methods.
const (
	FillNormal = "normal"
	FillRandom = "random"
)

type SlotEntry struct {
	SlotNumber int    `json:"slot_number"`
	TeamID     string `json:"team_id"`
	TeamName   string `json:"team_name"`
}
