package cache

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/pkg/kvstore"
)

type CacheService struct {
	DB *gorm.DB
	KV kvstore.KVStore
}

func New(db *gorm.DB, kv kvstore.KVStore) *CacheService {
	return &CacheService{
		DB: db,
		KV: kv,
	}
}

type SlotListEntry struct {
	SlotNumber int    `json:"slot_number"`
	TeamID     string `json:"team_id"`
	TeamName   string `json:"team_name"`
}

// LoadSlotList reads the scrim's slot list from the database and writes it
// through to redis, so lobby pushes read the cache instead of the tables.
func (c *CacheService) LoadSlotList(scrimID string) ([]SlotListEntry, error) {
	entries := make([]SlotListEntry, 0)
	err := c.DB.Table("assigned_slots").
		Select("assigned_slots.slot_number, assigned_slots.team_id, teams.name as team_name").
		Joins("JOIN teams ON teams.team_id = assigned_slots.team_id").
		Where("assigned_slots.scrim_id = ?", scrimID).
		Order("assigned_slots.slot_number").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}

	key := "slots_" + scrimID
	if err := c.KV.Set(key, string(data)); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetSlotList returns the cached slot list, falling back to a load when the
// key is missing.
func (c *CacheService) GetSlotList(scrimID string) ([]SlotListEntry, error) {
	data, err := c.KV.Get("slots_" + scrimID)
	if err != nil {
		return c.LoadSlotList(scrimID)
	}

	var entries []SlotListEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return c.LoadSlotList(scrimID)
	}
	return entries, nil
}
