package slots

import (
	"errors"
	"log"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/internals/apperr"
	"github.com/scrimspace/scrim-server/internals/events"
	"github.com/scrimspace/scrim-server/internals/scrims"
	"github.com/scrimspace/scrim-server/internals/teams"
)

type SlotService struct {
	DB    *gorm.DB
	Pub   events.Publisher
	Teams *teams.TeamService
}

func New(db *gorm.DB, pub events.Publisher) *SlotService {
	return &SlotService{
		DB:    db,
		Pub:   pub,
		Teams: teams.New(db),
	}
}

func (s *SlotService) publish(ev events.ScrimEvent) {
	if s.Pub == nil {
		return
	}
	if err := s.Pub.Publish(ev); err != nil {
		log.Printf("error publishing event %s for scrim %s: %v", ev.Kind, ev.ScrimID, err)
	}
}

// GetFirstAvailableSlot returns the minimum number in [1, max_teams] that is
// neither assigned nor reserved. Freed slots are reused at the lowest number,
// so this is a set difference over the full range, not a counter.
func (s *SlotService) GetFirstAvailableSlot(scrim *scrims.Scrim) (int, error) {
	taken := make(map[int]bool)

	var assigned []int
	err := s.DB.Table("assigned_slots").Where("scrim_id = ?", scrim.ScrimID).
		Pluck("slot_number", &assigned).Error
	if err != nil {
		return 0, err
	}
	var reserved []int
	err = s.DB.Table("reserved_slots").Where("scrim_id = ?", scrim.ScrimID).
		Pluck("slot_number", &reserved).Error
	if err != nil {
		return 0, err
	}

	for _, n := range assigned {
		taken[n] = true
	}
	for _, n := range reserved {
		taken[n] = true
	}

	for n := 1; n <= scrim.MaxTeams; n++ {
		if !taken[n] {
			return n, nil
		}
	}
	return 0, apperr.Rule("all %d slots are taken", scrim.MaxTeams)
}

// reservationFor returns the captain's reservation for this scrim, if any.
func (s *SlotService) reservationFor(scrimID, teamID string) (*ReservedSlot, error) {
	captain, err := s.Teams.Captain(teamID)
	if err != nil {
		return nil, err
	}
	var reservation ReservedSlot
	err = s.DB.Table("reserved_slots").
		Where("scrim_id = ? AND captain_user_id = ?", scrimID, captain.UserID).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

// AssignSlot gives the team a numbered slot. slotNumber 0 means automatic:
// the captain's reserved slot when one exists, otherwise the first available
// number. The write is an upsert keyed on (scrim, team); losing a race on the
// slot-number index triggers one recompute before failing.
func (s *SlotService) AssignSlot(scrim *scrims.Scrim, teamID string, slotNumber int) (int, error) {
	if _, err := s.Teams.GetTeam(teamID); err != nil {
		return 0, err
	}

	auto := slotNumber == 0
	var reservation *ReservedSlot
	if auto {
		var err error
		reservation, err = s.reservationFor(scrim.ScrimID, teamID)
		if err != nil {
			return 0, err
		}
		if reservation != nil {
			slotNumber = reservation.SlotNumber
		} else {
			slotNumber, err = s.GetFirstAvailableSlot(scrim)
			if err != nil {
				return 0, err
			}
		}
	}

	assigned, err := s.tryAssign(scrim, teamID, slotNumber, reservation)
	if err != nil && auto && reservation == nil && apperr.IsUniqueViolation(err) {
		// Lost the race for the computed number; recompute once.
		slotNumber, err = s.GetFirstAvailableSlot(scrim)
		if err != nil {
			return 0, err
		}
		assigned, err = s.tryAssign(scrim, teamID, slotNumber, nil)
	}
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return 0, apperr.Rule("slot %d was just taken by another team", slotNumber)
		}
		return 0, err
	}

	s.publish(events.ScrimEvent{
		ScrimID:    scrim.ScrimID,
		Kind:       events.KindSlotAssigned,
		TeamID:     teamID,
		SlotNumber: assigned,
	})
	return assigned, nil
}

func (s *SlotService) tryAssign(scrim *scrims.Scrim, teamID string, slotNumber int, reservation *ReservedSlot) (int, error) {
	if slotNumber < 1 || slotNumber > scrim.MaxTeams {
		return 0, apperr.Rule("slot number must be between 1 and %d", scrim.MaxTeams)
	}

	// Refuse to steal a number a different team already holds.
	var holder AssignedSlot
	err := s.DB.Table("assigned_slots").
		Where("scrim_id = ? AND slot_number = ?", scrim.ScrimID, slotNumber).
		First(&holder).Error
	if err == nil && holder.TeamID != teamID {
		var holderTeam teams.Team
		if err := s.DB.Table("teams").Where("team_id = ?", holder.TeamID).First(&holderTeam).Error; err == nil {
			return 0, apperr.Rule("slot %d is already assigned to %s", slotNumber, holderTeam.Name)
		}
		return 0, apperr.Rule("slot %d is already assigned to another team", slotNumber)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if reservation != nil {
			res := tx.Table("reserved_slots").Where("id = ?", reservation.ID).Delete(&ReservedSlot{})
			if res.Error != nil {
				return res.Error
			}
		}

		var existing AssignedSlot
		err := tx.Table("assigned_slots").
			Where("scrim_id = ? AND team_id = ?", scrim.ScrimID, teamID).
			First(&existing).Error
		if err == nil {
			return tx.Table("assigned_slots").Where("id = ?", existing.ID).
				Update("slot_number", slotNumber).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Table("assigned_slots").Create(&AssignedSlot{
			ScrimID:    scrim.ScrimID,
			TeamID:     teamID,
			SlotNumber: slotNumber,
		}).Error
	})
	if err != nil {
		return 0, err
	}
	return slotNumber, nil
}

// UnassignSlot frees the team's slot and returns the freed number.
func (s *SlotService) UnassignSlot(scrim *scrims.Scrim, teamID string) (int, error) {
	var existing AssignedSlot
	err := s.DB.Table("assigned_slots").
		Where("scrim_id = ? AND team_id = ?", scrim.ScrimID, teamID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.Rule("team has no slot to unassign")
		}
		return 0, err
	}

	err = s.DB.Table("assigned_slots").Where("id = ?", existing.ID).Delete(&AssignedSlot{}).Error
	if err != nil {
		return 0, err
	}

	s.publish(events.ScrimEvent{
		ScrimID:    scrim.ScrimID,
		Kind:       events.KindSlotUnassigned,
		TeamID:     teamID,
		SlotNumber: existing.SlotNumber,
	})
	return existing.SlotNumber, nil
}

func (s *SlotService) ReserveSlot(scrim *scrims.Scrim, captainUserID, slotNumber int) error {
	if slotNumber < 1 || slotNumber > scrim.MaxTeams {
		return apperr.Rule("slot number must be between 1 and %d", scrim.MaxTeams)
	}
	if scrim.Stage != scrims.StageConfiguration {
		return apperr.Rule("slots can only be reserved before registration opens")
	}

	var count int64
	err := s.DB.Table("assigned_slots").
		Where("scrim_id = ? AND slot_number = ?", scrim.ScrimID, slotNumber).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Rule("slot %d is already assigned", slotNumber)
	}

	err = s.DB.Table("reserved_slots").Create(&ReservedSlot{
		ScrimID:       scrim.ScrimID,
		CaptainUserID: captainUserID,
		SlotNumber:    slotNumber,
	}).Error
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return apperr.Rule("slot %d is already reserved", slotNumber)
		}
		return err
	}
	return nil
}

func (s *SlotService) UnreserveSlot(scrimID string, captainUserID int) error {
	res := s.DB.Table("reserved_slots").
		Where("scrim_id = ? AND captain_user_id = ?", scrimID, captainUserID).
		Delete(&ReservedSlot{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Rule("no reservation to remove")
	}
	return nil
}

// FillSlots allocates a slot to every registered team that has none, in
// registration order or shuffled. Races with individual assigns are settled
// by the same unique indexes the single-team path relies on; teams left
// without a slot are named in the returned error.
func (s *SlotService) FillSlots(scrim *scrims.Scrim, method string) (int, error) {
	if method != FillNormal && method != FillRandom {
		return 0, apperr.Rule("fill method must be %s or %s", FillNormal, FillRandom)
	}

	var teamIDs []string
	err := s.DB.Table("registered_teams").
		Where("scrim_id = ? AND team_id NOT IN (?)",
			scrim.ScrimID,
			s.DB.Table("assigned_slots").Select("team_id").Where("scrim_id = ?", scrim.ScrimID)).
		Order("registered_at").
		Pluck("team_id", &teamIDs).Error
	if err != nil {
		return 0, err
	}

	if method == FillRandom {
		rand.Seed(uint64(time.Now().UnixNano()))
		rand.Shuffle(len(teamIDs), func(i, j int) {
			teamIDs[i], teamIDs[j] = teamIDs[j], teamIDs[i]
		})
	}

	filled := 0
	var missed []string
	for _, teamID := range teamIDs {
		if _, err := s.AssignSlot(scrim, teamID, 0); err != nil {
			log.Printf("error filling slot for team %s in scrim %s: %v", teamID, scrim.ScrimID, err)
			missed = append(missed, teamID)
			continue
		}
		filled++
	}
	if len(missed) > 0 {
		return filled, apperr.Rule("no slots left for %s", strings.Join(missed, ", "))
	}
	return filled, nil
}

// GetSlotList returns the current slot list ordered by number.
func (s *SlotService) GetSlotList(scrimID string) ([]SlotEntry, error) {
	var entries []SlotEntry
	err := s.DB.Table("assigned_slots").
		Select("assigned_slots.slot_number, assigned_slots.team_id, teams.name as team_name").
		Joins("JOIN teams ON teams.team_id = assigned_slots.team_id").
		Where("assigned_slots.scrim_id = ?", scrimID).
		Order("assigned_slots.slot_number").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
