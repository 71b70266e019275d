package scrims

import (
	"errors"
	"log"
	"time"

	"golang.org/x/exp/rand"
	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/internals/apperr"
	"github.com/scrimspace/scrim-server/internals/events"
)

type ScrimService struct {
	DB  *gorm.DB
	Pub events.Publisher
}

func New(db *gorm.DB, pub events.Publisher) *ScrimService {
	return &ScrimService{
		DB:  db,
		Pub: pub,
	}
}

func generateScrimID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	rand.Seed(uint64(time.Now().UnixNano()))
	b := make([]byte, 8)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

func (s *ScrimService) publish(ev events.ScrimEvent) {
	if s.Pub == nil {
		return
	}
	if err := s.Pub.Publish(ev); err != nil {
		log.Printf("error publishing event %s for scrim %s: %v", ev.Kind, ev.ScrimID, err)
	}
}

func (s *ScrimService) CreateScrim(body CreateScrimRequestBody) (*Scrim, error) {
	if body.MaxTeams <= 0 {
		return nil, apperr.Rule("max_teams must be positive")
	}
	if body.MinPlayersPerTeam <= 0 || body.MaxPlayersPerTeam < body.MinPlayersPerTeam {
		return nil, apperr.Rule("player bounds must satisfy 0 < min <= max")
	}
	if body.MaxSubstitutesPerTeam < 0 {
		return nil, apperr.Rule("max_substitutes_per_team must not be negative")
	}

	var count int64
	err := s.DB.Table("communities").Where("community_id = ?", body.CommunityID).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.NotFound("community %s not found", body.CommunityID)
	}

	scrim := Scrim{
		ScrimID:               generateScrimID(),
		CommunityID:           body.CommunityID,
		Name:                  body.Name,
		Stage:                 StageConfiguration,
		MaxTeams:              body.MaxTeams,
		MinPlayersPerTeam:     body.MinPlayersPerTeam,
		MaxPlayersPerTeam:     body.MaxPlayersPerTeam,
		MaxSubstitutesPerTeam: body.MaxSubstitutesPerTeam,
		RegistrationStartTime: body.RegistrationStartTime,
		AutoCloseRegistration: body.AutoCloseRegistration,
		AutoSlotList:          body.AutoSlotList,
	}

	err = s.DB.Table("scrims").Create(&scrim).Error
	if err != nil {
		return nil, err
	}
	return &scrim, nil
}

func (s *ScrimService) GetScrim(scrimID string) (*Scrim, error) {
	var scrim Scrim
	err := s.DB.Table("scrims").Where("scrim_id = ?", scrimID).First(&scrim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("scrim %s not found", scrimID)
		}
		return nil, err
	}
	return &scrim, nil
}

func (s *ScrimService) GetScrims(communityID string) ([]Scrim, error) {
	var scrims []Scrim
	q := s.DB.Table("scrims")
	if communityID != "" {
		q = q.Where("community_id = ?", communityID)
	}
	err := q.Order("created_at desc").Find(&scrims).Error
	if err != nil {
		return nil, err
	}
	return scrims, nil
}

// UpdateScrim edits configuration. Only allowed before registration opens,
// so the registration window job can safely be rescheduled by the caller.
func (s *ScrimService) UpdateScrim(body UpdateScrimRequestBody) (*Scrim, error) {
	scrim, err := s.GetScrim(body.ScrimID)
	if err != nil {
		return nil, err
	}
	if scrim.Stage != StageConfiguration {
		return nil, apperr.Rule("scrim can only be edited while in configuration")
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if body.Name != "" {
		updates["name"] = body.Name
	}
	if body.MaxTeams > 0 {
		updates["max_teams"] = body.MaxTeams
	}
	if body.MinPlayersPerTeam > 0 {
		updates["min_players_per_team"] = body.MinPlayersPerTeam
	}
	if body.MaxPlayersPerTeam > 0 {
		updates["max_players_per_team"] = body.MaxPlayersPerTeam
	}
	if body.MaxSubstitutesPerTeam != nil {
		updates["max_substitutes_per_team"] = *body.MaxSubstitutesPerTeam
	}
	if body.RegistrationStartTime != nil {
		updates["registration_start_time"] = *body.RegistrationStartTime
	}
	if body.AutoCloseRegistration != nil {
		updates["auto_close_registration"] = *body.AutoCloseRegistration
	}
	if body.AutoSlotList != nil {
		updates["auto_slot_list"] = *body.AutoSlotList
	}

	res := s.DB.Table("scrims").
		Where("scrim_id = ? AND stage = ?", body.ScrimID, StageConfiguration).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Rule("scrim can only be edited while in configuration")
	}
	return s.GetScrim(body.ScrimID)
}

func (s *ScrimService) DeleteScrim(scrimID string) error {
	scrim, err := s.GetScrim(scrimID)
	if err != nil {
		return err
	}
	if scrim.Stage != StageConfiguration {
		return apperr.Rule("scrim can only be deleted while in configuration")
	}
	res := s.DB.Table("scrims").
		Where("scrim_id = ? AND stage = ?", scrimID, StageConfiguration).
		Delete(&Scrim{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Rule("scrim can only be deleted while in configuration")
	}
	return nil
}

// transition performs the conditional stage write. Exactly one caller wins a
// race on the same scrim; the loser gets a stale-stage rule violation.
func (s *ScrimService) transition(scrimID, from, to string, extra map[string]interface{}) error {
	if _, err := s.GetScrim(scrimID); err != nil {
		return err
	}

	updates := map[string]interface{}{"stage": to, "updated_at": time.Now()}
	for k, v := range extra {
		updates[k] = v
	}

	res := s.DB.Table("scrims").
		Where("scrim_id = ? AND stage = ?", scrimID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Rule("scrim is not in %s stage", from)
	}

	s.publish(events.ScrimEvent{ScrimID: scrimID, Kind: events.KindStageChanged, Stage: to})
	return nil
}

func (s *ScrimService) OpenRegistration(scrimID string) error {
	return s.transition(scrimID, StageConfiguration, StageRegistration, nil)
}

func (s *ScrimService) CloseRegistration(scrimID string) error {
	return s.transition(scrimID, StageRegistration, StageOngoing, map[string]interface{}{
		"registration_ended_time": time.Now(),
	})
}

// EndScrim is idempotent at the caller level: the second call loses the
// conditional write and reports a rule violation instead of crashing.
func (s *ScrimService) EndScrim(scrimID string) error {
	return s.transition(scrimID, StageOngoing, StageCompleted, nil)
}

func (s *ScrimService) CancelScrim(scrimID string) error {
	scrim, err := s.GetScrim(scrimID)
	if err != nil {
		return err
	}
	if scrim.Stage == StageCompleted || scrim.Stage == StageCanceled {
		return apperr.Rule("scrim is already %s", scrim.Stage)
	}
	return s.transition(scrimID, scrim.Stage, StageCanceled, nil)
}

// RegisteredCount re-reads the committed registration count for a scrim.
func (s *ScrimService) RegisteredCount(scrimID string) (int64, error) {
	var count int64
	err := s.DB.Table("registered_teams").Where("scrim_id = ?", scrimID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
