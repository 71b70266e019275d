package scheduler

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/internals/apperr"
	"github.com/scrimspace/scrim-server/internals/communities"
	"github.com/scrimspace/scrim-server/internals/scrims"
	"github.com/scrimspace/scrim-server/pkg/jobqueue"
)

// Job names dispatched by the worker.
const (
	JobOpenRegistration = "scrim:open"
	JobCleanup          = "cleanup"
)

type SchedulerService struct {
	Queue  jobqueue.Queue
	DB     *gorm.DB
	Scrims *scrims.ScrimService
	// RetentionDays is how long terminal scrims are kept before cleanup.
	RetentionDays int
}

func New(q jobqueue.Queue, db *gorm.DB, scrimSvc *scrims.ScrimService, retentionDays int) *SchedulerService {
	return &SchedulerService{
		Queue:         q,
		DB:            db,
		Scrims:        scrimSvc,
		RetentionDays: retentionDays,
	}
}

// OpenJobKey is the deterministic dedupe key for a scrim's "open" job.
func OpenJobKey(scrimID string) string {
	return "scrim:open:" + scrimID
}

// CleanupJobKey is the dedupe key for a community's daily cleanup job.
func CleanupJobKey(communityID string) string {
	return "cleanup:" + communityID
}

// ScheduleRegistrationStart replaces any pending "open" job for the scrim
// with one firing at its registration start time (immediately when that time
// has already passed).
func (s *SchedulerService) ScheduleRegistrationStart(scrim *scrims.Scrim) error {
	key := OpenJobKey(scrim.ScrimID)
	if err := s.Queue.Remove(key); err != nil {
		return err
	}

	runAt := scrim.RegistrationStartTime
	if now := time.Now(); runAt.Before(now) {
		runAt = now
	}
	return s.Queue.Enqueue(jobqueue.Job{
		Key:     key,
		Name:    JobOpenRegistration,
		Payload: scrim.ScrimID,
		RunAt:   runAt,
	})
}

// CancelRegistrationStart drops the pending "open" job, if any.
func (s *SchedulerService) CancelRegistrationStart(scrimID string) error {
	return s.Queue.Remove(OpenJobKey(scrimID))
}

// ScheduleAutoCleanup enqueues the community's next daily cleanup at its
// configured hour. The offset is derived from the community timezone at
// schedule time; editing the configuration reschedules through here.
func (s *SchedulerService) ScheduleAutoCleanup(community *communities.Community) error {
	loc, err := time.LoadLocation(community.Timezone)
	if err != nil {
		loc = time.UTC
	}

	now := time.Now().In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), community.CleanupHour, 0, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	key := CleanupJobKey(community.CommunityID)
	if err := s.Queue.Remove(key); err != nil {
		return err
	}
	return s.Queue.Enqueue(jobqueue.Job{
		Key:     key,
		Name:    JobCleanup,
		Payload: community.CommunityID,
		RunAt:   next,
	})
}

// HandleOpenRegistration re-reads the scrim before acting: configuration may
// have changed since scheduling, and a stale fire on an already-transitioned
// scrim is a silent no-op.
func (s *SchedulerService) HandleOpenRegistration(job jobqueue.Job) error {
	scrim, err := s.Scrims.GetScrim(job.Payload)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if scrim.Stage != scrims.StageConfiguration {
		return nil
	}

	err = s.Scrims.OpenRegistration(scrim.ScrimID)
	if err != nil && apperr.IsRule(err) {
		// Lost the race to an admin pressing the button; already open.
		return nil
	}
	return err
}

// HandleCleanup purges terminal scrims past the retention window and
// re-enqueues itself for the next day.
func (s *SchedulerService) HandleCleanup(job jobqueue.Job) error {
	communityID := job.Payload

	var community communities.Community
	err := s.DB.Table("communities").Where("community_id = ?", communityID).First(&community).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -s.RetentionDays)
	var stale []string
	err = s.DB.Table("scrims").
		Where("community_id = ? AND stage IN ? AND updated_at < ?",
			communityID, []string{scrims.StageCompleted, scrims.StageCanceled}, cutoff).
		Pluck("scrim_id", &stale).Error
	if err != nil {
		return err
	}

	for _, scrimID := range stale {
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("DELETE FROM assigned_slots WHERE scrim_id = ?", scrimID).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM reserved_slots WHERE scrim_id = ?", scrimID).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM registered_teams WHERE scrim_id = ?", scrimID).Error; err != nil {
				return err
			}
			return tx.Exec("DELETE FROM scrims WHERE scrim_id = ?", scrimID).Error
		})
		if err != nil {
			return err
		}
	}

	return s.ScheduleAutoCleanup(&community)
}
