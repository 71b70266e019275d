package communities

import (
	"errors"
	"time"

	"golang.org/x/exp/rand"
	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/internals/apperr"
)

type CommunityService struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *CommunityService {
	return &CommunityService{
		DB: db,
	}
}

func generateCommunityID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	rand.Seed(uint64(time.Now().UnixNano()))
	b := make([]byte, 8)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

func (c *CommunityService) CreateCommunity(body CreateCommunityRequestBody) (*Community, error) {
	if body.Name == "" {
		return nil, apperr.Rule("community name is required")
	}
	if body.Timezone != "" {
		if _, err := time.LoadLocation(body.Timezone); err != nil {
			return nil, apperr.Rule("unknown timezone %s", body.Timezone)
		}
	}

	community := Community{
		CommunityID:        generateCommunityID(),
		Name:               body.Name,
		Timezone:           body.Timezone,
		MaxTeamsPerCaptain: body.MaxTeamsPerCaptain,
		CleanupHour:        body.CleanupHour,
	}
	if community.Timezone == "" {
		community.Timezone = "UTC"
	}
	if community.MaxTeamsPerCaptain == 0 {
		community.MaxTeamsPerCaptain = 2
	}

	err := c.DB.Table("communities").Create(&community).Error
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// UpdateCommunity edits the community configuration. Omitted fields keep
// their value. Callers that change the timing fields must reschedule the
// cleanup job with the returned row.
func (c *CommunityService) UpdateCommunity(body UpdateCommunityRequestBody) (*Community, error) {
	community, err := c.GetCommunity(body.CommunityID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if body.Name != "" {
		updates["name"] = body.Name
	}
	if body.Timezone != "" {
		if _, err := time.LoadLocation(body.Timezone); err != nil {
			return nil, apperr.Rule("unknown timezone %s", body.Timezone)
		}
		updates["timezone"] = body.Timezone
	}
	if body.MaxTeamsPerCaptain > 0 {
		updates["max_teams_per_captain"] = body.MaxTeamsPerCaptain
	}
	if body.CleanupHour != nil {
		if *body.CleanupHour < 0 || *body.CleanupHour > 23 {
			return nil, apperr.Rule("cleanup_hour must be between 0 and 23")
		}
		updates["cleanup_hour"] = *body.CleanupHour
	}
	if len(updates) == 0 {
		return community, nil
	}

	err = c.DB.Table("communities").Where("community_id = ?", body.CommunityID).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return c.GetCommunity(body.CommunityID)
}

func (c *CommunityService) GetCommunity(communityID string) (*Community, error) {
	var community Community
	err := c.DB.Table("communities").Where("community_id = ?", communityID).First(&community).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("community %s not found", communityID)
		}
		return nil, err
	}
	return &community, nil
}

func (c *CommunityService) BanUser(communityID string, userID int) error {
	if _, err := c.GetCommunity(communityID); err != nil {
		return err
	}
	err := c.DB.Table("bans").Create(&Ban{CommunityID: communityID, UserID: userID}).Error
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return apperr.Rule("user is already banned in this community")
		}
		return err
	}
	return nil
}

func (c *CommunityService) UnbanUser(communityID string, userID int) error {
	res := c.DB.Table("bans").Where("community_id = ? AND user_id = ?", communityID, userID).Delete(&Ban{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Rule("user is not banned in this community")
	}
	return nil
}

func (c *CommunityService) IsBanned(communityID string, userID int) (bool, error) {
	var count int64
	err := c.DB.Table("bans").Where("community_id = ? AND user_id = ?", communityID, userID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AnyBanned reports whether any of the given users is banned in the community.
func (c *CommunityService) AnyBanned(communityID string, userIDs []int) (bool, error) {
	if len(userIDs) == 0 {
		return false, nil
	}
	var count int64
	err := c.DB.Table("bans").Where("community_id = ? AND user_id IN ?", communityID, userIDs).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
