package notification

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

type NotificationService struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *NotificationService {
	return &NotificationService{
		DB: db,
	}
}

// Notify writes one notification row. Best-effort: failures are logged and
// never abort the calling operation.
func (ns *NotificationService) Notify(userID int, kind, format string, args ...interface{}) {
	n := Notification{
		UserID:      userID,
		Kind:        kind,
		Description: fmt.Sprintf(format, args...),
	}
	if err := ns.DB.Table("notifications").Create(&n).Error; err != nil {
		log.Printf("error creating notification for user %d: %v", userID, err)
	}
}

func (ns *NotificationService) GetNotifications(userID int) ([]Notification, error) {
	notifications := make([]Notification, 0)
	err := ns.DB.Table("notifications").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (ns *NotificationService) UpdateNotificationStatus(userID int) error {
	err := ns.DB.Exec("UPDATE notifications SET status = ? where user_id = ?", "seen", userID).Error
	if err != nil {
		return fmt.Errorf("not able to update status of notification with err: %v", err)
	}
	return nil
}
