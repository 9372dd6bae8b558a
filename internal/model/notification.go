package model

import "time"

// NotificationStatus 通知任务状态
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending" // 待发送
	NotificationStatusSent    NotificationStatus = "sent"    // 已发送
	NotificationStatusFailed  NotificationStatus = "failed"  // 发送失败
)

// 通知类别
const (
	NotificationCategoryEntry        = "attendance_entry"
	NotificationCategoryExit         = "attendance_exit"
	NotificationCategorySessionLow   = "session_low"
	NotificationCategoryFenceChanged = "fence_changed"
)

// NotificationTask 通知落库任务，由 worker 消费 MQ 后写入并推送
type NotificationTask struct {
	BaseModel
	MessageID int64              `gorm:"uniqueIndex;not null" json:"message_id"` // 雪花 ID，消费端幂等
	MemberID  int64              `gorm:"not null;index" json:"member_id"`
	GymID     int64              `gorm:"not null;index" json:"gym_id"`
	Category  string             `gorm:"type:varchar(32);not null" json:"category"`
	Title     string             `gorm:"type:varchar(128);not null" json:"title"`
	Body      string             `gorm:"type:varchar(512);not null" json:"body"`
	Metadata  JSONB              `gorm:"type:jsonb" json:"metadata"`
	Status    NotificationStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	SentAt    *time.Time         `json:"sent_at,omitempty"`
	Error     string             `gorm:"type:varchar(255);not null;default:''" json:"error,omitempty"`
}

// TableName 指定表名
func (NotificationTask) TableName() string {
	return "notification_tasks"
}
