package model

import "time"

// MemberNotificationMessage 投递到 notification.topic 的推送消息体
type MemberNotificationMessage struct {
	MessageID int64                  `json:"message_id"` // 雪花 ID，消费端幂等键
	MemberID  int64                  `json:"member_id"`
	GymID     int64                  `json:"gym_id"`
	Category  string                 `json:"category"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
