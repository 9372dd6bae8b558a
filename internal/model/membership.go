package model

import "time"

// MembershipStatus 会籍状态枚举
type MembershipStatus string

const (
	MembershipStatusActive  MembershipStatus = "active"  // 有效
	MembershipStatusExpired MembershipStatus = "expired" // 已过期
	MembershipStatusFrozen  MembershipStatus = "frozen"  // 冻结
)

// Membership 会员-场馆会籍
type Membership struct {
	BaseModel
	MemberID int64            `gorm:"not null;index:idx_memberships_member_gym" json:"member_id"`
	GymID    int64            `gorm:"not null;index:idx_memberships_member_gym;index:idx_memberships_gym" json:"gym_id"`
	Status   MembershipStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	// EndDate 会籍到期日（含当日）
	EndDate time.Time `gorm:"type:date;not null" json:"end_date"`
	// RemainingSessions 次卡剩余次数，NULL 表示不限次
	RemainingSessions *int `gorm:"type:int" json:"remaining_sessions,omitempty"`
}

// TableName 指定表名
func (Membership) TableName() string {
	return "memberships"
}

// TracksSessions 是否次卡会籍
func (m *Membership) TracksSessions() bool {
	return m.RemainingSessions != nil
}
