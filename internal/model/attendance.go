package model

import "time"

// AttendanceStatus 考勤记录状态
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present" // 已到场
	AttendanceStatusAbsent  AttendanceStatus = "absent"  // 缺勤
	AttendanceStatusPending AttendanceStatus = "pending" // 待定
)

// AuthMethod 考勤认证方式
type AuthMethod string

const (
	AuthMethodGeofence  AuthMethod = "geofence"  // 地理围栏
	AuthMethodManual    AuthMethod = "manual"    // 手动补签
	AuthMethodQR        AuthMethod = "qr"        // 二维码
	AuthMethodBiometric AuthMethod = "biometric" // 生物识别
)

// AttendanceRecord 每日考勤记录。
// (gym_id, member_id, date) 唯一索引是入场幂等的最终防线：
// 并发入场撞唯一键后重读已有记录返回。
type AttendanceRecord struct {
	BaseModel
	GymID    int64  `gorm:"not null;uniqueIndex:idx_attendance_gym_member_date;index:idx_attendance_gym_date" json:"gym_id"`
	MemberID int64  `gorm:"not null;uniqueIndex:idx_attendance_gym_member_date;index:idx_attendance_member" json:"member_id"`
	Date     string `gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_gym_member_date;index:idx_attendance_gym_date" json:"date"` // "2006-01-02"

	Status     AttendanceStatus `gorm:"type:varchar(16);not null;default:'present'" json:"status"`
	AuthMethod AuthMethod       `gorm:"type:varchar(16);not null;default:'geofence'" json:"auth_method"`

	// 入场快照
	EntryTime     *time.Time `json:"entry_time,omitempty"`
	EntryLat      float64    `gorm:"not null;default:0" json:"entry_lat"`
	EntryLng      float64    `gorm:"not null;default:0" json:"entry_lng"`
	EntryAccuracy float64    `gorm:"not null;default:0" json:"entry_accuracy"`
	// EntryDistance 入场点到围栏圆心的距离（米）
	EntryDistance float64 `gorm:"not null;default:0" json:"entry_distance"`

	// 离场快照
	ExitTime     *time.Time `json:"exit_time,omitempty"`
	ExitLat      float64    `gorm:"not null;default:0" json:"exit_lat"`
	ExitLng      float64    `gorm:"not null;default:0" json:"exit_lng"`
	ExitAccuracy float64    `gorm:"not null;default:0" json:"exit_accuracy"`

	// DwellMinutes 离场时计算的停留时长（分钟，向下取整）
	DwellMinutes int `gorm:"not null;default:0" json:"dwell_minutes"`
	// SessionDeducted 次卡是否已扣减（入场提交后异步扣，防重复）
	SessionDeducted bool `gorm:"not null;default:false" json:"session_deducted"`

	Note string `gorm:"type:varchar(255);not null;default:''" json:"note,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// HasExited 是否已记录离场
func (r *AttendanceRecord) HasExited() bool {
	return r.ExitTime != nil
}
