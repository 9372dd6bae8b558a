package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// AccuracyClass 定位精度分级
type AccuracyClass string

const (
	AccuracyClassHigh    AccuracyClass = "high"    // ≤20m
	AccuracyClassMedium  AccuracyClass = "medium"  // ≤50m
	AccuracyClassLow     AccuracyClass = "low"     // >50m
	AccuracyClassUnknown AccuracyClass = "unknown" // 未上报
)

// ClassifyAccuracy 按米数分级
func ClassifyAccuracy(accuracyMeters float64) AccuracyClass {
	switch {
	case accuracyMeters <= 0:
		return AccuracyClassUnknown
	case accuracyMeters <= 20:
		return AccuracyClassHigh
	case accuracyMeters <= 50:
		return AccuracyClassMedium
	default:
		return AccuracyClassLow
	}
}

// 诊断警告类型
const (
	WarningTypeLocationDisabled = "location_disabled"
	WarningTypePermissionDenied = "permission_denied"
	WarningTypeBackgroundDenied = "background_permission_issue"
	WarningTypeLowAccuracy      = "low_accuracy"
	WarningTypeMockLocation     = "mock_location_detected"
	WarningTypeStaleTelemetry   = "stale_telemetry"
)

// LocationWarning 诊断警告条目（仅追加，运营端按下标确认）
type LocationWarning struct {
	ID           string    `json:"id"` // uuid
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
}

// WarningList 警告列表（JSONB）
type WarningList []LocationWarning

func (w WarningList) Value() (driver.Value, error) {
	if w == nil {
		return json.Marshal([]LocationWarning{})
	}
	return json.Marshal(w)
}

func (w *WarningList) Scan(value interface{}) error {
	if value == nil {
		*w = nil
		return nil
	}
	bytes, err := toBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, w)
}

// MemberLocationStatus 会员定位健康快照，每 (gym, member) 一条。
// 会员端定期上报遥测，运营端据此定位"为什么没自动打卡"。
type MemberLocationStatus struct {
	BaseModel
	GymID    int64 `gorm:"not null;uniqueIndex:idx_location_status_gym_member" json:"gym_id"`
	MemberID int64 `gorm:"not null;uniqueIndex:idx_location_status_gym_member" json:"member_id"`

	// 客户端能力位
	LocationEnabled      bool `gorm:"not null;default:false" json:"location_enabled"`
	PermissionGranted    bool `gorm:"not null;default:false" json:"permission_granted"`
	BackgroundPermission bool `gorm:"not null;default:false" json:"background_permission"`
	MockLocationDetected bool `gorm:"not null;default:false" json:"mock_location_detected"`

	// 最近一次定位样本
	LastLat        float64       `gorm:"not null;default:0" json:"last_lat"`
	LastLng        float64       `gorm:"not null;default:0" json:"last_lng"`
	LastAccuracy   float64       `gorm:"not null;default:0" json:"last_accuracy"`
	AccuracyClass  AccuracyClass `gorm:"type:varchar(16);not null;default:'unknown'" json:"accuracy_class"`
	LastReportedAt *time.Time    `json:"last_reported_at,omitempty"`

	AppVersion string `gorm:"type:varchar(32);not null;default:''" json:"app_version"`
	Platform   string `gorm:"type:varchar(16);not null;default:''" json:"platform"` // ios / android

	Warnings WarningList `gorm:"type:jsonb" json:"warnings"`
}

// TableName 指定表名
func (MemberLocationStatus) TableName() string {
	return "member_location_statuses"
}

// StaleThreshold 遥测过期阈值
const StaleThreshold = 30 * time.Minute

// IsStale 最近上报是否已过期
func (s *MemberLocationStatus) IsStale(now time.Time) bool {
	if s.LastReportedAt == nil {
		return true
	}
	return now.Sub(*s.LastReportedAt) > StaleThreshold
}

// FullyConfigured 定位链路是否全部就绪
func (s *MemberLocationStatus) FullyConfigured() bool {
	return s.LocationEnabled && s.PermissionGranted && s.BackgroundPermission
}
