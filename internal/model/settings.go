package model

// AttendanceMode 考勤模式枚举（旧客户端协议）
type AttendanceMode string

const (
	AttendanceModeManual    AttendanceMode = "manual"    // 手动
	AttendanceModeGeofence  AttendanceMode = "geofence"  // 地理围栏
	AttendanceModeBiometric AttendanceMode = "biometric" // 生物识别
	AttendanceModeQR        AttendanceMode = "qr"        // 二维码
	AttendanceModeHybrid    AttendanceMode = "hybrid"    // 混合
)

// GeofenceCapable 该模式是否包含围栏自动考勤
func (m AttendanceMode) GeofenceCapable() bool {
	return m == AttendanceModeGeofence || m == AttendanceModeHybrid
}

// LegacyAttendanceSettings 旧版会员端消费的扁平化考勤配置，每馆一条。
// geofence 快照始终可由 FenceConfig 推导（多边形降级为外包圆），
// FenceConfig 变更时同步重算；权威数据在 FenceConfig。
type LegacyAttendanceSettings struct {
	BaseModel
	GymID int64          `gorm:"uniqueIndex;not null" json:"gym_id"`
	Mode  AttendanceMode `gorm:"type:varchar(16);not null;default:'manual'" json:"mode"`

	// 围栏快照（扁平化，圆形近似）
	GeofenceEnabled      bool    `gorm:"not null;default:false" json:"geofence_enabled"`
	GeofenceLat          float64 `gorm:"not null;default:0" json:"geofence_lat"`
	GeofenceLng          float64 `gorm:"not null;default:0" json:"geofence_lng"`
	GeofenceRadiusMeters float64 `gorm:"not null;default:0" json:"geofence_radius_meters"`
	AutoMarkEntry        bool    `gorm:"not null;default:false" json:"auto_mark_entry"`
	AutoMarkExit         bool    `gorm:"not null;default:false" json:"auto_mark_exit"`
	AllowMockLocation    bool    `gorm:"not null;default:false" json:"allow_mock_location"`
	MinAccuracyMeters    float64 `gorm:"not null;default:0" json:"min_accuracy_meters"`

	// 手动模式附加字段（本引擎只透传）
	LateThresholdMinutes int        `gorm:"not null;default:0" json:"late_threshold_minutes"`
	AllowedStatuses      StringList `gorm:"type:jsonb" json:"allowed_statuses"`
}

// TableName 指定表名
func (LegacyAttendanceSettings) TableName() string {
	return "legacy_attendance_settings"
}
