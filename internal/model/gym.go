package model

// Gym 场馆注册信息
type Gym struct {
	BaseModel
	PublicID int64  `gorm:"uniqueIndex;not null" json:"public_id"`
	Name     string `gorm:"type:varchar(128);not null" json:"name"`
	Address  string `gorm:"type:varchar(255);not null;default:''" json:"address"`
	Timezone string `gorm:"type:varchar(64);not null;default:'Asia/Shanghai'" json:"timezone"`

	// 注册坐标；启用圆形围栏后会被镜像为围栏圆心（给其他子系统的反范式冗余）
	Latitude  float64 `gorm:"not null;default:0" json:"latitude"`
	Longitude float64 `gorm:"not null;default:0" json:"longitude"`
	// GeofenceRadius 圆形围栏半径镜像，单位米；0 表示未镜像
	GeofenceRadius float64 `gorm:"not null;default:0" json:"geofence_radius"`

	// 营业时间（"HH:MM"，营业窗口可跨午夜）
	OpenTime  string `gorm:"type:varchar(8);not null;default:''" json:"open_time"`
	CloseTime string `gorm:"type:varchar(8);not null;default:''" json:"close_time"`
	// ActiveDays 营业日（周一~周日的英文小写），空表示每天营业
	ActiveDays StringList `gorm:"type:jsonb" json:"active_days"`
}

// TableName 指定表名
func (Gym) TableName() string {
	return "gyms"
}
