package model

// Member 会员身份信息（鉴权与诊断联查用，完整会员档案由会员子系统维护）
type Member struct {
	BaseModel
	PublicID    int64  `gorm:"uniqueIndex;not null" json:"public_id"`
	Nickname    string `gorm:"type:varchar(64);not null;default:''" json:"nickname"`
	Phone       string `gorm:"type:varchar(32);not null;default:''" json:"phone"`
	DeviceToken string `gorm:"type:varchar(255);not null;default:''" json:"-"` // 推送设备令牌
}

// TableName 指定表名
func (Member) TableName() string {
	return "members"
}
