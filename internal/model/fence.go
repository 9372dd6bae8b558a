package model

import (
	"database/sql/driver"
	"encoding/json"

	"GymPulse/pkg/geo"
)

// FenceShape 围栏形状枚举
type FenceShape string

const (
	FenceShapeCircular FenceShape = "circular" // 圆形
	FenceShapePolygon  FenceShape = "polygon"  // 多边形
)

// 圆形围栏半径允许范围（米），在配置入口强制
const (
	FenceRadiusMin = 50
	FenceRadiusMax = 500
	// FenceRadiusDefault 首次查询时自动创建的默认围栏半径
	FenceRadiusDefault = 100
)

// PolygonVertices 多边形顶点序列（JSONB）
type PolygonVertices []geo.Point

func (p PolygonVertices) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *PolygonVertices) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	bytes, err := toBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, p)
}

// FenceConfig 场馆围栏配置（管理端权威数据，每馆一条）
// 不变式：Shape=circular 时仅圆形字段有效，Shape=polygon 时仅 Polygon 有效。
type FenceConfig struct {
	BaseModel
	GymID int64      `gorm:"uniqueIndex;not null" json:"gym_id"`
	Shape FenceShape `gorm:"type:varchar(16);not null;default:'circular'" json:"shape"`

	// 圆形围栏参数
	CenterLat    float64 `gorm:"not null;default:0" json:"center_lat"`
	CenterLng    float64 `gorm:"not null;default:0" json:"center_lng"`
	RadiusMeters float64 `gorm:"not null;default:0" json:"radius_meters"`

	// 多边形围栏顶点（≥3）
	Polygon PolygonVertices `gorm:"type:jsonb" json:"polygon,omitempty"`

	Enabled       bool `gorm:"not null;default:true" json:"enabled"`
	AutoMarkEntry bool `gorm:"not null;default:true" json:"auto_mark_entry"`
	AutoMarkExit  bool `gorm:"not null;default:true" json:"auto_mark_exit"`
	// AllowMockLocation 历史遗留开关：模拟定位始终拒绝，此开关只放宽精度容差
	AllowMockLocation bool `gorm:"not null;default:false" json:"allow_mock_location"`

	// 反作弊阈值
	MinAccuracyMeters  float64 `gorm:"not null;default:50" json:"min_accuracy_meters"`
	MinimumStayMinutes int     `gorm:"not null;default:0" json:"minimum_stay_minutes"`

	// 营业窗口（"HH:MM"，可跨午夜；空则回退场馆营业时间）
	WindowStart string `gorm:"type:varchar(8);not null;default:''" json:"window_start"`
	WindowEnd   string `gorm:"type:varchar(8);not null;default:''" json:"window_end"`
}

// TableName 指定表名
func (FenceConfig) TableName() string {
	return "fence_configs"
}

// Center 围栏圆心（多边形取外包圆圆心）
func (f *FenceConfig) Center() geo.Point {
	if f.Shape == FenceShapePolygon {
		return geo.PolygonBoundingCircle(f.Polygon).Center
	}
	return geo.Point{Lat: f.CenterLat, Lng: f.CenterLng}
}

// EffectiveCircle 给旧客户端的圆形近似（多边形降级为外包圆）
func (f *FenceConfig) EffectiveCircle() geo.Circle {
	if f.Shape == FenceShapePolygon {
		return geo.PolygonBoundingCircle(f.Polygon)
	}
	return geo.Circle{
		Center:       geo.Point{Lat: f.CenterLat, Lng: f.CenterLng},
		RadiusMeters: f.RadiusMeters,
	}
}

// Contains 判定点是否在围栏内。多边形必须走精确几何，圆形近似只给旧客户端。
func (f *FenceConfig) Contains(p geo.Point) bool {
	if f.Shape == FenceShapePolygon {
		return geo.PolygonContains(f.Polygon, p)
	}
	return geo.CircleContains(geo.Point{Lat: f.CenterLat, Lng: f.CenterLng}, f.RadiusMeters, p)
}
