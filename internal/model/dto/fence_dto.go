package dto

// ========== Fence 相关 DTO ==========

// FencePoint 围栏顶点
type FencePoint struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// SaveFenceRequest 保存围栏配置请求
type SaveFenceRequest struct {
	Shape string `json:"shape" binding:"required"` // circular / polygon

	CenterLat    *float64 `json:"center_lat"`
	CenterLng    *float64 `json:"center_lng"`
	RadiusMeters *float64 `json:"radius_meters"`

	Polygon []FencePoint `json:"polygon"`

	Enabled            *bool    `json:"enabled"`
	AutoMarkEntry      *bool    `json:"auto_mark_entry"`
	AutoMarkExit       *bool    `json:"auto_mark_exit"`
	AllowMockLocation  *bool    `json:"allow_mock_location"`
	MinAccuracyMeters  *float64 `json:"min_accuracy_meters"`
	MinimumStayMinutes *int     `json:"minimum_stay_minutes"`
	WindowStart        *string  `json:"window_start"`
	WindowEnd          *string  `json:"window_end"`
}

// FenceConfigData 围栏配置响应
type FenceConfigData struct {
	GymID int64  `json:"gym_id"`
	Shape string `json:"shape"`

	CenterLat    float64 `json:"center_lat"`
	CenterLng    float64 `json:"center_lng"`
	RadiusMeters float64 `json:"radius_meters"`

	Polygon []FencePoint `json:"polygon,omitempty"`

	Enabled            bool    `json:"enabled"`
	AutoMarkEntry      bool    `json:"auto_mark_entry"`
	AutoMarkExit       bool    `json:"auto_mark_exit"`
	AllowMockLocation  bool    `json:"allow_mock_location"`
	MinAccuracyMeters  float64 `json:"min_accuracy_meters"`
	MinimumStayMinutes int     `json:"minimum_stay_minutes"`
	WindowStart        string  `json:"window_start"`
	WindowEnd          string  `json:"window_end"`

	// 旧客户端消费的圆形近似（多边形为外包圆）
	EffectiveCenterLat    float64 `json:"effective_center_lat"`
	EffectiveCenterLng    float64 `json:"effective_center_lng"`
	EffectiveRadiusMeters float64 `json:"effective_radius_meters"`
}

// ValidateCoordinateRequest 坐标试算请求（运营端调试围栏用）
type ValidateCoordinateRequest struct {
	Latitude       float64 `json:"latitude" binding:"required"`
	Longitude      float64 `json:"longitude" binding:"required"`
	AccuracyMeters float64 `json:"accuracy_meters"`
}

// ValidateCoordinateData 坐标试算结果
type ValidateCoordinateData struct {
	InsideFence      bool    `json:"inside_fence"`
	DistanceMeters   float64 `json:"distance_meters"`
	AccuracyAccepted bool    `json:"accuracy_accepted"`
	WithinHours      bool    `json:"within_hours"`
	WouldAdmit       bool    `json:"would_admit"`
}
