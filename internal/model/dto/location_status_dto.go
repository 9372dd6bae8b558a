package dto

import "time"

// ========== LocationStatus 相关 DTO ==========

// TelemetryRequest 会员端定位遥测上报
type TelemetryRequest struct {
	GymID                int64   `json:"gym_id" binding:"required"`
	LocationEnabled      bool    `json:"location_enabled"`
	PermissionGranted    bool    `json:"permission_granted"`
	BackgroundPermission bool    `json:"background_permission"`
	MockLocationDetected bool    `json:"mock_location_detected"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	AccuracyMeters       float64 `json:"accuracy_meters"`
	AppVersion           string  `json:"app_version"`
	Platform             string  `json:"platform"`
}

// WarningData 诊断警告条目
type WarningData struct {
	Timestamp    time.Time `json:"timestamp"`
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged"`
	Index        int       `json:"index"`
}

// LocationStatusData 会员定位健康快照
type LocationStatusData struct {
	LastReportedAt       *time.Time    `json:"last_reported_at,omitempty"`
	AccuracyClass        string        `json:"accuracy_class"`
	AppVersion           string        `json:"app_version"`
	Platform             string        `json:"platform"`
	Warnings             []WarningData `json:"warnings"`
	GymID                int64         `json:"gym_id"`
	MemberID             int64         `json:"member_id"`
	LastAccuracy         float64       `json:"last_accuracy"`
	LocationEnabled      bool          `json:"location_enabled"`
	PermissionGranted    bool          `json:"permission_granted"`
	BackgroundPermission bool          `json:"background_permission"`
	MockLocationDetected bool          `json:"mock_location_detected"`
	Stale                bool          `json:"stale"`
	FullyConfigured      bool          `json:"fully_configured"`
}

// MemberSettingsData 会员端消费的扁平化考勤配置
type MemberSettingsData struct {
	Mode                 string  `json:"mode"`
	GeofenceEnabled      bool    `json:"geofence_enabled"`
	GeofenceLat          float64 `json:"geofence_lat"`
	GeofenceLng          float64 `json:"geofence_lng"`
	GeofenceRadiusMeters float64 `json:"geofence_radius_meters"`
	AutoMarkEntry        bool    `json:"auto_mark_entry"`
	AutoMarkExit         bool    `json:"auto_mark_exit"`
	AllowMockLocation    bool    `json:"allow_mock_location"`
	MinAccuracyMeters    float64 `json:"min_accuracy_meters"`
	WindowStart          string  `json:"window_start"`
	WindowEnd            string  `json:"window_end"`
}

// MemberIssueSummary 运营端问题分组里的单个会员
type MemberIssueSummary struct {
	LastReportedAt *time.Time `json:"last_reported_at,omitempty"`
	MemberID       int64      `json:"member_id"`
	Nickname       string     `json:"nickname"`
	Phone          string     `json:"phone"`
	AccuracyClass  string     `json:"accuracy_class"`
	OpenWarnings   int        `json:"open_warnings"`
}

// LocationIssuesData 运营端会员定位问题分组响应
type LocationIssuesData struct {
	Stale                     []MemberIssueSummary `json:"stale"`
	FullyConfigured           []MemberIssueSummary `json:"fully_configured"`
	LocationDisabled          []MemberIssueSummary `json:"location_disabled"`
	PermissionDenied          []MemberIssueSummary `json:"permission_denied"`
	BackgroundPermissionIssue []MemberIssueSummary `json:"background_permission_issue"`
	LowAccuracy               []MemberIssueSummary `json:"low_accuracy"`
	NoData                    []MemberIssueSummary `json:"no_data"`
}
