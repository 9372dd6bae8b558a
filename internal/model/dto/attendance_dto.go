package dto

import "time"

// ========== Attendance 相关 DTO ==========

// LocationSample 客户端定位样本
type LocationSample struct {
	Latitude       float64 `json:"latitude" binding:"required"`
	Longitude      float64 `json:"longitude" binding:"required"`
	AccuracyMeters float64 `json:"accuracy_meters"`
	IsMockLocation bool    `json:"is_mock_location"`
}

// AttendanceEntryRequest 围栏入场打卡请求
type AttendanceEntryRequest struct {
	GymID    int64          `json:"gym_id" binding:"required"`
	Location LocationSample `json:"location" binding:"required"`
}

// AttendanceExitRequest 围栏离场打卡请求
type AttendanceExitRequest struct {
	GymID    int64          `json:"gym_id" binding:"required"`
	Location LocationSample `json:"location" binding:"required"`
}

// AttendanceRecordData 单条考勤记录
type AttendanceRecordData struct {
	EntryTime      *time.Time `json:"entry_time,omitempty"`
	ExitTime       *time.Time `json:"exit_time,omitempty"`
	Date           string     `json:"date"`
	Status         string     `json:"status"`
	AuthMethod     string     `json:"auth_method"`
	DistanceMeters float64    `json:"distance_meters"`
	DwellMinutes   int        `json:"dwell_minutes"`
	AlreadyMarked  bool       `json:"already_marked,omitempty"`
}

// AttendanceHistoryQuery 考勤历史查询参数
type AttendanceHistoryQuery struct {
	GymID int64  `query:"gym_id"`
	From  string `query:"from"`
	To    string `query:"to"`
	Limit int    `query:"limit"`
}

// AttendanceHistoryResponse 考勤历史响应
type AttendanceHistoryResponse struct {
	Records []AttendanceRecordData `json:"records"`
	Total   int64                  `json:"total"`
}

// AttendanceStatsQuery 月度统计查询参数
type AttendanceStatsQuery struct {
	GymID int64  `query:"gym_id"`
	Month string `query:"month"` // "2006-01"
}

// AttendanceStatsData 月度考勤统计
type AttendanceStatsData struct {
	Month             string  `json:"month"`
	PresentDays       int64   `json:"present_days"`
	TotalDwellMinutes int64   `json:"total_dwell_minutes"`
	AvgDwellMinutes   float64 `json:"avg_dwell_minutes"`
	CurrentStreakDays int     `json:"current_streak_days"`
}
