package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"GymPulse/internal/handler"
	"GymPulse/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	h.GET("/health", handler.HealthCheck)

	v1 := h.Group("/v1")

	// 围栏考勤路由
	attendance := v1.Group("/attendance")
	attendance.Use(middleware.AuthMiddleware())
	{
		attendance.POST("/entry", middleware.AttendanceRateLimitMiddleware(), handler.MarkEntry)
		attendance.POST("/exit", middleware.AttendanceRateLimitMiddleware(), handler.MarkExit)
		attendance.GET("/today", handler.GetTodayAttendance)
		attendance.GET("/history", handler.GetAttendanceHistory)
		attendance.GET("/stats", handler.GetAttendanceStats)
	}

	// 定位健康诊断路由
	locationStatus := v1.Group("/location-status")
	locationStatus.Use(middleware.AuthMiddleware())
	{
		locationStatus.GET("", handler.GetLocationStatus)
		locationStatus.POST("/telemetry", middleware.TelemetryRateLimitMiddleware(), handler.SubmitTelemetry)
		locationStatus.GET("/settings", handler.GetMemberSettings)
		locationStatus.POST("/warnings/:index/ack", handler.AckWarning)
	}

	// 管理端路由
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminRequired())
	{
		gyms := admin.Group("/gyms/:gym_id")
		{
			gyms.GET("/fence", handler.GetFence)
			gyms.PUT("/fence", middleware.FenceSaveRateLimitMiddleware(), handler.SaveFence)
			gyms.DELETE("/fence", handler.DeleteFence)
			gyms.POST("/fence/validate", handler.ValidateFenceCoordinate)
			gyms.GET("/members/location-issues", handler.ListLocationIssues)
		}
	}
}
