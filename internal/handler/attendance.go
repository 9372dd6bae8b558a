package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GymPulse/internal/middleware"
	"GymPulse/internal/model/dto"
	"GymPulse/internal/service"
	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/pkg/response"
)

// MarkEntry 围栏入场打卡
// POST /v1/attendance/entry
func MarkEntry(ctx context.Context, c *app.RequestContext) {
	memberID, ok := middleware.GetMemberID(ctx, c)
	if !ok {
		response.Error(ctx, c, pkgerrors.InvalidUserID)
		return
	}

	var req dto.AttendanceEntryRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := service.Attendance().HandleEntry(ctx, memberID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// MarkExit 围栏离场打卡
// POST /v1/attendance/exit
func MarkExit(ctx context.Context, c *app.RequestContext) {
	memberID, ok := middleware.GetMemberID(ctx, c)
	if !ok {
		response.Error(ctx, c, pkgerrors.InvalidUserID)
		return
	}

	var req dto.AttendanceExitRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := service.Attendance().HandleExit(ctx, memberID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// GetTodayAttendance 查询当日考勤状态
// GET /v1/attendance/today?gym_id=
func GetTodayAttendance(ctx context.Context, c *app.RequestContext) {
	memberID, ok := middleware.GetMemberID(ctx, c)
	if !ok {
		response.Error(ctx, c, pkgerrors.InvalidUserID)
		return
	}

	gymID, err := queryInt64(c, "gym_id")
	if err != nil {
		response.Error(ctx, c, pkgerrors.InvalidRequest.WithDetails(map[string]interface{}{
			"reason": "gym_id is required",
		}))
		return
	}

	data, err := service.Attendance().GetToday(ctx, memberID, gymID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// GetAttendanceHistory 查询考勤历史
// GET /v1/attendance/history?gym_id=&from=&to=&limit=
func GetAttendanceHistory(ctx context.Context, c *app.RequestContext) {
	memberID, ok := middleware.GetMemberID(ctx, c)
	if !ok {
		response.Error(ctx, c, pkgerrors.InvalidUserID)
		return
	}

	var q dto.AttendanceHistoryQuery
	if err := c.Bind(&q); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := service.Attendance().History(ctx, memberID, q)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.SuccessWithMeta(ctx, c, data.Records, map[string]interface{}{
		"total": data.Total,
	})
}

// GetAttendanceStats 查询月度考勤统计
// GET /v1/attendance/stats?gym_id=&month=
func GetAttendanceStats(ctx context.Context, c *app.RequestContext) {
	memberID, ok := middleware.GetMemberID(ctx, c)
	if !ok {
		response.Error(ctx, c, pkgerrors.InvalidUserID)
		return
	}

	var q dto.AttendanceStatsQuery
	if err := c.Bind(&q); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := service.Attendance().MonthlyStats(ctx, memberID, q)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}
