package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"GymPulse/internal/middleware"
	"GymPulse/internal/model/dto"
	"GymPulse/internal/service"
	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/pkg/response"
)

// SubmitTelemetry 会员端上报定位遥测
// POST /v1/location-status/telemetry
func SubmitTelemetry(ctx context.Context, c *app.RequestContext) {
	memberID, ok := middleware.GetMemberID(ctx, c)
	if !ok {
		response.Error(ctx, c, pkgerrors.InvalidUserID)
		return
	}

	var req dto.TelemetryRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := service.LocationStatus().RecordTelemetry(ctx, memberID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// GetMemberSettings 会员端拉取扁平化考勤配置
// GET /v1/location-status/settings?gym_id=
func GetMemberSettings(ctx context.Context, c *app.RequestContext) {
	if _, ok := middleware.GetMemberID(ctx, c); !ok {
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

	data, err := service.Fence().ResolveForMember(ctx, gymID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// GetLocationStatus 会员查看自己的定位健康快照
// GET /v1/location-status?gym_id=
func GetLocationStatus(ctx context.Context, c *app.RequestContext) {
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

	data, err := service.LocationStatus().GetStatus(ctx, memberID, gymID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// AckWarning 会员按下标确认诊断警告
// POST /v1/location-status/warnings/:index/ack?gym_id=
func AckWarning(ctx context.Context, c *app.RequestContext) {
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

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(ctx, c, pkgerrors.WarningIndexInvalid.WithDetails(map[string]interface{}{
			"reason": "index must be numeric",
		}))
		return
	}

	if err := service.LocationStatus().AckWarning(ctx, memberID, gymID, index); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{"acknowledged": true, "index": index})
}
