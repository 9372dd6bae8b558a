package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"GymPulse/internal/model"
	"GymPulse/internal/model/dto"
	"GymPulse/internal/service"
	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/pkg/response"
)

// GetFence 查询场馆围栏配置（不存在时自动创建默认围栏）
// GET /v1/admin/gyms/:gym_id/fence
func GetFence(ctx context.Context, c *app.RequestContext) {
	gymID, err := paramInt64(c, "gym_id")
	if err != nil {
		response.Error(ctx, c, pkgerrors.InvalidRequest.WithDetails(map[string]interface{}{
			"reason": "gym_id must be numeric",
		}))
		return
	}

	cfg, err := service.Fence().GetOrCreate(ctx, gymID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, fenceToData(cfg))
}

// SaveFence 保存场馆围栏配置
// PUT /v1/admin/gyms/:gym_id/fence
func SaveFence(ctx context.Context, c *app.RequestContext) {
	gymID, err := paramInt64(c, "gym_id")
	if err != nil {
		response.Error(ctx, c, pkgerrors.InvalidRequest.WithDetails(map[string]interface{}{
			"reason": "gym_id must be numeric",
		}))
		return
	}

	var req dto.SaveFenceRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	cfg, err := service.Fence().Save(ctx, gymID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, fenceToData(cfg))
}

// DeleteFence 删除场馆围栏配置
// DELETE /v1/admin/gyms/:gym_id/fence
func DeleteFence(ctx context.Context, c *app.RequestContext) {
	gymID, err := paramInt64(c, "gym_id")
	if err != nil {
		response.Error(ctx, c, pkgerrors.InvalidRequest.WithDetails(map[string]interface{}{
			"reason": "gym_id must be numeric",
		}))
		return
	}

	if err := service.Fence().Delete(ctx, gymID); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}

// ValidateFenceCoordinate 试算坐标能否通过当前围栏配置
// POST /v1/admin/gyms/:gym_id/fence/validate
func ValidateFenceCoordinate(ctx context.Context, c *app.RequestContext) {
	gymID, err := paramInt64(c, "gym_id")
	if err != nil {
		response.Error(ctx, c, pkgerrors.InvalidRequest.WithDetails(map[string]interface{}{
			"reason": "gym_id must be numeric",
		}))
		return
	}

	var req dto.ValidateCoordinateRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := service.Fence().ValidateCoordinate(ctx, gymID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// ListLocationIssues 运营端查看场馆会员定位问题分组
// GET /v1/admin/gyms/:gym_id/members/location-issues
func ListLocationIssues(ctx context.Context, c *app.RequestContext) {
	gymID, err := paramInt64(c, "gym_id")
	if err != nil {
		response.Error(ctx, c, pkgerrors.InvalidRequest.WithDetails(map[string]interface{}{
			"reason": "gym_id must be numeric",
		}))
		return
	}

	data, err := service.LocationStatus().CategorizeGymMembers(ctx, gymID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

func fenceToData(cfg *model.FenceConfig) *dto.FenceConfigData {
	circle := cfg.EffectiveCircle()

	data := &dto.FenceConfigData{
		GymID:                 cfg.GymID,
		Shape:                 string(cfg.Shape),
		CenterLat:             cfg.CenterLat,
		CenterLng:             cfg.CenterLng,
		RadiusMeters:          cfg.RadiusMeters,
		Enabled:               cfg.Enabled,
		AutoMarkEntry:         cfg.AutoMarkEntry,
		AutoMarkExit:          cfg.AutoMarkExit,
		AllowMockLocation:     cfg.AllowMockLocation,
		MinAccuracyMeters:     cfg.MinAccuracyMeters,
		MinimumStayMinutes:    cfg.MinimumStayMinutes,
		WindowStart:           cfg.WindowStart,
		WindowEnd:             cfg.WindowEnd,
		EffectiveCenterLat:    circle.Center.Lat,
		EffectiveCenterLng:    circle.Center.Lng,
		EffectiveRadiusMeters: circle.RadiusMeters,
	}

	for _, v := range cfg.Polygon {
		data.Polygon = append(data.Polygon, dto.FencePoint{Latitude: v.Lat, Longitude: v.Lng})
	}

	return data
}
