package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"GymPulse/internal/cache"
	"GymPulse/internal/model"
	"GymPulse/internal/model/dto"
	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/pkg/geo"
	"GymPulse/pkg/logger"
	"GymPulse/pkg/metrics"
	"GymPulse/storage/database"
	"GymPulse/utils"
)

type FenceService struct{}

var (
	fenceService *FenceService
	fenceOnce    sync.Once
)

func Fence() *FenceService {
	fenceOnce.Do(func() {
		fenceService = &FenceService{}
	})
	return fenceService
}

// GetOrCreate 查询场馆围栏配置，不存在则按场馆注册坐标创建默认圆形围栏。
// 保证任何场馆一经查询就有可解析的围栏。
func (s *FenceService) GetOrCreate(ctx context.Context, gymID int64) (*model.FenceConfig, error) {
	if cached, _ := cache.GetFenceConfig(ctx, gymID); cached != nil {
		return cached, nil
	}

	db := database.DB()

	var cfg model.FenceConfig
	err := db.WithContext(ctx).Where("gym_id = ?", gymID).First(&cfg).Error
	if err == nil {
		if cacheErr := cache.SetFenceConfig(ctx, &cfg); cacheErr != nil {
			logger.Logger.Warn("Failed to cache fence config", zap.Error(cacheErr))
		}
		return &cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query fence config: %w", err)
	}

	gym, err := Gym().GetGym(ctx, gymID)
	if err != nil {
		return nil, err
	}

	cfg = model.FenceConfig{
		GymID:             gymID,
		Shape:             model.FenceShapeCircular,
		CenterLat:         gym.Latitude,
		CenterLng:         gym.Longitude,
		RadiusMeters:      model.FenceRadiusDefault,
		Enabled:           true,
		AutoMarkEntry:     true,
		AutoMarkExit:      true,
		MinAccuracyMeters: 50,
	}

	if err := db.WithContext(ctx).Create(&cfg).Error; err != nil {
		// 并发创建撞唯一键，重读既有配置
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := db.WithContext(ctx).Where("gym_id = ?", gymID).First(&cfg).Error; err != nil {
				return nil, fmt.Errorf("failed to re-read fence config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to create default fence config: %w", err)
		}
	}

	if cacheErr := cache.SetFenceConfig(ctx, &cfg); cacheErr != nil {
		logger.Logger.Warn("Failed to cache fence config", zap.Error(cacheErr))
	}
	return &cfg, nil
}

// Save 保存围栏配置。主写成功后同步旧版快照并镜像圆形参数到场馆记录，
// 两者失败都只记日志，不回滚权威写入。
func (s *FenceService) Save(ctx context.Context, gymID int64, req dto.SaveFenceRequest) (*model.FenceConfig, error) {
	if err := validateFenceRequest(req); err != nil {
		return nil, err
	}

	gym, err := Gym().GetGym(ctx, gymID)
	if err != nil {
		return nil, err
	}

	db := database.DB()

	var cfg model.FenceConfig
	err = db.WithContext(ctx).Where("gym_id = ?", gymID).First(&cfg).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query fence config: %w", err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = model.FenceConfig{
			GymID:             gymID,
			Enabled:           true,
			AutoMarkEntry:     true,
			AutoMarkExit:      true,
			MinAccuracyMeters: 50,
		}
	}

	applyFencePatch(&cfg, req)

	if err := db.WithContext(ctx).Save(&cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to save fence config: %w", err)
	}

	metrics.RecordFenceSave(ctx, gymID, string(cfg.Shape))

	// 旧版快照同步：尽力而为，权威写入已落库
	if err := s.syncLegacySnapshot(ctx, &cfg); err != nil {
		metrics.RecordFenceSyncFailure(ctx, gymID)
		logger.Logger.Error("Failed to sync legacy attendance settings",
			zap.Int64("gym_id", gymID),
			zap.Error(err),
		)
	}

	// 圆形围栏把圆心/半径镜像回场馆记录，供其他子系统反范式读取
	if cfg.Shape == model.FenceShapeCircular {
		mirror := map[string]interface{}{
			"latitude":        cfg.CenterLat,
			"longitude":       cfg.CenterLng,
			"geofence_radius": cfg.RadiusMeters,
		}
		if err := db.WithContext(ctx).Model(&model.Gym{}).Where("id = ?", gym.ID).Updates(mirror).Error; err != nil {
			logger.Logger.Error("Failed to mirror fence circle onto gym record",
				zap.Int64("gym_id", gymID),
				zap.Error(err),
			)
		}
	}

	if err := cache.InvalidateFenceConfig(ctx, gymID); err != nil {
		logger.Logger.Warn("Failed to invalidate fence cache", zap.Error(err))
	}

	return &cfg, nil
}

// Delete 删除围栏配置并关闭旧版快照里的围栏开关
func (s *FenceService) Delete(ctx context.Context, gymID int64) error {
	db := database.DB()

	var cfg model.FenceConfig
	err := db.WithContext(ctx).Where("gym_id = ?", gymID).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.FenceNotConfigured
		}
		return fmt.Errorf("failed to query fence config: %w", err)
	}

	// 物理删除：gym_id 唯一索引不区分软删行，留着会挡住重建
	if err := db.WithContext(ctx).Unscoped().Delete(&cfg).Error; err != nil {
		return fmt.Errorf("failed to delete fence config: %w", err)
	}

	err = db.WithContext(ctx).
		Model(&model.LegacyAttendanceSettings{}).
		Where("gym_id = ?", gymID).
		Updates(map[string]interface{}{
			"geofence_enabled": false,
			"mode":             model.AttendanceModeManual,
		}).Error
	if err != nil {
		logger.Logger.Error("Failed to disable legacy geofence snapshot",
			zap.Int64("gym_id", gymID),
			zap.Error(err),
		)
	}

	if err := cache.InvalidateFenceConfig(ctx, gymID); err != nil {
		logger.Logger.Warn("Failed to invalidate fence cache", zap.Error(err))
	}

	return nil
}

// ResolveForMember 会员端消费的扁平化配置。有权威配置时以权威配置实时推导，
// 仅当权威配置不存在时回退旧版快照。
func (s *FenceService) ResolveForMember(ctx context.Context, gymID int64) (*dto.MemberSettingsData, error) {
	gym, err := Gym().GetGym(ctx, gymID)
	if err != nil {
		return nil, err
	}

	db := database.DB()

	var cfg model.FenceConfig
	err = db.WithContext(ctx).Where("gym_id = ?", gymID).First(&cfg).Error
	if err == nil {
		circle := cfg.EffectiveCircle()
		start, end := s.effectiveWindow(gym, &cfg)

		mode := model.AttendanceModeManual
		if cfg.Enabled {
			mode = model.AttendanceModeGeofence
		}

		return &dto.MemberSettingsData{
			Mode:                 string(mode),
			GeofenceEnabled:      cfg.Enabled,
			GeofenceLat:          circle.Center.Lat,
			GeofenceLng:          circle.Center.Lng,
			GeofenceRadiusMeters: circle.RadiusMeters,
			AutoMarkEntry:        cfg.AutoMarkEntry,
			AutoMarkExit:         cfg.AutoMarkExit,
			AllowMockLocation:    cfg.AllowMockLocation,
			MinAccuracyMeters:    cfg.MinAccuracyMeters,
			WindowStart:          start,
			WindowEnd:            end,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query fence config: %w", err)
	}

	var legacy model.LegacyAttendanceSettings
	err = db.WithContext(ctx).Where("gym_id = ?", gymID).First(&legacy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 两个存储都没有：默认手动模式
			start, end := s.effectiveWindow(gym, nil)
			return &dto.MemberSettingsData{
				Mode:        string(model.AttendanceModeManual),
				WindowStart: start,
				WindowEnd:   end,
			}, nil
		}
		return nil, fmt.Errorf("failed to query legacy settings: %w", err)
	}

	start, end := s.effectiveWindow(gym, nil)
	return &dto.MemberSettingsData{
		Mode:                 string(legacy.Mode),
		GeofenceEnabled:      legacy.GeofenceEnabled,
		GeofenceLat:          legacy.GeofenceLat,
		GeofenceLng:          legacy.GeofenceLng,
		GeofenceRadiusMeters: legacy.GeofenceRadiusMeters,
		AutoMarkEntry:        legacy.AutoMarkEntry,
		AutoMarkExit:         legacy.AutoMarkExit,
		AllowMockLocation:    legacy.AllowMockLocation,
		MinAccuracyMeters:    legacy.MinAccuracyMeters,
		WindowStart:          start,
		WindowEnd:            end,
	}, nil
}

// ContainsPoint 判定坐标是否在场馆围栏内，同时返回到围栏圆心的距离
func (s *FenceService) ContainsPoint(ctx context.Context, gymID int64, p geo.Point) (bool, float64, error) {
	cfg, err := s.GetOrCreate(ctx, gymID)
	if err != nil {
		return false, 0, err
	}

	distance := geo.DistanceMeters(cfg.Center(), p)
	return cfg.Contains(p), distance, nil
}

// IsWithinOperatingHours 当前时刻是否在营业窗口内（含营业日判断）
func (s *FenceService) IsWithinOperatingHours(ctx context.Context, gymID int64, now time.Time) (bool, error) {
	gym, err := Gym().GetGym(ctx, gymID)
	if err != nil {
		return false, err
	}

	cfg, err := s.GetOrCreate(ctx, gymID)
	if err != nil {
		return false, err
	}

	return s.withinHours(gym, cfg, now), nil
}

// withinHours 纯判定：营业日 + 营业窗口，时间换算到场馆时区
func (s *FenceService) withinHours(gym *model.Gym, cfg *model.FenceConfig, now time.Time) bool {
	local := now.In(Gym().Location(gym))

	if len(gym.ActiveDays) > 0 {
		weekday := weekdayName(local.Weekday())
		found := false
		for _, day := range gym.ActiveDays {
			if day == weekday {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	start, end := s.effectiveWindow(gym, cfg)
	return utils.WithinWindow(start, end, local)
}

// effectiveWindow 窗口优先级：围栏窗口 > 场馆营业时间 > 默认窗口
func (s *FenceService) effectiveWindow(gym *model.Gym, cfg *model.FenceConfig) (string, string) {
	if cfg != nil && cfg.WindowStart != "" && cfg.WindowEnd != "" {
		return cfg.WindowStart, cfg.WindowEnd
	}
	if gym.OpenTime != "" && gym.CloseTime != "" {
		return gym.OpenTime, gym.CloseTime
	}
	return utils.DefaultWindowStart, utils.DefaultWindowEnd
}

// ValidateCoordinate 运营端试算：给定坐标在当前配置下能否入场
func (s *FenceService) ValidateCoordinate(ctx context.Context, gymID int64, req dto.ValidateCoordinateRequest) (*dto.ValidateCoordinateData, error) {
	gym, err := Gym().GetGym(ctx, gymID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.GetOrCreate(ctx, gymID)
	if err != nil {
		return nil, err
	}

	p := geo.Point{Lat: req.Latitude, Lng: req.Longitude}
	inside := cfg.Contains(p)
	distance := geo.DistanceMeters(cfg.Center(), p)

	accuracyAccepted := true
	if tolerance := accuracyTolerance(cfg); tolerance > 0 && req.AccuracyMeters > tolerance {
		accuracyAccepted = false
	}

	withinHours := s.withinHours(gym, cfg, time.Now())

	return &dto.ValidateCoordinateData{
		InsideFence:      inside,
		DistanceMeters:   distance,
		AccuracyAccepted: accuracyAccepted,
		WithinHours:      withinHours,
		WouldAdmit:       cfg.Enabled && inside && accuracyAccepted && withinHours,
	}, nil
}

// syncLegacySnapshot 由权威配置重算旧版扁平化快照并落库（upsert）
func (s *FenceService) syncLegacySnapshot(ctx context.Context, cfg *model.FenceConfig) error {
	db := database.DB()

	circle := cfg.EffectiveCircle()

	var legacy model.LegacyAttendanceSettings
	err := db.WithContext(ctx).Where("gym_id = ?", cfg.GymID).First(&legacy).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to query legacy settings: %w", err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		legacy = model.LegacyAttendanceSettings{GymID: cfg.GymID}
	}

	if cfg.Enabled {
		// 已是混合模式则保留，否则切到围栏模式
		if legacy.Mode != model.AttendanceModeHybrid {
			legacy.Mode = model.AttendanceModeGeofence
		}
	} else if legacy.Mode.GeofenceCapable() {
		legacy.Mode = model.AttendanceModeManual
	}

	legacy.GeofenceEnabled = cfg.Enabled
	legacy.GeofenceLat = circle.Center.Lat
	legacy.GeofenceLng = circle.Center.Lng
	legacy.GeofenceRadiusMeters = circle.RadiusMeters
	legacy.AutoMarkEntry = cfg.AutoMarkEntry
	legacy.AutoMarkExit = cfg.AutoMarkExit
	legacy.AllowMockLocation = cfg.AllowMockLocation
	legacy.MinAccuracyMeters = cfg.MinAccuracyMeters

	if err := db.WithContext(ctx).Save(&legacy).Error; err != nil {
		return fmt.Errorf("failed to save legacy settings: %w", err)
	}
	return nil
}

// accuracyTolerance 精度容差。allow_mock_location 是历史遗留开关：
// 模拟定位永远拒绝，开关只把精度容差放宽一倍。
func accuracyTolerance(cfg *model.FenceConfig) float64 {
	tolerance := cfg.MinAccuracyMeters
	if cfg.AllowMockLocation {
		tolerance *= 2
	}
	return tolerance
}

func validateFenceRequest(req dto.SaveFenceRequest) error {
	switch model.FenceShape(req.Shape) {
	case model.FenceShapeCircular:
		if req.CenterLat == nil || req.CenterLng == nil || req.RadiusMeters == nil {
			return pkgerrors.ValidationError.WithDetails(map[string]interface{}{
				"reason": "circular fence requires center_lat, center_lng and radius_meters",
			})
		}
		if *req.RadiusMeters < model.FenceRadiusMin || *req.RadiusMeters > model.FenceRadiusMax {
			return pkgerrors.ValidationError.WithDetails(map[string]interface{}{
				"reason":     "radius_meters out of range",
				"radius":     *req.RadiusMeters,
				"min_radius": model.FenceRadiusMin,
				"max_radius": model.FenceRadiusMax,
			})
		}
	case model.FenceShapePolygon:
		if len(req.Polygon) < 3 {
			return pkgerrors.ValidationError.WithDetails(map[string]interface{}{
				"reason":   "polygon fence requires at least 3 vertices",
				"vertices": len(req.Polygon),
			})
		}
	default:
		return pkgerrors.ValidationError.WithDetails(map[string]interface{}{
			"reason": "shape must be circular or polygon",
			"shape":  req.Shape,
		})
	}

	for _, field := range []*string{req.WindowStart, req.WindowEnd} {
		if field == nil || *field == "" {
			continue
		}
		if _, err := utils.MinutesOfDay(*field); err != nil {
			return pkgerrors.ValidationError.WithDetails(map[string]interface{}{
				"reason": "operating window must be HH:MM",
				"value":  *field,
			})
		}
	}

	return nil
}

func applyFencePatch(cfg *model.FenceConfig, req dto.SaveFenceRequest) {
	cfg.Shape = model.FenceShape(req.Shape)

	if cfg.Shape == model.FenceShapeCircular {
		cfg.CenterLat = *req.CenterLat
		cfg.CenterLng = *req.CenterLng
		cfg.RadiusMeters = *req.RadiusMeters
		cfg.Polygon = nil
	} else {
		vertices := make(model.PolygonVertices, 0, len(req.Polygon))
		for _, v := range req.Polygon {
			vertices = append(vertices, geo.Point{Lat: v.Latitude, Lng: v.Longitude})
		}
		cfg.Polygon = vertices
		cfg.CenterLat = 0
		cfg.CenterLng = 0
		cfg.RadiusMeters = 0
	}

	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.AutoMarkEntry != nil {
		cfg.AutoMarkEntry = *req.AutoMarkEntry
	}
	if req.AutoMarkExit != nil {
		cfg.AutoMarkExit = *req.AutoMarkExit
	}
	if req.AllowMockLocation != nil {
		cfg.AllowMockLocation = *req.AllowMockLocation
	}
	if req.MinAccuracyMeters != nil {
		cfg.MinAccuracyMeters = *req.MinAccuracyMeters
	}
	if req.MinimumStayMinutes != nil {
		cfg.MinimumStayMinutes = *req.MinimumStayMinutes
	}
	if req.WindowStart != nil {
		cfg.WindowStart = *req.WindowStart
	}
	if req.WindowEnd != nil {
		cfg.WindowEnd = *req.WindowEnd
	}
}

func weekdayName(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}
