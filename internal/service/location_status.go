package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"GymPulse/internal/model"
	"GymPulse/internal/model/dto"
	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/storage/database"
)

type LocationStatusService struct{}

var (
	locationStatusService *LocationStatusService
	locationStatusOnce    sync.Once
)

func LocationStatus() *LocationStatusService {
	locationStatusOnce.Do(func() {
		locationStatusService = &LocationStatusService{}
	})
	return locationStatusService
}

// RecordTelemetry 上报会员端定位遥测。无条件 upsert 快照；
// 场馆考勤模式支持围栏时逐项评估门禁检查，失败项追加警告（只追加不覆盖）。
func (s *LocationStatusService) RecordTelemetry(
	ctx context.Context,
	memberID int64,
	req dto.TelemetryRequest,
) (*dto.LocationStatusData, error) {
	if _, err := Gym().GetGym(ctx, req.GymID); err != nil {
		return nil, err
	}

	db := database.DB()
	now := time.Now()

	var status model.MemberLocationStatus
	err := db.WithContext(ctx).
		Where("gym_id = ? AND member_id = ?", req.GymID, memberID).
		First(&status).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query location status: %w", err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		status = model.MemberLocationStatus{GymID: req.GymID, MemberID: memberID}
	}

	status.LocationEnabled = req.LocationEnabled
	status.PermissionGranted = req.PermissionGranted
	status.BackgroundPermission = req.BackgroundPermission
	status.MockLocationDetected = req.MockLocationDetected
	status.LastReportedAt = &now
	if req.AppVersion != "" {
		status.AppVersion = req.AppVersion
	}
	if req.Platform != "" {
		status.Platform = req.Platform
	}
	if req.Latitude != 0 || req.Longitude != 0 {
		status.LastLat = req.Latitude
		status.LastLng = req.Longitude
	}
	status.LastAccuracy = req.AccuracyMeters
	status.AccuracyClass = model.ClassifyAccuracy(req.AccuracyMeters)

	settings, err := Fence().ResolveForMember(ctx, req.GymID)
	if err != nil {
		return nil, err
	}

	if model.AttendanceMode(settings.Mode).GeofenceCapable() {
		s.appendGatingWarnings(&status, now)
	}

	if err := db.WithContext(ctx).Save(&status).Error; err != nil {
		return nil, fmt.Errorf("failed to save location status: %w", err)
	}

	return statusToData(&status, now), nil
}

// appendGatingWarnings 五项门禁检查，每个失败项各追加一条警告
func (s *LocationStatusService) appendGatingWarnings(status *model.MemberLocationStatus, now time.Time) {
	type check struct {
		failed  bool
		wtype   string
		message string
	}

	checks := []check{
		{!status.LocationEnabled, model.WarningTypeLocationDisabled, "定位服务未开启，无法自动打卡"},
		{!status.PermissionGranted, model.WarningTypePermissionDenied, "未授予定位权限，无法自动打卡"},
		{!status.BackgroundPermission, model.WarningTypeBackgroundDenied, "缺少后台定位权限，离开前台后无法自动打卡"},
		{status.AccuracyClass == model.AccuracyClassLow, model.WarningTypeLowAccuracy, "定位精度过低，打卡可能被拒绝"},
		{status.MockLocationDetected, model.WarningTypeMockLocation, "检测到模拟定位，打卡将被拒绝"},
	}

	for _, c := range checks {
		if !c.failed {
			continue
		}
		status.Warnings = append(status.Warnings, model.LocationWarning{
			ID:        uuid.NewString(),
			Type:      c.wtype,
			Message:   c.message,
			Timestamp: now,
		})
	}
}

// AckWarning 会员按下标确认单条警告
func (s *LocationStatusService) AckWarning(ctx context.Context, memberID, gymID int64, index int) error {
	db := database.DB()

	var status model.MemberLocationStatus
	err := db.WithContext(ctx).
		Where("gym_id = ? AND member_id = ?", gymID, memberID).
		First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.MemberNotFound.WithDetails(map[string]interface{}{
				"reason": "no location status recorded for this member",
			})
		}
		return fmt.Errorf("failed to query location status: %w", err)
	}

	if index < 0 || index >= len(status.Warnings) {
		return pkgerrors.WarningIndexInvalid.WithDetails(map[string]interface{}{
			"index":    index,
			"warnings": len(status.Warnings),
		})
	}

	status.Warnings[index].Acknowledged = true

	if err := db.WithContext(ctx).Model(&status).Update("warnings", status.Warnings).Error; err != nil {
		return fmt.Errorf("failed to ack warning: %w", err)
	}
	return nil
}

// GetStatus 会员查询自己的定位健康快照
func (s *LocationStatusService) GetStatus(ctx context.Context, memberID, gymID int64) (*dto.LocationStatusData, error) {
	db := database.DB()

	var status model.MemberLocationStatus
	err := db.WithContext(ctx).
		Where("gym_id = ? AND member_id = ?", gymID, memberID).
		First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.MemberNotFound.WithDetails(map[string]interface{}{
				"reason": "no location status recorded for this member",
			})
		}
		return nil, fmt.Errorf("failed to query location status: %w", err)
	}

	return statusToData(&status, time.Now()), nil
}

// CategorizeGymMembers 把场馆会员按定位问题分进互斥分组。
// 固定优先级：过期 > 配置完整 > 定位关闭 > 无权限 > 无后台权限 > 精度低；
// 从未上报过遥测的会员单独归入 no_data。
func (s *LocationStatusService) CategorizeGymMembers(ctx context.Context, gymID int64) (*dto.LocationIssuesData, error) {
	if _, err := Gym().GetGym(ctx, gymID); err != nil {
		return nil, err
	}

	db := database.DB()

	var memberships []model.Membership
	err := db.WithContext(ctx).
		Where("gym_id = ? AND status = ?", gymID, model.MembershipStatusActive).
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list gym memberships: %w", err)
	}

	memberIDs := make([]int64, 0, len(memberships))
	for i := range memberships {
		memberIDs = append(memberIDs, memberships[i].MemberID)
	}

	result := &dto.LocationIssuesData{
		Stale:                     []dto.MemberIssueSummary{},
		FullyConfigured:           []dto.MemberIssueSummary{},
		LocationDisabled:          []dto.MemberIssueSummary{},
		PermissionDenied:          []dto.MemberIssueSummary{},
		BackgroundPermissionIssue: []dto.MemberIssueSummary{},
		LowAccuracy:               []dto.MemberIssueSummary{},
		NoData:                    []dto.MemberIssueSummary{},
	}
	if len(memberIDs) == 0 {
		return result, nil
	}

	var statuses []model.MemberLocationStatus
	err = db.WithContext(ctx).
		Where("gym_id = ? AND member_id IN ?", gymID, memberIDs).
		Find(&statuses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list location statuses: %w", err)
	}

	statusByMember := make(map[int64]*model.MemberLocationStatus, len(statuses))
	for i := range statuses {
		statusByMember[statuses[i].MemberID] = &statuses[i]
	}

	var members []model.Member
	if err := db.WithContext(ctx).Where("public_id IN ?", memberIDs).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	memberByID := make(map[int64]*model.Member, len(members))
	for i := range members {
		memberByID[members[i].PublicID] = &members[i]
	}

	now := time.Now()
	for _, memberID := range memberIDs {
		summary := summarize(memberID, memberByID[memberID], statusByMember[memberID])

		status, ok := statusByMember[memberID]
		if !ok {
			result.NoData = append(result.NoData, summary)
			continue
		}

		switch {
		case status.IsStale(now):
			// 过期优先于一切，哪怕其余检查全部通过
			result.Stale = append(result.Stale, summary)
		case status.FullyConfigured() && status.AccuracyClass != model.AccuracyClassLow && !status.MockLocationDetected:
			// 检出模拟定位的会员打卡必被拒，不能算配置完整
			result.FullyConfigured = append(result.FullyConfigured, summary)
		case !status.LocationEnabled:
			result.LocationDisabled = append(result.LocationDisabled, summary)
		case !status.PermissionGranted:
			result.PermissionDenied = append(result.PermissionDenied, summary)
		case !status.BackgroundPermission:
			result.BackgroundPermissionIssue = append(result.BackgroundPermissionIssue, summary)
		default:
			// 兜底分组：精度不达标或检出模拟定位
			result.LowAccuracy = append(result.LowAccuracy, summary)
		}
	}

	return result, nil
}

func summarize(memberID int64, member *model.Member, status *model.MemberLocationStatus) dto.MemberIssueSummary {
	summary := dto.MemberIssueSummary{MemberID: memberID}
	if member != nil {
		summary.Nickname = member.Nickname
		summary.Phone = member.Phone
	}
	if status != nil {
		summary.LastReportedAt = status.LastReportedAt
		summary.AccuracyClass = string(status.AccuracyClass)
		for _, w := range status.Warnings {
			if !w.Acknowledged {
				summary.OpenWarnings++
			}
		}
	}
	return summary
}

func statusToData(status *model.MemberLocationStatus, now time.Time) *dto.LocationStatusData {
	warnings := make([]dto.WarningData, 0, len(status.Warnings))
	for i, w := range status.Warnings {
		warnings = append(warnings, dto.WarningData{
			Timestamp:    w.Timestamp,
			ID:           w.ID,
			Type:         w.Type,
			Message:      w.Message,
			Acknowledged: w.Acknowledged,
			Index:        i,
		})
	}

	return &dto.LocationStatusData{
		LastReportedAt:       status.LastReportedAt,
		AccuracyClass:        string(status.AccuracyClass),
		AppVersion:           status.AppVersion,
		Platform:             status.Platform,
		Warnings:             warnings,
		GymID:                status.GymID,
		MemberID:             status.MemberID,
		LastAccuracy:         status.LastAccuracy,
		LocationEnabled:      status.LocationEnabled,
		PermissionGranted:    status.PermissionGranted,
		BackgroundPermission: status.BackgroundPermission,
		MockLocationDetected: status.MockLocationDetected,
		Stale:                status.IsStale(now),
		FullyConfigured:      status.FullyConfigured(),
	}
}
