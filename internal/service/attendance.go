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
	"GymPulse/internal/queue"
	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/pkg/geo"
	"GymPulse/pkg/logger"
	"GymPulse/pkg/metrics"
	"GymPulse/storage/database"
	"GymPulse/utils"
)

// AttendanceService 围栏考勤状态机。
// 通知走消息队列异步投递，测试时可替换 notify。
type AttendanceService struct {
	notify func(ctx context.Context, msg *model.MemberNotificationMessage) error
}

var (
	attendanceService *AttendanceService
	attendanceOnce    sync.Once
)

func Attendance() *AttendanceService {
	attendanceOnce.Do(func() {
		attendanceService = &AttendanceService{
			notify: queue.PublishMemberNotification,
		}
	})
	return attendanceService
}

// HandleEntry 围栏入场打卡。
// 校验顺序：模拟定位 -> 场馆/围栏 -> 精度 -> 几何 -> 会籍 -> 营业窗口。
// 全部通过后写当日记录；重复入场幂等返回 already_marked。
func (s *AttendanceService) HandleEntry(
	ctx context.Context,
	memberID int64,
	req dto.AttendanceEntryRequest,
) (*dto.AttendanceRecordData, error) {
	// 模拟定位无条件拒绝，allow_mock_location 只影响精度容差
	if req.Location.IsMockLocation {
		metrics.RecordRejection(ctx, req.GymID, "mock_location")
		return nil, pkgerrors.FraudRejected
	}

	gym, err := Gym().GetGym(ctx, req.GymID)
	if err != nil {
		return nil, err
	}

	cfg, err := Fence().GetOrCreate(ctx, req.GymID)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled || !cfg.AutoMarkEntry {
		return nil, pkgerrors.FenceNotConfigured.WithDetails(map[string]interface{}{
			"reason": "geofence entry marking is disabled for this gym",
		})
	}

	if tolerance := accuracyTolerance(cfg); tolerance > 0 && req.Location.AccuracyMeters > tolerance {
		metrics.RecordRejection(ctx, req.GymID, "low_accuracy")
		return nil, pkgerrors.LowAccuracy.WithDetails(map[string]interface{}{
			"accuracy_meters": req.Location.AccuracyMeters,
			"max_accuracy":    tolerance,
		})
	}

	p := geo.Point{Lat: req.Location.Latitude, Lng: req.Location.Longitude}
	distance := geo.DistanceMeters(cfg.Center(), p)
	if !cfg.Contains(p) {
		metrics.RecordRejection(ctx, req.GymID, "outside_fence")
		return nil, pkgerrors.OutsideFence.WithDetails(map[string]interface{}{
			"distance_meters": distance,
			"required_radius": cfg.EffectiveCircle().RadiusMeters,
		})
	}

	now := time.Now().In(Gym().Location(gym))

	membership, err := Membership().FindActiveMembership(ctx, memberID, req.GymID, now)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		metrics.RecordRejection(ctx, req.GymID, "no_membership")
		return nil, pkgerrors.NoActiveMembership
	}

	if !Fence().withinHours(gym, cfg, now) {
		start, end := Fence().effectiveWindow(gym, cfg)
		metrics.RecordRejection(ctx, req.GymID, "outside_hours")
		return nil, pkgerrors.OutsideOperatingHours.WithDetails(map[string]interface{}{
			"window_start": start,
			"window_end":   end,
		})
	}

	date := utils.DateString(now)

	// 缓存快判：当日已有入场标记直接幂等返回
	if marked, _ := cache.IsEntryMarked(ctx, req.GymID, memberID, date); marked {
		if record, err := s.findDayRecord(ctx, req.GymID, memberID, date); err == nil && record.EntryTime != nil {
			return recordToData(record, true), nil
		}
	}

	record, alreadyMarked, err := s.writeEntry(ctx, req.GymID, memberID, date, now, p, req.Location.AccuracyMeters, distance)
	if err != nil {
		return nil, err
	}

	if !alreadyMarked {
		s.runEntryHooks(ctx, gym, membership, record)
	}

	return recordToData(record, alreadyMarked), nil
}

// writeEntry 当日记录的幂等写入。唯一索引 (gym_id, member_id, date) 兜底并发：
// 创建撞唯一键视为"记录已存在"，重读走幂等语义。
func (s *AttendanceService) writeEntry(
	ctx context.Context,
	gymID, memberID int64,
	date string,
	now time.Time,
	p geo.Point,
	accuracy, distance float64,
) (*model.AttendanceRecord, bool, error) {
	db := database.DB()

	record, err := s.findDayRecord(ctx, gymID, memberID, date)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to query attendance record: %w", err)
	}

	if record != nil && record.EntryTime != nil {
		return record, true, nil
	}

	entryTime := now
	if record != nil {
		// 管理端预建的当日记录：补写入场快照
		updates := map[string]interface{}{
			"status":         model.AttendanceStatusPresent,
			"auth_method":    model.AuthMethodGeofence,
			"entry_time":     entryTime,
			"entry_lat":      p.Lat,
			"entry_lng":      p.Lng,
			"entry_accuracy": accuracy,
			"entry_distance": distance,
		}
		if err := db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
			return nil, false, fmt.Errorf("failed to update attendance record: %w", err)
		}
		record.Status = model.AttendanceStatusPresent
		record.AuthMethod = model.AuthMethodGeofence
		record.EntryTime = &entryTime
		record.EntryLat = p.Lat
		record.EntryLng = p.Lng
		record.EntryAccuracy = accuracy
		record.EntryDistance = distance
		return record, false, nil
	}

	fresh := &model.AttendanceRecord{
		GymID:         gymID,
		MemberID:      memberID,
		Date:          date,
		Status:        model.AttendanceStatusPresent,
		AuthMethod:    model.AuthMethodGeofence,
		EntryTime:     &entryTime,
		EntryLat:      p.Lat,
		EntryLng:      p.Lng,
		EntryAccuracy: accuracy,
		EntryDistance: distance,
	}

	if err := db.WithContext(ctx).Create(fresh).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, readErr := s.findDayRecord(ctx, gymID, memberID, date)
			if readErr != nil {
				return nil, false, fmt.Errorf("failed to re-read attendance record: %w", readErr)
			}
			return existing, true, nil
		}
		return nil, false, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return fresh, false, nil
}

// runEntryHooks 入场提交后的旁路副作用，逐项隔离，失败不影响已提交的打卡
func (s *AttendanceService) runEntryHooks(
	ctx context.Context,
	gym *model.Gym,
	membership *model.Membership,
	record *model.AttendanceRecord,
) {
	db := database.DB()

	if err := cache.MarkEntry(ctx, record.GymID, record.MemberID, record.Date); err != nil {
		logger.Logger.Warn("Failed to mark entry in cache", zap.Error(err))
	}

	if membership.TracksSessions() && !record.SessionDeducted {
		deducted, err := Membership().DecrementSession(ctx, membership.ID)
		if err != nil {
			logger.Logger.Error("Failed to decrement membership session",
				zap.Int64("membership_id", membership.ID),
				zap.Error(err),
			)
		} else if deducted {
			if err := db.WithContext(ctx).Model(record).UpdateColumn("session_deducted", true).Error; err != nil {
				logger.Logger.Error("Failed to flag session deduction", zap.Error(err))
			} else {
				record.SessionDeducted = true
			}
		}
	}

	if err := s.notify(ctx, &model.MemberNotificationMessage{
		MemberID: record.MemberID,
		GymID:    record.GymID,
		Category: model.NotificationCategoryEntry,
		Title:    "打卡成功",
		Body:     fmt.Sprintf("已记录你在 %s 的入场打卡", gym.Name),
		Metadata: map[string]interface{}{
			"date":            record.Date,
			"distance_meters": record.EntryDistance,
		},
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Logger.Warn("Failed to publish entry notification",
			zap.Int64("member_id", record.MemberID),
			zap.Error(err),
		)
	}

	metrics.RecordEntry(ctx, record.GymID)
}

// HandleExit 围栏离场打卡。未到最短停留时长整体拒绝，入场记录保持原样，
// 之后的合法离场仍可落库。
func (s *AttendanceService) HandleExit(
	ctx context.Context,
	memberID int64,
	req dto.AttendanceExitRequest,
) (*dto.AttendanceRecordData, error) {
	if req.Location.IsMockLocation {
		metrics.RecordRejection(ctx, req.GymID, "mock_location")
		return nil, pkgerrors.FraudRejected
	}

	gym, err := Gym().GetGym(ctx, req.GymID)
	if err != nil {
		return nil, err
	}

	cfg, err := Fence().GetOrCreate(ctx, req.GymID)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled || !cfg.AutoMarkExit {
		return nil, pkgerrors.FenceNotConfigured.WithDetails(map[string]interface{}{
			"reason": "geofence exit marking is disabled for this gym",
		})
	}

	if tolerance := accuracyTolerance(cfg); tolerance > 0 && req.Location.AccuracyMeters > tolerance {
		metrics.RecordRejection(ctx, req.GymID, "low_accuracy")
		return nil, pkgerrors.LowAccuracy.WithDetails(map[string]interface{}{
			"accuracy_meters": req.Location.AccuracyMeters,
			"max_accuracy":    tolerance,
		})
	}

	now := time.Now().In(Gym().Location(gym))
	date := utils.DateString(now)

	record, err := s.findDayRecord(ctx, req.GymID, memberID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NoEntryRecord
		}
		return nil, fmt.Errorf("failed to query attendance record: %w", err)
	}
	if record.EntryTime == nil {
		return nil, pkgerrors.NoEntryRecord
	}

	// 重复离场幂等返回已有记录
	if record.HasExited() {
		return recordToData(record, true), nil
	}

	dwellMinutes := int(now.Sub(*record.EntryTime).Minutes())
	if dwellMinutes < cfg.MinimumStayMinutes {
		metrics.RecordRejection(ctx, req.GymID, "minimum_stay")
		return nil, pkgerrors.MinimumStayNotMet.WithDetails(map[string]interface{}{
			"required_minutes": cfg.MinimumStayMinutes,
			"actual_minutes":   dwellMinutes,
		})
	}

	db := database.DB()
	exitTime := now
	updates := map[string]interface{}{
		"exit_time":     exitTime,
		"exit_lat":      req.Location.Latitude,
		"exit_lng":      req.Location.Longitude,
		"exit_accuracy": req.Location.AccuracyMeters,
		"dwell_minutes": dwellMinutes,
	}
	if err := db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update attendance record: %w", err)
	}
	record.ExitTime = &exitTime
	record.ExitLat = req.Location.Latitude
	record.ExitLng = req.Location.Longitude
	record.ExitAccuracy = req.Location.AccuracyMeters
	record.DwellMinutes = dwellMinutes

	if err := s.notify(ctx, &model.MemberNotificationMessage{
		MemberID: memberID,
		GymID:    req.GymID,
		Category: model.NotificationCategoryExit,
		Title:    "离场已记录",
		Body:     fmt.Sprintf("本次在 %s 停留 %d 分钟", gym.Name, dwellMinutes),
		Metadata: map[string]interface{}{
			"date":          date,
			"dwell_minutes": dwellMinutes,
		},
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Logger.Warn("Failed to publish exit notification",
			zap.Int64("member_id", memberID),
			zap.Error(err),
		)
	}

	metrics.RecordExit(ctx, req.GymID, dwellMinutes)

	return recordToData(record, false), nil
}

// GetToday 查询当日考勤状态
func (s *AttendanceService) GetToday(ctx context.Context, memberID, gymID int64) (*dto.AttendanceRecordData, error) {
	gym, err := Gym().GetGym(ctx, gymID)
	if err != nil {
		return nil, err
	}

	date := utils.DateString(time.Now().In(Gym().Location(gym)))

	record, err := s.findDayRecord(ctx, gymID, memberID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NoEntryRecord
		}
		return nil, fmt.Errorf("failed to query attendance record: %w", err)
	}

	return recordToData(record, false), nil
}

// History 考勤历史，按日期倒序
func (s *AttendanceService) History(
	ctx context.Context,
	memberID int64,
	q dto.AttendanceHistoryQuery,
) (*dto.AttendanceHistoryResponse, error) {
	db := database.DB()

	limit := q.Limit
	if limit <= 0 {
		limit = 30
	}
	if limit > 100 {
		limit = 100
	}

	tx := db.WithContext(ctx).Model(&model.AttendanceRecord{}).Where("member_id = ?", memberID)
	if q.GymID > 0 {
		tx = tx.Where("gym_id = ?", q.GymID)
	}
	if q.From != "" {
		tx = tx.Where("date >= ?", q.From)
	}
	if q.To != "" {
		tx = tx.Where("date <= ?", q.To)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count attendance records: %w", err)
	}

	var records []model.AttendanceRecord
	if err := tx.Order("date DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}

	result := make([]dto.AttendanceRecordData, 0, len(records))
	for i := range records {
		result = append(result, *recordToData(&records[i], false))
	}

	return &dto.AttendanceHistoryResponse{Records: result, Total: total}, nil
}

// MonthlyStats 月度考勤统计（出勤天数、停留时长、连续打卡天数）
func (s *AttendanceService) MonthlyStats(
	ctx context.Context,
	memberID int64,
	q dto.AttendanceStatsQuery,
) (*dto.AttendanceStatsData, error) {
	month := q.Month
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, pkgerrors.InvalidRequest.WithDetails(map[string]interface{}{
			"reason": "month must be YYYY-MM",
			"month":  q.Month,
		})
	}

	db := database.DB()

	tx := db.WithContext(ctx).Model(&model.AttendanceRecord{}).
		Where("member_id = ? AND status = ? AND date LIKE ?",
			memberID, model.AttendanceStatusPresent, month+"-%")
	if q.GymID > 0 {
		tx = tx.Where("gym_id = ?", q.GymID)
	}

	var records []model.AttendanceRecord
	if err := tx.Order("date ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}

	stats := &dto.AttendanceStatsData{Month: month}
	var exited int64
	for i := range records {
		stats.PresentDays++
		if records[i].HasExited() {
			stats.TotalDwellMinutes += int64(records[i].DwellMinutes)
			exited++
		}
	}
	if exited > 0 {
		stats.AvgDwellMinutes = float64(stats.TotalDwellMinutes) / float64(exited)
	}
	stats.CurrentStreakDays = currentStreak(records, time.Now())

	return stats, nil
}

func (s *AttendanceService) findDayRecord(ctx context.Context, gymID, memberID int64, date string) (*model.AttendanceRecord, error) {
	db := database.DB()

	var record model.AttendanceRecord
	err := db.WithContext(ctx).
		Where("gym_id = ? AND member_id = ? AND date = ?", gymID, memberID, date).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// currentStreak 以今天（或昨天）为锚点往回数连续出勤天数
func currentStreak(records []model.AttendanceRecord, now time.Time) int {
	present := make(map[string]bool, len(records))
	for i := range records {
		present[records[i].Date] = true
	}

	day := now
	if !present[utils.DateString(day)] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for present[utils.DateString(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func recordToData(record *model.AttendanceRecord, alreadyMarked bool) *dto.AttendanceRecordData {
	return &dto.AttendanceRecordData{
		EntryTime:      record.EntryTime,
		ExitTime:       record.ExitTime,
		Date:           record.Date,
		Status:         string(record.Status),
		AuthMethod:     string(record.AuthMethod),
		DistanceMeters: record.EntryDistance,
		DwellMinutes:   record.DwellMinutes,
		AlreadyMarked:  alreadyMarked,
	}
}
