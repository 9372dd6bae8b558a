package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"GymPulse/internal/model"
	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/storage/database"
)

// openTestDB 在临时目录建一个隔离的 sqlite 库并注入 database 层
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dir := t.TempDir()
	// busy_timeout 让并发写排队而不是直接报锁冲突
	dsn := filepath.Join(dir, "test.db") + "?_busy_timeout=5000"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&model.Gym{},
		&model.Member{},
		&model.Membership{},
		&model.FenceConfig{},
		&model.LegacyAttendanceSettings{},
		&model.AttendanceRecord{},
		&model.MemberLocationStatus{},
		&model.NotificationTask{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	database.SetDB(gdb)
	return gdb
}

func seedGym(t *testing.T, gdb *gorm.DB, publicID int64, lat, lng float64) *model.Gym {
	t.Helper()
	gym := model.Gym{
		PublicID:  publicID,
		Name:      "测试场馆",
		Timezone:  "Local",
		Latitude:  lat,
		Longitude: lng,
	}
	if err := gdb.Create(&gym).Error; err != nil {
		t.Fatalf("seed gym: %v", err)
	}
	return &gym
}

// seedFence 建一个全天可用的圆形围栏，避免用例受运行时刻影响
func seedFence(t *testing.T, gdb *gorm.DB, gymID int64, mutate func(*model.FenceConfig)) *model.FenceConfig {
	t.Helper()
	cfg := model.FenceConfig{
		GymID:             gymID,
		Shape:             model.FenceShapeCircular,
		CenterLat:         28.6139,
		CenterLng:         77.2090,
		RadiusMeters:      100,
		Enabled:           true,
		AutoMarkEntry:     true,
		AutoMarkExit:      true,
		MinAccuracyMeters: 50,
		WindowStart:       "00:00",
		WindowEnd:         "23:59",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	if err := gdb.Create(&cfg).Error; err != nil {
		t.Fatalf("seed fence: %v", err)
	}
	return &cfg
}

func seedMembership(t *testing.T, gdb *gorm.DB, memberID, gymID int64, sessions *int) *model.Membership {
	t.Helper()
	m := model.Membership{
		MemberID:          memberID,
		GymID:             gymID,
		Status:            model.MembershipStatusActive,
		EndDate:           time.Now().AddDate(0, 0, 7),
		RemainingSessions: sessions,
	}
	if err := gdb.Create(&m).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return &m
}

func seedMember(t *testing.T, gdb *gorm.DB, publicID int64, nickname string) *model.Member {
	t.Helper()
	m := model.Member{PublicID: publicID, Nickname: nickname, Phone: "13800000000"}
	if err := gdb.Create(&m).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return &m
}

// newTestAttendance 返回带捕获型通知器的考勤服务
func newTestAttendance() (*AttendanceService, *[]model.MemberNotificationMessage) {
	var sent []model.MemberNotificationMessage
	svc := &AttendanceService{
		notify: func(ctx context.Context, msg *model.MemberNotificationMessage) error {
			sent = append(sent, *msg)
			return nil
		},
	}
	return svc, &sent
}

func f64ptr(v float64) *float64 { return &v }
func intPtr(v int) *int         { return &v }
func boolPtr(v bool) *bool      { return &v }
func strPtr(v string) *string   { return &v }

// errCode 取业务错误码，非业务错误返回空串
func errCode(err error) string {
	var def pkgerrors.Definition
	if errors.As(err, &def) {
		return def.Code
	}
	return ""
}
