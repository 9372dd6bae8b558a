package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"GymPulse/internal/model"
	"GymPulse/internal/model/dto"
	"GymPulse/pkg/geo"
	"GymPulse/utils"
)

func TestGetOrCreateBuildsDefaultFence(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)

	ctx := context.Background()
	cfg, err := Fence().GetOrCreate(ctx, 1001)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if cfg.Shape != model.FenceShapeCircular {
		t.Errorf("shape = %q, want circular", cfg.Shape)
	}
	if cfg.RadiusMeters != model.FenceRadiusDefault {
		t.Errorf("radius = %v, want %v", cfg.RadiusMeters, model.FenceRadiusDefault)
	}
	if cfg.CenterLat != 28.6139 || cfg.CenterLng != 77.2090 {
		t.Errorf("center = (%v, %v), want gym coordinates", cfg.CenterLat, cfg.CenterLng)
	}
	if !cfg.Enabled || !cfg.AutoMarkEntry || !cfg.AutoMarkExit {
		t.Error("default fence should enable geofence and auto-mark flags")
	}

	// 再查不重复建
	again, err := Fence().GetOrCreate(ctx, 1001)
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if again.ID != cfg.ID {
		t.Errorf("second call returned different row: %d vs %d", again.ID, cfg.ID)
	}
	var count int64
	gdb.Model(&model.FenceConfig{}).Count(&count)
	if count != 1 {
		t.Errorf("fence rows = %d, want 1", count)
	}
}

func TestGetOrCreateUnknownGym(t *testing.T) {
	openTestDB(t)

	_, err := Fence().GetOrCreate(context.Background(), 404)
	if errCode(err) != "GYM_NOT_FOUND" {
		t.Fatalf("err = %v, want GYM_NOT_FOUND", err)
	}
}

func TestSaveFenceValidation(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)

	cases := []struct {
		name string
		req  dto.SaveFenceRequest
	}{
		{
			name: "radius below minimum",
			req: dto.SaveFenceRequest{
				Shape: "circular", CenterLat: f64ptr(28.6), CenterLng: f64ptr(77.2), RadiusMeters: f64ptr(30),
			},
		},
		{
			name: "radius above maximum",
			req: dto.SaveFenceRequest{
				Shape: "circular", CenterLat: f64ptr(28.6), CenterLng: f64ptr(77.2), RadiusMeters: f64ptr(600),
			},
		},
		{
			name: "circular without center",
			req:  dto.SaveFenceRequest{Shape: "circular", RadiusMeters: f64ptr(100)},
		},
		{
			name: "polygon with two vertices",
			req: dto.SaveFenceRequest{
				Shape:   "polygon",
				Polygon: []dto.FencePoint{{Latitude: 28.6, Longitude: 77.2}, {Latitude: 28.7, Longitude: 77.2}},
			},
		},
		{
			name: "unknown shape",
			req:  dto.SaveFenceRequest{Shape: "hexagon"},
		},
		{
			name: "malformed window",
			req: dto.SaveFenceRequest{
				Shape: "circular", CenterLat: f64ptr(28.6), CenterLng: f64ptr(77.2), RadiusMeters: f64ptr(100),
				WindowStart: strPtr("25:99"), WindowEnd: strPtr("23:00"),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Fence().Save(context.Background(), 1001, tc.req)
			if errCode(err) != "VALIDATION_ERROR" {
				t.Fatalf("err = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestSaveCircularFenceSyncsSnapshotAndGymMirror(t *testing.T) {
	gdb := openTestDB(t)
	gym := seedGym(t, gdb, 1001, 28.6139, 77.2090)

	_, err := Fence().Save(context.Background(), 1001, dto.SaveFenceRequest{
		Shape:     "circular",
		CenterLat: f64ptr(28.6150), CenterLng: f64ptr(77.2100), RadiusMeters: f64ptr(150),
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	var legacy model.LegacyAttendanceSettings
	if err := gdb.Where("gym_id = ?", int64(1001)).First(&legacy).Error; err != nil {
		t.Fatalf("legacy snapshot not written: %v", err)
	}
	if legacy.Mode != model.AttendanceModeGeofence {
		t.Errorf("legacy mode = %q, want geofence", legacy.Mode)
	}
	if !legacy.GeofenceEnabled || legacy.GeofenceRadiusMeters != 150 {
		t.Errorf("legacy snapshot = enabled:%v radius:%v, want enabled radius 150",
			legacy.GeofenceEnabled, legacy.GeofenceRadiusMeters)
	}
	if legacy.GeofenceLat != 28.6150 || legacy.GeofenceLng != 77.2100 {
		t.Errorf("legacy center = (%v, %v)", legacy.GeofenceLat, legacy.GeofenceLng)
	}

	var updated model.Gym
	if err := gdb.First(&updated, gym.ID).Error; err != nil {
		t.Fatalf("reload gym: %v", err)
	}
	if updated.Latitude != 28.6150 || updated.Longitude != 77.2100 || updated.GeofenceRadius != 150 {
		t.Errorf("gym mirror = (%v, %v, r=%v), want circle mirrored",
			updated.Latitude, updated.Longitude, updated.GeofenceRadius)
	}
}

func TestSaveDisabledFenceFlipsLegacyToManual(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)

	req := dto.SaveFenceRequest{
		Shape:     "circular",
		CenterLat: f64ptr(28.6139), CenterLng: f64ptr(77.2090), RadiusMeters: f64ptr(100),
	}
	if _, err := Fence().Save(context.Background(), 1001, req); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req.Enabled = boolPtr(false)
	if _, err := Fence().Save(context.Background(), 1001, req); err != nil {
		t.Fatalf("Save disabled: %v", err)
	}

	var legacy model.LegacyAttendanceSettings
	if err := gdb.Where("gym_id = ?", int64(1001)).First(&legacy).Error; err != nil {
		t.Fatalf("legacy snapshot: %v", err)
	}
	if legacy.GeofenceEnabled || legacy.Mode != model.AttendanceModeManual {
		t.Errorf("legacy = enabled:%v mode:%q, want disabled manual", legacy.GeofenceEnabled, legacy.Mode)
	}
}

func TestSavePolygonFenceSnapshotUsesBoundingCircle(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)

	// 约 200m x 200m 的矩形
	verts := []dto.FencePoint{
		{Latitude: 28.6148, Longitude: 77.2080},
		{Latitude: 28.6148, Longitude: 77.2100},
		{Latitude: 28.6130, Longitude: 77.2100},
		{Latitude: 28.6130, Longitude: 77.2080},
	}
	cfg, err := Fence().Save(context.Background(), 1001, dto.SaveFenceRequest{
		Shape:   "polygon",
		Polygon: verts,
	})
	if err != nil {
		t.Fatalf("Save polygon: %v", err)
	}
	if len(cfg.Polygon) != 4 {
		t.Fatalf("polygon vertices = %d, want 4", len(cfg.Polygon))
	}

	points := make([]geo.Point, 0, len(verts))
	for _, v := range verts {
		points = append(points, geo.Point{Lat: v.Latitude, Lng: v.Longitude})
	}
	want := geo.PolygonBoundingCircle(points)

	var legacy model.LegacyAttendanceSettings
	if err := gdb.Where("gym_id = ?", int64(1001)).First(&legacy).Error; err != nil {
		t.Fatalf("legacy snapshot: %v", err)
	}
	if legacy.Mode != model.AttendanceModeGeofence {
		t.Errorf("legacy mode = %q, want geofence", legacy.Mode)
	}
	if legacy.GeofenceRadiusMeters != want.RadiusMeters {
		t.Errorf("legacy radius = %v, want bounding circle %v", legacy.GeofenceRadiusMeters, want.RadiusMeters)
	}

	// 判定必须走精确几何：外包圆内但多边形外的点不放行
	inside := geo.Point{Lat: 28.6139, Lng: 77.2090}
	outside := geo.Point{Lat: 28.6155, Lng: 77.2090}
	if !cfg.Contains(inside) {
		t.Error("point at polygon center should be inside")
	}
	if cfg.Contains(outside) {
		t.Error("point beyond polygon edge should be outside even within bounding circle")
	}
	if geo.DistanceMeters(want.Center, outside) >= want.RadiusMeters {
		t.Fatal("test point should sit inside the bounding circle to be meaningful")
	}
}

func TestDeleteFence(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)

	ctx := context.Background()
	if _, err := Fence().Save(ctx, 1001, dto.SaveFenceRequest{
		Shape:     "circular",
		CenterLat: f64ptr(28.6139), CenterLng: f64ptr(77.2090), RadiusMeters: f64ptr(100),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := Fence().Delete(ctx, 1001); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var cfg model.FenceConfig
	err := gdb.Where("gym_id = ?", int64(1001)).First(&cfg).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("fence still present after delete: %v", err)
	}

	var legacy model.LegacyAttendanceSettings
	if err := gdb.Where("gym_id = ?", int64(1001)).First(&legacy).Error; err != nil {
		t.Fatalf("legacy snapshot: %v", err)
	}
	if legacy.GeofenceEnabled || legacy.Mode != model.AttendanceModeManual {
		t.Errorf("legacy after delete = enabled:%v mode:%q, want disabled manual",
			legacy.GeofenceEnabled, legacy.Mode)
	}

	if err := Fence().Delete(ctx, 1001); errCode(err) != "FENCE_NOT_CONFIGURED" {
		t.Errorf("second delete err = %v, want FENCE_NOT_CONFIGURED", err)
	}

	// 删除后可重建默认围栏
	recreated, err := Fence().GetOrCreate(ctx, 1001)
	if err != nil {
		t.Fatalf("GetOrCreate after delete: %v", err)
	}
	if recreated.RadiusMeters != model.FenceRadiusDefault {
		t.Errorf("recreated radius = %v, want default", recreated.RadiusMeters)
	}
}

func TestResolveForMemberPrefersCanonicalConfig(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)

	// 过期的旧版快照，值与权威配置刻意不同
	if err := gdb.Create(&model.LegacyAttendanceSettings{
		GymID:                1001,
		Mode:                 model.AttendanceModeHybrid,
		GeofenceEnabled:      true,
		GeofenceRadiusMeters: 999,
	}).Error; err != nil {
		t.Fatalf("seed legacy: %v", err)
	}
	seedFence(t, gdb, 1001, func(cfg *model.FenceConfig) {
		cfg.RadiusMeters = 120
	})

	settings, err := Fence().ResolveForMember(context.Background(), 1001)
	if err != nil {
		t.Fatalf("ResolveForMember: %v", err)
	}
	if settings.GeofenceRadiusMeters != 120 {
		t.Errorf("radius = %v, want canonical 120 over legacy 999", settings.GeofenceRadiusMeters)
	}
	if settings.Mode != string(model.AttendanceModeGeofence) {
		t.Errorf("mode = %q, want geofence", settings.Mode)
	}
}

func TestResolveForMemberLegacyFallback(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)

	if err := gdb.Create(&model.LegacyAttendanceSettings{
		GymID:                1001,
		Mode:                 model.AttendanceModeGeofence,
		GeofenceEnabled:      true,
		GeofenceLat:          28.61,
		GeofenceLng:          77.20,
		GeofenceRadiusMeters: 80,
		AutoMarkEntry:        true,
	}).Error; err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	settings, err := Fence().ResolveForMember(context.Background(), 1001)
	if err != nil {
		t.Fatalf("ResolveForMember: %v", err)
	}
	if settings.GeofenceRadiusMeters != 80 || !settings.GeofenceEnabled {
		t.Errorf("settings = %+v, want legacy snapshot values", settings)
	}
}

func TestResolveForMemberDefaultsToManual(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)

	settings, err := Fence().ResolveForMember(context.Background(), 1001)
	if err != nil {
		t.Fatalf("ResolveForMember: %v", err)
	}
	if settings.Mode != string(model.AttendanceModeManual) {
		t.Errorf("mode = %q, want manual when nothing is configured", settings.Mode)
	}
	if settings.WindowStart != utils.DefaultWindowStart || settings.WindowEnd != utils.DefaultWindowEnd {
		t.Errorf("window = %s-%s, want defaults", settings.WindowStart, settings.WindowEnd)
	}
}

func TestWithinHoursHonorsActiveDays(t *testing.T) {
	gdb := openTestDB(t)
	gym := seedGym(t, gdb, 1001, 28.6139, 77.2090)
	gym.ActiveDays = model.StringList{"monday", "wednesday"}
	cfg := seedFence(t, gdb, 1001, nil)

	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, time.Local)
	tuesday := time.Date(2026, 3, 3, 12, 0, 0, 0, time.Local)

	if !Fence().withinHours(gym, cfg, monday) {
		t.Error("monday noon should be within hours")
	}
	if Fence().withinHours(gym, cfg, tuesday) {
		t.Error("tuesday is not an active day")
	}
}

func TestEffectiveWindowPrecedence(t *testing.T) {
	gym := &model.Gym{OpenTime: "06:00", CloseTime: "22:00"}

	start, end := Fence().effectiveWindow(gym, &model.FenceConfig{WindowStart: "07:30", WindowEnd: "21:00"})
	if start != "07:30" || end != "21:00" {
		t.Errorf("window = %s-%s, want fence window to win", start, end)
	}

	start, end = Fence().effectiveWindow(gym, &model.FenceConfig{})
	if start != "06:00" || end != "22:00" {
		t.Errorf("window = %s-%s, want gym hours fallback", start, end)
	}

	start, end = Fence().effectiveWindow(&model.Gym{}, nil)
	if start != utils.DefaultWindowStart || end != utils.DefaultWindowEnd {
		t.Errorf("window = %s-%s, want defaults", start, end)
	}
}

func TestValidateCoordinate(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)
	seedFence(t, gdb, 1001, nil)

	ctx := context.Background()

	inside, err := Fence().ValidateCoordinate(ctx, 1001, dto.ValidateCoordinateRequest{
		Latitude: 28.6139, Longitude: 77.2090, AccuracyMeters: 10,
	})
	if err != nil {
		t.Fatalf("ValidateCoordinate: %v", err)
	}
	if !inside.InsideFence || !inside.WouldAdmit {
		t.Errorf("center point = %+v, want admitted", inside)
	}

	// 约 150m 外
	outside, err := Fence().ValidateCoordinate(ctx, 1001, dto.ValidateCoordinateRequest{
		Latitude: 28.61525, Longitude: 77.2090, AccuracyMeters: 10,
	})
	if err != nil {
		t.Fatalf("ValidateCoordinate: %v", err)
	}
	if outside.InsideFence || outside.WouldAdmit {
		t.Errorf("far point = %+v, want rejected", outside)
	}
	if outside.DistanceMeters <= 100 {
		t.Errorf("distance = %v, want > fence radius", outside.DistanceMeters)
	}

	lowAcc, err := Fence().ValidateCoordinate(ctx, 1001, dto.ValidateCoordinateRequest{
		Latitude: 28.6139, Longitude: 77.2090, AccuracyMeters: 80,
	})
	if err != nil {
		t.Fatalf("ValidateCoordinate: %v", err)
	}
	if lowAcc.AccuracyAccepted || lowAcc.WouldAdmit {
		t.Errorf("low accuracy = %+v, want accuracy rejected", lowAcc)
	}
}
