package service

import (
	"context"
	"testing"
	"time"

	"GymPulse/internal/model"
	"GymPulse/internal/model/dto"
)

func goodTelemetry(gymID int64) dto.TelemetryRequest {
	return dto.TelemetryRequest{
		GymID:                gymID,
		LocationEnabled:      true,
		PermissionGranted:    true,
		BackgroundPermission: true,
		Latitude:             28.6139,
		Longitude:            77.2090,
		AccuracyMeters:       10,
		AppVersion:           "2.4.1",
		Platform:             "android",
	}
}

func TestRecordTelemetryCreatesSnapshot(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)
	seedFence(t, gdb, 1001, nil)

	data, err := LocationStatus().RecordTelemetry(context.Background(), 2001, goodTelemetry(1001))
	if err != nil {
		t.Fatalf("RecordTelemetry: %v", err)
	}
	if !data.FullyConfigured {
		t.Error("all capabilities on, want fully_configured")
	}
	if data.AccuracyClass != string(model.AccuracyClassHigh) {
		t.Errorf("accuracy_class = %q, want high at 10m", data.AccuracyClass)
	}
	if data.Stale {
		t.Error("fresh report flagged stale")
	}
	if len(data.Warnings) != 0 {
		t.Errorf("warnings = %d, want none when everything passes", len(data.Warnings))
	}

	var count int64
	gdb.Model(&model.MemberLocationStatus{}).Count(&count)
	if count != 1 {
		t.Errorf("status rows = %d, want 1", count)
	}
}

func TestRecordTelemetryAppendsWarnings(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)
	seedFence(t, gdb, 1001, nil)

	bad := goodTelemetry(1001)
	bad.LocationEnabled = false
	bad.AccuracyMeters = 80

	ctx := context.Background()
	data, err := LocationStatus().RecordTelemetry(ctx, 2001, bad)
	if err != nil {
		t.Fatalf("RecordTelemetry: %v", err)
	}
	if len(data.Warnings) != 2 {
		t.Fatalf("warnings = %d, want location_disabled + low_accuracy", len(data.Warnings))
	}
	types := map[string]bool{}
	for _, w := range data.Warnings {
		types[w.Type] = true
		if w.ID == "" {
			t.Error("warning missing id")
		}
	}
	if !types[model.WarningTypeLocationDisabled] || !types[model.WarningTypeLowAccuracy] {
		t.Errorf("warning types = %v", types)
	}

	// 再次上报只追加不覆盖
	data, err = LocationStatus().RecordTelemetry(ctx, 2001, bad)
	if err != nil {
		t.Fatalf("second RecordTelemetry: %v", err)
	}
	if len(data.Warnings) != 4 {
		t.Errorf("warnings = %d after second report, want 4", len(data.Warnings))
	}

	// 快照字段覆盖为最新值
	if data.LocationEnabled {
		t.Error("snapshot should reflect latest capability bits")
	}
	if data.AccuracyClass != string(model.AccuracyClassLow) {
		t.Errorf("accuracy_class = %q, want low at 80m", data.AccuracyClass)
	}
}

func TestRecordTelemetrySkipsWarningsInManualMode(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)
	seedFence(t, gdb, 1001, func(cfg *model.FenceConfig) { cfg.Enabled = false })

	bad := goodTelemetry(1001)
	bad.LocationEnabled = false
	bad.PermissionGranted = false

	data, err := LocationStatus().RecordTelemetry(context.Background(), 2001, bad)
	if err != nil {
		t.Fatalf("RecordTelemetry: %v", err)
	}
	if len(data.Warnings) != 0 {
		t.Errorf("warnings = %d, manual mode must not evaluate gating checks", len(data.Warnings))
	}
}

func TestRecordTelemetryUnknownGym(t *testing.T) {
	openTestDB(t)

	_, err := LocationStatus().RecordTelemetry(context.Background(), 2001, goodTelemetry(404))
	if errCode(err) != "GYM_NOT_FOUND" {
		t.Fatalf("err = %v, want GYM_NOT_FOUND", err)
	}
}

func TestAckWarning(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)
	seedFence(t, gdb, 1001, nil)

	bad := goodTelemetry(1001)
	bad.MockLocationDetected = true

	ctx := context.Background()
	if _, err := LocationStatus().RecordTelemetry(ctx, 2001, bad); err != nil {
		t.Fatalf("RecordTelemetry: %v", err)
	}

	if err := LocationStatus().AckWarning(ctx, 2001, 1001, 0); err != nil {
		t.Fatalf("AckWarning: %v", err)
	}

	data, err := LocationStatus().GetStatus(ctx, 2001, 1001)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if len(data.Warnings) != 1 || !data.Warnings[0].Acknowledged {
		t.Errorf("warnings = %+v, want first acknowledged", data.Warnings)
	}

	if err := LocationStatus().AckWarning(ctx, 2001, 1001, 5); errCode(err) != "WARNING_INDEX_INVALID" {
		t.Errorf("err = %v, want WARNING_INDEX_INVALID for out-of-range index", err)
	}
	if err := LocationStatus().AckWarning(ctx, 2001, 1001, -1); errCode(err) != "WARNING_INDEX_INVALID" {
		t.Errorf("err = %v, want WARNING_INDEX_INVALID for negative index", err)
	}
	if err := LocationStatus().AckWarning(ctx, 9999, 1001, 0); errCode(err) != "MEMBER_NOT_FOUND" {
		t.Errorf("err = %v, want MEMBER_NOT_FOUND without telemetry", err)
	}
}

func TestCategorizeGymMembers(t *testing.T) {
	gdb := openTestDB(t)
	seedGym(t, gdb, 1001, 28.6139, 77.2090)
	seedFence(t, gdb, 1001, nil)

	fresh := time.Now().Add(-time.Minute)
	stale := time.Now().Add(-time.Hour)

	type fixture struct {
		memberID int64
		status   *model.MemberLocationStatus
	}
	fixtures := []fixture{
		{3001, nil}, // 从未上报
		{3002, &model.MemberLocationStatus{
			LocationEnabled: true, PermissionGranted: true, BackgroundPermission: true,
			AccuracyClass: model.AccuracyClassHigh, LastReportedAt: &fresh,
		}},
		{3003, &model.MemberLocationStatus{
			// 配置完整但上报过期：过期优先
			LocationEnabled: true, PermissionGranted: true, BackgroundPermission: true,
			AccuracyClass: model.AccuracyClassHigh, LastReportedAt: &stale,
		}},
		{3004, &model.MemberLocationStatus{
			PermissionGranted: true, BackgroundPermission: true,
			AccuracyClass: model.AccuracyClassHigh, LastReportedAt: &fresh,
			Warnings: model.WarningList{
				{ID: "w1", Type: model.WarningTypeLocationDisabled},
				{ID: "w2", Type: model.WarningTypeLocationDisabled, Acknowledged: true},
			},
		}},
		{3005, &model.MemberLocationStatus{
			LocationEnabled: true, PermissionGranted: true, BackgroundPermission: true,
			AccuracyClass: model.AccuracyClassLow, LastReportedAt: &fresh,
		}},
		{3007, &model.MemberLocationStatus{
			// 其余全通过但检出模拟定位：打卡必被拒，不得归入配置完整
			LocationEnabled: true, PermissionGranted: true, BackgroundPermission: true,
			MockLocationDetected: true, AccuracyClass: model.AccuracyClassHigh,
			LastReportedAt: &fresh,
		}},
	}

	for _, f := range fixtures {
		seedMember(t, gdb, f.memberID, "会员")
		seedMembership(t, gdb, f.memberID, 1001, nil)
		if f.status != nil {
			f.status.GymID = 1001
			f.status.MemberID = f.memberID
			if err := gdb.Create(f.status).Error; err != nil {
				t.Fatalf("seed status %d: %v", f.memberID, err)
			}
		}
	}

	// 非有效会籍不纳入分组
	seedMember(t, gdb, 3006, "过期会员")
	if err := gdb.Create(&model.Membership{
		MemberID: 3006, GymID: 1001,
		Status:  model.MembershipStatusExpired,
		EndDate: time.Now().AddDate(0, 0, -30),
	}).Error; err != nil {
		t.Fatalf("seed expired membership: %v", err)
	}

	result, err := LocationStatus().CategorizeGymMembers(context.Background(), 1001)
	if err != nil {
		t.Fatalf("CategorizeGymMembers: %v", err)
	}

	assertBucket := func(name string, bucket []dto.MemberIssueSummary, wantMember int64) {
		t.Helper()
		if len(bucket) != 1 || bucket[0].MemberID != wantMember {
			t.Errorf("%s = %+v, want single member %d", name, bucket, wantMember)
		}
	}
	assertBucket("no_data", result.NoData, 3001)
	assertBucket("fully_configured", result.FullyConfigured, 3002)
	assertBucket("stale", result.Stale, 3003)
	assertBucket("location_disabled", result.LocationDisabled, 3004)

	// 兜底分组收精度不达标与模拟定位两类
	fallback := map[int64]bool{}
	for _, s := range result.LowAccuracy {
		fallback[s.MemberID] = true
	}
	if len(fallback) != 2 || !fallback[3005] || !fallback[3007] {
		t.Errorf("low_accuracy = %+v, want members 3005 and 3007", result.LowAccuracy)
	}

	if len(result.PermissionDenied) != 0 || len(result.BackgroundPermissionIssue) != 0 {
		t.Error("unexpected members in permission buckets")
	}

	if len(result.LocationDisabled) == 1 {
		if got := result.LocationDisabled[0].OpenWarnings; got != 1 {
			t.Errorf("open_warnings = %d, want unacknowledged only", got)
		}
	}

	total := len(result.NoData) + len(result.FullyConfigured) + len(result.Stale) +
		len(result.LocationDisabled) + len(result.PermissionDenied) +
		len(result.BackgroundPermissionIssue) + len(result.LowAccuracy)
	if total != 6 {
		t.Errorf("categorized members = %d, expired membership must be excluded", total)
	}
}

func TestClassifyAccuracy(t *testing.T) {
	cases := []struct {
		meters float64
		want   model.AccuracyClass
	}{
		{0, model.AccuracyClassUnknown},
		{-1, model.AccuracyClassUnknown},
		{15, model.AccuracyClassHigh},
		{20, model.AccuracyClassHigh},
		{35, model.AccuracyClassMedium},
		{50, model.AccuracyClassMedium},
		{51, model.AccuracyClassLow},
		{200, model.AccuracyClassLow},
	}
	for _, tc := range cases {
		if got := model.ClassifyAccuracy(tc.meters); got != tc.want {
			t.Errorf("ClassifyAccuracy(%v) = %q, want %q", tc.meters, got, tc.want)
		}
	}
}
