package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// 考勤相关指标
	AttendanceEntryTotal     metric.Int64Counter
	AttendanceExitTotal      metric.Int64Counter
	AttendanceRejectionTotal metric.Int64Counter
	AttendanceDwellMinutes   metric.Float64Histogram

	// 围栏配置相关指标
	FenceSaveTotal     metric.Int64Counter
	FenceSyncFailTotal metric.Int64Counter

	// 推送相关指标
	PushSentTotal  metric.Int64Counter
	PushRetryTotal metric.Int64Counter
}

var (
	metrics *OTelMetrics
	meter   = otel.Meter("gympulse")
)

// InitMetrics 初始化 OpenTelemetry 指标
func InitMetrics() error {
	var err error

	metrics = &OTelMetrics{}

	metrics.AttendanceEntryTotal, err = meter.Int64Counter(
		"attendance_entry_total",
		metric.WithDescription("Total number of geofence entry marks"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	metrics.AttendanceExitTotal, err = meter.Int64Counter(
		"attendance_exit_total",
		metric.WithDescription("Total number of geofence exit marks"),
		metric.WithUnit("{exit}"),
	)
	if err != nil {
		return err
	}

	metrics.AttendanceRejectionTotal, err = meter.Int64Counter(
		"attendance_rejection_total",
		metric.WithDescription("Total number of rejected attendance events, labelled by reason"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return err
	}

	metrics.AttendanceDwellMinutes, err = meter.Float64Histogram(
		"attendance_dwell_minutes",
		metric.WithDescription("Dwell duration between entry and exit in minutes"),
		metric.WithUnit("min"),
		metric.WithExplicitBucketBoundaries(5, 15, 30, 45, 60, 90, 120, 180, 300),
	)
	if err != nil {
		return err
	}

	metrics.FenceSaveTotal, err = meter.Int64Counter(
		"fence_save_total",
		metric.WithDescription("Total number of fence configuration saves"),
		metric.WithUnit("{save}"),
	)
	if err != nil {
		return err
	}

	metrics.FenceSyncFailTotal, err = meter.Int64Counter(
		"fence_sync_fail_total",
		metric.WithDescription("Total number of legacy settings sync failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return err
	}

	metrics.PushSentTotal, err = meter.Int64Counter(
		"push_sent_total",
		metric.WithDescription("Total number of push notifications sent"),
		metric.WithUnit("{push}"),
	)
	if err != nil {
		return err
	}

	metrics.PushRetryTotal, err = meter.Int64Counter(
		"push_retry_total",
		metric.WithDescription("Total number of push notification retries"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordEntry 记录一次成功入场
func RecordEntry(ctx context.Context, gymID int64) {
	if metrics == nil {
		return
	}
	metrics.AttendanceEntryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Int64("gym_id", gymID),
	))
}

// RecordExit 记录一次成功离场及驻留时长
func RecordExit(ctx context.Context, gymID int64, dwellMinutes int) {
	if metrics == nil {
		return
	}
	metrics.AttendanceExitTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Int64("gym_id", gymID),
	))
	metrics.AttendanceDwellMinutes.Record(ctx, float64(dwellMinutes), metric.WithAttributes(
		attribute.Int64("gym_id", gymID),
	))
}

// RecordRejection 记录一次被拒绝的打卡事件
func RecordRejection(ctx context.Context, gymID int64, reason string) {
	if metrics == nil {
		return
	}
	metrics.AttendanceRejectionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Int64("gym_id", gymID),
		attribute.String("reason", reason),
	))
}

// RecordFenceSave 记录一次围栏配置保存
func RecordFenceSave(ctx context.Context, gymID int64, shape string) {
	if metrics == nil {
		return
	}
	metrics.FenceSaveTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Int64("gym_id", gymID),
		attribute.String("shape", shape),
	))
}

// RecordFenceSyncFailure 记录一次旧配置同步失败
func RecordFenceSyncFailure(ctx context.Context, gymID int64) {
	if metrics == nil {
		return
	}
	metrics.FenceSyncFailTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Int64("gym_id", gymID),
	))
}

// RecordPushSent 记录一次推送发送结果
func RecordPushSent(ctx context.Context, category string, success bool) {
	if metrics == nil {
		return
	}
	metrics.PushSentTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
		attribute.Bool("success", success),
	))
}

// RecordPushRetry 记录一次推送重试
func RecordPushRetry(ctx context.Context, category string) {
	if metrics == nil {
		return
	}
	metrics.PushRetryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
	))
}
