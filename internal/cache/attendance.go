package cache

import (
	"context"
	"fmt"
	"time"

	"GymPulse/storage/redis"
)

const (
	// 当日入场标记，入场成功后写入，热路径先查缓存再落库兜底
	attendanceEntryPrefix  = "attendance:entry"
	messageProcessedPrefix = "message:processed"

	entryMarkTTL = 26 * time.Hour // 覆盖整个打卡日，多留跨午夜余量
	processedTTL = 48 * time.Hour
)

// IsEntryMarked 检查当日是否已有入场标记。redis 不可用返回 false，
// 由数据库唯一索引兜底幂等。
func IsEntryMarked(ctx context.Context, gymID, memberID int64, date string) (bool, error) {
	if !redis.Available() {
		return false, nil
	}

	key := redis.Key(attendanceEntryPrefix, fmt.Sprintf("%d", gymID), date, fmt.Sprintf("%d", memberID))
	result, err := redis.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, nil // 降级走 DB
	}
	return result > 0, nil
}

// MarkEntry 入场成功后写当日标记
func MarkEntry(ctx context.Context, gymID, memberID int64, date string) error {
	if !redis.Available() {
		return nil
	}

	key := redis.Key(attendanceEntryPrefix, fmt.Sprintf("%d", gymID), date, fmt.Sprintf("%d", memberID))
	return redis.Client().Set(ctx, key, "1", entryMarkTTL).Err()
}

// UnmarkEntry 清除当日入场标记（管理端改写记录后调用）
func UnmarkEntry(ctx context.Context, gymID, memberID int64, date string) error {
	if !redis.Available() {
		return nil
	}

	key := redis.Key(attendanceEntryPrefix, fmt.Sprintf("%d", gymID), date, fmt.Sprintf("%d", memberID))
	return redis.Client().Del(ctx, key).Err()
}

// TryMarkMessageProcessing 尝试原子性地标记消息正在处理（SETNX）
// 返回 true 表示首次处理，false 表示重复消息或正在处理
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	if !redis.Available() {
		return true, nil // 无缓存时靠 message_id 唯一索引兜底
	}

	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}

	result, err := redis.Client().SetNX(ctx, key, "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return result, nil
}

// UnmarkMessageProcessing 取消消息处理标记（处理失败时调用，允许重试）
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	if !redis.Available() {
		return nil
	}

	key := redis.Key(messageProcessedPrefix, messageID)
	return redis.Client().Del(ctx, key).Err()
}

// MarkMessageProcessed 标记消息已处理（处理成功时调用，延长 TTL）
func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	if !redis.Available() {
		return nil
	}

	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}
	return redis.Client().Set(ctx, key, "completed", ttl).Err()
}
