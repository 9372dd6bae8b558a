package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"GymPulse/config"
	"GymPulse/internal/model"
	"GymPulse/storage/redis"
)

const (
	fenceConfigPrefix = "fence:config"

	defaultFenceTTL = 5 * time.Minute
)

func fenceTTL() time.Duration {
	if config.Cfg.FenceCacheTTLSeconds > 0 {
		return time.Duration(config.Cfg.FenceCacheTTLSeconds) * time.Second
	}
	return defaultFenceTTL
}

// GetFenceConfig 读取围栏配置缓存。未命中或 redis 不可用返回 (nil, nil)，
// 调用方落库查询，缓存故障不能阻断打卡链路。
func GetFenceConfig(ctx context.Context, gymID int64) (*model.FenceConfig, error) {
	if !redis.Available() {
		return nil, nil
	}

	key := redis.Key(fenceConfigPrefix, fmt.Sprintf("%d", gymID))
	data, err := redis.Client().Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, nil // 降级走 DB
	}

	var cfg model.FenceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		// 缓存内容损坏，删掉重建
		redis.Client().Del(ctx, key)
		return nil, nil
	}
	return &cfg, nil
}

// SetFenceConfig 写入围栏配置缓存，失败只降级不报错
func SetFenceConfig(ctx context.Context, cfg *model.FenceConfig) error {
	if !redis.Available() || cfg == nil {
		return nil
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal fence config: %w", err)
	}

	key := redis.Key(fenceConfigPrefix, fmt.Sprintf("%d", cfg.GymID))
	return redis.Client().Set(ctx, key, data, fenceTTL()).Err()
}

// InvalidateFenceConfig 围栏配置变更后清缓存
func InvalidateFenceConfig(ctx context.Context, gymID int64) error {
	if !redis.Available() {
		return nil
	}

	key := redis.Key(fenceConfigPrefix, fmt.Sprintf("%d", gymID))
	return redis.Client().Del(ctx, key).Err()
}
