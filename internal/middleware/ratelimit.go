package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/pkg/logger"
	"GymPulse/pkg/response"
	"GymPulse/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 限流键前缀
	KeyPrefix string
	// 错误消息
	ErrorMessage string
	// 时间窗口（秒）
	Window int
	// 时间窗口内最大请求数
	MaxRequests int
	// 阻塞时长（秒），超过限制后禁止访问的时间
	BlockDuration int
	// 是否按用户ID限流（需要认证）
	ByUserID bool
	// 是否按IP限流
	ByIP bool
}

// DefaultRateLimitConfig 默认限流配置
var DefaultRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   100,
	KeyPrefix:     "rate:limit",
	ByUserID:      true,
	ByIP:          true,
	BlockDuration: 300,
	ErrorMessage:  "请求过于频繁，请稍后再试",
}

// AttendanceRateLimitConfig 打卡限流：入场/离场本身幂等，限流只挡刷接口
var AttendanceRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   12,
	KeyPrefix:     "attendance:rate",
	ByUserID:      true,
	ByIP:          false,
	BlockDuration: 300,
	ErrorMessage:  "打卡过于频繁，请稍后再试",
}

// TelemetryRateLimitConfig 遥测上报限流，客户端默认 1 分钟上报一次
var TelemetryRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   6,
	KeyPrefix:     "telemetry:rate",
	ByUserID:      true,
	ByIP:          false,
	BlockDuration: 600,
	ErrorMessage:  "上报过于频繁，请稍后再试",
}

// FenceSaveRateLimitConfig 围栏配置修改限流
var FenceSaveRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   10,
	KeyPrefix:     "fence:save:rate",
	ByUserID:      true,
	ByIP:          false,
	BlockDuration: 600,
	ErrorMessage:  "配置修改过于频繁，请稍后再试",
}

// RateLimiter 限流器
type RateLimiter struct {
	config RateLimitConfig
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config: config,
	}
}

// getKey 生成限流键
func (rl *RateLimiter) getKey(ctx context.Context, c *app.RequestContext) string {
	var identifier string

	if rl.config.ByUserID {
		if userID, exists := GetUserID(ctx, c); exists {
			identifier = fmt.Sprintf("user:%s", userID)
		}
	}

	if identifier == "" && rl.config.ByIP {
		identifier = fmt.Sprintf("ip:%s", c.ClientIP())
	}

	return redis.Key(rl.config.KeyPrefix, identifier)
}

// Allow 检查是否允许请求，使用滑动窗口算法
func (rl *RateLimiter) Allow(ctx context.Context, c *app.RequestContext) (bool, int, error) {
	key := rl.getKey(ctx, c)
	now := time.Now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	// zset 实现滑动窗口限流
	client := redis.Client()
	pipe := client.Pipeline()

	// 先移除窗口开始时间之前的请求记录
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))

	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})

	zcardCmd := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	allowed := count <= rl.config.MaxRequests

	return allowed, count, nil
}

func (rl *RateLimiter) Block(ctx context.Context, c *app.RequestContext) error {
	key := redis.Key(rl.config.KeyPrefix+"block", rl.getKey(ctx, c))
	return redis.Client().Set(ctx, key, "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, c *app.RequestContext) (bool, error) {
	key := redis.Key(rl.config.KeyPrefix+"block", rl.getKey(ctx, c))
	result, err := redis.Client().Exists(ctx, key).Result()
	return result > 0, err
}

// RateLimitMiddleware 创建限流中间件。redis 不可用时直接放行，
// 限流是保护手段，不能变成打卡链路的单点。
func RateLimitMiddleware(config RateLimitConfig) app.HandlerFunc {
	limiter := NewRateLimiter(config)

	return func(ctx context.Context, c *app.RequestContext) {
		if !redis.Available() {
			c.Next(ctx)
			return
		}

		blocked, err := limiter.IsBlocked(ctx, c)
		if err != nil {
			logger.Logger.Error("Failed to check block status", zap.Error(err))
			c.Next(ctx)
			return
		}

		if blocked {
			c.AbortWithStatus(consts.StatusTooManyRequests)
			response.Error(ctx, c, pkgerrors.RateLimited)
			return
		}

		allowed, count, err := limiter.Allow(ctx, c)
		if err != nil {
			logger.Logger.Error("Failed to check rate limit", zap.Error(err))
			c.Next(ctx)
			return
		}

		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(config.MaxRequests-count))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(config.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, c); err != nil {
				logger.Logger.Error("Failed to block user", zap.Error(err))
			}

			c.AbortWithStatus(consts.StatusTooManyRequests)
			response.Error(ctx, c, pkgerrors.RateLimited)
			return
		}

		c.Next(ctx)
	}
}

// GeneralRateLimitMiddleware 通用限流中间件
func GeneralRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(DefaultRateLimitConfig)
}

// AttendanceRateLimitMiddleware 入场/离场打卡限流
func AttendanceRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(AttendanceRateLimitConfig)
}

// TelemetryRateLimitMiddleware 定位遥测上报限流
func TelemetryRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(TelemetryRateLimitConfig)
}

// FenceSaveRateLimitMiddleware 围栏配置修改限流
func FenceSaveRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(FenceSaveRateLimitConfig)
}
