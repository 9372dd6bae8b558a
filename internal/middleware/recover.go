package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"GymPulse/config"
	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/pkg/logger"
	"GymPulse/pkg/response"
)

// RecoverMiddleware 兜底 panic，返回统一错误响应。
// 生产环境不暴露 panic 细节。
func RecoverMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				handlePanic(ctx, c, err)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, err interface{}) {
	stack := debug.Stack()

	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", c.ClientIP()),
		zap.ByteString("stack", stack),
	}
	if userID, exists := GetUserID(ctx, c); exists {
		fields = append(fields, zap.String("user_id", userID))
	}
	logger.Logger.Error("[PANIC RECOVERED]", fields...)

	errDef := pkgerrors.Definition{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "服务器内部错误，请稍后重试",
	}
	if !config.Cfg.IsProduction() {
		errDef.Message = fmt.Sprintf("Internal error: %v", err)
		errDef.Details = map[string]interface{}{
			"panic":     fmt.Sprintf("%v", err),
			"timestamp": time.Now().Format(time.RFC3339),
			"stack":     string(stack),
		}
	}

	response.Error(ctx, c, errDef)
}
