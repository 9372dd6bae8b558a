package middleware

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"

	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/pkg/response"
	"GymPulse/pkg/token"
)

const (
	IdentityKey = token.IdentityKey
	RoleKey     = token.RoleKey
)

var authMiddleware *jwt.HertzJWTMiddleware

func initAuthMiddleware() error {
	// 使用 token 包中共享的生成器
	sharedGenerator := token.GetGenerator()
	if sharedGenerator == nil {
		return fmt.Errorf("token generator not initialized, call token.Init() first")
	}

	authMiddleware = &jwt.HertzJWTMiddleware{
		Realm:       "GymPulse API",
		Key:         sharedGenerator.Key,
		Timeout:     sharedGenerator.Timeout,
		MaxRefresh:  sharedGenerator.MaxRefresh,
		IdentityKey: sharedGenerator.IdentityKey,
		TimeFunc:    sharedGenerator.TimeFunc,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)

			if role, ok := claims[RoleKey].(string); ok {
				c.Set(RoleKey, role)
			}

			uid, ok := claims[IdentityKey].(string)
			if !ok {
				if uidFloat, ok := claims[IdentityKey].(float64); ok {
					uid = fmt.Sprintf("%.0f", uidFloat)
				} else {
					return nil
				}
			}
			return uid
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.JSON(code, map[string]interface{}{
				"error": map[string]interface{}{
					"code":    "UNAUTHORIZED",
					"message": message,
				},
			})
		},

		TokenLookup:   "header: Authorization, query: token, cookie: jwt",
		TokenHeadName: "Bearer",
	}

	return nil
}

func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authMiddleware.MiddlewareFunc()
}

// AdminRequired 限制管理端路由，依赖 token 里的 role 声明
func AdminRequired() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		role := c.GetString(RoleKey)
		if role != token.RoleAdmin {
			c.Abort()
			response.Error(ctx, c, pkgerrors.Unauthorized.WithDetails(map[string]interface{}{
				"reason": "admin role required",
			}))
			return
		}
		c.Next(ctx)
	}
}

// GetUserID 从请求上下文中获取用户ID（public_id，字符串格式）
func GetUserID(ctx context.Context, c *app.RequestContext) (string, bool) {
	userID, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}

	id, ok := userID.(string)
	if !ok {
		return "", false
	}

	return id, true
}

// GetMemberID 获取已认证会员的数值 ID
func GetMemberID(ctx context.Context, c *app.RequestContext) (int64, bool) {
	raw, ok := GetUserID(ctx, c)
	if !ok {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
