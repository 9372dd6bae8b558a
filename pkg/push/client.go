package push

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"GymPulse/config"
	"GymPulse/pkg/logger"
)

// Message 一条推送消息
type Message struct {
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	// DeviceToken 目标设备令牌，由会员端上报保存
	DeviceToken string `json:"device_token"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Category    string `json:"category"`
}

// Client 推送客户端接口
type Client interface {
	// Send 发送单条推送，失败返回错误，由调用方决定重试策略
	Send(ctx context.Context, msg Message) error
}

var (
	pushClient Client
	pushOnce   sync.Once
	pushErr    error
)

// Init 初始化推送客户端
func Init() error {
	pushOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.PushProvider {
		case "webhook":
			pushClient, pushErr = NewWebhookClient(cfg.PushWebhookURL, cfg.PushTimeoutSec)
		case "mock":
			pushClient = NewMockClient()
		default:
			pushErr = fmt.Errorf("unsupported push provider: %s", cfg.PushProvider)
		}

		if pushErr != nil {
			logger.Logger.Error("Failed to initialize push client", zap.Error(pushErr))
			return
		}

		logger.Logger.Info("Push client initialized successfully",
			zap.String("provider", cfg.PushProvider),
		)
	})

	return pushErr
}

func GetClient() Client {
	if pushClient == nil {
		panic("Push client not initialized, call push.Init() first")
	}
	return pushClient
}

func Send(ctx context.Context, msg Message) error {
	return GetClient().Send(ctx, msg)
}
