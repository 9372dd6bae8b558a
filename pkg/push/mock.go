package push

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"GymPulse/pkg/logger"
)

// MockClient 本地开发/测试用，只记日志并留存发送历史
type MockClient struct {
	mu   sync.Mutex
	sent []Message
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Send(ctx context.Context, msg Message) error {
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()

	logger.Logger.Info("Mock push sent",
		zap.String("device_token", msg.DeviceToken),
		zap.String("category", msg.Category),
		zap.String("title", msg.Title),
	)
	return nil
}

// Sent 返回已发送消息快照
func (c *MockClient) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.sent))
	copy(out, c.sent)
	return out
}
