package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"GymPulse/internal/model"
	"GymPulse/pkg/logger"
	"GymPulse/pkg/snowflake"
	"GymPulse/storage/mq"
)

// PublishMemberNotification 发布会员推送消息，路由键按类别拆分：
// notification.push.<category>
func PublishMemberNotification(ctx context.Context, msg *model.MemberNotificationMessage) error {
	if msg.MessageID == 0 {
		id, err := snowflake.NextID()
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.Int64("member_id", msg.MemberID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = id
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	routingKey := mq.RoutingKeyPushPrefix + msg.Category

	err := mq.PublishMessage(mq.NotificationExchange, routingKey, msg)
	if err != nil {
		logger.Logger.Error("Failed to publish member notification",
			zap.Int64("message_id", msg.MessageID),
			zap.Int64("member_id", msg.MemberID),
			zap.String("category", msg.Category),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published member notification",
		zap.Int64("message_id", msg.MessageID),
		zap.Int64("member_id", msg.MemberID),
		zap.String("category", msg.Category),
	)

	return nil
}
