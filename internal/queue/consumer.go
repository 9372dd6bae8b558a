package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"GymPulse/internal/cache"
	"GymPulse/internal/model"
	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/pkg/logger"
	"GymPulse/pkg/metrics"
	"GymPulse/pkg/push"
	"GymPulse/storage/database"
	"GymPulse/storage/mq"
)

// StartNotificationConsumer 启动推送消费者：
// 消息落库为 NotificationTask 后调推送网关，redis SETNX + message_id 唯一索引双重幂等。
func StartNotificationConsumer(ctx context.Context) error {
	handler := func(body []byte) error {
		var msg model.MemberNotificationMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal notification message: %w", err)
		}

		messageKey := strconv.FormatInt(msg.MessageID, 10)

		processed, err := cache.TryMarkMessageProcessing(ctx, messageKey, 24*time.Hour)
		if err != nil {
			logger.Logger.Warn("Failed to check message processed status",
				zap.Int64("message_id", msg.MessageID),
				zap.Error(err),
			)
			// 检查失败继续处理，由 message_id 唯一索引兜底
		} else if !processed {
			return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("Message %d already processed", msg.MessageID)}
		}

		if err := processNotification(ctx, &msg); err != nil {
			// 处理失败取消标记，允许重试
			if unmarkErr := cache.UnmarkMessageProcessing(ctx, messageKey); unmarkErr != nil {
				logger.Logger.Warn("Failed to unmark message processing",
					zap.Int64("message_id", msg.MessageID),
					zap.Error(unmarkErr),
				)
			}
			metrics.RecordPushRetry(ctx, msg.Category)
			return err
		}

		if err := cache.MarkMessageProcessed(ctx, messageKey, 48*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.Int64("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.NotificationQueue,
		ConsumerTag:   "notification_push_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}

// processNotification 通知任务落库 + 推送。任务行先落库（message_id 唯一），
// 推送结果回写状态；推送失败不重建任务行。
func processNotification(ctx context.Context, msg *model.MemberNotificationMessage) error {
	db := database.DB()

	task := model.NotificationTask{
		MessageID: msg.MessageID,
		MemberID:  msg.MemberID,
		GymID:     msg.GymID,
		Category:  msg.Category,
		Title:     msg.Title,
		Body:      msg.Body,
		Metadata:  model.JSONB(msg.Metadata),
		Status:    model.NotificationStatusPending,
	}

	if err := db.WithContext(ctx).Create(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 任务已存在：重试场景，重读后继续推送未完成的任务
			if readErr := db.WithContext(ctx).Where("message_id = ?", msg.MessageID).First(&task).Error; readErr != nil {
				return fmt.Errorf("failed to re-read notification task: %w", readErr)
			}
			if task.Status == model.NotificationStatusSent {
				return nil
			}
		} else {
			return fmt.Errorf("failed to create notification task: %w", err)
		}
	}

	deviceToken := lookupDeviceToken(ctx, msg.MemberID)

	sendErr := push.Send(ctx, push.Message{
		Metadata:    msg.Metadata,
		DeviceToken: deviceToken,
		Title:       msg.Title,
		Body:        msg.Body,
		Category:    msg.Category,
	})

	metrics.RecordPushSent(ctx, msg.Category, sendErr == nil)

	now := time.Now()
	updates := map[string]interface{}{}
	if sendErr != nil {
		updates["status"] = model.NotificationStatusFailed
		updates["error"] = sendErr.Error()
	} else {
		updates["status"] = model.NotificationStatusSent
		updates["sent_at"] = now
		updates["error"] = ""
	}

	if err := db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		logger.Logger.Error("Failed to update notification task status",
			zap.Int64("message_id", msg.MessageID),
			zap.Error(err),
		)
	}

	if sendErr != nil {
		return fmt.Errorf("failed to send push: %w", sendErr)
	}

	logger.Logger.Info("Notification delivered",
		zap.Int64("message_id", msg.MessageID),
		zap.Int64("member_id", msg.MemberID),
		zap.String("category", msg.Category),
	)
	return nil
}

func lookupDeviceToken(ctx context.Context, memberID int64) string {
	db := database.DB()

	var member model.Member
	if err := db.WithContext(ctx).Where("public_id = ?", memberID).First(&member).Error; err != nil {
		logger.Logger.Warn("Member not found for push delivery",
			zap.Int64("member_id", memberID),
			zap.Error(err),
		)
		return ""
	}
	return member.DeviceToken
}

// StartAllConsumers 启动 worker 的全部消费者
func StartAllConsumers(ctx context.Context) {
	go func() {
		for {
			if err := StartNotificationConsumer(ctx); err != nil {
				logger.Logger.Error("Notification consumer exited", zap.Error(err))
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
				// 消费循环断开后退避重启
			}
		}
	}()
}
