package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"GymPulse/internal/model"
	"GymPulse/pkg/logger"
	"GymPulse/storage/database"
)

type MembershipService struct{}

var (
	membershipService *MembershipService
	membershipOnce    sync.Once
)

func Membership() *MembershipService {
	membershipOnce.Do(func() {
		membershipService = &MembershipService{}
	})
	return membershipService
}

// FindActiveMembership 查询会员在该馆的有效会籍（status=active 且到期日 ≥ asOf 当日）。
// 未找到返回 (nil, nil)，由调用方决定业务错误。
func (s *MembershipService) FindActiveMembership(
	ctx context.Context,
	memberID, gymID int64,
	asOf time.Time,
) (*model.Membership, error) {
	db := database.DB()

	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())

	var membership model.Membership
	err := db.WithContext(ctx).
		Where("member_id = ? AND gym_id = ? AND status = ? AND end_date >= ?",
			memberID, gymID, model.MembershipStatusActive, day).
		Order("end_date DESC").
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query membership: %w", err)
	}

	return &membership, nil
}

// DecrementSession 次卡扣一次，带守卫条件防止扣成负数。
// 返回 false 表示余额已为 0（或非次卡），未发生扣减。
func (s *MembershipService) DecrementSession(ctx context.Context, membershipID int64) (bool, error) {
	db := database.DB()

	result := db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("id = ? AND remaining_sessions IS NOT NULL AND remaining_sessions > 0", membershipID).
		UpdateColumn("remaining_sessions", gorm.Expr("remaining_sessions - 1"))
	if result.Error != nil {
		return false, fmt.Errorf("failed to decrement session: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		logger.Logger.Warn("Session decrement skipped, no remaining balance",
			zap.Int64("membership_id", membershipID),
		)
		return false, nil
	}

	return true, nil
}
