package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"GymPulse/internal/model"
	pkgerrors "GymPulse/pkg/errors"
	"GymPulse/storage/database"
)

type GymService struct{}

var (
	gymService *GymService
	gymOnce    sync.Once
)

func Gym() *GymService {
	gymOnce.Do(func() {
		gymService = &GymService{}
	})
	return gymService
}

// GetGym 按对外 ID 查询场馆
func (s *GymService) GetGym(ctx context.Context, gymID int64) (*model.Gym, error) {
	db := database.DB()

	var gym model.Gym
	err := db.WithContext(ctx).Where("public_id = ?", gymID).First(&gym).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.GymNotFound
		}
		return nil, fmt.Errorf("failed to query gym: %w", err)
	}

	return &gym, nil
}

// Location 场馆本地时区，解析失败回退系统本地时区
func (s *GymService) Location(gym *model.Gym) *time.Location {
	if gym == nil || gym.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(gym.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
