package repository

import (
	"context"

	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

const allocateTokenIDAttempts = 3

type RewardRepository interface {
	Create(ctx context.Context, reward *entity.Reward) error
	GetByID(ctx context.Context, id string) (*entity.Reward, error)
	GetByEventID(ctx context.Context, eventID string) (*entity.Reward, error)
	CheckAndDecreaseSupply(ctx context.Context, rewardID string) error
	IncreaseSupply(ctx context.Context, rewardID string) error

	CreateTokenIDs(ctx context.Context, rewardID string, tokenIDs []int64) error
	AllocateTokenID(ctx context.Context, rewardID, claimID string) (int64, error)
	ReleaseTokenID(ctx context.Context, claimID string) error
	GetTokenIDByClaimID(ctx context.Context, claimID string) (*entity.RewardTokenID, error)
	CountFreeTokenIDs(ctx context.Context, rewardID string) (int64, error)
}

type rewardRepository struct{}

func NewRewardRepository() *rewardRepository {
	return &rewardRepository{}
}

func (r *rewardRepository) Create(ctx context.Context, reward *entity.Reward) error {
	return xcontext.DB(ctx).Create(reward).Error
}

func (r *rewardRepository) GetByID(ctx context.Context, id string) (*entity.Reward, error) {
	var result entity.Reward
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *rewardRepository) GetByEventID(ctx context.Context, eventID string) (*entity.Reward, error) {
	var result entity.Reward
	if err := xcontext.DB(ctx).Take(&result, "event_id=?", eventID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// CheckAndDecreaseSupply takes one supply unit if any remains. It returns
// ErrRecordNotFound when the reward is exhausted.
func (r *rewardRepository) CheckAndDecreaseSupply(ctx context.Context, rewardID string) error {
	tx := xcontext.DB(ctx).Model(&entity.Reward{}).
		Where("id=? AND remaining_supply > 0", rewardID).
		Update("remaining_supply", gorm.Expr("remaining_supply-?", 1))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *rewardRepository) IncreaseSupply(ctx context.Context, rewardID string) error {
	tx := xcontext.DB(ctx).Model(&entity.Reward{}).
		Where("id=? AND remaining_supply < total_supply", rewardID).
		Update("remaining_supply", gorm.Expr("remaining_supply+?", 1))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *rewardRepository) CreateTokenIDs(ctx context.Context, rewardID string, tokenIDs []int64) error {
	records := make([]entity.RewardTokenID, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		records = append(records, entity.RewardTokenID{RewardID: rewardID, TokenID: tokenID})
	}

	return xcontext.DB(ctx).Create(records).Error
}

// AllocateTokenID binds a free pool token to the claim. Two claims racing
// for the same row make the loser retry with the next free one.
func (r *rewardRepository) AllocateTokenID(ctx context.Context, rewardID, claimID string) (int64, error) {
	for i := 0; i < allocateTokenIDAttempts; i++ {
		var record entity.RewardTokenID
		err := xcontext.DB(ctx).
			Where("reward_id=? AND claim_id=''", rewardID).
			Order("token_id ASC").
			Take(&record).Error
		if err != nil {
			return 0, err
		}

		tx := xcontext.DB(ctx).Model(&entity.RewardTokenID{}).
			Where("reward_id=? AND token_id=? AND claim_id=''", rewardID, record.TokenID).
			Update("claim_id", claimID)
		if tx.Error != nil {
			return 0, tx.Error
		}

		if tx.RowsAffected == 1 {
			return record.TokenID, nil
		}
	}

	return 0, gorm.ErrRecordNotFound
}

func (r *rewardRepository) ReleaseTokenID(ctx context.Context, claimID string) error {
	return xcontext.DB(ctx).Model(&entity.RewardTokenID{}).
		Where("claim_id=?", claimID).
		Update("claim_id", "").Error
}

func (r *rewardRepository) GetTokenIDByClaimID(ctx context.Context, claimID string) (*entity.RewardTokenID, error) {
	var result entity.RewardTokenID
	if err := xcontext.DB(ctx).Take(&result, "claim_id=?", claimID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *rewardRepository) CountFreeTokenIDs(ctx context.Context, rewardID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.RewardTokenID{}).
		Where("reward_id=? AND claim_id=''", rewardID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
