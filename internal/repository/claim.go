package repository

import (
	"context"
	"errors"
	"time"

	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.Claim) error
	GetByID(ctx context.Context, id string) (*entity.Claim, error)
	GetByEventNullifier(ctx context.Context, eventID, nullifier string) (*entity.Claim, error)
	GetByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.Claim, error)
	GetByEventID(ctx context.Context, eventID string, offset, limit int) ([]entity.Claim, error)

	ReReserve(ctx context.Context, id string, claim *entity.Claim) error
	Commit(ctx context.Context, id, transactionID string) error
	RollBack(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, transactionID string) error
	ResolveFailed(ctx context.Context, id string, status entity.ClaimStatus) error

	GetUnresolvedBefore(ctx context.Context, before time.Time) ([]entity.Claim, error)
	CountCommittedByEventID(ctx context.Context, eventID string) (int64, error)
}

type claimRepository struct{}

func NewClaimRepository() *claimRepository {
	return &claimRepository{}
}

func (r *claimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	return xcontext.DB(ctx).Create(claim).Error
}

func (r *claimRepository) GetByID(ctx context.Context, id string) (*entity.Claim, error) {
	var result entity.Claim
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *claimRepository) GetByEventNullifier(ctx context.Context, eventID, nullifier string) (*entity.Claim, error) {
	var result entity.Claim
	err := xcontext.DB(ctx).Take(&result, "event_id=? AND nullifier=?", eventID, nullifier).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *claimRepository) GetByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.Claim, error) {
	var result []entity.Claim
	err := xcontext.DB(ctx).Where("user_id=?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *claimRepository) GetByEventID(ctx context.Context, eventID string, offset, limit int) ([]entity.Claim, error) {
	var result []entity.Claim
	err := xcontext.DB(ctx).Where("event_id=?", eventID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ReReserve takes over a rolled back row for a new claim attempt. The
// condition on status makes concurrent takeovers of the same row
// impossible.
func (r *claimRepository) ReReserve(ctx context.Context, id string, claim *entity.Claim) error {
	tx := xcontext.DB(ctx).Model(&entity.Claim{}).
		Where("id=? AND status=?", id, entity.ClaimRolledBack).
		Updates(map[string]any{
			"status":             entity.ClaimReserved,
			"user_id":            claim.UserID,
			"wallet_address":     claim.WalletAddress,
			"merkle_root":        claim.MerkleRoot,
			"verification_level": claim.VerificationLevel,
			"token_id":           claim.TokenID,
			"transaction_id":     "",
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *claimRepository) Commit(ctx context.Context, id, transactionID string) error {
	err := r.transitFromReserved(ctx, id, entity.ClaimCommitted, transactionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Repeating a commit with the same transaction is a no-op.
		claim, getErr := r.GetByID(ctx, id)
		if getErr == nil &&
			claim.Status == entity.ClaimCommitted && claim.TransactionID == transactionID {
			return nil
		}
	}

	return err
}

func (r *claimRepository) RollBack(ctx context.Context, id string) error {
	return r.transitFromReserved(ctx, id, entity.ClaimRolledBack, "")
}

func (r *claimRepository) MarkFailed(ctx context.Context, id, transactionID string) error {
	return r.transitFromReserved(ctx, id, entity.ClaimFailed, transactionID)
}

func (r *claimRepository) transitFromReserved(
	ctx context.Context, id string, status entity.ClaimStatus, transactionID string,
) error {
	updateMap := map[string]any{"status": status}
	if transactionID != "" {
		updateMap["transaction_id"] = transactionID
	}

	tx := xcontext.DB(ctx).Model(&entity.Claim{}).
		Where("id=? AND status=?", id, entity.ClaimReserved).
		Updates(updateMap)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// ResolveFailed moves a failed row to its final verdict once the
// reconciler learns the transaction outcome.
func (r *claimRepository) ResolveFailed(ctx context.Context, id string, status entity.ClaimStatus) error {
	tx := xcontext.DB(ctx).Model(&entity.Claim{}).
		Where("id=? AND status=?", id, entity.ClaimFailed).
		Update("status", status)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// GetUnresolvedBefore returns claims with no final verdict yet. A stale
// reserved row means its orchestrator died before reaching a verdict.
func (r *claimRepository) GetUnresolvedBefore(ctx context.Context, before time.Time) ([]entity.Claim, error) {
	var result []entity.Claim
	err := xcontext.DB(ctx).
		Where("status IN ? AND updated_at < ?",
			[]entity.ClaimStatus{entity.ClaimReserved, entity.ClaimFailed}, before).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *claimRepository) CountCommittedByEventID(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.Claim{}).
		Where("event_id=? AND status=?", eventID, entity.ClaimCommitted).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
