package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/proofdrop-lab/backend/internal/domain/blockchain/types"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/repository"
)

// MockTransferManager stands in for the chain manager. Without an
// override it records a transaction and reports a successful dispatch.
type MockTransferManager struct {
	TransferRewardFunc func(ctx context.Context, reward *entity.Reward, tokenID int64, recipient string) (string, *types.DispatchedTxResult, error)
	TxStatusFunc       func(ctx context.Context, chain, txHash string) (entity.BlockchainTransactionStatusType, error)
}

func (m *MockTransferManager) TransferReward(
	ctx context.Context, reward *entity.Reward, tokenID int64, recipient string,
) (string, *types.DispatchedTxResult, error) {
	if m.TransferRewardFunc != nil {
		return m.TransferRewardFunc(ctx, reward, tokenID, recipient)
	}

	tx := &entity.BlockchainTransaction{
		Base:   entity.Base{ID: uuid.NewString()},
		Status: entity.BlockchainTransactionStatusTypeInProgress,
		Chain:  reward.Chain,
		TxHash: "0x" + uuid.NewString(),
	}
	if err := repository.NewBlockChainRepository().CreateTransaction(ctx, tx); err != nil {
		return "", nil, err
	}

	return tx.ID, &types.DispatchedTxResult{
		Success: true,
		Err:     types.ErrNil,
		Chain:   reward.Chain,
		TxHash:  tx.TxHash,
	}, nil
}

func (m *MockTransferManager) TxStatus(
	ctx context.Context, chain, txHash string,
) (entity.BlockchainTransactionStatusType, error) {
	if m.TxStatusFunc != nil {
		return m.TxStatusFunc(ctx, chain, txHash)
	}

	return entity.BlockchainTransactionStatusTypeSuccess, nil
}
