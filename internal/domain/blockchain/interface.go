package blockchain

import (
	"context"

	"github.com/proofdrop-lab/backend/internal/domain/blockchain/types"
	"github.com/proofdrop-lab/backend/internal/entity"
)

// Dispatcher sends signed transactions to one blockchain.
type Dispatcher interface {
	Dispatch(ctx context.Context, request *types.DispatchedTxRequest) *types.DispatchedTxResult
}

// TransferManager is the surface the claim flow and the reconciler need
// from the chain manager.
type TransferManager interface {
	TransferReward(ctx context.Context, reward *entity.Reward, tokenID int64, recipient string) (string, *types.DispatchedTxResult, error)
	TxStatus(ctx context.Context, chain, txHash string) (entity.BlockchainTransactionStatusType, error)
}
