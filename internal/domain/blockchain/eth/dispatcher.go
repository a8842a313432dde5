package eth

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/proofdrop-lab/backend/internal/domain/blockchain/types"
	"github.com/proofdrop-lab/backend/pkg/xcontext"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

type EthDispatcher struct {
	client EthClient
}

func NewEthDispatcher(client EthClient) *EthDispatcher {
	return &EthDispatcher{client: client}
}

func (d *EthDispatcher) Dispatch(ctx context.Context, request *types.DispatchedTxRequest) *types.DispatchedTxResult {
	tx := request.Tx

	from, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot recover sender of tx %s: %v", tx.Hash().Hex(), err)
		return types.NewDispatchTxError(request, types.ErrGeneric)
	}

	// Check the balance to see if we have enough native token.
	balance, err := d.client.BalanceAt(ctx, from, nil)
	if err != nil || balance == nil {
		xcontext.Logger(ctx).Errorf("Cannot get balance for account %s: %v", from, err)
		return types.NewDispatchTxError(request, types.ErrGeneric)
	}

	minimum := new(big.Int).Mul(tx.GasPrice(), big.NewInt(int64(tx.Gas())))
	minimum = minimum.Add(minimum, tx.Value())
	if minimum.Cmp(balance) > 0 {
		xcontext.Logger(ctx).Errorf(
			"Balance smaller than minimum required for this transaction, from = %s, balance = %s, minimum = %s, chain = %s",
			from.String(), balance.String(), minimum.String(), request.Chain)
		return types.NewDispatchTxError(request, types.ErrNotEnoughBalance)
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, xcontext.Configs(ctx).Blockchain.DispatchTimeout)
	defer cancel()

	err = d.client.SendTransaction(dispatchCtx, tx)
	if err == nil {
		xcontext.Logger(ctx).Infof("Tx is dispatched successfully for chain %s from %s txHash = %s",
			request.Chain, from, tx.Hash())
		return types.NewDispatchTxSuccess(request)
	}

	if strings.Contains(err.Error(), "already known") {
		// This is a tx submission duplication. It's possible that another node has submitted the same
		// transaction. This is counted as successful submission despite a returned error. Ethereum does
		// not return error code in its JSON RPC, so we have to rely on string matching.
		return types.NewDispatchTxSuccess(request)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		// The node may have accepted the tx before the deadline hit. Let
		// the reconciler decide the outcome from the receipt.
		xcontext.Logger(ctx).Warnf("Tx submission timed out for chain %s txHash = %s",
			request.Chain, tx.Hash())
		return types.NewDispatchTxError(request, types.ErrUnknownOutcome)
	}

	xcontext.Logger(ctx).Errorf("Failed to dispatch tx: %v", err)
	return types.NewDispatchTxError(request, types.ErrSubmitTx)
}
