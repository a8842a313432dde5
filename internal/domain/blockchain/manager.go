package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/proofdrop-lab/backend/internal/domain/blockchain/eth"
	"github.com/proofdrop-lab/backend/internal/domain/blockchain/types"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/puzpuzpuz/xsync"
)

const reloadChainsFrequency = 30 * time.Second

type Manager struct {
	rootCtx        context.Context
	blockchainRepo repository.BlockChainRepository

	dispatchers *xsync.MapOf[string, Dispatcher]
	ethClients  *xsync.MapOf[string, eth.EthClient]
}

func NewManager(
	ctx context.Context,
	blockchainRepo repository.BlockChainRepository,
) *Manager {
	return &Manager{
		rootCtx:        ctx,
		blockchainRepo: blockchainRepo,
		dispatchers:    xsync.NewMapOf[Dispatcher](),
		ethClients:     xsync.NewMapOf[eth.EthClient](),
	}
}

func (m *Manager) Run(ctx context.Context) {
	for {
		m.reloadChains(ctx)
		time.Sleep(reloadChainsFrequency)
	}
}

func (m *Manager) reloadChains(ctx context.Context) {
	allChains, err := m.blockchainRepo.GetAll(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot load all chains: %v", err)
		return
	}

	for _, chain := range allChains {
		if _, ok := m.ethClients.Load(chain.Name); !ok {
			m.addChain(ctx, &chain)
		}
	}
}

func (m *Manager) addChain(ctx context.Context, blockchain *entity.Blockchain) {
	xcontext.Logger(ctx).Infof("Begin supporting chain %s", blockchain.Name)
	client := eth.NewEthClient(blockchain, m.blockchainRepo)
	m.ethClients.Store(blockchain.Name, client)
	m.dispatchers.Store(blockchain.Name, eth.NewEthDispatcher(client))

	client.Start(ctx)
}

func (m *Manager) ERC20TokenInfo(
	_ context.Context, chain, address string,
) (types.TokenInfo, error) {
	client, ok := m.ethClients.Load(chain)
	if !ok {
		return types.TokenInfo{}, fmt.Errorf("unsupported chain %s", chain)
	}

	return client.ERC20TokenInfo(m.rootCtx, address)
}

func (m *Manager) ERC20BalanceOf(
	_ context.Context, chain, tokenAddress, accountAddress string,
) (*big.Int, error) {
	client, ok := m.ethClients.Load(chain)
	if !ok {
		return nil, fmt.Errorf("unsupported chain %s", chain)
	}

	return client.ERC20BalanceOf(m.rootCtx, tokenAddress, accountAddress)
}

// TransferReward builds, records, and dispatches the on-chain transfer
// for one claim. It returns the tracking transaction id together with
// the dispatch result. The caller decides the claim verdict from
// result.Err.
func (m *Manager) TransferReward(
	ctx context.Context, reward *entity.Reward, tokenID int64, recipient string,
) (string, *types.DispatchedTxResult, error) {
	client, ok := m.ethClients.Load(reward.Chain)
	if !ok {
		return "", nil, fmt.Errorf("unsupported chain %s", reward.Chain)
	}

	tx, err := m.getSignedTransferTx(ctx, client, reward, tokenID, recipient)
	if err != nil {
		return "", nil, err
	}

	bcTx := &entity.BlockchainTransaction{
		Base:   entity.Base{ID: uuid.NewString()},
		Status: entity.BlockchainTransactionStatusTypeInProgress,
		Chain:  reward.Chain,
		TxHash: tx.Hash().Hex(),
	}

	if err := m.blockchainRepo.CreateTransaction(ctx, bcTx); err != nil {
		return "", nil, err
	}

	dispatcher, ok := m.dispatchers.Load(reward.Chain)
	if !ok {
		return "", nil, fmt.Errorf("dispatcher %s not exists", reward.Chain)
	}

	result := dispatcher.Dispatch(ctx, &types.DispatchedTxRequest{Chain: reward.Chain, Tx: tx})
	if !result.Success && result.Err != types.ErrUnknownOutcome {
		err := m.blockchainRepo.UpdateStatusByTxHash(
			ctx, bcTx.TxHash, bcTx.Chain, entity.BlockchainTransactionStatusTypeFailure)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update failed transaction status: %v", err)
		}
	}

	return bcTx.ID, result, nil
}

func (m *Manager) getSignedTransferTx(
	ctx context.Context,
	client eth.EthClient,
	reward *entity.Reward,
	tokenID int64,
	recipient string,
) (*ethtypes.Transaction, error) {
	toAddress := ethcommon.HexToAddress(recipient)

	switch reward.TokenStandard {
	case entity.TokenStandardERC20:
		token, err := m.blockchainRepo.GetToken(ctx, reward.Chain, reward.TokenAddress)
		if err != nil {
			return nil, err
		}

		return client.GetSignedTransferTokenTx(ctx, token, toAddress, reward.Amount)

	case entity.TokenStandardERC721:
		return client.GetSignedTransferNftTx(ctx, reward.TokenAddress, toAddress, tokenID)

	case entity.TokenStandardERC1155:
		return client.GetSignedTransferCollectibleTx(
			ctx, reward.TokenAddress, toAddress, reward.TokenID, int(reward.Amount))
	}

	return nil, fmt.Errorf("unsupported token standard %s", reward.TokenStandard)
}

// TxStatus resolves the on-chain outcome of a dispatched transaction.
// It returns ErrRecordNotFound-like pending error when the receipt is
// not available yet.
func (m *Manager) TxStatus(
	_ context.Context, chain, txHash string,
) (entity.BlockchainTransactionStatusType, error) {
	client, ok := m.ethClients.Load(chain)
	if !ok {
		return "", fmt.Errorf("unsupported chain %s", chain)
	}

	receipt, err := client.TransactionReceipt(m.rootCtx, ethcommon.HexToHash(txHash))
	if err != nil {
		return "", err
	}

	if receipt.Status == 1 {
		return entity.BlockchainTransactionStatusTypeSuccess, nil
	}

	return entity.BlockchainTransactionStatusTypeFailure, nil
}
