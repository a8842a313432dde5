package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/model"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/pubsub"
	"github.com/proofdrop-lab/backend/pkg/testutil"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type reconcileFixture struct {
	ctx    context.Context
	claim  *entity.Claim
	reward entity.Reward
	tx     *entity.BlockchainTransaction

	claimRepo      repository.ClaimRepository
	rewardRepo     repository.RewardRepository
	blockchainRepo repository.BlockChainRepository
}

// newReconcileFixture sets up one claim whose dispatch outcome was
// unknown: the row is failed, the supply unit is still taken, and an
// inprogress transaction is recorded.
func newReconcileFixture(t *testing.T) *reconcileFixture {
	ctx := testutil.MockContext()

	// Fresh rows must be picked up immediately in tests.
	cfg := xcontext.Configs(ctx)
	cfg.Claim.ReconcileDelay = -time.Second
	ctx = xcontext.WithConfigs(ctx, cfg)

	event, err := testutil.SampleEvent(ctx, nil)
	require.NoError(t, err)
	reward, err := testutil.SampleReward(ctx, &entity.Reward{
		EventID:         event.ID,
		TotalSupply:     10,
		RemainingSupply: 9,
	})
	require.NoError(t, err)

	blockchainRepo := repository.NewBlockChainRepository()
	tx := &entity.BlockchainTransaction{
		Base:   entity.Base{ID: uuid.NewString()},
		Status: entity.BlockchainTransactionStatusTypeInProgress,
		Chain:  reward.Chain,
		TxHash: "0xpending",
	}
	require.NoError(t, blockchainRepo.CreateTransaction(ctx, tx))

	claimRepo := repository.NewClaimRepository()
	claim := &entity.Claim{
		Base:          entity.Base{ID: uuid.NewString()},
		EventID:       event.ID,
		Nullifier:     "0xn1",
		WalletAddress: "0x1111111111111111111111111111111111111111",
		RewardID:      reward.ID,
		Status:        entity.ClaimReserved,
	}
	require.NoError(t, claimRepo.Create(ctx, claim))
	require.NoError(t, claimRepo.MarkFailed(ctx, claim.ID, tx.ID))

	return &reconcileFixture{
		ctx:            ctx,
		claim:          claim,
		reward:         reward,
		tx:             tx,
		claimRepo:      claimRepo,
		rewardRepo:     repository.NewRewardRepository(),
		blockchainRepo: blockchainRepo,
	}
}

func Test_ReconcileClaimCronJob_CommitsMinedTransaction(t *testing.T) {
	f := newReconcileFixture(t)

	published := 0
	job := NewReconcileClaimCronJob(
		f.ctx,
		f.claimRepo,
		f.rewardRepo,
		f.blockchainRepo,
		&testutil.MockTransferManager{},
		&testutil.MockPublisher{
			PublishFunc: func(_ context.Context, topic string, _ *pubsub.Pack) error {
				require.Equal(t, model.ClaimEventsTopic, topic)
				published++
				return nil
			},
		},
		&testutil.MockRedisClient{},
	)

	job.Do(f.ctx)

	claim, err := f.claimRepo.GetByID(f.ctx, f.claim.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ClaimCommitted, claim.Status)

	tx, err := f.blockchainRepo.GetTransactionByID(f.ctx, f.tx.ID)
	require.NoError(t, err)
	require.Equal(t, entity.BlockchainTransactionStatusTypeSuccess, tx.Status)

	require.Equal(t, 1, published)

	// The supply unit stays spent.
	reward, err := f.rewardRepo.GetByID(f.ctx, f.reward.ID)
	require.NoError(t, err)
	require.Equal(t, int64(9), reward.RemainingSupply)
}

func Test_ReconcileClaimCronJob_RollsBackRevertedTransaction(t *testing.T) {
	f := newReconcileFixture(t)

	job := NewReconcileClaimCronJob(
		f.ctx,
		f.claimRepo,
		f.rewardRepo,
		f.blockchainRepo,
		&testutil.MockTransferManager{
			TxStatusFunc: func(context.Context, string, string) (entity.BlockchainTransactionStatusType, error) {
				return entity.BlockchainTransactionStatusTypeFailure, nil
			},
		},
		&testutil.MockPublisher{},
		&testutil.MockRedisClient{},
	)

	job.Do(f.ctx)

	claim, err := f.claimRepo.GetByID(f.ctx, f.claim.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ClaimRolledBack, claim.Status)

	tx, err := f.blockchainRepo.GetTransactionByID(f.ctx, f.tx.ID)
	require.NoError(t, err)
	require.Equal(t, entity.BlockchainTransactionStatusTypeFailure, tx.Status)

	// The supply unit came back.
	reward, err := f.rewardRepo.GetByID(f.ctx, f.reward.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), reward.RemainingSupply)
}

func Test_ReconcileClaimCronJob_RollsBackOrphanedReservation(t *testing.T) {
	f := newReconcileFixture(t)

	// An orchestrator died right after reserving, no transaction was
	// recorded on the claim.
	orphan := &entity.Claim{
		Base:          entity.Base{ID: uuid.NewString()},
		EventID:       f.claim.EventID,
		Nullifier:     "0xn2",
		WalletAddress: "0x2222222222222222222222222222222222222222",
		RewardID:      f.reward.ID,
		Status:        entity.ClaimReserved,
	}
	require.NoError(t, f.claimRepo.Create(f.ctx, orphan))

	job := NewReconcileClaimCronJob(
		f.ctx,
		f.claimRepo,
		f.rewardRepo,
		f.blockchainRepo,
		&testutil.MockTransferManager{},
		&testutil.MockPublisher{},
		&testutil.MockRedisClient{},
	)

	job.Do(f.ctx)

	claim, err := f.claimRepo.GetByID(f.ctx, orphan.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ClaimRolledBack, claim.Status)
}

func Test_ReconcileClaimCronJob_RollsBackDroppedTransaction(t *testing.T) {
	f := newReconcileFixture(t)

	job := NewReconcileClaimCronJob(
		f.ctx,
		f.claimRepo,
		f.rewardRepo,
		f.blockchainRepo,
		&testutil.MockTransferManager{
			TxStatusFunc: func(context.Context, string, string) (entity.BlockchainTransactionStatusType, error) {
				return "", errors.New("not found")
			},
		},
		&testutil.MockPublisher{},
		&testutil.MockRedisClient{},
	)

	job.Do(f.ctx)

	claim, err := f.claimRepo.GetByID(f.ctx, f.claim.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ClaimRolledBack, claim.Status)

	reward, err := f.rewardRepo.GetByID(f.ctx, f.reward.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), reward.RemainingSupply)
}
