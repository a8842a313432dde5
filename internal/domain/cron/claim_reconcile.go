package cron

import (
	"context"
	"encoding/json"
	"time"

	"github.com/proofdrop-lab/backend/internal/common"
	"github.com/proofdrop-lab/backend/internal/domain/blockchain"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/model"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/pubsub"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/proofdrop-lab/backend/pkg/xredis"
)

// ReconcileClaimCronJob decides the final verdict of claims whose
// dispatch outcome was unknown, and of reserved claims orphaned by a
// dead orchestrator. A mined successful transaction commits the claim,
// anything else rolls it back and frees the nullifier.
type ReconcileClaimCronJob struct {
	claimRepo      repository.ClaimRepository
	rewardRepo     repository.RewardRepository
	blockchainRepo repository.BlockChainRepository

	blockchainManager blockchain.TransferManager
	publisher         pubsub.Publisher
	redisClient       xredis.Client

	delay     time.Duration
	frequency time.Duration
}

func NewReconcileClaimCronJob(
	ctx context.Context,
	claimRepo repository.ClaimRepository,
	rewardRepo repository.RewardRepository,
	blockchainRepo repository.BlockChainRepository,
	blockchainManager blockchain.TransferManager,
	publisher pubsub.Publisher,
	redisClient xredis.Client,
) *ReconcileClaimCronJob {
	return &ReconcileClaimCronJob{
		claimRepo:         claimRepo,
		rewardRepo:        rewardRepo,
		blockchainRepo:    blockchainRepo,
		blockchainManager: blockchainManager,
		publisher:         publisher,
		redisClient:       redisClient,
		delay:             xcontext.Configs(ctx).Claim.ReconcileDelay,
		frequency:         xcontext.Configs(ctx).Claim.ReconcileFrequency,
	}
}

func (job *ReconcileClaimCronJob) Do(ctx context.Context) {
	claims, err := job.claimRepo.GetUnresolvedBefore(ctx, time.Now().Add(-job.delay))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get unresolved claims: %v", err)
		return
	}

	for i := range claims {
		job.reconcile(ctx, &claims[i])
	}
}

func (job *ReconcileClaimCronJob) reconcile(ctx context.Context, claim *entity.Claim) {
	if claim.TransactionID == "" {
		// No transaction was ever recorded on the claim, nothing provable
		// reached the chain.
		job.rollBack(ctx, claim, nil)
		return
	}

	tx, err := job.blockchainRepo.GetTransactionByID(ctx, claim.TransactionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get transaction of claim %s: %v", claim.ID, err)
		return
	}

	status, err := job.blockchainManager.TxStatus(ctx, tx.Chain, tx.TxHash)
	if err != nil {
		// No receipt after the reconcile delay means the transaction was
		// dropped from the mempool.
		xcontext.Logger(ctx).Infof(
			"No receipt of transaction %s, roll back claim %s", tx.TxHash, claim.ID)
		job.rollBack(ctx, claim, tx)
		return
	}

	if status == entity.BlockchainTransactionStatusTypeSuccess {
		job.commit(ctx, claim, tx)
	} else {
		job.rollBack(ctx, claim, tx)
	}
}

func (job *ReconcileClaimCronJob) commit(
	ctx context.Context, claim *entity.Claim, tx *entity.BlockchainTransaction,
) {
	err := job.claimRepo.ResolveFailed(ctx, claim.ID, entity.ClaimCommitted)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot resolve claim %s: %v", claim.ID, err)
		return
	}

	err = job.blockchainRepo.UpdateStatusByTxHash(
		ctx, tx.TxHash, tx.Chain, entity.BlockchainTransactionStatusTypeSuccess)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update transaction status: %v", err)
	}

	if job.redisClient != nil {
		err := job.redisClient.Set(
			ctx, common.RedisKeyClaimedNullifier(claim.EventID, claim.Nullifier), claim.ID, 0)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot cache the claimed nullifier: %v", err)
		}
	}

	job.publishClaimEvent(ctx, claim, tx.TxHash)
	common.PromCounters[common.ClaimsTotal].WithLabelValues("committed").Inc()
}

func (job *ReconcileClaimCronJob) rollBack(
	ctx context.Context, claim *entity.Claim, tx *entity.BlockchainTransaction,
) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	var err error
	if claim.Status == entity.ClaimReserved {
		err = job.claimRepo.RollBack(ctx, claim.ID)
	} else {
		err = job.claimRepo.ResolveFailed(ctx, claim.ID, entity.ClaimRolledBack)
	}
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot resolve claim %s: %v", claim.ID, err)
		return
	}

	if err := job.rewardRepo.IncreaseSupply(ctx, claim.RewardID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot return the supply unit: %v", err)
		return
	}

	if err := job.rewardRepo.ReleaseTokenID(ctx, claim.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot release the token id: %v", err)
		return
	}

	if tx != nil {
		err := job.blockchainRepo.UpdateStatusByTxHash(
			ctx, tx.TxHash, tx.Chain, entity.BlockchainTransactionStatusTypeFailure)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot update transaction status: %v", err)
		}
	}

	common.PromCounters[common.ClaimsTotal].WithLabelValues("rolled_back").Inc()
	xcontext.WithCommitDBTransaction(ctx)
}

func (job *ReconcileClaimCronJob) publishClaimEvent(
	ctx context.Context, claim *entity.Claim, txHash string,
) {
	if job.publisher == nil {
		return
	}

	reward, err := job.rewardRepo.GetByID(ctx, claim.RewardID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward of claim %s: %v", claim.ID, err)
		return
	}

	payload, err := json.Marshal(model.ClaimEvent{
		ClaimID:       claim.ID,
		EventID:       claim.EventID,
		WalletAddress: claim.WalletAddress,
		TokenStandard: string(reward.TokenStandard),
		TokenAddress:  reward.TokenAddress,
		Amount:        reward.Amount,
		TokenID:       claim.TokenID,
		TxHash:        txHash,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal claim event: %v", err)
		return
	}

	err = job.publisher.Publish(ctx, model.ClaimEventsTopic, &pubsub.Pack{
		Key: []byte(claim.ID),
		Msg: payload,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish claim event: %v", err)
	}
}

func (job *ReconcileClaimCronJob) RunNow() bool {
	return false
}

func (job *ReconcileClaimCronJob) Next() time.Time {
	return time.Now().Add(job.frequency)
}
