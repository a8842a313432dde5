package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/proofdrop-lab/backend/internal/common"
	"github.com/proofdrop-lab/backend/internal/domain/blockchain"
	"github.com/proofdrop-lab/backend/internal/domain/blockchain/types"
	"github.com/proofdrop-lab/backend/internal/domain/proof"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/model"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/errorx"
	"github.com/proofdrop-lab/backend/pkg/ethutil"
	"github.com/proofdrop-lab/backend/pkg/pubsub"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/proofdrop-lab/backend/pkg/xredis"
	"gorm.io/gorm"
)

type ClaimDomain interface {
	Claim(context.Context, *model.ClaimRewardRequest) (*model.ClaimRewardResponse, error)
	Get(context.Context, *model.GetClaimRequest) (*model.GetClaimResponse, error)
	GetMyClaims(context.Context, *model.GetMyClaimsRequest) (*model.GetMyClaimsResponse, error)
}

type claimDomain struct {
	claimRepo      repository.ClaimRepository
	rewardRepo     repository.RewardRepository
	eventRepo      repository.EventRepository
	blockchainRepo repository.BlockChainRepository

	verifier          *proof.Verifier
	blockchainManager blockchain.TransferManager
	publisher         pubsub.Publisher
	redisClient       xredis.Client
}

func NewClaimDomain(
	claimRepo repository.ClaimRepository,
	rewardRepo repository.RewardRepository,
	eventRepo repository.EventRepository,
	blockchainRepo repository.BlockChainRepository,
	verifier *proof.Verifier,
	blockchainManager blockchain.TransferManager,
	publisher pubsub.Publisher,
	redisClient xredis.Client,
) ClaimDomain {
	return &claimDomain{
		claimRepo:         claimRepo,
		rewardRepo:        rewardRepo,
		eventRepo:         eventRepo,
		blockchainRepo:    blockchainRepo,
		verifier:          verifier,
		blockchainManager: blockchainManager,
		publisher:         publisher,
		redisClient:       redisClient,
	}
}

// Claim hands out the reward of an event to one verified human. The
// nullifier reservation makes a second claim with the same identity
// impossible, no matter how many wallets it controls.
func (d *claimDomain) Claim(
	ctx context.Context, req *model.ClaimRewardRequest,
) (*model.ClaimRewardResponse, error) {
	if !ethcommon.IsHexAddress(req.WalletAddress) {
		return nil, errorx.New(errorx.BadRequest, "Invalid wallet address")
	}

	if req.NullifierHash == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty nullifier")
	}

	event, err := d.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found event")
		}

		xcontext.Logger(ctx).Errorf("Cannot get event: %v", err)
		return nil, errorx.Unknown
	}

	now := time.Now()
	if !event.Active || now.Before(event.StartedAt) || !now.Before(event.EndedAt) {
		return nil, errorx.New(errorx.EventClosed, "This event is not open for claims")
	}

	// Fast path, no proof verification for identities known to have
	// claimed already.
	if d.redisClient != nil {
		claimed, err := d.redisClient.Exist(
			ctx, common.RedisKeyClaimedNullifier(req.EventID, req.NullifierHash))
		if err == nil && claimed {
			return nil, errorx.New(errorx.AlreadyClaimed,
				"This identity has already claimed the reward of this event")
		}
	}

	reward, err := d.rewardRepo.GetByEventID(ctx, req.EventID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward of event: %v", err)
		return nil, errorx.Unknown
	}

	// Advisory check. The reservation below decides for real.
	if reward.RemainingSupply <= 0 {
		return nil, errorx.New(errorx.RewardExhausted, "The reward of this event is exhausted")
	}

	if err := d.verifyWalletBinding(ctx, req); err != nil {
		return nil, err
	}

	previous, err := d.claimRepo.GetByEventNullifier(ctx, req.EventID, req.NullifierHash)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get previous claim: %v", err)
		return nil, errorx.Unknown
	}

	if previous != nil {
		switch previous.Status {
		case entity.ClaimRolledBack:
			// A rolled back attempt frees the nullifier, take the row over.
		case entity.ClaimFailed:
			return nil, errorx.New(errorx.DispatchPending,
				"A previous claim of this identity is waiting for its on-chain outcome")
		default:
			return nil, errorx.New(errorx.AlreadyClaimed,
				"This identity has already claimed the reward of this event")
		}
	}

	err = d.verifier.Verify(ctx, proof.ClaimProof{
		EventID:           req.EventID,
		WalletAddress:     req.WalletAddress,
		NullifierHash:     req.NullifierHash,
		MerkleRoot:        req.MerkleRoot,
		Proof:             req.Proof,
		VerificationLevel: req.VerificationLevel,
	})
	if err != nil {
		return nil, err
	}

	claim, err := d.reserve(ctx, req, reward, previous)
	if err != nil {
		return nil, err
	}

	return d.dispatch(ctx, claim, reward)
}

// reserve durably takes one supply unit and the nullifier before any
// on-chain action happens.
func (d *claimDomain) reserve(
	ctx context.Context,
	req *model.ClaimRewardRequest,
	reward *entity.Reward,
	previous *entity.Claim,
) (*entity.Claim, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.rewardRepo.CheckAndDecreaseSupply(ctx, reward.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.RewardExhausted, "The reward of this event is exhausted")
		}

		xcontext.Logger(ctx).Errorf("Cannot decrease remaining supply: %v", err)
		return nil, errorx.Unknown
	}

	claim := &entity.Claim{
		Base:              entity.Base{ID: uuid.NewString()},
		EventID:           req.EventID,
		Nullifier:         req.NullifierHash,
		UserID:            xcontext.RequestUserID(ctx),
		WalletAddress:     req.WalletAddress,
		MerkleRoot:        req.MerkleRoot,
		VerificationLevel: req.VerificationLevel,
		RewardID:          reward.ID,
		Status:            entity.ClaimReserved,
	}

	if previous != nil {
		claim.Base.ID = previous.ID
	}

	if reward.TokenStandard == entity.TokenStandardERC721 {
		tokenID, err := d.rewardRepo.AllocateTokenID(ctx, reward.ID, claim.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.RewardExhausted,
					"No token left in the reward pool")
			}

			xcontext.Logger(ctx).Errorf("Cannot allocate a token id: %v", err)
			return nil, errorx.Unknown
		}

		claim.TokenID = tokenID
	}

	if previous != nil {
		if err := d.claimRepo.ReReserve(ctx, previous.ID, claim); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.AlreadyClaimed,
					"This identity has already claimed the reward of this event")
			}

			xcontext.Logger(ctx).Errorf("Cannot take over the rolled back claim: %v", err)
			return nil, errorx.Unknown
		}
	} else {
		if err := d.claimRepo.Create(ctx, claim); err != nil {
			// The unique index on (event_id, nullifier) is the only
			// constraint which can reject this insert.
			xcontext.Logger(ctx).Debugf("Cannot create claim: %v", err)
			return nil, errorx.New(errorx.AlreadyClaimed,
				"This identity has already claimed the reward of this event")
		}
	}

	xcontext.WithCommitDBTransaction(ctx)
	return claim, nil
}

func (d *claimDomain) dispatch(
	ctx context.Context, claim *entity.Claim, reward *entity.Reward,
) (*model.ClaimRewardResponse, error) {
	txID, result, err := d.blockchainManager.TransferReward(
		ctx, reward, claim.TokenID, claim.WalletAddress)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot build the transfer transaction: %v", err)
		d.rollBack(ctx, claim, reward)
		return nil, errorx.New(errorx.DispatchFailed, "Cannot transfer the reward")
	}

	switch result.Err {
	case types.ErrNil:
		return d.commit(ctx, claim, reward, txID, result.TxHash)

	case types.ErrUnknownOutcome:
		if err := d.claimRepo.MarkFailed(ctx, claim.ID, txID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot mark claim as failed: %v", err)
			return nil, errorx.Unknown
		}

		common.PromCounters[common.ClaimsTotal].WithLabelValues("failed").Inc()
		return &model.ClaimRewardResponse{
			ID:      claim.ID,
			Status:  string(entity.ClaimFailed),
			TokenID: claim.TokenID,
			TxHash:  result.TxHash,
		}, nil

	default:
		d.rollBack(ctx, claim, reward)
		if result.Err.Transient() {
			return nil, errorx.New(errorx.DispatchFailedRetryable,
				"Cannot transfer the reward, please try again")
		}

		return nil, errorx.New(errorx.DispatchFailed, "Cannot transfer the reward")
	}
}

func (d *claimDomain) commit(
	ctx context.Context, claim *entity.Claim, reward *entity.Reward, txID, txHash string,
) (*model.ClaimRewardResponse, error) {
	if err := d.claimRepo.Commit(ctx, claim.ID, txID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit claim: %v", err)
		return nil, errorx.Unknown
	}

	if d.redisClient != nil {
		err := d.redisClient.Set(
			ctx, common.RedisKeyClaimedNullifier(claim.EventID, claim.Nullifier), claim.ID, 0)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot cache the claimed nullifier: %v", err)
		}
	}

	d.publishClaimEvent(ctx, claim, reward, txHash)
	common.PromCounters[common.ClaimsTotal].WithLabelValues("committed").Inc()

	return &model.ClaimRewardResponse{
		ID:      claim.ID,
		Status:  string(entity.ClaimCommitted),
		TokenID: claim.TokenID,
		TxHash:  txHash,
	}, nil
}

// rollBack returns the supply unit, frees the pooled token, and releases
// the nullifier for another attempt.
func (d *claimDomain) rollBack(ctx context.Context, claim *entity.Claim, reward *entity.Reward) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.claimRepo.RollBack(ctx, claim.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot roll back claim: %v", err)
		return
	}

	if err := d.rewardRepo.IncreaseSupply(ctx, reward.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot return the supply unit: %v", err)
		return
	}

	if reward.TokenStandard == entity.TokenStandardERC721 {
		if err := d.rewardRepo.ReleaseTokenID(ctx, claim.ID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot release the token id: %v", err)
			return
		}
	}

	common.PromCounters[common.ClaimsTotal].WithLabelValues("rolled_back").Inc()
	xcontext.WithCommitDBTransaction(ctx)
}

func (d *claimDomain) verifyWalletBinding(ctx context.Context, req *model.ClaimRewardRequest) error {
	if !xcontext.Configs(ctx).Claim.RequireWalletSignature {
		return nil
	}

	signal := ethutil.SignalHash(req.EventID, req.WalletAddress)
	if err := ethutil.VerifyPersonalSign(req.WalletAddress, signal, req.WalletSignature); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot verify wallet signature: %v", err)
		return errorx.New(errorx.SignalMismatch,
			"The destination wallet did not sign this claim")
	}

	return nil
}

func (d *claimDomain) publishClaimEvent(
	ctx context.Context, claim *entity.Claim, reward *entity.Reward, txHash string,
) {
	if d.publisher == nil {
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

	err = d.publisher.Publish(ctx, model.ClaimEventsTopic, &pubsub.Pack{
		Key: []byte(claim.ID),
		Msg: payload,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish claim event: %v", err)
	}
}

func (d *claimDomain) Get(
	ctx context.Context, req *model.GetClaimRequest,
) (*model.GetClaimResponse, error) {
	claim, err := d.claimRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found claim")
		}

		xcontext.Logger(ctx).Errorf("Cannot get claim: %v", err)
		return nil, errorx.Unknown
	}

	if claim.UserID != xcontext.RequestUserID(ctx) {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	var tx *entity.BlockchainTransaction
	if claim.TransactionID != "" {
		tx, err = d.blockchainRepo.GetTransactionByID(ctx, claim.TransactionID)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot get transaction of claim: %v", err)
		}
	}

	resp := model.GetClaimResponse(model.ConvertClaim(claim, tx))
	return &resp, nil
}

func (d *claimDomain) GetMyClaims(
	ctx context.Context, req *model.GetMyClaimsRequest,
) (*model.GetMyClaimsResponse, error) {
	if req.Limit == 0 {
		req.Limit = xcontext.Configs(ctx).ApiServer.DefaultLimit
	}

	if req.Limit > xcontext.Configs(ctx).ApiServer.MaxLimit {
		return nil, errorx.New(errorx.BadRequest, "Exceed the maximum of limit")
	}

	claims, err := d.claimRepo.GetByUserID(ctx, xcontext.RequestUserID(ctx), req.Offset, req.Limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get claims: %v", err)
		return nil, errorx.Unknown
	}

	modelClaims := []model.Claim{}
	for i := range claims {
		var tx *entity.BlockchainTransaction
		if claims[i].TransactionID != "" {
			tx, err = d.blockchainRepo.GetTransactionByID(ctx, claims[i].TransactionID)
			if err != nil {
				xcontext.Logger(ctx).Warnf("Cannot get transaction of claim: %v", err)
			}
		}

		modelClaims = append(modelClaims, model.ConvertClaim(&claims[i], tx))
	}

	return &model.GetMyClaimsResponse{Claims: modelClaims}, nil
}
