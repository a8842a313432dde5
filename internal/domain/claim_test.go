package domain

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/proofdrop-lab/backend/internal/domain/blockchain/types"
	"github.com/proofdrop-lab/backend/internal/domain/proof"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/model"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/api/worldid"
	"github.com/proofdrop-lab/backend/pkg/errorx"
	"github.com/proofdrop-lab/backend/pkg/ethutil"
	"github.com/proofdrop-lab/backend/pkg/pubsub"
	"github.com/proofdrop-lab/backend/pkg/testutil"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const testWallet = "0x1111111111111111111111111111111111111111"

func newTestClaimDomain(
	endpoint worldid.IEndpoint,
	manager *testutil.MockTransferManager,
	publisher pubsub.Publisher,
) ClaimDomain {
	return NewClaimDomain(
		repository.NewClaimRepository(),
		repository.NewRewardRepository(),
		repository.NewEventRepository(),
		repository.NewBlockChainRepository(),
		proof.NewVerifier(endpoint),
		manager,
		publisher,
		&testutil.MockRedisClient{},
	)
}

func claimRequest(eventID, nullifier string) *model.ClaimRewardRequest {
	return &model.ClaimRewardRequest{
		EventID:           eventID,
		WalletAddress:     testWallet,
		NullifierHash:     nullifier,
		MerkleRoot:        "0x" + uuid.NewString(),
		Proof:             "0x" + uuid.NewString(),
		VerificationLevel: "orb",
	}
}

func Test_claimDomain_Claim_ERC20(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	event, err := testutil.SampleEvent(ctx, nil)
	require.NoError(t, err)
	reward, err := testutil.SampleReward(ctx, &entity.Reward{
		EventID:         event.ID,
		TotalSupply:     2,
		RemainingSupply: 2,
	})
	require.NoError(t, err)

	publishedTopics := []string{}
	d := newTestClaimDomain(
		&worldid.MockEndpoint{},
		&testutil.MockTransferManager{},
		&testutil.MockPublisher{
			PublishFunc: func(ctx context.Context, topic string, pack *pubsub.Pack) error {
				publishedTopics = append(publishedTopics, topic)
				return nil
			},
		},
	)

	authorizedCtx := xcontext.WithRequestUserID(ctx, user.ID)
	resp, err := d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier1"))
	require.NoError(t, err)
	require.Equal(t, "committed", resp.Status)
	require.NotEmpty(t, resp.TxHash)
	require.Equal(t, []string{model.ClaimEventsTopic}, publishedTopics)

	claim, err := repository.NewClaimRepository().
		GetByEventNullifier(ctx, event.ID, "0xnullifier1")
	require.NoError(t, err)
	require.Equal(t, entity.ClaimCommitted, claim.Status)
	require.Equal(t, user.ID, claim.UserID)
	require.NotEmpty(t, claim.TransactionID)

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.RemainingSupply)

	// The same identity cannot claim again, even with another wallet.
	req := claimRequest(event.ID, "0xnullifier1")
	req.WalletAddress = "0x2222222222222222222222222222222222222222"
	_, err = d.Claim(authorizedCtx, req)
	require.Error(t, err)
	require.Equal(t, "This identity has already claimed the reward of this event", err.Error())

	// Another identity still can.
	resp, err = d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier2"))
	require.NoError(t, err)
	require.Equal(t, "committed", resp.Status)
}

func Test_claimDomain_Claim_EventClosed(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	event, err := testutil.SampleEvent(ctx, &entity.Event{
		StartedAt: time.Now().Add(-2 * time.Hour),
		EndedAt:   time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = testutil.SampleReward(ctx, &entity.Reward{EventID: event.ID})
	require.NoError(t, err)

	verified := false
	d := newTestClaimDomain(
		&worldid.MockEndpoint{
			VerifyFunc: func(context.Context, string, worldid.Proof) (worldid.VerifyResult, error) {
				verified = true
				return worldid.VerifyResult{Success: true}, nil
			},
		},
		&testutil.MockTransferManager{},
		&testutil.MockPublisher{},
	)

	authorizedCtx := xcontext.WithRequestUserID(ctx, user.ID)
	_, err = d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier1"))
	require.Error(t, err)
	require.Equal(t, "This event is not open for claims", err.Error())

	// A closed event never reaches proof verification.
	require.False(t, verified)
}

func Test_claimDomain_Claim_RewardExhausted(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	event, err := testutil.SampleEvent(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleReward(ctx, &entity.Reward{
		EventID:         event.ID,
		TotalSupply:     1,
		RemainingSupply: 1,
	})
	require.NoError(t, err)

	d := newTestClaimDomain(
		&worldid.MockEndpoint{}, &testutil.MockTransferManager{}, &testutil.MockPublisher{})

	authorizedCtx := xcontext.WithRequestUserID(ctx, user.ID)
	_, err = d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier1"))
	require.NoError(t, err)

	_, err = d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier2"))
	require.Error(t, err)
	require.Equal(t, "The reward of this event is exhausted", err.Error())
}

func Test_claimDomain_Claim_RollBackFreesNullifier(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	event, err := testutil.SampleEvent(ctx, nil)
	require.NoError(t, err)
	reward, err := testutil.SampleReward(ctx, &entity.Reward{
		EventID:         event.ID,
		TotalSupply:     1,
		RemainingSupply: 1,
	})
	require.NoError(t, err)

	manager := &testutil.MockTransferManager{
		TransferRewardFunc: func(
			ctx context.Context, reward *entity.Reward, tokenID int64, recipient string,
		) (string, *types.DispatchedTxResult, error) {
			return "", &types.DispatchedTxResult{Err: types.ErrSubmitTx}, nil
		},
	}
	d := newTestClaimDomain(&worldid.MockEndpoint{}, manager, &testutil.MockPublisher{})

	authorizedCtx := xcontext.WithRequestUserID(ctx, user.ID)
	_, err = d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier1"))
	require.Error(t, err)
	require.Equal(t, "Cannot transfer the reward, please try again", err.Error())

	// A transient failure carries its own code so clients know a retry
	// makes sense.
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.DispatchFailedRetryable, errx.Code)

	claim, err := repository.NewClaimRepository().
		GetByEventNullifier(ctx, event.ID, "0xnullifier1")
	require.NoError(t, err)
	require.Equal(t, entity.ClaimRolledBack, claim.Status)

	// The supply unit came back with the rollback.
	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.RemainingSupply)

	// The identity retries and takes over its rolled back row.
	manager.TransferRewardFunc = nil
	resp, err := d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier1"))
	require.NoError(t, err)
	require.Equal(t, "committed", resp.Status)
	require.Equal(t, claim.ID, resp.ID)
}

func Test_claimDomain_Claim_UnknownOutcome(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	event, err := testutil.SampleEvent(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleReward(ctx, &entity.Reward{EventID: event.ID})
	require.NoError(t, err)

	manager := &testutil.MockTransferManager{
		TransferRewardFunc: func(
			ctx context.Context, reward *entity.Reward, tokenID int64, recipient string,
		) (string, *types.DispatchedTxResult, error) {
			return uuid.NewString(), &types.DispatchedTxResult{
				Err:    types.ErrUnknownOutcome,
				TxHash: "0xpending",
			}, nil
		},
	}
	d := newTestClaimDomain(&worldid.MockEndpoint{}, manager, &testutil.MockPublisher{})

	authorizedCtx := xcontext.WithRequestUserID(ctx, user.ID)
	resp, err := d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier1"))
	require.NoError(t, err)
	require.Equal(t, "failed", resp.Status)
	require.Equal(t, "0xpending", resp.TxHash)

	// The nullifier stays held until the reconciler decides the outcome.
	_, err = d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier1"))
	require.Error(t, err)
	require.Equal(t,
		"A previous claim of this identity is waiting for its on-chain outcome", err.Error())
}

func Test_claimDomain_Claim_ProofRejected(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	event, err := testutil.SampleEvent(ctx, nil)
	require.NoError(t, err)
	reward, err := testutil.SampleReward(ctx, &entity.Reward{EventID: event.ID})
	require.NoError(t, err)

	d := newTestClaimDomain(
		&worldid.MockEndpoint{
			VerifyFunc: func(context.Context, string, worldid.Proof) (worldid.VerifyResult, error) {
				return worldid.VerifyResult{Success: false, Code: "invalid_proof"}, nil
			},
		},
		&testutil.MockTransferManager{},
		&testutil.MockPublisher{},
	)

	authorizedCtx := xcontext.WithRequestUserID(ctx, user.ID)
	_, err = d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier1"))
	require.Error(t, err)
	require.Equal(t, "The provided proof is invalid", err.Error())

	// No reservation happened.
	_, err = repository.NewClaimRepository().GetByEventNullifier(ctx, event.ID, "0xnullifier1")
	require.Error(t, err)

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.Equal(t, reward.RemainingSupply, got.RemainingSupply)
}

func Test_claimDomain_Claim_ERC721Pool(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	event, err := testutil.SampleEvent(ctx, nil)
	require.NoError(t, err)
	reward, err := testutil.SampleReward(ctx, &entity.Reward{
		EventID:         event.ID,
		TokenStandard:   entity.TokenStandardERC721,
		TotalSupply:     2,
		RemainingSupply: 2,
	})
	require.NoError(t, err)

	rewardRepo := repository.NewRewardRepository()
	require.NoError(t, rewardRepo.CreateTokenIDs(ctx, reward.ID, []int64{7, 9}))

	d := newTestClaimDomain(
		&worldid.MockEndpoint{}, &testutil.MockTransferManager{}, &testutil.MockPublisher{})

	authorizedCtx := xcontext.WithRequestUserID(ctx, user.ID)
	resp, err := d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier1"))
	require.NoError(t, err)
	require.Equal(t, int64(7), resp.TokenID)

	resp, err = d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier2"))
	require.NoError(t, err)
	require.Equal(t, int64(9), resp.TokenID)

	_, err = d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier3"))
	require.Error(t, err)
	require.Equal(t, "The reward of this event is exhausted", err.Error())
}

func Test_claimDomain_Claim_WalletSignatureRequired(t *testing.T) {
	ctx := testutil.MockContext()
	cfg := xcontext.Configs(ctx)
	cfg.Claim.RequireWalletSignature = true
	ctx = xcontext.WithConfigs(ctx, cfg)

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	event, err := testutil.SampleEvent(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleReward(ctx, &entity.Reward{EventID: event.ID})
	require.NoError(t, err)

	d := newTestClaimDomain(
		&worldid.MockEndpoint{}, &testutil.MockTransferManager{}, &testutil.MockPublisher{})

	authorizedCtx := xcontext.WithRequestUserID(ctx, user.ID)
	req := claimRequest(event.ID, "0xnullifier1")
	req.WalletSignature = "0xinvalid"
	_, err = d.Claim(authorizedCtx, req)
	require.Error(t, err)
	require.Equal(t, "The destination wallet did not sign this claim", err.Error())

	// A signature from the destination wallet passes.
	privateKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	wallet := ethcrypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	req = claimRequest(event.ID, "0xnullifier1")
	req.WalletAddress = wallet

	signal := ethutil.SignalHash(event.ID, wallet)
	hash := ethcrypto.Keccak256(
		[]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(signal), signal)))
	signature, err := ethcrypto.Sign(hash, privateKey)
	require.NoError(t, err)
	req.WalletSignature = hexutil.Encode(signature)

	resp, err := d.Claim(authorizedCtx, req)
	require.NoError(t, err)
	require.Equal(t, "committed", resp.Status)
}

func Test_claimDomain_Claim_StructuralDispatchFailure(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	event, err := testutil.SampleEvent(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleReward(ctx, &entity.Reward{
		EventID:         event.ID,
		TotalSupply:     1,
		RemainingSupply: 1,
	})
	require.NoError(t, err)

	manager := &testutil.MockTransferManager{
		TransferRewardFunc: func(
			ctx context.Context, reward *entity.Reward, tokenID int64, recipient string,
		) (string, *types.DispatchedTxResult, error) {
			return "", &types.DispatchedTxResult{Err: types.ErrNotEnoughBalance}, nil
		},
	}
	d := newTestClaimDomain(&worldid.MockEndpoint{}, manager, &testutil.MockPublisher{})

	authorizedCtx := xcontext.WithRequestUserID(ctx, user.ID)
	_, err = d.Claim(authorizedCtx, claimRequest(event.ID, "0xnullifier1"))
	require.Error(t, err)
	require.Equal(t, "Cannot transfer the reward", err.Error())

	// An empty treasury does not clear on retry, the code says so.
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.DispatchFailed, errx.Code)
}

func Test_claimDomain_Claim_ConcurrentSameNullifier(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	event, err := testutil.SampleEvent(ctx, nil)
	require.NoError(t, err)
	reward, err := testutil.SampleReward(ctx, &entity.Reward{
		EventID:         event.ID,
		TotalSupply:     10,
		RemainingSupply: 10,
	})
	require.NoError(t, err)

	d := newTestClaimDomain(
		&worldid.MockEndpoint{}, &testutil.MockTransferManager{}, &testutil.MockPublisher{})
	authorizedCtx := xcontext.WithRequestUserID(ctx, user.ID)

	// One identity claims from four wallets at once. Exactly one claim
	// may commit, no matter how the requests interleave.
	var mutex sync.Mutex
	committed := 0

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		wallet := fmt.Sprintf("0x%040x", i+1)
		g.Go(func() error {
			req := claimRequest(event.ID, "0xracing-nullifier")
			req.WalletAddress = wallet

			_, err := d.Claim(authorizedCtx, req)
			if err != nil {
				if err.Error() != "This identity has already claimed the reward of this event" {
					return err
				}

				return nil
			}

			mutex.Lock()
			committed++
			mutex.Unlock()
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Equal(t, 1, committed)

	count, err := repository.NewClaimRepository().CountCommittedByEventID(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	// The losers returned their supply units.
	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.Equal(t, int64(9), got.RemainingSupply)
}
