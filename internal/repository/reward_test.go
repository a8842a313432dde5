package repository_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func Test_rewardRepository_SupplyCounters(t *testing.T) {
	ctx := testutil.MockContext()
	repo := repository.NewRewardRepository()

	reward, err := testutil.SampleReward(ctx, &entity.Reward{
		TotalSupply:     2,
		RemainingSupply: 2,
	})
	require.NoError(t, err)

	require.NoError(t, repo.CheckAndDecreaseSupply(ctx, reward.ID))
	require.NoError(t, repo.CheckAndDecreaseSupply(ctx, reward.ID))

	// The third unit does not exist.
	require.ErrorIs(t, repo.CheckAndDecreaseSupply(ctx, reward.ID), gorm.ErrRecordNotFound)

	require.NoError(t, repo.IncreaseSupply(ctx, reward.ID))
	require.NoError(t, repo.CheckAndDecreaseSupply(ctx, reward.ID))

	got, err := repo.GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), got.RemainingSupply)
}

func Test_rewardRepository_IncreaseSupplyNeverExceedsTotal(t *testing.T) {
	ctx := testutil.MockContext()
	repo := repository.NewRewardRepository()

	reward, err := testutil.SampleReward(ctx, &entity.Reward{
		TotalSupply:     1,
		RemainingSupply: 1,
	})
	require.NoError(t, err)

	require.ErrorIs(t, repo.IncreaseSupply(ctx, reward.ID), gorm.ErrRecordNotFound)
}

func Test_rewardRepository_TokenPool(t *testing.T) {
	ctx := testutil.MockContext()
	repo := repository.NewRewardRepository()

	reward, err := testutil.SampleReward(ctx, &entity.Reward{
		TokenStandard:   entity.TokenStandardERC721,
		TotalSupply:     3,
		RemainingSupply: 3,
	})
	require.NoError(t, err)
	require.NoError(t, repo.CreateTokenIDs(ctx, reward.ID, []int64{5, 3, 8}))

	// The lowest free token goes first.
	tokenID, err := repo.AllocateTokenID(ctx, reward.ID, "claim1")
	require.NoError(t, err)
	require.Equal(t, int64(3), tokenID)

	tokenID, err = repo.AllocateTokenID(ctx, reward.ID, "claim2")
	require.NoError(t, err)
	require.Equal(t, int64(5), tokenID)

	free, err := repo.CountFreeTokenIDs(ctx, reward.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), free)

	record, err := repo.GetTokenIDByClaimID(ctx, "claim1")
	require.NoError(t, err)
	require.Equal(t, int64(3), record.TokenID)

	// A released token returns to the pool.
	require.NoError(t, repo.ReleaseTokenID(ctx, "claim1"))

	tokenID, err = repo.AllocateTokenID(ctx, reward.ID, "claim3")
	require.NoError(t, err)
	require.Equal(t, int64(3), tokenID)

	tokenID, err = repo.AllocateTokenID(ctx, reward.ID, "claim4")
	require.NoError(t, err)
	require.Equal(t, int64(8), tokenID)

	// The pool is empty now.
	_, err = repo.AllocateTokenID(ctx, reward.ID, "claim5")
	require.Error(t, err)
}

func Test_rewardRepository_TokenPool_ConcurrentAllocation(t *testing.T) {
	ctx := testutil.MockContext()
	repo := repository.NewRewardRepository()

	reward, err := testutil.SampleReward(ctx, &entity.Reward{
		TokenStandard:   entity.TokenStandardERC721,
		TotalSupply:     3,
		RemainingSupply: 3,
	})
	require.NoError(t, err)
	require.NoError(t, repo.CreateTokenIDs(ctx, reward.ID, []int64{5, 6, 7}))

	// Three claims race for the pool, every token must end up with
	// exactly one owner.
	var mutex sync.Mutex
	allocated := map[int64]string{}

	var g errgroup.Group
	for i := 0; i < 3; i++ {
		claimID := fmt.Sprintf("claim%d", i+1)
		g.Go(func() error {
			tokenID, err := repo.AllocateTokenID(ctx, reward.ID, claimID)
			if err != nil {
				return err
			}

			mutex.Lock()
			defer mutex.Unlock()
			if owner, ok := allocated[tokenID]; ok {
				return fmt.Errorf("token %d assigned to both %s and %s", tokenID, owner, claimID)
			}

			allocated[tokenID] = claimID
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Len(t, allocated, 3)

	// The pool is drained.
	_, err = repo.AllocateTokenID(ctx, reward.ID, "claim4")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
