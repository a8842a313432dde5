package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/model"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/testutil"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestEventDomain() EventDomain {
	return NewEventDomain(
		repository.NewEventRepository(),
		repository.NewRewardRepository(),
		repository.NewBlockChainRepository(),
		repository.NewUserRepository(),
	)
}

func createEventRequest() *model.CreateEventRequest {
	return &model.CreateEventRequest{
		Name:          uuid.NewString(),
		StartedAt:     time.Now().Format(model.DefaultTimeLayout),
		EndedAt:       time.Now().Add(time.Hour).Format(model.DefaultTimeLayout),
		Chain:         "eth",
		TokenStandard: "erc721",
		TokenAddress:  "0x" + uuid.NewString(),
		TotalSupply:   2,
		TokenIDs:      []int64{1, 2},
	}
}

func Test_eventDomain_Create(t *testing.T) {
	ctx := testutil.MockContext()
	admin, err := testutil.SampleUser(ctx, &entity.User{Role: entity.AdminRole})
	require.NoError(t, err)

	require.NoError(t, repository.NewBlockChainRepository().
		Upsert(ctx, &entity.Blockchain{Name: "eth", ID: 1}))

	d := newTestEventDomain()

	adminCtx := xcontext.WithRequestUserID(ctx, admin.ID)
	resp, err := d.Create(adminCtx, createEventRequest())
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)

	got, err := d.Get(ctx, &model.GetEventRequest{ID: resp.ID})
	require.NoError(t, err)
	require.True(t, got.Active)
	require.NotNil(t, got.Reward)
	require.Equal(t, "erc721", got.Reward.TokenStandard)
	require.Equal(t, int64(2), got.Reward.RemainingSupply)

	// The erc721 pool was filled.
	free, err := repository.NewRewardRepository().CountFreeTokenIDs(ctx, got.Reward.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), free)
}

func Test_eventDomain_Create_Permission(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	d := newTestEventDomain()

	userCtx := xcontext.WithRequestUserID(ctx, user.ID)
	_, err = d.Create(userCtx, createEventRequest())
	require.Error(t, err)
	require.Equal(t, "Permission denied", err.Error())
}

func Test_eventDomain_Create_Validation(t *testing.T) {
	ctx := testutil.MockContext()
	admin, err := testutil.SampleUser(ctx, &entity.User{Role: entity.AdminRole})
	require.NoError(t, err)

	require.NoError(t, repository.NewBlockChainRepository().
		Upsert(ctx, &entity.Blockchain{Name: "eth", ID: 1}))

	d := newTestEventDomain()
	adminCtx := xcontext.WithRequestUserID(ctx, admin.ID)

	// The pool must cover the whole supply.
	req := createEventRequest()
	req.TokenIDs = []int64{1}
	_, err = d.Create(adminCtx, req)
	require.Error(t, err)
	require.Equal(t, "Token ids must match the total supply", err.Error())

	// An erc20 reward requires a registered token.
	req = createEventRequest()
	req.TokenStandard = "erc20"
	req.Amount = 10
	_, err = d.Create(adminCtx, req)
	require.Error(t, err)
	require.Equal(t, "The token has not been registered on chain eth", err.Error())

	// Unknown chains are rejected.
	req = createEventRequest()
	req.Chain = "unknown"
	_, err = d.Create(adminCtx, req)
	require.Error(t, err)
	require.Equal(t, "Unsupported chain unknown", err.Error())

	// The event cannot end before it starts.
	req = createEventRequest()
	req.EndedAt = time.Now().Add(-time.Hour).Format(model.DefaultTimeLayout)
	_, err = d.Create(adminCtx, req)
	require.Error(t, err)
	require.Equal(t, "The event must end after it starts", err.Error())
}

func Test_eventDomain_UpdateAndDelete(t *testing.T) {
	ctx := testutil.MockContext()
	admin, err := testutil.SampleUser(ctx, &entity.User{Role: entity.AdminRole})
	require.NoError(t, err)

	require.NoError(t, repository.NewBlockChainRepository().
		Upsert(ctx, &entity.Blockchain{Name: "eth", ID: 1}))

	d := newTestEventDomain()
	adminCtx := xcontext.WithRequestUserID(ctx, admin.ID)

	resp, err := d.Create(adminCtx, createEventRequest())
	require.NoError(t, err)

	// Another admin does not own this event.
	otherAdmin, err := testutil.SampleUser(ctx, &entity.User{Role: entity.AdminRole})
	require.NoError(t, err)

	inactive := false
	otherCtx := xcontext.WithRequestUserID(ctx, otherAdmin.ID)
	_, err = d.Update(otherCtx, &model.UpdateEventRequest{ID: resp.ID, Active: &inactive})
	require.Error(t, err)
	require.Equal(t, "Permission denied", err.Error())

	_, err = d.Update(adminCtx, &model.UpdateEventRequest{ID: resp.ID, Active: &inactive})
	require.NoError(t, err)

	got, err := d.Get(ctx, &model.GetEventRequest{ID: resp.ID})
	require.NoError(t, err)
	require.False(t, got.Active)

	_, err = d.Delete(adminCtx, &model.DeleteEventRequest{ID: resp.ID})
	require.NoError(t, err)

	_, err = d.Get(ctx, &model.GetEventRequest{ID: resp.ID})
	require.Error(t, err)
	require.Equal(t, "Not found event", err.Error())
}
