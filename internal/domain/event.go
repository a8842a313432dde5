package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/proofdrop-lab/backend/internal/common"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/model"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/enum"
	"github.com/proofdrop-lab/backend/pkg/errorx"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type EventDomain interface {
	Create(context.Context, *model.CreateEventRequest) (*model.CreateEventResponse, error)
	Get(context.Context, *model.GetEventRequest) (*model.GetEventResponse, error)
	GetList(context.Context, *model.GetEventsRequest) (*model.GetEventsResponse, error)
	Update(context.Context, *model.UpdateEventRequest) (*model.UpdateEventResponse, error)
	Delete(context.Context, *model.DeleteEventRequest) (*model.DeleteEventResponse, error)
}

type eventDomain struct {
	eventRepo          repository.EventRepository
	rewardRepo         repository.RewardRepository
	blockchainRepo     repository.BlockChainRepository
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewEventDomain(
	eventRepo repository.EventRepository,
	rewardRepo repository.RewardRepository,
	blockchainRepo repository.BlockChainRepository,
	userRepo repository.UserRepository,
) EventDomain {
	return &eventDomain{
		eventRepo:          eventRepo,
		rewardRepo:         rewardRepo,
		blockchainRepo:     blockchainRepo,
		globalRoleVerifier: common.NewGlobalRoleVerifier(userRepo),
	}
}

func (d *eventDomain) Create(
	ctx context.Context, req *model.CreateEventRequest,
) (*model.CreateEventResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.SuperAdminRole, entity.AdminRole); err != nil {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty event name")
	}

	startedAt, err := time.Parse(model.DefaultTimeLayout, req.StartedAt)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid started_at")
	}

	endedAt, err := time.Parse(model.DefaultTimeLayout, req.EndedAt)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid ended_at")
	}

	if !endedAt.After(startedAt) {
		return nil, errorx.New(errorx.BadRequest, "The event must end after it starts")
	}

	tokenStandard, err := enum.ToEnum[entity.TokenStandard](req.TokenStandard)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid token standard %s", req.TokenStandard)
	}

	if req.TotalSupply <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Total supply must be positive")
	}

	if err := d.blockchainRepo.Check(ctx, req.Chain); err != nil {
		return nil, errorx.New(errorx.NotFound, "Unsupported chain %s", req.Chain)
	}

	switch tokenStandard {
	case entity.TokenStandardERC20:
		if req.Amount <= 0 {
			return nil, errorx.New(errorx.BadRequest, "Amount must be positive")
		}

		_, err := d.blockchainRepo.GetToken(ctx, req.Chain, req.TokenAddress)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.NotFound,
					"The token has not been registered on chain %s", req.Chain)
			}

			xcontext.Logger(ctx).Errorf("Cannot get token: %v", err)
			return nil, errorx.Unknown
		}

	case entity.TokenStandardERC721:
		if int64(len(req.TokenIDs)) != req.TotalSupply {
			return nil, errorx.New(errorx.BadRequest,
				"Token ids must match the total supply")
		}

	case entity.TokenStandardERC1155:
		if req.Amount <= 0 {
			return nil, errorx.New(errorx.BadRequest, "Amount must be positive")
		}
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	event := &entity.Event{
		Base:        entity.Base{ID: uuid.NewString()},
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   xcontext.RequestUserID(ctx),
		StartedAt:   startedAt,
		EndedAt:     endedAt,
		Active:      true,
	}

	if err := d.eventRepo.Create(ctx, event); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create event: %v", err)
		return nil, errorx.Unknown
	}

	reward := &entity.Reward{
		Base:            entity.Base{ID: uuid.NewString()},
		EventID:         event.ID,
		Chain:           req.Chain,
		TokenStandard:   tokenStandard,
		TokenAddress:    req.TokenAddress,
		Amount:          req.Amount,
		TokenID:         req.TokenID,
		TotalSupply:     req.TotalSupply,
		RemainingSupply: req.TotalSupply,
	}

	if err := d.rewardRepo.Create(ctx, reward); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create reward: %v", err)
		return nil, errorx.Unknown
	}

	if tokenStandard == entity.TokenStandardERC721 {
		if err := d.rewardRepo.CreateTokenIDs(ctx, reward.ID, req.TokenIDs); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create reward token ids: %v", err)
			return nil, errorx.Unknown
		}
	}

	xcontext.WithCommitDBTransaction(ctx)
	return &model.CreateEventResponse{ID: event.ID}, nil
}

func (d *eventDomain) Get(
	ctx context.Context, req *model.GetEventRequest,
) (*model.GetEventResponse, error) {
	event, err := d.eventRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found event")
		}

		xcontext.Logger(ctx).Errorf("Cannot get event: %v", err)
		return nil, errorx.Unknown
	}

	reward, err := d.rewardRepo.GetByEventID(ctx, event.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward of event: %v", err)
		return nil, errorx.Unknown
	}

	resp := model.GetEventResponse(model.ConvertEvent(event, reward))
	return &resp, nil
}

func (d *eventDomain) GetList(
	ctx context.Context, req *model.GetEventsRequest,
) (*model.GetEventsResponse, error) {
	if req.Limit == 0 {
		req.Limit = xcontext.Configs(ctx).ApiServer.DefaultLimit
	}

	if req.Limit > xcontext.Configs(ctx).ApiServer.MaxLimit {
		return nil, errorx.New(errorx.BadRequest, "Exceed the maximum of limit")
	}

	events, err := d.eventRepo.GetList(ctx, req.Offset, req.Limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get list of events: %v", err)
		return nil, errorx.Unknown
	}

	modelEvents := []model.Event{}
	for i := range events {
		reward, err := d.rewardRepo.GetByEventID(ctx, events[i].ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get reward of event %s: %v", events[i].ID, err)
			return nil, errorx.Unknown
		}

		modelEvents = append(modelEvents, model.ConvertEvent(&events[i], reward))
	}

	return &model.GetEventsResponse{Events: modelEvents}, nil
}

func (d *eventDomain) Update(
	ctx context.Context, req *model.UpdateEventRequest,
) (*model.UpdateEventResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.SuperAdminRole, entity.AdminRole); err != nil {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	event, err := d.eventRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found event")
		}

		xcontext.Logger(ctx).Errorf("Cannot get event: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.verifyOwner(ctx, event); err != nil {
		return nil, err
	}

	updateMap := map[string]any{}
	if req.Description != "" {
		updateMap["description"] = req.Description
	}

	if req.StartedAt != "" {
		startedAt, err := time.Parse(model.DefaultTimeLayout, req.StartedAt)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid started_at")
		}

		updateMap["started_at"] = startedAt
	}

	if req.EndedAt != "" {
		endedAt, err := time.Parse(model.DefaultTimeLayout, req.EndedAt)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid ended_at")
		}

		updateMap["ended_at"] = endedAt
	}

	if req.Active != nil {
		updateMap["active"] = *req.Active
	}

	if len(updateMap) == 0 {
		return &model.UpdateEventResponse{}, nil
	}

	if err := d.eventRepo.UpdateByID(ctx, req.ID, updateMap); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update event: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UpdateEventResponse{}, nil
}

func (d *eventDomain) Delete(
	ctx context.Context, req *model.DeleteEventRequest,
) (*model.DeleteEventResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.SuperAdminRole, entity.AdminRole); err != nil {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	event, err := d.eventRepo.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found event")
		}

		xcontext.Logger(ctx).Errorf("Cannot get event: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.verifyOwner(ctx, event); err != nil {
		return nil, err
	}

	if err := d.eventRepo.DeleteByID(ctx, req.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete event: %v", err)
		return nil, errorx.Unknown
	}

	return &model.DeleteEventResponse{}, nil
}

// verifyOwner allows mutations only by the event creator, the super
// admin can override.
func (d *eventDomain) verifyOwner(ctx context.Context, event *entity.Event) error {
	if event.CreatedBy == xcontext.RequestUserID(ctx) {
		return nil
	}

	if err := d.globalRoleVerifier.Verify(ctx, entity.SuperAdminRole); err != nil {
		return errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	return nil
}
