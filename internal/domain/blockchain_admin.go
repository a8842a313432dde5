package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/proofdrop-lab/backend/internal/common"
	"github.com/proofdrop-lab/backend/internal/domain/blockchain"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/model"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/enum"
	"github.com/proofdrop-lab/backend/pkg/errorx"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type BlockchainDomain interface {
	CreateBlockchain(context.Context, *model.CreateBlockchainRequest) (*model.CreateBlockchainResponse, error)
	CreateConnection(context.Context, *model.CreateBlockchainConnectionRequest) (*model.CreateBlockchainConnectionResponse, error)
	CreateToken(context.Context, *model.CreateBlockchainTokenRequest) (*model.CreateBlockchainTokenResponse, error)
}

type blockchainDomain struct {
	blockchainRepo     repository.BlockChainRepository
	blockchainManager  *blockchain.Manager
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewBlockchainDomain(
	blockchainRepo repository.BlockChainRepository,
	blockchainManager *blockchain.Manager,
	userRepo repository.UserRepository,
) BlockchainDomain {
	return &blockchainDomain{
		blockchainRepo:     blockchainRepo,
		blockchainManager:  blockchainManager,
		globalRoleVerifier: common.NewGlobalRoleVerifier(userRepo),
	}
}

func (d *blockchainDomain) CreateBlockchain(
	ctx context.Context, req *model.CreateBlockchainRequest,
) (*model.CreateBlockchainResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.SuperAdminRole); err != nil {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	err := d.blockchainRepo.Upsert(ctx, &entity.Blockchain{
		Name:           req.Name,
		ID:             req.ChainID,
		UseExternalRPC: req.UseExternalRPC,
		UseEip1559:     req.UseEip1559,
		BlockTime:      req.BlockTime,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create blockchain: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateBlockchainResponse{}, nil
}

func (d *blockchainDomain) CreateConnection(
	ctx context.Context, req *model.CreateBlockchainConnectionRequest,
) (*model.CreateBlockchainConnectionResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.SuperAdminRole); err != nil {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	connectionType, err := enum.ToEnum[entity.BlockchainConnectionType](req.Type)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid connection type %s", req.Type)
	}

	if err := d.blockchainRepo.Check(ctx, req.Chain); err != nil {
		return nil, errorx.New(errorx.NotFound, "Unsupported chain %s", req.Chain)
	}

	for _, url := range req.URLs {
		err := d.blockchainRepo.CreateBlockchainConnection(ctx, &entity.BlockchainConnection{
			Chain: req.Chain,
			URL:   url,
			Type:  connectionType,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create blockchain connection: %v", err)
			return nil, errorx.Unknown
		}
	}

	return &model.CreateBlockchainConnectionResponse{}, nil
}

func (d *blockchainDomain) CreateToken(
	ctx context.Context, req *model.CreateBlockchainTokenRequest,
) (*model.CreateBlockchainTokenResponse, error) {
	if err := d.globalRoleVerifier.Verify(ctx, entity.SuperAdminRole, entity.AdminRole); err != nil {
		return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	_, err := d.blockchainRepo.GetToken(ctx, req.Chain, req.Address)
	if err == nil {
		return nil, errorx.New(errorx.AlreadyExists, "This token has been registered before")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get token: %v", err)
		return nil, errorx.Unknown
	}

	info, err := d.blockchainManager.ERC20TokenInfo(ctx, req.Chain, req.Address)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get token info: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot read token info on chain %s", req.Chain)
	}

	err = d.blockchainRepo.CreateToken(ctx, &entity.BlockchainToken{
		Base:     entity.Base{ID: uuid.NewString()},
		Name:     info.Name,
		Symbol:   info.Symbol,
		Address:  req.Address,
		Chain:    req.Chain,
		Decimals: info.Decimals,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateBlockchainTokenResponse{
		Name:     info.Name,
		Symbol:   info.Symbol,
		Decimals: info.Decimals,
	}, nil
}
