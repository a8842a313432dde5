package main

import (
	"context"
	"net/http"

	"github.com/proofdrop-lab/backend/internal/domain"
	"github.com/proofdrop-lab/backend/internal/domain/blockchain"
	"github.com/proofdrop-lab/backend/internal/domain/proof"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/migration"
	"github.com/proofdrop-lab/backend/pkg/api"
	"github.com/proofdrop-lab/backend/pkg/api/worldid"
	"github.com/proofdrop-lab/backend/pkg/kafka"
	"github.com/proofdrop-lab/backend/pkg/pubsub"
	"github.com/proofdrop-lab/backend/pkg/router"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/proofdrop-lab/backend/pkg/xredis"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	ctx context.Context

	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	eventRepo        repository.EventRepository
	rewardRepo       repository.RewardRepository
	claimRepo        repository.ClaimRepository
	blockchainRepo   repository.BlockChainRepository

	userDomain       domain.UserDomain
	authDomain       domain.AuthDomain
	eventDomain      domain.EventDomain
	claimDomain      domain.ClaimDomain
	blockchainDomain domain.BlockchainDomain

	blockchainManager *blockchain.Manager
	publisher         pubsub.Publisher
	redisClient       xredis.Client

	router *router.Router
	server *http.Server
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx)
	db, err := gorm.Open(mysql.Open(cfg.Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := migration.AutoMigrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot connect to redis, continue without it: %v", err)
		s.redisClient = nil
	}
}

func (s *srv) loadPublisher() {
	cfg := xcontext.Configs(s.ctx)
	if cfg.Kafka.Addr == "" {
		xcontext.Logger(s.ctx).Warnf("No kafka broker, claim events will not be published")
		return
	}

	var err error
	s.publisher, err = kafka.NewPublisher("proofdrop", []string{cfg.Kafka.Addr})
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.refreshTokenRepo = repository.NewRefreshTokenRepository()
	s.eventRepo = repository.NewEventRepository()
	s.rewardRepo = repository.NewRewardRepository()
	s.claimRepo = repository.NewClaimRepository()
	s.blockchainRepo = repository.NewBlockChainRepository()
}

func (s *srv) loadBlockchainManager() {
	s.blockchainManager = blockchain.NewManager(s.ctx, s.blockchainRepo)
	go s.blockchainManager.Run(s.ctx)
}

func (s *srv) loadDomains() {
	cfg := xcontext.Configs(s.ctx)

	verifier := proof.NewVerifier(
		worldid.New(cfg.WorldID.VerifyURL, cfg.WorldID.AppID, cfg.WorldID.APIKey, api.NewGenerator()))

	s.userDomain = domain.NewUserDomain(s.userRepo)
	s.authDomain = domain.NewAuthDomain(s.userRepo, s.refreshTokenRepo)
	s.eventDomain = domain.NewEventDomain(s.eventRepo, s.rewardRepo, s.blockchainRepo, s.userRepo)
	s.blockchainDomain = domain.NewBlockchainDomain(s.blockchainRepo, s.blockchainManager, s.userRepo)
	s.claimDomain = domain.NewClaimDomain(
		s.claimRepo,
		s.rewardRepo,
		s.eventRepo,
		s.blockchainRepo,
		verifier,
		s.blockchainManager,
		s.publisher,
		s.redisClient,
	)
}
