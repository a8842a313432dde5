package main

import (
	"github.com/proofdrop-lab/backend/internal/domain/cron"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadBlockchainManager()

	go s.startPrometheus()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewReconcileClaimCronJob(
		s.ctx,
		s.claimRepo,
		s.rewardRepo,
		s.blockchainRepo,
		s.blockchainManager,
		s.publisher,
		s.redisClient,
	))

	cronJobManager.Start(s.ctx)
	return nil
}
