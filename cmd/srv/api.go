package main

import (
	"net/http"

	"github.com/proofdrop-lab/backend/internal/middleware"
	"github.com/proofdrop-lab/backend/pkg/router"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadBlockchainManager()
	s.loadDomains()
	s.loadRouter()

	go s.startPrometheus()

	cfg := xcontext.Configs(s.ctx)
	s.server = &http.Server{
		Addr:    cfg.ApiServer.Address(),
		Handler: s.router.Handler(),
	}

	xcontext.Logger(s.ctx).Infof("Starting api server on port %s", cfg.ApiServer.Port)
	if err := s.server.ListenAndServe(); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Api server stopped")
	return nil
}

func (s *srv) loadRouter() {
	cfg := xcontext.Configs(s.ctx)
	s.router = router.New(xcontext.DB(s.ctx), cfg, xcontext.Logger(s.ctx))
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())

	// Public API.
	router.POST(s.router, "/auth/wallet-login", s.authDomain.WalletLogin)
	router.POST(s.router, "/auth/wallet-verify", s.authDomain.WalletVerify)
	router.POST(s.router, "/auth/refresh", s.authDomain.Refresh)
	router.GET(s.router, "/getEvent", s.eventDomain.Get)
	router.GET(s.router, "/getListEvent", s.eventDomain.GetList)

	// These APIs need authentication with an access token.
	authRouter := s.router.Branch()
	authRouter.Before(middleware.WithAuthentication())
	{
		router.GET(authRouter, "/getMe", s.userDomain.GetMe)

		router.POST(authRouter, "/claimReward", s.claimDomain.Claim)
		router.GET(authRouter, "/getClaim", s.claimDomain.Get)
		router.GET(authRouter, "/getMyClaims", s.claimDomain.GetMyClaims)

		// Admin API. Roles are verified inside the domains.
		router.POST(authRouter, "/createEvent", s.eventDomain.Create)
		router.POST(authRouter, "/updateEvent", s.eventDomain.Update)
		router.POST(authRouter, "/deleteEvent", s.eventDomain.Delete)
		router.POST(authRouter, "/createBlockchain", s.blockchainDomain.CreateBlockchain)
		router.POST(authRouter, "/createBlockchainConnection", s.blockchainDomain.CreateConnection)
		router.POST(authRouter, "/createBlockchainToken", s.blockchainDomain.CreateToken)
	}
}
