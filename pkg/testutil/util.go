package testutil

import (
	"context"
	"time"

	"github.com/gorilla/sessions"
	"github.com/proofdrop-lab/backend/config"
	"github.com/proofdrop-lab/backend/migration"
	"github.com/proofdrop-lab/backend/pkg/authenticator"
	"github.com/proofdrop-lab/backend/pkg/logger"
	"github.com/proofdrop-lab/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	// Every pool connection would open its own empty in-memory database.
	// A single connection keeps one database shared across goroutines.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Configs{
		ApiServer: config.ServerConfigs{
			DefaultLimit: 1,
			MaxLimit:     50,
		},
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Minute,
			},
			RefreshToken: config.TokenConfigs{
				Name:       "refresh_token",
				Expiration: time.Minute,
			},
		},
		Session: config.SessionConfigs{
			Secret: "session-secret",
			Name:   "proofdrop_session",
		},
		WorldID: config.WorldIDConfigs{
			VerifyURL: "https://developer.worldcoin.org",
			AppID:     "app_test",
			Action:    "worldid-reward-claim",
			MinLevel:  "orb",
		},
		Claim: config.ClaimConfigs{
			ReconcileDelay:     time.Minute,
			ReconcileFrequency: time.Minute,
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger())
	ctx = xcontext.WithTokenEngine(ctx, authenticator.NewTokenEngine(cfg.Auth.TokenSecret))
	ctx = xcontext.WithSessionStore(ctx, sessions.NewCookieStore([]byte(cfg.Session.Secret)))
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.AutoMigrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}
