package migration

import (
	"context"

	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
)

// When this migrator is called, no need to call other migrators.
func AutoMigrate(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.User{},
		&entity.RefreshToken{},
		&entity.Event{},
		&entity.Reward{},
		&entity.RewardTokenID{},
		&entity.Claim{},
		&entity.Blockchain{},
		&entity.BlockchainConnection{},
		&entity.BlockchainToken{},
		&entity.BlockchainTransaction{},
	)
}
