package main

import (
	"github.com/BurntSushi/toml"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

type chainSeed struct {
	Chains []struct {
		Name           string   `toml:"name"`
		ID             int64    `toml:"id"`
		UseExternalRPC bool     `toml:"use_external_rpc"`
		UseEip1559     bool     `toml:"use_eip1559"`
		BlockTime      int      `toml:"block_time"`
		RPCs           []string `toml:"rpcs"`
	} `toml:"chains"`
}

func (s *srv) startMigrate(cctx *cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRepos()

	seedPath := cctx.String("chains")
	if seedPath == "" {
		return nil
	}

	var seed chainSeed
	if _, err := toml.DecodeFile(seedPath, &seed); err != nil {
		return err
	}

	for _, chain := range seed.Chains {
		err := s.blockchainRepo.Upsert(s.ctx, &entity.Blockchain{
			Name:           chain.Name,
			ID:             chain.ID,
			UseExternalRPC: chain.UseExternalRPC,
			UseEip1559:     chain.UseEip1559,
			BlockTime:      chain.BlockTime,
		})
		if err != nil {
			return err
		}

		for _, rpc := range chain.RPCs {
			err := s.blockchainRepo.CreateBlockchainConnection(s.ctx, &entity.BlockchainConnection{
				Chain: chain.Name,
				URL:   rpc,
				Type:  entity.BlockchainConnectionRPC,
			})
			if err != nil {
				xcontext.Logger(s.ctx).Warnf("Cannot create connection %s of %s: %v",
					rpc, chain.Name, err)
			}
		}

		xcontext.Logger(s.ctx).Infof("Seeded chain %s", chain.Name)
	}

	return nil
}
