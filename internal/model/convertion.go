package model

import (
	"time"

	"github.com/proofdrop-lab/backend/internal/entity"
)

const DefaultTimeLayout string = time.RFC3339Nano

func ConvertUser(user *entity.User) User {
	if user == nil {
		return User{}
	}

	return User{
		ID:            user.ID,
		WalletAddress: user.WalletAddress,
		Name:          user.Name,
		Role:          user.Role,
	}
}

func ConvertEvent(event *entity.Event, reward *entity.Reward) Event {
	if event == nil {
		return Event{}
	}

	result := Event{
		ID:          event.ID,
		Name:        event.Name,
		Description: event.Description,
		StartedAt:   event.StartedAt.Format(DefaultTimeLayout),
		EndedAt:     event.EndedAt.Format(DefaultTimeLayout),
		Active:      event.Active,
	}

	if reward != nil {
		modelReward := ConvertReward(reward)
		result.Reward = &modelReward
	}

	return result
}

func ConvertReward(reward *entity.Reward) Reward {
	if reward == nil {
		return Reward{}
	}

	return Reward{
		ID:              reward.ID,
		Chain:           reward.Chain,
		TokenStandard:   string(reward.TokenStandard),
		TokenAddress:    reward.TokenAddress,
		Amount:          reward.Amount,
		TokenID:         reward.TokenID,
		TotalSupply:     reward.TotalSupply,
		RemainingSupply: reward.RemainingSupply,
	}
}

func ConvertClaim(claim *entity.Claim, tx *entity.BlockchainTransaction) Claim {
	if claim == nil {
		return Claim{}
	}

	result := Claim{
		ID:                claim.ID,
		EventID:           claim.EventID,
		WalletAddress:     claim.WalletAddress,
		VerificationLevel: claim.VerificationLevel,
		TokenID:           claim.TokenID,
		Status:            string(claim.Status),
		CreatedAt:         claim.CreatedAt.Format(DefaultTimeLayout),
	}

	if tx != nil {
		result.TxHash = tx.TxHash
	}

	return result
}
