package entity

import "github.com/proofdrop-lab/backend/pkg/enum"

type TokenStandard string

var (
	TokenStandardERC20   = enum.New(TokenStandard("erc20"))
	TokenStandardERC721  = enum.New(TokenStandard("erc721"))
	TokenStandardERC1155 = enum.New(TokenStandard("erc1155"))
)

type Reward struct {
	Base

	EventID string `gorm:"unique"`
	Event   Event  `gorm:"foreignKey:EventID"`

	Chain      string
	Blockchain Blockchain `gorm:"foreignKey:Chain;references:Name"`

	TokenStandard TokenStandard
	TokenAddress  string

	// Amount is the number of fungible units per claim. Ignored for
	// erc721, where one pooled token id is handed out instead.
	Amount float64

	// TokenID is the erc1155 token type. Zero for the other standards.
	TokenID int64

	TotalSupply     int64
	RemainingSupply int64
}

// RewardTokenID is one erc721 token held by the treasury and not yet
// handed out. A row disappears from the free pool by getting a ClaimID.
type RewardTokenID struct {
	RewardID string `gorm:"primaryKey"`
	Reward   Reward `gorm:"foreignKey:RewardID"`

	TokenID int64 `gorm:"primaryKey"`

	ClaimID string `gorm:"index"`
}
