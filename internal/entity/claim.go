package entity

import (
	"github.com/proofdrop-lab/backend/pkg/enum"
)

type ClaimStatus string

var (
	// ClaimReserved rows hold the nullifier and a supply unit while the
	// reward transfer is in flight.
	ClaimReserved   = enum.New(ClaimStatus("reserved"))
	ClaimCommitted  = enum.New(ClaimStatus("committed"))
	ClaimRolledBack = enum.New(ClaimStatus("rolled_back"))

	// ClaimFailed means the transfer outcome is unknown. The reconciler
	// resolves these rows later, no supply is returned yet.
	ClaimFailed = enum.New(ClaimStatus("failed"))
)

type Claim struct {
	Base

	EventID string `gorm:"index:idx_claims_event_nullifier,unique"`
	Event   Event  `gorm:"foreignKey:EventID"`

	// Nullifier identifies the human, not the wallet. One committed row
	// per (event, nullifier) ever.
	Nullifier string `gorm:"index:idx_claims_event_nullifier,unique"`

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	WalletAddress     string
	MerkleRoot        string
	VerificationLevel string

	RewardID string
	Reward   Reward `gorm:"foreignKey:RewardID"`

	// TokenID is the erc721 pool token allocated to this claim.
	TokenID int64

	Status ClaimStatus

	TransactionID string
	Transaction   BlockchainTransaction `gorm:"foreignKey:TransactionID"`
}
