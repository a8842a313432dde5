package model

type Claim struct {
	ID                string `json:"id"`
	EventID           string `json:"event_id"`
	WalletAddress     string `json:"wallet_address"`
	VerificationLevel string `json:"verification_level"`
	TokenID           int64  `json:"token_id,omitempty"`
	Status            string `json:"status"`
	TxHash            string `json:"tx_hash,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// Claim Reward
type ClaimRewardRequest struct {
	EventID       string `json:"event_id"`
	WalletAddress string `json:"wallet_address"`

	// Zero-knowledge proof material from the identity widget.
	NullifierHash     string `json:"nullifier_hash"`
	MerkleRoot        string `json:"merkle_root"`
	Proof             string `json:"proof"`
	VerificationLevel string `json:"verification_level"`

	// WalletSignature is required in strict binding mode. It is the
	// claim signal signed by the destination wallet.
	WalletSignature string `json:"wallet_signature"`
}

type ClaimRewardResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	TokenID int64  `json:"token_id,omitempty"`
	TxHash  string `json:"tx_hash,omitempty"`
}

// Get Claim
type GetClaimRequest struct {
	ID string `json:"id"`
}

type GetClaimResponse Claim

// Get My Claims
type GetMyClaimsRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetMyClaimsResponse struct {
	Claims []Claim `json:"claims"`
}

// ClaimEventsTopic receives a ClaimEvent for every committed claim.
const ClaimEventsTopic = "claim_events"

// ClaimEvent is the payload published to the claim events topic after a
// claim is committed.
type ClaimEvent struct {
	ClaimID       string  `json:"claim_id"`
	EventID       string  `json:"event_id"`
	WalletAddress string  `json:"wallet_address"`
	TokenStandard string  `json:"token_standard"`
	TokenAddress  string  `json:"token_address"`
	Amount        float64 `json:"amount"`
	TokenID       int64   `json:"token_id"`
	TxHash        string  `json:"tx_hash"`
}
