// Package proof checks World ID zero-knowledge proofs before any claim
// touches the ledger.
package proof

import (
	"context"

	"github.com/proofdrop-lab/backend/pkg/api/worldid"
	"github.com/proofdrop-lab/backend/pkg/errorx"
	"github.com/proofdrop-lab/backend/pkg/ethutil"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
)

// Verification levels ordered by the strength of the personhood check.
var levelRank = map[string]int{
	"device": 1,
	"orb":    2,
}

type ClaimProof struct {
	EventID       string
	WalletAddress string

	NullifierHash     string
	MerkleRoot        string
	Proof             string
	VerificationLevel string
}

type Verifier struct {
	endpoint worldid.IEndpoint
}

func NewVerifier(endpoint worldid.IEndpoint) *Verifier {
	return &Verifier{endpoint: endpoint}
}

// Verify checks the verification level floor, binds the proof to the
// event and destination wallet through the signal hash, and asks the
// developer portal for the final verdict.
func (v *Verifier) Verify(ctx context.Context, claimProof ClaimProof) error {
	cfg := xcontext.Configs(ctx).WorldID

	gotRank, ok := levelRank[claimProof.VerificationLevel]
	if !ok {
		return errorx.New(errorx.BadRequest,
			"Invalid verification level %s", claimProof.VerificationLevel)
	}

	if gotRank < levelRank[cfg.MinLevel] {
		return errorx.New(errorx.InsufficientLevel,
			"This event requires at least %s verification", cfg.MinLevel)
	}

	// The signal commits the proof to this event and wallet. A proof
	// generated for another wallet fails cloud verification here.
	signalHash := ethutil.SignalHash(claimProof.EventID, claimProof.WalletAddress)

	result, err := v.endpoint.Verify(ctx, cfg.Action, worldid.Proof{
		NullifierHash:     claimProof.NullifierHash,
		MerkleRoot:        claimProof.MerkleRoot,
		Proof:             claimProof.Proof,
		VerificationLevel: claimProof.VerificationLevel,
		SignalHash:        signalHash,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call the verify endpoint: %v", err)
		return errorx.Unknown
	}

	if result.Success {
		return nil
	}

	xcontext.Logger(ctx).Debugf("Proof rejected with code %s: %s", result.Code, result.Detail)

	switch result.Code {
	case "max_verifications_reached", "already_verified":
		return errorx.New(errorx.AlreadyClaimed, "This identity has already been verified")
	case "invalid_action", "action_inactive":
		return errorx.New(errorx.ActionMismatch, "The proof was generated for another action")
	default:
		return errorx.New(errorx.ProofInvalid, "The provided proof is invalid")
	}
}
