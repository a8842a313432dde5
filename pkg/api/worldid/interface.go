package worldid

import (
	"context"
)

// Proof carries the zero-knowledge proof material produced by the
// identity wallet for a single claim attempt.
type Proof struct {
	NullifierHash     string
	MerkleRoot        string
	Proof             string
	VerificationLevel string
	SignalHash        string
}

// VerifyResult is the developer-portal verdict for a proof. Detail is
// only set when the proof is rejected.
type VerifyResult struct {
	Success  bool
	Code     string
	Detail   string
	MaxUses  int
	Attempts int
}

type IEndpoint interface {
	Verify(ctx context.Context, action string, proof Proof) (VerifyResult, error)
}
