package proof

import (
	"context"
	"testing"

	"github.com/proofdrop-lab/backend/pkg/api/worldid"
	"github.com/proofdrop-lab/backend/pkg/ethutil"
	"github.com/proofdrop-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func sampleProof(level string) ClaimProof {
	return ClaimProof{
		EventID:           "event1",
		WalletAddress:     "0x1111111111111111111111111111111111111111",
		NullifierHash:     "0xn1",
		MerkleRoot:        "0xroot",
		Proof:             "0xproof",
		VerificationLevel: level,
	}
}

func Test_Verifier_LevelFloor(t *testing.T) {
	// The mock context requires orb level.
	ctx := testutil.MockContext()
	v := NewVerifier(&worldid.MockEndpoint{})

	require.NoError(t, v.Verify(ctx, sampleProof("orb")))

	err := v.Verify(ctx, sampleProof("device"))
	require.Error(t, err)
	require.Equal(t, "This event requires at least orb verification", err.Error())

	err = v.Verify(ctx, sampleProof("unknown"))
	require.Error(t, err)
	require.Equal(t, "Invalid verification level unknown", err.Error())
}

func Test_Verifier_BindsSignalToEventAndWallet(t *testing.T) {
	ctx := testutil.MockContext()

	var gotAction string
	var gotProof worldid.Proof
	v := NewVerifier(&worldid.MockEndpoint{
		VerifyFunc: func(_ context.Context, action string, proof worldid.Proof) (worldid.VerifyResult, error) {
			gotAction = action
			gotProof = proof
			return worldid.VerifyResult{Success: true}, nil
		},
	})

	claimProof := sampleProof("orb")
	require.NoError(t, v.Verify(ctx, claimProof))

	require.Equal(t, "worldid-reward-claim", gotAction)
	require.Equal(t,
		ethutil.SignalHash(claimProof.EventID, claimProof.WalletAddress), gotProof.SignalHash)
	require.Equal(t, claimProof.NullifierHash, gotProof.NullifierHash)
	require.Equal(t, claimProof.MerkleRoot, gotProof.MerkleRoot)
}

func Test_Verifier_CodeMapping(t *testing.T) {
	ctx := testutil.MockContext()

	cases := []struct {
		code    string
		message string
	}{
		{"max_verifications_reached", "This identity has already been verified"},
		{"already_verified", "This identity has already been verified"},
		{"invalid_action", "The proof was generated for another action"},
		{"action_inactive", "The proof was generated for another action"},
		{"invalid_proof", "The provided proof is invalid"},
		{"invalid_merkle_root", "The provided proof is invalid"},
	}

	for _, c := range cases {
		v := NewVerifier(&worldid.MockEndpoint{
			VerifyFunc: func(context.Context, string, worldid.Proof) (worldid.VerifyResult, error) {
				return worldid.VerifyResult{Success: false, Code: c.code}, nil
			},
		})

		err := v.Verify(ctx, sampleProof("orb"))
		require.Error(t, err)
		require.Equal(t, c.message, err.Error())
	}
}
