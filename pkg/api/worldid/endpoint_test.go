package worldid

import (
	"context"
	"testing"

	"github.com/proofdrop-lab/backend/pkg/api"
	"github.com/stretchr/testify/require"
)

func Test_Endpoint_Verify(t *testing.T) {
	var gotBody api.JSON
	generator := &api.MockAPIGenerator{
		MockClient: api.MockAPIClient{
			POSTFunc: func(ctx context.Context, opts ...api.Opt) (*api.Response, error) {
				return &api.Response{
					Code: 200,
					Body: api.JSON{"success": true, "max_uses": float64(1), "uses": float64(1)},
				}, nil
			},
		},
	}
	generator.MockClient.BodyFunc = func(body api.Body) api.Client {
		gotBody = body.(api.JSON)
		return &generator.MockClient
	}

	endpoint := New("https://developer.worldcoin.org", "app_staging_xxx", "", generator)
	result, err := endpoint.Verify(context.Background(), "reward-claim", Proof{
		NullifierHash:     "0x1111",
		MerkleRoot:        "0x2222",
		Proof:             "0x3333",
		VerificationLevel: "orb",
		SignalHash:        "0x4444",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 1, result.MaxUses)
	require.Equal(t, 1, result.Attempts)

	require.Equal(t, "0x1111", gotBody["nullifier_hash"])
	require.Equal(t, "reward-claim", gotBody["action"])
	require.Equal(t, "0x4444", gotBody["signal_hash"])
}

func Test_Endpoint_Verify_Rejected(t *testing.T) {
	generator := &api.MockAPIGenerator{
		MockClient: api.MockAPIClient{
			POSTFunc: func(ctx context.Context, opts ...api.Opt) (*api.Response, error) {
				return &api.Response{
					Code: 400,
					Body: api.JSON{
						"code":   "invalid_proof",
						"detail": "The provided proof is invalid",
					},
				}, nil
			},
		},
	}

	endpoint := New("https://developer.worldcoin.org", "app_staging_xxx", "", generator)
	result, err := endpoint.Verify(context.Background(), "reward-claim", Proof{})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "invalid_proof", result.Code)
	require.Equal(t, "The provided proof is invalid", result.Detail)
}
