package worldid

import "context"

type MockEndpoint struct {
	VerifyFunc func(ctx context.Context, action string, proof Proof) (VerifyResult, error)
}

func (m *MockEndpoint) Verify(ctx context.Context, action string, proof Proof) (VerifyResult, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, action, proof)
	}

	return VerifyResult{Success: true}, nil
}
