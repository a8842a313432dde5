package worldid

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/proofdrop-lab/backend/pkg/api"
)

const maxVerifyCodeLen = 64

type Endpoint struct {
	verifyURL string
	appID     string
	apiKey    string

	apiGenerator api.Generator
}

// The api key is optional, the public verify endpoint accepts anonymous
// requests but rate-limits them harder.
func New(verifyURL, appID, apiKey string, apiGenerator api.Generator) *Endpoint {
	return &Endpoint{
		verifyURL:    verifyURL,
		appID:        appID,
		apiKey:       apiKey,
		apiGenerator: apiGenerator,
	}
}

func (e *Endpoint) Verify(ctx context.Context, action string, proof Proof) (VerifyResult, error) {
	body := api.JSON{
		"nullifier_hash":     proof.NullifierHash,
		"merkle_root":        proof.MerkleRoot,
		"proof":              proof.Proof,
		"verification_level": proof.VerificationLevel,
		"action":             action,
		"signal_hash":        proof.SignalHash,
	}

	var opts []api.Opt
	if e.apiKey != "" {
		opts = append(opts, api.Bearer(e.apiKey))
	}

	resp, err := e.apiGenerator.New(e.verifyURL, "/api/v2/verify/%s", e.appID).
		Body(body).POST(ctx, opts...)
	if err != nil {
		return VerifyResult{}, err
	}

	respBody, ok := resp.Body.(api.JSON)
	if !ok {
		return VerifyResult{}, errors.New("invalid response body format")
	}

	if resp.Code == http.StatusOK {
		success, err := respBody.GetBool("success")
		if err != nil {
			return VerifyResult{}, err
		}

		if !success {
			return VerifyResult{}, fmt.Errorf("got code %d but not a success verdict", resp.Code)
		}

		result := VerifyResult{Success: true}
		result.MaxUses, _ = respBody.GetInt("max_uses")
		result.Attempts, _ = respBody.GetInt("uses")
		return result, nil
	}

	code, err := respBody.GetString("code")
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify failed with code %d", resp.Code)
	}

	if len(code) > maxVerifyCodeLen {
		code = code[:maxVerifyCodeLen]
	}

	detail, _ := respBody.GetString("detail")
	return VerifyResult{Success: false, Code: code, Detail: detail}, nil
}
