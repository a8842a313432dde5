package domain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/proofdrop-lab/backend/internal/model"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/testutil"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestAuthDomain() AuthDomain {
	return NewAuthDomain(
		repository.NewUserRepository(),
		repository.NewRefreshTokenRepository(),
	)
}

func withHTTP(ctx context.Context, cookies []*http.Cookie) (context.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/auth", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	ctx = xcontext.WithHTTPRequest(ctx, req)
	ctx = xcontext.WithHTTPWriter(ctx, w)
	return ctx, w
}

func personalSign(t *testing.T, privateKey *ecdsa.PrivateKey, msg string) string {
	hash := ethcrypto.Keccak256(
		[]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)))
	signature, err := ethcrypto.Sign(hash, privateKey)
	require.NoError(t, err)
	return hexutil.Encode(signature)
}

func login(t *testing.T, ctx context.Context, d AuthDomain, privateKey *ecdsa.PrivateKey) *model.WalletVerifyResponse {
	wallet := ethcrypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	loginCtx, w := withHTTP(ctx, nil)
	loginResp, err := d.WalletLogin(loginCtx, &model.WalletLoginRequest{Address: wallet})
	require.NoError(t, err)
	require.NotEmpty(t, loginResp.Nonce)

	verifyCtx, _ := withHTTP(ctx, w.Result().Cookies())
	verifyResp, err := d.WalletVerify(verifyCtx, &model.WalletVerifyRequest{
		Signature: personalSign(t, privateKey, loginResp.Nonce),
	})
	require.NoError(t, err)
	return verifyResp
}

func Test_authDomain_WalletLoginVerify(t *testing.T) {
	ctx := testutil.MockContext()
	d := newTestAuthDomain()

	privateKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	wallet := ethcrypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	resp := login(t, ctx, d, privateKey)
	require.Equal(t, wallet, resp.User.WalletAddress)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	// The first user of the platform becomes the super admin, later ones
	// do not.
	require.Equal(t, "SUPER_ADMIN", resp.User.Role)

	anotherKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	resp = login(t, ctx, d, anotherKey)
	require.Equal(t, "USER", resp.User.Role)
}

func Test_authDomain_WalletVerify_WrongSigner(t *testing.T) {
	ctx := testutil.MockContext()
	d := newTestAuthDomain()

	privateKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	wallet := ethcrypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	loginCtx, w := withHTTP(ctx, nil)
	loginResp, err := d.WalletLogin(loginCtx, &model.WalletLoginRequest{Address: wallet})
	require.NoError(t, err)

	// Signed by another key.
	anotherKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	verifyCtx, _ := withHTTP(ctx, w.Result().Cookies())
	_, err = d.WalletVerify(verifyCtx, &model.WalletVerifyRequest{
		Signature: personalSign(t, anotherKey, loginResp.Nonce),
	})
	require.Error(t, err)
	require.Equal(t, "Mismatched address", err.Error())
}

func Test_authDomain_WalletVerify_WithoutLogin(t *testing.T) {
	ctx := testutil.MockContext()
	d := newTestAuthDomain()

	verifyCtx, _ := withHTTP(ctx, nil)
	_, err := d.WalletVerify(verifyCtx, &model.WalletVerifyRequest{Signature: "0xabc"})
	require.Error(t, err)
	require.Equal(t, "Please call the login endpoint first", err.Error())
}

func Test_authDomain_Refresh_Rotation(t *testing.T) {
	ctx := testutil.MockContext()
	d := newTestAuthDomain()

	privateKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	resp := login(t, ctx, d, privateKey)

	rotated, err := d.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, resp.RefreshToken, rotated.RefreshToken)

	// Reusing the old token means it leaked, the whole family is revoked.
	_, err = d.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.Error(t, err)
	require.Equal(t,
		"Your refresh token will be revoked because it is detected as stolen", err.Error())

	// The rotated token dies with the family.
	_, err = d.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: rotated.RefreshToken})
	require.Error(t, err)
}
