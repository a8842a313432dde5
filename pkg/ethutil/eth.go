package ethutil

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

func GeneratePrivateKey(secret, nonce []byte) (*ecdsa.PrivateKey, error) {
	seed := sha256.Sum256(append(secret, nonce...))
	randomSeed := bytes.Repeat(seed[:], 2)
	reader := bytes.NewReader(randomSeed)
	return ecdsa.GenerateKey(ethcrypto.S256(), reader)
}

func GeneratePublicKey(secret, nonce []byte) (common.Address, error) {
	walletPrivateKey, err := GeneratePrivateKey(secret, nonce)
	if err != nil {
		return common.Address{}, err
	}

	return ethcrypto.PubkeyToAddress(walletPrivateKey.PublicKey), nil
}

// VerifyPersonalSign checks that signature is a personal_sign of msg by the
// owner of address.
func VerifyPersonalSign(address, msg, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return err
	}

	if len(sig) != ethcrypto.SignatureLength {
		return fmt.Errorf("invalid signature length %d", len(sig))
	}

	// Metamask V values are 27/28 instead of 0/1.
	if sig[ethcrypto.RecoveryIDOffset] == 27 || sig[ethcrypto.RecoveryIDOffset] == 28 {
		sig[ethcrypto.RecoveryIDOffset] -= 27
	}

	hash := accountsTextHash([]byte(msg))
	pubKey, err := ethcrypto.SigToPub(hash, sig)
	if err != nil {
		return err
	}

	recovered := ethcrypto.PubkeyToAddress(*pubKey)
	if !strings.EqualFold(recovered.Hex(), address) {
		return fmt.Errorf("signature is not signed by %s", address)
	}

	return nil
}

func accountsTextHash(data []byte) []byte {
	msg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(data), data)
	return ethcrypto.Keccak256([]byte(msg))
}

// SignalHash computes the context string a uniqueness proof is bound to. The
// same derivation runs on the frontend before the proof is generated, so any
// change here is a breaking protocol change.
func SignalHash(eventID, walletAddress string) string {
	data := eventID + ":" + strings.ToLower(walletAddress)
	return "0x" + hex.EncodeToString(ethcrypto.Keccak256([]byte(data)))
}
