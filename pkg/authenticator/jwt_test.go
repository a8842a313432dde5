package authenticator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type tokenObject struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

func Test_jwtEngine_GenerateVerify(t *testing.T) {
	engine := NewTokenEngine("secret")

	token, err := engine.Generate(time.Minute, tokenObject{ID: "user1", Address: "0xabc"})
	require.NoError(t, err)

	var got tokenObject
	require.NoError(t, engine.Verify(token, &got))
	require.Equal(t, tokenObject{ID: "user1", Address: "0xabc"}, got)
}

func Test_jwtEngine_Expired(t *testing.T) {
	engine := NewTokenEngine("secret")

	token, err := engine.Generate(-time.Minute, tokenObject{ID: "user1"})
	require.NoError(t, err)

	var got tokenObject
	require.Error(t, engine.Verify(token, &got))
}

func Test_jwtEngine_WrongSecret(t *testing.T) {
	token, err := NewTokenEngine("secret").Generate(time.Minute, tokenObject{ID: "user1"})
	require.NoError(t, err)

	var got tokenObject
	require.Error(t, NewTokenEngine("another-secret").Verify(token, &got))
}
