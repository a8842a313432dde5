package types

import ethtypes "github.com/ethereum/go-ethereum/core/types"

type DispatchError int

const (
	ErrNil DispatchError = iota // no error
	ErrGeneric
	ErrNotEnoughBalance
	ErrSubmitTx

	// ErrUnknownOutcome means the submission timed out. The transaction
	// may still land on chain, so the caller must not treat the claim as
	// rolled back.
	ErrUnknownOutcome
)

// Transient reports whether the failure may clear on a retry. Balance
// shortage needs the treasury refilled first.
func (e DispatchError) Transient() bool {
	return e == ErrSubmitTx || e == ErrUnknownOutcome
}

type DispatchedTxRequest struct {
	Chain string
	Tx    *ethtypes.Transaction
}

type DispatchedTxResult struct {
	Success bool
	Err     DispatchError // We use int since json RPC cannot marshal error
	Chain   string
	TxHash  string
}

func NewDispatchTxError(request *DispatchedTxRequest, err DispatchError) *DispatchedTxResult {
	return &DispatchedTxResult{
		Chain:   request.Chain,
		TxHash:  request.Tx.Hash().Hex(),
		Success: false,
		Err:     err,
	}
}

func NewDispatchTxSuccess(request *DispatchedTxRequest) *DispatchedTxResult {
	return &DispatchedTxResult{
		Chain:   request.Chain,
		TxHash:  request.Tx.Hash().Hex(),
		Success: true,
		Err:     ErrNil,
	}
}

type TokenInfo struct {
	Name     string
	Symbol   string
	Decimals int
}
