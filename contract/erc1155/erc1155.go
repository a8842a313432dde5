// Package erc1155 wraps the minimal ABI surface needed to pay out
// semi-fungible rewards.
package erc1155

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

const erc1155ABI = `[
	{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"id","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"name":"safeTransferFrom","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"id","type":"uint256"}],"name":"uri","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

type Erc1155 struct {
	contract *bind.BoundContract
}

func NewErc1155(address common.Address, backend bind.ContractBackend) (*Erc1155, error) {
	parsed, err := abi.JSON(strings.NewReader(erc1155ABI))
	if err != nil {
		return nil, err
	}

	return &Erc1155{contract: bind.NewBoundContract(address, parsed, backend, backend, backend)}, nil
}

func (e *Erc1155) SafeTransferFrom(
	opts *bind.TransactOpts, from, to common.Address, id, amount *big.Int, data []byte,
) (*ethtypes.Transaction, error) {
	return e.contract.Transact(opts, "safeTransferFrom", from, to, id, amount, data)
}

func (e *Erc1155) BalanceOf(opts *bind.CallOpts, account common.Address, id *big.Int) (*big.Int, error) {
	var out []any
	if err := e.contract.Call(opts, &out, "balanceOf", account, id); err != nil {
		return nil, err
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (e *Erc1155) Uri(opts *bind.CallOpts, id *big.Int) (string, error) {
	var out []any
	if err := e.contract.Call(opts, &out, "uri", id); err != nil {
		return "", err
	}

	return *abi.ConvertType(out[0], new(string)).(*string), nil
}
