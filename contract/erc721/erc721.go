// Package erc721 wraps the minimal ABI surface needed to hand out
// pooled collectible rewards.
package erc721

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

const erc721ABI = `[
	{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"name":"safeTransferFrom","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

type Erc721 struct {
	contract *bind.BoundContract
}

func NewErc721(address common.Address, backend bind.ContractBackend) (*Erc721, error) {
	parsed, err := abi.JSON(strings.NewReader(erc721ABI))
	if err != nil {
		return nil, err
	}

	return &Erc721{contract: bind.NewBoundContract(address, parsed, backend, backend, backend)}, nil
}

func (e *Erc721) SafeTransferFrom(
	opts *bind.TransactOpts, from, to common.Address, tokenID *big.Int,
) (*ethtypes.Transaction, error) {
	return e.contract.Transact(opts, "safeTransferFrom", from, to, tokenID)
}

func (e *Erc721) OwnerOf(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error) {
	var out []any
	if err := e.contract.Call(opts, &out, "ownerOf", tokenID); err != nil {
		return common.Address{}, err
	}

	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (e *Erc721) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	var out []any
	if err := e.contract.Call(opts, &out, "balanceOf", owner); err != nil {
		return nil, err
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
