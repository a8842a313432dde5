package eth

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/proofdrop-lab/backend/contract/erc1155"
	"github.com/proofdrop-lab/backend/contract/erc20"
	"github.com/proofdrop-lab/backend/contract/erc721"
	"github.com/proofdrop-lab/backend/internal/domain/blockchain/types"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/repository"
	"github.com/proofdrop-lab/backend/pkg/ethutil"
	"github.com/proofdrop-lab/backend/pkg/numberutil"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/ethereum/go-ethereum/common"
)

const (
	RpcTimeOut      = time.Second * 5
	MaxShuffleTimes = 20
)

// A wrapper around eth.client so that we can mock in tests.
type EthClient interface {
	Start(ctx context.Context)

	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	BalanceAt(ctx context.Context, from common.Address, block *big.Int) (*big.Int, error)

	GetSignedTransferTokenTx(ctx context.Context, token *entity.BlockchainToken, recipient common.Address, amount float64) (*ethtypes.Transaction, error)
	GetSignedTransferNftTx(ctx context.Context, collection string, recipient common.Address, tokenID int64) (*ethtypes.Transaction, error)
	GetSignedTransferCollectibleTx(ctx context.Context, collection string, recipient common.Address, tokenID int64, amount int) (*ethtypes.Transaction, error)

	ERC20TokenInfo(ctx context.Context, address string) (types.TokenInfo, error)
	ERC20BalanceOf(ctx context.Context, tokenAddress, accountAddress string) (*big.Int, error)
}

// Default implementation of ETH client. Since eth RPC often unstable, this client maintains a list
// of different RPC to connect to and uses the ones that is stable to dispatch a transaction.
type defaultEthClient struct {
	chain           string
	chainID         *big.Int
	useExternalRpcs bool

	clients   []*ethclient.Client
	healthies []bool
	rpcs      []string

	mutex sync.RWMutex

	blockchainRepo repository.BlockChainRepository
}

func NewEthClient(
	blockchain *entity.Blockchain,
	blockchainRepo repository.BlockChainRepository,
) EthClient {
	return &defaultEthClient{
		chain:           blockchain.Name,
		chainID:         big.NewInt(blockchain.ID),
		useExternalRpcs: blockchain.UseExternalRPC,
		mutex:           sync.RWMutex{},
		blockchainRepo:  blockchainRepo,
	}
}

func (c *defaultEthClient) Start(ctx context.Context) {
	go c.loopCheck(ctx)
}

func (c *defaultEthClient) loopCheck(ctx context.Context) {
	for {
		time.Sleep(xcontext.Configs(ctx).Blockchain.RefreshConnectionFrequency)
		c.updateRpcs(ctx)
	}
}

func (c *defaultEthClient) updateRpcs(ctx context.Context) {
	rpcs := []string{}
	connections, err := c.blockchainRepo.GetBlockchainConnectionsByChain(ctx, c.chain)
	if err != nil || len(connections) == 0 {
		xcontext.Logger(ctx).Errorf("Cannot get any connections of chain %s: %v", c.chain, err)
	} else {
		for _, conn := range connections {
			if conn.Type == entity.BlockchainConnectionRPC {
				rpcs = append(rpcs, "https://"+conn.URL)
			}
		}
	}

	if c.useExternalRpcs {
		externals, err := c.GetExtraRpcs(ctx)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Failed to get external rpc info: %v", err)
		} else {
			rpcs = append(rpcs, externals...)
		}
	}

	c.mutex.RLock()
	oldClients := c.clients
	c.mutex.RUnlock()

	rpcs, clients, healthies := c.getRpcsHealthiness(ctx, rpcs)

	c.mutex.Lock()
	for _, client := range oldClients {
		client.Close()
	}

	c.rpcs, c.clients, c.healthies = rpcs, clients, healthies
	c.mutex.Unlock()
}

func (c *defaultEthClient) getRpcsHealthiness(ctx context.Context, allRpcs []string) ([]string, []*ethclient.Client, []bool) {
	clients := make([]*ethclient.Client, 0)
	rpcs := make([]string, 0)
	healthies := make([]bool, 0)

	type healthyNode struct {
		client *ethclient.Client
		rpc    string
		height int64
	}

	// Probe all rpcs in parallel, an unresponsive one only costs its own
	// timeout.
	var nodesMutex sync.Mutex
	nodes := make([]*healthyNode, 0)
	group, groupCtx := errgroup.WithContext(ctx)
	for _, rpc := range allRpcs {
		rpc := rpc
		group.Go(func() error {
			client, err := ethclient.Dial(rpc)
			if err != nil {
				return nil
			}

			checkCtx, cancel := context.WithTimeout(groupCtx, RpcTimeOut)
			block, err := client.BlockByNumber(checkCtx, nil)
			cancel()

			if err != nil || block.Number() == nil {
				client.Close()
				return nil
			}

			nodesMutex.Lock()
			defer nodesMutex.Unlock()
			nodes = append(nodes, &healthyNode{
				client: client,
				rpc:    rpc,
				height: block.Number().Int64(),
			})
			return nil
		})
	}

	group.Wait()

	if len(nodes) == 0 {
		return rpcs, clients, healthies
	}

	// Sorts all nodes by height
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].height > nodes[j].height
	})

	// Only select nodes within a certain height from the median
	height := nodes[len(nodes)/2].height
	for _, node := range nodes {
		if numberutil.AbsInt64(node.height-height) < 5 {
			rpcs = append(rpcs, node.rpc)
			clients = append(clients, node.client)
			healthies = append(healthies, true)
		} else {
			node.client.Close()
		}
	}

	xcontext.Logger(ctx).Infof("Healthy rpcs for chain %s: %s", c.chain, rpcs)

	return rpcs, clients, healthies
}

func (c *defaultEthClient) processData(text string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	var data string
	for {
		tokenType := tokenizer.Next()
		stop := false
		switch tokenType {
		case html.ErrorToken:
			stop = true

		case html.TextToken:
			text := tokenizer.Token().Data
			var js json.RawMessage
			if json.Unmarshal([]byte(text), &js) == nil {
				data = text
			}
		}

		if stop {
			break
		}
	}

	type result struct {
		Props struct {
			PageProps struct {
				Chain struct {
					Name string `json:"name"`
					RPC  []struct {
						Url string `json:"url"`
					} `json:"rpc"`
				} `json:"chain"`
			} `json:"pageProps"`
		} `json:"props"`
	}

	r := &result{}
	if err := json.Unmarshal([]byte(data), r); err != nil {
		return nil
	}

	ret := make([]string, 0)
	for _, rpc := range r.Props.PageProps.Chain.RPC {
		ret = append(ret, rpc.Url)
	}

	return ret
}

func (c *defaultEthClient) GetExtraRpcs(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("https://chainlist.org/chain/%d", c.chainID)
	xcontext.Logger(ctx).Infof("Getting extra rpcs status from remote link %s for chain %s",
		url, c.chain)

	res, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("failed to get chain list data, status code = %d", res.StatusCode)
	}

	bz, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	return c.processData(string(bz)), nil
}

func (c *defaultEthClient) shuffle() ([]*ethclient.Client, []bool, []string) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	n := len(c.clients)
	if n == 0 {
		return nil, nil, nil
	}

	clients := make([]*ethclient.Client, n)
	healthy := make([]bool, n)
	rpcs := make([]string, n)

	copy(clients, c.clients)
	copy(healthy, c.healthies)
	copy(rpcs, c.rpcs)

	for i := 0; i < MaxShuffleTimes; i++ {
		x := rand.Intn(n)
		y := rand.Intn(n)

		clients[x], clients[y] = clients[y], clients[x]
		healthy[x], healthy[y] = healthy[y], healthy[x]
		rpcs[x], rpcs[y] = rpcs[y], rpcs[x]
	}

	return clients, healthy, rpcs
}

func (c *defaultEthClient) getHealthyClient(ctx context.Context) (*ethclient.Client, string) {
	c.mutex.RLock()
	if c.clients == nil {
		c.mutex.RUnlock()
		c.updateRpcs(ctx)
	} else {
		c.mutex.RUnlock()
	}

	// Shuffle rpcs so that we will use different healthy rpc
	clients, healthies, rpcs := c.shuffle()
	for i, healthy := range healthies {
		if healthy {
			return clients[i], rpcs[i]
		}
	}

	return nil, ""
}

func (c *defaultEthClient) execute(ctx context.Context, f func(client *ethclient.Client, rpc string) (any, error)) (any, error) {
	client, rpc := c.getHealthyClient(ctx)
	if client == nil {
		return nil, fmt.Errorf("no healthy RPC for chain %s", c.chain)
	}

	return f(client, rpc)
}

func (c *defaultEthClient) BlockNumber(ctx context.Context) (uint64, error) {
	num, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		return client.BlockNumber(ctx)
	})

	if err != nil {
		return 0, err
	}

	return num.(uint64), nil
}

func (c *defaultEthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	receipt, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		return client.TransactionReceipt(ctx, txHash)
	})

	if err != nil {
		return nil, err
	}

	return receipt.(*ethtypes.Receipt), nil
}

func (c *defaultEthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	gas, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		return client.SuggestGasPrice(ctx)
	})

	if err != nil {
		return nil, err
	}

	return gas.(*big.Int), nil
}

func (c *defaultEthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		return client.PendingNonceAt(ctx, account)
	})

	if err != nil {
		return 0, err
	}

	return nonce.(uint64), nil
}

func (c *defaultEthClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	_, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		return 0, client.SendTransaction(ctx, tx)
	})

	return err
}

func (c *defaultEthClient) BalanceAt(ctx context.Context, from common.Address, block *big.Int) (*big.Int, error) {
	balance, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		balance, err := client.BalanceAt(ctx, from, block)
		if err == nil && balance != nil && balance.Cmp(big.NewInt(0)) == 0 {
			xcontext.Logger(ctx).Warnf("Balance is 0 for using URL %s", rpc)
		}

		return balance, err
	})

	if err != nil {
		return nil, err
	}

	return balance.(*big.Int), nil
}

func (c *defaultEthClient) GetSignedTransferTokenTx(
	ctx context.Context,
	token *entity.BlockchainToken,
	recipient common.Address,
	amount float64,
) (*ethtypes.Transaction, error) {
	signedTx, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		tokenInstance, err := erc20.NewErc20(common.HexToAddress(token.Address), client)
		if err != nil {
			return nil, err
		}

		treasuryPrivateKey, err := c.treasuryKey(ctx)
		if err != nil {
			return nil, err
		}

		return tokenInstance.Transfer(
			c.TransactionOpts(ctx, treasuryPrivateKey, common.Big0),
			recipient,
			big.NewInt(int64(amount*math.Pow10(token.Decimals))),
		)
	})
	if err != nil {
		return nil, err
	}

	return signedTx.(*ethtypes.Transaction), nil
}

func (c *defaultEthClient) GetSignedTransferNftTx(
	ctx context.Context,
	collection string,
	recipient common.Address,
	tokenID int64,
) (*ethtypes.Transaction, error) {
	signedTx, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		collectionInstance, err := erc721.NewErc721(common.HexToAddress(collection), client)
		if err != nil {
			return nil, err
		}

		treasuryPrivateKey, err := c.treasuryKey(ctx)
		if err != nil {
			return nil, err
		}

		treasuryAddress := crypto.PubkeyToAddress(treasuryPrivateKey.PublicKey)
		return collectionInstance.SafeTransferFrom(
			c.TransactionOpts(ctx, treasuryPrivateKey, common.Big0),
			treasuryAddress,
			recipient,
			big.NewInt(tokenID),
		)
	})
	if err != nil {
		return nil, err
	}

	return signedTx.(*ethtypes.Transaction), nil
}

func (c *defaultEthClient) GetSignedTransferCollectibleTx(
	ctx context.Context,
	collection string,
	recipient common.Address,
	tokenID int64,
	amount int,
) (*ethtypes.Transaction, error) {
	signedTx, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		collectionInstance, err := erc1155.NewErc1155(common.HexToAddress(collection), client)
		if err != nil {
			return nil, err
		}

		treasuryPrivateKey, err := c.treasuryKey(ctx)
		if err != nil {
			return nil, err
		}

		treasuryAddress := crypto.PubkeyToAddress(treasuryPrivateKey.PublicKey)
		return collectionInstance.SafeTransferFrom(
			c.TransactionOpts(ctx, treasuryPrivateKey, common.Big0),
			treasuryAddress,
			recipient,
			big.NewInt(tokenID),
			big.NewInt(int64(amount)),
			nil,
		)
	})
	if err != nil {
		return nil, err
	}

	return signedTx.(*ethtypes.Transaction), nil
}

func (c *defaultEthClient) treasuryKey(ctx context.Context) (*ecdsa.PrivateKey, error) {
	secret := xcontext.Configs(ctx).Blockchain.SecretKey
	return ethutil.GeneratePrivateKey([]byte(secret), []byte(c.chain))
}

func (c *defaultEthClient) TransactionOpts(
	ctx context.Context, fromPrivateKey *ecdsa.PrivateKey, value *big.Int,
) *bind.TransactOpts {
	return &bind.TransactOpts{
		From: crypto.PubkeyToAddress(fromPrivateKey.PublicKey),
		Signer: func(a common.Address, t *ethtypes.Transaction) (*ethtypes.Transaction, error) {
			signedTx, err := ethtypes.SignTx(t, ethtypes.NewEIP155Signer(c.chainID), fromPrivateKey)
			if err != nil {
				return nil, err
			}
			return signedTx, nil
		},
		Value:  value,
		NoSend: true,
	}
}

func (c *defaultEthClient) ERC20TokenInfo(ctx context.Context, address string) (types.TokenInfo, error) {
	info, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		tokenInstance, err := erc20.NewErc20(common.HexToAddress(address), client)
		if err != nil {
			return nil, err
		}

		symbol, err := tokenInstance.Symbol(nil)
		if err != nil {
			return nil, err
		}

		decimals, err := tokenInstance.Decimals(nil)
		if err != nil {
			return nil, err
		}

		name, err := tokenInstance.Name(nil)
		if err != nil {
			return nil, err
		}

		return types.TokenInfo{Name: name, Symbol: symbol, Decimals: int(decimals)}, nil
	})

	if err != nil {
		return types.TokenInfo{}, err
	}

	return info.(types.TokenInfo), nil
}

func (c *defaultEthClient) ERC20BalanceOf(ctx context.Context, tokenAddress, accountAddress string) (*big.Int, error) {
	balance, err := c.execute(ctx, func(client *ethclient.Client, rpc string) (any, error) {
		tokenInstance, err := erc20.NewErc20(common.HexToAddress(tokenAddress), client)
		if err != nil {
			return nil, err
		}

		return tokenInstance.BalanceOf(nil, common.HexToAddress(accountAddress))
	})

	if err != nil {
		return nil, err
	}

	return balance.(*big.Int), nil
}
