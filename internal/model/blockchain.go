package model

type Blockchain struct {
	Name           string `json:"name"`
	ID             int64  `json:"id"`
	UseExternalRPC bool   `json:"use_external_rpc"`
	UseEip1559     bool   `json:"use_eip_1559"`
	BlockTime      int    `json:"block_time"`
}

// Create Blockchain
type CreateBlockchainRequest struct {
	Name           string `json:"name"`
	ChainID        int64  `json:"chain_id"`
	UseExternalRPC bool   `json:"use_external_rpc"`
	UseEip1559     bool   `json:"use_eip_1559"`
	BlockTime      int    `json:"block_time"`
}

type CreateBlockchainResponse struct{}

// Create Blockchain Connection
type CreateBlockchainConnectionRequest struct {
	Chain string   `json:"chain"`
	Type  string   `json:"type"`
	URLs  []string `json:"urls"`
}

type CreateBlockchainConnectionResponse struct{}

// Create Blockchain Token
type CreateBlockchainTokenRequest struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
}

type CreateBlockchainTokenResponse struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}
