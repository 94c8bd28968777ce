package wallet

import "fmt"

// Network はチェーンの表示用情報
type Network struct {
	ChainID      uint64
	Name         string
	NativeSymbol string
	Testnet      bool
}

var knownNetworks = map[uint64]Network{
	1:        {ChainID: 1, Name: "Ethereum", NativeSymbol: "ETH"},
	5:        {ChainID: 5, Name: "Goerli", NativeSymbol: "ETH", Testnet: true},
	11155111: {ChainID: 11155111, Name: "Sepolia", NativeSymbol: "ETH", Testnet: true},
	137:      {ChainID: 137, Name: "Polygon", NativeSymbol: "MATIC"},
	80001:    {ChainID: 80001, Name: "Mumbai", NativeSymbol: "MATIC", Testnet: true},
	80002:    {ChainID: 80002, Name: "Amoy", NativeSymbol: "POL", Testnet: true},
}

// LookupNetwork は既知のネットワークを返す
func LookupNetwork(chainID uint64) (Network, bool) {
	n, ok := knownNetworks[chainID]
	return n, ok
}

// NetworkName はログ・表示用の名前
func NetworkName(chainID uint64) string {
	if n, ok := knownNetworks[chainID]; ok {
		return n.Name
	}
	return fmt.Sprintf("chain-%d", chainID)
}
