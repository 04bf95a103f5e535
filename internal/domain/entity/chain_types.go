package entity

// ChainID identifies a target blockchain network.
type ChainID string

// Constants for the supported networks.
const (
	ChainSolana   ChainID = "solana"
	ChainEthereum ChainID = "ethereum"
	ChainBSC      ChainID = "bsc"
	ChainBase     ChainID = "base"
	ChainUnknown  ChainID = "unknown"
)

// EVMChainOrder returns the EVM chains in their fixed preference order.
// Fan-out results are always reduced by scanning this order, never by
// completion order.
func EVMChainOrder() []ChainID {
	return []ChainID{ChainEthereum, ChainBSC, ChainBase}
}

// AddressType classifies what kind of entity an address names.
type AddressType string

// Constants for known address types.
const (
	AddressTypeToken   AddressType = "token"
	AddressTypeWallet  AddressType = "wallet"
	AddressTypeUnknown AddressType = "unknown"
)

// DetectionResult is the reduced answer returned to the caller for an
// arbitrary pasted string.
type DetectionResult struct {
	Chain         *ChainID    `json:"chain"`
	AddressType   AddressType `json:"addressType"`
	IsTransaction bool        `json:"isTransaction"`
}

// EVMTokenResult reports which EVM chain, if any, recognizes an address as a
// token contract.
type EVMTokenResult struct {
	Chain   *ChainID `json:"chain"`
	IsToken bool     `json:"isToken"`
}

// Endpoints holds the ordered endpoint lists per chain, fixed at process
// start and immutable afterwards.
type Endpoints struct {
	Solana []RPCURL
	EVM    map[ChainID][]RPCURL
}

// NewEndpoints validates the raw endpoint URLs and assembles the immutable
// endpoint sets used by the detector.
func NewEndpoints(solana []string, evm map[ChainID][]string) (Endpoints, error) {
	eps := Endpoints{
		EVM: make(map[ChainID][]RPCURL, len(evm)),
	}

	for _, raw := range solana {
		u, err := NewRPCURL(raw)
		if err != nil {
			return Endpoints{}, err
		}
		eps.Solana = append(eps.Solana, u)
	}

	for chain, urls := range evm {
		list := make([]RPCURL, 0, len(urls))
		for _, raw := range urls {
			u, err := NewRPCURL(raw)
			if err != nil {
				return Endpoints{}, err
			}
			list = append(list, u)
		}
		eps.EVM[chain] = list
	}

	return eps, nil
}
