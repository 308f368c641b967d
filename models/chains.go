package models

import "strings"

// SupportedChainID enumerates the chains the limit order manager is deployed on or was
// tested against.
type SupportedChainID uint64

const (
	Mainnet         SupportedChainID = 1
	Ropsten         SupportedChainID = 3
	Rinkeby         SupportedChainID = 4
	Goerli          SupportedChainID = 5
	Kovan           SupportedChainID = 42
	Base            SupportedChainID = 8453
	ArbitrumOne     SupportedChainID = 42161
	ArbitrumRinkeby SupportedChainID = 421611
	Optimism        SupportedChainID = 10
	OptimisticKovan SupportedChainID = 69
	Polygon         SupportedChainID = 137
	PolygonMumbai   SupportedChainID = 80001
)

// AllSupportedChainIDs are the chains orders can be placed on.
var AllSupportedChainIDs = []SupportedChainID{
	Mainnet,
	Kovan,
	ArbitrumOne,
	ArbitrumRinkeby,
	Optimism,
	OptimisticKovan,
	Base,
	Polygon,
	PolygonMumbai,
}

// IsSupportedChain reports whether orders can be placed on the chain.
func IsSupportedChain(chainID uint64) bool {
	for _, id := range AllSupportedChainIDs {
		if uint64(id) == chainID {
			return true
		}
	}
	return false
}

// ChainName maps chain ids to the network names aggregators use.
var ChainName = map[uint64]string{
	1:          "ethereum",
	42161:      "arbitrum",
	10:         "optimism",
	137:        "polygon",
	56:         "bsc",
	43114:      "avalanche",
	250:        "fantom",
	1666600000: "harmony",
	25:         "cronos",
	1313161554: "aurora",
	1285:       "moonriver",
	1284:       "moonbeam",
	1088:       "metis",
	100:        "xdai",
	128:        "heco",
	10000:      "smartbch",
	421611:     "arbitrumrinkeby",
	42:         "kovan",
	8453:       "base",
}

// UniswapProtocols returns the 1inch protocol filter restricting routes to Uniswap pools
// on the given chain, or "" when the chain has no known name.
func UniswapProtocols(chainID uint64) string {
	name, ok := ChainName[chainID]
	if !ok {
		return ""
	}
	if name == "ethereum" {
		return "UNISWAP_V2,UNISWAP_V3"
	}
	upper := strings.ToUpper(name)
	return upper + "_UNISWAP_V2," + upper + "_UNISWAP_V3"
}
