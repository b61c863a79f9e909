package dex

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tokenforge/liquidity/internal/rpc"
)

// TransferEventTopic is keccak256("Transfer(address,address,uint256)"),
// shared by ERC-20 and ERC-721.
var TransferEventTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

var zeroTopic = common.Hash{}

// ParseMintedPositionID scans receipt logs for the position NFT mint: a
// Transfer from the zero address emitted by the position manager. The
// indexed tokenId is the minted position id. Returns false when no such
// log is present; the mint itself may still have succeeded.
func ParseMintedPositionID(logs []rpc.Log, positionManager common.Address) (*big.Int, bool) {
	for _, l := range logs {
		if common.HexToAddress(l.Address) != positionManager {
			continue
		}
		if len(l.Topics) != 4 {
			continue
		}
		if !topicEquals(l.Topics[0], TransferEventTopic) {
			continue
		}
		// from == 0x0 means mint
		if common.HexToHash(l.Topics[1]) != zeroTopic {
			continue
		}
		return common.HexToHash(l.Topics[3]).Big(), true
	}
	return nil, false
}

func topicEquals(raw string, want common.Hash) bool {
	return strings.EqualFold(raw, want.Hex())
}
