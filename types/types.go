package types

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ChainID names one side of the bridge. It selects an RPC endpoint
// and an entry in the contract descriptor.
type ChainID string

const (
	ChainSource      ChainID = "source"
	ChainDestination ChainID = "destination"
)

// Chains lists the recognized identifiers, source first.
var Chains = []ChainID{ChainSource, ChainDestination}

func ParseChainID(s string) (ChainID, error) {
	switch ChainID(s) {
	case ChainSource, ChainDestination:
		return ChainID(s), nil
	}
	return "", Wrapf(ErrConfig, "invalid chain %q, must be %q or %q", s, ChainSource, ChainDestination)
}

func (c ChainID) Valid() bool {
	return c == ChainSource || c == ChainDestination
}

// Counterpart returns the chain a relayed call is sent to.
func (c ChainID) Counterpart() (ChainID, error) {
	switch c {
	case ChainSource:
		return ChainDestination, nil
	case ChainDestination:
		return ChainSource, nil
	}
	return "", Wrapf(ErrConfig, "invalid chain %q", string(c))
}

func (c ChainID) String() string { return string(c) }

type EventKind string

const (
	KindDeposit EventKind = "Deposit"
	KindUnwrap  EventKind = "Unwrap"
)

// KindFor returns the event kind watched on a chain:
// deposits are locked on source, unwraps are burned on destination.
func KindFor(chain ChainID) (EventKind, error) {
	switch chain {
	case ChainSource:
		return KindDeposit, nil
	case ChainDestination:
		return KindUnwrap, nil
	}
	return "", Wrapf(ErrConfig, "no event kind for chain %q", string(chain))
}

// InterfaceSchema is the contract ABI exactly as found in the descriptor.
type InterfaceSchema json.RawMessage

type ContractInfo struct {
	Chain   ChainID
	Schema  InterfaceSchema
	ABI     abi.ABI
	Address common.Address // checksummed on load
}

// BlockRange is inclusive on both ends.
type BlockRange struct {
	From uint64
	To   uint64
}

func (r BlockRange) Validate() error {
	if r.To < r.From {
		return Wrapf(ErrRange, "to block %d is before from block %d", r.To, r.From)
	}
	return nil
}

// Span is the number of blocks in a valid range.
func (r BlockRange) Span() uint64 {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

func (r BlockRange) Contains(block uint64) bool {
	return block >= r.From && block <= r.To
}

// HeadReading is one observation of a chain head. Heads of different
// chains are read separately and are not a consistent snapshot.
type HeadReading struct {
	Chain      ChainID
	Block      uint64
	ObservedAt time.Time
}

// BridgeEvent is a decoded Deposit or Unwrap log.
// Token holds token/underlying_token, Recipient holds recipient/to.
type BridgeEvent struct {
	Kind        EventKind
	Chain       ChainID
	Token       common.Address
	Recipient   common.Address
	Amount      *big.Int
	TxHash      common.Hash
	Contract    common.Address
	BlockNumber uint64
	LogIndex    uint
	ObservedAt  time.Time
}

// RelayAction is the counterpart-chain call mirroring one event.
type RelayAction struct {
	TargetChain ChainID
	Function    string
	Args        []interface{}
	Source      BridgeEvent
}

// Relay operation statuses
const (
	StatusSent    = "sent"    // destination transaction broadcast
	StatusFailed  = "failed"  // mapping or submission failed
	StatusSkipped = "skipped" // source event already relayed by an earlier run
)

// RelayOperation is the persisted outcome of relaying one event.
type RelayOperation struct {
	ID             string
	Status         string
	Kind           EventKind
	SourceChain    ChainID
	DestChain      ChainID
	TsFound        int64
	Token          string
	Recipient      string
	Amount         string // base units
	SourceTxHash   string
	SourceLogIndex uint
	SourceBlock    uint64
	DestFunction   string
	DestTxHash     string // empty when broadcast failed
	Message        string // error text for failed operations
}
