package scanner

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gowrapbridge/config"
	"gowrapbridge/types"
)

// LogFilterer is the read-only chain access the scanner needs.
type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
}

// payload field names of each event kind, in relay argument order
type eventFields struct {
	token     string
	recipient string
	amount    string
}

var kindFields = map[types.EventKind]eventFields{
	types.KindDeposit: {token: "token", recipient: "recipient", amount: "amount"},
	types.KindUnwrap:  {token: "underlying_token", recipient: "to", amount: "amount"},
}

// Now stamps decoded events; replaced in tests.
var Now = func() time.Time { return time.Now().UTC() }

// Scan prepares a lazy scan of kind events emitted by contract within rng.
// Nothing is fetched until the first call to Next.
func Scan(ctx context.Context, filterer LogFilterer, contract types.ContractInfo, kind types.EventKind, rng types.BlockRange) (*EventIterator, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	fields, ok := kindFields[kind]
	if !ok {
		return nil, types.Wrapf(types.ErrConfig, "unsupported event kind %q", string(kind))
	}
	event, ok := contract.ABI.Events[string(kind)]
	if !ok {
		return nil, types.Wrapf(types.ErrConfig, "contract %s on %s has no %s event", contract.Address.Hex(), contract.Chain.String(), string(kind))
	}

	return &EventIterator{
		ctx:      ctx,
		filterer: filterer,
		contract: contract,
		kind:     kind,
		event:    event,
		fields:   fields,
		rng:      rng,
		next:     rng.From,
		perBlock: rng.Span() > config.PER_BLOCK_THRESHOLD,
	}, nil
}

// EventIterator walks decoded events in ascending (block, log index) order.
// It is single use: once exhausted or failed it stays that way.
type EventIterator struct {
	ctx      context.Context
	filterer LogFilterer
	contract types.ContractInfo
	kind     types.EventKind
	event    abi.Event
	fields   eventFields
	rng      types.BlockRange

	next     uint64 // first block not fetched yet
	perBlock bool
	done     bool
	buf      []types.BridgeEvent

	Event types.BridgeEvent // event at the current position
	err   error
}

// Next advances to the next event, fetching the next chunk of blocks when needed.
func (it *EventIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for len(it.buf) == 0 {
		if it.done {
			return false
		}
		chunk := it.nextChunk()
		events, err := it.fetch(chunk)
		if err != nil {
			it.err = err
			it.done = true
			return false
		}
		it.buf = events
	}

	it.Event, it.buf = it.buf[0], it.buf[1:]
	return true
}

// Error returns the error that stopped the iteration, if any.
func (it *EventIterator) Error() error {
	return it.err
}

// Close drops buffered events; the iterator reports no further events.
func (it *EventIterator) Close() error {
	it.done = true
	it.buf = nil
	return nil
}

// Range is the block range being scanned.
func (it *EventIterator) Range() types.BlockRange {
	return it.rng
}

func (it *EventIterator) nextChunk() types.BlockRange {
	chunk := types.BlockRange{From: it.next, To: it.rng.To}
	if it.perBlock {
		chunk.To = it.next
	}
	if chunk.To >= it.rng.To {
		it.done = true
	} else {
		it.next = chunk.To + 1
	}
	return chunk
}

func (it *EventIterator) fetch(chunk types.BlockRange) ([]types.BridgeEvent, error) {
	logs, err := it.filterer.FilterLogs(it.ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(chunk.From),
		ToBlock:   new(big.Int).SetUint64(chunk.To),
		Addresses: []common.Address{it.contract.Address},
		Topics:    [][]common.Hash{{it.event.ID}},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get %s logs on %s blocks %d-%d", string(it.kind), it.contract.Chain.String(), chunk.From, chunk.To)
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	events := make([]types.BridgeEvent, 0, len(logs))
	for _, l := range logs {
		if l.Removed || !chunk.Contains(l.BlockNumber) {
			continue
		}
		if l.Address != it.contract.Address || len(l.Topics) == 0 || l.Topics[0] != it.event.ID {
			log.Printf("Ignoring unexpected log %s:%d from %s", l.TxHash.Hex(), l.Index, l.Address.Hex())
			continue
		}

		ev, err := it.decode(l)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (it *EventIterator) decode(l ethtypes.Log) (types.BridgeEvent, error) {
	var indexed abi.Arguments
	for _, arg := range it.event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(l.Topics) != len(indexed)+1 {
		return types.BridgeEvent{}, fmt.Errorf("log %s:%d has %d topics, %s expects %d", l.TxHash.Hex(), l.Index, len(l.Topics), it.event.Name, len(indexed)+1)
	}

	values := make(map[string]interface{})
	if err := it.event.Inputs.NonIndexed().UnpackIntoMap(values, l.Data); err != nil {
		return types.BridgeEvent{}, errors.Wrapf(err, "unpack %s data of %s", it.event.Name, l.TxHash.Hex())
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, l.Topics[1:]); err != nil {
		return types.BridgeEvent{}, errors.Wrapf(err, "parse %s topics of %s", it.event.Name, l.TxHash.Hex())
	}

	token, ok := values[it.fields.token].(common.Address)
	if !ok {
		return types.BridgeEvent{}, fmt.Errorf("%s event has no address field %q", it.event.Name, it.fields.token)
	}
	recipient, ok := values[it.fields.recipient].(common.Address)
	if !ok {
		return types.BridgeEvent{}, fmt.Errorf("%s event has no address field %q", it.event.Name, it.fields.recipient)
	}
	amount, ok := values[it.fields.amount].(*big.Int)
	if !ok {
		return types.BridgeEvent{}, fmt.Errorf("%s event has no uint field %q", it.event.Name, it.fields.amount)
	}

	return types.BridgeEvent{
		Kind:        it.kind,
		Chain:       it.contract.Chain,
		Token:       token,
		Recipient:   recipient,
		Amount:      amount,
		TxHash:      l.TxHash,
		Contract:    l.Address,
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
		ObservedAt:  Now(),
	}, nil
}

// Collect drains it into a slice.
func Collect(it *EventIterator) ([]types.BridgeEvent, error) {
	var events []types.BridgeEvent
	for it.Next() {
		events = append(events, it.Event)
	}
	return events, it.Error()
}
