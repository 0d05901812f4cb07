package relay

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"gowrapbridge/contracts"
	"gowrapbridge/types"
)

const fixture = "../contracts/testdata/contract_info.json"

const devKey = "fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19"

var (
	tokenA  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	userB   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	wrapped = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type fakeChain struct {
	id       types.ChainID
	chainID  int64
	head     uint64
	nonce    uint64
	gasPrice int64
	logs     []ethtypes.Log

	// sendErr decides the broadcast result of the n-th (0-based) attempt
	sendErr func(n int, tx *ethtypes.Transaction) error

	attempts int
	sent     []*ethtypes.Transaction
	queries  []ethereum.FilterQuery
	closed   bool
}

func (c *fakeChain) ID() types.ChainID { return c.id }

func (c *fakeChain) Head(context.Context) (types.HeadReading, error) {
	return types.HeadReading{Chain: c.id, Block: c.head}, nil
}

func (c *fakeChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	c.queries = append(c.queries, q)
	var out []ethtypes.Log
	for _, l := range c.logs {
		if l.BlockNumber >= q.FromBlock.Uint64() && l.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (c *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return c.nonce, nil
}

func (c *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(c.gasPrice), nil
}

func (c *fakeChain) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	n := c.attempts
	c.attempts++
	if c.sendErr != nil {
		if err := c.sendErr(n, tx); err != nil {
			return err
		}
	}
	c.sent = append(c.sent, tx)
	c.nonce++
	return nil
}

func (c *fakeChain) SignerChainID() *big.Int { return big.NewInt(c.chainID) }

func (c *fakeChain) Close() { c.closed = true }

func connectorFor(chains ...*fakeChain) Connector {
	return func(_ context.Context, chain types.ChainID) (Chain, error) {
		for _, c := range chains {
			if c.id == chain {
				return c, nil
			}
		}
		return nil, fmt.Errorf("no fake for %s", chain)
	}
}

type memCheckpoints struct {
	blocks map[string]uint64
	sets   int
}

func (m *memCheckpoints) LastBlock(_ context.Context, chain types.ChainID, kind types.EventKind) (uint64, bool, error) {
	b, ok := m.blocks[chain.String()+":"+string(kind)]
	return b, ok, nil
}

func (m *memCheckpoints) SetLastBlock(_ context.Context, chain types.ChainID, kind types.EventKind, block uint64) error {
	if m.blocks == nil {
		m.blocks = make(map[string]uint64)
	}
	m.blocks[chain.String()+":"+string(kind)] = block
	m.sets++
	return nil
}

type memSink struct {
	ops []*types.RelayOperation
}

func (m *memSink) Record(_ context.Context, op *types.RelayOperation) error {
	m.ops = append(m.ops, op)
	return nil
}

func (m *memSink) Relayed(_ context.Context, ev types.BridgeEvent) (bool, error) {
	for _, op := range m.ops {
		if op.Status == types.StatusSent && op.SourceTxHash == ev.TxHash.Hex() && op.SourceLogIndex == ev.LogIndex {
			return true, nil
		}
	}
	return false, nil
}

func loadContract(t *testing.T, chain types.ChainID) types.ContractInfo {
	t.Helper()
	info, err := contracts.LoadContractInfo(fixture, chain)
	require.NoError(t, err)
	return info
}

func depositLog(t *testing.T, info types.ContractInfo, block uint64, index uint, amount int64) ethtypes.Log {
	t.Helper()
	ev := info.ABI.Events["Deposit"]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(amount))
	require.NoError(t, err)
	return ethtypes.Log{
		Address:     info.Address,
		Topics:      []common.Hash{ev.ID, common.BytesToHash(tokenA.Bytes()), common.BytesToHash(userB.Bytes())},
		Data:        data,
		BlockNumber: block,
		Index:       index,
		TxHash:      common.BigToHash(big.NewInt(int64(block*1000) + int64(index))),
	}
}

func unwrapLog(t *testing.T, info types.ContractInfo, block uint64, index uint, amount int64) ethtypes.Log {
	t.Helper()
	ev := info.ABI.Events["Unwrap"]
	data, err := ev.Inputs.NonIndexed().Pack(userB, big.NewInt(amount))
	require.NoError(t, err)
	return ethtypes.Log{
		Address: info.Address,
		Topics: []common.Hash{
			ev.ID,
			common.BytesToHash(tokenA.Bytes()),
			common.BytesToHash(wrapped.Bytes()),
			common.BytesToHash(userB.Bytes()),
		},
		Data:        data,
		BlockNumber: block,
		Index:       index,
		TxHash:      common.BigToHash(big.NewInt(int64(block*1000) + int64(index))),
	}
}

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.HexToECDSA(devKey)
	require.NoError(t, err)
	return key
}
