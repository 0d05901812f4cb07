package EVMRPC

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"gowrapbridge/config"
	"gowrapbridge/types"
)

// ChainHandle is an open connection to one side of the bridge.
// Log filtering, nonce, gas price and broadcast go through the embedded client.
type ChainHandle struct {
	*ethclient.Client

	chain types.ChainID
	cfg   config.ChainConfig
	url   string
}

// upper bound of a single probe or raw call when the caller sets no deadline
const rpcTimeout = 30 * time.Second

// Connect opens a handle to the configured endpoint of chain.
func Connect(ctx context.Context, chain types.ChainID) (*ChainHandle, error) {
	cfg, err := config.Chain(chain)
	if err != nil {
		return nil, err
	}
	return Dial(ctx, chain, cfg)
}

// Dial tries every endpoint of cfg in order and keeps the first that answers
// eth_chainId with the configured chain id.
func Dial(ctx context.Context, chain types.ChainID, cfg config.ChainConfig) (*ChainHandle, error) {
	var lastErr error
	for _, url := range cfg.RPCList {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			log.Printf("Error connecting to %s: %s", url, err.Error())
			lastErr = err
			continue
		}

		// http dials are lazy, only a call tells whether the endpoint is up
		if err := probe(ctx, client, cfg); err != nil {
			log.Printf("Error probing %s: %s", url, err.Error())
			client.Close()
			lastErr = err
			continue
		}

		return &ChainHandle{
			Client: client,
			chain:  chain,
			cfg:    cfg,
			url:    url,
		}, nil
	}
	if lastErr == nil {
		return nil, types.Wrapf(types.ErrConfig, "no RPC endpoint for chain %q", chain.String())
	}
	return nil, errors.Wrapf(lastErr, "connect to %s", cfg.Name)
}

func probe(ctx context.Context, client *ethclient.Client, cfg config.ChainConfig) error {
	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	id, err := client.ChainID(ctx)
	if err != nil {
		return err
	}
	if cfg.ChainID != 0 && id.Int64() != cfg.ChainID {
		return types.Wrapf(types.ErrConfig, "endpoint serves chain id %s, %s is %d", id.String(), cfg.Name, cfg.ChainID)
	}
	return nil
}

func (h *ChainHandle) ID() types.ChainID { return h.chain }

func (h *ChainHandle) Name() string { return h.cfg.Name }

func (h *ChainHandle) URL() string { return h.url }

// SignerChainID is the EIP-155 chain id transactions are signed for.
func (h *ChainHandle) SignerChainID() *big.Int { return big.NewInt(h.cfg.ChainID) }

// Head reads the current block height and stamps it with the local time.
func (h *ChainHandle) Head(ctx context.Context) (types.HeadReading, error) {
	var number uint64
	if h.cfg.POA {
		header, err := h.poaHeaderByNumber(ctx, "latest")
		if err != nil {
			return types.HeadReading{}, err
		}
		number = uint64(header.Number)
	} else {
		header, err := h.Client.HeaderByNumber(ctx, nil)
		if err != nil {
			return types.HeadReading{}, errors.Wrapf(err, "read %s head", h.cfg.Name)
		}
		number = header.Number.Uint64()
	}

	return types.HeadReading{
		Chain:      h.chain,
		Block:      number,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// poaHeader keeps only the fields the relayer needs. Proof-of-authority
// chains put signer data in extraData, which is accepted at any length here.
type poaHeader struct {
	Number    hexutil.Uint64 `json:"number"`
	Timestamp hexutil.Uint64 `json:"timestamp"`
	Extra     hexutil.Bytes  `json:"extraData"`
}

// rawClient bounds the call by the ctx deadline, jsonrpc takes no context.
func (h *ChainHandle) rawClient(ctx context.Context) jsonrpc.RPCClient {
	timeout := rpcTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		// a zero http.Client timeout would mean no limit
		timeout = time.Nanosecond
	}
	return jsonrpc.NewClientWithOpts(h.url, &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: timeout},
	})
}

func (h *ChainHandle) poaHeaderByNumber(ctx context.Context, block string) (*poaHeader, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s block %s", h.cfg.Name, block)
	}

	var header *poaHeader
	err := h.rawClient(ctx).CallFor(&header, "eth_getBlockByNumber", block, false)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s block %s", h.cfg.Name, block)
	}
	if header == nil {
		return nil, errors.Errorf("%s block %s not found", h.cfg.Name, block)
	}
	return header, nil
}

// WithClient runs f against each endpoint of chainId until one succeeds.
func WithClient[T any](ctx context.Context, chainId types.ChainID, f func(client *ethclient.Client) (T, error)) (res T, err error) {
	cfg, err := config.Chain(chainId)
	if err != nil {
		return res, err
	}

	var client *ethclient.Client
	for _, url := range cfg.RPCList {
		client, err = ethclient.DialContext(ctx, url)
		if err != nil {
			log.Printf("Error connecting to %s: %s", url, err.Error())
			continue
		}

		res, err = f(client)
		client.Close()
		if err == nil {
			return
		}
		log.Printf("Error calling %s: %s", url, err.Error())
	}
	return
}
