package relay

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	log "github.com/sirupsen/logrus"

	"gowrapbridge/config"
	"gowrapbridge/types"
)

// TxBackend is the chain access a submission needs.
type TxBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	SignerChainID() *big.Int
}

// FeeStrategy decides the gas limit and gas price bid of a relay transaction.
type FeeStrategy interface {
	Fees(ctx context.Context, backend TxBackend) (gasLimit uint64, gasPrice *big.Int, err error)
}

// FixedFeeStrategy bids a fixed gas limit at a percentage of the suggested gas price.
type FixedFeeStrategy struct {
	GasLimit        uint64
	GasPricePercent int64
}

func DefaultFeeStrategy() FixedFeeStrategy {
	return FixedFeeStrategy{GasLimit: config.RELAY_GAS_LIMIT, GasPricePercent: 100}
}

func (s FixedFeeStrategy) Fees(ctx context.Context, backend TxBackend) (uint64, *big.Int, error) {
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return 0, nil, err
	}
	if s.GasPricePercent > 0 && s.GasPricePercent != 100 {
		gasPrice = new(big.Int).Mul(gasPrice, big.NewInt(s.GasPricePercent))
		gasPrice.Div(gasPrice, big.NewInt(100))
	}
	gasLimit := s.GasLimit
	if gasLimit == 0 {
		gasLimit = config.RELAY_GAS_LIMIT
	}
	return gasLimit, gasPrice, nil
}

type Submitter struct {
	Fee FeeStrategy
}

func NewSubmitter(fee FeeStrategy) *Submitter {
	if fee == nil {
		fee = DefaultFeeStrategy()
	}
	return &Submitter{Fee: fee}
}

// Submit signs action for contract with key and broadcasts it through backend.
// Nothing is sent before the signed transaction is complete; the returned
// hash is not waited on.
func (s *Submitter) Submit(ctx context.Context, backend TxBackend, contract types.ContractInfo, action types.RelayAction, key *ecdsa.PrivateKey) (string, error) {
	chainID := backend.SignerChainID()
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return "", types.WrapCause(types.ErrSubmission, err, "instantiate transactor")
	}

	input, err := contract.ABI.Pack(action.Function, action.Args...)
	if err != nil {
		return "", types.WrapCause(types.ErrSubmission, err, "encode "+action.Function+" call")
	}

	nonce, err := backend.PendingNonceAt(ctx, auth.From)
	if err != nil {
		return "", types.WrapCause(types.ErrSubmission, err, "get nonce for "+auth.From.Hex())
	}

	gasLimit, gasPrice, err := s.Fee.Fees(ctx, backend)
	if err != nil {
		return "", types.WrapCause(types.ErrSubmission, err, "get gas price")
	}

	to := contract.Address
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     input,
	})

	signedTx, err := auth.Signer(auth.From, tx)
	if err != nil {
		return "", types.WrapCause(types.ErrSubmission, err, "sign "+action.Function+" transaction")
	}

	log.Printf("Sending %s() to %s on %s: nonce %d, gas %d, gas price %s", action.Function, to.Hex(), action.TargetChain, nonce, gasLimit, gasPrice.String())

	err = backend.SendTransaction(ctx, signedTx)
	if err != nil {
		msg := "broadcast " + action.Function + " transaction"
		if isNonceError(err) {
			msg += " (stale nonce)"
		}
		return "", types.WrapCause(types.ErrSubmission, err, msg)
	}

	return signedTx.Hash().Hex(), nil
}

func isNonceError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "nonce too low") || strings.Contains(s, "replacement transaction underpriced") || strings.Contains(s, "already known")
}
