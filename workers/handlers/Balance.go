package handlers

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"

	"gowrapbridge/EVMRPC"
	"gowrapbridge/types"
)

// RelayerAddress is the account relay transactions are sent from.
var RelayerAddress common.Address

var balanceOf = func(ctx context.Context, chain types.ChainID, account common.Address) (*big.Int, error) {
	return EVMRPC.WithClient(
		ctx, chain, func(client *ethclient.Client) (*big.Int, error) {
			return client.BalanceAt(ctx, account, nil)
		},
	)
}

// Balance reports the native balance the relayer has left for gas on a chain.
func Balance(w http.ResponseWriter, r *http.Request) {
	chain, err := types.ParseChainID(chi.URLParam(r, "chain"))
	if err != nil {
		responseJSON(w, &APIResponse{Status: "error", Message: "unknown chain", Field: "chain"}, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	wei, err := balanceOf(ctx, chain, RelayerAddress)
	if err != nil {
		log.Printf("Error getting %s balance: %s", chain, err.Error())
		responsePlain(w, []byte("error"), http.StatusInternalServerError)
		return
	}

	responseJSON(w, &APIBalanceResponse{
		Chain:   chain.String(),
		Address: RelayerAddress.Hex(),
		Wei:     wei.String(),
		Ether:   weiToEther(wei),
	}, http.StatusOK)
}

func weiToEther(wei *big.Int) string {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return f.Text('f', 6)
}
