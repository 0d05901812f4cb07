package handlers

import (
	"net/http"

	"gowrapbridge/config"
	"gowrapbridge/types"
)

// State lists the chains the relayer bridges and the account it signs with.
func State(w http.ResponseWriter, r *http.Request) {
	chains := make([]APIChainState, 0, len(types.Chains))
	for _, chain := range types.Chains {
		cfg, err := config.Chain(chain)
		if err != nil {
			responseJSON(w, &APIStateResponse{Status: "error", Message: err.Error()}, http.StatusInternalServerError)
			return
		}
		kind, _ := types.KindFor(chain)
		chains = append(chains, APIChainState{ID: chain.String(), Name: cfg.Name, ChainID: cfg.ChainID, Watches: string(kind)})
	}

	responseJSON(w, &APIStateResponse{
		Status:  "ok",
		Relayer: RelayerAddress.Hex(),
		Chains:  chains,
	}, http.StatusOK)
}
