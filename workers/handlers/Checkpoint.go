package handlers

import (
	"net/http"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"

	"gowrapbridge/redis"
	"gowrapbridge/types"
)

var scannedBlock = redis.GetScannedBlock

func Checkpoint(w http.ResponseWriter, r *http.Request) {
	chain, err := types.ParseChainID(chi.URLParam(r, "chain"))
	if err != nil {
		responseJSON(w, &APIResponse{Status: "error", Message: "unknown chain", Field: "chain"}, http.StatusBadRequest)
		return
	}
	kind, _ := types.KindFor(chain)

	block, err := scannedBlock(chain, kind)
	if err != nil {
		log.Printf("Error reading %s checkpoint: %s", chain, err.Error())
		responseJSON(w, nil, http.StatusInternalServerError)
		return
	}

	resp := &APICheckpointResponse{Chain: chain.String(), Kind: string(kind)}
	if block >= 0 {
		b := uint64(block)
		resp.Block = &b
	}
	responseJSON(w, resp, http.StatusOK)
}
