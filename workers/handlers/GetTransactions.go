package handlers

import (
	"net/http"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"

	"gowrapbridge/config"
	"gowrapbridge/redis"
)

var findByStatus = redis.FindAllRelayOperationsByStatus

// GetTransactions lists the relay operations with the status in the path.
func GetTransactions(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")
	if _, ok := config.RedisStatusSets[status]; !ok {
		responseJSON(w, &APIResponse{Status: "error", Message: "unknown status", Field: "status"}, http.StatusNotFound)
		return
	}

	ops, err := findByStatus(status)
	if err != nil {
		log.Printf("Error listing %s relay operations: %s", status, err.Error())
		responseJSON(w, nil, http.StatusInternalServerError)
		return
	}

	responseJSON(w, ops, http.StatusOK)
}
