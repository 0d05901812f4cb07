package handlers

import (
	"net/http"

	"gowrapbridge/redis"
)

var pingRedis = redis.Ping

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := pingRedis(); err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "redis unavailable",
			Field:   "redis",
		}, http.StatusServiceUnavailable)
		return
	}
	responseJSON(w, &APIResponse{
		Status: "ok",
	}, http.StatusOK)
}
