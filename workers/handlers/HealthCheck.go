package handlers

import (
	"log"
	"net/http"

	"goomnicbridge/redis"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	// without the journal nothing can be queued
	if err := redis.Ping(); err != nil {
		log.Printf("Health check, Redis error: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Redis unavailable",
		}, http.StatusServiceUnavailable)
		return
	}

	responseJSON(w, &APIResponse{
		Status: "ok",
	}, http.StatusOK)
}
