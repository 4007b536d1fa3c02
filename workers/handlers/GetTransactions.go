package handlers

import (
	"net/http"

	"goomnicbridge/config"
	"goomnicbridge/redis"

	"github.com/go-chi/chi"
)

func GetSwap(w http.ResponseWriter, r *http.Request) {
	rec, err := redis.FindSwapRecordByID(chi.URLParam(r, "id"))
	if err != nil {
		responseJSON(w, nil, 500)
		return
	}
	if rec == nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "id",
			Message: "Swap not found",
		}, http.StatusNotFound)
		return
	}

	responseJSON(w, rec, 200)
}

func GetSwapsByStatus(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")
	if _, ok := config.RedisStatusSets[status]; !ok {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "status",
			Message: "Unknown swap status",
		}, http.StatusBadRequest)
		return
	}

	recs, err := redis.FindAllSwapRecordsByStatus(status)
	if err != nil {
		responseJSON(w, nil, 500)
		return
	}

	responseJSON(w, recs, 200)
}
