package handler

import (
	"net/http"
	"time"

	"ahadchat/server/room"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Backend   string    `json:"backend"`
	Variant   string    `json:"variant"`
	Sessions  int       `json:"sessions"`
	Timestamp time.Time `json:"timestamp"`
}

func HandleHealth(manager *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, variant := manager.Room().Backend()
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:    "UP",
			Backend:   name,
			Variant:   variant.String(),
			Sessions:  manager.Len(),
			Timestamp: time.Now(),
		})
	}
}
