package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"ahadchat/server/room"
)

// NewRouter wires every endpoint behind the recovery, access log and session
// middleware.
func NewRouter(manager *room.Manager, logger *zap.SugaredLogger) *mux.Router {
	rm := manager.Room()

	r := mux.NewRouter()
	r.Use(Recovery(logger), AccessLog(logger))
	r.HandleFunc("/health", HandleHealth(manager)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(Sessions(manager))
	api.HandleFunc("/login", HandleLogin(rm)).Methods(http.MethodPost)
	api.HandleFunc("/logout", HandleLogout(rm)).Methods(http.MethodPost)
	api.HandleFunc("/messages", HandleRefresh(rm)).Methods(http.MethodGet)
	api.HandleFunc("/messages", HandleSend(rm)).Methods(http.MethodPost)
	api.HandleFunc("/live", HandleLive(rm, logger)).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/stats", HandleStats(rm)).Methods(http.MethodGet)
	admin.HandleFunc("/clear", HandleClear(rm)).Methods(http.MethodPost)
	admin.HandleFunc("/keep", HandleKeep(rm)).Methods(http.MethodPost)
	admin.HandleFunc("/export", HandleExport(rm)).Methods(http.MethodGet)

	return r
}
