package handler

import (
	"net/http"

	"ahadchat/server/model"
	"ahadchat/server/room"
)

// Every chat endpoint answers with the session's fresh view, even on
// failure, so the client can redraw and show the error banner.

func HandleLogin(rm *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)

		var req model.LoginRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}

		view, err := rm.Login(r.Context(), sess, req.UserID, req.Password)
		writeJSON(w, statusFor(err), view)
	}
}

func HandleLogout(rm *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rm.Logout(r.Context(), sessionFrom(r)))
	}
}

func HandleRefresh(rm *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := rm.Refresh(r.Context(), sessionFrom(r))
		writeJSON(w, statusFor(err), view)
	}
}

func HandleSend(rm *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)

		var req model.SendRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}

		view, err := rm.Send(r.Context(), sess, req.Message)
		writeJSON(w, statusFor(err), view)
	}
}
