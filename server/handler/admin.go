package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"ahadchat/server/model"
	"ahadchat/server/room"
)

func HandleStats(rm *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := rm.Stats(r.Context(), sessionFrom(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// HandleClear answers 202 while the confirmation is pending and 200 once the
// history is gone.
func HandleClear(rm *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := rm.ClearAll(r.Context(), sessionFrom(r))
		if err != nil {
			writeJSON(w, statusFor(err), view)
			return
		}
		status := http.StatusOK
		if view.Admin != nil && view.Admin.ConfirmClearPending {
			status = http.StatusAccepted
		}
		writeJSON(w, status, view)
	}
}

func HandleKeep(rm *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.KeepRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		view, err := rm.KeepLast(r.Context(), sessionFrom(r), req.Keep)
		writeJSON(w, statusFor(err), view)
	}
}

// HandleExport sends the full history as a JSON attachment.
func HandleExport(rm *room.Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exp, err := rm.Export(r.Context(), sessionFrom(r))
		if err != nil {
			writeError(w, err)
			return
		}

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(exp); err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+exp.FileName+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}
