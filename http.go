package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

type joinRequest struct {
	Room string `json:"room,omitempty"`
	Name string `json:"name,omitempty"`
}

// HandleJoin registers a new player over HTTP. The response carries the
// room id, assigned account, roster, obstacle layout, and active
// powerups; the client then attaches over /ws.
func (h *Hub) HandleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req joinRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if room := r.URL.Query().Get("room"); room != "" {
		req.Room = room
	}

	account := h.NextAccount()
	_, msg, err := h.JoinRoom(req.Room, account, req.Name)
	if err != nil {
		var full *RoomFullError
		if errors.As(err, &full) {
			http.Error(w, full.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "join failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msg)
}

// HandleHealth reports liveness.
func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

// HandleDiagnostics summarizes live rooms.
func (h *Hub) HandleDiagnostics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.DiagnosticsSnapshot())
}
