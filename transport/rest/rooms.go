package rest

import (
	"encoding/json"
	"net/http"
)

func (that *Server) handleRooms(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(that.rooms.ListRooms()); err != nil {
		that.logger.Error("failed to encode room list", "error", err)
	}
}
