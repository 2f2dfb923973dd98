package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kumanda-app/kumanda/internal/system"
)

type volumeRequest struct {
	Level *int `json:"level"`
}

type audioStatusResponse struct {
	Volume int  `json:"volume"`
	Muted  bool `json:"muted"`
}

func (s *APIServer) handleAudioStatus(w http.ResponseWriter, r *http.Request) {
	volume, err := s.caps.Audio.Volume()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read volume: %v", err))
		return
	}
	muted, err := s.caps.Audio.Muted()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read mute state: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, audioStatusResponse{Volume: volume, Muted: muted})
}

// handleSetVolume validates the level before touching the adapter. Out of
// range input is rejected; the mixer is never asked to clamp.
func (s *APIServer) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Level == nil {
		writeError(w, http.StatusUnprocessableEntity, "body must be JSON with integer field \"level\"")
		return
	}
	level := *req.Level
	if level < 0 || level > 100 {
		writeError(w, http.StatusUnprocessableEntity, "level must be between 0 and 100")
		return
	}

	if err := s.caps.Audio.SetVolume(level); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to set volume: %v", err))
		return
	}

	muted, err := s.caps.Audio.Muted()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read mute state: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, audioStatusResponse{Volume: level, Muted: muted})
}

func (s *APIServer) handleToggleMute(w http.ResponseWriter, r *http.Request) {
	muted, err := s.caps.Audio.ToggleMute()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to toggle mute: %v", err))
		return
	}
	volume, err := s.caps.Audio.Volume()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read volume: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"muted": muted, "volume": volume})
}

func (s *APIServer) handleMediaKey(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	key, ok := system.ParseMediaKey(action)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown media action %q", action))
		return
	}

	if err := s.caps.Input.PressMediaKey(key); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to press media key: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"action": action})
}
