package server

import (
	"encoding/json"
	"net/http"
)

const msgBrightnessUnsupported = "Brightness control not supported on this monitor. Try adjusting manually."

type brightnessRequest struct {
	Level *int `json:"level"`
}

// handleDisplayStatus reports the current brightness. Hosts without a
// readable backlight report -1 with supported:false instead of failing.
func (s *APIServer) handleDisplayStatus(w http.ResponseWriter, r *http.Request) {
	level, err := s.caps.Display.Brightness()
	if err != nil {
		level = -1
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"brightness": level,
		"supported":  level != -1,
	})
}

// handleSetBrightness clamps the requested level into [0,100] and asks the
// adapter to apply it. Adapter failure means the hardware cannot be driven,
// which is reported as 503 with a remediation hint.
func (s *APIServer) handleSetBrightness(w http.ResponseWriter, r *http.Request) {
	var req brightnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Level == nil {
		writeError(w, http.StatusUnprocessableEntity, "body must be JSON with integer field \"level\"")
		return
	}

	level := *req.Level
	if level < 0 {
		level = 0
	} else if level > 100 {
		level = 100
	}

	if err := s.caps.Display.SetBrightness(level); err != nil {
		writeError(w, http.StatusServiceUnavailable, msgBrightnessUnsupported)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"brightness": level})
}
