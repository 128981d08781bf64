package web

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxJSONBody bounds request bodies, nothing the API accepts is large.
const maxJSONBody = 1 << 20

// messageJSON is the body shape of status-only API responses.
type messageJSON struct {
	Message string `json:"message"`
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// The header has been written, an encode error can only be logged
	// by the caller, not reported to the client.
	_ = json.NewEncoder(w).Encode(v)
}
