package mw

import (
	"encoding/json"
	"net/http"
)

// detailBody matches the error body the API handlers return.
type detailBody struct {
	Detail string `json:"detail"`
}

// WriteDetail writes {"detail": msg} with the given status.
func WriteDetail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(detailBody{Detail: msg})
}

// StatusDetail returns a handler answering status with its standard text as detail.
func StatusDetail(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteDetail(w, status, http.StatusText(status))
	}
}
