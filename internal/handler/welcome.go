package handler

import (
	_ "embed"
	"net/http"
)

//go:embed assets/index.html
var welcomePage []byte

// HandleWelcome serves a small static landing page describing the service.
func HandleWelcome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(welcomePage)
	}
}
