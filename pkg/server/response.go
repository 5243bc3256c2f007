// Package server is a thin HTTP boundary around a *funck.Manager,
// translating HTTP requests into Manager calls and Manager results back
// into HTTP responses. None of the deployment/compile/invoke logic lives
// here.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type message struct {
	Message string `json:"message"`
}

type errorMessage struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Warn("failed to encode response body")
	}
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, message{Message: "OK"})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorMessage{Error: err.Error()})
}
