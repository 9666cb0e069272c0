// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package web

import (
	"net/http"
	"time"
)

type healthJSON struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// handleHealth always answers ok. It touches no storage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, healthJSON{
		Status:    "ok",
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}
