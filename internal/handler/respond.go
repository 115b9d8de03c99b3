package handler

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/pkordes/formflow/internal/flash"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// drainFlashes takes the pending flashes of the request's session. A store
// failure is logged and shows as no flashes.
func (s *Server) drainFlashes(r *http.Request) []flash.Message {
	msgs, err := flash.FromContext(r.Context()).Drain(r.Context())
	if err != nil {
		s.log.WarnContext(r.Context(), "flash drain failed", "error", err)
	}
	if msgs == nil {
		msgs = []flash.Message{}
	}
	return msgs
}
