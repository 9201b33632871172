package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// A streamFrame is one message on the batch-streaming WebSocket: either a
// completed run, the closing aggregate summary, or an error.
type streamFrame struct {
	Type    string           `json:"type"` // "run", "summary" or "error"
	Run     *ExecuteResponse `json:"run,omitempty"`
	Summary *BatchResponse   `json:"summary,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// handleStream upgrades the connection, reads a single BatchRequest, and
// streams each run's result as it completes, followed by a summary frame.
// The aggregate frame omits the per-run results already streamed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[stream] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var req BatchRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(streamFrame{Type: "error", Error: "invalid batch request: " + err.Error()})
		return
	}
	if err := s.validateBatch(&req); err != nil {
		conn.WriteJSON(streamFrame{Type: "error", Error: err.Error()})
		return
	}

	resp := s.executeBatch(r.Context(), req, func(run ExecuteResponse) {
		if err := conn.WriteJSON(streamFrame{Type: "run", Run: &run}); err != nil {
			log.Printf("[stream] write failed: %v", err)
		}
	})
	resp.Results = nil

	if err := conn.WriteJSON(streamFrame{Type: "summary", Summary: &resp}); err != nil {
		log.Printf("[stream] summary write failed: %v", err)
	}
}
