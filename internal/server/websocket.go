package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/zeusync/sightline/internal/core/observability/log"
	"github.com/zeusync/sightline/internal/core/visibility"
	"github.com/zeusync/sightline/internal/scene"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamRequest is one message on /v1/stream. ID is echoed in the reply.
type StreamRequest struct {
	ID    string        `json:"id,omitempty"`
	Query scene.Request `json:"query"`
}

// StreamResponse carries either a result or an error.
type StreamResponse struct {
	ID     string             `json:"id,omitempty"`
	Result *visibility.Result `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// handleStream answers queries on a websocket until the client goes away.
// Replies arrive in request order.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.WithContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Stream upgrade failed", log.Error(err))
		return
	}
	conn.SetReadLimit(s.config.MaxBodyBytes)

	s.trackStream(conn)
	defer func() {
		s.untrackStream(conn)
		_ = conn.Close()
	}()

	logger.Debug("Stream opened", log.String("remote_addr", conn.RemoteAddr().String()))

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Stream read failed", log.Error(err))
			}
			return
		}

		var req StreamRequest
		resp := StreamResponse{}
		if err := json.Unmarshal(msg, &req); err != nil {
			resp.Error = fmt.Errorf("%w: %w", ErrInvalidMessage, err).Error()
		} else if q, err := req.Query.Query(s.config.Policy); err != nil {
			resp.ID = req.ID
			resp.Error = fmt.Errorf("%w: %w", ErrInvalidMessage, err).Error()
		} else {
			res := s.engine.ComputeVisibility(q)
			s.evaluated.Add(1)
			resp.ID, resp.Result = req.ID, &res
		}

		if err := conn.WriteJSON(resp); err != nil {
			logger.Warn("Stream write failed", log.Error(err))
			return
		}
	}
}
