package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// handlePredictWS answers every JSON feature request on the socket with one prediction
// or one error message, in order.
func (s *Server) handlePredictWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)
	s.stats.wsClients.Add(1)
	defer s.stats.wsClients.Add(-1)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var reply interface{}
		var req predictRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			reply = errorResponse{Error: "invalid request: " + err.Error()}
		} else if prediction, cached, err := s.predict(req.Features); err != nil {
			reply = errorResponse{Error: err.Error()}
		} else {
			reply = predictResponse{Prediction: prediction, Cached: cached}
		}

		if err := conn.WriteJSON(reply); err != nil {
			s.log.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}
