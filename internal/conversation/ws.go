package conversation

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format. One message is one
// user turn.
type wsRequest struct {
	UserID         string `json:"user_id"`
	Topic          string `json:"topic"`
	ConversationID string `json:"conversation_id,omitempty"`
	Prompt         string `json:"prompt"`
}

// wsResponse is the outgoing WebSocket message format. Stream replies are
// pushed one message each as they arrive ("reply"), followed by a terminal
// "done" (or "error") message for the round.
type wsResponse struct {
	Type           string `json:"type"` // "reply", "done" or "error"
	ConversationID string `json:"conversation_id,omitempty"`
	Stream         string `json:"stream,omitempty"`
	Content        string `json:"content,omitempty"`
	Error          string `json:"error,omitempty"`
}

func handleWS(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			engine.logger.Error("websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					engine.logger.Error("websocket read failed", "err", err)
				}
				return
			}

			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				sendWS(engine, conn, wsResponse{Type: "error", Error: "invalid message format"})
				continue
			}
			if req.UserID == "" || req.Topic == "" || req.Prompt == "" {
				sendWS(engine, conn, wsResponse{Type: "error", Error: "user_id, topic and prompt are required"})
				continue
			}

			handleWSTurn(engine, conn, r, req)
		}
	}
}

func handleWSTurn(engine *Engine, conn *websocket.Conn, r *http.Request, req wsRequest) {
	onReply := func(stream, content string) {
		sendWS(engine, conn, wsResponse{
			Type:    "reply",
			Stream:  stream,
			Content: content,
		})
	}

	result, err := engine.Turn(r.Context(), TurnRequest{
		UserID:         req.UserID,
		Topic:          req.Topic,
		ConversationID: req.ConversationID,
		Prompt:         req.Prompt,
	}, onReply)
	if err != nil {
		msg := err.Error()
		if errorStatus(err) == http.StatusInternalServerError {
			engine.logger.Error("websocket turn failed", "err", err)
			msg = "internal server error"
		}
		sendWS(engine, conn, wsResponse{
			Type:           "error",
			ConversationID: req.ConversationID,
			Error:          msg,
		})
		return
	}

	sendWS(engine, conn, wsResponse{
		Type:           "done",
		ConversationID: result.ConversationID,
	})
}

func sendWS(engine *Engine, conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		engine.logger.Error("websocket write failed", "err", err)
	}
}
