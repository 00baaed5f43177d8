package wizard

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jobadwizard/backend/pkg/utils"
)

const (
	wsReadTimeout  = 10 * time.Minute
	wsPingInterval = 54 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type inboundMessage struct {
	Message string `json:"message"`
	Locale  string `json:"locale"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	UserID    string      `json:"userId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket runs the same turn loop as HandleChat over one connection.
// Every inbound frame is one call to Advance.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if err := utils.ValidateStruct(turnRequest{UserID: userID}); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	logger := h.logger.With(zap.String("user_id", userID))
	logger.Debug("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, outgoingMessage{Type: "connected", UserID: userID})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		req := turnRequest{UserID: userID, Message: msg.Message, Locale: strings.TrimSpace(msg.Locale)}
		if err := utils.ValidateStruct(req); err != nil {
			h.send(conn, outgoingMessage{
				Type:   "error",
				UserID: userID,
				Data:   map[string]any{"status": http.StatusBadRequest, "message": err.Error()},
			})
			continue
		}

		result, err := h.svc.Advance(ctx, req.UserID, req.Message, req.Locale)
		if err != nil {
			status, message := h.classifyError(err)
			if status >= http.StatusInternalServerError {
				logger.Error("websocket turn failed", zap.Error(err))
			}
			h.send(conn, outgoingMessage{
				Type:   "error",
				UserID: userID,
				Data:   map[string]any{"status": status, "message": message},
			})
			continue
		}

		h.send(conn, outgoingMessage{Type: "turn", UserID: userID, Data: result})
	}
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("websocket write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

// pingLoop keeps idle connections alive. WriteControl may run concurrently
// with the data writes of the read loop.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
