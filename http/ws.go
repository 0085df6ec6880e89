package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/message"

	"churnapi/logger"
	"churnapi/monitoring"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsMaxMessage   = 64 << 10
)

// newUpgrader 按CORS白名单校验Origin，无Origin的非浏览器客户端放行
func newUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowsAnyOrigin(origins) || containsOrigin(origins, origin)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// StreamReply 流式预测的单条回复
type StreamReply struct {
	Status int `json:"status"`
	PredictResponse
}

// handlePredictStream 每个文本帧是一条客户记录，逐条回复
func (h *Handlers) handlePredictStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	monitoring.WebSocketConnections.Inc()
	defer monitoring.WebSocketConnections.Dec()

	requestID := GetRequestID(r.Context())
	logger.Infof("[%s] prediction stream opened from %s", requestID, r.RemoteAddr)

	replies := make(chan StreamReply, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(conn, replies)
	}()

	readPump(conn, replies, h, printerFor(r))
	close(replies)
	<-done
	logger.Infof("[%s] prediction stream closed", requestID)
}

func readPump(conn *websocket.Conn, replies chan<- StreamReply, h *Handlers, p *message.Printer) {
	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("websocket read error: %v", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		record, ok := decodeRecord(payload)
		if !ok {
			replies <- StreamReply{
				Status:          http.StatusBadRequest,
				PredictResponse: PredictResponse{Error: p.Sprintf(msgMissingBody)},
			}
			continue
		}
		status, response := h.predict(record, p)
		replies <- StreamReply{Status: status, PredictResponse: response}
	}
}

func writePump(conn *websocket.Conn, replies <-chan StreamReply) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
		// 读协程在连接关闭后退出，这里继续消费直到通道关闭
		drain(replies)
	}()

	for {
		select {
		case reply, ok := <-replies:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(reply); err != nil {
				logger.Warnf("websocket write error: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func drain(replies <-chan StreamReply) {
	for range replies {
	}
}
