package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientMessage is what a browser may send on the event stream.
type clientMessage struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Value string `json:"value,omitempty"`
}

// reply answers a clientMessage.
type reply struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Placed  bool   `json:"placed,omitempty"`
	Message string `json:"message,omitempty"`
}

// events streams workspace events as JSON. Clients answer text requests
// with {"type":"text","id":...,"value":...} or cancel them with
// {"type":"cancel","id":...}.
func (s *Server) events(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.metrics.WSConnections.Inc()
	defer s.metrics.WSConnections.Dec()

	evs, unsubscribe := s.ws.Subscribe()
	defer unsubscribe()

	out := make(chan any, 16)
	done := make(chan struct{})
	go s.readLoop(conn, out, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		var msg any
		select {
		case ev, ok := <-evs:
			if !ok {
				return
			}
			msg = ev
		case r := <-out:
			msg = r
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		case <-done:
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) readLoop(conn *websocket.Conn, out chan<- any, done chan<- struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		r := s.handleClient(msg)
		select {
		case out <- r:
		default:
		}
	}
}

func (s *Server) handleClient(msg clientMessage) reply {
	r := reply{Type: msg.Type, ID: msg.ID}
	switch msg.Type {
	case "text":
		placed, err := s.ws.CompleteText(msg.ID, msg.Value)
		if err != nil {
			r.Message = err.Error()
			return r
		}
		r.Success, r.Placed = true, placed
	case "cancel":
		if err := s.ws.CancelText(msg.ID); err != nil {
			r.Message = err.Error()
			return r
		}
		r.Success = true
	case "ping":
		r.Type, r.Success = "pong", true
	default:
		r.Message = "unknown message type"
	}
	return r
}

