package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/formwizard/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Command is a client message on the session websocket
type Command struct {
	Op    string `json:"op"` // set, advance, retreat, submit, add_entry, set_entry, remove_entry
	Group string `json:"group,omitempty"`
	Field string `json:"field,omitempty"`
	Index int    `json:"index,omitempty"`
	Value string `json:"value,omitempty"`
}

// Event is a server message on the session websocket
type Event struct {
	Type     string    `json:"type"` // snapshot, submitted, rejected, error
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// handleWebSocket streams a snapshot after every mutation of the session,
// whichever client caused it, and applies commands sent by this client.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, sess *Session) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	remoteAddr := conn.RemoteAddr().String()
	logging.Info("WebSocket connected", zap.String("remote_addr", remoteAddr), zap.String("session", sess.ID))

	updates, cancel := sess.Subscribe()
	replies := make(chan Event, 4)
	done := make(chan struct{})
	stop := make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		s.readCommands(conn, remoteAddr, sess, replies, stop)
	}()

	s.writeEvents(conn, remoteAddr, sess, updates, replies, done)

	close(stop)
	cancel()
	_ = conn.Close()
	<-done
	logging.Info("WebSocket closed", zap.String("remote_addr", remoteAddr), zap.String("session", sess.ID))
}

func (s *Server) writeEvents(conn *websocket.Conn, remoteAddr string, sess *Session, updates <-chan Snapshot, replies <-chan Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	initial := sess.Snapshot()
	if err := writeEvent(conn, remoteAddr, Event{Type: "snapshot", Snapshot: &initial}); err != nil {
		return
	}

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"))
				return
			}
			if err := writeEvent(conn, remoteAddr, Event{Type: "snapshot", Snapshot: &snap}); err != nil {
				return
			}

		case ev := <-replies:
			if err := writeEvent(conn, remoteAddr, ev); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, remoteAddr string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	logging.LogWebSocketMessage(remoteAddr, "sent", data)

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logging.Debug("WebSocket write failed", zap.String("remote_addr", remoteAddr), zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) readCommands(conn *websocket.Conn, remoteAddr string, sess *Session, replies chan<- Event, stop <-chan struct{}) {
	reply := func(ev Event) bool {
		select {
		case replies <- ev:
			return true
		case <-stop:
			return false
		}
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("WebSocket read failed", zap.String("remote_addr", remoteAddr), zap.Error(err))
			}
			return
		}
		logging.LogWebSocketMessage(remoteAddr, "received", data)

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			if !reply(Event{Type: "error", Error: "invalid command: " + err.Error()}) {
				return
			}
			continue
		}

		// Successful mutations reach this client through its subscription;
		// only outcomes that publish nothing new are replied to directly.
		if ev, ok := applyCommand(sess, cmd); ok && !reply(ev) {
			return
		}
	}
}

func applyCommand(sess *Session, cmd Command) (Event, bool) {
	var err error
	switch cmd.Op {
	case "set":
		_, err = sess.SetField(cmd.Group, cmd.Field, cmd.Value)
	case "advance":
		sess.Advance()
	case "retreat":
		sess.Retreat()
	case "submit":
		_, ok, snap := sess.Submit()
		if !ok {
			return Event{Type: "rejected", Snapshot: &snap}, true
		}
		return Event{Type: "submitted", Snapshot: &snap}, true
	case "add_entry":
		_, _, err = sess.AddEntry()
	case "set_entry":
		_, err = sess.SetEntry(cmd.Index, cmd.Value)
	case "remove_entry":
		_, err = sess.RemoveEntry(cmd.Index)
	default:
		err = errors.New("unknown op " + cmd.Op)
	}

	if err != nil {
		return Event{Type: "error", Error: err.Error()}, true
	}
	return Event{}, false
}
