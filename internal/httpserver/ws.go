// internal/httpserver/ws.go
//
// Websocket plumbing shared by solo sessions and rooms.
// Each connection has one reader (the handler goroutine) and one writer
// (writePump) fed by a buffered channel, so Send never blocks callers.

package httpserver

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/its-lightning/tetris/internal/game"
	"github.com/its-lightning/tetris/internal/room"
)

const (
	wsSendBuffer = 64
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 4096
)

// clientMsg is an inbound websocket message.
//
//	{"type":"command","command":"hardDrop"}
//	{"type":"press","input":"left"}
//	{"type":"release","input":"left"}
//	{"type":"start"}                          (rooms only)
type clientMsg struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	Input   string `json:"input,omitempty"`
}

// wsClient implements room.Conn over a websocket.
type wsClient struct {
	conn *websocket.Conn
	send chan room.Event
	done chan struct{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	c := &wsClient{
		conn: conn,
		send: make(chan room.Event, wsSendBuffer),
		done: make(chan struct{}),
	}
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go c.writePump()
	return c
}

// Send queues ev for delivery, dropping it when the client is slow or gone.
func (c *wsClient) Send(ev room.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *wsClient) read() (clientMsg, error) {
	var msg clientMsg
	err := c.conn.ReadJSON(&msg)
	return msg, err
}

// Close asks writePump to flush queued events, send a close frame and tear
// the connection down.
func (c *wsClient) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()
	defer c.Close()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Msg("ws write")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		}
	}
}

// flush writes events queued before Close, so a final error reaches the
// client ahead of the close frame.
func (c *wsClient) flush() {
	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		default:
			return
		}
	}
}

// inputSink is the target of command/press/release messages.
type inputSink interface {
	Send(game.Command) bool
	Press(game.Input) bool
	Release(game.Input) bool
}

// dispatch applies msg to sink, reporting an error event to c when the
// message is malformed.
func dispatch(c *wsClient, sink inputSink, msg clientMsg) {
	switch msg.Type {
	case "command":
		cmd, ok := game.ParseCommand(msg.Command)
		if !ok {
			c.Send(errorEvent("unknown command " + msg.Command))
			return
		}
		sink.Send(cmd)
	case "press", "release":
		in, ok := game.ParseInput(msg.Input)
		if !ok {
			c.Send(errorEvent("unknown input " + msg.Input))
			return
		}
		if msg.Type == "press" {
			sink.Press(in)
		} else {
			sink.Release(in)
		}
	default:
		c.Send(errorEvent("unknown message type " + msg.Type))
	}
}

func errorEvent(msg string) room.Event {
	return room.Event{Type: "error", Data: map[string]string{"message": msg}}
}

// checkOrigin accepts non-browser clients, the configured client origin and
// same-host pages.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}
