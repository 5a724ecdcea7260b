// internal/httpserver/routes_rooms.go
//
// Multiplayer room endpoints (require auth).
//   - POST /rooms               → create a room hosted by the caller
//   - GET  /rooms/{code}        → room state
//   - POST /rooms/{code}/join   → check the caller may enter (409 once started)
//   - POST /rooms/{code}/start  → host starts the match
//   - GET  /rooms/{code}/ws     → room event stream + start/command/press/release

package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/its-lightning/tetris/internal/auth"
	"github.com/its-lightning/tetris/internal/game"
	"github.com/its-lightning/tetris/internal/room"
)

func (s *Server) mountRooms(r chi.Router) {
	r.Route("/rooms", func(r chi.Router) {
		r.Use(s.auth.Require)
		r.Post("/", s.handleCreateRoom)
		r.Get("/{code}", s.handleGetRoom)
		r.Post("/{code}/join", s.handleJoinRoom)
		r.Post("/{code}/start", s.handleStartRoom)
	})
}

func member(r *http.Request) room.Member {
	me, _ := auth.FromContext(r.Context())
	return room.Member{ID: me.ID, Username: me.Username}
}

func roomCode(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "code"))
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, s.rooms.Create(member(r)))
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	info, err := s.rooms.Get(roomCode(r))
	if err != nil {
		roomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	info, err := s.rooms.Join(roomCode(r), member(r))
	if err != nil {
		roomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleStartRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.rooms.Start(roomCode(r), member(r).ID); err != nil {
		roomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func roomError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		http.Error(w, `{"error":"room_not_found"}`, http.StatusNotFound)
	case errors.Is(err, room.ErrGameStarted):
		http.Error(w, `{"error":"game_already_started"}`, http.StatusConflict)
	case errors.Is(err, room.ErrNotHost):
		http.Error(w, `{"error":"not_host"}`, http.StatusForbidden)
	default:
		errorJSON(w, http.StatusBadRequest, err.Error())
	}
}

// roomSink routes one player's input to their runner in the room.
type roomSink struct {
	rooms    *room.Manager
	code, id string
}

func (rs roomSink) Send(cmd game.Command) bool { return rs.rooms.Command(rs.code, rs.id, cmd) }
func (rs roomSink) Press(in game.Input) bool   { return rs.rooms.Press(rs.code, rs.id, in) }
func (rs roomSink) Release(in game.Input) bool { return rs.rooms.Release(rs.code, rs.id, in) }

// handleRoomWS attaches the caller to a room for the life of the socket.
func (s *Server) handleRoomWS(w http.ResponseWriter, r *http.Request) {
	code, mb := roomCode(r), member(r)
	if _, err := s.rooms.Join(code, mb); err != nil {
		roomError(w, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("ws upgrade")
		return
	}
	c := newWSClient(conn)
	defer c.Close()

	if _, err := s.rooms.Connect(code, mb, c); err != nil {
		c.Send(errorEvent(err.Error()))
		return
	}
	defer s.rooms.Disconnect(code, mb.ID, c)

	sink := roomSink{rooms: s.rooms, code: code, id: mb.ID}
	for {
		msg, err := c.read()
		if err != nil {
			return
		}
		if msg.Type == "start" {
			if err := s.rooms.Start(code, mb.ID); err != nil {
				c.Send(errorEvent(err.Error()))
			}
			continue
		}
		dispatch(c, sink, msg)
	}
}
