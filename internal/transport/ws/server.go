// Package ws carries key events from browser clients to the keyboard and
// broadcasts session snapshots back.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/akmonengine/farmtruck/input"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	TypeKeyDown = "keydown"
	TypeKeyUp   = "keyup"

	writeWait   = 5 * time.Second
	readWait    = 60 * time.Second
	clientQueue = 16
)

// KeyMessage is the only message clients send
type KeyMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type client struct {
	out  chan []byte
	held map[string]bool
}

// Server fans snapshots out to every client. Keys held by a client are
// released when it leaves.
type Server struct {
	keyboard *input.Keyboard
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewServer(keyboard *input.Keyboard, log zerolog.Logger) *Server {
	return &Server{
		keyboard: keyboard,
		log:      log.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (s *Server) NumClients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends v to every client. Clients that lag behind miss messages.
func (s *Server) Broadcast(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.out <- b:
		default:
		}
	}
	return nil
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Error().Err(err).Msg("upgrade failed")
			return
		}
		defer conn.Close()

		c := &client{out: make(chan []byte, clientQueue), held: make(map[string]bool)}
		s.join(c)
		defer s.leave(c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Error().Err(err).Msg("read failed")
				}
				return
			}
			var key KeyMessage
			if err := json.Unmarshal(msg, &key); err != nil || key.Code == "" {
				s.log.Debug().Bytes("message", msg).Msg("ignoring malformed message")
				continue
			}
			s.handleKey(c, key)
		}
	}
}

func (s *Server) handleKey(c *client, key KeyMessage) {
	switch key.Type {
	case TypeKeyDown:
		c.held[key.Code] = true
		s.keyboard.Press(key.Code)
	case TypeKeyUp:
		delete(c.held, key.Code)
		s.keyboard.Release(key.Code)
	default:
		s.log.Debug().Str("type", key.Type).Msg("ignoring unknown message type")
	}
}

func (s *Server) join(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info().Int("clients", n).Msg("client connected")
}

func (s *Server) leave(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	n := len(s.clients)
	s.mu.Unlock()

	for code := range c.held {
		s.keyboard.Release(code)
	}
	s.log.Info().Int("clients", n).Msg("client disconnected")
}
