// Package debugws streams world snapshots to websocket clients. The
// stream is strictly one-directional: clients receive JSON snapshots
// and have no mutation path back into the simulation.
package debugws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/shatter/internal/world"
)

const DefaultUpdateInterval = 50 * time.Millisecond

// Server advances a world on its own ticker and broadcasts a snapshot
// per update to every connected client.
type Server struct {
	upgrader websocket.Upgrader
	w        *world.World
	interval time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
}

// client serializes writes to one connection; gorilla/websocket allows
// only one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func NewServer(w *world.World, interval time.Duration) *Server {
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		w:        w,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// HandleWS upgrades a connection and registers it for broadcasts.
// Incoming messages are drained and discarded.
func (s *Server) HandleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		log.Printf("debugws: upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	log.Printf("debugws: client connected (%d total)", n)

	go func() {
		defer s.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.conn.Close()
}

// Run advances the simulation at the update interval and broadcasts
// snapshots until the context is canceled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.w.Advance(s.interval.Seconds())
			s.broadcast(s.w.Snapshot())
		}
	}
}

func (s *Server) broadcast(snap world.Snapshot) {
	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		if err := c.writeJSON(snap); err != nil {
			log.Printf("debugws: write failed, dropping client: %v", err)
			s.drop(c)
		}
	}
}

// ListenAndServe mounts the stream on /ws and blocks until the context
// ends or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	go s.Run(ctx)

	log.Printf("debugws: streaming snapshots on ws://%s/ws", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
