package main

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// frameMessage is the JSON payload sent to renderer clients, one per
// video frame.
type frameMessage struct {
	Mode           int         `json:"mode"`
	Render         int         `json:"render"`
	Bars           int         `json:"bars,omitempty"`
	GradientHeight float64     `json:"gradient_height,omitempty"`
	Silent         bool        `json:"silent"`
	Y              [][]float64 `json:"y"`
}

// hub fans rendered frames out to any number of websocket clients.
// Slow clients are disconnected rather than allowed to stall the
// broadcast loop; a full queue drops the frame.
type hub struct {
	upgrader websocket.Upgrader
	server   *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	frames chan frameMessage
	done   chan struct{}
}

func newHub(addr string) *hub {
	h := &hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
		frames:  make(chan frameMessage, 8),
		done:    make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/frames", h.handleClient)
	h.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		logrus.WithField("addr", addr).Info("frame server listening")
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("frame server stopped")
		}
	}()
	go h.broadcast()
	return h
}

func (h *hub) handleClient(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	logrus.WithField("clients", n).Debug("renderer connected")

	// drain until the client goes away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.mu.Lock()
		delete(h.clients, conn)
		n := len(h.clients)
		h.mu.Unlock()
		conn.Close()
		logrus.WithField("clients", n).Debug("renderer disconnected")
	}()
}

func (h *hub) broadcast() {
	for {
		select {
		case msg := <-h.frames:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		case <-h.done:
			return
		}
	}
}

// send queues a frame without blocking the tick loop.
func (h *hub) send(msg frameMessage) {
	select {
	case h.frames <- msg:
	default:
	}
}

func (h *hub) close() {
	close(h.done)
	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
	_ = h.server.Close()
}
