//Package stream broadcasts universe frames to WebSocket clients
//a Hub is a universe.Viewer - every refresh of the runner becomes one message
package stream

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"bitlife/src/universe"

	"github.com/gorilla/websocket"
)

const (
	//time allowed to write a message to the peer
	writeWait = 10 * time.Second
	//time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second
	//send pings to peer with this period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
	//maximum message size allowed from peer
	maxMessageSize = 512
	//frames buffered per client before it is dropped
	sendBuffer = 16
)

//Message is the JSON document sent for every frame
//Cells holds width*height bits, row-major, bit i in byte i/8 at position i%8
type Message struct {
	Iteration int    `json:"iteration"`
	Width     uint32 `json:"width"`
	Height    uint32 `json:"height"`
	Cells     []byte `json:"cells"`
}

//NewMessage packs the frame words into little-endian bytes
func NewMessage(f universe.Frame) Message {
	n := (uint(f.Width)*uint(f.Height) + 7) / 8
	buf := make([]byte, len(f.Cells)*8)
	for i, w := range f.Cells {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	return Message{Iteration: f.Iteration, Width: f.Width, Height: f.Height, Cells: buf[:n]}
}

//Alive reports the state of the cell at row, column
func (m Message) Alive(row uint32, column uint32) bool {
	if row >= m.Height || column >= m.Width {
		return false
	}
	i := uint(row)*uint(m.Width) + uint(column)
	return m.Cells[i/8]&(1<<(i%8)) != 0
}

//Hub maintains the set of active clients and broadcasts frames to them
type Hub struct {
	r          *universe.Runner
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.Mutex
	logger     *log.Logger
	upgrader   websocket.Upgrader
}

//NewHub initializes a new WebSocket Hub
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		clients:    make(map[*client]bool),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

//Register is called by the runner when the hub is added as a viewer
func (h *Hub) Register(r *universe.Runner) {
	h.r = r
}

//Refresh queues the current frame for broadcast
//the frame is dropped when the queue is full, a stalled hub never blocks the simulation
func (h *Hub) Refresh() {
	payload, err := h.framePayload()
	if err != nil {
		h.logger.Printf("[STREAM-ERROR] Failed to serialize frame: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

//Start broadcasts the current frame
func (h *Hub) Start() {
	h.Refresh()
}

//Run starts the Hub's main loop to handle client connections and broadcasts
//it must be called once
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Println("[STREAM-INFO] WebSocket Hub shutting down.")
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Println("[STREAM-INFO] New WebSocket client connected")
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Println("[STREAM-INFO] WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.clients, c)
					h.logger.Println("[STREAM-WARN] Dropped slow WebSocket client")
				}
			}
			h.mu.Unlock()
		}
	}
}

//Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

//ServeHTTP upgrades the connection and streams frames to it, starting with the current one
func (h *Hub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Printf("[STREAM-ERROR] Upgrade failed: %v", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	if payload, err := h.framePayload(); err == nil {
		c.send <- payload
	}
	select {
	case h.register <- c:
	case <-req.Context().Done():
		conn.Close()
		return
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (h *Hub) framePayload() ([]byte, error) {
	if h.r == nil {
		return json.Marshal(Message{})
	}
	return json.Marshal(NewMessage(h.r.Frame()))
}
