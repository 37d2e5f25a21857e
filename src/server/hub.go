package server

import (
	"context"
	"net/http"
	"time"

	"bubble-model/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop; it owns the client set.
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			// Send recent history on connect
			client.send <- s.snapshot("INITIAL")

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}

		case reply := <-s.replies:
			if _, ok := s.clients[reply.client]; ok {
				select {
				case reply.client.send <- reply.message:
				default:
				}
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast records a finished run and queues it for every client. Payloads
// other than run summaries are ignored.
func (s *APIServer) Broadcast(payload interface{}) {
	var runs []models.MRunSummary
	switch p := payload.(type) {
	case models.MRunSummary:
		runs = []models.MRunSummary{p}
	case []models.MRunSummary:
		runs = p
	default:
		s.Logger.Warning("Broadcast expected run summaries, got %T", payload)
		return
	}
	if len(runs) == 0 {
		return
	}

	s.stateMutex.Lock()
	state := s.latestState
	state.Runs = append(state.Runs, runs...)
	if extra := len(state.Runs) - historySize; extra > 0 {
		state.Runs = append([]models.MRunSummary(nil), state.Runs[extra:]...)
	}
	for _, r := range runs {
		state.ProcessingMetrics.Runs++
		state.ProcessingMetrics.ElapsedSeconds += r.ElapsedMs / 1000
		if r.Degenerate {
			state.ProcessingMetrics.DegenerateRuns++
		}
	}
	state.Timestamp = time.Now().UnixMilli()
	message := &models.MLatestData{
		Type:              "UPDATE",
		Runs:              runs,
		Timestamp:         state.Timestamp,
		ProcessingMetrics: state.ProcessingMetrics,
	}
	s.stateMutex.Unlock()

	select {
	case s.broadcast <- message:
	case <-s.done:
	default:
		s.Logger.Warning("Broadcast queue full, dropping update for %d runs", len(runs))
	}
}

// -----------------------------------------------------------------------------
// Helper Methods
// -----------------------------------------------------------------------------

// snapshot copies the cached state for one client.
func (s *APIServer) snapshot(kind string) *models.MLatestData {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	return &models.MLatestData{
		Type:              kind,
		Runs:              append([]models.MRunSummary{}, s.latestState.Runs...),
		Timestamp:         s.latestState.Timestamp,
		ProcessingMetrics: s.latestState.ProcessingMetrics,
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) connectionCount() int {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.connections
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan interface{}, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}
	s.trackConnection(1)

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------

func (s *APIServer) trackConnection(delta int) {
	s.stateMutex.Lock()
	s.connections += delta
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleHistory answers a history command with the latest stored runs, or
// with the cached history when storage is off. limit <= 0 means historySize.
func (s *APIServer) HandleHistory(client *Client, limit int) {
	response := s.snapshot("HISTORY")
	if s.DB != nil {
		if limit <= 0 {
			limit = historySize
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		runs, err := s.DB.ListRuns(ctx, limit)
		cancel()
		if err != nil {
			s.Logger.Error("History query failed: %v", err)
			s.reply(client, rejected("history unavailable"))
			return
		}
		if runs == nil {
			runs = []models.MRunSummary{}
		}
		response.Runs = runs
	}
	s.reply(client, response)
}

// -----------------------------------------------------------------------------

// reply hands a direct answer to the hub, which owns client.send.
func (s *APIServer) reply(client *Client, message *models.MLatestData) {
	select {
	case s.replies <- clientReply{client: client, message: message}:
	case <-s.done:
	}
}
