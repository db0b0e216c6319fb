package server

import (
	"encoding/json"
	"net/http"

	"market-dashboard/src/metrics"
	"market-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *DashboardServer) handleWebsockets() {
	for {
		select {
		case <-s.quit:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.setClientCount(0)
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.setClientCount(len(s.clients))
			// Send initial state on connect
			select {
			case client.send <- Message{Type: MsgSnapshot, Data: s.snapshot()}:
			default:
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.setClientCount(len(s.clients))
			}

		case dm := <-s.direct:
			if _, ok := s.clients[dm.client]; ok {
				select {
				case dm.client.send <- dm.message:
				default:
				}
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					s.Logger.Warning("Dropping slow dashboard client %s", client.id)
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.setClientCount(len(s.clients))
		}
	}
}

func (s *DashboardServer) setClientCount(n int) {
	s.mu.Lock()
	s.clientCount = n
	s.mu.Unlock()
	metrics.Clients.Set(float64(n))
}

// -----------------------------------------------------------------------------

// publish queues a message for every dashboard. It gives up once the server stops.
func (s *DashboardServer) publish(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.quit:
	}
}

// sendTo queues a message for one dashboard.
func (s *DashboardServer) sendTo(client *Client, msg Message) {
	select {
	case s.direct <- directMessage{client: client, message: msg}:
	case <-s.quit:
	}
}

type directMessage struct {
	client  *Client
	message Message
}

func (s *DashboardServer) snapshot() SnapshotData {
	s.mu.RLock()
	page := s.page
	s.mu.RUnlock()
	return SnapshotData{DashboardState: s.ctrl.State(), Page: page}
}

// -----------------------------------------------------------------------------
// Chart Renderer Implementation
// -----------------------------------------------------------------------------

func (s *DashboardServer) SetFullSeries(symbol string, candles []models.MCandle) {
	s.publish(Message{Type: MsgSeries, Data: seriesData{Symbol: symbol, Candles: nonNil(candles)}})
}

func (s *DashboardServer) AppendOrAmend(symbol string, candle models.MCandle) {
	s.publish(Message{Type: MsgBar, Data: barData{Symbol: symbol, Candle: candle}})
}

func (s *DashboardServer) SetDerivedSeries(symbol string, points []models.MDerivedPoint) {
	if points == nil {
		points = []models.MDerivedPoint{}
	}
	s.publish(Message{Type: MsgDerived, Data: derivedData{Symbol: symbol, Points: points}})
}

func (s *DashboardServer) UpdateDerivedPoint(symbol string, point models.MDerivedPoint) {
	s.publish(Message{Type: MsgDerivedPoint, Data: derivedPointData{Symbol: symbol, Point: point}})
}

func (s *DashboardServer) FitToContent() {
	s.publish(Message{Type: MsgFit})
}

func (s *DashboardServer) ScrollToRealtime() {
	s.publish(Message{Type: MsgScroll})
}

func nonNil(candles []models.MCandle) []models.MCandle {
	if candles == nil {
		return []models.MCandle{}
	}
	return candles
}

// -----------------------------------------------------------------------------
// View Publisher Implementation
// -----------------------------------------------------------------------------

func (s *DashboardServer) PublishDisplay(display models.MDisplayRecord) {
	s.publish(Message{Type: MsgDisplay, Data: display})
}

func (s *DashboardServer) PublishAlert(alert models.MAlert) {
	s.publish(Message{Type: MsgAlert, Data: alert})
}

func (s *DashboardServer) PublishNotice(level, message string) {
	s.publish(Message{Type: MsgNotice, Data: noticeData{Level: level, Message: message}})
}

func (s *DashboardServer) Navigate(url, title string) {
	page := PageData{URL: url, Title: title}
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
	s.publish(Message{Type: MsgNavigate, Data: page})
}

func (s *DashboardServer) Reload() {
	s.publish(Message{Type: MsgReload})
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

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(uuid.NewString(), s, conn)

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}
	s.Logger.Info("Dashboard client %s connected from %s", client.id, c.ClientIP())

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	var cmd ClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Type {
	case "change_symbol":
		s.ctrl.RequestSymbol(cmd.Symbol)
	case "retry":
		s.ctrl.Retry()
	case "action":
		action, ok := parseAction(cmd.Action)
		if !ok {
			s.sendTo(client, Message{Type: MsgNotice, Data: noticeData{Level: "error", Message: "Unknown action " + cmd.Action}})
			return
		}
		s.ctrl.RunAction(action, cmd.Payload)
	case "snapshot":
		s.sendTo(client, Message{Type: MsgSnapshot, Data: s.snapshot()})
	default:
		s.Logger.Debug("Ignoring client command %q", cmd.Type)
	}
}
