// ABOUTME: WebSocket client handling for the live report feed
// ABOUTME: Handshake, analyze requests and report broadcast to every client
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/mbakholdina/srt-drift-tracer/internal/analysis"
	"github.com/mbakholdina/srt-drift-tracer/internal/protocol"
	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

const (
	sendBufferSize = 64
	writeDeadline  = 10 * time.Second
	pingInterval   = 30 * time.Second
)

// Client is a connected WebSocket client
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	// Analyses requested over this connection
	Analyses int

	// Output channel for messages
	sendChan chan interface{}

	mu sync.RWMutex
}

// handleWebSocket upgrades and serves one feed connection
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	log.Debugf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	// Wait for client/hello
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Debugf("Error reading hello: %v", err)
		return
	}

	hello, err := parseHello(data)
	if err != nil {
		log.Warnf("Rejecting handshake: %v", err)
		writeDirect(conn, protocol.TypeServerError, protocol.ServerError{
			Kind:    protocol.ErrorKindProtocol,
			Message: err.Error(),
		})
		return
	}

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan interface{}, sendBufferSize),
	}

	// Check for duplicate client ID and register atomically
	s.clientsMu.Lock()
	if existing, exists := s.clients[client.ID]; exists {
		s.clientsMu.Unlock()
		log.Warnf("Client ID %s already connected (name: %s), rejecting duplicate", client.ID, existing.Name)
		writeDirect(conn, protocol.TypeServerError, protocol.ServerError{
			Kind:    protocol.ErrorKindProtocol,
			Message: "client ID already connected",
		})
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	s.metrics.WSClients.Inc()
	log.WithFields(log.Fields{"client": client.Name, "id": client.ID}).Info("Client connected")
	s.updateTUI()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		close(client.sendChan)
		s.clientsMu.Unlock()

		s.metrics.WSClients.Dec()
		log.WithField("client", client.Name).Info("Client disconnected")
		s.updateTUI()
	}()

	if err := s.sendMessage(client, protocol.TypeServerHello, protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.Version,
	}); err != nil {
		log.Warnf("Error sending server hello: %v", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(client, data)
	}
}

func parseHello(data []byte) (protocol.ClientHello, error) {
	var hello protocol.ClientHello
	if err := protocol.ValidateClientMessage(data); err != nil {
		return hello, err
	}
	env, err := protocol.Decode(data)
	if err != nil {
		return hello, err
	}
	if env.Type != protocol.TypeClientHello {
		return hello, fmt.Errorf("expected %s, got %s", protocol.TypeClientHello, env.Type)
	}
	if err := env.DecodePayload(&hello); err != nil {
		return hello, err
	}
	return hello, nil
}

// clientWriter sends queued messages and keeps the connection alive
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			var data []byte
			switch v := msg.(type) {
			case []byte:
				// Already encoded, shared between broadcast recipients
				data = v
			default:
				encoded, err := json.Marshal(v)
				if err != nil {
					log.Errorf("Error marshaling message: %v", err)
					continue
				}
				data = encoded
			}

			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debugf("Error writing message: %v", err)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage processes messages after the handshake
func (s *Server) handleClientMessage(client *Client, data []byte) {
	if err := protocol.ValidateClientMessage(data); err != nil {
		s.sendError(client, "", protocol.ErrorKindProtocol, err)
		return
	}
	env, err := protocol.Decode(data)
	if err != nil {
		s.sendError(client, "", protocol.ErrorKindProtocol, err)
		return
	}

	switch env.Type {
	case protocol.TypeClientAnalyze:
		var req protocol.ClientAnalyze
		if err := env.DecodePayload(&req); err != nil {
			s.sendError(client, "", protocol.ErrorKindProtocol, err)
			return
		}
		s.handleAnalyzeMessage(client, req)
	default:
		s.sendError(client, "", protocol.ErrorKindProtocol, fmt.Errorf("unexpected message type %s", env.Type))
	}
}

func (s *Server) handleAnalyzeMessage(client *Client, req protocol.ClientAnalyze) {
	local, err := parseClockField(req.LocalClock)
	if err != nil {
		s.sendError(client, req.RequestID, protocol.ErrorKindConfiguration, err)
		return
	}
	remote, err := parseClockField(req.RemoteClock)
	if err != nil {
		s.sendError(client, req.RequestID, protocol.ErrorKindConfiguration, err)
		return
	}

	client.mu.Lock()
	client.Analyses++
	client.mu.Unlock()

	report, err := s.analyzer.Analyze(context.Background(), analysis.Request{
		Name:        req.Name,
		Data:        []byte(req.Data),
		LocalClock:  local,
		RemoteClock: remote,
	})
	if err != nil {
		s.sendError(client, req.RequestID, errorKind(err), err)
		return
	}

	s.publish(report, req.RequestID, client.Name)
}

// publish stores a finished report and broadcasts it to every client
func (s *Server) publish(report *analysis.Report, requestID, origin string) {
	s.reports.Add(report)
	s.updateTUI()

	raw, err := json.Marshal(report)
	if err != nil {
		log.Errorf("Error marshaling report %s: %v", report.ID, err)
		return
	}
	data, err := protocol.Encode(protocol.TypeServerReport, protocol.ServerReport{
		RequestID: requestID,
		Origin:    origin,
		Report:    raw,
	})
	if err != nil {
		log.Errorf("Error encoding report %s: %v", report.ID, err)
		return
	}
	s.broadcast(data)
}

// broadcast queues an encoded message for every connected client
func (s *Server) broadcast(data []byte) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		select {
		case client.sendChan <- data:
		default:
			log.Warnf("Client %s send buffer full, dropping report", client.Name)
		}
	}
}

// sendMessage queues a JSON message for one client
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

func (s *Server) sendError(client *Client, requestID, kind string, err error) {
	log.WithFields(log.Fields{"client": client.Name, "kind": kind}).Warnf("Request failed: %v", err)
	if sendErr := s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{
		RequestID: requestID,
		Kind:      kind,
		Message:   err.Error(),
	}); sendErr != nil {
		log.Warnf("Error sending error to %s: %v", client.Name, sendErr)
	}
}

// writeDirect writes before the writer goroutine exists
func writeDirect(conn *websocket.Conn, msgType string, payload interface{}) {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

// closeClients closes every feed connection so their handlers return
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
}

// errorKind classifies an analysis error for clients
func errorKind(err error) string {
	var cfgErr *drift.ConfigurationError
	var schemaErr *drift.SchemaError
	switch {
	case errors.As(err, &cfgErr):
		return protocol.ErrorKindConfiguration
	case errors.As(err, &schemaErr):
		return protocol.ErrorKindSchema
	default:
		return protocol.ErrorKindInternal
	}
}

// parseClockField reads an optional clock name, defaulting to the steady clock
func parseClockField(value string) (drift.Clock, error) {
	if value == "" {
		return drift.Steady, nil
	}
	return drift.ParseClock(value)
}
