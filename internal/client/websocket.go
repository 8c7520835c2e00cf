// ABOUTME: WebSocket client for the drift dashboard feed
// ABOUTME: Handles handshake, remote analyze requests and incoming reports
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/mbakholdina/srt-drift-tracer/internal/analysis"
	"github.com/mbakholdina/srt-drift-tracer/internal/protocol"
	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

const handshakeTimeout = 5 * time.Second

// Config holds client configuration
type Config struct {
	ServerAddr string
	Path       string
	ClientID   string
	Name       string
	DeviceInfo protocol.DeviceInfo
}

// ReportMessage is a report broadcast by the dashboard
type ReportMessage struct {
	RequestID string
	Origin    string
	Report    *analysis.Report
}

// RemoteError is an error reported by the dashboard
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("dashboard %s error: %s", e.Kind, e.Message)
}

type result struct {
	report *analysis.Report
	err    error
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Reports and errors not addressed to a pending request
	Reports chan ReportMessage
	Errors  chan protocol.ServerError

	pendingMu sync.Mutex
	pending   map[string]chan result

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = "/ws"
	}
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:  config,
		Reports: make(chan ReportMessage, 16),
		Errors:  make(chan protocol.ServerError, 16),
		pending: make(map[string]chan result),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect establishes WebSocket connection and performs handshake
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	log.Debugf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake performs the protocol handshake
func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID:   c.config.ClientID,
		Name:       c.config.Name,
		Version:    protocol.Version,
		DeviceInfo: &c.config.DeviceInfo,
	}

	if err := c.send(protocol.TypeClientHello, hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	env, err := protocol.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	switch env.Type {
	case protocol.TypeServerHello:
	case protocol.TypeServerError:
		var serverErr protocol.ServerError
		if err := env.DecodePayload(&serverErr); err != nil {
			return err
		}
		return &RemoteError{Kind: serverErr.Kind, Message: serverErr.Message}
	default:
		return fmt.Errorf("expected server/hello, got %s", env.Type)
	}

	var serverHello protocol.ServerHello
	if err := env.DecodePayload(&serverHello); err != nil {
		return err
	}
	log.Infof("Handshake complete with dashboard %s", serverHello.Name)
	return nil
}

// send writes a typed message
func (c *Client) send(msgType string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(protocol.Message{Type: msgType, Payload: payload})
}

// Analyze uploads a log and waits for the dashboard's report
func (c *Client) Analyze(ctx context.Context, name string, data []byte, local, remote drift.Clock) (*analysis.Report, error) {
	requestID := uuid.New().String()
	done := make(chan result, 1)

	c.pendingMu.Lock()
	c.pending[requestID] = done
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, requestID)
		c.pendingMu.Unlock()
	}()

	if err := c.send(protocol.TypeClientAnalyze, protocol.ClientAnalyze{
		RequestID:   requestID,
		Name:        name,
		LocalClock:  local.String(),
		RemoteClock: remote.String(),
		Data:        string(data),
	}); err != nil {
		return nil, fmt.Errorf("send analyze: %w", err)
	}

	select {
	case res := <-done:
		return res.report, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, fmt.Errorf("connection closed")
	}
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debugf("Read error: %v", err)
			return
		}

		if messageType == websocket.TextMessage {
			c.handleJSONMessage(data)
		}
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Warnf("Failed to parse JSON message: %v", err)
		return
	}

	switch env.Type {
	case protocol.TypeServerReport:
		var msg protocol.ServerReport
		if err := env.DecodePayload(&msg); err != nil {
			log.Warnf("%v", err)
			return
		}
		var report analysis.Report
		if err := json.Unmarshal(msg.Report, &report); err != nil {
			log.Warnf("Failed to parse report: %v", err)
			return
		}
		if c.resolve(msg.RequestID, result{report: &report}) {
			return
		}
		select {
		case c.Reports <- ReportMessage{RequestID: msg.RequestID, Origin: msg.Origin, Report: &report}:
		default:
			log.Debugf("Dropping report %s: channel full", report.ID)
		}

	case protocol.TypeServerError:
		var serverErr protocol.ServerError
		if err := env.DecodePayload(&serverErr); err != nil {
			log.Warnf("%v", err)
			return
		}
		if c.resolve(serverErr.RequestID, result{err: &RemoteError{Kind: serverErr.Kind, Message: serverErr.Message}}) {
			return
		}
		select {
		case c.Errors <- serverErr:
		default:
			log.Warnf("Dashboard error: %s", serverErr.Message)
		}

	default:
		log.Debugf("Unknown message type: %s", env.Type)
	}
}

// resolve hands a result to the request waiting for it
func (c *Client) resolve(requestID string, res result) bool {
	if requestID == "" {
		return false
	}
	c.pendingMu.Lock()
	done, ok := c.pending[requestID]
	c.pendingMu.Unlock()
	if !ok {
		return false
	}
	done <- res
	return true
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Debugf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
