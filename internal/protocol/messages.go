// ABOUTME: Drift dashboard WebSocket message definitions
// ABOUTME: Envelope plus the hello, analyze, report and error payloads
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the message protocol version exchanged in hello messages
const Version = 1

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeClientAnalyze = "client/analyze"
	TypeServerHello   = "server/hello"
	TypeServerReport  = "server/report"
	TypeServerError   = "server/error"
)

// Error kinds carried in ServerError
const (
	ErrorKindProtocol      = "protocol"
	ErrorKindConfiguration = "configuration"
	ErrorKindSchema        = "schema"
	ErrorKindInternal      = "internal"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Envelope is a received message whose payload is decoded lazily
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID   string      `json:"client_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains client identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ClientAnalyze submits one drift log for analysis. Data is the CSV text.
type ClientAnalyze struct {
	RequestID   string `json:"request_id,omitempty"`
	Name        string `json:"name"`
	LocalClock  string `json:"local_clock,omitempty"`
	RemoteClock string `json:"remote_clock,omitempty"`
	Data        string `json:"data"`
}

// ServerReport carries a finished analysis report. It is sent to every
// connected client; RequestID is set only when a ws client asked for it.
type ServerReport struct {
	RequestID string          `json:"request_id,omitempty"`
	Origin    string          `json:"origin"`
	Report    json.RawMessage `json:"report"`
}

// ServerError reports a rejected message or failed analysis to one client
type ServerError struct {
	RequestID string `json:"request_id,omitempty"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// Encode wraps payload in a typed message
func Encode(msgType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msgType, err)
	}
	return data, nil
}

// Decode parses the envelope of a message without validating it
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode message: %w", err)
	}
	return env, nil
}

// DecodePayload unmarshals an envelope payload into v
func (e Envelope) DecodePayload(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
