// ABOUTME: JSON-RPC 2.0 envelope types and MCP result shapes.
// ABOUTME: Classification is by key presence, not by method name.

package mcp

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// protocolVersion is the MCP protocol revision this transport speaks.
const protocolVersion = "2025-03-26"

// Message is a JSON-RPC 2.0 envelope. A single type covers requests,
// notifications, responses, and errors; messageKind tells them apart.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object. It implements the error interface so
// handlers can return one directly to control the code surfaced to the
// caller.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// messageKind classifies an envelope.
type messageKind int

const (
	kindMalformed messageKind = iota
	kindRequest
	kindNotification
	kindResponse
)

// kind classifies the message by which keys are present: a method with an id
// is a request, a method without one is a notification, a result or error is
// a response, and anything else is malformed.
func (m *Message) kind() messageKind {
	switch {
	case m.Method != "" && len(m.ID) > 0:
		return kindRequest
	case m.Method != "":
		return kindNotification
	case len(m.Result) > 0 || m.Error != nil:
		return kindResponse
	default:
		return kindMalformed
	}
}

// newResponse wraps a marshalled result in a response echoing the request id.
func newResponse(id json.RawMessage, result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshalling result: %w", err)
	}
	return &Message{JSONRPC: "2.0", ID: id, Result: raw}, nil
}

// newErrorResponse wraps a protocol error in a response echoing the request
// id (null when the request never had a usable id).
func newErrorResponse(id json.RawMessage, code int, message string) *Message {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &Message{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}

// InitializeResult is the result of the initialize handshake. The transport
// watches for this result type to know a session must be created.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

// ServerCapabilities advertises what this server supports.
type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// ToolsCapability marks tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ServerInfo names the server in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// CallToolResult is the result of a tools/call request. Tool-level failures
// set IsError and carry the message as text content; they are not protocol
// errors.
type CallToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ToolContent is a single content block in a tool result.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
