// ABOUTME: JSON-RPC dispatcher with separate request and notification tables.
// ABOUTME: Responses echo the request id verbatim; batches are rejected.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// Handler processes a JSON-RPC request and returns its result. Returning a
// *Error surfaces that exact protocol error; any other error becomes an
// internal error (-32603) carrying the error's message.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// NotificationHandler processes a JSON-RPC notification. Notifications never
// produce a reply, so there is nothing to return.
type NotificationHandler func(ctx context.Context, params json.RawMessage)

// Reply is the outcome of dispatching one message. Message is nil for
// notifications (HTTP answers 202 with no body). Result holds the handler's
// unmarshalled result so the transport can react to specific result types.
type Reply struct {
	Message *Message
	Result  any
}

// Dispatcher routes parsed JSON-RPC messages to registered handlers.
type Dispatcher struct {
	handlers      map[string]Handler
	notifications map[string]NotificationHandler
	logger        *slog.Logger
}

// NewDispatcher creates a dispatcher with empty handler tables.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default().With("component", "mcp")
	}
	return &Dispatcher{
		handlers:      make(map[string]Handler),
		notifications: make(map[string]NotificationHandler),
		logger:        logger,
	}
}

// Handle registers a request handler for a method.
func (d *Dispatcher) Handle(method string, h Handler) {
	d.handlers[method] = h
}

// HandleNotification registers a notification handler for a method.
func (d *Dispatcher) HandleNotification(method string, h NotificationHandler) {
	d.notifications[method] = h
}

// Dispatch parses one JSON-RPC body and routes it. Malformed bodies and
// protocol violations come back as error responses; only notifications
// yield a nil Reply.Message.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) *Reply {
	if isBatch(body) {
		return &Reply{Message: newErrorResponse(nil, CodeInvalidRequest, "batch requests are not supported")}
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return &Reply{Message: newErrorResponse(nil, CodeParseError, "parse error")}
	}
	if msg.JSONRPC != "2.0" {
		return &Reply{Message: newErrorResponse(msg.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")}
	}

	switch msg.kind() {
	case kindRequest:
		return d.dispatchRequest(ctx, &msg)
	case kindNotification:
		d.dispatchNotification(ctx, &msg)
		return &Reply{}
	case kindResponse:
		// This server issues no requests of its own, so an inbound response
		// correlates with nothing. Log and drop.
		d.logger.Debug("dropping unsolicited response", "id", string(msg.ID))
		return &Reply{}
	default:
		return &Reply{Message: newErrorResponse(msg.ID, CodeInvalidRequest, "message has neither method nor result")}
	}
}

func (d *Dispatcher) dispatchRequest(ctx context.Context, msg *Message) *Reply {
	handler, ok := d.handlers[msg.Method]
	if !ok {
		d.logger.Debug("method not found", "method", msg.Method)
		return &Reply{Message: newErrorResponse(msg.ID, CodeMethodNotFound, "method not found: "+msg.Method)}
	}

	result, err := handler(ctx, msg.Params)
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			return &Reply{Message: &Message{JSONRPC: "2.0", ID: msg.ID, Error: rpcErr}}
		}
		d.logger.Warn("handler failed", "method", msg.Method, "error", err)
		return &Reply{Message: newErrorResponse(msg.ID, CodeInternalError, err.Error())}
	}

	resp, err := newResponse(msg.ID, result)
	if err != nil {
		d.logger.Error("marshalling response", "method", msg.Method, "error", err)
		return &Reply{Message: newErrorResponse(msg.ID, CodeInternalError, "failed to encode result")}
	}
	return &Reply{Message: resp, Result: result}
}

func (d *Dispatcher) dispatchNotification(ctx context.Context, msg *Message) {
	handler, ok := d.notifications[msg.Method]
	if !ok {
		// The sender is not waiting, so an unknown notification is dropped
		// without any reply, not even an error.
		d.logger.Debug("dropping unhandled notification", "method", msg.Method)
		return
	}
	handler(ctx, msg.Params)
}

// isBatch reports whether the body is a JSON array.
func isBatch(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
