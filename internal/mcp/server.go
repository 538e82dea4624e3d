// ABOUTME: Streamable HTTP transport for MCP: POST dispatches, DELETE terminates.
// ABOUTME: Sessions ride a cookie with a response header as deprecated fallback.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/folio-labs/folio-gateway/internal/store"
	"github.com/folio-labs/folio-gateway/internal/tools"
)

const (
	// SessionCookieName carries the session id between calls.
	SessionCookieName = "mcp_session_id"
	// SessionHeaderName is the deprecated header fallback for clients that
	// do not handle cookies.
	SessionHeaderName = "Mcp-Session-Id"

	// maxBodySize bounds inbound JSON-RPC bodies (4MB).
	maxBodySize = 4 << 20
)

// Config holds configuration for the MCP transport server.
type Config struct {
	Sessions store.SessionStore
	Tools    *tools.Registry

	// SessionTTL bounds the session cookie lifetime.
	SessionTTL time.Duration

	ServerName    string
	ServerVersion string

	Logger *slog.Logger
}

// Server is the MCP transport endpoint. POST carries JSON-RPC messages,
// DELETE terminates a session, and GET is always refused: this transport
// does not offer the streaming mode.
type Server struct {
	sessions   store.SessionStore
	tools      *tools.Registry
	dispatcher *Dispatcher
	sessionTTL time.Duration
	name       string
	version    string
	logger     *slog.Logger
}

// NewServer creates the transport server and wires the protocol methods
// into its dispatcher.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Tools == nil {
		return nil, errors.New("tool registry is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "mcp")
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL == 0 {
		sessionTTL = 24 * time.Hour
	}
	name := cfg.ServerName
	if name == "" {
		name = "folio-gateway"
	}

	s := &Server{
		sessions:   cfg.Sessions,
		tools:      cfg.Tools,
		dispatcher: NewDispatcher(logger),
		sessionTTL: sessionTTL,
		name:       name,
		version:    cfg.ServerVersion,
		logger:     logger,
	}

	s.dispatcher.Handle("initialize", s.handleInitialize)
	s.dispatcher.Handle("ping", s.handlePing)
	s.dispatcher.Handle("tools/list", s.handleToolsList)
	s.dispatcher.Handle("tools/call", s.handleToolsCall)
	s.dispatcher.HandleNotification("notifications/initialized", s.handleInitialized)

	return s, nil
}

// ServeHTTP implements the transport route.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		// GET in particular: no streaming mode, rejected before anything
		// else gets a look at the request.
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSONRPC(w, newErrorResponse(nil, CodeParseError, "failed to read request body"))
		return
	}

	reply := s.dispatcher.Dispatch(r.Context(), body)
	if reply.Message == nil {
		// Notification (or dropped message): accepted, nothing to say.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	// A successful initialize is the only thing that mints a session. The
	// check is on the result type so it holds no matter what method name
	// produced it.
	if _, ok := reply.Result.(*InitializeResult); ok {
		s.issueSession(w, r)
	}

	writeJSONRPC(w, reply.Message)
}

// issueSession creates a session record and hands its id to the client via
// cookie and header. Failure to persist the session is logged but does not
// fail the initialize: the client simply cannot terminate explicitly.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request) {
	session := &store.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.CreateSession(r.Context(), session); err != nil {
		s.logger.Error("creating session", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	w.Header().Set(SessionHeaderName, session.ID)
	s.logger.Info("created session", "session_id", session.ID)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)
	if sessionID == "" {
		writeSessionError(w, http.StatusBadRequest, "missing_session", "no session id in cookie or header")
		return
	}

	if err := s.sessions.DeleteSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeSessionError(w, http.StatusNotFound, "invalid_session", "session not found")
			return
		}
		s.logger.Error("deleting session", "session_id", sessionID, "error", err)
		writeSessionError(w, http.StatusInternalServerError, "server_error", "failed to terminate session")
		return
	}

	// Expire the cookie on the way out.
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	s.logger.Info("terminated session", "session_id", sessionID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "terminated"})
}

// sessionID extracts the session id: cookie first, header as the
// deprecated fallback.
func (s *Server) sessionID(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get(SessionHeaderName)
}

func (s *Server) handleInitialize(_ context.Context, _ json.RawMessage) (any, error) {
	return &InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{ListChanged: false},
		},
		ServerInfo: ServerInfo{Name: s.name, Version: s.version},
	}, nil
}

func (s *Server) handlePing(_ context.Context, _ json.RawMessage) (any, error) {
	return struct{}{}, nil
}

func (s *Server) handleInitialized(_ context.Context, _ json.RawMessage) {
	s.logger.Debug("client reported initialized")
}

// toolsListResult is the result of tools/list.
type toolsListResult struct {
	Tools []tools.Descriptor `json:"tools"`
}

func (s *Server) handleToolsList(_ context.Context, _ json.RawMessage) (any, error) {
	return &toolsListResult{Tools: s.tools.List()}, nil
}

// callToolParams are the parameters of tools/call.
type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall adapts the dispatcher to the tool registry boundary.
// Unknown tools are a protocol-level invalid-params error; failures inside
// a known tool come back as a tool result with isError set.
func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, error) {
	var p callToolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid tools/call parameters"}
	}
	if p.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "tool name is required"}
	}

	result, err := s.tools.Call(ctx, p.Name, p.Arguments)
	if err != nil {
		if errors.Is(err, tools.ErrToolNotFound) {
			return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", p.Name)}
		}
		return &CallToolResult{
			Content: []ToolContent{{Type: "text", Text: err.Error()}},
			IsError: true,
		}, nil
	}

	return &CallToolResult{
		Content: []ToolContent{{Type: "text", Text: string(result)}},
	}, nil
}

func writeJSONRPC(w http.ResponseWriter, msg *Message) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(msg)
}

func writeSessionError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
