// ABOUTME: Thread-safe registry for gateway tools exposed over MCP.
// ABOUTME: Manages tool registration, listing, and dispatch by name.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrToolNotFound indicates the requested tool is not registered.
var ErrToolNotFound = errors.New("tool not found")

// ErrToolCollision indicates a tool name is already registered.
var ErrToolCollision = errors.New("tool name collision")

// Handler executes a tool call. Arguments arrive as the raw JSON object from
// the caller; the result is the raw JSON to return. A returned error is a
// tool-level failure, reported to the caller but not fatal to the transport.
type Handler func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

// Descriptor describes a tool as advertised to clients.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Annotations map[string]any  `json:"annotations,omitempty"`
}

// Tool pairs a descriptor with its handler.
type Tool struct {
	Descriptor Descriptor
	Handler    Handler
}

// Registry holds the tools the gateway exposes. It is safe for concurrent
// use; registration normally happens once at startup but lookup runs on
// every tools/list and tools/call.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Tool
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default().With("component", "tools")
	}
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool *Tool) error {
	if tool.Descriptor.Name == "" {
		return errors.New("tool name is required")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Descriptor.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Descriptor.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolCollision, tool.Descriptor.Name)
	}
	r.tools[tool.Descriptor.Name] = tool
	r.logger.Debug("registered tool", "tool_name", tool.Descriptor.Name)
	return nil
}

// RegisterAll registers a set of tools, stopping at the first failure.
func (r *Registry) RegisterAll(tools []*Tool) error {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// List returns the descriptors of all registered tools, sorted by name.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.tools))
	for _, tool := range r.tools {
		descriptors = append(descriptors, tool.Descriptor)
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})
	return descriptors
}

// Call dispatches a tool call by name. Unknown tools return ErrToolNotFound.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("tool not found", "tool_name", name)
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	r.logger.Info("dispatching tool call", "tool_name", name)
	return tool.Handler(ctx, args)
}
