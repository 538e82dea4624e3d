// ABOUTME: Entry point for the folio-gateway MCP server
// ABOUTME: Serves the transport and OAuth routes over one HTTP listener

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/folio-labs/folio-gateway/internal/auth"
	"github.com/folio-labs/folio-gateway/internal/config"
	"github.com/folio-labs/folio-gateway/internal/mcp"
	"github.com/folio-labs/folio-gateway/internal/oauth"
	"github.com/folio-labs/folio-gateway/internal/store"
	"github.com/folio-labs/folio-gateway/internal/tools"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  __       _ _
 / _| ___ | (_) ___         __ _  __ _| |_ _____      ____ _ _   _
| |_ / _ \| | |/ _ \ _____ / _' |/ _' | __/ _ \ \ /\ / / _' | | | |
|  _| (_) | | | (_) |_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
|_|  \___/|_|_|\___/       \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
                           |___/                             |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: FOLIO_CONFIG env var > XDG_CONFIG_HOME/folio/gateway.yaml > ~/.config/folio/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("FOLIO_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "folio", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: folio-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the gateway server")
		fmt.Println("  sweep    Delete expired codes, tokens, and sessions")
		fmt.Println("  health   Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "sweep":
		err = runSweep(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Base URL: %s\n", cfg.Server.BaseURL)
	fmt.Println()

	logger.Info("starting folio-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"base_url", cfg.Server.BaseURL,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	verifier := auth.NewJWTVerifier([]byte(cfg.Identity.JWTSecret))

	oauthServer, err := oauth.NewServer(oauth.Config{
		Store:          st,
		Issuer:         cfg.Server.BaseURL,
		LoginURL:       cfg.Identity.LoginURL,
		IdentityCookie: cfg.Identity.CookieName,
		Verifier:       verifier,
		CodeTTL:        cfg.OAuth.CodeTTL,
		TokenTTL:       cfg.OAuth.TokenTTL,
		Logger:         logger.With("component", "oauth"),
	})
	if err != nil {
		return fmt.Errorf("creating oauth server: %w", err)
	}

	registry := tools.NewRegistry(logger.With("component", "tools"))
	if err := registry.RegisterAll(tools.ContentPack(st)); err != nil {
		return fmt.Errorf("registering content tools: %w", err)
	}
	if cfg.Tools.ManifestPath != "" {
		manifest, err := tools.LoadManifest(cfg.Tools.ManifestPath)
		if err != nil {
			return fmt.Errorf("loading tool manifest: %w", err)
		}
		if err := registry.ApplyManifest(manifest); err != nil {
			return fmt.Errorf("applying tool manifest: %w", err)
		}
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Sessions:      st,
		Tools:         registry,
		SessionTTL:    cfg.OAuth.SessionTTL,
		ServerName:    "folio-gateway",
		ServerVersion: version,
		Logger:        logger.With("component", "mcp"),
	})
	if err != nil {
		return fmt.Errorf("creating mcp server: %w", err)
	}

	mux := http.NewServeMux()
	oauthServer.RegisterRoutes(mux)

	bearer := auth.BearerMiddleware(st, cfg.Server.BaseURL+"/mcp", logger.With("component", "auth"))
	mux.Handle("/mcp", bearer(mcpServer))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// runSweep deletes expired authorization codes, access tokens, and stale
// sessions. It is meant to be invoked from cron or a systemd timer; the
// server never schedules it on its own.
func runSweep(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	now := time.Now().UTC()
	if err := st.DeleteExpiredCodes(ctx, now); err != nil {
		return fmt.Errorf("sweeping codes: %w", err)
	}
	if err := st.DeleteExpiredTokens(ctx, now); err != nil {
		return fmt.Errorf("sweeping tokens: %w", err)
	}
	if err := st.DeleteExpiredSessions(ctx, now.Add(-cfg.OAuth.SessionTTL)); err != nil {
		return fmt.Errorf("sweeping sessions: %w", err)
	}

	logger.Info("sweep complete")
	fmt.Println("swept expired codes, tokens, and sessions")
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
