// Package api provides the local HTTP and WebSocket bridge the front-end
// uses to bind keys, activate the hook and run macros.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"mousemacros/internal/config"
	"mousemacros/internal/hotkey"
	"mousemacros/internal/keys"
	"mousemacros/internal/logging"
	"mousemacros/internal/macro"
	"mousemacros/internal/metrics"
	"mousemacros/internal/protocol"
)

// Server provides HTTP API for the front-end
type Server struct {
	configMgr *config.Manager
	hotkeys   *hotkey.Manager
	macros    *macro.Gate
	hub       *Hub
	log       zerolog.Logger
}

// NewServer creates a new API server and makes it the command handler of hub.
func NewServer(configMgr *config.Manager, hotkeys *hotkey.Manager, macros *macro.Gate, hub *Hub, log zerolog.Logger) *Server {
	s := &Server{
		configMgr: configMgr,
		hotkeys:   hotkeys,
		macros:    macros,
		hub:       hub,
		log:       logging.Subsystem(log, "api"),
	}
	hub.setInvoker(s.invoke)
	return s
}

// Handler returns the bridge routes. Work started by requests, such as
// activation, lives until ctx is cancelled.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/bind_key", s.command(ctx, protocol.CmdBindKey))
	mux.HandleFunc("/api/bind_hold_key", s.command(ctx, protocol.CmdBindHoldKey))
	mux.HandleFunc("/api/active_handle", s.command(ctx, protocol.CmdActiveHandle))
	mux.HandleFunc("/api/mouse_move", s.command(ctx, protocol.CmdMouseMove))
	mux.HandleFunc("/api/mouse_click", s.command(ctx, protocol.CmdMouseClick))
	mux.HandleFunc("/api/keys", s.handleKeys)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.hub.handleWebSocket(ctx, w, r)
	})
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", s.handleHealth)

	return s.authMiddleware(s.recoverMiddleware(mux))
}

// Start serves the bridge on 127.0.0.1:port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves the bridge on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("starting API server")
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve API: %w", err)
	}
	return nil
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error().Interface("panic", err).Bytes("stack", debug.Stack()).Msg("handler panicked")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("request")

		// Skip auth for health check
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if token := s.configMgr.Get().General.APIToken; token != "" {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				// browsers cannot set headers on WebSocket upgrades
				if q := r.URL.Query().Get("token"); q != "" {
					auth = "Bearer " + q
				}
			}
			if auth != "Bearer "+token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// command serves POST /api/<cmd> with the JSON body as arguments.
func (s *Server) command(ctx context.Context, cmd string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var args json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, protocol.ResultPayload{Error: "invalid request body"})
			return
		}

		res, status := s.invoke(ctx, protocol.InvokePayload{Command: cmd, Args: args})
		writeJSON(w, status, res)
	}
}

// invoke runs one command. It is shared by the HTTP routes and WebSocket
// invoke messages.
func (s *Server) invoke(ctx context.Context, in protocol.InvokePayload) (protocol.ResultPayload, int) {
	switch in.Command {
	case protocol.CmdBindKey, protocol.CmdBindHoldKey:
		var args protocol.BindArgs
		if err := decodeArgs(in.Args, &args); err != nil || args.NameKey == "" {
			return protocol.ResultPayload{Error: "name_key is required"}, http.StatusBadRequest
		}
		bind := s.hotkeys.BindKey
		if in.Command == protocol.CmdBindHoldKey {
			bind = s.hotkeys.BindHoldKey
		}
		if err := bind(args.NameKey); err != nil {
			s.log.Warn().Err(err).Str("name", args.NameKey).Msg("binding rejected")
			return protocol.ResultPayload{Error: err.Error()}, http.StatusBadRequest
		}
		return protocol.ResultPayload{OK: true}, http.StatusOK

	case protocol.CmdActiveHandle:
		done, err := s.hotkeys.Start(ctx)
		if errors.Is(err, hotkey.ErrAlreadyActive) {
			return protocol.ResultPayload{Error: err.Error()}, http.StatusConflict
		}
		if err != nil {
			return protocol.ResultPayload{Error: err.Error()}, http.StatusInternalServerError
		}
		go func() {
			if err := <-done; err != nil {
				s.log.Error().Err(err).Msg("activation ended")
			}
		}()
		return protocol.ResultPayload{OK: true}, http.StatusOK

	case protocol.CmdMouseMove:
		preset := s.configMgr.Get().ActiveVariant().Main
		args := protocol.MoveArgs{Sensitivity: preset.Sensitivity, Times: preset.Times, Rate: preset.Rate}
		if err := decodeArgs(in.Args, &args); err != nil {
			return protocol.ResultPayload{Error: err.Error()}, http.StatusBadRequest
		}
		if args.Gated {
			return resultOf(s.macros.Move(args.Sensitivity, args.Times, args.Rate)), http.StatusOK
		}
		return protocol.ResultPayload{OK: s.macros.Simulator().Move(args.Sensitivity, args.Times, args.Rate)}, http.StatusOK

	case protocol.CmdMouseClick:
		preset := s.configMgr.Get().ActiveVariant().Click
		args := protocol.ClickArgs{Times: preset.Times, Rate: preset.Rate}
		if err := decodeArgs(in.Args, &args); err != nil {
			return protocol.ResultPayload{Error: err.Error()}, http.StatusBadRequest
		}
		if args.Gated {
			return resultOf(s.macros.Click(args.Times, args.Rate)), http.StatusOK
		}
		return protocol.ResultPayload{OK: s.macros.Simulator().Click(args.Times, args.Rate)}, http.StatusOK
	}

	return protocol.ResultPayload{Error: fmt.Sprintf("unknown command %q", in.Command)}, http.StatusNotFound
}

// decodeArgs overlays raw onto v. Missing args keep v's values.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid args: %w", err)
	}
	return nil
}

func resultOf(r macro.Result) protocol.ResultPayload {
	return protocol.ResultPayload{OK: r.OK, Skipped: r.Skipped}
}

// handleConfig handles GET (read) and POST (update) for configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		writeJSON(w, http.StatusOK, s.configMgr.Get())

	case "POST":
		var newCfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			http.Error(w, "Invalid configuration data", http.StatusBadRequest)
			return
		}

		s.log.Info().Str("remote", r.RemoteAddr).Msg("receiving configuration update")

		s.configMgr.Set(&newCfg)
		if err := s.configMgr.Save(); err != nil {
			s.log.Error().Err(err).Msg("failed to save received config")
			http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := s.hotkeys.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"active":            st.Active,
		"keyboard_bindings": st.KeyboardBindings,
		"mouse_bindings":    st.MouseBindings,
		"hold_workers":      st.HoldWorkers,
		"script_active":     s.macros.ScriptActive(),
		"click_active":      s.macros.ClickActive(),
		"clients":           s.hub.Clients(),
	})
}

// handleKeys handles GET /api/keys
func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, keys.Names())
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
