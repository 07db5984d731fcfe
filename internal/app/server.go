package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/router"
	"github.com/vk/reactgrid/internal/sm"
)

// maxMessageSize bounds request bodies accepted by the trigger endpoint.
const maxMessageSize = 1 << 20

// invokeResponse is the JSON body returned by the trigger endpoint.
type invokeResponse struct {
	OK     bool   `json:"ok"`
	Result string `json:"result"`
	Reply  string `json:"reply,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Handler returns the HTTP API of the app.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("GET /modules", a.modulesHandler)
	mux.HandleFunc("POST /modules/{module}/{handler}", a.invokeHandler)
	return mux
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) modulesHandler(w http.ResponseWriter, r *http.Request) {
	infos := make([]router.ModuleInfo, 0)
	for _, name := range a.router.Modules() {
		if info, ok := a.router.Describe(name); ok {
			infos = append(infos, info)
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

// invokeHandler triggers an entry point or input with the request body as
// the message.
func (a *App) invokeHandler(w http.ResponseWriter, r *http.Request) {
	moduleName, handler := r.PathValue("module"), r.PathValue("handler")
	ctx, logger := ctxlog.With(ctxlog.WithLogger(r.Context(), a.logger), "remote_addr", r.RemoteAddr)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, invokeResponse{Error: fmt.Sprintf("read body: %v", err)})
		return
	}
	if len(body) > maxMessageSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, invokeResponse{Error: "message too large"})
		return
	}

	logger.Debug("Trigger endpoint hit.", "module", moduleName, "handler", handler, "len", len(body))
	res, err := a.router.Invoke(ctx, moduleName, handler, sm.NewMessage(body))
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, router.ErrNotDispatchable) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, invokeResponse{Result: res.String(), Error: err.Error()})
		return
	}

	resp := invokeResponse{OK: res.OK(), Result: res.String(), Reason: res.Reason()}
	if reply, ok := res.Reply(); ok {
		resp.Reply = reply.String()
	}
	status := http.StatusOK
	if !res.OK() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// startHTTPServer runs the HTTP API in the background when a port is set.
func (a *App) startHTTPServer() {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Configuring HTTP server.")
	if a.config.HTTPPort <= 0 {
		logger.Debug("HTTP server not started: disabled")
		return
	}

	addr := fmt.Sprintf(":%d", a.config.HTTPPort)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("🩺 HTTP server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeHTTPServer() error {
	logger := ctxlog.FromContext(a.ctx)
	if a.httpServer == nil {
		logger.Debug("HTTP server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), shutdownTimeout)
	defer cancel()

	logger.Info("🩺 Shutting down HTTP server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	logger.Debug("HTTP server shut down gracefully.")
	return nil
}
