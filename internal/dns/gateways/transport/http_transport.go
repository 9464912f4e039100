package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haukened/rr-dnsadm/internal/dns/common/log"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
	"github.com/haukened/rr-dnsadm/internal/dns/services/dnsadmin"
)

const shutdownTimeout = 5 * time.Second

// commandRequest is the JSON body of a command call.
type commandRequest struct {
	Args    []string       `json:"args"`
	Options map[string]any `json:"options"`
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Code    string `json:"code"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// HTTPTransport implements ServerTransport for JSON commands over HTTP.
//
//	POST /api/v1/commands/:name  {"args": [...], "options": {...}}
//	GET  /api/v1/commands
//	GET  /healthz
type HTTPTransport struct {
	addr   string
	logger log.Logger

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	running  bool
}

// NewHTTPTransport creates a new HTTP transport instance.
func NewHTTPTransport(addr string, logger log.Logger) *HTTPTransport {
	return &HTTPTransport{
		addr:   addr,
		logger: logger,
	}
}

// Start binds the listener and serves requests until Stop is called or ctx is done.
func (t *HTTPTransport) Start(ctx context.Context, handler dnsadmin.CommandHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("HTTP transport already running")
	}

	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to bind TCP socket on %s: %w", t.addr, err)
	}

	t.listener = ln
	t.server = &http.Server{
		Handler:           t.routes(handler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	t.running = true

	t.logger.Info(map[string]any{
		"transport": "http",
		"address":   ln.Addr().String(),
	}, "admin transport started")

	srv := t.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error(map[string]any{"error": err.Error()}, "admin transport failed")
		}
	}()
	go func() {
		<-ctx.Done()
		t.logger.Debug(nil, "HTTP transport stopping due to context cancellation")
		_ = t.Stop()
	}()

	return nil
}

// Stop gracefully shuts down the HTTP transport.
func (t *HTTPTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := t.server.Shutdown(ctx)
	if err != nil {
		t.logger.Warn(map[string]any{
			"error": err.Error(),
		}, "Error shutting down HTTP server")
	}

	t.running = false

	t.logger.Info(map[string]any{
		"transport": "http",
		"address":   t.listener.Addr().String(),
	}, "admin transport stopped")

	return err
}

// Address returns the bound address once started, otherwise the configured one.
func (t *HTTPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

// routes builds the gin engine serving handler.
func (t *HTTPTransport) routes(handler dnsadmin.CommandHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(t.logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	v1.GET("/commands", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"commands": dnsadmin.Commands()})
	})
	v1.POST("/commands/:name", func(c *gin.Context) {
		var req commandRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": errorBody{
					Code:    "BadRequest",
					Message: err.Error(),
				}})
				return
			}
		}
		out, err := handler.Execute(c.Request.Context(), c.Param("name"), req.Args, req.Options)
		if err != nil {
			status, body := errorResponse(err)
			c.JSON(status, gin.H{"error": body})
			return
		}
		c.JSON(http.StatusOK, out)
	})

	return engine
}

// errorResponse maps a command error to an HTTP status and body.
func errorResponse(err error) (int, errorBody) {
	body := errorBody{
		Code:    domain.ErrorCode(err),
		Name:    domain.ErrorName(err),
		Message: err.Error(),
	}
	if errors.Is(err, dnsadmin.ErrUnknownCommand) {
		body.Code = "UnknownCommand"
		return http.StatusNotFound, body
	}
	switch body.Code {
	case domain.CodeNotFound:
		return http.StatusNotFound, body
	case domain.CodeDuplicateEntry, domain.CodeConflict:
		return http.StatusConflict, body
	case domain.CodeValidation, domain.CodeRequirement, domain.CodeAttrValueNotFound, domain.CodeEmptyModlist:
		return http.StatusBadRequest, body
	case domain.CodeSecondaryEffect:
		return http.StatusInternalServerError, body
	}
	body.Code = "InternalError"
	return http.StatusInternalServerError, body
}

var _ dnsadmin.ServerTransport = (*HTTPTransport)(nil)
