package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/linkbox/internal/shared"
)

// DefaultCallbackTimeout bounds how long sign-in waits for the browser.
const DefaultCallbackTimeout = 2 * time.Minute

// CallbackServer serves a single [OAuthHandler] until the callback arrives.
type CallbackServer struct {
	srv     *http.Server
	ln      net.Listener
	handler *OAuthHandler
	errs    chan error
	logger  *log.Logger
}

// StartCallbackServer listens on addr and serves handler in the background.
// addr may use port 0; [CallbackServer.Addr] reports the bound address.
func StartCallbackServer(addr string, handler *OAuthHandler, logger *log.Logger) (*CallbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handler(handler)
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "waiting for sign-in")
	}))

	c := &CallbackServer{
		srv:     &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		ln:      ln,
		handler: handler,
		errs:    make(chan error, 1),
		logger:  logger,
	}

	go func() {
		if err := c.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.errs <- err
		}
	}()

	logger.Debug("callback server started", "addr", c.Addr())
	return c, nil
}

// Addr returns the host:port the server is bound to.
func (c *CallbackServer) Addr() string {
	return c.ln.Addr().String()
}

// Wait blocks until the callback delivers a token, the server fails, ctx ends or timeout elapses.
func (c *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (*oauth2.Token, error) {
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-c.handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		return result.Token, nil
	case err := <-c.errs:
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: no callback within %s", shared.ErrTimeout, timeout)
	}
}

// Shutdown stops the server, waiting up to five seconds for in-flight requests.
func (c *CallbackServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.srv.Shutdown(ctx)
}
