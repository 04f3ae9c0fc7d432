package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/npratt/phasegraph/internal/store"
)

const (
	// maxRequestSize bounds one request; a full replace_all of a large graph
	// is the biggest message a client sends.
	maxRequestSize = 8 << 20
	// requestReadTimeout is how long a client may take to send its request.
	requestReadTimeout = 30 * time.Second
	socketMode         = 0o600
)

// errBadRequest marks failures caused by the request itself. They are
// reported as invalid_request and never logged as server errors.
var errBadRequest = errors.New("invalid request")

// Start serves the store on the Unix socket until ctx ends or a stop request
// arrives. Requests already dispatched to the store run to completion before
// Start returns, so the caller may close the store afterwards.
func (d *Daemon) Start(ctx context.Context) error {
	if d.Running() {
		return fmt.Errorf("%w (socket: %s)", ErrAlreadyRunning, d.sockPath)
	}

	ln, err := listenSocket(d.sockPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	d.listener = ln
	d.running = true
	d.startTime = time.Now()
	d.stopFunc = cancel
	d.mu.Unlock()

	d.logger.Info("store server started", "socket", d.sockPath, "driver", d.driver)

	accepted := make(chan struct{})
	go func() {
		defer close(accepted)
		d.acceptLoop(ctx, ln)
	}()

	<-ctx.Done()
	err = d.Stop()
	<-accepted
	d.inflight.Wait()
	return err
}

// listenSocket replaces any stale socket file at path and listens on it,
// readable by the owner only.
func listenSocket(path string) (net.Listener, error) {
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(path, socketMode); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("set socket permissions: %w", err)
	}
	return ln, nil
}

// Stop closes the listener and removes the socket file. Safe to call more
// than once; a blocked Start returns once it has drained requests.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}
	d.running = false

	if d.stopFunc != nil {
		d.stopFunc()
		d.stopFunc = nil
	}
	if d.listener != nil {
		if err := d.listener.Close(); err != nil {
			d.logger.Error("close listener", "error", err)
		}
		d.listener = nil
	}
	_ = os.Remove(d.sockPath)

	d.logger.Info("store server stopped", "requests", d.requests.Load())
	return nil
}

func (d *Daemon) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			d.logger.Warn("accept failed", "error", err)
			continue
		}

		d.inflight.Add(1)
		go func() {
			defer d.inflight.Done()
			d.handleConnection(ctx, conn)
		}()
	}
}

// handleConnection answers the single request a client sends per connection.
// Shutdown cuts a pending read short but never a request already handed to
// the store.
func (d *Daemon) handleConnection(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	if err := conn.SetReadDeadline(time.Now().Add(requestReadTimeout)); err != nil {
		d.logger.Error("set read deadline", "error", err)
		return
	}
	release := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer release()

	req, err := readRequest(conn)
	if errors.Is(err, io.EOF) {
		// Liveness checks connect and hang up without a request.
		return
	}

	var resp Response
	if err != nil {
		resp = d.failure(nil, err)
	} else {
		resp = d.respond(context.WithoutCancel(ctx), req)
	}
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		d.logger.Warn("write response failed", "method", req.methodName(), "error", err)
	}
}

// readRequest decodes one request. io.EOF is returned unwrapped when the
// client sent nothing at all.
func readRequest(r io.Reader) (*Request, error) {
	var req Request
	err := json.NewDecoder(io.LimitReader(r, maxRequestSize)).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case err != nil:
		return nil, fmt.Errorf("%w: decode: %v", errBadRequest, err)
	case req.Method == "":
		return nil, fmt.Errorf("%w: method is required", errBadRequest)
	}
	return &req, nil
}

func (d *Daemon) respond(ctx context.Context, req *Request) Response {
	result, err := d.dispatch(ctx, req)
	if err != nil {
		return d.failure(req, err)
	}
	return Response{ID: req.ID, Result: result}
}

// failure turns err into an error response. req is nil when the request
// could not be read.
func (d *Daemon) failure(req *Request, err error) Response {
	resp := Response{Error: err.Error(), Code: errorCode(err)}
	method := req.methodName()
	if req != nil {
		resp.ID = req.ID
	}

	switch resp.Code {
	case CodeInternal:
		d.logger.Error("request failed", "method", method, "error", err)
	case CodeNotFound:
		d.logger.Debug("request target missing", "method", method, "error", err)
	default:
		d.logger.Warn("rejected request", "method", method, "error", err)
	}
	return resp
}

// errorCode maps an error to the code clients switch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, errBadRequest):
		return CodeInvalidRequest
	default:
		return CodeInternal
	}
}
