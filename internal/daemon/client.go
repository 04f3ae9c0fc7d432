package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/store"
)

const (
	// DefaultClientTimeout is the default timeout for client operations.
	DefaultClientTimeout = 5 * time.Second
)

// Client connects to the store server via Unix socket. It implements
// store.Store so the sync coordinator can use a remote store unchanged.
type Client struct {
	sockPath string
	timeout  time.Duration
}

var _ store.Store = (*Client)(nil)

// NewClient creates a new client for the server listening on sockPath.
func NewClient(sockPath string) *Client {
	return &Client{
		sockPath: sockPath,
		timeout:  DefaultClientTimeout,
	}
}

// SetTimeout sets the timeout for client operations.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// call sends a JSON-RPC request and returns the response. The earlier of the
// context deadline and the client timeout bounds the whole exchange.
func (c *Client) call(ctx context.Context, method string, params any) (*Response, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "unix", c.sockPath)
	if err != nil {
		return nil, c.wrapConnError(err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	req := Request{Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		req.Params = raw
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, c.wrapConnError(fmt.Errorf("send request: %w", err))
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, c.wrapConnError(fmt.Errorf("read response: %w", err))
	}

	if resp.Error != "" {
		switch resp.Code {
		case CodeNotFound:
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, resp.Error)
		default:
			return nil, fmt.Errorf("store server error: %s", resp.Error)
		}
	}

	return &resp, nil
}

// wrapConnError converts connection errors to user-friendly messages that
// match store.ErrUnavailable.
func (c *Client) wrapConnError(err error) error {
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		switch sysErr {
		case syscall.ENOENT:
			return fmt.Errorf("%w: store server not running (socket not found)", store.ErrUnavailable)
		case syscall.ECONNREFUSED:
			return fmt.Errorf("%w: store server not running (connection refused)", store.ErrUnavailable)
		}
	}

	if os.IsNotExist(err) {
		return fmt.Errorf("%w: store server not running (socket not found)", store.ErrUnavailable)
	}

	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: store server request timed out", store.ErrUnavailable)
	}

	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

// decodeResult re-marshals the generic result into out.
func decodeResult(resp *Response, out any) error {
	data, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}

// FetchAll returns every node held by the server.
func (c *Client) FetchAll(ctx context.Context) ([]graph.Node, error) {
	resp, err := c.call(ctx, MethodFetchAll, nil)
	if err != nil {
		return nil, err
	}
	var nodes []graph.Node
	if resp.Result == nil {
		return nodes, nil
	}
	if err := decodeResult(resp, &nodes); err != nil {
		return nil, err
	}
	for i := range nodes {
		nodes[i] = nodes[i].Clone()
	}
	return nodes, nil
}

// ReplaceAll replaces the server's collection.
func (c *Client) ReplaceAll(ctx context.Context, nodes []graph.Node) error {
	_, err := c.call(ctx, MethodReplaceAll, ReplaceAllParams{Nodes: nodes})
	return err
}

// DeleteOne removes a node on the server.
func (c *Client) DeleteOne(ctx context.Context, id string) error {
	_, err := c.call(ctx, MethodDeleteOne, DeleteOneParams{ID: id})
	return err
}

// Close is a no-op; connections are per call.
func (c *Client) Close() error {
	return nil
}

// Status returns the current server status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	resp, err := c.call(ctx, MethodStatus, nil)
	if err != nil {
		return nil, err
	}
	var status StatusResponse
	if err := decodeResult(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Stop asks the server to shut down.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.call(ctx, MethodStop, nil)
	return err
}

// IsRunning checks if the server is running by attempting to connect.
func (c *Client) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
