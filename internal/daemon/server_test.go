package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/npratt/phasegraph/internal/store"
	"github.com/npratt/phasegraph/internal/testutil"
)

// waitForSocket waits for the socket to be ready to accept connections.
func waitForSocket(t *testing.T, socketPath string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket did not become ready within %v", timeout)
}

// shortSocketPath creates a short socket path to avoid Unix socket length limits.
// macOS has a 104 byte limit, Linux has 108 bytes.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "sock")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	_ = f.Close()
	_ = os.Remove(path)
	t.Cleanup(func() { _ = os.Remove(path) })
	return path
}

// startServer runs a daemon over s and returns it with its client.
func startServer(t *testing.T, s store.Store) (*Daemon, *Client) {
	t.Helper()
	sock := shortSocketPath(t)
	d := New(sock, "memory", s, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()
	waitForSocket(t, sock, 2*time.Second)

	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("daemon did not stop")
		}
	})
	return d, NewClient(sock)
}

// rawCall sends one request without going through Client.
func rawCall(t *testing.T, sock string, payload string) Response {
	t.Helper()
	conn, err := net.Dial("unix", sock)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(payload + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestDaemon_StartStop(t *testing.T) {
	sock := shortSocketPath(t)
	d := New(sock, "memory", store.NewMemoryStore(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()
	waitForSocket(t, sock, 2*time.Second)

	if !d.Running() {
		t.Error("daemon should be running after Start")
	}
	if d.StartTime().IsZero() {
		t.Error("StartTime() should be set after Start")
	}
	info, err := os.Stat(sock)
	if err != nil {
		t.Fatalf("socket missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != socketMode {
		t.Errorf("socket permissions = %o, want %o", perm, socketMode)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}

	if d.Running() {
		t.Error("daemon should not be running after stop")
	}
	if _, err := os.Stat(sock); !os.IsNotExist(err) {
		t.Error("socket file should be removed after stop")
	}
	// Second stop is a no-op.
	if err := d.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestDaemon_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemoryStore()
	d, c := startServer(t, backing)

	if err := c.ReplaceAll(ctx, testutil.SampleGraph()); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	nodes, err := c.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(nodes) != 4 || nodes[3].ID != testutil.ShipID {
		t.Fatalf("FetchAll() = %+v, want sample graph", nodes)
	}
	if len(nodes[3].ParentIDs) != 2 {
		t.Errorf("Ship parents = %v, want 2", nodes[3].ParentIDs)
	}

	if err := c.DeleteOne(ctx, testutil.ShipID); err != nil {
		t.Fatalf("DeleteOne() error = %v", err)
	}
	if err := c.DeleteOne(ctx, testutil.ShipID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteOne() error = %v, want ErrNotFound", err)
	}

	local, _ := backing.FetchAll(ctx)
	if len(local) != 3 {
		t.Errorf("backing store has %d nodes, want 3", len(local))
	}

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Status != "running" || status.Nodes != 3 || status.Driver != "memory" {
		t.Errorf("Status() = %+v", status)
	}
	if d.Requests() < 5 {
		t.Errorf("Requests() = %d, want at least 5", d.Requests())
	}
}

func TestDaemon_EmptyFetchReturnsEmpty(t *testing.T) {
	_, c := startServer(t, store.NewMemoryStore())
	nodes, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("FetchAll() = %v, want empty", nodes)
	}
}

func TestDaemon_InvalidRequests(t *testing.T) {
	d, _ := startServer(t, store.NewMemoryStore())

	tests := []struct {
		name    string
		payload string
	}{
		{"unknown method", `{"method":"nodes.explode"}`},
		{"missing params", `{"method":"nodes.delete_one"}`},
		{"empty id", `{"method":"nodes.delete_one","params":{"id":""}}`},
		{"bad node", `{"method":"nodes.replace_all","params":{"nodes":[{"id":"x","name":"","phase":1}]}}`},
		{"invalid json", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := rawCall(t, d.SocketPath(), tt.payload)
			if resp.Code != CodeInvalidRequest {
				t.Errorf("Code = %q, want %q (error %q)", resp.Code, CodeInvalidRequest, resp.Error)
			}
		})
	}
}

func TestDaemon_StoreFailureIsInternal(t *testing.T) {
	fake := testutil.NewFakeStore()
	fake.SetError(testutil.OpFetchAll, errors.New("disk gone"))
	d, _ := startServer(t, fake)

	resp := rawCall(t, d.SocketPath(), `{"method":"nodes.fetch_all","id":7}`)
	if resp.Code != CodeInternal {
		t.Errorf("Code = %q, want %q", resp.Code, CodeInternal)
	}
	if resp.ID != 7 {
		t.Errorf("ID = %d, want 7", resp.ID)
	}
}

func TestDaemon_NotFoundKeepsRequestID(t *testing.T) {
	d, _ := startServer(t, store.NewMemoryStore())

	resp := rawCall(t, d.SocketPath(), `{"method":"nodes.delete_one","params":{"id":"ghost"},"id":3}`)
	if resp.Code != CodeNotFound {
		t.Errorf("Code = %q, want %q (error %q)", resp.Code, CodeNotFound, resp.Error)
	}
	if resp.ID != 3 {
		t.Errorf("ID = %d, want 3", resp.ID)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"store not found", fmt.Errorf("delete x: %w", store.ErrNotFound), CodeNotFound},
		{"bad request", fmt.Errorf("%w: id is required", errBadRequest), CodeInvalidRequest},
		{"store unavailable", fmt.Errorf("fetch: %w", store.ErrUnavailable), CodeInternal},
		{"plain error", errors.New("disk gone"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Errorf("errorCode(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestReadRequest(t *testing.T) {
	if _, err := readRequest(strings.NewReader("")); err != io.EOF {
		t.Errorf("empty connection error = %v, want io.EOF", err)
	}
	for _, payload := range []string{`{"method":`, `{"id":1}`, `[]`} {
		if _, err := readRequest(strings.NewReader(payload)); !errors.Is(err, errBadRequest) {
			t.Errorf("readRequest(%s) error = %v, want errBadRequest", payload, err)
		}
	}
	req, err := readRequest(strings.NewReader(`{"method":"status","id":2}` + "\n"))
	if err != nil || req.Method != MethodStatus || req.ID != 2 {
		t.Errorf("readRequest() = %+v, %v", req, err)
	}
}

func TestDaemon_ShutdownWaitsForStoreWrite(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	fake := testutil.NewFakeStore()
	fake.Hook = func(op string) {
		if op == testutil.OpReplaceAll {
			close(entered)
			<-release
		}
	}

	sock := shortSocketPath(t)
	d := New(sock, "memory", fake, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()
	waitForSocket(t, sock, 2*time.Second)

	replaceErr := make(chan error, 1)
	go func() {
		replaceErr <- NewClient(sock).ReplaceAll(context.Background(), testutil.SampleGraph())
	}()
	<-entered
	cancel()

	select {
	case <-errCh:
		t.Fatal("Start() returned while a write was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop after the write finished")
	}
	if err := <-replaceErr; err != nil {
		t.Errorf("ReplaceAll() error = %v, want the write to complete", err)
	}
	if len(fake.Nodes()) != 4 {
		t.Errorf("store has %d nodes, want 4", len(fake.Nodes()))
	}
}

func TestDaemon_StopRequest(t *testing.T) {
	sock := shortSocketPath(t)
	d := New(sock, "memory", store.NewMemoryStore(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(context.Background()) }()
	waitForSocket(t, sock, 2*time.Second)

	if err := NewClient(sock).Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop after stop request")
	}
}

func TestDaemon_StartAlreadyRunning(t *testing.T) {
	d, _ := startServer(t, store.NewMemoryStore())
	if err := d.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}
}
