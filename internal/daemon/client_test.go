package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/npratt/phasegraph/internal/store"
)

// mockServer starts a mock server that returns canned responses.
func mockServer(t *testing.T, sockPath string, handler func(req Request) Response) func() {
	t.Helper()

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-done:
					return
				default:
					continue
				}
			}

			go func(c net.Conn) {
				defer func() { _ = c.Close() }()

				var req Request
				if err := json.NewDecoder(c).Decode(&req); err != nil {
					return
				}

				resp := handler(req)
				resp.ID = req.ID
				_ = json.NewEncoder(c).Encode(resp)
			}(conn)
		}
	}()

	return func() {
		close(done)
		_ = listener.Close()
		_ = os.Remove(sockPath)
	}
}

func TestClient_DeleteOne_SendsID(t *testing.T) {
	sockPath := shortSocketPath(t)

	var gotID string
	cleanup := mockServer(t, sockPath, func(req Request) Response {
		if req.Method != MethodDeleteOne {
			return Response{Error: "wrong method"}
		}
		var p DeleteOneParams
		_ = json.Unmarshal(req.Params, &p)
		gotID = p.ID
		return Response{Result: p.ID}
	})
	defer cleanup()

	if err := NewClient(sockPath).DeleteOne(context.Background(), "abc"); err != nil {
		t.Fatalf("DeleteOne() error = %v", err)
	}
	if gotID != "abc" {
		t.Errorf("server saw id %q, want %q", gotID, "abc")
	}
}

func TestClient_NotFoundCode(t *testing.T) {
	sockPath := shortSocketPath(t)
	cleanup := mockServer(t, sockPath, func(req Request) Response {
		return Response{Error: "no such node", Code: CodeNotFound}
	})
	defer cleanup()

	err := NewClient(sockPath).DeleteOne(context.Background(), "gone")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteOne() error = %v, want ErrNotFound", err)
	}
}

func TestClient_ServerError(t *testing.T) {
	sockPath := shortSocketPath(t)
	cleanup := mockServer(t, sockPath, func(req Request) Response {
		return Response{Error: "disk full", Code: CodeInternal}
	})
	defer cleanup()

	err := NewClient(sockPath).ReplaceAll(context.Background(), nil)
	if err == nil {
		t.Fatal("ReplaceAll() error = nil, want server error")
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrUnavailable) {
		t.Errorf("ReplaceAll() error = %v, want plain server error", err)
	}
}

func TestClient_SocketNotFound(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "missing.sock"))

	_, err := client.FetchAll(context.Background())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("FetchAll() error = %v, want ErrUnavailable", err)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	sockPath := shortSocketPath(t)

	// A socket file with no listener refuses connections.
	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if ul, ok := listener.(*net.UnixListener); ok {
		ul.SetUnlinkOnClose(false)
	}
	_ = listener.Close()

	_, err = NewClient(sockPath).FetchAll(context.Background())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("FetchAll() error = %v, want ErrUnavailable", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	sockPath := shortSocketPath(t)
	cleanup := mockServer(t, sockPath, func(req Request) Response {
		time.Sleep(300 * time.Millisecond)
		return Response{Result: "late"}
	})
	defer cleanup()

	client := NewClient(sockPath)
	client.SetTimeout(50 * time.Millisecond)

	_, err := client.FetchAll(context.Background())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("FetchAll() error = %v, want ErrUnavailable on timeout", err)
	}
}

func TestClient_IsRunning(t *testing.T) {
	sockPath := shortSocketPath(t)
	client := NewClient(sockPath)
	if client.IsRunning() {
		t.Error("IsRunning() = true with no server")
	}

	cleanup := mockServer(t, sockPath, func(req Request) Response { return Response{} })
	defer cleanup()
	if !client.IsRunning() {
		t.Error("IsRunning() = false with server listening")
	}
}
