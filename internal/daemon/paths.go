package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/npratt/phasegraph/internal/config"
)

// Info contains connection information for a running store server.
// It is written to daemon.json so clients can find the server regardless of
// which directory they're run from.
type Info struct {
	SocketPath string    `json:"socket_path"`
	PIDPath    string    `json:"pid_path"`
	Driver     string    `json:"driver"`
	HTTPAddr   string    `json:"http_addr,omitempty"`
	StartTime  time.Time `json:"start_time"`
	PID        int       `json:"pid"`
}

// infoFile is the name of the file containing server connection info.
const infoFile = "daemon.json"

// FindInfo locates daemon.json for the project containing startDir.
func FindInfo(startDir string) (*Info, error) {
	infoPath := InfoPath(config.FindProjectRoot(startDir))
	info, err := ReadInfo(infoPath)
	if err != nil {
		return nil, fmt.Errorf("store server info not found (checked %s)", infoPath)
	}
	return info, nil
}

// WriteInfo writes server connection info to the specified path.
func WriteInfo(path string, info *Info) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal daemon info: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write daemon info: %w", err)
	}
	return nil
}

// ReadInfo reads server connection info from the specified path.
func ReadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read daemon info: %w", err)
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal daemon info: %w", err)
	}
	return &info, nil
}

// RemoveInfo removes the daemon.json file.
func RemoveInfo(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove daemon info: %w", err)
	}
	return nil
}

// InfoPath returns the path to daemon.json under the project root.
func InfoPath(projectRoot string) string {
	return filepath.Join(projectRoot, config.ProjectConfigDir, infoFile)
}

// DiscoverSocket returns the socket of a running server for the project
// containing startDir, falling back to fallback when none is recorded.
func DiscoverSocket(startDir, fallback string) string {
	if info, err := FindInfo(startDir); err == nil && info.SocketPath != "" {
		return info.SocketPath
	}
	return fallback
}
