package daemon

import (
	"encoding/json"

	"github.com/npratt/phasegraph/internal/graph"
)

// RPC method names.
const (
	MethodFetchAll   = "nodes.fetch_all"
	MethodReplaceAll = "nodes.replace_all"
	MethodDeleteOne  = "nodes.delete_one"
	MethodStatus     = "status"
	MethodStop       = "stop"
)

// Error codes carried in Response.Code.
const (
	CodeNotFound       = "not_found"
	CodeInvalidRequest = "invalid_request"
	CodeInternal       = "internal"
)

// Request represents a JSON-RPC request from a client.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     int             `json:"id,omitempty"`
}

// Response represents a JSON-RPC response to a client.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// methodName is the request's method, or "" for a request that was never
// decoded.
func (r *Request) methodName() string {
	if r == nil {
		return ""
	}
	return r.Method
}

// ReplaceAllParams is the payload of nodes.replace_all.
type ReplaceAllParams struct {
	Nodes []graph.Node `json:"nodes"`
}

// DeleteOneParams is the payload of nodes.delete_one.
type DeleteOneParams struct {
	ID string `json:"id"`
}

// StatusResponse contains store server status information.
type StatusResponse struct {
	Status    string `json:"status"`
	Driver    string `json:"driver"`
	Nodes     int    `json:"nodes"`
	Requests  int64  `json:"requests"`
	Uptime    string `json:"uptime"`
	StartTime string `json:"start_time"`
}
