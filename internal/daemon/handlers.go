package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// dispatch runs the request against the store. Errors are mapped to wire
// codes by the caller.
func (d *Daemon) dispatch(ctx context.Context, req *Request) (any, error) {
	d.requests.Add(1)
	switch req.Method {
	case MethodFetchAll:
		return d.store.FetchAll(ctx)
	case MethodReplaceAll:
		return d.handleReplaceAll(ctx, req)
	case MethodDeleteOne:
		return d.handleDeleteOne(ctx, req)
	case MethodStatus:
		return d.handleStatus(ctx), nil
	case MethodStop:
		return d.handleStop()
	default:
		return nil, fmt.Errorf("%w: unknown method %q", errBadRequest, req.Method)
	}
}

func (d *Daemon) handleReplaceAll(ctx context.Context, req *Request) (any, error) {
	var params ReplaceAllParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	for i, n := range params.Nodes {
		if n.ID == "" || n.Name == "" || n.Phase < 1 {
			return nil, fmt.Errorf("%w: node %d: id, name and phase >= 1 are required", errBadRequest, i)
		}
	}
	if err := d.store.ReplaceAll(ctx, params.Nodes); err != nil {
		return nil, fmt.Errorf("replace %d nodes: %w", len(params.Nodes), err)
	}
	d.logger.Debug("nodes replaced", "nodes", len(params.Nodes))
	return len(params.Nodes), nil
}

func (d *Daemon) handleDeleteOne(ctx context.Context, req *Request) (any, error) {
	var params DeleteOneParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	if params.ID == "" {
		return nil, fmt.Errorf("%w: id is required", errBadRequest)
	}
	if err := d.store.DeleteOne(ctx, params.ID); err != nil {
		return nil, fmt.Errorf("delete %s: %w", params.ID, err)
	}
	d.logger.Debug("node deleted", "id", params.ID)
	return params.ID, nil
}

// handleStatus reports uptime and node count. A store that cannot be read
// shows as degraded rather than failing the call.
func (d *Daemon) handleStatus(ctx context.Context) StatusResponse {
	d.mu.RLock()
	startTime := d.startTime
	d.mu.RUnlock()

	status := StatusResponse{
		Status:    "running",
		Driver:    d.driver,
		Requests:  d.requests.Load(),
		Uptime:    time.Since(startTime).Truncate(time.Second).String(),
		StartTime: startTime.Format(time.RFC3339),
	}
	if nodes, err := d.store.FetchAll(ctx); err == nil {
		status.Nodes = len(nodes)
	} else {
		status.Status = "degraded"
	}
	return status
}

// handleStop schedules a shutdown after the response is written.
func (d *Daemon) handleStop() (any, error) {
	d.mu.RLock()
	stop := d.stopFunc
	d.mu.RUnlock()
	if stop == nil {
		return nil, errors.New("store server not started")
	}
	go func() {
		time.Sleep(50 * time.Millisecond)
		stop()
	}()
	return "stopping", nil
}

func decodeParams(req *Request, out any) error {
	if len(req.Params) == 0 {
		return fmt.Errorf("%w: %s: missing params", errBadRequest, req.Method)
	}
	if err := json.Unmarshal(req.Params, out); err != nil {
		return fmt.Errorf("%w: %s: decode params: %v", errBadRequest, req.Method, err)
	}
	return nil
}
