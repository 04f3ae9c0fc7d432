package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/npratt/phasegraph/internal/graph"
)

func sampleNodes() []graph.Node {
	return []graph.Node{
		{ID: "r", Name: "Research", Phase: 1, ParentIDs: []string{}, Categories: []graph.Category{}},
		{ID: "b", Name: "Build", Phase: 2, ParentIDs: []string{"r"}, Categories: []graph.Category{graph.CategoryCreation}},
		{ID: "s", Name: "Ship", Phase: 3, ParentIDs: []string{"b", "gone"}, Categories: []graph.Category{graph.CategoryScore, graph.CategoryStrategy}},
	}
}

// backends returns a fresh instance of every local backend.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	sqlite, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "nodes.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	bdg, err := NewBadgerStore(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadgerStore() error = %v", err)
	}

	all := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
		"badger": bdg,
	}
	t.Cleanup(func() {
		for _, s := range all {
			s.Close()
		}
	})
	return all
}

func TestStore_EmptyFetch(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			nodes, err := s.FetchAll(context.Background())
			if err != nil {
				t.Fatalf("FetchAll() error = %v", err)
			}
			if len(nodes) != 0 {
				t.Errorf("FetchAll() = %v, want empty", nodes)
			}
		})
	}
}

func TestStore_ReplaceAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleNodes()
			if err := s.ReplaceAll(ctx, want); err != nil {
				t.Fatalf("ReplaceAll() error = %v", err)
			}
			got, err := s.FetchAll(ctx)
			if err != nil {
				t.Fatalf("FetchAll() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("FetchAll() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestStore_ReplaceAllIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.ReplaceAll(ctx, sampleNodes()); err != nil {
				t.Fatalf("ReplaceAll() error = %v", err)
			}
			first, _ := s.FetchAll(ctx)
			if err := s.ReplaceAll(ctx, first); err != nil {
				t.Fatalf("ReplaceAll(FetchAll()) error = %v", err)
			}
			second, _ := s.FetchAll(ctx)
			if !reflect.DeepEqual(first, second) {
				t.Errorf("state changed: %+v -> %+v", first, second)
			}
		})
	}
}

func TestStore_ReplaceAllDropsMissing(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s.ReplaceAll(ctx, sampleNodes())
			keep := sampleNodes()[1:2]
			if err := s.ReplaceAll(ctx, keep); err != nil {
				t.Fatalf("ReplaceAll() error = %v", err)
			}
			got, _ := s.FetchAll(ctx)
			if len(got) != 1 || got[0].ID != "b" {
				t.Errorf("FetchAll() = %+v, want only b", got)
			}
		})
	}
}

func TestStore_DeleteOne(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s.ReplaceAll(ctx, sampleNodes())

			if err := s.DeleteOne(ctx, "r"); err != nil {
				t.Fatalf("DeleteOne() error = %v", err)
			}
			got, _ := s.FetchAll(ctx)
			if len(got) != 2 || got[0].ID != "b" || got[1].ID != "s" {
				t.Errorf("FetchAll() after delete = %+v", got)
			}
			// Children keep the dangling id.
			if !got[0].HasParent("r") {
				t.Errorf("Build parents = %v, want r kept", got[0].ParentIDs)
			}

			err := s.DeleteOne(ctx, "r")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("second DeleteOne() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "nodes.db")

	s, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := s.ReplaceAll(ctx, sampleNodes()); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if !reflect.DeepEqual(got, sampleNodes()) {
		t.Errorf("FetchAll() = %+v, want %+v", got, sampleNodes())
	}
}

func TestSQLiteStore_NullColumnsDecodeEmpty(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "nodes.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO nodes (id, name, phase, categories, parent_ids, seq) VALUES ('x', 'Legacy', 1, NULL, '', 0)")
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}

	got, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].ParentIDs == nil || len(got[0].ParentIDs) != 0 {
		t.Errorf("ParentIDs = %#v, want empty", got[0].ParentIDs)
	}
	if got[0].Categories == nil || len(got[0].Categories) != 0 {
		t.Errorf("Categories = %#v, want empty", got[0].Categories)
	}
}

func TestDecodeRow_BadJSON(t *testing.T) {
	_, err := DecodeRow(Row{ID: "x", Name: "X", Phase: 2, ParentIDs: "[not json"})
	if err == nil {
		t.Error("DecodeRow() error = nil, want decode error")
	}
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		driver  string
		path    string
		wantErr bool
	}{
		{DriverMemory, "", false},
		{DriverSQLite, filepath.Join(dir, "a.db"), false},
		{DriverBadger, filepath.Join(dir, "badger"), false},
		{"postgres", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			s, err := Open(ctx, Options{Driver: tt.driver, Path: tt.path})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.driver, err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}

func TestInstrument_CountsResults(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := Instrument(NewMemoryStore(), m)

	s.ReplaceAll(ctx, sampleNodes())
	s.FetchAll(ctx)
	s.DeleteOne(ctx, "r")
	s.DeleteOne(ctx, "r")

	tests := []struct {
		op, result string
		want       float64
	}{
		{"replace_all", "ok", 1},
		{"fetch_all", "ok", 1},
		{"delete_one", "ok", 1},
		{"delete_one", "not_found", 1},
	}
	for _, tt := range tests {
		got := promtest.ToFloat64(m.Operations.WithLabelValues(tt.op, tt.result))
		if got != tt.want {
			t.Errorf("operations{%s,%s} = %v, want %v", tt.op, tt.result, got, tt.want)
		}
	}
	if n := promtest.CollectAndCount(m.Latency); n != 3 {
		t.Errorf("latency series = %d, want 3", n)
	}
}
