package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/npratt/phasegraph/internal/graph"
)

// cli runs phasegraph commands against a project in its own temp directory.
type cli struct {
	t   *testing.T
	dir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	// Keep a global config on the test machine out of the way
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return &cli{t: t, dir: t.TempDir()}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	return c.runIn(c.dir, stdin, append([]string{"--store", "sqlite", "--db", filepath.Join(c.dir, "pg.db")}, args...)...)
}

// runIn runs from workDir with only the given flags, so config defaults apply.
func (c *cli) runIn(workDir, stdin string, args ...string) (string, error) {
	c.t.Helper()
	a := newApp(strings.NewReader(stdin), io.Discard)
	a.workDir = workDir

	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, "phasegraph %v", args)
	return out
}

func (c *cli) nodes() []graph.Node {
	c.t.Helper()
	var nodes []graph.Node
	require.NoError(c.t, json.Unmarshal([]byte(c.mustRun("list", "--json")), &nodes))
	return nodes
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	assert.Equal(t, "phasegraph dev\n", c.mustRun("version"))
}

func TestListEmpty(t *testing.T) {
	c := newCLI(t)
	assert.Contains(t, c.mustRun("list"), "No nodes yet")

	// Without a terminal the bare command lists too
	assert.Contains(t, c.mustRun(), "No nodes yet")
	assert.Equal(t, "[]\n", c.mustRun("list", "--json"))
}

func TestAddAndList(t *testing.T) {
	c := newCLI(t)

	// Phase 1 nodes drop tags
	out := c.mustRun("add", "Research", "--category", "strategy")
	assert.Contains(t, out, "Added Research")
	assert.Contains(t, out, "to phase 1")

	c.mustRun("add", "--name", "Build", "--phase", "2", "--parent", "research", "--category", "Creation,Score")

	nodes := c.nodes()
	require.Len(t, nodes, 2)
	research, build := nodes[0], nodes[1]
	assert.Equal(t, "Research", research.Name)
	assert.Empty(t, research.Categories)
	assert.Equal(t, 2, build.Phase)
	assert.Equal(t, []string{research.ID}, build.ParentIDs)
	assert.Equal(t, []graph.Category{graph.CategoryCreation, graph.CategoryScore}, build.Categories)

	table := c.mustRun("list")
	assert.Contains(t, table, "PHASE")
	lines := strings.Split(strings.TrimSpace(table), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "Build")
	assert.Contains(t, lines[2], "Research")
	assert.Contains(t, lines[2], "Creation, Score")
}

func TestAddParentByID(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "Research")
	research := c.nodes()[0]

	out := c.mustRun("add", "Build", "--phase", "2", "--parent", research.ID, "--json")

	var build graph.Node
	require.NoError(t, json.Unmarshal([]byte(out), &build))
	assert.Equal(t, []string{research.ID}, build.ParentIDs)
}

func TestAddValidationErrors(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "Research")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"duplicate name", []string{"add", "  research "}, graph.ErrDuplicateName},
		{"empty name", []string{"add", "--name", "   "}, graph.ErrEmptyName},
		{"phase skips ahead", []string{"add", "Ship", "--phase", "3"}, graph.ErrPhaseOutOfRange},
		{"unknown parent", []string{"add", "Build", "--phase", "2", "--parent", "Nope"}, graph.ErrInvalidParent},
		{"unknown category", []string{"add", "Build", "--category", "Design"}, graph.ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.run("", tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, graph.ErrValidation)
		})
	}

	// Nothing rejected reached the store
	assert.Len(t, c.nodes(), 1)
}

func TestDelete(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "Research")
	c.mustRun("add", "Build", "--phase", "2", "--parent", "Research")

	out := c.mustRun("delete", "Research", "--yes")
	assert.Contains(t, out, "Deleted Research")

	nodes := c.nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "Build", nodes[0].Name)
	// Dangling references are kept; the canvas skips them
	assert.Len(t, nodes[0].ParentIDs, 1)
}

func TestDeletePrompt(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "Research")
	c.mustRun("add", "Build", "--phase", "2", "--parent", "Research")

	out, err := c.run("n\n", "delete", "Research")
	require.NoError(t, err)
	assert.Contains(t, out, `Delete "Research" (referenced by 1 node)? [y/N]`)
	assert.Contains(t, out, "Cancelled")
	assert.Len(t, c.nodes(), 2)

	out, err = c.run("y\n", "rm", "Build")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted Build")
	assert.Len(t, c.nodes(), 1)
}

func TestDeleteUnknownNode(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("", "delete", "missing", "--yes")
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestExport(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "Research")
	c.mustRun("add", "Build", "--phase", "2", "--parent", "Research", "--category", "Strategy")

	svgPath := filepath.Join(c.dir, "graph.svg")
	c.mustRun("export", "-o", svgPath)
	svg, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(svg), "<svg"))
	assert.Contains(t, string(svg), ">Research</text>")
	assert.Equal(t, 1, strings.Count(string(svg), "data-edge="))

	want := summarize(c.nodes())

	var fromYAML []graph.Node
	require.NoError(t, yaml.Unmarshal([]byte(c.mustRun("export", "--format", "yaml")), &fromYAML))
	assert.Equal(t, want, summarize(fromYAML))

	var fromJSON []graph.Node
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("export", "-f", "json")), &fromJSON))
	assert.Equal(t, want, summarize(fromJSON))
}

// summarize flattens nodes so nil and empty slices compare equal.
func summarize(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		cats := make([]string, len(n.Categories))
		for j, c := range n.Categories {
			cats[j] = string(c)
		}
		out[i] = strings.Join([]string{
			n.ID, n.Name, strconv.Itoa(n.Phase),
			strings.Join(n.ParentIDs, ","), strings.Join(cats, ","),
		}, "|")
	}
	return out
}

// failingCloser records writes and fails on Close.
type failingCloser struct {
	bytes.Buffer
	closed bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("disk full")
}

func TestWriteAndCloseReportsCloseError(t *testing.T) {
	out := &failingCloser{}
	err := writeAndClose(out, func(w io.Writer) error {
		return writeExport(w, "json", nil)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close output: disk full")
	assert.True(t, out.closed)
	assert.Equal(t, "null\n", out.String())
}

func TestWriteAndCloseKeepsWriteError(t *testing.T) {
	out := &failingCloser{}
	writeErr := errors.New("encode failed")
	err := writeAndClose(out, func(io.Writer) error { return writeErr })
	assert.ErrorIs(t, err, writeErr)
	assert.True(t, out.closed, "file left open after a failed write")
}

func TestExportToFullDevice(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full on this system")
	}
	c := newCLI(t)
	c.mustRun("add", "Research")

	_, err := c.run("", "export", "-f", "json", "-o", "/dev/full")
	assert.Error(t, err)
}

func TestExportUnknownFormat(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("", "export", "--format", "png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "png"`)
}

func TestBadgerDriver(t *testing.T) {
	c := newCLI(t)
	dbDir := filepath.Join(c.dir, "badger")

	_, err := c.run("", "--store", "badger", "--db", dbDir, "add", "Research")
	require.NoError(t, err)

	out, err := c.run("", "--store", "badger", "--db", dbDir, "list", "--json")
	require.NoError(t, err)
	var nodes []graph.Node
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "Research", nodes[0].Name)

	// The sqlite database was never touched
	_, err = os.Stat(filepath.Join(c.dir, "pg.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestDefaultStorePathsFollowProjectRoot(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, os.MkdirAll(filepath.Join(c.dir, ".phasegraph"), 0755))
	sub := filepath.Join(c.dir, "notes")
	require.NoError(t, os.MkdirAll(sub, 0755))

	_, err := c.runIn(c.dir, "", "add", "Research")
	require.NoError(t, err)
	out, err := c.runIn(sub, "", "list", "--json")
	require.NoError(t, err)
	var nodes []graph.Node
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 1, "a subdirectory should see the project's database")
	_, err = os.Stat(filepath.Join(c.dir, ".phasegraph", "phasegraph.db"))
	assert.NoError(t, err)

	// Badger gets its own directory rather than the sqlite file path
	_, err = c.runIn(sub, "", "--store", "badger", "add", "Build")
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(c.dir, ".phasegraph", "badger"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	out, err = c.runIn(c.dir, "", "--store", "badger", "list", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "Build", nodes[0].Name)
}

func TestInvalidDriver(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("", "--store", "postgres", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}

func TestServerCommandsWithoutServer(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")

	_, err = c.run("", "stop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestServeRejectsRemoteDriver(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("", "--store", "remote", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local store driver")
}

func TestRemoteDriverWithoutServerFailsLoad(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("", "--store", "remote", "add", "Research")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load graph")
}
