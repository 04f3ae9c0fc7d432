package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/npratt/phasegraph/internal/config"
	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/render"
	"github.com/npratt/phasegraph/internal/store"
	"github.com/npratt/phasegraph/internal/syncer"
	"github.com/npratt/phasegraph/internal/tui"
)

func (a *app) newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive graph editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}
}

func (a *app) runTUI(cmd *cobra.Command) error {
	return a.withStore(cmd.Context(), func(cfg *config.Config, s store.Store) error {
		// Anything written to stderr would corrupt the display
		logResult := SetupTUILogger(filepath.Dir(cfg.Paths.Log), a.logLevel, cfg.LogRotation)
		defer func() { _ = logResult.Close() }()
		slog.SetDefault(logResult.Logger)

		logResult.Logger.Info("phasegraph tui starting",
			"version", version,
			"driver", cfg.Store.Driver,
			"log_file", logResult.FilePath,
		)

		ui := tui.New(s,
			tui.WithCanvas(cfg.Canvas),
			tui.WithTimeout(cfg.Store.Timeout),
			tui.WithLogger(logResult.Logger),
		)
		return ui.Run(cmd.Context())
	})
}

func (a *app) newListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes grouped by phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool(FlagJSON)
			return a.runList(cmd, asJSON)
		},
	}
	listCmd.Flags().Bool(FlagJSON, false, "Output nodes as JSON")
	return listCmd
}

func (a *app) runList(cmd *cobra.Command, asJSON bool) error {
	return a.withStore(cmd.Context(), func(cfg *config.Config, s store.Store) error {
		coord, err := a.loadGraph(cmd.Context(), cfg, s)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		m := coord.Model()

		if asJSON {
			return writeJSON(out, m.Nodes())
		}
		if m.Len() == 0 {
			_, _ = fmt.Fprintln(out, "No nodes yet")
			return nil
		}
		return writeTable(out, m)
	})
}

// writeTable prints nodes phase by phase, parents shown by name.
func writeTable(w io.Writer, m *graph.Model) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PHASE\tID\tNAME\tPARENTS\tCATEGORIES")

	groups := m.ListByPhase()
	for _, phase := range graph.SortedPhases(groups) {
		for _, n := range groups[phase] {
			parents := make([]string, 0, len(n.ParentIDs))
			for _, id := range n.ParentIDs {
				if p, ok := m.Lookup(id); ok {
					parents = append(parents, p.Name)
				} else {
					parents = append(parents, id+" (missing)")
				}
			}
			cats := make([]string, len(n.Categories))
			for i, c := range n.Categories {
				cats[i] = string(c)
			}
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				n.Phase, n.ID, n.Name, dashIfEmpty(parents), dashIfEmpty(cats))
		}
	}
	return tw.Flush()
}

func dashIfEmpty(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func (a *app) newAddCmd() *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a node to the graph",
		Long: `Add a node to the graph.

The phase may be any existing phase or one past the highest. Parents are
given by id or name and must sit in an earlier phase.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			name, _ := flags.GetString(FlagName)
			if len(args) == 1 {
				name = args[0]
			}
			phase, _ := flags.GetInt(FlagPhase)
			parentRefs, _ := flags.GetStringSlice(FlagParent)
			catNames, _ := flags.GetStringSlice(FlagCategory)
			asJSON, _ := flags.GetBool(FlagJSON)

			cats := make([]graph.Category, 0, len(catNames))
			for _, s := range catNames {
				c, err := graph.ParseCategory(s)
				if err != nil {
					return err
				}
				cats = append(cats, c)
			}

			return a.withStore(cmd.Context(), func(cfg *config.Config, s store.Store) error {
				coord, err := a.loadGraph(cmd.Context(), cfg, s)
				if err != nil {
					return err
				}

				parents := make([]string, 0, len(parentRefs))
				for _, ref := range parentRefs {
					if p, ok := resolveNode(coord.Model(), ref); ok {
						parents = append(parents, p.ID)
					} else {
						// Left unresolved so validation reports it
						parents = append(parents, ref)
					}
				}

				n, task, err := coord.Add(graph.NodeInput{
					Name:       name,
					Phase:      phase,
					ParentIDs:  parents,
					Categories: cats,
				})
				if err != nil {
					return err
				}
				syncer.Drain(cmd.Context(), coord, task)
				if err := coord.LastError(); err != nil {
					return fmt.Errorf("save graph: %w", err)
				}

				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, n)
				}
				_, _ = fmt.Fprintf(out, "Added %s (%s) to phase %d\n", n.Name, n.ID, n.Phase)
				return nil
			})
		},
	}

	addCmd.Flags().String(FlagName, "", "Node name")
	addCmd.Flags().Int(FlagPhase, 1, "Phase number")
	addCmd.Flags().StringSlice(FlagParent, nil, "Parent node id or name (repeatable)")
	addCmd.Flags().StringSlice(FlagCategory, nil, "Category: Strategy, Creation, or Score (repeatable)")
	addCmd.Flags().Bool(FlagJSON, false, "Output the new node as JSON")
	return addCmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "Delete a node from the graph",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool(FlagYes)

			return a.withStore(cmd.Context(), func(cfg *config.Config, s store.Store) error {
				coord, err := a.loadGraph(cmd.Context(), cfg, s)
				if err != nil {
					return err
				}
				m := coord.Model()
				out := cmd.OutOrStdout()

				n, ok := resolveNode(m, args[0])
				if !ok {
					return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, args[0])
				}

				if !yes {
					prompt := fmt.Sprintf("Delete %q", n.Name)
					if children := childCount(m, n.ID); children > 0 {
						prompt += fmt.Sprintf(" (referenced by %d %s)", children, plural(children, "node", "nodes"))
					}
					if !a.confirm(out, prompt+"?") {
						_, _ = fmt.Fprintln(out, "Cancelled")
						return nil
					}
				}

				task, err := coord.Delete(n.ID)
				if err != nil {
					return err
				}
				for _, notice := range syncer.Drain(cmd.Context(), coord, task) {
					if notice.Text == syncer.NoticeDeleteResynced {
						return fmt.Errorf("delete %s: %w", n.ID, errors.Join(errors.New(notice.Text), coord.LastError()))
					}
				}

				_, _ = fmt.Fprintf(out, "Deleted %s (%s)\n", n.Name, n.ID)
				return nil
			})
		},
	}

	deleteCmd.Flags().BoolP(FlagYes, "y", false, "Skip the confirmation prompt")
	return deleteCmd
}

func childCount(m *graph.Model, id string) int {
	count := 0
	for _, n := range m.Nodes() {
		if n.HasParent(id) {
			count++
		}
	}
	return count
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// confirm asks a y/N question on the app's stdin.
func (a *app) confirm(out io.Writer, question string) bool {
	_, _ = fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (a *app) newExportCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the graph as SVG, JSON, or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString(FlagFormat)
			outPath, _ := cmd.Flags().GetString(FlagOut)

			switch format {
			case "svg", "json", "yaml":
			default:
				return fmt.Errorf("unknown format %q: must be svg, json, or yaml", format)
			}

			return a.withStore(cmd.Context(), func(cfg *config.Config, s store.Store) error {
				coord, err := a.loadGraph(cmd.Context(), cfg, s)
				if err != nil {
					return err
				}

				nodes := coord.Model().Nodes()
				if outPath == "" {
					return writeExport(cmd.OutOrStdout(), format, nodes)
				}
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				return writeAndClose(f, func(w io.Writer) error {
					return writeExport(w, format, nodes)
				})
			})
		},
	}

	exportCmd.Flags().StringP(FlagFormat, "f", "svg", "Output format: svg, json, or yaml")
	exportCmd.Flags().StringP(FlagOut, "o", "", "Output file (default: stdout)")
	return exportCmd
}

func writeExport(w io.Writer, format string, nodes []graph.Node) error {
	switch format {
	case "svg":
		return render.SVG(w, nodes, nil)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(nodes); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return writeJSON(w, nodes)
	}
}

// writeAndClose runs write against wc and closes it. A failed close is
// returned like a failed write.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
