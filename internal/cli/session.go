package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/pipeline"
	"github.com/matzehuels/graphprod/pkg/production"
	"github.com/matzehuels/graphprod/pkg/session"
)

// sessionCommand creates the session command group. A session keeps a host
// graph in a store and records every production applied to it.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage persisted rewriting sessions",
		Long: `Sessions keep a host graph between invocations and log each applied
production. They are stored on disk by default; --store selects redis or
mongo for shared storage.`,
	}
	c.addStoreFlags(cmd)

	cmd.AddCommand(c.sessionInitCommand())
	cmd.AddCommand(c.sessionApplyCommand())
	cmd.AddCommand(c.sessionStatsCommand())
	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionRmCommand())
	cmd.AddCommand(c.sessionExportCommand())

	return cmd
}

// withStore opens the configured store, runs fn and closes the store.
func (c *CLI) withStore(ctx context.Context, fn func(session.Store) error) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) sessionInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "init <name> <graph>",
		Short:   "Create a session from a graph file",
		Example: `  graphprod session init demo A.dot`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			ctx := cmd.Context()

			runner := c.newRunner()
			defer runner.Close()
			g, err := runner.Load(ctx, path)
			if err != nil {
				return err
			}
			sess, err := session.New(name, g)
			if err != nil {
				return err
			}

			return c.withStore(ctx, func(store session.Store) error {
				if !force {
					_, err := store.Get(ctx, name)
					if err == nil {
						return errors.New(errors.ErrCodeInvalidInput, "session %s already exists (use --force to replace)", name)
					}
					if !errors.Is(err, errors.ErrCodeNotFound) {
						return err
					}
				}
				if err := store.Set(ctx, sess); err != nil {
					return err
				}
				printSuccess("Created session %s", name)
				printGraphLine(g.VertexCount(), g.EdgeCount(), false)
				printNextStep("Apply a rule", "graphprod session apply "+name+" <rule.toml>")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace an existing session")
	return cmd
}

func (c *CLI) sessionApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <name> <rule.toml>...",
		Short: "Apply rules to a session",
		Long: `Apply loads the session, applies each rule in order and saves the
result. If any rule fails the session is left unchanged.`,
		Example: `  graphprod session apply demo expand.toml again.toml`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ctx := cmd.Context()

			runner := c.newRunner()
			defer runner.Close()
			rules := make([]*production.Rule, 0, len(args)-1)
			for _, path := range args[1:] {
				r, err := runner.LoadRule(ctx, path)
				if err != nil {
					return err
				}
				rules = append(rules, r)
			}

			return c.withStore(ctx, func(store session.Store) error {
				sess, err := store.Get(ctx, name)
				if err != nil {
					return err
				}
				steps := make([]pipeline.Step, 0, len(rules))
				for i, r := range rules {
					res, err := sess.Apply(r)
					if err != nil {
						printError("Session %s unchanged", name)
						return fmt.Errorf("step %d (%s): %w", i+1, r.Name, err)
					}
					steps = append(steps, pipeline.Step{Rule: r, Result: res})
				}
				if err := store.Set(ctx, sess); err != nil {
					return err
				}
				c.Logger.Debug("session saved", "session", name, "steps", len(sess.Steps))

				fmt.Fprintln(c.Out, stepsTable(steps))
				s, err := sess.Stats()
				if err != nil {
					return err
				}
				fmt.Fprintln(c.Out, statsTable(s))
				return nil
			})
		},
	}
	return cmd
}

func (c *CLI) sessionStatsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <name>",
		Short: "Print statistics of a session's graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(store session.Store) error {
				sess, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				s, err := sess.Stats()
				if err != nil {
					return err
				}
				return c.writeStats(s, asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print statistics as JSON")
	return cmd
}

func (c *CLI) sessionShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show a session's summary and step log",
		Long: `Show prints a session's identifiers, graph size and step log. Without a
name an interactive picker lists the stored sessions.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(store session.Store) error {
				name := ""
				if len(args) == 1 {
					name = args[0]
				} else {
					picked, err := pickSession(ctx, store)
					if err != nil || picked == "" {
						return err
					}
					name = picked
				}
				sess, err := store.Get(ctx, name)
				if err != nil {
					return err
				}
				c.printSession(sess)
				return nil
			})
		},
	}
	return cmd
}

func (c *CLI) printSession(sess *session.Session) {
	fmt.Fprintln(c.Out, StyleTitle.Render(sess.Name))
	printKeyValue("ID", sess.ID)
	printKeyValue("Vertices", fmt.Sprint(sess.Graph.VertexCount()))
	printKeyValue("Edges", fmt.Sprint(sess.Graph.EdgeCount()))
	printKeyValue("Created", sess.CreatedAt.Format(time.RFC3339))
	printKeyValue("Updated", sess.UpdatedAt.Format(time.RFC3339))
	if len(sess.Steps) == 0 {
		printDetail("No productions applied")
		return
	}
	fmt.Fprintln(c.Out, sessionStepsTable(sess.Steps))
}

// pickSession runs the interactive picker and returns the chosen name, or
// "" when the user quits.
func pickSession(ctx context.Context, store session.Store) (string, error) {
	names, err := store.List(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		printInfo("No sessions yet")
		printNextStep("Create one", "graphprod session init <name> <graph>")
		return "", nil
	}

	rows := make([]SessionRow, 0, len(names))
	for _, name := range names {
		sess, err := store.Get(ctx, name)
		if err != nil {
			// Expired or removed between List and Get.
			if errors.Is(err, errors.ErrCodeNotFound) {
				continue
			}
			return "", err
		}
		rows = append(rows, SessionRow{
			Name:      sess.Name,
			Vertices:  sess.Graph.VertexCount(),
			Edges:     sess.Graph.EdgeCount(),
			Steps:     len(sess.Steps),
			UpdatedAt: sess.UpdatedAt,
		})
	}

	final, err := tea.NewProgram(NewSessionListModel(rows), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", err
	}
	if m, ok := final.(SessionListModel); ok && m.Selected != nil {
		return m.Selected.Name, nil
	}
	return "", nil
}

func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List session names",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(store session.Store) error {
				names, err := store.List(ctx)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(c.Out, name)
				}
				return nil
			})
		},
	}
}

func (c *CLI) sessionRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>...",
		Aliases: []string{"delete"},
		Short:   "Delete sessions",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(store session.Store) error {
				for _, name := range args {
					if err := errors.ValidateGraphName(name); err != nil {
						return err
					}
					if err := store.Delete(ctx, name); err != nil {
						return err
					}
					printSuccess("Deleted session %s", name)
				}
				return nil
			})
		},
	}
}

func (c *CLI) sessionExportCommand() *cobra.Command {
	var (
		output  string
		formats string
		full    bool
	)

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a session's graph or full record",
		Long: `Export writes the session's current graph. Without -o the canonical JSON
goes to stdout; with -o each format in -f is written to <output>.<format>.
--full writes the whole session record (graph and step log) as JSON.`,
		Example: `  graphprod session export demo > demo.json
  graphprod session export demo -o demo -f json,svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(store session.Store) error {
				sess, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if full {
					return c.exportFull(sess, output)
				}

				fs := parseFormats(formats)
				if output == "" {
					fs = []string{pipeline.FormatJSON}
				}
				runner := c.newRunner()
				defer runner.Close()
				artifacts, err := runner.Render(ctx, sess.Graph, pipeline.Options{Formats: fs})
				if err != nil {
					return err
				}
				if output == "" {
					_, err := fmt.Fprintln(c.Out, string(artifacts[pipeline.FormatJSON]))
					return err
				}
				paths, err := writeArtifacts(basePath(output, output), fs, artifacts)
				if err != nil {
					return err
				}
				for _, p := range paths {
					printFile(p)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default stdout, JSON only)")
	cmd.Flags().StringVarP(&formats, "format", "f", pipeline.FormatJSON, "formats: json, dot, svg (comma-separated)")
	cmd.Flags().BoolVar(&full, "full", false, "export the full session record")
	return cmd
}

func (c *CLI) exportFull(sess *session.Session, output string) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	if output == "" {
		_, err := fmt.Fprintln(c.Out, string(data))
		return err
	}
	return os.WriteFile(output, append(data, '\n'), 0o644)
}
