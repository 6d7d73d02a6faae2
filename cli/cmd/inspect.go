package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/keyspace/cli/render"
	"github.com/pithecene-io/keyspace/cli/tui"
	"github.com/pithecene-io/keyspace/lode"
)

// inspectTimeout bounds storage reads for inspect commands.
const inspectTimeout = 30 * time.Second

// InspectCommand returns the inspect command with subcommands.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect stored search results",
		Subcommands: []*cli.Command{
			inspectRunCommand(),
		},
	}
}

func inspectRunCommand() *cli.Command {
	flags := append(ReadOnlyFlags(), ConfigFlag,
		&cli.StringFlag{Name: "strategy", Usage: "Filter by strategy partition"})
	return &cli.Command{
		Name:      "run",
		Usage:     "Inspect a stored run summary by ID (latest run when omitted)",
		ArgsUsage: "[run-id]",
		Flags:     append(flags, storageFlags()...),
		Action:    inspectRunAction,
	}
}

func inspectRunAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	storage := storageFromFlags(c, cfg.Storage)
	if storage.Path == "" {
		return cli.Exit("--storage-path (or storage.path in config) is required", 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, inspectTimeout)
	defer cancel()

	ds, err := buildReadDataset(ctx, storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage reader: %w", err)
	}

	runID := c.Args().First()
	summary, err := lode.QueryRunSummary(ctx, ds, runID, c.String("strategy"))
	if errors.Is(err, lode.ErrNoSummaryFound) {
		if runID == "" {
			return cli.Exit("no run summaries found", 1)
		}
		return cli.Exit(fmt.Sprintf("run not found: %s", runID), 1)
	}
	if err != nil {
		return fmt.Errorf("failed to read run summary: %w", err)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewInspectRun, &summary)
	}
	return r.Render(summary)
}
