package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/keyspace/candidate"
	"github.com/pithecene-io/keyspace/cli/render"
	"github.com/pithecene-io/keyspace/types"
)

// defaultPlanPreview is the number of candidates plan lists by default.
const defaultPlanPreview = 10

// PlanResponse describes a candidate strategy without probing anything.
type PlanResponse struct {
	Kind         string   `json:"kind"`
	KeyspaceSize int64    `json:"keyspace_size"`
	Priority     int      `json:"priority"`
	Skip         int      `json:"skip"`
	Offset       int64    `json:"offset"`
	Fingerprint  string   `json:"fingerprint"`
	Preview      []string `json:"preview"`
}

// PlanCommand returns the plan command.
func PlanCommand() *cli.Command {
	flags := append(ReadOnlyFlags(), StrategyFlags()...)
	return &cli.Command{
		Name:  "plan",
		Usage: "Validate a candidate strategy and preview its sequence",
		Flags: append(flags, &cli.IntFlag{
			Name:  "preview",
			Usage: "Number of leading candidates to list",
			Value: defaultPlanPreview,
		}),
		Action: planAction,
	}
}

func planAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for plan command", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	strategy := strategyFromFlags(c, cfg.Strategy)

	resp, err := buildPlan(strategy, c.Int("preview"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid strategy: %v", err), 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(resp)
}

// buildPlan builds the source for strategy and reads up to preview
// candidates from it.
func buildPlan(strategy candidate.Strategy, preview int) (*PlanResponse, error) {
	source, err := candidate.Build(strategy)
	if err != nil {
		return nil, err
	}

	resp := &PlanResponse{
		Kind:         strategy.Kind,
		KeyspaceSize: source.Size(),
		Priority:     len(strategy.Priority),
		Skip:         len(strategy.Skip),
		Offset:       strategy.Offset,
		Fingerprint:  strategy.Fingerprint(),
		Preview:      []string{},
	}
	for range max(preview, 0) {
		cand, err := source.Next()
		if errors.Is(err, types.ErrEndOfSequence) {
			break
		}
		if err != nil {
			return nil, err
		}
		resp.Preview = append(resp.Preview, cand.Value)
	}
	return resp, nil
}
