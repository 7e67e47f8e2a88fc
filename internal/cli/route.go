package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ductrouter/pkg/pipeline"
	"github.com/matzehuels/ductrouter/pkg/scenario"
)

// routeOpts holds the flags of the route command that are not pipeline options.
type routeOpts struct {
	formats string
	output  string
	noCache bool
	explain bool
	print   bool
}

// routeCommand creates the route command, the full scenario → artifacts pipeline.
func (c *CLI) routeCommand() *cobra.Command {
	var ro routeOpts
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "route [scenario.toml|scenario.json]",
		Short: "Route branch ducts for a scenario",
		Long: `Route branch ducts from the scenario's trunk to each of its terminals.

Every terminal is routed independently. Terminals that cannot be reached are
reported but do not fail the run. Results and artifacts are cached locally;
set DUCTROUTER_REDIS_ADDR to share a Redis cache instead.

Flags override the routing values in the scenario file.`,
		Example: `  ductrouter route plant.toml
  ductrouter route plant.toml -f json,svg,png -o out/plant
  ductrouter route plant.toml --turn-penalty 40 --explain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(ro.formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRoute(cmd.Context(), args[0], opts, ro)
		},
	}

	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): json (default), txt, svg, png (comma-separated)")
	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&ro.explain, "explain", false, "print the derived search region and per-terminal outcomes")
	cmd.Flags().BoolVarP(&ro.print, "print", "p", false, "print the ASCII plan to stdout")

	cmd.Flags().Float64Var(&opts.Step, "step", 0, "grid cell size (overrides the scenario)")
	cmd.Flags().Float64Var(&opts.Clearance, "clearance", 0, "obstacle clearance (overrides the scenario)")
	cmd.Flags().Float64Var(&opts.BoundaryMultiplier, "boundary", 0, "search region multiplier (overrides the scenario)")
	cmd.Flags().IntVar(&opts.TurnPenalty, "turn-penalty", 0, "cost per elbow, negative disables (overrides the scenario)")
	cmd.Flags().IntVar(&opts.MaxExpansions, "max-expansions", 0, "per-terminal search budget, 0 is unlimited")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "terminals routed in parallel (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached routes")
	cmd.Flags().BoolVar(&opts.Store, "store", false, "save the run to the run store")
	cmd.Flags().BoolVar(&opts.ShowCosts, "costs", false, "label artifacts with per-step costs")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "drawing scale for svg and png")

	return cmd
}

// runRoute loads the scenario, runs the pipeline and writes the artifacts.
func (c *CLI) runRoute(ctx context.Context, input string, opts pipeline.Options, ro routeOpts) error {
	logger := loggerFromContext(ctx)

	sc, err := scenario.Load(input)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	logger.Debug("loaded scenario", "name", sc.Name, "terminals", len(sc.Terminals), "obstacles", len(sc.Obstacles))

	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close(context.WithoutCancel(ctx))

	if opts.Store {
		st, err := c.newStore(ctx)
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		runner.Store = st
	}
	opts.Logger = c.Logger

	st := startStage(logger, "routing", "scenario", sc.Name, "workers", opts.Workers)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Routing %d terminals...", len(sc.Terminals)))
	spinner.Start()

	result, err := runner.Execute(ctx, sc, opts)
	if err != nil {
		spinner.StopWithError("Routing failed")
		st.failed(err)
		return err
	}
	spinner.Stop()
	st.done("Routed "+sc.Name, "routed", result.Stats.Routed, "failed", result.Stats.Failed,
		"cached", result.CacheInfo.RouteHit)

	if ro.explain {
		fmt.Print(result.Routing.Summary())
	}
	if ro.print {
		if plan, ok := result.Artifacts["txt"]; ok {
			fmt.Println(colorizePlan(string(plan)))
		} else {
			printWarning("--print needs the txt format")
		}
	}

	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    ro.output,
		suffix:    ".routes",
	}); err != nil {
		return err
	}
	printStats(result.Stats.Routed, result.Stats.Failed, result.CacheInfo.RouteHit)

	for _, tr := range result.Routing.Failed() {
		printError("%s: %v", tr.Terminal.ID, tr.Err)
	}
	if result.RunID != "" {
		printKeyValue("run", result.RunID)
		printNextStep("Inspect it", "ductrouter runs show "+result.RunID)
	}
	return nil
}
