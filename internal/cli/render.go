package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ductrouter/pkg/pipeline"
	"github.com/matzehuels/ductrouter/pkg/routing"
	"github.com/matzehuels/ductrouter/pkg/scenario"
)

// renderCommand creates the render command for drawing a saved result.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [result.json]",
		Short: "Render artifacts from a routing result",
		Long: `Render artifacts from a routing result.

The render command takes a result file (the json artifact of 'route') and
draws it as an ASCII plan, SVG or PNG without routing again. Artifacts are
cached by the content of the result.`,
		Example: `  ductrouter render plant.routes.json -f svg,png
  ductrouter render plant.routes.json -f txt --costs -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if formatsStr == "" {
				opts.Formats = []string{"svg"}
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format), base path (multiple) or - for stdout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, txt, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.ShowCosts, "costs", false, "label corners and steps with their costs")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "drawing scale for svg and png")

	return cmd
}

// runRender loads the result and renders it.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	res, err := readResultFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close(context.WithoutCancel(ctx))
	opts.Logger = c.Logger

	st := startStage(loggerFromContext(ctx), "rendering", "input", input, "formats", opts.Formats)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d routes...", len(res.Routes)))
	spinner.Start()

	artifacts, _, cacheHit, err := runner.RenderWithCacheInfo(ctx, res, opts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		st.failed(err)
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()
	st.done(fmt.Sprintf("Rendered %d artifacts", len(artifacts)), "cached", cacheHit)

	if output == "-" {
		for _, format := range opts.Formats {
			if _, err := os.Stdout.Write(artifacts[format]); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
	}); err != nil {
		return err
	}
	printStats(len(res.Succeeded()), len(res.Failed()), cacheHit)
	return nil
}

func readResultFile(path string) (*routing.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open result: %w", err)
	}
	defer f.Close()
	res, err := scenario.ReadResultJSON(f)
	if err != nil {
		return nil, fmt.Errorf("load result %s: %w", path, err)
	}
	return res, nil
}
