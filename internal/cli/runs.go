package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ductrouter/pkg/store"
)

// runsCommand creates the command for browsing stored runs.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and show stored routing runs",
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())

	return cmd
}

// runsListCommand creates the "runs list" subcommand.
func (c *CLI) runsListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				runs, err := st.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					printInfo("No stored runs")
					return nil
				}
				for _, run := range runs {
					status := StyleSuccess.Render(fmt.Sprintf("%d/%d", run.Routed, run.Terminals))
					if run.Failed > 0 {
						status = StyleWarning.Render(fmt.Sprintf("%d/%d", run.Routed, run.Terminals))
					}
					fmt.Printf("%s  %s  %-20s %s\n",
						StyleHighlight.Render(run.ID),
						StyleDim.Render(run.CreatedAt.Local().Format(time.DateTime)),
						run.Name, status)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")
	return cmd
}

// runsShowCommand creates the "runs show" subcommand.
func (c *CLI) runsShowCommand() *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				run, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printKeyValue("id", run.ID)
				printKeyValue("name", run.Name)
				printKeyValue("created", run.CreatedAt.Local().Format(time.DateTime))
				printKeyValue("scenario", run.ScenarioHash)
				printStats(run.Routed, run.Failed, false)
				if !explain {
					return nil
				}
				res, err := run.Decode()
				if err != nil {
					return err
				}
				fmt.Print(res.Summary())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", true, "print the search region and per-terminal outcomes")
	return cmd
}

func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer st.Close(context.WithoutCancel(ctx))
	return fn(st)
}
