package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree. Each call returns fresh flag state.
func NewRootCommand() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "snapcorn",
		Short:         "Snapshot-driven symbolic exploration of small programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	o.register(root)
	root.AddCommand(
		newTraceCommand(o),
		newExploreCommand(o),
		newInspectCommand(o),
	)
	return root
}

func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		PrintError(os.Stderr, err, verbose)
		os.Exit(1)
	}
}
