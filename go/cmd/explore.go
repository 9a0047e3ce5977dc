package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newExploreCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explore <scenario.yaml>",
		Short: "Follow every branch direction depth first from the entry point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd, args[0])
			if err != nil {
				return err
			}
			paths, err := s.explorer.Explore(cmd.Context(), s.program, s.scenario.EntryPoint(s.program))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, path := range paths {
				addrs := make([]string, len(path.Addrs))
				for j, addr := range path.Addrs {
					addrs[j] = fmt.Sprintf("%#x", addr)
				}
				fmt.Fprintf(out, "path %d (%s at %#x): %s\n", i, path.End, path.Last, strings.Join(addrs, " -> "))
				for _, c := range path.Constraints {
					fmt.Fprintf(out, "        %s\n", c)
				}
			}
			return nil
		},
	}
}
