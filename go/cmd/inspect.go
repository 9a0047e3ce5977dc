package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/snapcorn/snapcorn/go/arch"
	"github.com/snapcorn/snapcorn/go/models"
)

func newInspectCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image.snap>",
		Short: "Print the registers and mappings of a saved cpu image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := o.load(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "opening image")
			}
			defer f.Close()
			state, err := arch.LoadState(f)
			if err != nil {
				return errors.Wrap(err, args[0])
			}
			c, err := state.Cpu()
			if err != nil {
				return err
			}
			a := c.Arch()
			regs, err := a.RegDump(c)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", state)
			// nonzero registers are marked as changed
			fmt.Fprint(out, models.Diff(a, nil, regs, false).String(config.Color))
			if pages := c.Mappings(); len(pages) > 0 {
				fmt.Fprintf(out, "\n%s\n", pages)
			}
			return nil
		},
	}
}
