package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	snapcorn "github.com/snapcorn/snapcorn/go"
	"github.com/snapcorn/snapcorn/go/driver"
	"github.com/snapcorn/snapcorn/go/models"
)

func newTraceCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Run a listing in address order, restoring branch snapshots at each successor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			s.explorer.OnStep = func(step driver.Step) {
				printStep(out, step)
			}
			_, err = s.explorer.RunTrace(cmd.Context(), s.program)
			if err == driver.ErrMaxSteps {
				s.machine.Logger().Warn("trace stopped", "steps", s.explorer.Steps())
			} else if err != nil {
				return err
			}
			printExpressions(out, s.machine)
			for _, addr := range s.explorer.Table.Keys() {
				snap, _ := s.explorer.Table.Get(addr)
				changes, err := s.machine.DiffSnapshot(snap, true)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nchanged since snapshot for %#x:\n%s", addr, changes.String(s.config.Color))
			}
			return nil
		},
	}
}

func printStep(w io.Writer, step driver.Step) {
	if step.Restored != nil {
		fmt.Fprintf(w, "-- restored %s\n", step.Restored)
	}
	fmt.Fprintf(w, "%#06x: %s\n", step.Ins.Address, step.Ins)
	if c := step.Result.Constraint; c != nil {
		fmt.Fprintf(w, "        %s\n", c)
	}
}

func printExpressions(w io.Writer, m *snapcorn.Machine) {
	exprs := m.SymbolicEngine().SymbolicRegisters()
	ids := make([]models.RegID, 0, len(exprs))
	for id := range exprs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fmt.Fprintln(w, "\nsymbolic registers:")
	for _, id := range ids {
		if e := exprs[id]; e.IsSymbolized() {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
