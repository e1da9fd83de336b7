package main

import (
	"strconv"
	"strings"

	"calcnerd/internal/calc"
	"calcnerd/internal/calculator"
	"calcnerd/internal/graph"
	"calcnerd/internal/render"
	"calcnerd/internal/types"

	"github.com/spf13/cobra"
)

// bannerError carries the text the interactive screen would show in its
// error banner.
type bannerError struct {
	err error
}

func (e *bannerError) Error() string { return calc.UserMessage(e.err) }
func (e *bannerError) Unwrap() error { return e.err }

// outputFlags are shared by every command that prints results.
type outputFlags struct {
	format  string
	noGraph bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "plain", "Output format: plain, markdown or json")
	cmd.Flags().BoolVar(&o.noGraph, "no-graph", false, "Do not draw the graph")
}

func (c *cli) output(o *outputFlags) (render.Output, error) {
	format, err := render.ParseFormat(o.format)
	if err != nil {
		return render.Output{}, err
	}
	return render.Output{
		Format: format,
		Styles: render.NewStyles(render.ThemeFor(c.cfg.UI.Theme)),
		Width:  c.cfg.UI.GraphWidth + 16,
	}, nil
}

func (c *cli) charter(o *outputFlags) graph.Charter {
	if o.noGraph {
		return nil
	}
	return graph.NewTerminal(c.cfg.UI.GraphWidth, c.cfg.UI.GraphHeight)
}

// operationCmds returns one command per operation.
func (c *cli) operationCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(types.Operations))
	for _, op := range types.Operations {
		cmds = append(cmds, c.operationCmd(op))
	}
	return cmds
}

func (c *cli) operationCmd(op types.OperationKind) *cobra.Command {
	in := calculator.DefaultInputs()
	var (
		order int
		terms int
		out   outputFlags
	)

	cmd := &cobra.Command{
		Use:   string(op) + " EXPRESSION",
		Short: "Compute the " + strings.ToLower(op.Title()) + " of an expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Expression = strings.Join(args, " ")
			in.Order = strconv.Itoa(order)
			in.Terms = strconv.Itoa(terms)
			if op == types.OperationIntegral && (cmd.Flags().Changed("lower") || cmd.Flags().Changed("upper")) {
				in.Definite = true
			}
			return c.calculateOnce(cmd, op, in, &out)
		},
	}

	cmd.Flags().StringVar(&in.Variable, "var", types.DefaultVariable, "Variable of the expression")
	switch op {
	case types.OperationDerivative:
		cmd.Flags().IntVarP(&order, "order", "n", types.DefaultOrder, "Derivative order")
	case types.OperationIntegral:
		cmd.Flags().BoolVarP(&in.Definite, "definite", "d", false, "Definite integral over [lower, upper]")
		cmd.Flags().StringVar(&in.Lower, "lower", types.DefaultLower, "Lower bound (implies --definite)")
		cmd.Flags().StringVar(&in.Upper, "upper", types.DefaultUpper, "Upper bound (implies --definite)")
	case types.OperationLimit:
		cmd.Flags().StringVarP(&in.Point, "point", "p", types.DefaultPoint, "Point the variable approaches (inf, -inf allowed)")
	case types.OperationSeries:
		cmd.Flags().StringVarP(&in.Point, "point", "p", types.DefaultPoint, "Expansion point")
		cmd.Flags().IntVarP(&terms, "terms", "t", types.DefaultTerms, "Number of terms")
	}
	out.register(cmd)
	return cmd
}

// calculateOnce runs a single calculation through the same controller the
// interactive screen uses and prints the rendered result.
func (c *cli) calculateOnce(cmd *cobra.Command, op types.OperationKind, in calculator.Inputs, o *outputFlags) error {
	output, err := c.output(o)
	if err != nil {
		return err
	}

	store, err := c.openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	ctrl := c.newController(c.charter(o))
	recordHistory(cmd.Context(), ctrl, store, c.cfg.History.MaxEntries)
	*ctrl.Form().Inputs(op) = in
	if err := ctrl.SwitchOperation(op); err != nil {
		return err
	}

	var (
		req  *types.CalculationRequest
		resp *types.CalculationResponse
	)
	ctrl.OnComplete(func(out calculator.Outcome) {
		req, resp = out.Ticket.Request, out.Response
	})
	if err := ctrl.Calculate(cmd.Context(), op); err != nil {
		return &bannerError{err: err}
	}
	return output.Write(cmd.OutOrStdout(), req, resp, ctrl.View())
}
