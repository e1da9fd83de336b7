package main

import (
	"encoding/json"
	"fmt"
	"io"

	"calcnerd/internal/batch"
	"calcnerd/internal/calc"
	"calcnerd/internal/graph"
	"calcnerd/internal/history"
	"calcnerd/internal/logging"
	"calcnerd/internal/render"
	"calcnerd/internal/types"

	"github.com/spf13/cobra"
)

func (c *cli) batchCmd() *cobra.Command {
	var (
		out         outputFlags
		concurrency int
		rps         float64
	)

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Run every request in a YAML file",
		Long: `Reads a YAML list of requests (or a document with a "requests" key),
sends them to the service with bounded concurrency and prints the results in
file order. Each entry uses the same fields as the request body:

  - operation: derivative
    expression: x^3
    order: 2
  - operation: integral
    expression: sin(x)
    definite: true
    lower: "0"
    upper: pi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := batch.LoadFile(args[0])
			if err != nil {
				return err
			}
			if len(reqs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No requests in", args[0])
				return nil
			}

			output, err := c.output(&out)
			if err != nil {
				return err
			}

			opts := batch.Options{
				Concurrency:       c.cfg.Batch.Concurrency,
				RequestsPerSecond: c.cfg.Batch.RequestsPerSecond,
				Burst:             c.cfg.Batch.Burst,
			}
			if cmd.Flags().Changed("concurrency") {
				opts.Concurrency = concurrency
			}
			if cmd.Flags().Changed("rate") {
				opts.RequestsPerSecond = rps
			}

			results, err := batch.NewRunner(c.client, opts).Run(cmd.Context(), reqs)
			if err != nil {
				return fmt.Errorf("batch interrupted: %w", err)
			}

			c.recordBatch(cmd, results)
			return c.writeBatch(cmd.OutOrStdout(), output, &out, results)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel requests (default from config)")
	cmd.Flags().Float64Var(&rps, "rate", 0, "Requests per second, 0 for unlimited (default from config)")
	out.register(cmd)
	return cmd
}

func (c *cli) recordBatch(cmd *cobra.Command, results []batch.Result) {
	store, err := c.openHistory()
	if err != nil {
		logging.StoreError("batch results not recorded: %v", err)
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	for _, res := range results {
		if err := store.Record(cmd.Context(), history.NewEntry(res.Request, res.Response, res.Err, res.Duration)); err != nil {
			logging.StoreError("failed to record batch result %d: %v", res.Index+1, err)
		}
	}
	if keep := c.cfg.History.MaxEntries; keep > 0 {
		if _, err := store.Prune(cmd.Context(), keep); err != nil {
			logging.StoreError("failed to prune history: %v", err)
		}
	}
}

// batchRecord is one element of the JSON output.
type batchRecord struct {
	Index    int                         `json:"index"`
	Request  *types.CalculationRequest  `json:"request"`
	Response *types.CalculationResponse `json:"response,omitempty"`
	Error    string                      `json:"error,omitempty"`
	Outcome  string                      `json:"outcome"`
}

func (c *cli) writeBatch(w io.Writer, output render.Output, o *outputFlags, results []batch.Result) error {
	if output.Format == render.FormatJSON {
		records := make([]batchRecord, 0, len(results))
		for _, res := range results {
			rec := batchRecord{Index: res.Index + 1, Request: res.Request, Outcome: calc.Kind(res.Err)}
			if res.Err != nil {
				rec.Error = calc.UserMessage(res.Err)
			} else {
				rec.Response = res.Response
			}
			records = append(records, rec)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	var adapter *graph.Adapter
	if charter := c.charter(o); charter != nil {
		adapter = graph.NewAdapter(charter)
	}
	renderer := render.NewRenderer(render.Unicode{}, adapter)
	defer renderer.Clear()

	failed := 0
	for _, res := range results {
		summary := fmt.Sprintf("#%d", res.Index+1)
		if res.Request != nil {
			summary += " " + res.Request.Summary()
		}
		fmt.Fprintln(w, output.Styles.Title.Render(summary))

		if res.Err != nil {
			failed++
			fmt.Fprintln(w, output.Styles.Error.Render(calc.UserMessage(res.Err)))
			fmt.Fprintln(w)
			continue
		}

		v := renderer.Render(res.Response)
		if err := output.Write(w, res.Request, res.Response, v); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d requests, %d failed\n", len(results), failed)
	return nil
}
