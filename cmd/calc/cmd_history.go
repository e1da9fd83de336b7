package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"calcnerd/internal/history"
	"calcnerd/internal/render"
	"calcnerd/internal/types"

	"github.com/spf13/cobra"
)

func (c *cli) historyCmd() *cobra.Command {
	var (
		limit     int
		operation string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past calculations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			f := history.Filter{Limit: c.cfg.History.Limit}
			if cmd.Flags().Changed("limit") {
				f.Limit = limit
			}
			if operation != "" {
				op, err := types.ParseOperation(operation)
				if err != nil {
					return err
				}
				f.Operation = op
			}

			entries, err := store.List(cmd.Context(), f)
			if err != nil {
				return err
			}

			outFormat, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if outFormat == render.FormatJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(w, "No calculations recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tREQUEST\tRESULT\tDURATION")
			for _, e := range entries {
				result := e.Display
				if !e.Success {
					result = "error: " + e.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n",
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					entryRequest(e), truncate(result, 60), e.Duration)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%d of %d entries\n", len(entries), total)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum entries to show, 0 for all (default from config)")
	cmd.Flags().StringVarP(&operation, "operation", "o", "", "Only show one operation")
	cmd.Flags().StringVarP(&format, "format", "f", "plain", "Output format: plain or json")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded calculations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", n)
			return nil
		},
	})

	return cmd
}

func (c *cli) requireHistory() (*history.Store, error) {
	store, err := c.openHistory()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("history is disabled (set history.enabled in %s)", c.configPath)
	}
	return store, nil
}

func entryRequest(e history.Entry) string {
	if e.Request == nil {
		return string(e.Operation)
	}
	return e.Request.Summary()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
