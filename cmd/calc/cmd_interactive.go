package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"calcnerd/cmd/calc/ui"
	"calcnerd/internal/calculator"
	"calcnerd/internal/config"
	"calcnerd/internal/graph"
	"calcnerd/internal/history"
	"calcnerd/internal/logging"
	"calcnerd/internal/render"
	"calcnerd/internal/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// newController wires a controller to the service client. A nil charter
// disables graphs.
func (c *cli) newController(charter graph.Charter) *calculator.Controller {
	var adapter *graph.Adapter
	if charter != nil {
		adapter = graph.NewAdapter(charter)
	}
	examples := make(map[types.OperationKind][]string, len(types.Operations))
	for _, op := range types.Operations {
		examples[op] = c.cfg.ExamplesFor(string(op))
	}
	return calculator.New(c.client, render.NewRenderer(render.Unicode{}, adapter), calculator.NewForm(examples))
}

// recordHistory stores every applied outcome in store.
func recordHistory(ctx context.Context, ctrl *calculator.Controller, store *history.Store, keep int) {
	if store == nil {
		return
	}
	ctrl.OnComplete(func(out calculator.Outcome) {
		entry := history.NewEntry(out.Ticket.Request, out.Response, out.Err, out.Duration)
		entry.ID = out.Ticket.RequestID
		if err := store.Record(ctx, entry); err != nil {
			logging.StoreError("failed to record %s: %v", entry.ID, err)
			return
		}
		if keep > 0 {
			if _, err := store.Prune(ctx, keep); err != nil {
				logging.StoreError("failed to prune history: %v", err)
			}
		}
	})
}

// runInteractive starts the full-screen calculator.
func (c *cli) runInteractive(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := c.openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	ctrl := c.newController(graph.NewTerminal(c.cfg.UI.GraphWidth, c.cfg.UI.GraphHeight))
	recordHistory(ctx, ctrl, store, c.cfg.History.MaxEntries)

	theme := render.ThemeFor(c.cfg.UI.Theme)
	model := ui.New(ui.Options{
		Controller:   ctrl,
		Styles:       render.NewStyles(theme),
		ErrorTimeout: c.cfg.GetErrorBannerTimeout(),
		ServiceURL:   c.client.URL(),
		Context:      ctx,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	watcher, err := config.NewWatcher(c.configPath, func(updated *config.Config) {
		if c.serviceURL != "" {
			return
		}
		c.client.SetURL(updated.ServiceURL())
		p.Send(ui.ConfigReloadedMsg{ServiceURL: c.client.URL()})
	})
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("config watcher disabled: %v", err)
	} else if err := watcher.Start(ctx); err != nil {
		logging.Get(logging.CategoryBoot).Warn("config watcher disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	logging.Session("interactive session started")
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	logging.Session("interactive session ended")
	return nil
}
