package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/haatos/stageflow/internal/execution"
	"github.com/haatos/stageflow/internal/topology"
	"github.com/haatos/stageflow/internal/tui"
)

func simulateCmd() *cobra.Command {
	var (
		plain    bool
		stay     bool
		dwellMin time.Duration
		dwellMax time.Duration
	)

	cmd := &cobra.Command{
		Use:   "simulate [pipeline.yaml]",
		Short: "Simulate a run of a pipeline document (the seed by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readDocument(optionalArg(args))
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if plain {
				return simulatePlain(ctx, cmd.OutOrStdout(), p, execution.WithDwell(dwellMin, dwellMax))
			}
			return simulateTUI(ctx, p, stay, execution.WithDwell(dwellMin, dwellMax))
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print transitions line by line instead of the watcher")
	cmd.Flags().BoolVar(&stay, "stay", false, "keep the watcher open after the run completes")
	cmd.Flags().DurationVar(&dwellMin, "dwell-min", execution.DefaultMinDwell, "shortest time a stage stays running")
	cmd.Flags().DurationVar(&dwellMax, "dwell-max", execution.DefaultMaxDwell, "upper bound (exclusive) of the stage running time")
	return cmd
}

func describeSnapshot(p topology.Pipeline, s execution.Snapshot) string {
	switch s.State {
	case execution.StateRunning:
		return fmt.Sprintf("stage %d/%d running: %s", s.Current+1, s.StageCount, p.Stages[s.Current].Name)
	case execution.StateCompleted:
		return fmt.Sprintf("run %s completed (%d stages)", s.RunID, s.StageCount)
	}
	return string(s.State)
}

// simulatePlain prints every transition and returns when the run completes
// or ctx is cancelled.
func simulatePlain(
	ctx context.Context,
	w io.Writer,
	p topology.Pipeline,
	opts ...execution.Option,
) error {
	done := make(chan struct{})
	observer := func(s execution.Snapshot) {
		fmt.Fprintf(w, "%s  %s\n", s.UpdatedAt.Format(time.TimeOnly), describeSnapshot(p, s))
		if s.State == execution.StateCompleted {
			close(done)
		}
	}
	c := execution.NewController(append(opts, execution.WithObserver(observer))...)
	c.Start(p, execution.TriggerManual)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func simulateTUI(ctx context.Context, p topology.Pipeline, stay bool, opts ...execution.Option) error {
	var program *tea.Program
	c := execution.NewController(append(opts, execution.WithObserver(func(s execution.Snapshot) {
		program.Send(tui.SnapshotMsg(s))
	}))...)

	watchOpts := []tui.WatchOption{tui.WithAutoStart()}
	if !stay {
		watchOpts = append(watchOpts, tui.WithQuitOnDone())
	}
	model := tui.NewWatchModel(p, func() bool {
		return c.Start(p, execution.TriggerManual)
	}, watchOpts...)

	program = tea.NewProgram(model, tea.WithContext(ctx))
	_, err := program.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
