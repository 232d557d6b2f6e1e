package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haatos/stageflow/internal/service"
	"github.com/haatos/stageflow/internal/topology"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stageflow",
		Short: "stageflow pipeline editor and run simulator",
		Long: `stageflow edits staged CI/CD pipeline documents, simulates runs stage by
stage and computes the connector layout of the pipeline graph.`,
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(simulateCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(lintCmd())
	root.AddCommand(seedCmd())
	return root
}

// readDocument loads a pipeline document from path. The format follows the
// file extension, defaulting to yaml. An empty path yields the seed document.
func readDocument(path string) (topology.Pipeline, error) {
	if path == "" {
		return topology.Seed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return topology.Pipeline{}, fmt.Errorf("read pipeline file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return topology.DecodeJSON(data)
	}
	return topology.DecodeYAML(data)
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func exportCmd() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export [pipeline.yaml]",
		Short: "Convert a pipeline document to yaml, json or dot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readDocument(optionalArg(args))
			if err != nil {
				return err
			}
			data, err := service.Export(p, format)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", service.FormatYAML, "output format: yaml, json or dot")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

func lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <pipeline.yaml>",
		Short: "Print advisory hints for a pipeline document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readDocument(args[0])
			if err != nil {
				return err
			}
			hints := topology.Lint(p)
			w := cmd.OutOrStdout()
			if len(hints) == 0 {
				fmt.Fprintf(w, "OK: pipeline %q has no hints (%d stages, %d jobs)\n",
					p.Name, len(p.Stages), p.JobCount())
				return nil
			}
			for _, h := range hints {
				fmt.Fprintln(w, h.String())
			}
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Print the sample pipeline document as yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := topology.EncodeYAML(topology.Seed())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
