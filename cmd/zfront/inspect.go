package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zerfoo/zfront/internal/onnx"
	"github.com/zerfoo/zfront/pkg/frontend"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <model.onnx>",
		Short: "Report translator coverage for an ONNX model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, input string) error {
	model, err := onnx.Open(input)
	if err != nil {
		return err
	}
	src, err := onnx.Source(model, input)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Model: %s\n", input)
	fmt.Fprintf(out, "IR version: %d\n", model.IRVersion)
	if len(model.OpsetImport) > 0 {
		fmt.Fprintf(out, "Opset version: %d\n", model.OpsetImport[0].Version)
	}
	fmt.Fprintf(out, "Graph %q: %d nodes, %d initializers\n",
		model.Graph.Name, len(model.Graph.Nodes), len(model.Graph.Initializers))

	fe := frontend.New()
	g, err := fe.ConvertPartially(frontend.NewInputModel(src))
	if err != nil {
		return err
	}
	report := frontend.CollectUnsupported(g)
	if report.Empty() {
		fmt.Fprintln(out, "All operations are supported.")
		return nil
	}

	if len(report.Operations) > 0 {
		fmt.Fprintf(out, "Unsupported operations (%d):\n", len(report.Operations))
		for _, op := range report.Operations {
			fmt.Fprintf(out, "  - %s\n", op)
		}
	}
	if len(report.FailedOps) > 0 {
		fmt.Fprintf(out, "Failed translations (%d):\n", len(report.FailedOps))
		for _, op := range report.FailedOps {
			fmt.Fprintf(out, "  - %s: %s\n", op, report.Failures[op])
		}
	}
	return nil
}
