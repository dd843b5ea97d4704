package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/proto"

	"github.com/zerfoo/zfront/internal/onnx"
	"github.com/zerfoo/zfront/pkg/export"
	"github.com/zerfoo/zfront/pkg/frontend"
	"github.com/zerfoo/zfront/pkg/ir"
	"github.com/zerfoo/zfront/pkg/telemetry"
)

func newConvertCmd() *cobra.Command {
	var output string
	var partial bool

	cmd := &cobra.Command{
		Use:   "convert <model.onnx>",
		Short: "Convert an ONNX model to a ZMF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
				output = base + ".zmf"
			}
			return runConvert(input, output, partial)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "path for the converted ZMF file")
	cmd.Flags().BoolVar(&partial, "partial", false, "tolerate unsupported operations and report them instead of failing")
	return cmd
}

func runConvert(input, output string, partial bool) error {
	graph, model, err := convertModel(input, partial)
	if err != nil {
		return err
	}

	opset := int64(0)
	if len(model.OpsetImport) > 0 {
		opset = model.OpsetImport[0].Version
	}
	zmfModel, err := export.ToZMF(graph, opset)
	if err != nil {
		return err
	}

	data, err := proto.Marshal(zmfModel)
	if err != nil {
		return fmt.Errorf("failed to marshal ZMF model: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	slog.Info("model converted",
		"input", input,
		"output", output,
		"nodes", len(zmfModel.Graph.Nodes),
		"parameters", len(zmfModel.Graph.Parameters))
	return nil
}

func convertModel(input string, partial bool) (*ir.Graph, *onnx.ModelProto, error) {
	model, err := onnx.Open(input)
	if err != nil {
		return nil, nil, err
	}
	src, err := onnx.Source(model, input)
	if err != nil {
		return nil, nil, err
	}

	fe := frontend.New()
	fe.AddExtension(&frontend.Telemetry{Sink: telemetry.NewLogSink(slog.Default())})
	handle := frontend.NewInputModel(src)

	if !partial {
		g, err := fe.Convert(handle)
		if err != nil {
			return nil, nil, err
		}
		return g, model, nil
	}

	g, err := fe.ConvertPartially(handle)
	if err != nil {
		return nil, nil, err
	}
	report := frontend.CollectUnsupported(g)
	for _, op := range report.Operations {
		slog.Warn("unsupported operation", "op_type", op)
	}
	for _, op := range report.FailedOps {
		slog.Warn("translation failed", "op_type", op, "message", report.Failures[op])
	}
	return g, model, nil
}
