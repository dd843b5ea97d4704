package frontend_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerfoo/zfront/pkg/frontend"
	"github.com/zerfoo/zfront/pkg/ir"
	"github.com/zerfoo/zfront/pkg/passes"
	"github.com/zerfoo/zfront/pkg/source"
	"github.com/zerfoo/zfront/pkg/telemetry"
)

func countPlaceholders(g *ir.Graph) int {
	count := 0
	for _, n := range g.Nodes() {
		if n.Kind() == ir.KindPlaceholder {
			count++
		}
		for _, sub := range n.Subgraphs() {
			count += countPlaceholders(sub)
		}
	}
	return count
}

func findNode(g *ir.Graph, name string) *ir.Node {
	for _, n := range g.Nodes() {
		if n.Name() == name {
			return n
		}
	}
	return nil
}

// simpleChain builds Input -> Relu -> <tail op> -> output.
func simpleChain(tailOp string) *source.MemoryGraph {
	g := source.NewMemoryGraph("main")
	g.AddInput("a")
	g.AddNode("b", "Relu", []source.OutputRef{source.Ref("a", 0)}, 1)
	g.AddNode("c", tailOp, []source.OutputRef{source.Ref("b", 0)}, 1)
	g.MarkOutput(source.Ref("c", 0))
	return g
}

func TestConvertPartiallyLeavesPlaceholders(t *testing.T) {
	fe := frontend.New()
	g, err := fe.ConvertPartially(frontend.NewInputModel(simpleChain("UnknownOp")))
	require.NoError(t, err)

	require.Equal(t, 1, countPlaceholders(g))
	c := findNode(g, "c")
	require.NotNil(t, c)
	assert.Equal(t, ir.KindPlaceholder, c.Kind())
	assert.Equal(t, "UnknownOp", c.OpType())
	assert.Empty(t, c.FailureMessage(), "no translator existed, so the placeholder is unsupported, not failed")

	// The placeholder is wired like any other node.
	require.Equal(t, 1, c.InputCount())
	assert.Equal(t, "b", c.Input(0).Node().Name())
}

func TestConvertFullyTranslatable(t *testing.T) {
	fe := frontend.New()
	g, err := fe.Convert(frontend.NewInputModel(simpleChain("Sigmoid")))
	require.NoError(t, err)
	assert.Zero(t, countPlaceholders(g))
	require.Len(t, g.Results(), 1)
	assert.Equal(t, "Sigmoid", g.Results()[0].Input(0).Node().OpType())
}

func TestConvertStrictNamesUnsupportedOp(t *testing.T) {
	fe := frontend.New()
	_, err := fe.Convert(frontend.NewInputModel(simpleChain("UnknownOp")))
	require.Error(t, err)

	var convErr *frontend.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, err.Error(), "no translator found for UnknownOp node")
	assert.Equal(t, []string{"UnknownOp"}, convErr.Unsupported)
	assert.Empty(t, convErr.Failures)
}

func TestConvertStrictAggregatesFailures(t *testing.T) {
	fe := frontend.New()
	fe.AddExtension(&frontend.Conversion{
		OpType: "BadOp",
		Converter: func(*frontend.NodeContext) (ir.OutputVector, error) {
			return nil, errors.New("bad shape")
		},
	})

	model := frontend.NewInputModel(simpleChain("BadOp"))

	g, err := fe.ConvertPartially(model)
	require.NoError(t, err)
	c := findNode(g, "c")
	require.NotNil(t, c)
	assert.Equal(t, ir.KindPlaceholder, c.Kind())
	assert.Equal(t, "bad shape", c.FailureMessage())

	_, err = fe.Convert(model)
	require.Error(t, err)
	var convErr *frontend.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, err.Error(), "conversion failed for BadOp operation")
	assert.Contains(t, err.Error(), "bad shape")
	assert.Equal(t, map[string]string{"BadOp": "bad shape"}, convErr.Failures)
	assert.Empty(t, convErr.Unsupported)
}

func TestDuplicateUnsupportedReportedOnce(t *testing.T) {
	g := source.NewMemoryGraph("main")
	g.AddInput("a")
	g.AddNode("u1", "UnknownOp2", []source.OutputRef{source.Ref("a", 0)}, 1)
	g.AddNode("u2", "UnknownOp2", []source.OutputRef{source.Ref("u1", 0)}, 1)
	g.MarkOutput(source.Ref("u2", 0))

	fe := frontend.New()
	converted, err := fe.ConvertPartially(frontend.NewInputModel(g))
	require.NoError(t, err)

	report := frontend.CollectUnsupported(converted)
	assert.Equal(t, []string{"UnknownOp2"}, report.Operations)
}

func TestNestedSubgraphGapsSurfaceAtTopLevel(t *testing.T) {
	branch := source.NewMemoryGraph("then")
	branch.AddInput("x")
	branch.AddNode("exotic", "ExoticOp", []source.OutputRef{source.Ref("x", 0)}, 1)
	branch.MarkOutput(source.Ref("exotic", 0))

	g := source.NewMemoryGraph("main")
	g.AddInput("cond")
	g.AddNode("branchy", "If", []source.OutputRef{source.Ref("cond", 0)}, 1).
		AddSubgraph(branch)
	g.MarkOutput(source.Ref("branchy", 0))

	fe := frontend.New()
	converted, err := fe.ConvertPartially(frontend.NewInputModel(g))
	require.NoError(t, err)

	// Every top-level node translated, but the gap inside the branch is
	// still visible from the top.
	branchy := findNode(converted, "branchy")
	require.NotNil(t, branchy)
	assert.Equal(t, ir.KindOrdinary, branchy.Kind())
	require.Len(t, branchy.Subgraphs(), 1)

	report := frontend.CollectUnsupported(converted)
	assert.Equal(t, []string{"ExoticOp"}, report.Operations)

	_, err = fe.Convert(frontend.NewInputModel(g))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ExoticOp")
}

func TestStageBSkippedWhilePlaceholdersRemain(t *testing.T) {
	withGap := source.NewMemoryGraph("main")
	withGap.AddInput("a").SetAttr("shape", []int64{2, 3})
	withGap.AddNode("act", "Relu", []source.OutputRef{source.Ref("a", 0)}, 1)
	withGap.AddNode("mystery", "UnknownOp", []source.OutputRef{source.Ref("act", 0)}, 1)
	withGap.MarkOutput(source.Ref("mystery", 0))

	fe := frontend.New()
	g, err := fe.ConvertPartially(frontend.NewInputModel(withGap))
	require.NoError(t, err)
	act := findNode(g, "act")
	require.NotNil(t, act)
	assert.Nil(t, act.Output(0).Shape, "shape inference must not run on a graph with placeholders")

	clean := source.NewMemoryGraph("main")
	clean.AddInput("a").SetAttr("shape", []int64{2, 3})
	clean.AddNode("act", "Relu", []source.OutputRef{source.Ref("a", 0)}, 1)
	clean.MarkOutput(source.Ref("act", 0))

	g, err = fe.ConvertPartially(frontend.NewInputModel(clean))
	require.NoError(t, err)
	act = findNode(g, "act")
	require.NotNil(t, act)
	assert.Equal(t, []int64{2, 3}, act.Output(0).Shape)
}

func TestRetryAfterExtensionRewiresConsumers(t *testing.T) {
	g := source.NewMemoryGraph("main")
	g.AddInput("a")
	g.AddNode("u", "UnknownOp", []source.OutputRef{source.Ref("a", 0)}, 1)
	g.AddNode("after", "Relu", []source.OutputRef{source.Ref("u", 0)}, 1)
	g.MarkOutput(source.Ref("after", 0))

	fe := frontend.New()
	converted, err := fe.ConvertPartially(frontend.NewInputModel(g))
	require.NoError(t, err)
	require.Equal(t, 1, countPlaceholders(converted))

	fe.AddExtension(&frontend.Conversion{
		OpType: "UnknownOp",
		Converter: func(ctx *frontend.NodeContext) (ir.OutputVector, error) {
			return ctx.NewNode("CustomOp").Outputs(), nil
		},
	})
	require.NoError(t, fe.ConvertRemaining(converted))

	assert.Zero(t, countPlaceholders(converted))
	after := findNode(converted, "after")
	require.NotNil(t, after)
	assert.Equal(t, "CustomOp", after.Input(0).Node().OpType())
	assert.Equal(t, "u", after.Input(0).Node().Name())
}

func TestConvertRemainingRequiresTranslator(t *testing.T) {
	fe := frontend.New()
	converted, err := fe.ConvertPartially(frontend.NewInputModel(simpleChain("UnknownOp")))
	require.NoError(t, err)

	err = fe.ConvertRemaining(converted)
	require.Error(t, err)
	var retryErr *frontend.RetryResolutionError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, "UnknownOp", retryErr.OpType)
}

func TestInvalidInputModel(t *testing.T) {
	fe := frontend.New()

	_, err := fe.Convert(nil)
	assert.ErrorIs(t, err, frontend.ErrInvalidInputModel)

	_, err = fe.ConvertPartially(frontend.NewInputModel(nil))
	assert.ErrorIs(t, err, frontend.ErrInvalidInputModel)

	_, err = fe.Decode(nil)
	assert.ErrorIs(t, err, frontend.ErrInvalidInputModel)
}

func TestTelemetryReceivesOneEventPerUnsupportedTag(t *testing.T) {
	g := source.NewMemoryGraph("main")
	g.AddInput("a")
	g.AddNode("u1", "UnknownOp", []source.OutputRef{source.Ref("a", 0)}, 1)
	g.AddNode("u2", "UnknownOp", []source.OutputRef{source.Ref("u1", 0)}, 1)
	g.AddNode("u3", "UnknownOp2", []source.OutputRef{source.Ref("u2", 0)}, 1)
	g.MarkOutput(source.Ref("u3", 0))

	sink := &telemetry.MemorySink{}
	fe := frontend.New()
	fe.AddExtension(&frontend.Telemetry{Sink: sink})

	_, err := fe.Convert(frontend.NewInputModel(g))
	require.Error(t, err)

	require.Len(t, sink.Events, 2)
	assert.Equal(t, telemetry.Event{Category: "error_cause", Payload: "onnx_UnknownOp"}, sink.Events[0])
	assert.Equal(t, telemetry.Event{Category: "error_cause", Payload: "onnx_UnknownOp2"}, sink.Events[1])
}

func TestDecodeTranslatesBoundaryOpsOnly(t *testing.T) {
	fe := frontend.New()
	g, err := fe.Decode(frontend.NewInputModel(simpleChain("Sigmoid")))
	require.NoError(t, err)

	// Relu and Sigmoid are translatable, but decode leaves them as
	// placeholders on purpose.
	assert.Equal(t, 2, countPlaceholders(g))
	require.Len(t, g.Parameters(), 1)
	assert.Equal(t, "a", g.Parameters()[0].Name())
}

// recordingPass counts the placeholders it sees when it runs.
type recordingPass struct {
	seen int
}

func (*recordingPass) Name() string { return "recording" }

func (p *recordingPass) Run(g *ir.Graph) {
	for _, n := range g.Nodes() {
		if n.Kind() == ir.KindPlaceholder {
			p.seen++
		}
	}
}

func TestTransformationExtensionRunsOnDecodedGraph(t *testing.T) {
	rec := &recordingPass{}
	fe := frontend.New()
	fe.AddExtension(&frontend.Transformation{
		Name:   "probe",
		Passes: []passes.Pass{rec},
	})

	g, err := fe.ConvertPartially(frontend.NewInputModel(simpleChain("Sigmoid")))
	require.NoError(t, err)

	// The pass observed the boundary-only decode (both real ops still
	// placeholders); the retry path then resolved them all.
	assert.Equal(t, 2, rec.seen)
	assert.Zero(t, countPlaceholders(g))
}

func TestLoaderExtensionUnwraps(t *testing.T) {
	sink := &telemetry.MemorySink{}
	fe := frontend.New()
	fe.AddExtension(&frontend.Loader{
		Path:  "libext.so",
		Inner: &frontend.Telemetry{Sink: sink},
	})

	g := source.NewMemoryGraph("main")
	g.AddInput("a")
	g.AddNode("u", "UnknownOp", []source.OutputRef{source.Ref("a", 0)}, 1)
	g.MarkOutput(source.Ref("u", 0))

	_, err := fe.Convert(frontend.NewInputModel(g))
	require.Error(t, err)
	assert.NotEmpty(t, sink.Events)
}

func TestNamedConversionExtension(t *testing.T) {
	fe := frontend.New()
	fe.AddExtension(&frontend.NamedConversion{
		OpType: "Split2",
		Converter: func(ctx *frontend.NodeContext) (ir.NamedOutputVector, error) {
			n := ctx.NewNode("Split2")
			return ir.NamedOutputVector{
				{Name: "first", Output: n.Output(0)},
				{Name: "second", Output: n.Output(1)},
			}, nil
		},
	})

	g := source.NewMemoryGraph("main")
	g.AddInput("a")
	g.AddNode("s", "Split2", []source.OutputRef{source.Ref("a", 0)}, 2)
	g.AddNode("left", "Relu", []source.OutputRef{source.Ref("s", 0)}, 1)
	g.AddNode("right", "Relu", []source.OutputRef{source.Ref("s", 1)}, 1)
	g.MarkOutput(source.Ref("left", 0))
	g.MarkOutput(source.Ref("right", 0))

	converted, err := fe.Convert(frontend.NewInputModel(g))
	require.NoError(t, err)
	assert.Zero(t, countPlaceholders(converted))

	right := findNode(converted, "right")
	require.NotNil(t, right)
	assert.Equal(t, 1, right.Input(0).Index(), "second consumer reads port 1 of the split")
}

func TestRegistrySnapshotIsolatesInFlightState(t *testing.T) {
	// A translator registered after a partial conversion must not change
	// the already produced graph, only subsequent conversions.
	fe := frontend.New()
	model := frontend.NewInputModel(simpleChain("LateOp"))

	before, err := fe.ConvertPartially(model)
	require.NoError(t, err)
	require.Equal(t, 1, countPlaceholders(before))

	fe.AddExtension(&frontend.Conversion{
		OpType: "LateOp",
		Converter: func(ctx *frontend.NodeContext) (ir.OutputVector, error) {
			return ctx.NewNode("LateOp").Outputs(), nil
		},
	})

	assert.Equal(t, 1, countPlaceholders(before), "earlier result unchanged")

	after, err := fe.ConvertPartially(model)
	require.NoError(t, err)
	assert.Zero(t, countPlaceholders(after))
}

func TestFailureMessageNamesNode(t *testing.T) {
	// Built-in translators validate arity; a Reshape without a shape
	// attribute is a representative in-translator failure.
	g := source.NewMemoryGraph("main")
	g.AddInput("a")
	g.AddNode("r", "Reshape", []source.OutputRef{source.Ref("a", 0)}, 1)
	g.MarkOutput(source.Ref("r", 0))

	fe := frontend.New()
	_, err := fe.Convert(frontend.NewInputModel(g))
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("Reshape node %q", "r"))
}
