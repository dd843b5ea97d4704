// Package frontend converts decoded computation graphs into the IR consumed
// by the downstream inference stack. Translation goes through a pluggable
// per-op-type registry; nodes with no translator, or whose translator
// errors, become placeholder nodes so a best-effort conversion always
// produces a complete graph. Strict conversion aggregates every remaining
// gap into a single error.
package frontend

import (
	"github.com/zerfoo/zfront/pkg/ir"
	"github.com/zerfoo/zfront/pkg/passes"
	"github.com/zerfoo/zfront/pkg/source"
	"github.com/zerfoo/zfront/pkg/telemetry"
)

// boundary op types are the only translators Decode keeps: enough to wire
// graph inputs and no-op markers while leaving every real operation as a
// placeholder for transformation extensions to inspect.
var boundaryOps = []string{"Input", "NoOp"}

// InputModel is a loaded model handle accepted by the conversion entry
// points. Build one from any source.Graph, e.g. the ONNX adapter or an
// in-memory graph.
type InputModel struct {
	src source.Graph
}

// NewInputModel wraps a decoded graph source.
func NewInputModel(src source.Graph) *InputModel {
	return &InputModel{src: src}
}

// Source returns the wrapped graph source.
func (m *InputModel) Source() source.Graph {
	if m == nil {
		return nil
	}
	return m.src
}

// FrontEnd owns the translator registry, the registered extensions, and the
// telemetry sink. One FrontEnd performs any number of independent
// conversions; each conversion snapshots the registry first, so
// AddExtension never mutates a conversion already in flight.
//
// A FrontEnd is not safe for concurrent mutation. Concurrent conversions
// are fine as long as no AddExtension call races them.
type FrontEnd struct {
	translators     translatorMap
	transformations []*Transformation
	telemetry       telemetry.Sink
	loaded          []*Loader
}

// New creates a FrontEnd with the built-in translator table installed.
func New() *FrontEnd {
	return &FrontEnd{translators: builtinTranslators()}
}

// Convert performs a strict conversion: the partial pipeline runs first,
// then every remaining coverage gap anywhere in the graph (nested subgraphs
// included) is aggregated into one ConversionError. On success the returned
// graph contains no placeholder nodes.
func (fe *FrontEnd) Convert(model *InputModel) (*ir.Graph, error) {
	g, err := fe.ConvertPartially(model)
	if err != nil {
		return nil, err
	}

	rep := CollectUnsupported(g)
	if fe.telemetry != nil {
		for _, op := range rep.Operations {
			fe.telemetry.SendEvent("error_cause", "onnx_"+op)
		}
	}
	if !rep.Empty() {
		return nil, newConversionError(rep)
	}
	return g, nil
}

// ConvertPartially performs a best-effort conversion. It never fails for
// coverage reasons: untranslatable nodes survive as placeholders in the
// returned graph. When transformation extensions are registered the
// pipeline instead decodes boundary ops only, applies each extension's
// passes, and finishes through the targeted retry path — which can fail if
// an extension left a node no translator covers.
func (fe *FrontEnd) ConvertPartially(model *InputModel) (*ir.Graph, error) {
	if model == nil || model.src == nil {
		return nil, ErrInvalidInputModel
	}

	if len(fe.transformations) > 0 {
		g, err := fe.Decode(model)
		if err != nil {
			return nil, err
		}
		for _, tr := range fe.transformations {
			tr.manager().Run(g)
		}
		if err := fe.ConvertRemaining(g); err != nil {
			return nil, err
		}
		return g, nil
	}

	g := newSession(fe.translators.clone()).translate(model.src)
	fe.normalize(g)
	return g, nil
}

// Decode translates only the boundary op types, leaving every other node as
// a placeholder. Transformation extension authors use the result to inspect
// and rewrite the raw graph before real translation.
func (fe *FrontEnd) Decode(model *InputModel) (*ir.Graph, error) {
	if model == nil || model.src == nil {
		return nil, ErrInvalidInputModel
	}
	restricted := make(translatorMap, len(boundaryOps))
	for _, op := range boundaryOps {
		if t, ok := fe.translators[op]; ok {
			restricted[op] = t
		}
	}
	return newSession(restricted).translate(model.src), nil
}

// ConvertRemaining finishes a partially converted graph in place: every
// placeholder at the top level is re-translated through the retry path
// (missing translators are a hard RetryResolutionError), then the graph is
// normalized.
func (fe *FrontEnd) ConvertRemaining(g *ir.Graph) error {
	for _, n := range g.OrderedNodes() {
		if n.Kind() != ir.KindPlaceholder {
			continue
		}
		if err := retranslate(g, n, fe.translators); err != nil {
			return err
		}
	}
	fe.normalize(g)
	return nil
}

// normalize runs the two-stage pass pipeline. Stage A always runs; stage B
// assumes a fully-real graph and is skipped while any placeholder survives
// anywhere, nested subgraphs included.
func (fe *FrontEnd) normalize(g *ir.Graph) {
	passes.NewManager(passes.StageA()...).Run(g)

	if rep := CollectUnsupported(g); !rep.Empty() {
		return
	}
	passes.NewManager(passes.StageB()...).Run(g)
}
