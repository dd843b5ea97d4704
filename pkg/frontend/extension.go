package frontend

import (
	"github.com/zerfoo/zfront/pkg/passes"
	"github.com/zerfoo/zfront/pkg/telemetry"
)

// Extension is the closed set of capabilities AddExtension accepts. The
// concrete kind is decided once at registration; there is no capability
// probing afterwards.
type Extension interface {
	isExtension()
}

// Telemetry replaces the frontend's telemetry sink.
type Telemetry struct {
	Sink telemetry.Sink
}

func (*Telemetry) isExtension() {}

// Transformation contributes passes that run over the decoded graph during
// partial conversion, before real translation. Registered transformations
// run in registration order.
type Transformation struct {
	Name   string
	Passes []passes.Pass
}

func (*Transformation) isExtension() {}

func (t *Transformation) manager() *passes.Manager {
	return passes.NewManager(t.Passes...)
}

// Conversion registers an indexed-output translator for one op type,
// overriding any existing translator for that type.
type Conversion struct {
	OpType    string
	Converter CreatorFunction
}

func (*Conversion) isExtension() {}

// NamedConversion registers a named-and-indexed translator for one op type,
// overriding any existing translator for that type.
type NamedConversion struct {
	OpType    string
	Converter NamedCreatorFunction
}

func (*NamedConversion) isExtension() {}

// Loader wraps an extension loaded from a shared library. The inner
// extension is registered transparently; the loader itself is retained so
// its lifetime spans the FrontEnd's.
type Loader struct {
	Path  string
	Inner Extension
}

func (*Loader) isExtension() {}

// AddExtension registers ext with the FrontEnd. Exactly one capability is
// expected per call; unrecognized extension kinds are silently ignored.
// Translator registrations take effect for all subsequent conversions;
// conversions already in flight keep their registry snapshot.
func (fe *FrontEnd) AddExtension(ext Extension) {
	switch e := ext.(type) {
	case *Telemetry:
		fe.telemetry = e.Sink
	case *Transformation:
		fe.transformations = append(fe.transformations, e)
	case *Loader:
		fe.AddExtension(e.Inner)
		fe.loaded = append(fe.loaded, e)
	case *Conversion:
		if e.Converter != nil {
			fe.translators[e.OpType] = e.Converter
		}
	case *NamedConversion:
		if e.Converter != nil {
			fe.translators[e.OpType] = indexed(e.Converter)
		}
	}
}
