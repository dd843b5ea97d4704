package frontend

import "github.com/zerfoo/zfront/pkg/ir"

// CreatorFunction translates one decoded node into IR outputs, indexed by
// port. A non-nil error marks the node as failed; other nodes keep
// translating.
type CreatorFunction func(ctx *NodeContext) (ir.OutputVector, error)

// NamedCreatorFunction is the named-and-indexed translator shape. Results
// are flattened to indexed order for port binding.
type NamedCreatorFunction func(ctx *NodeContext) (ir.NamedOutputVector, error)

// translatorMap maps op-type tags to translators. At most one translator
// per tag; registration is last-write-wins and there is no removal. The map
// is not safe for concurrent mutation: every conversion clones it first and
// works against the snapshot.
type translatorMap map[string]CreatorFunction

func (m translatorMap) clone() translatorMap {
	out := make(translatorMap, len(m))
	for tag, t := range m {
		out[tag] = t
	}
	return out
}

func indexed(named NamedCreatorFunction) CreatorFunction {
	return func(ctx *NodeContext) (ir.OutputVector, error) {
		outs, err := named(ctx)
		if err != nil {
			return nil, err
		}
		return outs.Flatten(), nil
	}
}
