// Package passes contains the graph-rewrite passes the frontend runs after
// translation, plus the ordered Manager that sequences them. Passes mutate
// the graph in place; each is independent of the others.
package passes

import "github.com/zerfoo/zfront/pkg/ir"

// Pass is one rewrite over an IR graph.
type Pass interface {
	Name() string
	Run(g *ir.Graph)
}

// Manager runs a fixed, ordered list of passes.
type Manager struct {
	passes []Pass
}

// NewManager creates a manager over the given passes, run in order.
func NewManager(ps ...Pass) *Manager {
	return &Manager{passes: ps}
}

// Register appends a pass.
func (m *Manager) Register(p Pass) {
	m.passes = append(m.passes, p)
}

// Run applies every registered pass to g, in registration order.
func (m *Manager) Run(g *ir.Graph) {
	for _, p := range m.passes {
		p.Run(g)
	}
}

// StageA returns the structural passes that always run after translation.
// They only reshape known idioms and tolerate placeholder nodes.
func StageA() []Pass {
	return []Pass{
		&IdentityPruner{},
		&GemmFuser{},
		&ConstResultPruner{},
		&UnusedInputPruner{},
	}
}

// StageB returns the inference-completion passes. They assume a fully-real
// graph: the frontend runs them only when no placeholder survives anywhere,
// nested subgraphs included.
func StageB() []Pass {
	return []Pass{
		&TransposeFolder{},
		&ShapeInference{},
	}
}
