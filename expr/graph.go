// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package expr

import "sort"

// Expression is one labeled, user-entered formula in a Graph.
type Expression struct {
	// Label uniquely identifies the expression, e.g. "y1". Other
	// expressions may reference it by label.
	Label string

	// Text is the user-entered formula.
	Text string

	// Color and Visible are display attributes carried for the host UI.
	Color   string
	Visible bool
}

// Parameter is a free scalar variable auto-detected from expression text,
// adjustable by the host UI within [Min, Max].
type Parameter struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

// Graph is a registry of labeled expressions that may reference each other,
// plus the free parameters they mention. References form a dependency DAG;
// cycles are tolerated and silently broken during evaluation.
type Graph struct {
	order  []string // insertion order of labels
	exprs  map[string]*Expression
	params map[string]*Parameter
}

// NewGraph creates an empty expression registry.
func NewGraph() *Graph {
	return &Graph{
		exprs:  make(map[string]*Expression),
		params: make(map[string]*Parameter),
	}
}

// Set adds or replaces the expression with the given label, then re-detects
// parameters across the whole registry.
func (g *Graph) Set(ex *Expression) {
	if _, exists := g.exprs[ex.Label]; !exists {
		g.order = append(g.order, ex.Label)
	}
	g.exprs[ex.Label] = ex
	g.syncParameters()
}

// Remove deletes the expression with the given label, then re-detects
// parameters; ones no longer referenced anywhere are dropped.
func (g *Graph) Remove(label string) {
	if _, exists := g.exprs[label]; !exists {
		return
	}
	delete(g.exprs, label)
	for i, l := range g.order {
		if l == label {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.syncParameters()
}

// Get returns the expression with the given label, or nil.
func (g *Graph) Get(label string) *Expression { return g.exprs[label] }

// Expressions returns all expressions in insertion order.
func (g *Graph) Expressions() []*Expression {
	out := make([]*Expression, 0, len(g.order))
	for _, label := range g.order {
		out = append(out, g.exprs[label])
	}
	return out
}

// Parameters returns the detected free parameters sorted by name.
func (g *Graph) Parameters() []*Parameter {
	out := make([]*Parameter, 0, len(g.params))
	for _, p := range g.params {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetParameter updates the value of a detected parameter. Unknown names are
// ignored.
func (g *Graph) SetParameter(name string, value float64) {
	if p, ok := g.params[name]; ok {
		p.Value = value
	}
}

// syncParameters scans every expression for free identifiers. Identifiers
// that are not labels become parameters: new ones are added with a default
// value and range, and parameters no expression references anymore are
// removed. Existing values survive the rescan.
func (g *Graph) syncParameters() {
	referenced := map[string]bool{}
	for _, ex := range g.exprs {
		parsed, err := Parse(ex.Text)
		if err != nil {
			continue
		}
		for _, name := range parsed.Identifiers() {
			if _, isLabel := g.exprs[name]; isLabel {
				continue
			}
			referenced[name] = true
			if _, exists := g.params[name]; !exists {
				g.params[name] = &Parameter{Name: name, Value: 1, Min: -10, Max: 10}
			}
		}
	}
	for name := range g.params {
		if !referenced[name] {
			delete(g.params, name)
		}
	}
}

// TopoOrder returns the labels in dependency order: every expression's
// referenced labels appear before it. A label already on the current visit
// path is skipped, so cyclic references are broken silently instead of
// recursing forever or reporting an error.
func (g *Graph) TopoOrder() []string {
	visited := map[string]bool{}
	inPath := map[string]bool{}
	var out []string

	var visit func(label string)
	visit = func(label string) {
		if visited[label] || inPath[label] {
			return
		}
		inPath[label] = true
		if parsed, err := Parse(g.exprs[label].Text); err == nil {
			for _, ref := range parsed.Identifiers() {
				if _, isLabel := g.exprs[ref]; isLabel {
					visit(ref)
				}
			}
		}
		inPath[label] = false
		visited[label] = true
		out = append(out, label)
	}

	for _, label := range g.order {
		visit(label)
	}
	return out
}

// EvalAll evaluates every expression at x in dependency order, using the
// current parameter values. The result maps labels to values; labels whose
// evaluation is undefined are absent, and downstream expressions that
// reference them become undefined in turn.
func (g *Graph) EvalAll(x float64) map[string]float64 {
	params := make(map[string]float64, len(g.params))
	for name, p := range g.params {
		params[name] = p.Value
	}
	values := make(map[string]float64, len(g.exprs))
	for _, label := range g.TopoOrder() {
		v, ok := Evaluate(g.exprs[label].Text, x, params, values)
		if !ok {
			continue
		}
		values[label] = v
	}
	return values
}
