package sim

import (
	"fmt"
)

// A MissingConnectionError reports a mandatory input that cannot be resolved
// at graph freeze time.
type MissingConnectionError struct {
	ComponentName string
	FieldName     string
	Reason        string
}

func (e *MissingConnectionError) Error() string {
	return fmt.Sprintf("input %s.%s cannot be connected: %s",
		e.ComponentName, e.FieldName, e.Reason)
}

// A Group is a set of components that must be simulated together. A group of
// one component without a self-coupling is acyclic and simulated once per
// pass; any other group is a cyclic coupling that the engine resolves by
// bounded re-simulation.
type Group struct {
	Components []Component
	Cyclic     bool
}

// A Graph is the set of all components of a simulation plus their port
// bindings. Components and ports may be added until Freeze is called; after
// that the graph is immutable and ready for execution.
type Graph struct {
	components []Component
	nameIndex  map[string]int

	frozen    bool
	slotCount int
	order     []Group
}

// NewGraph creates an empty simulation graph.
func NewGraph() *Graph {
	return &Graph{
		nameIndex: make(map[string]int),
	}
}

// AddComponent registers a component. Registering two components with the
// same name panics.
func (g *Graph) AddComponent(c Component) {
	if g.frozen {
		panic("cannot add component to a frozen graph")
	}

	if _, exists := g.nameIndex[c.Name()]; exists {
		panic("component " + c.Name() + " already registered")
	}

	g.components = append(g.components, c)
	g.nameIndex[c.Name()] = len(g.components) - 1
}

// Components returns the registered components in registration order.
func (g *Graph) Components() []Component {
	return g.components
}

// GetComponentByName returns the component with the given name, or nil.
func (g *Graph) GetComponentByName(name string) Component {
	idx, exists := g.nameIndex[name]
	if !exists {
		return nil
	}

	return g.components[idx]
}

// SlotCount returns the number of value-vector slots. Valid after Freeze.
func (g *Graph) SlotCount() int {
	g.mustBeFrozen()
	return g.slotCount
}

// ExecutionOrder returns the component groups in dependency order. Valid
// after Freeze.
func (g *Graph) ExecutionOrder() []Group {
	g.mustBeFrozen()
	return g.order
}

// IsFrozen returns true once Freeze has completed successfully.
func (g *Graph) IsFrozen() bool {
	return g.frozen
}

func (g *Graph) mustBeFrozen() {
	if !g.frozen {
		panic("graph is not frozen yet")
	}
}

// Freeze assigns every output a global value-vector slot, resolves all
// recorded input bindings, verifies that every mandatory input is bound to
// an existing output with compatible load type and unit, and computes the
// execution order. It returns a *MissingConnectionError if a mandatory
// input cannot be resolved.
func (g *Graph) Freeze() error {
	if g.frozen {
		panic("graph is already frozen")
	}

	g.assignSlots()

	if err := g.resolveBindings(); err != nil {
		return err
	}

	g.computeOrder()
	g.frozen = true

	return nil
}

func (g *Graph) assignSlots() {
	slot := 0
	for _, c := range g.components {
		for _, out := range c.Outputs() {
			out.slot = slot
			slot++
		}
	}

	g.slotCount = slot
}

func (g *Graph) resolveBindings() error {
	for _, c := range g.components {
		for _, in := range c.Inputs() {
			if err := g.resolveInput(in); err != nil {
				return err
			}
		}
	}

	return nil
}

func (g *Graph) resolveInput(in *Input) error {
	if !in.IsConnected() {
		if in.Mandatory {
			return &MissingConnectionError{
				ComponentName: in.ComponentName,
				FieldName:     in.FieldName,
				Reason:        "mandatory input is not connected",
			}
		}

		return nil
	}

	src := g.GetComponentByName(in.SrcComponentName)
	if src == nil {
		return &MissingConnectionError{
			ComponentName: in.ComponentName,
			FieldName:     in.FieldName,
			Reason: fmt.Sprintf("source component %s is not registered",
				in.SrcComponentName),
		}
	}

	out := outputByFieldName(src, in.SrcFieldName)
	if out == nil {
		return &MissingConnectionError{
			ComponentName: in.ComponentName,
			FieldName:     in.FieldName,
			Reason: fmt.Sprintf("source component %s has no output %s",
				in.SrcComponentName, in.SrcFieldName),
		}
	}

	if !loadTypesCompatible(in.LoadType, out.LoadType) {
		return &MissingConnectionError{
			ComponentName: in.ComponentName,
			FieldName:     in.FieldName,
			Reason: fmt.Sprintf("load type %s does not match %s of output %s",
				in.LoadType, out.LoadType, out.FullName()),
		}
	}

	if !unitsCompatible(in.Unit, out.Unit) {
		return &MissingConnectionError{
			ComponentName: in.ComponentName,
			FieldName:     in.FieldName,
			Reason: fmt.Sprintf("unit %s does not match %s of output %s",
				in.Unit, out.Unit, out.FullName()),
		}
	}

	in.source = out

	return nil
}

func outputByFieldName(c Component, fieldName string) *Output {
	for _, out := range c.Outputs() {
		if out.FieldName == fieldName {
			return out
		}
	}

	return nil
}

func loadTypesCompatible(a, b LoadType) bool {
	return a == b || a == LoadTypeAny || b == LoadTypeAny
}

func unitsCompatible(a, b Unit) bool {
	return a == b || a == UnitNone || b == UnitNone
}

// computeOrder groups the components into strongly connected components and
// orders the groups so that every binding points from an earlier group to a
// later one. Tarjan's algorithm emits the groups in reverse topological
// order, so the result is reversed at the end.
func (g *Graph) computeOrder() {
	adj := g.dependencyEdges()

	n := len(g.components)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var stack []int
	var groups [][]int
	counter := 0

	var strongConnect func(v int)
	strongConnect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if index[w] == -1 {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && index[w] < lowlink[v] {
				lowlink[v] = index[w]
			}
		}

		if lowlink[v] == index[v] {
			var group []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				group = append(group, w)
				if w == v {
					break
				}
			}
			groups = append(groups, group)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongConnect(v)
		}
	}

	g.order = make([]Group, 0, len(groups))
	for i := len(groups) - 1; i >= 0; i-- {
		g.order = append(g.order, g.makeGroup(groups[i], adj))
	}
}

// dependencyEdges returns, per component index, the indices of the
// components that read its outputs.
func (g *Graph) dependencyEdges() [][]int {
	adj := make([][]int, len(g.components))

	for ci, c := range g.components {
		for _, in := range c.Inputs() {
			if in.source == nil {
				continue
			}

			srcIdx := g.nameIndex[in.source.ComponentName]
			adj[srcIdx] = append(adj[srcIdx], ci)
		}
	}

	return adj
}

func (g *Graph) makeGroup(indices []int, adj [][]int) Group {
	members := make([]Component, 0, len(indices))

	// Keep registration order inside a group so that cyclic iteration is
	// deterministic.
	inGroup := make(map[int]bool, len(indices))
	for _, idx := range indices {
		inGroup[idx] = true
	}
	for idx := range g.components {
		if inGroup[idx] {
			members = append(members, g.components[idx])
		}
	}

	cyclic := len(members) > 1
	if !cyclic {
		idx := g.nameIndex[members[0].Name()]
		for _, w := range adj[idx] {
			if w == idx {
				cyclic = true
				break
			}
		}
	}

	return Group{Components: members, Cyclic: cyclic}
}
