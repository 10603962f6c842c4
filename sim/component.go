package sim

import (
	"fmt"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A Component is a named unit of simulation logic. Components declare typed
// input and output ports, are wired into a graph, and are driven by the
// timestep engine through the lifecycle hooks below.
//
// Simulate may be invoked multiple times for the same timestep while the
// engine iterates a coupled subset toward convergence. When forceConvergence
// is true, the call is the final mandatory pass of the timestep and the
// component must produce definitive output values rather than defer.
type Component interface {
	Named

	Inputs() []*Input
	Outputs() []*Output

	// PrepareSimulation is called once before the first timestep.
	PrepareSimulation()

	// Simulate reads bound input values from values, updates internal state,
	// and writes the component's output slots.
	Simulate(timestep int, values *SingleTimeStepValues, forceConvergence bool) error

	// SaveState snapshots the internal state. RestoreState rolls back to the
	// last snapshot. The engine guarantees that RestoreState is never called
	// before the first SaveState.
	SaveState()
	RestoreState()

	// DoubleCheck is a side-effect-free consistency assertion invoked after a
	// timestep has converged.
	DoubleCheck(timestep int, values *SingleTimeStepValues) error
}

// A Connection describes one default wiring of an input field to an output
// of another component. Component types publish default connection lists so
// that common setups do not need explicit wiring calls.
type Connection struct {
	InputField   string
	SrcComponent string
	SrcField     string
}

// ComponentBase provides the port registry that concrete components embed.
//
// The input and output lists are append-only. Dynamic components may grow
// them during the build phase; the lists are frozen together with the graph
// before simulation starts.
type ComponentBase struct {
	name string

	inputs      []*Input
	outputs     []*Output
	inputIndex  map[string]*Input
	outputIndex map[string]*Output
}

// NewComponentBase creates a ComponentBase with the given component name.
func NewComponentBase(name string) *ComponentBase {
	return &ComponentBase{
		name:        name,
		inputIndex:  make(map[string]*Input),
		outputIndex: make(map[string]*Output),
	}
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}

// Inputs returns the declared inputs in declaration order.
func (c *ComponentBase) Inputs() []*Input {
	return c.inputs
}

// Outputs returns the declared outputs in declaration order.
func (c *ComponentBase) Outputs() []*Output {
	return c.outputs
}

// DeclareInput adds a typed input port. Declaring the same field name twice
// on one component panics.
func (c *ComponentBase) DeclareInput(
	fieldName string,
	loadType LoadType,
	unit Unit,
	mandatory bool,
) *Input {
	if _, exists := c.inputIndex[fieldName]; exists {
		panic(fmt.Sprintf(
			"input %s already declared on component %s", fieldName, c.name))
	}

	in := &Input{
		ComponentName: c.name,
		FieldName:     fieldName,
		LoadType:      loadType,
		Unit:          unit,
		Mandatory:     mandatory,
	}
	c.inputs = append(c.inputs, in)
	c.inputIndex[fieldName] = in

	return in
}

// DeclareOutput adds a typed output port. Declaring the same field name
// twice on one component panics.
func (c *ComponentBase) DeclareOutput(
	fieldName string,
	loadType LoadType,
	unit Unit,
	description string,
) *Output {
	return c.declareOutput(fieldName, fieldName, loadType, unit, description)
}

func (c *ComponentBase) declareOutput(
	fieldName, displayName string,
	loadType LoadType,
	unit Unit,
	description string,
) *Output {
	if _, exists := c.outputIndex[fieldName]; exists {
		panic(fmt.Sprintf(
			"output %s already declared on component %s", fieldName, c.name))
	}

	out := &Output{
		ComponentName: c.name,
		FieldName:     fieldName,
		DisplayName:   displayName,
		LoadType:      loadType,
		Unit:          unit,
		Description:   description,
		slot:          -1,
	}
	c.outputs = append(c.outputs, out)
	c.outputIndex[fieldName] = out

	return out
}

// ConnectInput records that the input reads the named output of the named
// source component. The source is not validated here; it may be declared
// later. Resolution happens at graph freeze time.
func (c *ComponentBase) ConnectInput(
	input *Input,
	srcComponentName, srcFieldName string,
) {
	input.SrcComponentName = srcComponentName
	input.SrcFieldName = srcFieldName
}

// ApplyDefaultConnections applies a default connection list in order,
// skipping every input field that already has an explicit connection.
// Referencing an undeclared input field panics.
func (c *ComponentBase) ApplyDefaultConnections(defaults []Connection) {
	for _, conn := range defaults {
		in, exists := c.inputIndex[conn.InputField]
		if !exists {
			panic(fmt.Sprintf(
				"default connection references unknown input %s on component %s",
				conn.InputField, c.name))
		}

		if in.IsConnected() {
			continue
		}

		c.ConnectInput(in, conn.SrcComponent, conn.SrcField)
	}
}

// GetInputByName returns the declared input with the given field name. It
// panics if the field is not declared.
func (c *ComponentBase) GetInputByName(fieldName string) *Input {
	in, exists := c.inputIndex[fieldName]
	if !exists {
		panic(fmt.Sprintf(
			"input %s is not available on component %s", fieldName, c.name))
	}

	return in
}

// GetOutputByName returns the declared output with the given field name. It
// panics if the field is not declared.
func (c *ComponentBase) GetOutputByName(fieldName string) *Output {
	out, exists := c.outputIndex[fieldName]
	if !exists {
		panic(fmt.Sprintf(
			"output %s is not available on component %s", fieldName, c.name))
	}

	return out
}
