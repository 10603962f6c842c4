package sim

import (
	"fmt"
	"strings"
)

// A DynamicConnectionInput is the registry entry behind one dynamically
// acquired input. It retains the tags and the weight of the connection; the
// generic Input itself carries neither.
type DynamicConnectionInput struct {
	Input                *Input
	SrcComponentName     string
	SrcOutputDisplayName string
	LoadType             LoadType
	Unit                 Unit
	Tags                 TagSet
	Weight               int
}

// A DynamicConnectionOutput is the registry entry behind one dynamically
// acquired output.
type DynamicConnectionOutput struct {
	Output   *Output
	LoadType LoadType
	Unit     Unit
	Tags     TagSet
	Weight   int
}

// DynamicComponentBase extends ComponentBase for components whose port count
// is not fixed by their type. Such a component acquires inputs and outputs
// during the build phase, each tagged with a TagSet and an integer weight,
// and addresses them later by predicate instead of by field name.
//
// The weight disambiguates multiple ports carrying the same tag set, e.g.
// the input from the second of several batteries. (tags, weight) pairs are
// not required to be unique; lookups return the first match in declaration
// order, so callers must declare ports in an order that makes the first
// match the intended one.
type DynamicComponentBase struct {
	*ComponentBase

	dynamicInputs  []DynamicConnectionInput
	dynamicOutputs []DynamicConnectionOutput
}

// NewDynamicComponentBase creates a DynamicComponentBase with the given
// component name.
func NewDynamicComponentBase(name string) *DynamicComponentBase {
	return &DynamicComponentBase{
		ComponentBase: NewComponentBase(name),
	}
}

// DynamicInputs returns the dynamic-input registry in declaration order.
func (c *DynamicComponentBase) DynamicInputs() []DynamicConnectionInput {
	return c.dynamicInputs
}

// DynamicOutputs returns the dynamic-output registry in declaration order.
func (c *DynamicComponentBase) DynamicOutputs() []DynamicConnectionOutput {
	return c.dynamicOutputs
}

// AddInputAndConnect creates one new input, auto-named positionally, binds
// it to the output of src whose display name equals srcOutputName, and
// records the connection in the dynamic-input registry. It panics if src has
// no output with that display name.
func (c *DynamicComponentBase) AddInputAndConnect(
	src Component,
	srcOutputName string,
	loadType LoadType,
	unit Unit,
	tags TagSet,
	weight int,
) *Input {
	out := findOutputByDisplayName(src, srcOutputName)
	if out == nil {
		panic(fmt.Sprintf(
			"component %s has no output named %s to connect %s to",
			src.Name(), srcOutputName, c.Name()))
	}

	return c.addConnectedInput(src.Name(), out, loadType, unit, tags, weight)
}

// AddInputsAndConnect scans every output of every source component and, for
// each output whose display name contains outputNameSubstring, creates and
// binds one new input the same way AddInputAndConnect does.
//
// This is a discovery mechanism: how many inputs result is determined by how
// many outputs match at build time. Zero matches is not an error; the caller
// must handle the resulting absence of values. The created inputs follow
// source order, then output declaration order within each source.
func (c *DynamicComponentBase) AddInputsAndConnect(
	sources []Component,
	outputNameSubstring string,
	loadType LoadType,
	unit Unit,
	tags TagSet,
	weight int,
) []*Input {
	var added []*Input

	for _, src := range sources {
		for _, out := range src.Outputs() {
			if !strings.Contains(out.DisplayName, outputNameSubstring) {
				continue
			}

			in := c.addConnectedInput(
				src.Name(), out, loadType, unit, tags, weight)
			added = append(added, in)
		}
	}

	return added
}

func (c *DynamicComponentBase) addConnectedInput(
	srcName string,
	out *Output,
	loadType LoadType,
	unit Unit,
	tags TagSet,
	weight int,
) *Input {
	label := fmt.Sprintf("Input%d", len(c.inputs))

	in := c.DeclareInput(label, loadType, unit, true)
	c.ConnectInput(in, srcName, out.FieldName)

	c.dynamicInputs = append(c.dynamicInputs, DynamicConnectionInput{
		Input:                in,
		SrcComponentName:     srcName,
		SrcOutputDisplayName: out.DisplayName,
		LoadType:             loadType,
		Unit:                 unit,
		Tags:                 tags,
		Weight:               weight,
	})

	return in
}

// AddOutput creates one new output, auto-named positionally, and records it
// in the dynamic-output registry. The display name is the given base name
// followed by the positional label.
func (c *DynamicComponentBase) AddOutput(
	baseName string,
	loadType LoadType,
	unit Unit,
	tags TagSet,
	weight int,
	description string,
) *Output {
	label := fmt.Sprintf("Output%d", len(c.outputs)+1)

	out := c.declareOutput(label, baseName+label, loadType, unit, description)

	c.dynamicOutputs = append(c.dynamicOutputs, DynamicConnectionOutput{
		Output:   out,
		LoadType: loadType,
		Unit:     unit,
		Tags:     tags,
		Weight:   weight,
	})

	return out
}

// GetDynamicInput returns the value of the first dynamic input, in
// declaration order, whose tag set is a superset of tags and whose weight
// equals weight. The second return value is false if no entry matches;
// callers must treat that as "source absent", not as zero.
func (c *DynamicComponentBase) GetDynamicInput(
	values *SingleTimeStepValues,
	tags TagSet,
	weight int,
) (float64, bool) {
	for _, entry := range c.dynamicInputs {
		if entry.Tags.IsSupersetOf(tags) && entry.Weight == weight {
			return values.GetInputValue(entry.Input), true
		}
	}

	return 0, false
}

// GetDynamicInputs returns the values of all dynamic inputs whose tag sets
// are supersets of tags, ignoring weights, in declaration order. The result
// is empty if nothing matches.
func (c *DynamicComponentBase) GetDynamicInputs(
	values *SingleTimeStepValues,
	tags TagSet,
) []float64 {
	var result []float64

	for _, entry := range c.dynamicInputs {
		if entry.Tags.IsSupersetOf(tags) {
			result = append(result, values.GetInputValue(entry.Input))
		}
	}

	return result
}

// SetDynamicOutput writes value into every dynamic output whose tag set is a
// superset of tags and whose weight equals weight.
//
// Unlike GetDynamicInput, this writes all matches, not only the first. The
// asymmetry is kept on purpose: several same-tagged outputs can legally
// mirror one value, but the configuration is easy to misuse.
func (c *DynamicComponentBase) SetDynamicOutput(
	values *SingleTimeStepValues,
	tags TagSet,
	weight int,
	value float64,
) {
	for _, entry := range c.dynamicOutputs {
		if entry.Tags.IsSupersetOf(tags) && entry.Weight == weight {
			values.SetOutputValue(entry.Output, value)
		}
	}
}

func findOutputByDisplayName(c Component, displayName string) *Output {
	for _, out := range c.Outputs() {
		if out.DisplayName == displayName {
			return out
		}
	}

	return nil
}
