package sim

import (
	"fmt"
	"math"
)

// SingleTimeStepValues is the shared value vector of one timestep. Every
// output of the frozen graph owns one slot. Components write their output
// slots and read the slots their inputs are bound to during Simulate.
type SingleTimeStepValues struct {
	values []float64
	writes []int
}

// NewSingleTimeStepValues creates a value vector with the given number of
// slots, all initialized to zero.
func NewSingleTimeStepValues(slotCount int) *SingleTimeStepValues {
	return &SingleTimeStepValues{
		values: make([]float64, slotCount),
		writes: make([]int, slotCount),
	}
}

// Len returns the number of slots.
func (v *SingleTimeStepValues) Len() int {
	return len(v.values)
}

// GetInputValue reads the value of the output the input is bound to.
func (v *SingleTimeStepValues) GetInputValue(input *Input) float64 {
	if input.source == nil {
		panic(fmt.Sprintf(
			"input %s is unresolved: not connected or graph not frozen",
			input.FullName()))
	}

	return v.values[input.source.Slot()]
}

// SetOutputValue writes the value of the given output slot.
func (v *SingleTimeStepValues) SetOutputValue(output *Output, value float64) {
	v.values[output.Slot()] = value
	v.writes[output.Slot()]++
}

// GetOutputValue reads an output slot directly. Intended for recording and
// for post-convergence checks, not for component-to-component data flow.
func (v *SingleTimeStepValues) GetOutputValue(output *Output) float64 {
	return v.values[output.Slot()]
}

// Snapshot returns a copy of all slot values.
func (v *SingleTimeStepValues) Snapshot() []float64 {
	s := make([]float64, len(v.values))
	copy(s, v.values)

	return s
}

// ClearWriteMarks resets the write marks of the given outputs. The engine
// clears the marks of a cyclic group's own outputs before each re-simulation
// pass, so that legal rewrites during convergence iteration do not count as
// single-writer violations.
func (v *SingleTimeStepValues) ClearWriteMarks(outputs []*Output) {
	for _, out := range outputs {
		v.writes[out.Slot()] = 0
	}
}

// WriteCount returns how often the given output slot has been written since
// its write mark was last cleared.
func (v *SingleTimeStepValues) WriteCount(output *Output) int {
	return v.writes[output.Slot()]
}

// EqualWithin reports whether every slot differs from the corresponding
// entry of prev by no more than tolerance. It panics if the lengths differ.
func (v *SingleTimeStepValues) EqualWithin(prev []float64, tolerance float64) bool {
	if len(prev) != len(v.values) {
		panic("comparing value vectors of different lengths")
	}

	for i, val := range v.values {
		if math.Abs(val-prev[i]) > tolerance {
			return false
		}
	}

	return true
}
