package sim

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultMaxIterations caps the number of re-simulation passes of a cyclic
// component group within one timestep before convergence is forced.
const DefaultMaxIterations = 10

// DefaultConvergenceTolerance is the largest per-slot change between two
// passes that still counts as converged.
const DefaultConvergenceTolerance = 1e-6

// A ConvergenceChecker decides whether a re-simulation pass has stabilized,
// given the value vector before the pass and the vector after it.
type ConvergenceChecker func(previous []float64, current *SingleTimeStepValues) bool

// ToleranceChecker returns a ConvergenceChecker that accepts a pass when no
// slot changed by more than tolerance.
func ToleranceChecker(tolerance float64) ConvergenceChecker {
	return func(previous []float64, current *SingleTimeStepValues) bool {
		return current.EqualWithin(previous, tolerance)
	}
}

// A TimestepEngine drives the per-timestep simulate/doublecheck/save-state
// protocol across a frozen component graph.
//
// Within a timestep, acyclic components are simulated once in dependency
// order. Cyclic groups are re-simulated in a bounded retry loop, restoring
// the member states between passes, until the value vector stabilizes or the
// iteration cap is hit; in the latter case one final pass runs with
// forceConvergence set so that every component produces definitive output.
// Once the timestep is complete, every component's state is saved.
type TimestepEngine struct {
	HookableBase

	graph  *Graph
	params SimulationParameters

	maxIterations int
	checker       ConvergenceChecker

	prepared    bool
	slotOutputs []*Output

	currentTimestep atomic.Int64

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex
}

// NewTimestepEngine creates an engine for the given frozen graph.
func NewTimestepEngine(graph *Graph, params SimulationParameters) *TimestepEngine {
	graph.mustBeFrozen()

	e := &TimestepEngine{
		graph:         graph,
		params:        params,
		maxIterations: DefaultMaxIterations,
		checker:       ToleranceChecker(DefaultConvergenceTolerance),
	}

	for _, c := range graph.Components() {
		e.slotOutputs = append(e.slotOutputs, c.Outputs()...)
	}

	return e
}

// SetMaxIterations overrides the iteration cap for cyclic groups.
func (e *TimestepEngine) SetMaxIterations(n int) {
	if n < 1 {
		panic("iteration cap must be at least 1")
	}

	e.maxIterations = n
}

// SetConvergenceChecker overrides the convergence criterion.
func (e *TimestepEngine) SetConvergenceChecker(c ConvergenceChecker) {
	e.checker = c
}

// Parameters returns the time discretization the engine runs with.
func (e *TimestepEngine) Parameters() SimulationParameters {
	return e.params
}

// Prepare calls PrepareSimulation on every component and takes the initial
// state snapshots. RestoreState is therefore legal from the first pass on.
func (e *TimestepEngine) Prepare() {
	if e.prepared {
		return
	}

	for _, c := range e.graph.Components() {
		c.PrepareSimulation()
	}

	for _, c := range e.graph.Components() {
		c.SaveState()
	}

	e.prepared = true
}

// Run simulates all timesteps of the configured parameters. The first error
// from any component aborts the run.
func (e *TimestepEngine) Run() error {
	e.Prepare()

	for t := 0; t < e.params.TimestepCount; t++ {
		if _, err := e.RunTimestep(t); err != nil {
			return err
		}
	}

	return nil
}

// CurrentTimestep returns the timestep the engine is at.
func (e *TimestepEngine) CurrentTimestep() int {
	return int(e.currentTimestep.Load())
}

// Pause blocks the engine at the next timestep boundary.
func (e *TimestepEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue lets a paused engine proceed.
func (e *TimestepEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// RunTimestep simulates one timestep and returns the converged value vector.
func (e *TimestepEngine) RunTimestep(timestep int) (*SingleTimeStepValues, error) {
	e.Prepare()

	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	e.currentTimestep.Store(int64(timestep))

	values := NewSingleTimeStepValues(e.graph.SlotCount())

	e.InvokeHook(HookCtx{
		Domain: e, Pos: HookPosBeforeTimestep, Item: values, Detail: timestep,
	})

	for _, group := range e.graph.ExecutionOrder() {
		var err error
		if group.Cyclic {
			err = e.iterateGroup(timestep, values, group)
		} else {
			err = e.runPass(timestep, values, group.Components, false)
		}

		if err != nil {
			return nil, err
		}
	}

	for _, c := range e.graph.Components() {
		if err := c.DoubleCheck(timestep, values); err != nil {
			return nil, fmt.Errorf("component %s: %w", c.Name(), err)
		}
	}

	for _, c := range e.graph.Components() {
		c.SaveState()
	}

	e.InvokeHook(HookCtx{
		Domain: e, Pos: HookPosAfterTimestep, Item: values, Detail: timestep,
	})

	return values, nil
}

// iterateGroup resolves a cyclic coupling by bounded re-simulation.
func (e *TimestepEngine) iterateGroup(
	timestep int,
	values *SingleTimeStepValues,
	group Group,
) error {
	for iteration := 0; ; iteration++ {
		previous := values.Snapshot()

		err := e.runPass(timestep, values, group.Components, false)
		if err != nil {
			return err
		}

		if e.checker(previous, values) {
			return nil
		}

		if iteration+1 >= e.maxIterations {
			break
		}

		for _, c := range group.Components {
			c.RestoreState()
		}
	}

	// Not stabilized within the cap. Roll the group back once more and force
	// the final mandatory pass.
	e.InvokeHook(HookCtx{
		Domain: e, Pos: HookPosForcedConvergence, Item: values, Detail: timestep,
	})

	for _, c := range group.Components {
		c.RestoreState()
	}

	return e.runPass(timestep, values, group.Components, true)
}

func (e *TimestepEngine) runPass(
	timestep int,
	values *SingleTimeStepValues,
	components []Component,
	forceConvergence bool,
) error {
	e.InvokeHook(HookCtx{
		Domain: e, Pos: HookPosBeforePass, Item: values, Detail: timestep,
	})

	for _, c := range components {
		values.ClearWriteMarks(c.Outputs())
	}

	for _, c := range components {
		if err := c.Simulate(timestep, values, forceConvergence); err != nil {
			return fmt.Errorf("component %s: %w", c.Name(), err)
		}
	}

	return e.checkSingleWriter(values)
}

// checkSingleWriter enforces that no output slot is written more than once
// within one pass.
func (e *TimestepEngine) checkSingleWriter(values *SingleTimeStepValues) error {
	for _, out := range e.slotOutputs {
		if values.WriteCount(out) > 1 {
			return fmt.Errorf(
				"output %s written %d times in a single pass",
				out.FullName(), values.WriteCount(out))
		}
	}

	return nil
}
