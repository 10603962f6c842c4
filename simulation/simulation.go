// Package simulation assembles a component graph, an engine, a results
// recorder, and an optional monitor into one runnable setup.
package simulation

import (
	"strconv"
	"time"

	"github.com/enersim/enersim/datarecording"
	"github.com/enersim/enersim/monitoring"
	"github.com/enersim/enersim/sim"
)

const (
	outputTableName  = "output_values"
	runInfoTableName = "run_info"
)

// OutputRow is one recorded output value of one component at one timestep.
type OutputRow struct {
	RunID     string
	Timestep  int
	Component string
	Field     string
	Value     float64
}

// RunInfoRow is one recorded metadata property of a run.
type RunInfoRow struct {
	RunID    string
	Property string
	Value    string
}

// A Simulation provides the service required to define and run a simulation.
type Simulation struct {
	id     string
	params sim.SimulationParameters

	maxIterations int

	graph  *sim.Graph
	engine *sim.TimestepEngine

	dataRecorder datarecording.DataRecorder

	monitor *monitoring.Monitor
}

// ID returns the unique identifier of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Parameters returns the time discretization of the run.
func (s *Simulation) Parameters() sim.SimulationParameters {
	return s.params
}

// AddComponent registers a component with the simulation. Registering two
// components with the same name is a configuration error.
func (s *Simulation) AddComponent(c sim.Component) {
	s.graph.AddComponent(c)

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
	}
}

// GetComponentByName returns the component with the given name.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	return s.graph.GetComponentByName(name)
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation, or nil when
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// Engine returns the engine of the simulation. It is only available after
// Run has started, as the engine requires a frozen graph.
func (s *Simulation) Engine() *sim.TimestepEngine {
	return s.engine
}

// Run freezes the graph and simulates all timesteps, recording every output
// value of every timestep.
func (s *Simulation) Run() error {
	if s.engine == nil {
		if err := s.prepareRun(); err != nil {
			return err
		}
	}

	err := s.engine.Run()

	s.dataRecorder.Flush()

	return err
}

func (s *Simulation) prepareRun() error {
	if err := s.graph.Freeze(); err != nil {
		return err
	}

	s.engine = sim.NewTimestepEngine(s.graph, s.params)
	if s.maxIterations > 0 {
		s.engine.SetMaxIterations(s.maxIterations)
	}

	s.engine.AcceptHook(&recordingHook{sim: s})

	s.recordRunInfo()

	if s.monitor != nil {
		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer()
	}

	return nil
}

func (s *Simulation) recordRunInfo() {
	props := []RunInfoRow{
		{s.id, "start_date", s.params.StartDate.Format(time.RFC3339)},
		{s.id, "seconds_per_timestep",
			strconv.Itoa(s.params.SecondsPerTimestep)},
		{s.id, "timestep_count", strconv.Itoa(s.params.TimestepCount)},
	}

	for _, p := range props {
		s.dataRecorder.InsertData(runInfoTableName, p)
	}
}

// Terminate terminates the simulation.
func (s *Simulation) Terminate() {
	s.dataRecorder.Close()
}

// recordingHook writes the converged value vector of each timestep into the
// data recorder.
type recordingHook struct {
	sim *Simulation
}

func (h *recordingHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterTimestep {
		return
	}

	values := ctx.Item.(*sim.SingleTimeStepValues)
	timestep := ctx.Detail.(int)

	for _, c := range h.sim.graph.Components() {
		for _, out := range c.Outputs() {
			h.sim.dataRecorder.InsertData(outputTableName, OutputRow{
				RunID:     h.sim.id,
				Timestep:  timestep,
				Component: c.Name(),
				Field:     out.FieldName,
				Value:     values.GetOutputValue(out),
			})
		}
	}
}
