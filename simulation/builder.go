package simulation

import (
	"github.com/rs/xid"

	"github.com/enersim/enersim/datarecording"
	"github.com/enersim/enersim/monitoring"
	"github.com/enersim/enersim/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	params         sim.SimulationParameters
	maxIterations  int
	monitorOn      bool
	monitorPort    int
	outputFileName string
	dataRecorder   datarecording.DataRecorder
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithParameters sets the time discretization of the run.
func (b Builder) WithParameters(p sim.SimulationParameters) Builder {
	b.params = p
	return b
}

// WithMaxIterations sets the iteration cap for cyclic component groups.
func (b Builder) WithMaxIterations(n int) Builder {
	b.maxIterations = n
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithDataRecorder sets a pre-built recorder backend, overriding the default
// SQLite file.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.dataRecorder = r
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if b.params.TimestepCount <= 0 {
		panic("simulation parameters must cover at least one timestep")
	}

	if b.params.SecondsPerTimestep <= 0 {
		panic("timestep resolution must be positive")
	}

	if b.dataRecorder != nil && b.outputFileName != "" {
		panic("output file name cannot be set with a pre-built recorder")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		params:        b.params,
		maxIterations: b.maxIterations,
		graph:         sim.NewGraph(),
	}

	s.id = xid.New().String()

	s.dataRecorder = b.dataRecorder
	if s.dataRecorder == nil {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "enersim_run_" + s.id
		}
		s.dataRecorder = datarecording.New(outputPath)
	}

	s.dataRecorder.CreateTable(outputTableName, OutputRow{})
	s.dataRecorder.CreateTable(runInfoTableName, RunInfoRow{})

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
	}

	return s
}
