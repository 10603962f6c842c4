package sim

import "time"

// SimulationParameters describes the time discretization of one run.
type SimulationParameters struct {
	StartDate          time.Time
	SecondsPerTimestep int
	TimestepCount      int
}

// NewSimulationParametersOneDay returns parameters covering one day at the
// given resolution.
func NewSimulationParametersOneDay(
	start time.Time,
	secondsPerTimestep int,
) SimulationParameters {
	return SimulationParameters{
		StartDate:          start,
		SecondsPerTimestep: secondsPerTimestep,
		TimestepCount:      24 * 3600 / secondsPerTimestep,
	}
}

// Duration returns the simulated span of the run.
func (p SimulationParameters) Duration() time.Duration {
	return time.Duration(p.SecondsPerTimestep*p.TimestepCount) * time.Second
}

// TimeAt returns the simulated wall-clock time of the given timestep.
func (p SimulationParameters) TimeAt(timestep int) time.Time {
	offset := time.Duration(timestep*p.SecondsPerTimestep) * time.Second
	return p.StartDate.Add(offset)
}
