// Package weather provides a deterministic synthetic weather source. It
// generates outside temperature and global horizontal irradiance from
// sinusoids, which is sufficient to drive thermal and PV components in
// repeatable test setups.
package weather

import (
	"math"

	"github.com/enersim/enersim/sim"
)

// Output field names of the weather component.
const (
	TemperatureOutside              = "TemperatureOutside"
	DailyAverageOutsideTemperatures = "DailyAverageOutsideTemperatures"
	GlobalHorizontalIrradiance      = "GlobalHorizontalIrradiance"
)

// A Comp produces synthetic weather series.
type Comp struct {
	*sim.ComponentBase

	params sim.SimulationParameters

	meanTemperature float64
	dailyAmplitude  float64
	yearlyAmplitude float64
	peakIrradiance  float64

	temperatureOut *sim.Output
	dailyAvgOut    *sim.Output
	irradianceOut  *sim.Output
}

// Builder builds a weather component.
type Builder struct {
	params          sim.SimulationParameters
	meanTemperature float64
	dailyAmplitude  float64
	yearlyAmplitude float64
	peakIrradiance  float64
}

// MakeBuilder returns a new Builder with moderate-climate defaults.
func MakeBuilder() Builder {
	return Builder{
		meanTemperature: 9.0,
		dailyAmplitude:  5.0,
		yearlyAmplitude: 10.0,
		peakIrradiance:  900.0,
	}
}

// WithParameters sets the time discretization of the run.
func (b Builder) WithParameters(p sim.SimulationParameters) Builder {
	b.params = p
	return b
}

// WithMeanTemperature sets the yearly mean outside temperature in °C.
func (b Builder) WithMeanTemperature(t float64) Builder {
	b.meanTemperature = t
	return b
}

// WithDailyAmplitude sets the day/night temperature swing in K.
func (b Builder) WithDailyAmplitude(a float64) Builder {
	b.dailyAmplitude = a
	return b
}

// WithYearlyAmplitude sets the summer/winter temperature swing in K.
func (b Builder) WithYearlyAmplitude(a float64) Builder {
	b.yearlyAmplitude = a
	return b
}

// WithPeakIrradiance sets the clear-sky noon irradiance in W/m2.
func (b Builder) WithPeakIrradiance(w float64) Builder {
	b.peakIrradiance = w
	return b
}

// Build builds a weather component.
func (b Builder) Build(name string) *Comp {
	if b.params.SecondsPerTimestep <= 0 {
		panic("weather component requires simulation parameters")
	}

	c := &Comp{
		ComponentBase:   sim.NewComponentBase(name),
		params:          b.params,
		meanTemperature: b.meanTemperature,
		dailyAmplitude:  b.dailyAmplitude,
		yearlyAmplitude: b.yearlyAmplitude,
		peakIrradiance:  b.peakIrradiance,
	}

	c.temperatureOut = c.DeclareOutput(TemperatureOutside,
		sim.LoadTypeTemperature, sim.UnitCelsius,
		"outside air temperature")
	c.dailyAvgOut = c.DeclareOutput(DailyAverageOutsideTemperatures,
		sim.LoadTypeTemperature, sim.UnitCelsius,
		"average outside temperature of the current day")
	c.irradianceOut = c.DeclareOutput(GlobalHorizontalIrradiance,
		sim.LoadTypeIrradiance, sim.UnitWattPerSquareMeter,
		"global horizontal irradiance")

	return c
}

// PrepareSimulation implements sim.Component.
func (c *Comp) PrepareSimulation() {}

// Simulate writes the synthetic weather values of the timestep.
func (c *Comp) Simulate(
	timestep int,
	values *sim.SingleTimeStepValues,
	_ bool,
) error {
	dayFraction := c.dayFraction(timestep)
	yearFraction := c.yearFraction(timestep)

	dailyAvg := c.meanTemperature -
		c.yearlyAmplitude*math.Cos(2*math.Pi*yearFraction)
	temperature := dailyAvg -
		c.dailyAmplitude*math.Cos(2*math.Pi*dayFraction)

	// Daylight follows a half sine between 06:00 and 18:00.
	irradiance := 0.0
	if dayFraction > 0.25 && dayFraction < 0.75 {
		irradiance = c.peakIrradiance *
			math.Sin(2*math.Pi*(dayFraction-0.25))
	}

	values.SetOutputValue(c.temperatureOut, temperature)
	values.SetOutputValue(c.dailyAvgOut, dailyAvg)
	values.SetOutputValue(c.irradianceOut, irradiance)

	return nil
}

// SaveState implements sim.Component. Weather is stateless.
func (c *Comp) SaveState() {}

// RestoreState implements sim.Component. Weather is stateless.
func (c *Comp) RestoreState() {}

// DoubleCheck implements sim.Component.
func (c *Comp) DoubleCheck(int, *sim.SingleTimeStepValues) error {
	return nil
}

func (c *Comp) dayFraction(timestep int) float64 {
	secondsIntoDay := (timestep * c.params.SecondsPerTimestep) % 86400
	return float64(secondsIntoDay) / 86400
}

func (c *Comp) yearFraction(timestep int) float64 {
	secondsIntoYear := (timestep * c.params.SecondsPerTimestep) % (86400 * 365)
	return float64(secondsIntoYear) / (86400 * 365)
}
