// Package pvsystem provides a photovoltaic system that converts global
// horizontal irradiance into electric power.
package pvsystem

import (
	"github.com/enersim/enersim/sim"
)

// Input field name of the PV system.
const Irradiance = "Irradiance"

// Output field name of the PV system.
const ElectricityOutput = "ElectricityOutput"

// referenceIrradiance is the STC irradiance the peak power refers to.
const referenceIrradiance = 1000.0 // W/m2

// A Comp is a PV system.
type Comp struct {
	*sim.ComponentBase

	peakPowerWatt    float64
	performanceRatio float64

	irradianceIn *sim.Input

	electricityOut *sim.Output
}

// Builder builds a PV system.
type Builder struct {
	peakPowerWatt    float64
	performanceRatio float64
}

// MakeBuilder returns a new Builder for a 5 kWp rooftop system.
func MakeBuilder() Builder {
	return Builder{
		peakPowerWatt:    5000,
		performanceRatio: 0.85,
	}
}

// WithPeakPower sets the installed peak power in W.
func (b Builder) WithPeakPower(watt float64) Builder {
	b.peakPowerWatt = watt
	return b
}

// WithPerformanceRatio sets the system performance ratio.
func (b Builder) WithPerformanceRatio(ratio float64) Builder {
	b.performanceRatio = ratio
	return b
}

// Build builds a PV system.
func (b Builder) Build(name string) *Comp {
	if b.peakPowerWatt <= 0 {
		panic("PV peak power must be positive")
	}

	if b.performanceRatio <= 0 || b.performanceRatio > 1 {
		panic("PV performance ratio must be in (0, 1]")
	}

	c := &Comp{
		ComponentBase:    sim.NewComponentBase(name),
		peakPowerWatt:    b.peakPowerWatt,
		performanceRatio: b.performanceRatio,
	}

	c.irradianceIn = c.DeclareInput(Irradiance,
		sim.LoadTypeIrradiance, sim.UnitWattPerSquareMeter, true)

	c.electricityOut = c.DeclareOutput(ElectricityOutput,
		sim.LoadTypeElectricity, sim.UnitWatt, "PV electricity production")
	c.electricityOut.Tags = sim.NewTagSet(
		sim.TagPVSystem, sim.TagElectricityProduction)

	return c
}

// DefaultConnections returns the default wiring against the given weather
// component name.
func (c *Comp) DefaultConnections(weatherName string) []sim.Connection {
	return []sim.Connection{
		{InputField: Irradiance,
			SrcComponent: weatherName,
			SrcField:     "GlobalHorizontalIrradiance"},
	}
}

// PrepareSimulation implements sim.Component.
func (c *Comp) PrepareSimulation() {}

// Simulate converts irradiance to electric power.
func (c *Comp) Simulate(
	_ int,
	values *sim.SingleTimeStepValues,
	_ bool,
) error {
	irradiance := values.GetInputValue(c.irradianceIn)
	if irradiance < 0 {
		irradiance = 0
	}

	power := c.peakPowerWatt * c.performanceRatio *
		irradiance / referenceIrradiance

	values.SetOutputValue(c.electricityOut, power)

	return nil
}

// SaveState implements sim.Component. PV is stateless.
func (c *Comp) SaveState() {}

// RestoreState implements sim.Component. PV is stateless.
func (c *Comp) RestoreState() {}

// DoubleCheck implements sim.Component.
func (c *Comp) DoubleCheck(int, *sim.SingleTimeStepValues) error {
	return nil
}
