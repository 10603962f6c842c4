// Package battery provides a simple stationary battery with a state of
// charge, symmetric power limits, and a round-trip efficiency applied on
// charging.
package battery

import (
	"github.com/enersim/enersim/sim"
)

// Input field name of the battery. Positive values charge, negative ones
// discharge.
const LoadingPowerInput = "LoadingPowerInput"

// Output field names of the battery.
const (
	AcBatteryPower = "AcBatteryPower"
	StateOfCharge  = "StateOfCharge"
)

// A Comp is a stationary battery.
type Comp struct {
	*sim.ComponentBase

	params sim.SimulationParameters

	capacityWattHour float64
	maxPowerWatt     float64
	efficiency       float64

	soc         float64
	previousSoc float64

	loadingIn *sim.Input

	acPowerOut *sim.Output
	socOut     *sim.Output
}

// Builder builds a battery.
type Builder struct {
	params sim.SimulationParameters

	capacityWattHour float64
	maxPowerWatt     float64
	efficiency       float64
	startSoc         float64
}

// MakeBuilder returns a new Builder for a 10 kWh home battery.
func MakeBuilder() Builder {
	return Builder{
		capacityWattHour: 10000,
		maxPowerWatt:     5000,
		efficiency:       0.95,
		startSoc:         0.5,
	}
}

// WithParameters sets the time discretization of the run.
func (b Builder) WithParameters(p sim.SimulationParameters) Builder {
	b.params = p
	return b
}

// WithCapacity sets the usable capacity in Wh.
func (b Builder) WithCapacity(wattHour float64) Builder {
	b.capacityWattHour = wattHour
	return b
}

// WithMaxPower sets the symmetric charge/discharge power limit in W.
func (b Builder) WithMaxPower(watt float64) Builder {
	b.maxPowerWatt = watt
	return b
}

// WithEfficiency sets the charging efficiency.
func (b Builder) WithEfficiency(eta float64) Builder {
	b.efficiency = eta
	return b
}

// WithStartSoc sets the initial state of charge in [0, 1].
func (b Builder) WithStartSoc(soc float64) Builder {
	b.startSoc = soc
	return b
}

// Build builds a battery.
func (b Builder) Build(name string) *Comp {
	if b.params.SecondsPerTimestep <= 0 {
		panic("battery requires simulation parameters")
	}

	if b.capacityWattHour <= 0 || b.maxPowerWatt <= 0 {
		panic("battery capacity and power limit must be positive")
	}

	if b.startSoc < 0 || b.startSoc > 1 {
		panic("battery start state of charge must be in [0, 1]")
	}

	c := &Comp{
		ComponentBase:    sim.NewComponentBase(name),
		params:           b.params,
		capacityWattHour: b.capacityWattHour,
		maxPowerWatt:     b.maxPowerWatt,
		efficiency:       b.efficiency,
		soc:              b.startSoc,
	}

	c.loadingIn = c.DeclareInput(LoadingPowerInput,
		sim.LoadTypeElectricity, sim.UnitWatt, true)

	c.acPowerOut = c.DeclareOutput(AcBatteryPower,
		sim.LoadTypeElectricity, sim.UnitWatt,
		"AC power at the battery terminals")
	c.acPowerOut.Tags = sim.NewTagSet(
		sim.TagBattery, sim.TagElectricityReal)
	c.socOut = c.DeclareOutput(StateOfCharge,
		sim.LoadTypeAny, sim.UnitPercent, "state of charge")

	return c
}

// PrepareSimulation implements sim.Component.
func (c *Comp) PrepareSimulation() {
	c.previousSoc = c.soc
}

// SaveState implements sim.Component.
func (c *Comp) SaveState() {
	c.previousSoc = c.soc
}

// RestoreState implements sim.Component.
func (c *Comp) RestoreState() {
	c.soc = c.previousSoc
}

// Simulate charges or discharges with the requested power, limited by the
// power rating and the available capacity. The realized AC power is
// published so that the energy management system can account for it.
func (c *Comp) Simulate(
	_ int,
	values *sim.SingleTimeStepValues,
	_ bool,
) error {
	requested := values.GetInputValue(c.loadingIn)

	power := requested
	if power > c.maxPowerWatt {
		power = c.maxPowerWatt
	}
	if power < -c.maxPowerWatt {
		power = -c.maxPowerWatt
	}

	hours := float64(c.params.SecondsPerTimestep) / 3600

	if power > 0 {
		// charging
		storable := (1 - c.soc) * c.capacityWattHour
		energy := power * hours * c.efficiency
		if energy > storable {
			energy = storable
			power = energy / (hours * c.efficiency)
		}

		c.soc += energy / c.capacityWattHour
	} else if power < 0 {
		// discharging
		available := c.soc * c.capacityWattHour
		energy := -power * hours
		if energy > available {
			energy = available
			power = -energy / hours
		}

		c.soc -= energy / c.capacityWattHour
	}

	values.SetOutputValue(c.acPowerOut, power)
	values.SetOutputValue(c.socOut, c.soc*100)

	return nil
}

// DoubleCheck implements sim.Component.
func (c *Comp) DoubleCheck(int, *sim.SingleTimeStepValues) error {
	return nil
}
