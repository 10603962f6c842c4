// Package ems provides an energy management system that balances the
// household electricity flows. Its ports are not fixed: production and
// consumption inputs are discovered at build time from the connected
// components, and one dispatch target output is created per battery. The
// EMS therefore addresses its ports by tags and weights instead of by
// field name.
package ems

import (
	"github.com/enersim/enersim/sim"
)

// Output field names of the static EMS outputs.
const (
	TotalElectricityProduction  = "TotalElectricityProduction"
	TotalElectricityConsumption = "TotalElectricityConsumption"
	ElectricityToOrFromGrid     = "ElectricityToOrFromGrid"
)

// A Comp is an energy management system.
type Comp struct {
	*sim.DynamicComponentBase

	batteryCount   int
	batteryTargets []*sim.Output

	productionOut  *sim.Output
	consumptionOut *sim.Output
	gridOut        *sim.Output
}

// Builder builds an EMS. The connected components must have been built
// before the EMS, since port discovery scans their outputs.
type Builder struct {
	productionSources  []sim.Component
	consumptionSources []sim.Component

	batteries []batteryRef
}

type batteryRef struct {
	comp       sim.Component
	realOutput string
}

// MakeBuilder returns a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithProductionSources registers components whose electricity production
// outputs the EMS discovers by display name.
func (b Builder) WithProductionSources(sources ...sim.Component) Builder {
	b.productionSources = append(b.productionSources, sources...)
	return b
}

// WithConsumptionSources registers components whose electricity consumption
// outputs the EMS discovers by display name.
func (b Builder) WithConsumptionSources(sources ...sim.Component) Builder {
	b.consumptionSources = append(b.consumptionSources, sources...)
	return b
}

// WithBattery registers a battery. The EMS reads its realized AC power from
// the named output and creates one dispatch target output for it. Batteries
// are dispatched in registration order.
func (b Builder) WithBattery(comp sim.Component, realOutput string) Builder {
	b.batteries = append(b.batteries, batteryRef{comp, realOutput})
	return b
}

// Build builds an EMS and discovers its dynamic ports.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		DynamicComponentBase: sim.NewDynamicComponentBase(name),
		batteryCount:         len(b.batteries),
	}

	c.AddInputsAndConnect(b.productionSources, "ElectricityOutput",
		sim.LoadTypeElectricity, sim.UnitWatt,
		sim.NewTagSet(sim.TagElectricityProduction), 999)

	c.AddInputsAndConnect(b.consumptionSources, "ElectricityOutput",
		sim.LoadTypeElectricity, sim.UnitWatt,
		sim.NewTagSet(sim.TagElectricityConsumption), 999)

	for i, ref := range b.batteries {
		weight := i + 1

		c.AddInputAndConnect(ref.comp, ref.realOutput,
			sim.LoadTypeElectricity, sim.UnitWatt,
			sim.NewTagSet(sim.TagBattery, sim.TagElectricityReal), weight)

		target := c.AddOutput("ElectricityTarget",
			sim.LoadTypeElectricity, sim.UnitWatt,
			sim.NewTagSet(sim.TagBattery, sim.TagElectricityTarget), weight,
			"battery charging target, positive charges")
		c.batteryTargets = append(c.batteryTargets, target)
	}

	c.productionOut = c.DeclareOutput(TotalElectricityProduction,
		sim.LoadTypeElectricity, sim.UnitWatt,
		"total electricity production of the household")
	c.consumptionOut = c.DeclareOutput(TotalElectricityConsumption,
		sim.LoadTypeElectricity, sim.UnitWatt,
		"total electricity consumption of the household")
	c.gridOut = c.DeclareOutput(ElectricityToOrFromGrid,
		sim.LoadTypeElectricity, sim.UnitWatt,
		"grid exchange, positive feeds in")

	return c
}

// BatteryTarget returns the dispatch target output of the n-th registered
// battery, counting from zero.
func (c *Comp) BatteryTarget(n int) *sim.Output {
	return c.batteryTargets[n]
}

// PrepareSimulation implements sim.Component.
func (c *Comp) PrepareSimulation() {}

// Simulate balances production against consumption and dispatches the
// surplus to the batteries in weight order. What the batteries did not
// absorb goes to the grid.
func (c *Comp) Simulate(
	_ int,
	values *sim.SingleTimeStepValues,
	_ bool,
) error {
	production := sum(c.GetDynamicInputs(values,
		sim.NewTagSet(sim.TagElectricityProduction)))
	consumption := sum(c.GetDynamicInputs(values,
		sim.NewTagSet(sim.TagElectricityConsumption)))

	surplus := production - consumption

	for weight := 1; weight <= c.batteryCount; weight++ {
		c.SetDynamicOutput(values,
			sim.NewTagSet(sim.TagBattery, sim.TagElectricityTarget),
			weight, surplus)

		realized, ok := c.GetDynamicInput(values,
			sim.NewTagSet(sim.TagBattery, sim.TagElectricityReal), weight)
		if ok {
			surplus -= realized
		}
	}

	values.SetOutputValue(c.productionOut, production)
	values.SetOutputValue(c.consumptionOut, consumption)
	values.SetOutputValue(c.gridOut, surplus)

	return nil
}

// SaveState implements sim.Component. The EMS carries no state.
func (c *Comp) SaveState() {}

// RestoreState implements sim.Component. The EMS carries no state.
func (c *Comp) RestoreState() {}

// DoubleCheck implements sim.Component.
func (c *Comp) DoubleCheck(int, *sim.SingleTimeStepValues) error {
	return nil
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}

	return total
}
