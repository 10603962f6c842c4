// Package storage provides a simple hot water storage tank. The tank
// couples the heat generator and the heat consumers: its water temperature
// integrates the delivered thermal power minus the drawn heating power.
// Because the heat pump reads the tank temperature while the tank reads the
// heat pump power, the two form a cyclic coupling that the engine resolves
// iteratively.
package storage

import (
	"fmt"

	"github.com/enersim/enersim/sim"
)

// Input field names of the storage tank.
const (
	ThermalPowerDelivered = "ThermalPowerDelivered"
	ThermalPowerConsumed  = "ThermalPowerConsumed"
)

// Output field names of the storage tank.
const (
	WaterTemperatureToHeatGenerator = "WaterTemperatureToHeatGenerator"
	WaterMeanTemperature            = "WaterMeanTemperature"
)

// specific heat capacity of water in J/(kg K)
const waterHeatCapacity = 4184.0

// A Comp is a fully mixed hot water storage tank.
type Comp struct {
	*sim.ComponentBase

	params sim.SimulationParameters

	waterMassKg       float64
	lossWattPerKelvin float64
	ambientCelsius    float64

	temperature         float64
	previousTemperature float64

	powerDeliveredIn *sim.Input
	powerConsumedIn  *sim.Input

	tToGeneratorOut *sim.Output
	tMeanOut        *sim.Output
}

// Builder builds a hot water storage tank.
type Builder struct {
	params sim.SimulationParameters

	volumeLiter       float64
	startTemperature  float64
	lossWattPerKelvin float64
	ambientCelsius    float64
}

// MakeBuilder returns a new Builder for a 500 liter tank at 21 °C.
func MakeBuilder() Builder {
	return Builder{
		volumeLiter:       500,
		startTemperature:  21,
		lossWattPerKelvin: 2,
		ambientCelsius:    15,
	}
}

// WithParameters sets the time discretization of the run.
func (b Builder) WithParameters(p sim.SimulationParameters) Builder {
	b.params = p
	return b
}

// WithVolume sets the tank volume in liters.
func (b Builder) WithVolume(liter float64) Builder {
	b.volumeLiter = liter
	return b
}

// WithStartTemperature sets the initial water temperature in °C.
func (b Builder) WithStartTemperature(celsius float64) Builder {
	b.startTemperature = celsius
	return b
}

// WithHeatLoss sets the standby heat loss coefficient in W/K.
func (b Builder) WithHeatLoss(wattPerKelvin float64) Builder {
	b.lossWattPerKelvin = wattPerKelvin
	return b
}

// Build builds a hot water storage tank.
func (b Builder) Build(name string) *Comp {
	if b.params.SecondsPerTimestep <= 0 {
		panic("storage tank requires simulation parameters")
	}

	if b.volumeLiter <= 0 {
		panic("storage tank volume must be positive")
	}

	c := &Comp{
		ComponentBase:     sim.NewComponentBase(name),
		params:            b.params,
		waterMassKg:       b.volumeLiter, // 1 kg per liter
		lossWattPerKelvin: b.lossWattPerKelvin,
		ambientCelsius:    b.ambientCelsius,
		temperature:       b.startTemperature,
	}

	c.powerDeliveredIn = c.DeclareInput(ThermalPowerDelivered,
		sim.LoadTypeHeating, sim.UnitWatt, true)
	c.powerConsumedIn = c.DeclareInput(ThermalPowerConsumed,
		sim.LoadTypeHeating, sim.UnitWatt, false)

	c.tToGeneratorOut = c.DeclareOutput(WaterTemperatureToHeatGenerator,
		sim.LoadTypeTemperature, sim.UnitCelsius,
		"water temperature seen by the heat generator")
	c.tMeanOut = c.DeclareOutput(WaterMeanTemperature,
		sim.LoadTypeTemperature, sim.UnitCelsius,
		"mean water temperature of the tank")

	return c
}

// PrepareSimulation implements sim.Component.
func (c *Comp) PrepareSimulation() {
	c.previousTemperature = c.temperature
}

// SaveState implements sim.Component.
func (c *Comp) SaveState() {
	c.previousTemperature = c.temperature
}

// RestoreState implements sim.Component.
func (c *Comp) RestoreState() {
	c.temperature = c.previousTemperature
}

// Simulate integrates the tank temperature over one timestep.
func (c *Comp) Simulate(
	_ int,
	values *sim.SingleTimeStepValues,
	_ bool,
) error {
	delivered := values.GetInputValue(c.powerDeliveredIn)

	consumed := 0.0
	if c.powerConsumedIn.IsConnected() {
		consumed = values.GetInputValue(c.powerConsumedIn)
	}

	loss := c.lossWattPerKelvin * (c.temperature - c.ambientCelsius)

	netPower := delivered - consumed - loss
	deltaKelvin := netPower * float64(c.params.SecondsPerTimestep) /
		(c.waterMassKg * waterHeatCapacity)

	c.temperature += deltaKelvin

	values.SetOutputValue(c.tToGeneratorOut, c.temperature)
	values.SetOutputValue(c.tMeanOut, c.temperature)

	return nil
}

// DoubleCheck verifies that the tank temperature stays physically sensible.
func (c *Comp) DoubleCheck(
	timestep int,
	_ *sim.SingleTimeStepValues,
) error {
	if c.temperature < -273.15 || c.temperature > 100 {
		return fmt.Errorf(
			"tank temperature %.1f °C out of range at timestep %d",
			c.temperature, timestep)
	}

	return nil
}
