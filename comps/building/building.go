// Package building provides a light thermal building model. It turns the
// outside temperature into a space heating demand through a constant heat
// transfer coefficient and derives the heating flow temperature from a
// heating curve.
package building

import (
	"github.com/enersim/enersim/sim"
)

// Input field names of the building.
const (
	TemperatureOutside      = "TemperatureOutside"
	DailyAverageTemperature = "DailyAverageTemperature"
)

// Output field names of the building.
const (
	ThermalPowerDemand     = "ThermalPowerDemand"
	HeatingFlowTemperature = "HeatingFlowTemperature"
)

// A Comp is a single-zone building.
type Comp struct {
	*sim.ComponentBase

	setpointCelsius      float64
	heatTransferWattPerK float64
	flowTemperatureAt20  float64
	heatingCurveSlope    float64

	outsideIn  *sim.Input
	dailyAvgIn *sim.Input

	demandOut *sim.Output
	flowOut   *sim.Output
}

// Builder builds a building.
type Builder struct {
	setpointCelsius      float64
	heatTransferWattPerK float64
	flowTemperatureAt20  float64
	heatingCurveSlope    float64
}

// MakeBuilder returns a new Builder for a small, reasonably insulated
// single family house.
func MakeBuilder() Builder {
	return Builder{
		setpointCelsius:      20,
		heatTransferWattPerK: 180,
		flowTemperatureAt20:  28,
		heatingCurveSlope:    0.8,
	}
}

// WithSetpoint sets the room temperature setpoint in °C.
func (b Builder) WithSetpoint(celsius float64) Builder {
	b.setpointCelsius = celsius
	return b
}

// WithHeatTransfer sets the total heat transfer coefficient in W/K.
func (b Builder) WithHeatTransfer(wattPerKelvin float64) Builder {
	b.heatTransferWattPerK = wattPerKelvin
	return b
}

// WithHeatingCurve sets the flow temperature at 20 °C daily average and
// the slope in K of flow per K of daily average below the setpoint.
func (b Builder) WithHeatingCurve(flowAt20, slope float64) Builder {
	b.flowTemperatureAt20 = flowAt20
	b.heatingCurveSlope = slope
	return b
}

// Build builds a building.
func (b Builder) Build(name string) *Comp {
	if b.heatTransferWattPerK <= 0 {
		panic("building heat transfer coefficient must be positive")
	}

	c := &Comp{
		ComponentBase:        sim.NewComponentBase(name),
		setpointCelsius:      b.setpointCelsius,
		heatTransferWattPerK: b.heatTransferWattPerK,
		flowTemperatureAt20:  b.flowTemperatureAt20,
		heatingCurveSlope:    b.heatingCurveSlope,
	}

	c.outsideIn = c.DeclareInput(TemperatureOutside,
		sim.LoadTypeTemperature, sim.UnitCelsius, true)
	c.dailyAvgIn = c.DeclareInput(DailyAverageTemperature,
		sim.LoadTypeTemperature, sim.UnitCelsius, true)

	c.demandOut = c.DeclareOutput(ThermalPowerDemand,
		sim.LoadTypeHeating, sim.UnitWatt,
		"space heating demand of the building")
	c.flowOut = c.DeclareOutput(HeatingFlowTemperature,
		sim.LoadTypeTemperature, sim.UnitCelsius,
		"required heating flow temperature from the heating curve")

	return c
}

// DefaultConnections returns the default wiring against the given weather
// component name.
func (c *Comp) DefaultConnections(weatherName string) []sim.Connection {
	return []sim.Connection{
		{InputField: TemperatureOutside,
			SrcComponent: weatherName, SrcField: "TemperatureOutside"},
		{InputField: DailyAverageTemperature,
			SrcComponent: weatherName,
			SrcField:     "DailyAverageOutsideTemperatures"},
	}
}

// PrepareSimulation implements sim.Component.
func (c *Comp) PrepareSimulation() {}

// Simulate writes the demand and the heating curve flow temperature.
func (c *Comp) Simulate(
	_ int,
	values *sim.SingleTimeStepValues,
	_ bool,
) error {
	outside := values.GetInputValue(c.outsideIn)
	dailyAvg := values.GetInputValue(c.dailyAvgIn)

	demand := c.heatTransferWattPerK * (c.setpointCelsius - outside)
	if demand < 0 {
		demand = 0
	}

	flow := c.flowTemperatureAt20 +
		c.heatingCurveSlope*(20-dailyAvg)
	if flow < c.setpointCelsius {
		flow = c.setpointCelsius
	}

	values.SetOutputValue(c.demandOut, demand)
	values.SetOutputValue(c.flowOut, flow)

	return nil
}

// SaveState implements sim.Component. The model carries no state.
func (c *Comp) SaveState() {}

// RestoreState implements sim.Component. The model carries no state.
func (c *Comp) RestoreState() {}

// DoubleCheck implements sim.Component.
func (c *Comp) DoubleCheck(int, *sim.SingleTimeStepValues) error {
	return nil
}
