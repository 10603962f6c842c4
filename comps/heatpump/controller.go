package heatpump

import (
	"fmt"

	"github.com/enersim/enersim/sim"
)

// Input field names of the controller.
const (
	WaterTemperature           = "WaterTemperature"
	HeatingFlowTemperature     = "HeatingFlowTemperature"
	DailyAverageTemperature    = "DailyAverageTemperature"
	StorageTemperatureModifier = "StorageTemperatureModifier"
)

// ControllerState is the output field name of the controller. The value is
// 1 for heating, -1 for cooling, and 0 for off.
const ControllerState = "State"

// Controller operating modes.
const (
	// ModeOnOff is a plain heating hysteresis.
	ModeOnOff = 1
	// ModeHeatingCoolingOff additionally allows active cooling. It requires
	// a floor heating distribution system.
	ModeHeatingCoolingOff = 2
)

type controllerMode string

const (
	controllerHeating controllerMode = "heating"
	controllerCooling controllerMode = "cooling"
	controllerOff     controllerMode = "off"
)

// A Controller decides the heat pump on/off signal from the storage water
// temperature with a hysteresis around the heating flow temperature.
type Controller struct {
	*sim.ComponentBase

	mode             int
	offsetCelsius    float64
	heatingThreshold *float64
	coolingThreshold *float64

	current  controllerMode
	previous controllerMode

	waterTemperatureIn *sim.Input
	flowTemperatureIn  *sim.Input
	dailyAverageIn     *sim.Input
	storageModifierIn  *sim.Input

	stateOut *sim.Output
}

// ControllerBuilder builds a heat pump controller.
type ControllerBuilder struct {
	mode             int
	offsetCelsius    float64
	heatingThreshold *float64
	coolingThreshold *float64
	floorHeating     bool
}

// MakeControllerBuilder returns a new ControllerBuilder in on/off mode.
func MakeControllerBuilder() ControllerBuilder {
	return ControllerBuilder{
		mode:          ModeOnOff,
		offsetCelsius: 0.5,
	}
}

// WithMode sets the operating mode.
func (b ControllerBuilder) WithMode(mode int) ControllerBuilder {
	b.mode = mode
	return b
}

// WithTemperatureOffset sets the hysteresis half width in K.
func (b ControllerBuilder) WithTemperatureOffset(offset float64) ControllerBuilder {
	b.offsetCelsius = offset
	return b
}

// WithHeatingThreshold disables heating on days whose average outside
// temperature exceeds the threshold.
func (b ControllerBuilder) WithHeatingThreshold(celsius float64) ControllerBuilder {
	b.heatingThreshold = &celsius
	return b
}

// WithCoolingThreshold disables cooling on days whose average outside
// temperature is below the threshold.
func (b ControllerBuilder) WithCoolingThreshold(celsius float64) ControllerBuilder {
	b.coolingThreshold = &celsius
	return b
}

// WithFloorHeating marks the heat distribution system as floor heating,
// which is the precondition for the cooling mode.
func (b ControllerBuilder) WithFloorHeating() ControllerBuilder {
	b.floorHeating = true
	return b
}

// Build builds a heat pump controller.
func (b ControllerBuilder) Build(name string) *Controller {
	if b.mode != ModeOnOff && b.mode != ModeHeatingCoolingOff {
		panic(fmt.Sprintf("unknown heat pump controller mode %d", b.mode))
	}

	if b.mode == ModeHeatingCoolingOff && !b.floorHeating {
		panic("cooling mode requires a floor heating distribution system")
	}

	c := &Controller{
		ComponentBase:    sim.NewComponentBase(name),
		mode:             b.mode,
		offsetCelsius:    b.offsetCelsius,
		heatingThreshold: b.heatingThreshold,
		coolingThreshold: b.coolingThreshold,
		current:          controllerOff,
		previous:         controllerOff,
	}

	c.waterTemperatureIn = c.DeclareInput(WaterTemperature,
		sim.LoadTypeTemperature, sim.UnitCelsius, true)
	c.flowTemperatureIn = c.DeclareInput(HeatingFlowTemperature,
		sim.LoadTypeTemperature, sim.UnitCelsius, true)
	c.dailyAverageIn = c.DeclareInput(DailyAverageTemperature,
		sim.LoadTypeTemperature, sim.UnitCelsius, true)
	c.storageModifierIn = c.DeclareInput(StorageTemperatureModifier,
		sim.LoadTypeTemperature, sim.UnitCelsius, false)

	c.stateOut = c.DeclareOutput(ControllerState,
		sim.LoadTypeAny, sim.UnitNone,
		"heat pump signal: 1 heating, -1 cooling, 0 off")

	return c
}

// PrepareSimulation implements sim.Component.
func (c *Controller) PrepareSimulation() {
	c.current = controllerOff
	c.previous = controllerOff
}

// SaveState implements sim.Component.
func (c *Controller) SaveState() {
	c.previous = c.current
}

// RestoreState implements sim.Component.
func (c *Controller) RestoreState() {
	c.current = c.previous
}

// DoubleCheck implements sim.Component.
func (c *Controller) DoubleCheck(int, *sim.SingleTimeStepValues) error {
	return nil
}

// Simulate runs the controller state machine. During a forced convergence
// pass the controller keeps its last decision and writes nothing; its state
// output retains the value of the previous regular pass.
func (c *Controller) Simulate(
	_ int,
	values *sim.SingleTimeStepValues,
	forceConvergence bool,
) error {
	if forceConvergence {
		return nil
	}

	waterTemperature := values.GetInputValue(c.waterTemperatureIn)
	flowTemperature := values.GetInputValue(c.flowTemperatureIn)
	dailyAverage := values.GetInputValue(c.dailyAverageIn)

	storageModifier := 0.0
	if c.storageModifierIn.IsConnected() {
		storageModifier = values.GetInputValue(c.storageModifierIn)
	}

	summerHeatingOff := c.heatingThreshold != nil &&
		dailyAverage > *c.heatingThreshold

	var err error
	switch c.mode {
	case ModeOnOff:
		err = c.decideOnOff(
			waterTemperature, flowTemperature,
			summerHeatingOff, storageModifier)

	case ModeHeatingCoolingOff:
		coolingAllowed := c.coolingThreshold == nil ||
			dailyAverage > *c.coolingThreshold
		err = c.decideHeatingCoolingOff(
			waterTemperature, flowTemperature,
			summerHeatingOff, coolingAllowed, storageModifier)

	default:
		err = fmt.Errorf("unknown heat pump controller mode %d", c.mode)
	}

	if err != nil {
		return err
	}

	switch c.current {
	case controllerHeating:
		values.SetOutputValue(c.stateOut, 1)
	case controllerCooling:
		values.SetOutputValue(c.stateOut, -1)
	case controllerOff:
		values.SetOutputValue(c.stateOut, 0)
	default:
		return fmt.Errorf("unknown heat pump controller state %q", c.current)
	}

	return nil
}

func (c *Controller) decideOnOff(
	waterTemperature, flowTemperature float64,
	summerHeatingOff bool,
	storageModifier float64,
) error {
	switch c.current {
	case controllerHeating:
		if waterTemperature >
			flowTemperature+c.offsetCelsius+storageModifier ||
			summerHeatingOff {
			c.current = controllerOff
		}

	case controllerOff:
		if waterTemperature <
			flowTemperature-c.offsetCelsius+storageModifier &&
			!summerHeatingOff {
			c.current = controllerHeating
		}

	default:
		return fmt.Errorf("unknown heat pump controller state %q", c.current)
	}

	return nil
}

func (c *Controller) decideHeatingCoolingOff(
	waterTemperature, flowTemperature float64,
	summerHeatingOff, coolingAllowed bool,
	storageModifier float64,
) error {
	switch c.current {
	case controllerHeating:
		if waterTemperature >= flowTemperature+storageModifier ||
			summerHeatingOff {
			c.current = controllerOff
		}

	case controllerCooling:
		if waterTemperature <= flowTemperature || !coolingAllowed {
			c.current = controllerOff
		}

	case controllerOff:
		if waterTemperature <
			flowTemperature-c.offsetCelsius+storageModifier &&
			!summerHeatingOff {
			c.current = controllerHeating
			return nil
		}

		if waterTemperature > flowTemperature+c.offsetCelsius &&
			coolingAllowed {
			c.current = controllerCooling
		}

	default:
		return fmt.Errorf("unknown heat pump controller state %q", c.current)
	}

	return nil
}

// DefaultConnections returns the default wiring of the controller against
// the given storage and weather component names.
func (c *Controller) DefaultConnections(
	storageName, weatherName string,
) []sim.Connection {
	return []sim.Connection{
		{InputField: WaterTemperature,
			SrcComponent: storageName,
			SrcField:     "WaterTemperatureToHeatGenerator"},
		{InputField: DailyAverageTemperature,
			SrcComponent: weatherName,
			SrcField:     "DailyAverageOutsideTemperatures"},
	}
}
