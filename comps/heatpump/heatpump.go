// Package heatpump provides an air/water heat pump with a Carnot-based
// performance model, plus the matching on/off controller. The heat pump
// supports a cycling mode that enforces minimum running and idle times by
// overriding the controller signal.
package heatpump

import (
	"fmt"

	"github.com/enersim/enersim/sim"
)

// Input field names of the heat pump.
const (
	OnOffSwitch            = "OnOffSwitch"
	TemperatureInPrimary   = "TemperatureInPrimary"
	TemperatureInSecondary = "TemperatureInSecondary"
	TemperatureAmbient     = "TemperatureAmbient"
)

// Output field names of the heat pump.
const (
	ThermalOutputPower    = "ThermalOutputPower"
	ThermalOutputEnergy   = "ThermalOutputEnergy"
	ElectricalInputPower  = "ElectricalInputPower"
	ElectricalInputEnergy = "ElectricalInputEnergy"
	COP                   = "COP"
	EER                   = "EER"
	TemperatureOutput     = "TemperatureOutput"
	MassFlowOutput        = "MassFlowOutput"
	TimeOnHeating         = "TimeOnHeating"
	TimeOff               = "TimeOff"
)

// state is the carried-over operating history of the heat pump.
type state struct {
	timeOnHeating int
	timeOnCooling int
	timeOff       int
	onOffPrevious float64
}

// A Comp is a heat pump.
type Comp struct {
	*sim.ComponentBase

	params sim.SimulationParameters

	thermalPowerRatedWatt float64
	carnotQuality         float64
	flowTemperatureRise   float64

	cyclingMode       bool
	minimumRunningSec int
	minimumIdleSec    int

	state         state
	previousState state

	cache *sim.CalculationCache

	onOffIn        *sim.Input
	tInPrimaryIn   *sim.Input
	tInSecondaryIn *sim.Input
	tAmbientIn     *sim.Input

	pThOut     *sim.Output
	qThOut     *sim.Output
	pElOut     *sim.Output
	eElOut     *sim.Output
	copOut     *sim.Output
	eerOut     *sim.Output
	tOutOut    *sim.Output
	mDotOut    *sim.Output
	timeOnOut  *sim.Output
	timeOffOut *sim.Output
}

// Builder builds a heat pump.
type Builder struct {
	params sim.SimulationParameters

	thermalPowerRatedWatt float64
	carnotQuality         float64
	flowTemperatureRise   float64

	cyclingMode       bool
	minimumRunningSec int
	minimumIdleSec    int
}

// MakeBuilder returns a new Builder with the default single-family-house
// configuration: cycling enabled with ten minutes minimum running and idle
// time.
func MakeBuilder() Builder {
	return Builder{
		thermalPowerRatedWatt: 8000,
		carnotQuality:         0.4,
		flowTemperatureRise:   5,
		cyclingMode:           true,
		minimumRunningSec:     600,
		minimumIdleSec:        600,
	}
}

// WithParameters sets the time discretization of the run.
func (b Builder) WithParameters(p sim.SimulationParameters) Builder {
	b.params = p
	return b
}

// WithThermalPower sets the rated thermal output power in W.
func (b Builder) WithThermalPower(watt float64) Builder {
	b.thermalPowerRatedWatt = watt
	return b
}

// WithCarnotQuality sets the fraction of the Carnot COP the machine
// achieves.
func (b Builder) WithCarnotQuality(q float64) Builder {
	b.carnotQuality = q
	return b
}

// WithoutCycling disables the minimum running / idle time override. The
// heat pump then follows the controller signal directly.
func (b Builder) WithoutCycling() Builder {
	b.cyclingMode = false
	return b
}

// WithMinimumRunningTime sets the minimum running time in seconds.
func (b Builder) WithMinimumRunningTime(seconds int) Builder {
	b.minimumRunningSec = seconds
	return b
}

// WithMinimumIdleTime sets the minimum idle time in seconds.
func (b Builder) WithMinimumIdleTime(seconds int) Builder {
	b.minimumIdleSec = seconds
	return b
}

// Build builds a heat pump.
func (b Builder) Build(name string) *Comp {
	if b.params.SecondsPerTimestep <= 0 {
		panic("heat pump requires simulation parameters")
	}

	if b.cyclingMode && (b.minimumRunningSec <= 0 || b.minimumIdleSec <= 0) {
		panic("cycling mode requires positive minimum running and idle times")
	}

	c := &Comp{
		ComponentBase:         sim.NewComponentBase(name),
		params:                b.params,
		thermalPowerRatedWatt: b.thermalPowerRatedWatt,
		carnotQuality:         b.carnotQuality,
		flowTemperatureRise:   b.flowTemperatureRise,
		cyclingMode:           b.cyclingMode,
		minimumRunningSec:     b.minimumRunningSec,
		minimumIdleSec:        b.minimumIdleSec,
		cache:                 sim.NewCalculationCache(),
	}

	c.onOffIn = c.DeclareInput(OnOffSwitch,
		sim.LoadTypeAny, sim.UnitNone, true)
	c.tInPrimaryIn = c.DeclareInput(TemperatureInPrimary,
		sim.LoadTypeTemperature, sim.UnitCelsius, true)
	c.tInSecondaryIn = c.DeclareInput(TemperatureInSecondary,
		sim.LoadTypeTemperature, sim.UnitCelsius, true)
	c.tAmbientIn = c.DeclareInput(TemperatureAmbient,
		sim.LoadTypeTemperature, sim.UnitCelsius, true)

	c.pThOut = c.DeclareOutput(ThermalOutputPower,
		sim.LoadTypeHeating, sim.UnitWatt, "thermal output power")
	c.qThOut = c.DeclareOutput(ThermalOutputEnergy,
		sim.LoadTypeHeating, sim.UnitWattHour, "thermal output energy")
	c.pElOut = c.DeclareOutput(ElectricalInputPower,
		sim.LoadTypeElectricity, sim.UnitWatt, "electrical input power")
	c.eElOut = c.DeclareOutput(ElectricalInputEnergy,
		sim.LoadTypeElectricity, sim.UnitWattHour, "electrical input energy")
	c.copOut = c.DeclareOutput(COP,
		sim.LoadTypeAny, sim.UnitNone, "coefficient of performance")
	c.eerOut = c.DeclareOutput(EER,
		sim.LoadTypeAny, sim.UnitNone, "energy efficiency ratio")
	c.tOutOut = c.DeclareOutput(TemperatureOutput,
		sim.LoadTypeTemperature, sim.UnitCelsius, "water outlet temperature")
	c.mDotOut = c.DeclareOutput(MassFlowOutput,
		sim.LoadTypeWarmWater, sim.UnitKgPerSec, "water mass flow")
	c.timeOnOut = c.DeclareOutput(TimeOnHeating,
		sim.LoadTypeTime, sim.UnitSeconds, "time in heating operation")
	c.timeOffOut = c.DeclareOutput(TimeOff,
		sim.LoadTypeTime, sim.UnitSeconds, "time since last operation")

	return c
}

// DefaultConnections returns the default wiring against the given controller
// and weather component names.
func (c *Comp) DefaultConnections(
	controllerName, weatherName, storageName string,
) []sim.Connection {
	return []sim.Connection{
		{InputField: OnOffSwitch,
			SrcComponent: controllerName, SrcField: ControllerState},
		{InputField: TemperatureAmbient,
			SrcComponent: weatherName, SrcField: "TemperatureOutside"},
		{InputField: TemperatureInPrimary,
			SrcComponent: weatherName, SrcField: "TemperatureOutside"},
		{InputField: TemperatureInSecondary,
			SrcComponent: storageName, SrcField: "WaterTemperatureToHeatGenerator"},
	}
}

// PrepareSimulation implements sim.Component.
func (c *Comp) PrepareSimulation() {
	c.state = state{}
}

// SaveState implements sim.Component.
func (c *Comp) SaveState() {
	c.previousState = c.state
}

// RestoreState implements sim.Component.
func (c *Comp) RestoreState() {
	c.state = c.previousState
}

// DoubleCheck implements sim.Component.
func (c *Comp) DoubleCheck(int, *sim.SingleTimeStepValues) error {
	return nil
}

// performance model result indices within a cache entry.
const (
	resultPTh = iota
	resultPEl
	resultCOP
	resultEER
	resultTOut
	resultMDot
	resultLen
)

const (
	modeHeating = 1
	modeCooling = 2
)

// Simulate implements the heat pump operation for one timestep.
func (c *Comp) Simulate(
	timestep int,
	values *sim.SingleTimeStepValues,
	_ bool,
) error {
	onOff := values.GetInputValue(c.onOffIn)
	tInPrimary := values.GetInputValue(c.tInPrimaryIn)
	tInSecondary := values.GetInputValue(c.tInSecondaryIn)
	tAmbient := values.GetInputValue(c.tAmbientIn)

	timeOnHeating := c.state.timeOnHeating
	timeOnCooling := c.state.timeOnCooling
	timeOff := c.state.timeOff

	if c.cyclingMode {
		// Override the controller signal to respect minimum running and idle
		// times relative to the previous operating mode.
		previous := c.state.onOffPrevious

		switch {
		case previous == 1 && timeOnHeating < c.minimumRunningSec:
			onOff = 1
		case previous == -1 && timeOnCooling < c.minimumRunningSec:
			onOff = -1
		case previous == 0 && timeOff < c.minimumIdleSec:
			onOff = 0
		}
	}

	var pTh, qTh, pEl, eEl, cop, eer, tOut, mDot float64
	stepSeconds := c.params.SecondsPerTimestep

	switch onOff {
	case 1:
		results := c.cachedPerformance(
			tInPrimary, tInSecondary, tAmbient, modeHeating)

		pTh = results[resultPTh]
		qTh = pTh * float64(stepSeconds) / 3600
		pEl = results[resultPEl]
		eEl = pEl * float64(stepSeconds) / 3600
		cop = results[resultCOP]
		eer = results[resultEER]
		tOut = results[resultTOut]
		mDot = results[resultMDot]

		timeOnHeating += stepSeconds
		timeOnCooling = 0
		timeOff = 0

	case -1:
		results := c.cachedPerformance(
			tInPrimary, tInSecondary, tAmbient, modeCooling)

		pTh = results[resultPTh]
		qTh = pTh * float64(stepSeconds) / 3600
		pEl = results[resultPEl]
		eEl = pEl * float64(stepSeconds) / 3600
		cop = results[resultCOP]
		eer = results[resultEER]
		tOut = results[resultTOut]
		mDot = results[resultMDot]

		timeOnCooling += stepSeconds
		timeOnHeating = 0
		timeOff = 0

	case 0:
		// Zeros instead of NaN so that downstream post processing stays
		// well defined.
		tOut = tInSecondary

		timeOff += stepSeconds
		timeOnHeating = 0
		timeOnCooling = 0

	default:
		return fmt.Errorf("unknown on/off signal value %v", onOff)
	}

	values.SetOutputValue(c.pThOut, pTh)
	values.SetOutputValue(c.qThOut, qTh)
	values.SetOutputValue(c.pElOut, pEl)
	values.SetOutputValue(c.eElOut, eEl)
	values.SetOutputValue(c.copOut, cop)
	values.SetOutputValue(c.eerOut, eer)
	values.SetOutputValue(c.tOutOut, tOut)
	values.SetOutputValue(c.mDotOut, mDot)
	values.SetOutputValue(c.timeOnOut, float64(timeOnHeating))
	values.SetOutputValue(c.timeOffOut, float64(timeOff))

	c.state.timeOnHeating = timeOnHeating
	c.state.timeOnCooling = timeOnCooling
	c.state.timeOff = timeOff
	c.state.onOffPrevious = onOff

	return nil
}

// cachedPerformance memoizes the performance model per rounded input tuple.
func (c *Comp) cachedPerformance(
	tInPrimary, tInSecondary, tAmbient float64,
	mode int,
) []float64 {
	key := sim.CacheKey(mode, tInPrimary, tInSecondary, tAmbient)

	return c.cache.GetOrCompute(key, func() []float64 {
		return c.performance(tInPrimary, tInSecondary, tAmbient, mode)
	})
}

// performance is the Carnot-fraction model. The COP is a fixed fraction of
// the Carnot COP between the source inlet and the sink outlet temperature.
func (c *Comp) performance(
	tInPrimary, tInSecondary, _ float64,
	mode int,
) []float64 {
	const waterHeatCapacity = 4184.0 // J/(kg K)

	tOut := tInSecondary + c.flowTemperatureRise
	if mode == modeCooling {
		tOut = tInSecondary - c.flowTemperatureRise
	}

	sinkKelvin := tOut + 273.15
	lift := sinkKelvin - (tInPrimary + 273.15)
	if lift < 1 {
		lift = 1
	}

	cop := c.carnotQuality * sinkKelvin / lift
	if cop < 1 {
		cop = 1
	}

	eer := cop - 1

	pTh := c.thermalPowerRatedWatt
	pEl := pTh / cop

	if mode == modeCooling {
		pTh = -c.thermalPowerRatedWatt
		pEl = c.thermalPowerRatedWatt / eer
	}

	mDot := c.thermalPowerRatedWatt /
		(waterHeatCapacity * c.flowTemperatureRise)

	results := make([]float64, resultLen)
	results[resultPTh] = pTh
	results[resultPEl] = pEl
	results[resultCOP] = cop
	results[resultEER] = eer
	results[resultTOut] = tOut
	results[resultMDot] = mDot

	return results
}
