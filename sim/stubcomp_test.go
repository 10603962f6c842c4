package sim

// A stubComp is a minimal hand-written component for wiring and engine
// tests. Its Simulate behavior is injected per test, and its scalar state
// makes the save/restore protocol observable.
type stubComp struct {
	*ComponentBase

	simulate func(timestep int, values *SingleTimeStepValues, force bool) error

	state     float64
	prevState float64

	prepareCount int
	saveCount    int
	restoreCount int
}

func newStubComp(name string) *stubComp {
	return &stubComp{ComponentBase: NewComponentBase(name)}
}

func (c *stubComp) PrepareSimulation() {
	c.prepareCount++
}

func (c *stubComp) Simulate(
	timestep int,
	values *SingleTimeStepValues,
	force bool,
) error {
	if c.simulate == nil {
		return nil
	}

	return c.simulate(timestep, values, force)
}

func (c *stubComp) SaveState() {
	c.prevState = c.state
	c.saveCount++
}

func (c *stubComp) RestoreState() {
	c.state = c.prevState
	c.restoreCount++
}

func (c *stubComp) DoubleCheck(int, *SingleTimeStepValues) error {
	return nil
}

// A stubDynComp is the dynamic counterpart of stubComp.
type stubDynComp struct {
	*DynamicComponentBase

	simulate func(timestep int, values *SingleTimeStepValues, force bool) error
}

func newStubDynComp(name string) *stubDynComp {
	return &stubDynComp{DynamicComponentBase: NewDynamicComponentBase(name)}
}

func (c *stubDynComp) PrepareSimulation() {}

func (c *stubDynComp) Simulate(
	timestep int,
	values *SingleTimeStepValues,
	force bool,
) error {
	if c.simulate == nil {
		return nil
	}

	return c.simulate(timestep, values, force)
}

func (c *stubDynComp) SaveState()    {}
func (c *stubDynComp) RestoreState() {}

func (c *stubDynComp) DoubleCheck(int, *SingleTimeStepValues) error {
	return nil
}
