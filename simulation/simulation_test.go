package simulation

import (
	"database/sql"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enersim/enersim/datarecording"
	"github.com/enersim/enersim/sim"
)

// rampComp outputs its own timestep number so that recorded series are easy
// to verify.
type rampComp struct {
	*sim.ComponentBase

	value *sim.Output
}

func newRampComp(name string) *rampComp {
	c := &rampComp{ComponentBase: sim.NewComponentBase(name)}
	c.value = c.DeclareOutput(
		"Value", sim.LoadTypeElectricity, sim.UnitWatt, "ramp signal")

	return c
}

func (c *rampComp) PrepareSimulation() {}

func (c *rampComp) Simulate(
	timestep int,
	values *sim.SingleTimeStepValues,
	_ bool,
) error {
	values.SetOutputValue(c.value, float64(timestep))
	return nil
}

func (c *rampComp) SaveState()    {}
func (c *rampComp) RestoreState() {}

func (c *rampComp) DoubleCheck(int, *sim.SingleTimeStepValues) error {
	return nil
}

var _ = Describe("Simulation", func() {
	var (
		db         *sql.DB
		simulation *Simulation
		params     sim.SimulationParameters
	)

	BeforeEach(func() {
		var err error
		db, err = sql.Open("sqlite3", ":memory:")
		Expect(err).ToNot(HaveOccurred())

		params = sim.SimulationParameters{
			SecondsPerTimestep: 60,
			TimestepCount:      4,
		}

		simulation = MakeBuilder().
			WithoutMonitoring().
			WithParameters(params).
			WithDataRecorder(datarecording.NewWithDB(db)).
			Build()
	})

	It("should register components", func() {
		comp := newRampComp("Ramp")

		simulation.AddComponent(comp)

		Expect(simulation.GetComponentByName("Ramp")).To(
			BeIdenticalTo(sim.Component(comp)))
	})

	It("should record every output of every timestep", func() {
		simulation.AddComponent(newRampComp("Ramp"))

		err := simulation.Run()
		Expect(err).ToNot(HaveOccurred())

		reader := datarecording.NewReaderWithDB(db)
		series, err := reader.ReadSeries("Ramp", "Value")
		Expect(err).ToNot(HaveOccurred())
		Expect(series).To(Equal([]float64{0, 1, 2, 3}))
	})

	It("should record the run metadata", func() {
		simulation.AddComponent(newRampComp("Ramp"))

		err := simulation.Run()
		Expect(err).ToNot(HaveOccurred())

		reader := datarecording.NewReaderWithDB(db)
		props, err := reader.RunProperties()
		Expect(err).ToNot(HaveOccurred())
		Expect(props).To(HaveKeyWithValue("timestep_count", "4"))
		Expect(props).To(HaveKeyWithValue("seconds_per_timestep", "60"))
	})

	It("should surface wiring errors from Run", func() {
		comp := newRampComp("Ramp")
		comp.DeclareInput("Missing", sim.LoadTypeElectricity,
			sim.UnitWatt, true)

		simulation.AddComponent(comp)

		err := simulation.Run()
		Expect(err).To(HaveOccurred())

		var missing *sim.MissingConnectionError
		Expect(err).To(BeAssignableToTypeOf(missing))
	})

	It("should reject a monitor port without monitoring", func() {
		Expect(func() {
			MakeBuilder().
				WithoutMonitoring().
				WithMonitorPort(9999).
				WithParameters(params).
				Build()
		}).To(Panic())
	})

	It("should reject parameters without timesteps", func() {
		Expect(func() {
			MakeBuilder().WithoutMonitoring().Build()
		}).To(Panic())
	})
})
