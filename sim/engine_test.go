package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("TimestepEngine", func() {
	var graph *Graph

	BeforeEach(func() {
		graph = NewGraph()
	})

	params := func(n int) SimulationParameters {
		return SimulationParameters{SecondsPerTimestep: 60, TimestepCount: n}
	}

	It("should pass values from producer to consumer within one pass", func() {
		a := newStubComp("A")
		x := a.DeclareOutput("X", LoadTypeElectricity, UnitWatt, "")
		a.simulate = func(t int, v *SingleTimeStepValues, force bool) error {
			v.SetOutputValue(x, 5.0)
			return nil
		}

		b := newStubComp("B")
		y := b.DeclareInput("Y", LoadTypeElectricity, UnitWatt, true)
		b.ConnectInput(y, "A", "X")
		var read float64
		b.simulate = func(t int, v *SingleTimeStepValues, force bool) error {
			read = v.GetInputValue(y)
			return nil
		}

		graph.AddComponent(b)
		graph.AddComponent(a)
		Expect(graph.Freeze()).To(Succeed())

		engine := NewTimestepEngine(graph, params(1))
		values, err := engine.RunTimestep(0)

		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal(5.0))
		Expect(values.GetOutputValue(x)).To(Equal(5.0))
	})

	It("should leave state untouched by a simulate-then-restore cycle", func() {
		a := newStubComp("A")
		a.DeclareOutput("X", LoadTypeAny, UnitNone, "")
		a.state = 17.0

		a.SaveState()
		snapshot := a.state
		a.state += 4.0
		a.RestoreState()

		Expect(a.state).To(Equal(snapshot))
	})

	It("should resolve a converging cyclic coupling without forcing", func() {
		// Controller echoes the storage temperature toward a setpoint;
		// storage moves halfway toward the controller request. The pair
		// stabilizes at the setpoint within a few passes.
		ctrl := newStubComp("Controller")
		request := ctrl.DeclareOutput("Request", LoadTypeAny, UnitNone, "")
		tempIn := ctrl.DeclareInput("Temp", LoadTypeAny, UnitNone, true)
		ctrl.ConnectInput(tempIn, "Storage", "Temp")

		storage := newStubComp("Storage")
		temp := storage.DeclareOutput("Temp", LoadTypeAny, UnitNone, "")
		reqIn := storage.DeclareInput("Request", LoadTypeAny, UnitNone, true)
		storage.ConnectInput(reqIn, "Controller", "Request")

		const setpoint = 50.0
		ctrl.simulate = func(t int, v *SingleTimeStepValues, force bool) error {
			v.SetOutputValue(request, setpoint)
			return nil
		}
		storage.simulate = func(t int, v *SingleTimeStepValues, force bool) error {
			current := v.GetOutputValue(temp)
			target := v.GetInputValue(reqIn)
			v.SetOutputValue(temp, current+(target-current)/2)
			return nil
		}

		graph.AddComponent(ctrl)
		graph.AddComponent(storage)
		Expect(graph.Freeze()).To(Succeed())

		engine := NewTimestepEngine(graph, params(1))
		engine.SetMaxIterations(50)
		engine.SetConvergenceChecker(ToleranceChecker(0.01))
		forced := false
		saveOrig := storage.simulate
		storage.simulate = func(t int, v *SingleTimeStepValues, force bool) error {
			if force {
				forced = true
			}
			return saveOrig(t, v, force)
		}

		values, err := engine.RunTimestep(0)

		Expect(err).NotTo(HaveOccurred())
		Expect(forced).To(BeFalse())
		Expect(values.GetOutputValue(temp)).To(BeNumerically("~", setpoint, 0.1))
	})

	It("should force convergence after the iteration cap", func() {
		// Two coupled components that never stabilize: one inverts the
		// other's last value.
		a := newStubComp("A")
		outA := a.DeclareOutput("X", LoadTypeAny, UnitNone, "")
		inA := a.DeclareInput("In", LoadTypeAny, UnitNone, true)
		a.ConnectInput(inA, "B", "Y")

		b := newStubComp("B")
		outB := b.DeclareOutput("Y", LoadTypeAny, UnitNone, "")
		inB := b.DeclareInput("In", LoadTypeAny, UnitNone, true)
		b.ConnectInput(inB, "A", "X")

		var aCalls, aForced int
		a.simulate = func(t int, v *SingleTimeStepValues, force bool) error {
			if force {
				aForced++
			} else {
				aCalls++
			}
			v.SetOutputValue(outA, 1.0-v.GetInputValue(inA))
			return nil
		}
		b.simulate = func(t int, v *SingleTimeStepValues, force bool) error {
			v.SetOutputValue(outB, 1.0-v.GetInputValue(inB))
			return nil
		}

		graph.AddComponent(a)
		graph.AddComponent(b)
		Expect(graph.Freeze()).To(Succeed())

		engine := NewTimestepEngine(graph, params(1))
		engine.SetMaxIterations(3)

		_, err := engine.RunTimestep(0)

		Expect(err).NotTo(HaveOccurred())
		Expect(aCalls).To(Equal(3))
		Expect(aForced).To(Equal(1))
		// State is rolled back between passes and before the forced pass.
		Expect(a.restoreCount).To(Equal(3))
	})

	It("should save state once per component per converged timestep", func() {
		a := newStubComp("A")
		a.DeclareOutput("X", LoadTypeAny, UnitNone, "")

		graph.AddComponent(a)
		Expect(graph.Freeze()).To(Succeed())

		engine := NewTimestepEngine(graph, params(3))
		Expect(engine.Run()).To(Succeed())

		// One initial snapshot plus one per timestep.
		Expect(a.saveCount).To(Equal(4))
		Expect(a.prepareCount).To(Equal(1))
	})

	It("should detect a violated single-writer invariant", func() {
		a := newStubComp("A")
		x := a.DeclareOutput("X", LoadTypeAny, UnitNone, "")
		a.simulate = func(t int, v *SingleTimeStepValues, force bool) error {
			v.SetOutputValue(x, 1.0)
			return nil
		}

		b := newStubComp("B")
		b.simulate = func(t int, v *SingleTimeStepValues, force bool) error {
			v.SetOutputValue(x, 2.0)
			return nil
		}

		graph.AddComponent(a)
		graph.AddComponent(b)
		Expect(graph.Freeze()).To(Succeed())

		engine := NewTimestepEngine(graph, params(1))
		_, err := engine.RunTimestep(0)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("A.X"))
	})

	It("should abort the run on the first component error", func() {
		a := newStubComp("A")
		a.simulate = func(t int, v *SingleTimeStepValues, force bool) error {
			return errors.New("unknown on/off signal")
		}

		graph.AddComponent(a)
		Expect(graph.Freeze()).To(Succeed())

		engine := NewTimestepEngine(graph, params(5))
		err := engine.Run()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("component A"))
	})

	Context("protocol order", func() {
		var mockCtrl *gomock.Controller

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should prepare, simulate, doublecheck, then save state", func() {
			comp := NewMockComponent(mockCtrl)
			comp.EXPECT().Name().Return("Mock").AnyTimes()
			comp.EXPECT().Inputs().Return(nil).AnyTimes()
			comp.EXPECT().Outputs().Return(nil).AnyTimes()

			gomock.InOrder(
				comp.EXPECT().PrepareSimulation(),
				comp.EXPECT().SaveState(),
				comp.EXPECT().Simulate(0, gomock.Any(), false).Return(nil),
				comp.EXPECT().DoubleCheck(0, gomock.Any()).Return(nil),
				comp.EXPECT().SaveState(),
			)

			graph.AddComponent(comp)
			Expect(graph.Freeze()).To(Succeed())

			engine := NewTimestepEngine(graph, params(1))
			Expect(engine.Run()).To(Succeed())
		})

		It("should propagate doublecheck failures", func() {
			comp := NewMockComponent(mockCtrl)
			comp.EXPECT().Name().Return("Mock").AnyTimes()
			comp.EXPECT().Inputs().Return(nil).AnyTimes()
			comp.EXPECT().Outputs().Return(nil).AnyTimes()
			comp.EXPECT().PrepareSimulation()
			comp.EXPECT().SaveState()
			comp.EXPECT().Simulate(0, gomock.Any(), false).Return(nil)
			comp.EXPECT().DoubleCheck(0, gomock.Any()).
				Return(errors.New("inconsistent"))

			graph.AddComponent(comp)
			Expect(graph.Freeze()).To(Succeed())

			engine := NewTimestepEngine(graph, params(1))
			err := engine.Run()

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("inconsistent"))
		})
	})
})
