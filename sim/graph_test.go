package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Graph", func() {
	var graph *Graph

	BeforeEach(func() {
		graph = NewGraph()
	})

	It("should panic on duplicate component names", func() {
		graph.AddComponent(newStubComp("Weather"))

		Expect(func() {
			graph.AddComponent(newStubComp("Weather"))
		}).To(Panic())
	})

	It("should fail freezing when a mandatory input is unbound", func() {
		hp := newStubComp("HeatPump")
		hp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)
		graph.AddComponent(hp)

		err := graph.Freeze()

		var missing *MissingConnectionError
		Expect(err).To(HaveOccurred())
		Expect(err).To(BeAssignableToTypeOf(missing))
		missing = err.(*MissingConnectionError)
		Expect(missing.ComponentName).To(Equal("HeatPump"))
		Expect(missing.FieldName).To(Equal("OnOff"))
	})

	It("should tolerate unbound optional inputs", func() {
		hp := newStubComp("HeatPump")
		hp.DeclareInput("TempModifier", LoadTypeTemperature, UnitCelsius, false)
		graph.AddComponent(hp)

		Expect(graph.Freeze()).To(Succeed())
	})

	It("should fail when the source component is missing", func() {
		hp := newStubComp("HeatPump")
		in := hp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)
		hp.ConnectInput(in, "Controller", "State")
		graph.AddComponent(hp)

		err := graph.Freeze()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Controller"))
	})

	It("should fail when the source field is missing", func() {
		ctrl := newStubComp("Controller")
		ctrl.DeclareOutput("State", LoadTypeOnOff, UnitBinary, "")

		hp := newStubComp("HeatPump")
		in := hp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)
		hp.ConnectInput(in, "Controller", "Mode")

		graph.AddComponent(ctrl)
		graph.AddComponent(hp)

		err := graph.Freeze()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no output Mode"))
	})

	It("should reject incompatible load types", func() {
		weather := newStubComp("Weather")
		weather.DeclareOutput("Temperature", LoadTypeTemperature, UnitCelsius, "")

		hp := newStubComp("HeatPump")
		in := hp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)
		hp.ConnectInput(in, "Weather", "Temperature")

		graph.AddComponent(weather)
		graph.AddComponent(hp)

		Expect(graph.Freeze()).To(HaveOccurred())
	})

	It("should treat the Any load type as compatible", func() {
		weather := newStubComp("Weather")
		weather.DeclareOutput("Temperature", LoadTypeTemperature, UnitCelsius, "")

		rec := newStubComp("Recorder")
		in := rec.DeclareInput("Signal", LoadTypeAny, UnitNone, true)
		rec.ConnectInput(in, "Weather", "Temperature")

		graph.AddComponent(weather)
		graph.AddComponent(rec)

		Expect(graph.Freeze()).To(Succeed())
	})

	It("should resolve bindings and assign slots at freeze time", func() {
		ctrl := newStubComp("Controller")
		out := ctrl.DeclareOutput("State", LoadTypeOnOff, UnitBinary, "")

		hp := newStubComp("HeatPump")
		in := hp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)
		hp.ConnectInput(in, "Controller", "State")

		graph.AddComponent(ctrl)
		graph.AddComponent(hp)

		Expect(graph.Freeze()).To(Succeed())
		Expect(in.Source()).To(BeIdenticalTo(out))
		Expect(graph.SlotCount()).To(Equal(1))
	})

	Context("execution order", func() {
		connect := func(dst *stubComp, field string, src *stubComp, srcField string) {
			in := dst.DeclareInput(field, LoadTypeAny, UnitNone, true)
			dst.ConnectInput(in, src.Name(), srcField)
		}

		It("should order acyclic components by dependency", func() {
			a := newStubComp("A")
			b := newStubComp("B")
			c := newStubComp("C")
			a.DeclareOutput("X", LoadTypeAny, UnitNone, "")
			b.DeclareOutput("Y", LoadTypeAny, UnitNone, "")
			connect(b, "In", a, "X")
			connect(c, "In", b, "Y")

			// Register in reverse to show that order comes from the bindings.
			graph.AddComponent(c)
			graph.AddComponent(b)
			graph.AddComponent(a)
			Expect(graph.Freeze()).To(Succeed())

			order := graph.ExecutionOrder()
			Expect(order).To(HaveLen(3))
			Expect(order[0].Components[0].Name()).To(Equal("A"))
			Expect(order[1].Components[0].Name()).To(Equal("B"))
			Expect(order[2].Components[0].Name()).To(Equal("C"))
			Expect(order[0].Cyclic).To(BeFalse())
		})

		It("should group cyclic couplings", func() {
			weather := newStubComp("Weather")
			weather.DeclareOutput("Temperature", LoadTypeAny, UnitNone, "")

			ctrl := newStubComp("Controller")
			ctrl.DeclareOutput("State", LoadTypeAny, UnitNone, "")
			hp := newStubComp("HeatPump")
			hp.DeclareOutput("WaterTemp", LoadTypeAny, UnitNone, "")

			connect(ctrl, "WaterTemp", hp, "WaterTemp")
			connect(hp, "OnOff", ctrl, "State")
			connect(ctrl, "Outside", weather, "Temperature")

			graph.AddComponent(ctrl)
			graph.AddComponent(hp)
			graph.AddComponent(weather)
			Expect(graph.Freeze()).To(Succeed())

			order := graph.ExecutionOrder()
			Expect(order).To(HaveLen(2))
			Expect(order[0].Components[0].Name()).To(Equal("Weather"))
			Expect(order[1].Cyclic).To(BeTrue())
			Expect(order[1].Components).To(HaveLen(2))
			Expect(order[1].Components[0].Name()).To(Equal("Controller"))
			Expect(order[1].Components[1].Name()).To(Equal("HeatPump"))
		})

		It("should mark self-couplings as cyclic", func() {
			a := newStubComp("A")
			a.DeclareOutput("X", LoadTypeAny, UnitNone, "")
			connect(a, "Feedback", a, "X")

			graph.AddComponent(a)
			Expect(graph.Freeze()).To(Succeed())

			Expect(graph.ExecutionOrder()[0].Cyclic).To(BeTrue())
		})
	})

	It("should panic when modified after freeze", func() {
		Expect(graph.Freeze()).To(Succeed())

		Expect(func() {
			graph.AddComponent(newStubComp("Late"))
		}).To(Panic())
	})
})
