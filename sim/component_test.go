package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComponentBase", func() {
	var comp *stubComp

	BeforeEach(func() {
		comp = newStubComp("HeatPump")
	})

	It("should declare inputs in order", func() {
		in1 := comp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)
		in2 := comp.DeclareInput("TempIn", LoadTypeTemperature, UnitCelsius, false)

		Expect(comp.Inputs()).To(Equal([]*Input{in1, in2}))
		Expect(in1.FullName()).To(Equal("HeatPump.OnOff"))
		Expect(in1.Mandatory).To(BeTrue())
		Expect(in2.Mandatory).To(BeFalse())
	})

	It("should declare outputs in order", func() {
		out1 := comp.DeclareOutput(
			"ThermalPower", LoadTypeHeating, UnitWatt, "thermal power output")
		out2 := comp.DeclareOutput(
			"ElectricalPower", LoadTypeElectricity, UnitWatt, "power drawn")

		Expect(comp.Outputs()).To(Equal([]*Output{out1, out2}))
		Expect(out1.DisplayName).To(Equal("ThermalPower"))
	})

	It("should panic on duplicate input field", func() {
		comp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)

		Expect(func() {
			comp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)
		}).To(Panic())
	})

	It("should panic on duplicate output field", func() {
		comp.DeclareOutput("ThermalPower", LoadTypeHeating, UnitWatt, "")

		Expect(func() {
			comp.DeclareOutput("ThermalPower", LoadTypeHeating, UnitWatt, "")
		}).To(Panic())
	})

	It("should record connections without validating the source", func() {
		in := comp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)

		comp.ConnectInput(in, "Controller", "State")

		Expect(in.IsConnected()).To(BeTrue())
		Expect(in.SrcComponentName).To(Equal("Controller"))
		Expect(in.SrcFieldName).To(Equal("State"))
		Expect(in.Source()).To(BeNil())
	})

	Context("default connections", func() {
		It("should connect unbound inputs only", func() {
			in1 := comp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)
			in2 := comp.DeclareInput("TempIn", LoadTypeTemperature, UnitCelsius, true)
			comp.ConnectInput(in1, "UserController", "State")

			comp.ApplyDefaultConnections([]Connection{
				{InputField: "OnOff", SrcComponent: "DefaultController", SrcField: "State"},
				{InputField: "TempIn", SrcComponent: "Weather", SrcField: "Temperature"},
			})

			Expect(in1.SrcComponentName).To(Equal("UserController"))
			Expect(in2.SrcComponentName).To(Equal("Weather"))
		})

		It("should panic on unknown input field", func() {
			Expect(func() {
				comp.ApplyDefaultConnections([]Connection{
					{InputField: "NoSuchField", SrcComponent: "A", SrcField: "B"},
				})
			}).To(Panic())
		})
	})

	It("should find ports by name", func() {
		in := comp.DeclareInput("OnOff", LoadTypeOnOff, UnitBinary, true)
		out := comp.DeclareOutput("ThermalPower", LoadTypeHeating, UnitWatt, "")

		Expect(comp.GetInputByName("OnOff")).To(BeIdenticalTo(in))
		Expect(comp.GetOutputByName("ThermalPower")).To(BeIdenticalTo(out))
		Expect(func() { comp.GetOutputByName("Missing") }).To(Panic())
	})
})
