package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DynamicComponentBase", func() {
	var (
		ems      *stubDynComp
		battery1 *stubComp
		battery2 *stubComp
		inverter *stubComp
	)

	BeforeEach(func() {
		ems = newStubDynComp("EMS")
		battery1 = newStubComp("Battery1")
		battery2 = newStubComp("Battery2")
		inverter = newStubComp("Inverter")

		battery1.DeclareOutput("Battery1_SOC", LoadTypeAny, UnitPercent, "")
		battery2.DeclareOutput("Battery2_SOC", LoadTypeAny, UnitPercent, "")
		inverter.DeclareOutput("Inverter_Power", LoadTypeElectricity, UnitWatt, "")
	})

	It("should add one input and connect it by display name", func() {
		in := ems.AddInputAndConnect(battery1, "Battery1_SOC",
			LoadTypeAny, UnitPercent, NewTagSet(TagBattery), 1)

		Expect(in.FieldName).To(Equal("Input0"))
		Expect(in.SrcComponentName).To(Equal("Battery1"))
		Expect(in.SrcFieldName).To(Equal("Battery1_SOC"))
		Expect(ems.DynamicInputs()).To(HaveLen(1))
		Expect(ems.DynamicInputs()[0].Weight).To(Equal(1))
	})

	It("should panic when the source output does not exist", func() {
		Expect(func() {
			ems.AddInputAndConnect(battery1, "NoSuchOutput",
				LoadTypeAny, UnitPercent, NewTagSet(TagBattery), 1)
		}).To(Panic())
	})

	It("should discover inputs by substring in source order", func() {
		sources := []Component{battery1, battery2, inverter}

		added := ems.AddInputsAndConnect(sources, "SOC",
			LoadTypeAny, UnitPercent, NewTagSet(TagBattery), 0)

		Expect(added).To(HaveLen(2))
		Expect(added[0].SrcComponentName).To(Equal("Battery1"))
		Expect(added[0].SrcFieldName).To(Equal("Battery1_SOC"))
		Expect(added[1].SrcComponentName).To(Equal("Battery2"))
		Expect(added[1].SrcFieldName).To(Equal("Battery2_SOC"))
		Expect(added[0].FieldName).To(Equal("Input0"))
		Expect(added[1].FieldName).To(Equal("Input1"))
	})

	It("should silently add nothing when the substring matches no output", func() {
		sources := []Component{battery1, battery2, inverter}

		added := ems.AddInputsAndConnect(sources, "NoSuchName",
			LoadTypeAny, UnitNone, NewTagSet(TagBattery), 0)

		Expect(added).To(BeEmpty())
		Expect(ems.Inputs()).To(BeEmpty())
		Expect(ems.DynamicInputs()).To(BeEmpty())
	})

	It("should name dynamic outputs positionally", func() {
		out1 := ems.AddOutput("BatteryTarget",
			LoadTypeElectricity, UnitWatt, NewTagSet(TagBattery), 1, "")
		out2 := ems.AddOutput("BatteryTarget",
			LoadTypeElectricity, UnitWatt, NewTagSet(TagBattery), 2, "")

		Expect(out1.FieldName).To(Equal("Output1"))
		Expect(out1.DisplayName).To(Equal("BatteryTargetOutput1"))
		Expect(out2.FieldName).To(Equal("Output2"))
	})

	Context("with a frozen graph", func() {
		var (
			graph  *Graph
			values *SingleTimeStepValues
		)

		BeforeEach(func() {
			graph = NewGraph()
			graph.AddComponent(battery1)
			graph.AddComponent(battery2)
			graph.AddComponent(inverter)
			graph.AddComponent(ems)
		})

		freeze := func() {
			err := graph.Freeze()
			Expect(err).NotTo(HaveOccurred())
			values = NewSingleTimeStepValues(graph.SlotCount())
		}

		It("should return the first matching input value by tags and weight", func() {
			ems.AddInputAndConnect(battery1, "Battery1_SOC",
				LoadTypeAny, UnitPercent, NewTagSet(TagBattery), 1)
			ems.AddInputAndConnect(battery2, "Battery2_SOC",
				LoadTypeAny, UnitPercent, NewTagSet(TagBattery), 2)
			freeze()

			values.SetOutputValue(battery1.GetOutputByName("Battery1_SOC"), 80)
			values.SetOutputValue(battery2.GetOutputByName("Battery2_SOC"), 30)

			soc, ok := ems.GetDynamicInput(values, NewTagSet(TagBattery), 2)
			Expect(ok).To(BeTrue())
			Expect(soc).To(Equal(30.0))
		})

		It("should signal absence instead of failing on a lookup miss", func() {
			ems.AddInputAndConnect(battery1, "Battery1_SOC",
				LoadTypeAny, UnitPercent, NewTagSet(TagBattery), 1)
			freeze()

			_, ok := ems.GetDynamicInput(values, NewTagSet(TagCHP), 0)
			Expect(ok).To(BeFalse())

			_, ok = ems.GetDynamicInput(values, NewTagSet(TagBattery), 99)
			Expect(ok).To(BeFalse())
		})

		It("should match by tag superset", func() {
			ems.AddInputAndConnect(battery1, "Battery1_SOC", LoadTypeAny, UnitPercent,
				NewTagSet(TagBattery, TagElectricityProduction), 1)
			freeze()

			values.SetOutputValue(battery1.GetOutputByName("Battery1_SOC"), 55)

			soc, ok := ems.GetDynamicInput(values, NewTagSet(TagBattery), 1)
			Expect(ok).To(BeTrue())
			Expect(soc).To(Equal(55.0))
		})

		It("should collect all matching input values ignoring weight", func() {
			ems.AddInputAndConnect(battery1, "Battery1_SOC",
				LoadTypeAny, UnitPercent, NewTagSet(TagBattery), 1)
			ems.AddInputAndConnect(battery2, "Battery2_SOC",
				LoadTypeAny, UnitPercent, NewTagSet(TagBattery), 2)
			ems.AddInputAndConnect(inverter, "Inverter_Power",
				LoadTypeElectricity, UnitWatt, NewTagSet(TagPVSystem), 1)
			freeze()

			values.SetOutputValue(battery1.GetOutputByName("Battery1_SOC"), 80)
			values.SetOutputValue(battery2.GetOutputByName("Battery2_SOC"), 30)
			values.SetOutputValue(inverter.GetOutputByName("Inverter_Power"), 500)

			socs := ems.GetDynamicInputs(values, NewTagSet(TagBattery))
			Expect(socs).To(Equal([]float64{80, 30}))

			Expect(ems.GetDynamicInputs(values, NewTagSet(TagCHP))).To(BeEmpty())
		})

		It("should write only the matching weight's output slot", func() {
			out1 := ems.AddOutput("Target",
				LoadTypeHeating, UnitWatt, NewTagSet(TagHeatPump), 1, "")
			out2 := ems.AddOutput("Target",
				LoadTypeHeating, UnitWatt, NewTagSet(TagHeatPump), 2, "")
			freeze()

			ems.SetDynamicOutput(values, NewTagSet(TagHeatPump), 2, 42.0)

			Expect(values.GetOutputValue(out2)).To(Equal(42.0))
			Expect(values.GetOutputValue(out1)).To(Equal(0.0))
		})

		It("should write every output matching tags and weight", func() {
			out1 := ems.AddOutput("Target",
				LoadTypeHeating, UnitWatt, NewTagSet(TagHeatPump), 1, "")
			out2 := ems.AddOutput("Target",
				LoadTypeHeating, UnitWatt, NewTagSet(TagHeatPump), 1, "")
			freeze()

			ems.SetDynamicOutput(values, NewTagSet(TagHeatPump), 1, 7.5)

			Expect(values.GetOutputValue(out1)).To(Equal(7.5))
			Expect(values.GetOutputValue(out2)).To(Equal(7.5))
		})
	})
})
