package sim

// A LoadType is the physical quantity kind that a port carries.
type LoadType string

// Defines the load types that components can exchange.
const (
	LoadTypeAny         LoadType = "Any"
	LoadTypeElectricity LoadType = "Electricity"
	LoadTypeHot         LoadType = "Hot"
	LoadTypeCold        LoadType = "Cold"
	LoadTypeHeating     LoadType = "Heating"
	LoadTypeCooling     LoadType = "Cooling"
	LoadTypeTemperature LoadType = "Temperature"
	LoadTypeIrradiance  LoadType = "Irradiance"
	LoadTypeWarmWater   LoadType = "WarmWater"
	LoadTypeTime        LoadType = "Time"
	LoadTypeOnOff       LoadType = "OnOff"
)

// A Unit is the unit of measure of a port value.
type Unit string

// Defines the units used by the components in this repository.
const (
	UnitNone               Unit = "-"
	UnitPercent            Unit = "%"
	UnitWatt               Unit = "W"
	UnitKiloWatt           Unit = "kW"
	UnitWattHour           Unit = "Wh"
	UnitKiloWattHour       Unit = "kWh"
	UnitCelsius            Unit = "°C"
	UnitKelvin             Unit = "K"
	UnitSeconds            Unit = "s"
	UnitKgPerSec           Unit = "kg/s"
	UnitLiter              Unit = "L"
	UnitWattPerSquareMeter Unit = "W/m2"
	UnitBinary             Unit = "binary"
)

// A Tag is a categorical label attached to a dynamic port. Tags group ports
// semantically, e.g. by the type of the source component or by the direction
// of energy flow.
type Tag string

// Component-type tags.
const (
	TagHeatPump     Tag = "HeatPump"
	TagBattery      Tag = "Battery"
	TagPVSystem     Tag = "PVSystem"
	TagCHP          Tag = "CHP"
	TagElectrolyzer Tag = "Electrolyzer"
	TagSmartDevice  Tag = "SmartDevice"
	TagResidents    Tag = "Residents"
	TagStorage      Tag = "Storage"
)

// Direction tags.
const (
	TagElectricityProduction  Tag = "ElectricityProduction"
	TagElectricityConsumption Tag = "ElectricityConsumption"
	TagElectricityTarget      Tag = "ElectricityTarget"
	TagElectricityReal        Tag = "ElectricityReal"
	TagHeatToBuilding         Tag = "HeatToBuilding"
)

// A TagSet is an ordered collection of tags attached to one dynamic port.
//
// Matching is by superset: a set S matches a request R if every tag in R is
// present in S. A port tagged {Battery, ElectricityTarget} therefore matches
// a request for {Battery} as well as for {Battery, ElectricityTarget}. This
// is deliberately broader than exact matching.
type TagSet []Tag

// NewTagSet creates a TagSet from the given tags.
func NewTagSet(tags ...Tag) TagSet {
	return TagSet(tags)
}

// Contains returns true if the set includes the given tag.
func (s TagSet) Contains(tag Tag) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}

	return false
}

// IsSupersetOf returns true if every tag in other is present in s.
func (s TagSet) IsSupersetOf(other TagSet) bool {
	for _, t := range other {
		if !s.Contains(t) {
			return false
		}
	}

	return true
}
