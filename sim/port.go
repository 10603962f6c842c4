package sim

import "fmt"

// An Input is a typed named slot on a component that reads the value of
// exactly one Output of another component.
type Input struct {
	ComponentName string
	FieldName     string
	LoadType      LoadType
	Unit          Unit
	Mandatory     bool

	// Recorded by ConnectInput, resolved at graph freeze time.
	SrcComponentName string
	SrcFieldName     string

	source *Output
}

// FullName returns the globally unique name of the input.
func (i *Input) FullName() string {
	return i.ComponentName + "." + i.FieldName
}

// IsConnected returns true if a source has been recorded for the input. The
// source is not validated before the graph is frozen.
func (i *Input) IsConnected() bool {
	return i.SrcComponentName != "" && i.SrcFieldName != ""
}

// Source returns the output the input is bound to, or nil before freeze.
func (i *Input) Source() *Output {
	return i.source
}

// An Output is a typed named slot on a component that one component writes
// and any number of inputs read.
type Output struct {
	ComponentName string
	FieldName     string
	DisplayName   string
	LoadType      LoadType
	Unit          Unit
	Description   string
	Tags          TagSet

	// Global value-vector slot, assigned at graph freeze time.
	slot int
}

// FullName returns the globally unique name of the output.
func (o *Output) FullName() string {
	return o.ComponentName + "." + o.FieldName
}

// Slot returns the global value-vector slot of the output. It panics if the
// graph has not been frozen yet.
func (o *Output) Slot() int {
	if o.slot < 0 {
		panic(fmt.Sprintf("output %s used before graph freeze", o.FullName()))
	}

	return o.slot
}
