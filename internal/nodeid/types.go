package nodeid

// Kind discriminates the two node flavors a grid can declare.
type Kind string

const (
	KindStep     Kind = "step"
	KindResource Kind = "resource"
)

// Address is the structured representation of a unique node identifier:
// the node kind, the module type it instantiates, and the user-chosen
// block name.
type Address struct {
	Kind Kind
	Type string
	Name string
}

// StepAddr builds the address of a step node from its runner type and name.
func StepAddr(runnerType, name string) Address {
	return Address{Kind: KindStep, Type: runnerType, Name: name}
}

// ResourceAddr builds the address of a resource node from its asset type
// and name.
func ResourceAddr(assetType, name string) Address {
	return Address{Kind: KindResource, Type: assetType, Name: name}
}
