package nodeid

import "fmt"

// String serializes the address into its canonical identifier.
func (a Address) String() string {
	return fmt.Sprintf("%s.%s.%s", a.Kind, a.Type, a.Name)
}

// Instance returns the identifier of one instance of a counted step,
// e.g. `step.halite_match.round[2]`.
func (a Address) Instance(index int) string {
	return InstanceID(a.String(), index)
}

// InstanceID appends an instance index to an already-formatted node
// identifier.
func InstanceID(baseID string, index int) string {
	return fmt.Sprintf("%s[%d]", baseID, index)
}
