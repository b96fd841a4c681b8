package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// identifierRegex matches the canonical identifier form
// `<kind>.<type>.<name>` with an optional trailing `[index]`.
var identifierRegex = regexp.MustCompile(`^(step|resource)\.([\w-]+)\.([\w.-]+?)(?:\[(\d+)\])?$`)

// Parse decodes a canonical identifier into its address and instance
// index. The index is -1 when the identifier names the node itself
// rather than one instance of it.
func Parse(rawID string) (Address, int, error) {
	if rawID == "" {
		return Address{}, -1, fmt.Errorf("identifier cannot be empty")
	}

	matches := identifierRegex.FindStringSubmatch(rawID)
	if matches == nil {
		return Address{}, -1, fmt.Errorf("invalid node identifier format: %q", rawID)
	}

	addr := Address{Kind: Kind(matches[1]), Type: matches[2], Name: matches[3]}
	if matches[4] == "" {
		return addr, -1, nil
	}

	index, err := strconv.Atoi(matches[4])
	if err != nil {
		return Address{}, -1, fmt.Errorf("invalid instance index in %q: %w", rawID, err)
	}
	return addr, index, nil
}

// SplitRef splits a kind-less reference as written in `depends_on`
// lists ("<type>.<name>") into its parts. ok is false when the
// reference lacks that shape.
func SplitRef(ref string) (typeName, name string, ok bool) {
	typeName, name, ok = strings.Cut(ref, ".")
	if !ok || typeName == "" || name == "" {
		return "", "", false
	}
	return typeName, name, true
}
