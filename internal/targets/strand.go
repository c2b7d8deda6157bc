package targets

import "fmt"

// Strand is the orientation of a target or alignment on its contig.
type Strand int

const (
	// Forward is the "+" strand
	Forward Strand = iota

	// Reverse is the "-" strand
	Reverse
)

// strands lists both orientations, in iteration order.
var strands = []Strand{Forward, Reverse}

// String returns the strand's PAF/BED symbol.
func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// ParseStrand converts a strand token from a target descriptor into a Strand.
// Unlike NormalizeStrand, unrecognized tokens are an error.
func ParseStrand(token string) (Strand, error) {
	switch token {
	case "+", "1":
		return Forward, nil
	case "-", "-1":
		return Reverse, nil
	}
	return Forward, fmt.Errorf("failed to parse strand %q: expected one of +, -, 1, -1", token)
}

// NormalizeStrand converts a strand token from an alignment into a Strand.
// Anything that isn't a recognized reverse token is treated as Forward.
func NormalizeStrand(token string) Strand {
	switch token {
	case "-", "-1":
		return Reverse
	}
	return Forward
}
