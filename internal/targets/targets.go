// Package targets stores the genomic target intervals of a condition and
// answers whether an alignment coordinate falls within them.
package targets

import (
	"math"
	"sort"
)

// MaxCoord is the stop coordinate of a whole-contig target.
const MaxCoord uint64 = math.MaxUint64

// Interval is a closed range [Start, Stop] on a contig.
type Interval struct {
	Start uint64 `json:"start"`
	Stop  uint64 `json:"stop"`
}

// Targets is a strand and contig indexed set of merged intervals.
// It is immutable once built and safe to share between readers.
type Targets struct {
	// intervals are sorted by start with no two overlapping
	intervals map[Strand]map[string][]Interval
}

// New builds Targets from literal descriptors of the form contig[,start,stop,strand].
// An empty list returns empty Targets that contain nothing.
func New(descriptors []string) (*Targets, error) {
	rows, err := parseDescriptors(descriptors)
	if err != nil {
		return nil, err
	}
	return build(rows), nil
}

// FromFile builds Targets from a comma-delimited target file or a six-column,
// tab-delimited BED file. Compressed files are read transparently.
func FromFile(path string) (*Targets, error) {
	rows, err := readTargetFile(path)
	if err != nil {
		return nil, err
	}
	return build(rows), nil
}

// build inserts each row on its strand(s) and merges every interval list.
func build(rows []row) *Targets {
	t := &Targets{intervals: make(map[Strand]map[string][]Interval)}

	for _, r := range rows {
		for _, s := range r.strands {
			contigs, ok := t.intervals[s]
			if !ok {
				contigs = make(map[string][]Interval)
				t.intervals[s] = contigs
			}
			contigs[r.contig] = append(contigs[r.contig], r.interval)
		}
	}

	for _, contigs := range t.intervals {
		for contig, intervals := range contigs {
			contigs[contig] = Merge(intervals)
		}
	}

	return t
}

// Merge sorts intervals by start and collapses those that overlap or share an
// endpoint. Merging an already merged list returns an equal list.
func Merge(intervals []Interval) []Interval {
	if len(intervals) < 2 {
		return append([]Interval(nil), intervals...)
	}

	sorted := append([]Interval(nil), intervals...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].Stop < sorted[j].Stop
	})

	merged := make([]Interval, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start <= current.Stop {
			if next.Stop > current.Stop {
				current.Stop = next.Stop
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}

	return append(merged, current)
}

// Contains returns whether coord is within a target on the contig and strand.
func (t *Targets) Contains(contig string, strand Strand, coord uint64) bool {
	if t == nil {
		return false
	}

	intervals := t.intervals[strand][contig]

	// first interval that ends at or after coord
	i := sort.Search(len(intervals), func(i int) bool {
		return intervals[i].Stop >= coord
	})

	return i < len(intervals) && intervals[i].Start <= coord
}

// ContainsToken is Contains with the strand given as a textual token
// ("+", "-", "1", "-1"). Unrecognized tokens are read as Forward.
func (t *Targets) ContainsToken(contig, strand string, coord uint64) bool {
	return t.Contains(contig, NormalizeStrand(strand), coord)
}

// Intervals returns a copy of the merged intervals for a strand and contig.
func (t *Targets) Intervals(strand Strand, contig string) []Interval {
	if t == nil {
		return nil
	}
	intervals, ok := t.intervals[strand][contig]
	if !ok {
		return nil
	}
	return append([]Interval(nil), intervals...)
}

// Contigs returns the sorted names of contigs with a target on the strand.
func (t *Targets) Contigs(strand Strand) []string {
	if t == nil {
		return nil
	}
	var contigs []string
	for contig := range t.intervals[strand] {
		contigs = append(contigs, contig)
	}
	sort.Strings(contigs)
	return contigs
}

// Len is the number of merged intervals across both strands.
func (t *Targets) Len() (n int) {
	if t == nil {
		return 0
	}
	for _, contigs := range t.intervals {
		for _, intervals := range contigs {
			n += len(intervals)
		}
	}
	return n
}
