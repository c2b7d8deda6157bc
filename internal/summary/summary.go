// Package summary accumulates the on and off target statistics of a run's
// alignments, per condition and per contig, in a single pass.
package summary

import (
	"sort"

	"github.com/Adoni5/readfish-tools/internal/paf"
)

// Counts are the running on and off target totals shared by conditions and contigs.
type Counts struct {
	// TotalReads is the number of alignments counted
	TotalReads uint64 `json:"total_reads"`

	// OnTargetReads and OffTargetReads partition TotalReads
	OnTargetReads  uint64 `json:"on_target_read_count"`
	OffTargetReads uint64 `json:"off_target_read_count"`

	// OnTargetYield and OffTargetYield are the summed read lengths of each class
	OnTargetYield  uint64 `json:"on_target_yield"`
	OffTargetYield uint64 `json:"off_target_yield"`

	// OnTargetMeanReadLength and OffTargetMeanReadLength are yield / reads, rounded down
	OnTargetMeanReadLength  uint64 `json:"on_target_mean_read_length"`
	OffTargetMeanReadLength uint64 `json:"off_target_mean_read_length"`

	// OffTargetPercent is the percentage of reads off target
	OffTargetPercent float64 `json:"off_target_percent"`

	// N50 of all, on target and off target read lengths, set by Finalize
	N50          uint64 `json:"n50"`
	OnTargetN50  uint64 `json:"on_target_n50"`
	OffTargetN50 uint64 `json:"off_target_n50"`

	// read lengths of each class, kept for the N50s
	onLengths  []uint64
	offLengths []uint64
}

// add folds a single read of the given length into the counts.
func (c *Counts) add(length uint64, onTarget bool) {
	c.TotalReads++

	if onTarget {
		c.OnTargetReads++
		c.OnTargetYield += length
		c.OnTargetMeanReadLength = c.OnTargetYield / c.OnTargetReads
		c.onLengths = append(c.onLengths, length)
	} else {
		c.OffTargetReads++
		c.OffTargetYield += length
		c.OffTargetMeanReadLength = c.OffTargetYield / c.OffTargetReads
		c.offLengths = append(c.offLengths, length)
	}

	c.OffTargetPercent = float64(c.OffTargetReads) / float64(c.TotalReads) * 100
}

// finalize computes the N50s from the collected read lengths.
func (c *Counts) finalize() {
	c.OnTargetN50 = N50(c.onLengths)
	c.OffTargetN50 = N50(c.offLengths)

	all := make([]uint64, 0, len(c.onLengths)+len(c.offLengths))
	all = append(append(all, c.onLengths...), c.offLengths...)
	c.N50 = N50(all)
}

// Yield is the total length of all counted reads.
func (c *Counts) Yield() uint64 {
	return c.OnTargetYield + c.OffTargetYield
}

// ContigSummary are the counts of alignments to a single contig.
type ContigSummary struct {
	// Name of the contig
	Name string `json:"name"`

	// Length of the contig, from the first alignment to it
	Length uint64 `json:"length"`

	// TotalBases is the summed length of reads aligned to the contig
	TotalBases uint64 `json:"total_bases"`

	Counts
}

// ConditionSummary are the counts of alignments attributed to a condition.
type ConditionSummary struct {
	// Name of the condition
	Name string `json:"name"`

	Counts

	// Unmapped is the number of counted records that failed to align, all off target
	Unmapped uint64 `json:"unmapped"`

	// Decisions is the number of reads in each decision class
	Decisions map[string]uint64 `json:"decisions"`

	// Contigs by name
	Contigs map[string]*ContigSummary `json:"contigs"`
}

// newConditionSummary creates an empty ConditionSummary.
func newConditionSummary(name string) *ConditionSummary {
	return &ConditionSummary{
		Name:      name,
		Decisions: make(map[string]uint64),
		Contigs:   make(map[string]*ContigSummary),
	}
}

// Update folds an alignment and its on/off target classification into the
// condition and the contig it aligned to. Unmapped records are counted
// against the condition only.
func (s *ConditionSummary) Update(r *paf.Record, onTarget bool) {
	length := uint64(r.QueryLength)
	s.add(length, onTarget)

	if !r.Mapped() {
		s.Unmapped++
		return
	}

	contig, ok := s.Contigs[r.TargetName]
	if !ok {
		contig = &ContigSummary{Name: r.TargetName, Length: uint64(r.TargetLength)}
		s.Contigs[r.TargetName] = contig
	}
	contig.TotalBases += length
	contig.add(length, onTarget)
}

// AddDecision counts a read's decision class.
func (s *ConditionSummary) AddDecision(decision string) {
	s.Decisions[decision]++
}

// ContigNames returns the names of the condition's contigs, sorted.
func (s *ConditionSummary) ContigNames() []string {
	names := make([]string, 0, len(s.Contigs))
	for name := range s.Contigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary is the ConditionSummary of every condition seen in a run.
type Summary struct {
	Conditions map[string]*ConditionSummary `json:"conditions"`
}

// New creates an empty Summary.
func New() *Summary {
	return &Summary{Conditions: make(map[string]*ConditionSummary)}
}

// Condition returns the named ConditionSummary, creating it on first use.
func (s *Summary) Condition(name string) *ConditionSummary {
	c, ok := s.Conditions[name]
	if !ok {
		c = newConditionSummary(name)
		s.Conditions[name] = c
	}
	return c
}

// Names returns the names of the summarised conditions, sorted.
func (s *Summary) Names() []string {
	names := make([]string, 0, len(s.Conditions))
	for name := range s.Conditions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Finalize computes the statistics that need every read length, like N50.
// It's called once, after the last Update.
func (s *Summary) Finalize() {
	for _, c := range s.Conditions {
		c.finalize()
		for _, contig := range c.Contigs {
			contig.finalize()
		}
	}
}

// N50 is the largest length L such that reads of length L or longer hold at
// least half of the total bases. Zero for no reads.
func N50(lengths []uint64) uint64 {
	if len(lengths) == 0 {
		return 0
	}

	sorted := append([]uint64(nil), lengths...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	var total uint64
	for _, l := range sorted {
		total += l
	}

	var cumulative uint64
	for _, l := range sorted {
		cumulative += l
		if cumulative*2 >= total {
			return l
		}
	}
	return sorted[len(sorted)-1]
}
