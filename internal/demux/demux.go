// Package demux attributes each alignment of a run to its condition, classifies
// it as on or off target and folds it into the run's summary, in one pass.
package demux

import (
	"errors"
	"fmt"
	"io"

	"github.com/Adoni5/readfish-tools/internal/conditions"
	"github.com/Adoni5/readfish-tools/internal/paf"
	"github.com/Adoni5/readfish-tools/internal/seqsum"
	"github.com/Adoni5/readfish-tools/internal/summary"
)

// ErrNoAuxiliary is returned for an alignment without a channel or barcode tag
// when there's no sequencing summary to look its read up in.
var ErrNoAuxiliary = errors.New("alignment has no ch or ba tag and no sequencing summary was given")

// AuxIndex looks up the side information of reads by their id.
type AuxIndex interface {
	// Get returns the record of a read, ok is false if there isn't one
	Get(readID string) (rec seqsum.Record, ok bool, err error)

	// Evict drops a read's record once its alignments are done
	Evict(readID string)
}

// RecordReader is a source of alignments, returning io.EOF after the last.
type RecordReader interface {
	Read() (*paf.Record, error)
}

// readState is the state of the read whose alignments are being processed.
// Alignments of a read are consecutive, so one state is enough.
type readState struct {
	// readID of the current read, "" before the first alignment
	readID string

	// aux is the read's auxiliary record, fetched at most once
	aux     seqsum.Record
	auxOK   bool
	fetched bool

	// condition of the read's first alignment
	condition *conditions.Condition

	// mappings is the number of mapped alignments so far
	mappings int

	// onTarget if any mapped alignment was on target
	onTarget bool

	// hasSeq if the read has basecalled sequence
	hasSeq bool
}

// Demultiplexer is a single pass over a run's alignments.
type Demultiplexer struct {
	conf  *conditions.Conf
	index AuxIndex

	// Progress, if set, is called after each alignment
	Progress func()

	summary *summary.Summary
	state   readState
}

// New creates a Demultiplexer. index may be nil if every alignment carries
// its own channel or barcode tag.
func New(conf *conditions.Conf, index AuxIndex) *Demultiplexer {
	return &Demultiplexer{
		conf:    conf,
		index:   index,
		summary: summary.New(),
	}
}

// Run processes every alignment from records and returns the finalized summary.
// The first error aborts the pass and no summary is returned.
func (d *Demultiplexer) Run(records RecordReader) (*summary.Summary, error) {
	for {
		r, err := records.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if err := d.Process(r); err != nil {
			return nil, err
		}

		if d.Progress != nil {
			d.Progress()
		}
	}

	d.finishRead()
	d.summary.Finalize()

	return d.summary, nil
}

// Process classifies a single alignment and adds it to the summary.
func (d *Demultiplexer) Process(r *paf.Record) error {
	if r.QueryName != d.state.readID {
		d.finishRead()
		d.state = readState{readID: r.QueryName}
	}

	condition, err := d.resolve(r)
	if err != nil {
		return fmt.Errorf("failed to find the condition of read %s: %w", r.QueryName, err)
	}

	onTarget := r.Mapped() && condition.OnTarget(r.TargetName, r.Strand, r.Coord())
	d.summary.Condition(condition.Name).Update(r, onTarget)

	s := &d.state
	if s.condition == nil {
		s.condition = condition
	}
	if r.Mapped() {
		s.mappings++
	}
	s.onTarget = s.onTarget || onTarget
	s.hasSeq = s.hasSeq || r.QueryLength > 0

	return nil
}

// finishRead counts the decision of the current read and evicts its
// auxiliary record. It's called when a new read starts and at the end.
func (d *Demultiplexer) finishRead() {
	s := d.state
	if s.readID == "" {
		return
	}

	if s.condition != nil {
		decision := conditions.Decide(s.mappings, s.onTarget, s.hasSeq)
		d.summary.Condition(s.condition.Name).AddDecision(decision.String())
	}

	if d.index != nil && s.fetched {
		d.index.Evict(s.readID)
	}

	d.state = readState{}
}

// resolve finds the condition of an alignment from its tags, falling back on
// the read's auxiliary record for what the tags don't give.
func (d *Demultiplexer) resolve(r *paf.Record) (*conditions.Condition, error) {
	channel, hasChannel, err := r.Channel()
	if err != nil {
		return nil, err
	}
	barcode, hasBarcode := r.Barcode()

	needBarcode := d.conf.HasBarcodes() && !hasBarcode
	needChannel := d.conf.HasRegions() && !hasChannel

	if !r.SelfDescribing() || needBarcode || needChannel {
		aux, ok, err := d.auxiliary(r)
		if err != nil {
			return nil, err
		}
		if ok {
			if !hasBarcode && aux.Barcode != "" {
				barcode, hasBarcode = aux.Barcode, true
			}
			if !hasChannel {
				channel, hasChannel = aux.Channel, true
			}
		}
	}

	if d.conf.HasBarcodes() && hasBarcode {
		return d.conf.ForBarcode(barcode)
	}
	if d.conf.HasRegions() && hasChannel {
		return d.conf.ForChannel(channel)
	}

	if d.conf.HasBarcodes() {
		return nil, fmt.Errorf("no barcode for a barcoded experiment")
	}
	return nil, fmt.Errorf("no channel for a region experiment")
}

// auxiliary returns the auxiliary record of the current read, fetching it from
// the index on the read's first alignment only.
func (d *Demultiplexer) auxiliary(r *paf.Record) (seqsum.Record, bool, error) {
	s := &d.state
	if s.fetched {
		return s.aux, s.auxOK, nil
	}

	if d.index == nil {
		if r.SelfDescribing() {
			return seqsum.Record{}, false, nil
		}
		return seqsum.Record{}, false, ErrNoAuxiliary
	}

	aux, ok, err := d.index.Get(r.QueryName)
	if err != nil {
		return seqsum.Record{}, false, err
	}
	if !ok && !r.SelfDescribing() {
		return seqsum.Record{}, false, fmt.Errorf("no sequencing summary record for the read")
	}

	s.aux, s.auxOK, s.fetched = aux, ok, true
	return aux, ok, nil
}
