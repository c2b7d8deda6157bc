// Package seqsum indexes a sequencing summary file by read id, so the channel
// and barcode of reads can be found for alignments that don't carry them.
package seqsum

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
)

// Record is the side information for a single read.
type Record struct {
	// ReadID is the read's UUID
	ReadID string

	// Channel the read was sequenced on
	Channel int

	// Barcode call, "" if the run wasn't barcoded
	Barcode string

	// StartTime of the read in seconds since the run began
	StartTime float64

	// Duration of the read in seconds
	Duration float64

	// SequenceLength is the basecalled length of the read
	SequenceLength int
}

// columns holds the index of each used column in a summary's header, -1 if absent.
type columns struct {
	readID, channel, barcode, startTime, duration, length int
}

// Index reads records from a sequencing summary on demand. Records read past
// on the way to a requested read are buffered until they're asked for and evicted,
// so alignments may come in a different order than the summary's rows.
//
// The buffer holds every row read past that hasn't been evicted. Rows of reads
// with no alignment, such as unaligned or filtered reads, are never evicted, so
// in the worst case a pass holds one Record per such read. Buffered reports it.
type Index struct {
	// path to the sequencing summary
	path string

	// file and scanner over the summary's rows
	file    io.Closer
	scanner *bufio.Scanner

	// cols from the header row
	cols columns

	// line number of the last row read
	line int

	// buffer of read but unevicted records
	buffer map[string]Record

	// done once the file is exhausted
	done bool
}

// Open opens a plain or compressed sequencing summary and reads its header.
func Open(path string) (*Index, error) {
	if info, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open sequencing summary %s: %v", path, err)
	} else if info.Size() == 0 {
		return nil, fmt.Errorf("failed to read %s: empty file", path)
	}

	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sequencing summary %s: %v", path, err)
	}

	idx, err := newIndex(path, f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return idx, nil
}

// NewIndex creates an Index over a sequencing summary that's already open.
func NewIndex(r io.Reader) (*Index, error) {
	return newIndex("sequencing summary", r, nil)
}

func newIndex(path string, r io.Reader, closer io.Closer) (*Index, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %v", path, err)
		}
		return nil, fmt.Errorf("failed to read %s: empty file", path)
	}

	cols, err := parseHeader(scanner.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s header: %v", path, err)
	}

	return &Index{
		path:    path,
		file:    closer,
		scanner: scanner,
		cols:    cols,
		line:    1,
		buffer:  make(map[string]Record),
	}, nil
}

// parseHeader finds the used columns by name.
func parseHeader(header string) (columns, error) {
	c := columns{-1, -1, -1, -1, -1, -1}
	for i, name := range strings.Split(strings.TrimRight(header, "\r"), "\t") {
		switch strings.TrimSpace(name) {
		case "read_id":
			c.readID = i
		case "channel":
			c.channel = i
		case "barcode_arrangement":
			c.barcode = i
		case "start_time":
			c.startTime = i
		case "duration":
			c.duration = i
		case "sequence_length_template":
			c.length = i
		}
	}

	if c.readID < 0 {
		return c, fmt.Errorf("missing read_id column")
	}
	if c.channel < 0 {
		return c, fmt.Errorf("missing channel column")
	}
	return c, nil
}

// Get returns the record for a read, reading forward through the summary
// until it's found. ok is false if the summary has no row for the read.
func (idx *Index) Get(readID string) (rec Record, ok bool, err error) {
	if rec, ok = idx.buffer[readID]; ok {
		return rec, true, nil
	}

	for !idx.done {
		if !idx.scanner.Scan() {
			idx.done = true
			if err := idx.scanner.Err(); err != nil {
				return Record{}, false, fmt.Errorf("failed to read %s: %v", idx.path, err)
			}
			break
		}
		idx.line++

		line := idx.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := idx.parse(line)
		if err != nil {
			return Record{}, false, fmt.Errorf("failed to parse %s line %d: %v", idx.path, idx.line, err)
		}

		idx.buffer[rec.ReadID] = rec
		if rec.ReadID == readID {
			return rec, true, nil
		}
	}

	return Record{}, false, nil
}

// Evict drops a read's record from the buffer.
func (idx *Index) Evict(readID string) {
	delete(idx.buffer, readID)
}

// Buffered is the number of records read but not yet evicted.
func (idx *Index) Buffered() int {
	return len(idx.buffer)
}

// Close closes the underlying summary file.
func (idx *Index) Close() error {
	if idx.file == nil {
		return nil
	}
	return idx.file.Close()
}

// parse reads a single summary row into a Record.
func (idx *Index) parse(line string) (rec Record, err error) {
	cols := strings.Split(strings.TrimRight(line, "\r"), "\t")

	get := func(i int) string {
		if i < 0 || i >= len(cols) {
			return ""
		}
		return cols[i]
	}

	if rec.ReadID = get(idx.cols.readID); rec.ReadID == "" {
		return rec, fmt.Errorf("missing read_id")
	}

	if rec.Channel, err = strconv.Atoi(get(idx.cols.channel)); err != nil {
		return rec, fmt.Errorf("failed to parse channel: %v", err)
	}

	rec.Barcode = get(idx.cols.barcode)

	if s := get(idx.cols.startTime); s != "" {
		if rec.StartTime, err = strconv.ParseFloat(s, 64); err != nil {
			return rec, fmt.Errorf("failed to parse start_time: %v", err)
		}
	}

	if s := get(idx.cols.duration); s != "" {
		if rec.Duration, err = strconv.ParseFloat(s, 64); err != nil {
			return rec, fmt.Errorf("failed to parse duration: %v", err)
		}
	}

	if s := get(idx.cols.length); s != "" {
		if rec.SequenceLength, err = strconv.Atoi(s); err != nil {
			return rec, fmt.Errorf("failed to parse sequence_length_template: %v", err)
		}
	}

	return rec, nil
}
