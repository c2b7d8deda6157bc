// Package paf parses the Pairwise mApping Format lines produced by minimap2,
// including the custom channel and barcode tags readfish adds to them.
package paf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Adoni5/readfish-tools/internal/targets"
	"github.com/shenwei356/xopen"
)

// ErrEmptyFile is returned when opening a PAF file with no contents.
var ErrEmptyFile = errors.New("empty file")

// tagRegex matches a key:type:value tag
var tagRegex = regexp.MustCompile(`^(..):(.):(.*)$`)

// Unmapped is the target name of a read that failed to align.
const Unmapped = "*"

// Tag is an optional key:type:value field after the twelve positional fields.
type Tag struct {
	Key   string
	Type  byte
	Value string
}

// Record is a single alignment from a PAF file.
type Record struct {
	// QueryName is the read id
	QueryName string

	// QueryLength is the read's length
	QueryLength int

	// QueryStart and QueryEnd of the aligned part of the read
	QueryStart int
	QueryEnd   int

	// Strand of the alignment relative to the target
	Strand targets.Strand

	// TargetName is the contig the read aligned to, "*" if unmapped
	TargetName string

	// TargetLength is the contig's length
	TargetLength int

	// TargetStart and TargetEnd of the alignment on the contig
	TargetStart int
	TargetEnd   int

	// Matches is the number of matching bases
	Matches int

	// BlockLength is the length of the alignment, including gaps
	BlockLength int

	// MapQ is the mapping quality
	MapQ int

	// Tags after the positional fields
	Tags []Tag
}

// Parse parses a single PAF line.
func Parse(line string) (*Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 12 {
		return nil, fmt.Errorf("expected at least 12 fields, got %d", len(fields))
	}

	for i, f := range fields[:12] {
		if strings.Contains(f, ":") {
			return nil, fmt.Errorf("positional field %d (%q) contains a colon, the line may be missing fields", i+1, f)
		}
	}

	r := &Record{
		QueryName:  fields[0],
		Strand:     targets.NormalizeStrand(fields[4]),
		TargetName: fields[5],
	}

	ints := []struct {
		name  string
		field string
		dest  *int
	}{
		{"query length", fields[1], &r.QueryLength},
		{"query start", fields[2], &r.QueryStart},
		{"query end", fields[3], &r.QueryEnd},
		{"target length", fields[6], &r.TargetLength},
		{"target start", fields[7], &r.TargetStart},
		{"target end", fields[8], &r.TargetEnd},
		{"residue matches", fields[9], &r.Matches},
		{"block length", fields[10], &r.BlockLength},
		{"mapping quality", fields[11], &r.MapQ},
	}
	for _, i := range ints {
		v, err := strconv.Atoi(i.field)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s %q: %v", i.name, i.field, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("%s is negative: %d", i.name, v)
		}
		*i.dest = v
	}

	for _, token := range fields[12:] {
		caps := tagRegex.FindStringSubmatch(token)
		if caps == nil {
			return nil, fmt.Errorf("tag %q is not of the form key:type:value", token)
		}
		r.Tags = append(r.Tags, Tag{Key: caps[1], Type: caps[2][0], Value: caps[3]})
	}

	return r, nil
}

// Tag returns the value of the first tag with the key.
func (r *Record) Tag(key string) (string, bool) {
	for _, t := range r.Tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

// Channel returns the channel from the record's "ch" tag.
func (r *Record) Channel() (int, bool, error) {
	v, ok := r.Tag("ch")
	if !ok {
		return 0, false, nil
	}
	ch, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse channel tag %q: %v", v, err)
	}
	return ch, true, nil
}

// Barcode returns the barcode from the record's "ba" tag.
func (r *Record) Barcode() (string, bool) {
	return r.Tag("ba")
}

// SelfDescribing returns whether the record carries its own channel or barcode.
func (r *Record) SelfDescribing() bool {
	_, ch := r.Tag("ch")
	_, ba := r.Tag("ba")
	return ch || ba
}

// Mapped returns whether the read aligned to a contig.
func (r *Record) Mapped() bool {
	return r.TargetName != Unmapped
}

// Coord is the position on the target where the read begins: the target
// start on the forward strand and the target end on the reverse.
func (r *Record) Coord() uint64 {
	if r.Strand == targets.Reverse {
		return uint64(r.TargetEnd)
	}
	return uint64(r.TargetStart)
}

// Reader reads Records from a PAF stream, one line at a time.
type Reader struct {
	scanner *bufio.Scanner

	// line number of the last line read
	line int
}

// NewReader creates a Reader from any PAF stream.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &Reader{scanner: scanner}
}

// Read returns the next Record, or io.EOF at the end of the stream.
// Blank lines are skipped.
func (r *Reader) Read() (*Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PAF line %d: %v", r.line, err)
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read PAF line %d: %v", r.line+1, err)
	}
	return nil, io.EOF
}

// Line is the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// File is an open, plain or compressed, PAF file.
type File struct {
	*Reader
	f *xopen.Reader
}

// Open opens a PAF file, failing if it's empty. "-" reads from stdin.
func Open(path string) (*File, error) {
	if path != "-" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open PAF file %s: %v", path, err)
		}
		if info.Size() == 0 {
			return nil, fmt.Errorf("failed to open PAF file %s: %w", path, ErrEmptyFile)
		}
	}

	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PAF file %s: %v", path, err)
	}

	if _, err := f.Peek(1); err != nil {
		f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("failed to open PAF file %s: %w", path, ErrEmptyFile)
		}
		return nil, fmt.Errorf("failed to read PAF file %s: %v", path, err)
	}

	return &File{Reader: NewReader(f), f: f}, nil
}

// Close closes the file.
func (f *File) Close() error {
	return f.f.Close()
}
