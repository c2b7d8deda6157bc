package targets

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/shenwei356/xopen"
)

// row is a single parsed target, ready for insertion on one or both strands.
type row struct {
	contig   string
	interval Interval
	strands  []Strand
}

// parseDescriptors parses literal contig[,start,stop,strand] targets.
func parseDescriptors(descriptors []string) ([]row, error) {
	rows := make([]row, 0, len(descriptors))
	for i, d := range descriptors {
		cols := strings.Split(d, ",")
		for j := range cols {
			cols[j] = strings.TrimSpace(cols[j])
		}

		r, err := parseRow(cols)
		if err != nil {
			return nil, fmt.Errorf("failed to parse target %d (%q): %v", i+1, d, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// parseRow parses the columns of a generic target: either a bare contig or
// contig, start, stop and strand.
func parseRow(cols []string) (row, error) {
	if len(cols) == 0 || cols[0] == "" {
		return row{}, fmt.Errorf("missing contig name")
	}
	if strings.IndexFunc(cols[0], unicode.IsSpace) >= 0 {
		return row{}, fmt.Errorf("contig name %q contains whitespace, the row may have the wrong delimiter", cols[0])
	}

	switch len(cols) {
	case 1:
		// the whole contig on both strands
		return row{
			contig:   cols[0],
			interval: Interval{Start: 0, Stop: MaxCoord},
			strands:  strands,
		}, nil
	case 4:
		return parseCoords(cols[0], cols[1], cols[2], cols[3])
	}

	return row{}, fmt.Errorf("expected 1 or 4 columns, got %d", len(cols))
}

// parseCoords parses a target with coordinates. A "." strand, as found in BED
// files, places the interval on both strands.
func parseCoords(contig, start, stop, strand string) (row, error) {
	s, err := strconv.ParseUint(start, 10, 64)
	if err != nil {
		return row{}, fmt.Errorf("failed to parse start coordinate %q: %v", start, err)
	}

	e, err := strconv.ParseUint(stop, 10, 64)
	if err != nil {
		return row{}, fmt.Errorf("failed to parse stop coordinate %q: %v", stop, err)
	}

	if s > e {
		return row{}, fmt.Errorf("start %d is after stop %d", s, e)
	}

	r := row{contig: contig, interval: Interval{Start: s, Stop: e}}
	if strand == "." {
		r.strands = strands
		return r, nil
	}

	parsed, err := ParseStrand(strand)
	if err != nil {
		return row{}, err
	}
	r.strands = []Strand{parsed}

	return r, nil
}

// isBED reports whether a target file should be read as six-column BED.
func isBED(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".bed") || strings.HasSuffix(lower, ".bed.gz")
}

// sniffTabs reports whether the first data row of a target file is tab
// delimited: it has a tab and no comma.
func sniffTabs(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		return strings.Contains(line, "\t") && !strings.Contains(line, ",")
	}
	return false
}

// readTargetFile reads the rows of a target file. BED rows are normalized
// to the generic four-column form, dropping their name and score.
func readTargetFile(path string) ([]row, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open target file %s: %v", path, err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open target file %s: %v", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read target file %s: %v", path, err)
	}

	bed := isBED(path)
	lower := strings.ToLower(path)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.LazyQuotes = true
	if bed || strings.HasSuffix(lower, ".tsv") || strings.HasSuffix(lower, ".tsv.gz") || sniffTabs(data) {
		reader.Comma = '\t'
	}

	var rows []row
	for {
		cols, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read target file %s: %v", path, err)
		}

		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		if len(cols) == 1 && cols[0] == "" {
			continue // blank line
		}

		line, _ := reader.FieldPos(0)

		var r row
		if bed {
			if cols[0] == "track" || cols[0] == "browser" || strings.HasPrefix(cols[0], "track ") || strings.HasPrefix(cols[0], "browser ") {
				continue
			}
			if len(cols) != 6 {
				return nil, fmt.Errorf("failed to parse %s line %d: expected 6 BED columns, got %d", path, line, len(cols))
			}
			r, err = parseRow([]string{cols[0], cols[1], cols[2], cols[5]})
		} else {
			r, err = parseRow(cols)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s line %d: %v", path, line, err)
		}

		rows = append(rows, r)
	}

	return rows, nil
}
