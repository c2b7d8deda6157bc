// Package flowcell lays out the channels of a nanopore flowcell and divides
// them into the regions of a region-addressed experiment.
package flowcell

import (
	"fmt"
	"sort"
)

const (
	// PromethION is the channel count of a PromethION flowcell
	PromethION = 3000

	// MinION is the channel count of a MinION flowcell
	MinION = 512

	// Flongle is the channel count of a Flongle flowcell
	Flongle = 126
)

// Coords returns the column and row of a channel on a PromethION flowcell.
// Channels are laid out in twelve blocks of 250, each block ten columns wide.
func Coords(channel, size int) (col, row int, err error) {
	if channel < 1 || channel > size {
		return 0, 0, fmt.Errorf("channel %d is outside the flowcell's 1-%d range", channel, size)
	}
	if size != PromethION {
		return 0, 0, fmt.Errorf("no channel layout for a %d channel flowcell", size)
	}

	block := (channel - 1) / 250
	remainder := (channel - 1) % 250

	return remainder%10 + block*10, remainder / 10, nil
}

// Split divides the channels 1..size into n groups, one per region.
//
// With oddEven, the first group has odd and the second even channels. A PromethION
// flowcell is split along its grid: axis 0 splits rows, axis 1 splits columns.
// Other flowcells are split into contiguous channel ranges and axis is only
// validated. Each group's channels are in ascending order.
func Split(size, n, axis int, oddEven bool) ([][]int, error) {
	if size < 1 {
		return nil, fmt.Errorf("flowcell size must be positive, got %d", size)
	}

	if oddEven {
		groups := make([][]int, 2)
		for ch := 1; ch <= size; ch++ {
			groups[(ch+1)%2] = append(groups[(ch+1)%2], ch)
		}
		return groups, nil
	}

	if n < 1 {
		return nil, fmt.Errorf("split must be a positive integer, got %d", n)
	}
	if axis != 0 && axis != 1 {
		return nil, fmt.Errorf("split axis must be 0 (rows) or 1 (columns), got %d", axis)
	}

	if size == PromethION {
		return splitGrid(size, n, axis)
	}

	if size%n != 0 {
		return nil, fmt.Errorf("the %d channel flowcell cannot be split evenly into %d", size, n)
	}

	width := size / n
	groups := make([][]int, n)
	for ch := 1; ch <= size; ch++ {
		groups[(ch-1)/width] = append(groups[(ch-1)/width], ch)
	}

	return groups, nil
}

// splitGrid splits a flowcell with a known layout along one of its axes.
func splitGrid(size, n, axis int) ([][]int, error) {
	maxCol, maxRow := 0, 0
	for ch := 1; ch <= size; ch++ {
		col, row, err := Coords(ch, size)
		if err != nil {
			return nil, err
		}
		if col > maxCol {
			maxCol = col
		}
		if row > maxRow {
			maxRow = row
		}
	}

	dim := maxCol + 1
	if axis == 0 {
		dim = maxRow + 1
	}
	if dim%n != 0 {
		return nil, fmt.Errorf("the flowcell's %d %s cannot be split evenly into %d", dim, axisName(axis), n)
	}

	width := dim / n
	groups := make([][]int, n)
	for ch := 1; ch <= size; ch++ {
		col, row, _ := Coords(ch, size)
		pos := col
		if axis == 0 {
			pos = row
		}
		groups[pos/width] = append(groups[pos/width], ch)
	}

	for _, g := range groups {
		sort.Ints(g)
	}

	return groups, nil
}

func axisName(axis int) string {
	if axis == 0 {
		return "rows"
	}
	return "columns"
}

// ChannelMap inverts channel groups into a channel to group index lookup.
func ChannelMap(groups [][]int) map[int]int {
	m := make(map[int]int)
	for i, g := range groups {
		for _, ch := range g {
			m[ch] = i
		}
	}
	return m
}
