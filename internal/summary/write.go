package summary

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shenwei356/xopen"
)

// Output is the JSON written for a summarised run.
type Output struct {
	// Time, ex: "2023/01/01 20:41:00"
	Time string `json:"time"`

	// Execution is the number of seconds the pass took
	Execution float64 `json:"execution"`

	// Inputs that were summarised
	Inputs map[string]string `json:"inputs"`

	// Conditions by name
	Conditions map[string]*ConditionSummary `json:"conditions"`
}

// Write serializes the summary to JSON and writes it to filename. Filenames
// ending in .gz are compressed, "-" writes to stdout.
func (s *Summary) Write(filename string, inputs map[string]string, seconds float64) (output []byte, err error) {
	t := time.Now()
	out := Output{
		Time: fmt.Sprintf(
			"%d/%02d/%02d %02d:%02d:%02d",
			t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(),
		),
		Execution:  seconds,
		Inputs:     inputs,
		Conditions: s.Conditions,
	}

	output, err = json.MarshalIndent(out, "", "  ")
	if err != nil {
		return output, fmt.Errorf("failed to serialize the summary: %v", err)
	}

	w, err := xopen.Wopen(filename)
	if err != nil {
		return output, fmt.Errorf("failed to create the output file: %v", err)
	}

	if _, err = w.Write(append(output, '\n')); err != nil {
		w.Close()
		return output, fmt.Errorf("failed to write the summary: %v", err)
	}

	if err = w.Close(); err != nil {
		return output, fmt.Errorf("failed to write the summary: %v", err)
	}

	return output, nil
}
