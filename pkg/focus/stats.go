package focus

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stats counts classified frames per state.
type Stats struct {
	counts [3]int
}

func (s *Stats) add(st State) {
	s.counts[st]++
}

// Count returns the number of frames classified as st.
func (s Stats) Count(st State) int {
	if !st.Valid() {
		return 0
	}
	return s.counts[st]
}

// Total returns the number of frames classified.
func (s Stats) Total() int {
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// MarshalJSON encodes the counters keyed by state label.
func (s Stats) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, len(s.counts))
	for _, st := range States() {
		m[st.String()] = s.counts[st]
	}
	return json.Marshal(m)
}

// Summary is the per-state breakdown shown at session end.
type Summary struct {
	Total   int               `json:"total"`
	Counts  map[State]int     `json:"counts"`
	Percent map[State]float64 `json:"percent"`
}

// Summary computes percentages of total frames. With no frames every percentage is 0.
func (s Stats) Summary() Summary {
	total := s.Total()
	denom := total
	if denom == 0 {
		denom = 1
	}

	sum := Summary{
		Total:   total,
		Counts:  make(map[State]int, len(s.counts)),
		Percent: make(map[State]float64, len(s.counts)),
	}
	for _, st := range States() {
		sum.Counts[st] = s.counts[st]
		sum.Percent[st] = float64(s.counts[st]) / float64(denom) * 100
	}
	return sum
}

// Lines formats the summary as "STATE: 12.3%" lines in display order.
func (s Summary) Lines() []string {
	lines := make([]string, 0, len(s.Percent))
	for _, st := range States() {
		lines = append(lines, fmt.Sprintf("%s: %.1f%%", st, s.Percent[st]))
	}
	return lines
}

// String implements fmt.Stringer.
func (s Summary) String() string {
	return strings.Join(s.Lines(), ", ")
}
