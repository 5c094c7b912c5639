package cleaner

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/retailprep/pkg/retail"
)

// Stats captures what a cleaning run did.
type Stats struct {
	InputRows  int `json:"input_rows" yaml:"input_rows"`
	OutputRows int `json:"output_rows" yaml:"output_rows"`

	// Phases holds one entry per step, in run order.
	Phases []*Phase `json:"phases" yaml:"phases"`

	TotalDuration time.Duration `json:"total_duration_ns" yaml:"total_duration"`
}

// Phase is the effect of a single step.
type Phase struct {
	Name     string        `json:"name" yaml:"name"`
	RowsIn   int           `json:"rows_in" yaml:"rows_in"`
	RowsOut  int           `json:"rows_out" yaml:"rows_out"`
	Duration time.Duration `json:"duration_ns" yaml:"duration"`
}

// Dropped returns how many rows the step removed.
func (p *Phase) Dropped() int {
	return p.RowsIn - p.RowsOut
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{
		Phases: make([]*Phase, 0, 13),
	}
}

// AddPhase appends a phase for the named step and returns it.
func (s *Stats) AddPhase(name string) *Phase {
	p := &Phase{Name: name}
	s.Phases = append(s.Phases, p)
	return p
}

// DroppedRows returns the number of input rows not in the output.
func (s *Stats) DroppedRows() int {
	return s.InputRows - s.OutputRows
}

// RetainedPercent returns the share of input rows kept.
func (s *Stats) RetainedPercent() float64 {
	if s.InputRows == 0 {
		return 0
	}
	return float64(s.OutputRows) / float64(s.InputRows) * 100
}

// String returns a human-readable summary.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Rows: %d -> %d (%.1f%% retained)\n",
		s.InputRows, s.OutputRows, s.RetainedPercent()))

	for _, p := range s.Phases {
		if p.Dropped() > 0 {
			sb.WriteString(fmt.Sprintf("  %s: dropped %d\n", p.Name, p.Dropped()))
		}
	}

	sb.WriteString(fmt.Sprintf("Timing: total=%v\n", s.TotalDuration.Round(time.Millisecond)))
	return sb.String()
}

// Result contains the output of a cleaning run.
type Result struct {
	Dataset *retail.Dataset `json:"-" yaml:"-"`
	Stats   *Stats          `json:"stats" yaml:"stats"`
}
