package cleaner

import (
	"fmt"
	"strings"
	"time"
)

// Chain applies steps in sequence.
type Chain struct {
	steps []Step
}

// NewChain creates a chain that applies steps in the order provided.
//
// Example:
//
//	chain := cleaner.NewChain(
//	    cleaner.DropMissingDescription(true),
//	    cleaner.PositiveQuantity(),
//	)
func NewChain(steps ...Step) *Chain {
	return &Chain{
		steps: steps,
	}
}

// Run runs every step, recording a phase per step in stats. The first
// failing step stops the chain.
func (c *Chain) Run(f *Frame, stats *Stats) error {
	for _, step := range c.steps {
		phase := stats.AddPhase(step.Name())
		phase.RowsIn = f.Len()

		start := time.Now()
		err := step.Apply(f)
		phase.Duration = time.Since(start)
		phase.RowsOut = f.Len()

		if err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return nil
}

// Names returns the step names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.steps))
	for i, step := range c.steps {
		names[i] = step.Name()
	}
	return names
}

// Name returns the names of all chained steps.
func (c *Chain) Name() string {
	return "chain(" + strings.Join(c.Names(), "->") + ")"
}
