package retailprep

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jmylchreest/retailprep/internal/logger"
	"github.com/jmylchreest/retailprep/internal/version"
	"github.com/jmylchreest/retailprep/pkg/cleaner"
	"github.com/jmylchreest/retailprep/pkg/retail"
)

// Result describes one pipeline run.
type Result struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Version    string    `json:"version" yaml:"version"`
	Input      string    `json:"input" yaml:"input"`
	Output     string    `json:"output" yaml:"output"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	InputRows  int       `json:"input_rows" yaml:"input_rows"`
	OutputRows int       `json:"output_rows" yaml:"output_rows"`
	OutputSize int64     `json:"output_bytes" yaml:"output_bytes"`

	Stats *cleaner.Stats `json:"stats" yaml:"stats"`

	LoadDuration  time.Duration `json:"load_duration_ns" yaml:"load_duration"`
	CleanDuration time.Duration `json:"clean_duration_ns" yaml:"clean_duration"`
	SaveDuration  time.Duration `json:"save_duration_ns" yaml:"save_duration"`
	TotalDuration time.Duration `json:"total_duration_ns" yaml:"total_duration"`
}

// phaseLine is one JSONL record of a run report.
type phaseLine struct {
	RunID   string `json:"run_id"`
	Step    string `json:"step"`
	RowsIn  int    `json:"rows_in"`
	RowsOut int    `json:"rows_out"`
	Dropped int    `json:"dropped"`
}

// Lines returns one record per cleaning step, for line-oriented reports.
func (r *Result) Lines() []any {
	if r.Stats == nil {
		return nil
	}
	lines := make([]any, 0, len(r.Stats.Phases))
	for _, p := range r.Stats.Phases {
		lines = append(lines, phaseLine{
			RunID:   r.RunID,
			Step:    p.Name,
			RowsIn:  p.RowsIn,
			RowsOut: p.RowsOut,
			Dropped: p.Dropped(),
		})
	}
	return lines
}

// Pipeline loads, cleans and saves one extract.
type Pipeline struct {
	config  Config
	cleaner *cleaner.Cleaner
}

// New creates a Pipeline. The resulting configuration is validated.
func New(opts ...Option) (*Pipeline, error) {
	cfg := DefaultConfig("")
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cl := cfg.Cleaner
	if cl == nil {
		cl = cleaner.New(nil)
	}
	return &Pipeline{config: cfg, cleaner: cl}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Run executes load, clean and save once. ctx is checked between stages;
// a stage that has started runs to completion.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:     uuid.NewString(),
		Version:   version.String(),
		Input:     p.config.Input,
		StartedAt: start,
	}
	log := logger.With("run_id", res.RunID)

	log.Debug("loading input", "path", p.config.Input, "encoding", p.config.Encoding)
	stageStart := time.Now()
	raw, err := retail.Load(p.config.Input, retail.ReadOptions{
		Encoding:  p.config.Encoding,
		Delimiter: p.config.Delimiter,
	})
	if err != nil {
		return nil, err
	}
	res.LoadDuration = time.Since(stageStart)
	res.InputRows = raw.Len()
	log.Debug("input loaded", "rows", res.InputRows, "columns", len(raw.Columns))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debug("cleaning", "chain", p.cleaner.Name())
	stageStart = time.Now()
	cleaned, err := p.cleaner.CleanWithStats(raw)
	if err != nil {
		return nil, err
	}
	res.CleanDuration = time.Since(stageStart)
	res.Stats = cleaned.Stats
	res.OutputRows = cleaned.Dataset.Len()
	for _, phase := range cleaned.Stats.Phases {
		log.Debug("step applied", "step", phase.Name, "rows_in", phase.RowsIn, "dropped", phase.Dropped())
	}
	log.Debug("cleaning summary", "stats", cleaned.Stats.String())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart = time.Now()
	out, err := retail.Save(cleaned.Dataset, p.config.Output, retail.SaveOptions{
		Format:    p.config.Format,
		Delimiter: p.config.Delimiter,
	})
	if err != nil {
		return nil, err
	}
	res.SaveDuration = time.Since(stageStart)
	res.Output = out
	if fi, err := os.Stat(out); err == nil {
		res.OutputSize = fi.Size()
	}
	res.TotalDuration = time.Since(start)

	log.Info("cleaned dataset written",
		"path", out,
		"rows_in", humanize.Comma(int64(res.InputRows)),
		"rows_out", humanize.Comma(int64(res.OutputRows)),
		"dropped", humanize.Comma(int64(res.Stats.DroppedRows())),
		"size", humanize.Bytes(uint64(res.OutputSize)),
		"duration", res.TotalDuration.Round(time.Millisecond),
	)
	return res, nil
}
