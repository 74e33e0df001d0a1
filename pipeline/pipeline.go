// Package pipeline runs the state/transition analysis over every recording
// below a root folder and collects the labelled transitions into one table.
//
// A recording that cannot be read is logged and skipped; it never aborts the
// batch. Recordings may be decoded in parallel, but rows are always emitted
// in file order so the output table is reproducible.
package pipeline

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jsphweid/midistates/file"
	"github.com/jsphweid/midistates/logging"
	"github.com/jsphweid/midistates/midi"
	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/reference"
	"github.com/jsphweid/midistates/sequence"
	"github.com/jsphweid/midistates/state"
	"github.com/jsphweid/midistates/table"
	"github.com/jsphweid/midistates/transition"
	"github.com/jsphweid/midistates/util"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var ErrNoData = errors.New("no data found")

type Analyzer struct {
	decoder    *state.Decoder
	classifier *sequence.Classifier
	logger     *log.Logger
	workers    int
}

type Option func(*Analyzer)

func WithLogger(logger *log.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

func New(ref *reference.Reference, opts ...Option) *Analyzer {
	a := &Analyzer{
		decoder:    state.NewDecoder(ref),
		classifier: sequence.NewClassifier(ref),
		logger:     logging.Discard(),
		workers:    1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type Failure struct {
	Path string
	Err  error
}

type Result struct {
	RunID    string
	Files    int
	Rows     []model.Row
	Failures []Failure
}

// AnalyzeRecording runs decoder, transition builder and classifier on one
// parsed recording. block should already be normalised.
func (a *Analyzer) AnalyzeRecording(rec *midi.Recording, subject, block string) []model.Row {
	events := a.decoder.DecodeRecording(rec)
	transitions := transition.Build(events)
	_, labeled := a.classifier.Label(block, len(events), transitions)

	rows := make([]model.Row, 0, len(labeled))
	for _, lt := range labeled {
		rows = append(rows, model.Row{
			Transition:    lt.Transition,
			Subject:       subject,
			Block:         block,
			StateFromFreq: lt.StateFromFreq,
		})
	}
	return rows
}

func (a *Analyzer) AnalyzeFile(path string) ([]model.Row, error) {
	subject, block := file.ParseSubjectAndBlock(path)
	block = file.NormalizeBlockName(block)

	rec, err := midi.Load(path)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeRecording(rec, subject, block), nil
}

func (a *Analyzer) analyzeFileSafely(path string) (rows []model.Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = errors.Errorf("panic while analysing: %v", r)
		}
	}()
	return a.AnalyzeFile(path)
}

type fileResult struct {
	rows []model.Row
	err  error
}

func (a *Analyzer) AnalyzeRoot(ctx context.Context, root string) (*Result, error) {
	paths, err := file.GatherMidiPaths(root)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), Files: len(paths)}
	logger := a.logger.With("run", res.RunID)
	logger.Info("analysing recordings", "root", root, "files", len(paths), "workers", a.workers)

	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(util.Max(1, util.Min(a.workers, len(paths))))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.Debug("processing", "file", path, "n", i+1, "of", len(paths))
			rows, err := a.analyzeFileSafely(path)
			results[i] = fileResult{rows: rows, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, r := range results {
		path := paths[i]
		switch {
		case r.err != nil:
			logger.Error("skipping file", "file", path, "err", r.err)
			res.Failures = append(res.Failures, Failure{Path: path, Err: r.err})
		case len(r.rows) == 0:
			logger.Info("no transitions", "file", path)
		default:
			res.Rows = append(res.Rows, r.rows...)
		}
	}
	return res, nil
}

// Run analyses root and writes the table to output. When no rows were
// produced nothing is written and ErrNoData is returned with the result.
func (a *Analyzer) Run(ctx context.Context, root, output string) (*Result, error) {
	res, err := a.AnalyzeRoot(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return res, ErrNoData
	}
	if err := table.WriteFile(output, res.Rows); err != nil {
		return res, err
	}
	a.logger.Info("wrote table", "run", res.RunID, "path", output, "rows", len(res.Rows), "failed", len(res.Failures))
	return res, nil
}
