package miner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alan/review-miner/cmd"
	"github.com/alan/review-miner/internal/checkpoint"
	"github.com/alan/review-miner/internal/cost"
	"github.com/alan/review-miner/internal/guidelines"
	"github.com/alan/review-miner/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const defaultWorkers = 8

// State is a step of the mining state machine
type State int

const (
	StateInit State = iota
	StateDiscovery
	StateAnalysis
	StateSynthesis
	StateReport
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateDiscovery:
		return "DISCOVERY"
	case StateAnalysis:
		return "ANALYSIS"
	case StateSynthesis:
		return "SYNTHESIS"
	case StateReport:
		return "REPORT"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Mode selects what a run produces
type Mode int

const (
	// ModeGenerate keeps code standards and synthesizes a guidelines document
	ModeGenerate Mode = iota
	// ModeClassify keeps every classified comment and writes an analysis report
	ModeClassify
)

// CheckpointKind returns the checkpoint file suffix used by the mode
func (m Mode) CheckpointKind() string {
	if m == ModeClassify {
		return checkpoint.KindAnalysis
	}
	return checkpoint.KindGuidelines
}

func (m Mode) keeps(c cmd.Classification) bool {
	return m == ModeClassify || c.Category == cmd.CategoryCodeStandards
}

// BatchClassifier classifies all submitted comments of one PR
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, comments []cmd.ReviewComment) ([]cmd.Classification, error)
}

// GuidelineSynthesizer merges retained comments into a guidelines document
type GuidelineSynthesizer interface {
	Synthesize(ctx context.Context, comments []cmd.CommentDatum, existing string) (string, error)
}

// Config wires a Pipeline
type Config struct {
	Host             CodeHost
	Classifier       BatchClassifier
	Synthesizer      GuidelineSynthesizer
	Ledger           *cost.Ledger
	CheckpointDir    string
	Workers          int
	MaxCandidates    int
	EarlyStopFactor  int
	MaxCommentsPerPR int
	Progress         io.Writer // nil discards progress lines
}

// Pipeline runs resumable mining passes over a repository
type Pipeline struct {
	selector      *Selector
	extractor     *Extractor
	classifier    BatchClassifier
	synthesizer   GuidelineSynthesizer
	ledger        *cost.Ledger
	checkpointDir string
	workers       int
	out           io.Writer
	tracer        trace.Tracer
}

// New creates a Pipeline
func New(cfg Config) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	out := cfg.Progress
	if out == nil {
		out = io.Discard
	}

	return &Pipeline{
		selector:      NewSelector(cfg.Host, cfg.MaxCandidates, cfg.EarlyStopFactor),
		extractor:     NewExtractor(cfg.Host, cfg.MaxCommentsPerPR, false),
		classifier:    cfg.Classifier,
		synthesizer:   cfg.Synthesizer,
		ledger:        cfg.Ledger,
		checkpointDir: cfg.CheckpointDir,
		workers:       workers,
		out:           out,
		tracer:        telemetry.Tracer("github.com/alan/review-miner/internal/miner"),
	}
}

// Options describes one run
type Options struct {
	Owner  string
	Repo   string
	K      int
	Output string
	Resume bool
}

// Timings are summed durations of the calls made during a run
type Timings struct {
	GitHub    time.Duration
	LLM       time.Duration
	Synthesis time.Duration
	Total     time.Duration
}

// Result summarizes a completed run
type Result struct {
	RunID         string
	Output        string
	Resumed       bool
	PRsSelected   int
	PRsAnalyzed   int
	PRsFailed     int
	TotalComments int
	CodeStandards int
	Retained      int
	Written       bool
	Timings       Timings
	Cost          cost.Report
}

type run struct {
	mode    Mode
	opts    Options
	store   *checkpoint.Store
	cp      *cmd.Checkpoint
	state   State
	result  Result
	started time.Time
}

// Generate mines code standards and writes or updates the guidelines document
func (p *Pipeline) Generate(ctx context.Context, opts Options) (*Result, error) {
	return p.execute(ctx, ModeGenerate, opts)
}

// Classify mines every review comment and writes an analysis report
func (p *Pipeline) Classify(ctx context.Context, opts Options) (*Result, error) {
	return p.execute(ctx, ModeClassify, opts)
}

func (p *Pipeline) execute(ctx context.Context, mode Mode, opts Options) (*Result, error) {
	r := &run{
		mode:    mode,
		opts:    opts,
		store:   checkpoint.NewStore(p.checkpointDir, mode.CheckpointKind()),
		state:   StateInit,
		started: time.Now(),
	}
	r.result.Output = opts.Output

	for r.state != StateDone {
		var (
			next State
			err  error
		)
		switch r.state {
		case StateInit:
			next = p.init(r)
		case StateDiscovery:
			next, err = p.discover(ctx, r)
		case StateAnalysis:
			next, err = p.analyze(ctx, r)
		case StateSynthesis:
			next, err = p.synthesize(ctx, r)
		case StateReport:
			next, err = p.report(r)
		default:
			err = fmt.Errorf("unexpected state %s", r.state)
		}
		if err != nil {
			p.transition(r, StateFailed)
			return nil, err
		}
		p.transition(r, next)
	}

	if err := p.finish(r); err != nil {
		p.transition(r, StateFailed)
		return nil, err
	}
	return &r.result, nil
}

func (p *Pipeline) transition(r *run, next State) {
	runID := ""
	if r.cp != nil {
		runID = r.cp.RunID
	}
	slog.Debug("Pipeline state", "from", r.state, "to", next, "run_id", runID)
	r.state = next
}

func (p *Pipeline) progress(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Pipeline) init(r *run) State {
	if r.opts.Resume {
		path := r.store.Path(r.opts.Owner, r.opts.Repo)
		cp, err := r.store.Load(r.opts.Owner, r.opts.Repo)
		switch {
		case err == nil:
			r.cp = cp
			r.result.Resumed = true
			p.progress("Resuming from checkpoint: %s\n", path)
			p.progress("Resumed with %d comments from %d PRs\n", len(cp.AllComments), len(cp.ProcessedPRIDs))
		case errors.Is(err, checkpoint.ErrNotFound):
			slog.Info("No checkpoint to resume, starting fresh", "path", path)
		default:
			slog.Warn("Ignoring unusable checkpoint", "path", path, "error", err)
		}
	}

	if r.cp == nil {
		return StateDiscovery
	}
	if r.cp.RunID == "" {
		r.cp.RunID = uuid.NewString()
	}

	switch r.cp.ProcessingStage {
	case cmd.StageLLMExtractionComplete:
		if r.mode == ModeGenerate && r.cp.Guidelines != "" {
			return StateDone
		}
		return p.afterAnalysis(r)
	case cmd.StagePRAnalysisComplete:
		return p.afterAnalysis(r)
	}

	if len(r.cp.TopPRs) > 0 {
		return StateAnalysis
	}
	return StateDiscovery
}

func (p *Pipeline) afterAnalysis(r *run) State {
	if r.mode == ModeClassify {
		return StateReport
	}
	return StateSynthesis
}

func (p *Pipeline) discover(ctx context.Context, r *run) (State, error) {
	p.progress("Analyzing top %d PRs from %s/%s...\n", r.opts.K, r.opts.Owner, r.opts.Repo)

	start := time.Now()
	prs, err := p.selector.SelectTopK(ctx, r.opts.Owner, r.opts.Repo, r.opts.K)
	r.result.Timings.GitHub += time.Since(start)
	if err != nil {
		return StateFailed, err
	}

	if r.cp == nil {
		r.cp = &cmd.Checkpoint{
			RunID: uuid.NewString(),
			Owner: r.opts.Owner,
			Repo:  r.opts.Repo,
		}
	}
	// a resumed checkpoint without a selection keeps its processed PRs and comments
	r.cp.TopPRs = prs
	if err := r.store.Save(r.cp); err != nil {
		return StateFailed, err
	}

	slog.Info("Selected PRs", "org", r.opts.Owner, "repo", r.opts.Repo, "count", len(prs), "run_id", r.cp.RunID)
	p.progress("Found %d PRs to analyze\n", len(prs))
	return StateAnalysis, nil
}

func (p *Pipeline) synthesize(ctx context.Context, r *run) (State, error) {
	r.cp.ProcessingStage = cmd.StagePRAnalysisComplete
	if err := r.store.Save(r.cp); err != nil {
		return StateFailed, err
	}

	existing, err := guidelines.ReadExisting(r.opts.Output)
	if err != nil {
		return StateFailed, err
	}
	if existing != "" {
		p.progress("Found existing guidelines in %s (%d bytes)\n", r.opts.Output, len(existing))
	} else {
		p.progress("No existing guidelines found. Creating new file %s\n", r.opts.Output)
	}

	start := time.Now()
	text, err := p.synthesizer.Synthesize(ctx, r.cp.AllComments, existing)
	r.result.Timings.Synthesis += time.Since(start)
	if err != nil {
		return StateFailed, err
	}

	r.cp.Guidelines = text
	r.cp.ProcessingStage = cmd.StageLLMExtractionComplete
	if err := r.store.Save(r.cp); err != nil {
		return StateFailed, err
	}
	return StateDone, nil
}

func (p *Pipeline) report(r *run) (State, error) {
	r.cp.ProcessingStage = cmd.StagePRAnalysisComplete
	if err := r.store.Save(r.cp); err != nil {
		return StateFailed, err
	}

	p.progress("Writing %d total comments from %d PRs to %s\n", len(r.cp.AllComments), len(r.cp.ProcessedPRIDs), r.opts.Output)
	if err := WriteReport(r.opts.Output, r.cp); err != nil {
		return StateFailed, err
	}
	r.result.Written = true
	return StateDone, nil
}

func (p *Pipeline) finish(r *run) error {
	if r.mode == ModeGenerate {
		written, err := guidelines.WriteIfChanged(r.opts.Output, r.cp.Guidelines)
		if err != nil {
			return err
		}
		r.result.Written = written
		if !written {
			p.progress("No changes needed to guidelines in %s\n", r.opts.Output)
		}
	}

	if err := r.store.Delete(r.opts.Owner, r.opts.Repo); err != nil {
		return err
	}

	r.result.RunID = r.cp.RunID
	r.result.PRsSelected = len(r.cp.TopPRs)
	r.result.PRsAnalyzed = len(r.cp.ProcessedPRIDs)
	r.result.TotalComments = r.cp.TotalCommentsCount
	r.result.CodeStandards = r.cp.CodeStandardsCount
	r.result.Retained = len(r.cp.AllComments)
	r.result.Timings.Total = time.Since(r.started)
	if p.ledger != nil {
		r.result.Cost = p.ledger.Report()
	}
	return nil
}
