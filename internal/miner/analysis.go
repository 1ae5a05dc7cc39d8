package miner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alan/review-miner/cmd"
	"github.com/alan/review-miner/internal/classifier"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// prResult is what a worker hands to the recorder for one PR
type prResult struct {
	number        int
	comments      []cmd.CommentDatum
	total         int
	codeStandards int
	githubTime    time.Duration
	llmTime       time.Duration
	err           error
}

// analyze fans pending PRs out to the worker pool. A single recorder goroutine
// owns the checkpoint and saves it after every PR.
func (p *Pipeline) analyze(ctx context.Context, r *run) (State, error) {
	pending := r.cp.Pending()
	if len(pending) > 0 {
		p.progress("Processing %d remaining PRs...\n", len(pending))
	}

	results := make(chan prResult)
	recorded := make(chan error, 1)
	go func() {
		recorded <- p.record(r, results)
	}()

	var g errgroup.Group
	g.SetLimit(p.workers)
	for _, pr := range pending {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results <- p.analyzePR(ctx, r.mode, r.opts.Owner, r.opts.Repo, pr)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	if err := <-recorded; err != nil {
		return StateFailed, err
	}
	if err := ctx.Err(); err != nil {
		return StateFailed, err
	}
	if len(r.cp.ProcessedPRIDs) == 0 && len(r.cp.TopPRs) > 0 {
		slog.Warn("No PR could be analyzed, continuing without comments", "org", r.opts.Owner, "repo", r.opts.Repo, "failed", r.result.PRsFailed)
	}

	p.progress("Found %d code standards comments out of %d total comments\n", r.cp.CodeStandardsCount, r.cp.TotalCommentsCount)
	return p.afterAnalysis(r), nil
}

// record applies worker results to the checkpoint in arrival order.
// It keeps draining after a save failure so workers never block.
func (p *Pipeline) record(r *run, results <-chan prResult) error {
	var saveErr error
	for res := range results {
		r.result.Timings.GitHub += res.githubTime
		r.result.Timings.LLM += res.llmTime

		if res.err != nil {
			r.result.PRsFailed++
			slog.Warn("Failed to analyze PR", "org", r.opts.Owner, "repo", r.opts.Repo, "pr", res.number, "error", res.err)
			continue
		}
		if saveErr != nil {
			continue
		}

		r.cp.TotalCommentsCount += res.total
		r.cp.AllComments = append(r.cp.AllComments, res.comments...)
		r.cp.CodeStandardsCount += res.codeStandards
		r.cp.MarkProcessed(res.number)

		if err := r.store.Save(r.cp); err != nil {
			saveErr = err
			continue
		}
		p.progress("Checkpoint updated after processing PR #%d\n", res.number)
	}
	return saveErr
}

// analyzePR extracts and classifies one PR
func (p *Pipeline) analyzePR(ctx context.Context, mode Mode, owner, repo string, pr cmd.PullRequest) prResult {
	ctx, span := p.tracer.Start(ctx, "miner.analyze_pr", trace.WithAttributes(
		attribute.String("repo", owner+"/"+repo),
		attribute.Int("pr.number", pr.Number),
	))
	defer span.End()

	res := prResult{number: pr.Number}
	fail := func(err error) prResult {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		res.err = err
		return res
	}

	start := time.Now()
	full, err := p.extractor.ExtractContext(ctx, owner, repo, pr.Number)
	res.githubTime = time.Since(start)
	if err != nil {
		return fail(err)
	}

	comments := classifier.Submittable(full.ReviewComments)
	res.total = len(comments)
	span.SetAttributes(attribute.Int("comments", res.total))
	if len(comments) == 0 {
		slog.Debug("PR has no review comments", "pr", pr.Number)
		return res
	}

	start = time.Now()
	classes, err := p.classifier.ClassifyBatch(ctx, comments)
	res.llmTime = time.Since(start)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fail(ctxErr)
	}

	var fault *classifier.Fault
	switch {
	case errors.As(err, &fault):
		slog.Warn("Classification failed, treating batch as general", "pr", pr.Number, "count", fault.Count, "error", fault.Err)
	case err != nil:
		return fail(err)
	}
	if len(classes) != len(comments) {
		return fail(fmt.Errorf("classifier returned %d results for %d comments", len(classes), len(comments)))
	}

	for i, c := range comments {
		class := classes[i]
		if class.Category == cmd.CategoryCodeStandards {
			res.codeStandards++
		}
		if !mode.keeps(class) {
			continue
		}
		res.comments = append(res.comments, cmd.CommentDatum{
			PRNumber:         pr.Number,
			PRTitle:          full.Title,
			File:             c.Path,
			Comment:          c.Body,
			Category:         class.Category,
			InferredStandard: class.InferredStandard,
		})
	}

	slog.Debug("Analyzed PR", "pr", pr.Number, "comments", res.total, "code_standards", res.codeStandards)
	return res
}
