// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives a single worker through a list of PDF documents:
// stop-signal check, completion check, claim, rasterize, and archive sweep,
// one document at a time.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf2png/internal/artifact"
	"github.com/pdiddy/pdf2png/internal/claim"
	"github.com/pdiddy/pdf2png/internal/rasterize"
	"github.com/pdiddy/pdf2png/internal/stopsignal"
	"github.com/pdiddy/pdf2png/pkg/types"
)

// ErrStopped is returned when the stop signal or context cancellation
// halts a run before every document was visited.
var ErrStopped = errors.New("conversions halted by stop signal")

// Claimer hands out per-document claims. *claim.Registry implements it.
type Claimer interface {
	Acquire(base string) (*claim.Claim, bool, error)
}

// Sweeper archives finished page artifacts. *archive.Sweeper implements it.
type Sweeper interface {
	Sweep() (moved int, err error)
}

// Recorder journals outcomes. *ledger.Ledger implements it.
type Recorder interface {
	Record(ctx context.Context, e types.LedgerEntry) error
}

// BatchResult holds the outcome of a run.
type BatchResult struct {
	Converted int
	Skipped   int
	Busy      int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Busy + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(o types.Outcome) {
	switch o {
	case types.OutcomeConverted:
		r.Converted++
	case types.OutcomeSkipped:
		r.Skipped++
	case types.OutcomeBusy:
		r.Busy++
	case types.OutcomeFailed:
		r.Failed++
	}
}

// Driver converts documents for one worker process. Rasterizer, Signal and
// Logger are required; Claims, Sweeper and Recorder are optional.
type Driver struct {
	Rasterizer rasterize.Rasterizer
	Signal     stopsignal.Signal
	Claims     Claimer
	Sweeper    Sweeper
	Recorder   Recorder
	Logger     *zap.Logger

	ActiveDir  string
	ArchiveDir string

	// RunID tags ledger entries written by this run.
	RunID string

	host string
	pid  int
}

// Run processes docs in order and writes a progress banner per document
// plus a summary line to w. It returns ErrStopped when the stop signal is
// raised or ctx is cancelled between documents. Individual conversion
// failures never abort the run; they are counted in the result.
func (d *Driver) Run(ctx context.Context, docs []string, w io.Writer) (BatchResult, error) {
	d.host, _ = os.Hostname()
	d.pid = os.Getpid()
	d.warnDuplicates(docs)

	var result BatchResult
	total := len(docs)
	for i, path := range docs {
		if ctx.Err() != nil || d.Signal.Stopped() {
			d.Logger.Info("stop signal detected, conversions halted",
				zap.Int("remaining", total-i))
			fmt.Fprintf(w, "\nStop signal detected. Conversions halted after %d of %d.\n", i, total)
			printSummary(w, result)
			return result, ErrStopped
		}

		fmt.Fprintf(w, "* %d of %d\n", i+1, total)
		result.add(d.process(ctx, path, w))
		d.sweep()
	}

	printSummary(w, result)
	return result, nil
}

// process handles one document and returns its outcome.
func (d *Driver) process(ctx context.Context, path string, w io.Writer) types.Outcome {
	base := artifact.BaseName(path)
	started := time.Now()
	log := d.Logger.With(zap.String("document", path), zap.String("base", base))

	outcome, convErr := d.convert(ctx, path, base, log)

	switch outcome {
	case types.OutcomeSkipped:
		fmt.Fprintf(w, "skipped:   %s (already processed)\n", path)
	case types.OutcomeBusy:
		fmt.Fprintf(w, "busy:      %s (claimed by another worker)\n", path)
	case types.OutcomeFailed:
		fmt.Fprintf(w, "failed:    %s (%v)\n", path, convErr)
	case types.OutcomeConverted:
		fmt.Fprintf(w, "converted: %s\n", path)
	}

	d.record(ctx, types.LedgerEntry{
		RunID:      d.RunID,
		Document:   path,
		Base:       base,
		Outcome:    outcome,
		Error:      errString(convErr),
		Host:       d.host,
		PID:        d.pid,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}, log)
	return outcome
}

func (d *Driver) convert(ctx context.Context, path, base string, log *zap.Logger) (types.Outcome, error) {
	if artifact.Exists(1, base, d.ActiveDir, d.ArchiveDir) {
		log.Debug("already processed")
		return types.OutcomeSkipped, nil
	}

	if d.Claims != nil {
		c, ok, err := d.Claims.Acquire(base)
		if err != nil {
			// Claim errors degrade to an unclaimed conversion.
			log.Warn("claim unavailable, converting unclaimed", zap.Error(err))
		} else if !ok {
			log.Info("claimed by another worker")
			return types.OutcomeBusy, nil
		} else {
			defer func() {
				if err := c.Release(); err != nil {
					log.Warn("releasing claim", zap.Error(err))
				}
			}()
			// A peer may have finished between the first check and the claim.
			if artifact.Exists(1, base, d.ActiveDir, d.ArchiveDir) {
				log.Debug("already processed by a peer")
				return types.OutcomeSkipped, nil
			}
		}
	}

	log.Info("processing")
	start := time.Now()
	if err := d.Rasterizer.Rasterize(ctx, path, d.ActiveDir, base); err != nil {
		removed, rmErr := artifact.Remove(d.ActiveDir, base)
		log.Error("conversion failed", zap.Error(err), zap.Int("partial_pages_removed", removed))
		if rmErr != nil {
			log.Warn("removing partial pages", zap.Error(rmErr))
		}
		return types.OutcomeFailed, err
	}
	log.Info("converted", zap.Duration("elapsed", time.Since(start)))
	return types.OutcomeConverted, nil
}

// sweep runs the archiver; its failures are retried on the next document.
func (d *Driver) sweep() {
	if d.Sweeper == nil {
		return
	}
	moved, err := d.Sweeper.Sweep()
	if err != nil {
		d.Logger.Debug("archive sweep incomplete", zap.Int("moved", moved), zap.Error(err))
		return
	}
	if moved > 0 {
		d.Logger.Debug("archived first pages", zap.Int("moved", moved))
	}
}

func (d *Driver) record(ctx context.Context, e types.LedgerEntry, log *zap.Logger) {
	if d.Recorder == nil {
		return
	}
	// Record even after cancellation so the journal reflects the last document.
	if err := d.Recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		log.Warn("recording outcome", zap.Error(err))
	}
}

// warnDuplicates logs base names that occur more than once; such documents
// share page artifacts and only the first one visited is converted.
func (d *Driver) warnDuplicates(docs []string) {
	seen := make(map[string]string, len(docs))
	for _, p := range docs {
		base := artifact.BaseName(p)
		if first, ok := seen[base]; ok {
			d.Logger.Warn("documents share a base name; only one will be converted",
				zap.String("base", base), zap.String("first", first), zap.String("duplicate", p))
			continue
		}
		seen[base] = p
	}
}

func printSummary(w io.Writer, r BatchResult) {
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d busy, %d failed (total: %d)\n",
		r.Converted, r.Skipped, r.Busy, r.Failed, r.Total())
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
