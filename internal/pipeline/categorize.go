package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gastos-dev/gastos/internal/auditlog"
	"github.com/gastos-dev/gastos/internal/category"
	"github.com/gastos-dev/gastos/internal/logger"
	"github.com/gastos-dev/gastos/internal/model"
)

// DefaultTimeout bounds one classification call when none is configured.
const DefaultTimeout = 30 * time.Second

// Classifier maps a transaction description to one of categories. The
// returned text is raw model output and is sanitized by the caller.
type Classifier interface {
	Classify(ctx context.Context, text string, categories []string) (string, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string, categories []string) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string, categories []string) (string, error) {
	return f(ctx, text, categories)
}

// Categorizer assigns a label to every transaction, one call per row.
//
// With the zero values of Workers, Attempts and KeepGoing it behaves like a
// plain sequential loop: the first failed call aborts the sweep and every
// label assigned so far is discarded.
type Categorizer struct {
	Classifier Classifier
	Labels     *category.Set

	Workers   int           // concurrent calls; rows keep their order
	Attempts  int           // calls per row before giving up
	Backoff   time.Duration // delay before the second attempt, doubled after
	Timeout   time.Duration // per call
	Limiter   *rate.Limiter // optional requests-per-minute guard
	KeepGoing bool          // mark failed rows Unclassified instead of aborting

	// Prior holds labels from an earlier export; matching rows skip the call.
	Prior Checkpoint

	Now func() time.Time
}

// Result is the outcome of one categorization sweep.
type Result struct {
	Transactions []model.Transaction
	Failures     []*ClassificationServiceError
	Audit        []auditlog.Entry
}

type rowResult struct {
	label    string
	raw      string
	outcome  auditlog.Outcome
	attempts int
	err      error
}

// Categorize returns a copy of txns with Category set. In the default mode
// the first *ClassificationServiceError is returned and no result is kept.
func (c *Categorizer) Categorize(ctx context.Context, txns []model.Transaction) (*Result, error) {
	if c.Classifier == nil || c.Labels == nil {
		return nil, errors.New("categorizer: classifier and labels are required")
	}

	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)
	log.Info().Int("rows", len(txns)).Int("workers", c.workers()).
		Str("fallback", c.Labels.Fallback()).Msg("categorizing transactions")

	results := make([]rowResult, len(txns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i := range txns {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results[i] = c.categorizeRow(gctx, txns[i])
			if results[i].err != nil && !c.KeepGoing {
				return &ClassificationServiceError{
					Index:       i,
					Description: txns[i].Description,
					Attempts:    results[i].attempts,
					Err:         results[i].err,
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("categorization aborted; discarding labels from this run")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := c.now()
	res := &Result{
		Transactions: make([]model.Transaction, len(txns)),
		Audit:        make([]auditlog.Entry, len(txns)),
	}
	for i, txn := range txns {
		r := results[i]
		if r.err != nil {
			txn.Category = model.UnclassifiedLabel
			txn.Unclassified = true
			res.Failures = append(res.Failures, &ClassificationServiceError{
				Index:       i,
				Description: txn.Description,
				Attempts:    r.attempts,
				Err:         r.err,
			})
			log.Warn().Err(r.err).Int("row", i).Str("description", txn.Description).Msg("row left unclassified")
		} else {
			txn.Category = r.label
			txn.Unclassified = false
		}
		if r.outcome == auditlog.OutcomeFallback {
			log.Warn().Int("row", i).Str("description", txn.Description).Str("response", r.raw).
				Str("label", r.label).Msg("unrecognized response mapped to fallback")
		}
		res.Transactions[i] = txn
		res.Audit[i] = auditlog.Entry{
			Timestamp:   now,
			Description: txn.Description,
			RawResponse: r.raw,
			Label:       txn.Category,
			Outcome:     r.outcome,
			Attempts:    r.attempts,
		}
	}

	counts := auditlog.Summary(res.Audit)
	log.Info().
		Int("exact", counts[auditlog.OutcomeExact]).
		Int("normalized", counts[auditlog.OutcomeNormalized]).
		Int("fallback", counts[auditlog.OutcomeFallback]).
		Int("resumed", counts[auditlog.OutcomeResumed]).
		Int("failed", counts[auditlog.OutcomeFailed]).
		Msg("categorization finished")
	return res, nil
}

func (c *Categorizer) categorizeRow(ctx context.Context, txn model.Transaction) rowResult {
	if label, ok := c.Prior.Lookup(txn); ok && c.Labels.Contains(label) {
		return rowResult{label: label, raw: label, outcome: auditlog.OutcomeResumed}
	}

	labels := c.Labels.Labels()
	log := logger.FromContext(ctx)
	attempts := 0
	var raw string
	op := func() error {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		attempts++
		var err error
		raw, err = c.call(ctx, txn.Description, labels)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		log.Debug().Err(err).Int("attempt", attempts).Dur("retry_in", next).Str("description", txn.Description).
			Msg("classification call failed")
	}

	if err := backoff.RetryNotify(op, c.backOff(ctx), notify); err != nil {
		return rowResult{outcome: auditlog.OutcomeFailed, attempts: attempts, err: err}
	}
	label, outcome := c.Labels.Sanitize(raw)
	return rowResult{label: label, raw: raw, outcome: auditlog.Outcome(outcome), attempts: attempts}
}

// backOff doubles the delay from Backoff between attempts, without jitter.
func (c *Categorizer) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.Backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(c.attempts()-1))
}

func (c *Categorizer) call(ctx context.Context, text string, labels []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()
	return c.Classifier.Classify(ctx, text, labels)
}

func (c *Categorizer) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

func (c *Categorizer) attempts() int {
	if c.Attempts < 1 {
		return 1
	}
	return c.Attempts
}

func (c *Categorizer) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Categorizer) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
