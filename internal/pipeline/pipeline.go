// Package pipeline turns statement files into categorized debit
// transactions. Batch and interactive front ends share it and differ only
// in their sources and in how they report errors.
package pipeline

import (
	"context"
	"errors"

	"github.com/gastos-dev/gastos/internal/auditlog"
	"github.com/gastos-dev/gastos/internal/logger"
	"github.com/gastos-dev/gastos/internal/model"
	"github.com/gastos-dev/gastos/internal/statement"
)

// Pipeline wires the loader, normalizer and categorizer.
type Pipeline struct {
	Registry    *statement.Registry
	Categorizer *Categorizer

	// SkipBadFiles turns a file's ParseError into a warning instead of
	// aborting the run.
	SkipBadFiles bool
}

// Output is everything a front end needs to render or export a run.
type Output struct {
	Transactions []model.Transaction
	Parsed       int // records read across all files, credits included
	Skipped      []*statement.ParseError
	Failures     []*ClassificationServiceError
	Audit        []auditlog.Entry
}

// Load reads and normalizes sources without classifying them.
func (p *Pipeline) Load(ctx context.Context, sources []statement.Source) (*Output, error) {
	log := logger.FromContext(ctx)
	reg := p.Registry
	if reg == nil {
		reg = statement.DefaultRegistry()
	}

	out := &Output{}
	var batches [][]statement.Record
	for _, src := range sources {
		recs, err := reg.Load(src)
		if err != nil {
			var perr *statement.ParseError
			if p.SkipBadFiles && errors.As(err, &perr) {
				log.Warn().Err(err).Str("file", src.Name).Msg("skipping statement")
				out.Skipped = append(out.Skipped, perr)
				continue
			}
			return nil, err
		}
		log.Info().Str("file", src.Name).Int("records", len(recs)).Msg("statement loaded")
		out.Parsed += len(recs)
		batches = append(batches, recs)
	}

	txns, err := Normalize(batches...)
	if err != nil {
		return nil, err
	}
	log.Info().Int("debits", len(txns)).Int("dropped", out.Parsed-len(txns)).Msg("transactions normalized")
	out.Transactions = txns
	return out, nil
}

// Run loads, normalizes and categorizes sources.
func (p *Pipeline) Run(ctx context.Context, sources []statement.Source) (*Output, error) {
	out, err := p.Load(ctx, sources)
	if err != nil {
		return nil, err
	}
	if p.Categorizer == nil {
		return nil, errors.New("pipeline: no categorizer configured")
	}

	res, err := p.Categorizer.Categorize(ctx, out.Transactions)
	if err != nil {
		return nil, err
	}
	out.Transactions = res.Transactions
	out.Failures = res.Failures
	out.Audit = res.Audit
	return out, nil
}
