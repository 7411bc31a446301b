package scan

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ownerscan-go/internal/aggregate"
	"ownerscan-go/internal/metrics"
)

// OwnerQuerier resolves the owner of one token.
type OwnerQuerier interface {
	OwnerOf(ctx context.Context, contract string, tokenID uint64) (string, error)
}

// Lookup is the settled outcome of one owner query.
type Lookup struct {
	TokenID uint64
	Owner   string
	Err     error
}

// BatchResult holds the successes of one batch in settle order.
type BatchResult struct {
	Successes []aggregate.Ownership
	Failures  int
}

// Executor runs the lookups of a batch concurrently.
type Executor struct {
	log      zerolog.Logger
	querier  OwnerQuerier
	recorder FailureRecorder
	runID    string
}

// NewExecutor wires an executor to a querier; recorder may be nil.
func NewExecutor(log zerolog.Logger, querier OwnerQuerier, recorder FailureRecorder, runID string) *Executor {
	return &Executor{log: log, querier: querier, recorder: recorder, runID: runID}
}

// RunBatch launches one lookup per token, waits for all of them to settle and
// returns the successes. A failed lookup is logged and counted, never returned.
func (e *Executor) RunBatch(ctx context.Context, contract string, batch Batch) BatchResult {
	started := time.Now()
	n := batch.Len()
	settled := make(chan Lookup, n)

	var g errgroup.Group
	g.SetLimit(n)
	for id := batch.Start; ; id++ {
		e.log.Debug().Uint64("token_id", id).Msg("preparing owner query")
		g.Go(func() error {
			owner, err := e.querier.OwnerOf(ctx, contract, id)
			settled <- Lookup{TokenID: id, Owner: owner, Err: err}
			return nil
		})
		if id == batch.End {
			break
		}
	}
	_ = g.Wait()
	close(settled)

	res := BatchResult{Successes: make([]aggregate.Ownership, 0, n)}
	for lookup := range settled {
		if lookup.Err != nil {
			res.Failures++
			e.fail(contract, lookup)
			continue
		}
		metrics.LookupsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		res.Successes = append(res.Successes, aggregate.Ownership{TokenID: lookup.TokenID, Owner: lookup.Owner})
	}

	metrics.BatchesTotal.Inc()
	metrics.BatchSeconds.Observe(time.Since(started).Seconds())
	e.log.Info().
		Uint64("start", batch.Start).
		Uint64("end", batch.End).
		Int("owners", len(res.Successes)).
		Int("failures", res.Failures).
		Dur("took", time.Since(started)).
		Msg("finished querying batch")
	return res
}

func (e *Executor) fail(contract string, lookup Lookup) {
	metrics.LookupsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
	e.log.Warn().Err(lookup.Err).Uint64("token_id", lookup.TokenID).Msg("owner query failed")
	if e.recorder != nil {
		e.recorder.Record(Failure{
			RunID:    e.runID,
			Contract: contract,
			TokenID:  lookup.TokenID,
			Error:    lookup.Err.Error(),
			At:       time.Now().UTC(),
		})
	}
}
