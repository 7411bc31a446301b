package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ownerscan-go/internal/aggregate"
	"ownerscan-go/internal/export"
	"ownerscan-go/internal/metrics"
)

var (
	// ErrConnection means the contract-query endpoint could not be reached.
	ErrConnection = errors.New("connect contract query endpoint")
	// ErrExport means the aggregate was computed but could not be written.
	ErrExport = errors.New("export aggregate")
)

// Querier is an OwnerQuerier that holds a connection.
type Querier interface {
	OwnerQuerier
	Close() error
}

// Dialer opens the contract-query connection for one scan.
type Dialer func(ctx context.Context) (Querier, error)

// Request is everything the command layer supplies for one scan.
type Request struct {
	Contract       string
	StartID        uint64
	EndID          uint64
	BatchSize      int
	NamePrefix     string
	Mode           aggregate.Mode
	ExcludeAddress string
}

// Stats counts what happened during a scan.
type Stats struct {
	RunID    string
	Batches  int
	Lookups  int
	Failures int
	Excluded int
	Duration time.Duration
}

// Report is the outcome of a successful scan.
type Report struct {
	export.Result
	Stats Stats
}

// Scanner runs scans one batch at a time against a freshly dialed querier.
type Scanner struct {
	log      zerolog.Logger
	dial     Dialer
	exporter *export.Exporter
	recorder FailureRecorder
}

// NewScanner builds a scanner; recorder may be nil.
func NewScanner(log zerolog.Logger, dial Dialer, exporter *export.Exporter, recorder FailureRecorder) *Scanner {
	return &Scanner{log: log, dial: dial, exporter: exporter, recorder: recorder}
}

// Run validates req, connects, folds every batch in order and exports the
// aggregate. Per-token failures only show up in logs and Stats.Failures.
func (s *Scanner) Run(ctx context.Context, req Request) (*Report, error) {
	if req.Contract == "" {
		return nil, errors.New("contract address is required")
	}
	batches, err := Split(req.StartID, req.EndID, req.BatchSize)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	stats := Stats{RunID: uuid.NewString()}
	log := s.log.With().
		Str("run_id", stats.RunID).
		Str("contract", req.Contract).
		Str("mode", req.Mode.String()).
		Logger()

	querier, err := s.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer querier.Close()

	log.Info().
		Uint64("start", req.StartID).
		Uint64("end", req.EndID).
		Int("batch_size", req.BatchSize).
		Int("batches", len(batches)).
		Msg("scan started")

	agg := aggregate.NewAggregator(req.Mode, req.ExcludeAddress)
	exec := NewExecutor(log, querier, s.recorder, stats.RunID)
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Uint64("next_token", batch.Start).Msg("scan interrupted")
			return nil, err
		}
		res := exec.RunBatch(ctx, req.Contract, batch)
		// lookups cut short by cancellation settle as failures; drop the batch
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Uint64("batch_start", batch.Start).Msg("scan interrupted mid-batch")
			return nil, err
		}
		excluded := agg.Fold(res.Successes)
		metrics.ExcludedTotal.Add(float64(excluded))

		stats.Batches++
		stats.Lookups += batch.Len()
		stats.Failures += res.Failures
	}
	stats.Excluded = agg.Stats().Excluded

	result, err := s.exporter.Export(agg.Accumulator(), req.NamePrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	stats.Duration = time.Since(started)
	log.Info().
		Int("lookups", stats.Lookups).
		Int("failures", stats.Failures).
		Int("excluded", stats.Excluded).
		Str("path", result.FilePath).
		Dur("took", stats.Duration).
		Msg("scan finished")
	return &Report{Result: *result, Stats: stats}, nil
}
