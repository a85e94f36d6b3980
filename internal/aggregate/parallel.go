package aggregate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ademuri/unwrapped/internal/history"
)

// A Source folds one unit of input, usually one history file, into agg. It is
// called from a single worker goroutine and owns agg for the duration of the
// call.
type Source func(ctx context.Context, agg Aggregator) error

// BatchSource is a Source over records that are already in memory.
func BatchSource(batch []history.Record) Source {
	return func(ctx context.Context, agg Aggregator) error {
		return agg.Ingest(batch)
	}
}

// IngestParallel runs sources on workers, each folding into its own aggregator
// created by newAgg, and merges the aggregators once every worker is done.
// Sources are dealt to workers round-robin and merged in worker order. The
// returned aggregator is not finalized.
func IngestParallel(ctx context.Context, newAgg func() (Aggregator, error), sources []Source, workers int) (Aggregator, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(sources) && len(sources) > 0 {
		workers = len(sources)
	}

	locals := make([]Aggregator, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			agg, err := newAgg()
			if err != nil {
				return err
			}
			for i := w; i < len(sources); i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := sources[i](ctx, agg); err != nil {
					return fmt.Errorf("source %d: %w", i, err)
				}
			}
			locals[w] = agg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := locals[0]
	for _, agg := range locals[1:] {
		if err := result.Merge(agg); err != nil {
			return nil, err
		}
	}
	logger.Debug("Merged worker aggregates",
		zap.Int("workers", workers),
		zap.Int("sources", len(sources)))
	return result, nil
}
