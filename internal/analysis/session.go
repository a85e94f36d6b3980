package analysis

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ademuri/unwrapped/internal/aggregate"
	"github.com/ademuri/unwrapped/internal/history"
)

// batchSize is how many records are handed to the aggregator at a time when
// files are read sequentially.
const batchSize = 1024

var logger = zap.NewNop()

// InitializeLogger sets the logger for the analysis package.
func InitializeLogger(l *zap.Logger) {
	logger = l
}

// Session owns one aggregator from the first file read until the summary is
// built.
type Session struct {
	cfg    Config
	reader *history.Reader
	agg    aggregate.Aggregator
	stats  history.Stats
	files  int
}

func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Validate accepts any case.
	cfg.Strategy, _ = aggregate.ParseStrategy(string(cfg.Strategy))
	agg, err := cfg.NewAggregator()
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:    cfg,
		reader: history.NewReader(cfg.Window),
		agg:    agg,
	}, nil
}

func (s *Session) Config() Config { return s.cfg }

func (s *Session) Aggregator() aggregate.Aggregator { return s.agg }

// Stats describes every record read so far.
func (s *Session) Stats() history.Stats { return s.stats }

func (s *Session) Files() int { return s.files }

// Ingest folds records that were already read and filtered.
func (s *Session) Ingest(batch []history.Record) error {
	return s.agg.Ingest(batch)
}

// IngestFiles reads every file into the session. With more than one worker,
// each file is streamed by a worker of aggregate.IngestParallel into that
// worker's aggregator.
func (s *Session) IngestFiles(ctx context.Context, paths []string) error {
	if s.cfg.Workers <= 1 || len(paths) <= 1 {
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats, err := ingestFile(ctx, s.reader, s.agg, path)
			s.stats.Add(stats)
			if err != nil {
				return err
			}
			s.files++
		}
		return nil
	}

	fileStats := make([]history.Stats, len(paths))
	sources := make([]aggregate.Source, len(paths))
	for i, path := range paths {
		i, path := i, path
		sources[i] = func(ctx context.Context, agg aggregate.Aggregator) error {
			stats, err := ingestFile(ctx, s.reader, agg, path)
			fileStats[i] = stats
			return err
		}
	}
	merged, err := aggregate.IngestParallel(ctx, s.cfg.NewAggregator, sources, s.cfg.Workers)
	for _, stats := range fileStats {
		s.stats.Add(stats)
	}
	if err != nil {
		return err
	}
	s.files += len(paths)
	return s.agg.Merge(merged)
}

// ingestFile streams one file into agg in batches of batchSize.
func ingestFile(ctx context.Context, reader *history.Reader, agg aggregate.Aggregator, path string) (history.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return history.Stats{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	batch := make([]history.Record, 0, batchSize)
	stats, err := reader.Each(f, func(r history.Record) error {
		batch = append(batch, r)
		if len(batch) < batchSize {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		err := agg.Ingest(batch)
		batch = batch[:0]
		return err
	})
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	if err := agg.Ingest(batch); err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}

	logger.Info("Ingested history file",
		zap.String("path", path),
		zap.Int("kept", stats.Kept),
		zap.Int("malformed", stats.Malformed),
		zap.Int("out_of_window", stats.OutOfWindow),
		zap.Int("too_short", stats.TooShort))
	return stats, nil
}

// Finalize makes the session read-only. Rankings are only available after.
func (s *Session) Finalize() error {
	return s.agg.Finalize()
}

// Top ranks one table using the configured length for it.
func (s *Session) Top(q aggregate.Query) (aggregate.Result, error) {
	return aggregate.TopK(s.agg, q, s.cfg.K(q.Category, q.Kind))
}

func (s *Session) Summary() (*Summary, error) {
	summary, err := GenerateSummary(s.agg, s.cfg)
	if err != nil {
		return nil, err
	}
	summary.Metadata.Files = s.files
	summary.Metadata.RecordsRead = s.stats.Read
	summary.Metadata.RecordsKept = s.stats.Kept
	summary.Metadata.Malformed = s.stats.Malformed
	return summary, nil
}
