package chessgen

import (
	"context"
	"math/rand"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/chessgen/game"
	"github.com/chessgen/render"
)

// Generate materializes conf.Episodes chess episodes into the shard store
// at conf.StoreDir. At most conf.Workers episodes are resident at once;
// each is generated, flushed to its own shard, and released before its
// slot frees, so peak memory is independent of conf.Episodes.
//
// A persistence failure for one episode is reported in the returned error
// (a multierror of *PersistenceError) but does not stop the others.
// Cancelling ctx stops the run after in-flight episodes complete and are
// durably flushed; nothing is ever partially persisted.
func Generate(ctx context.Context, conf Config, logger *zap.Logger) (*Report, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("invalid generation config: %+v", conf)
	}
	store, err := NewStore(conf.StoreDir)
	if err != nil {
		return nil, err
	}
	return generate(ctx, conf, store, logger)
}

// generate is the seam the tests use to inject a failing writer.
func generate(ctx context.Context, conf Config, writer ShardWriter, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	type outcome struct {
		ran       bool
		samples   int
		truncated bool
		err       error
	}
	outcomes := make([]outcome, conf.Episodes)

	workers := conf.Workers
	if workers < 1 {
		workers = 1
	}
	var grp errgroup.Group
	grp.SetLimit(workers)

	for i := 0; i < conf.Episodes; i++ {
		if ctx.Err() != nil {
			logger.Info("generation cancelled", zap.Int("next_episode", i))
			break
		}
		i := i
		grp.Go(func() error {
			// The context is only consulted between episodes. Once an
			// episode starts it runs to completion and flushes.
			if ctx.Err() != nil {
				return nil
			}

			renderer, err := render.NewBoard(conf.FrameSize)
			if err != nil {
				outcomes[i] = outcome{ran: true, err: errors.Wrap(err, "renderer")}
				return nil
			}
			rng := rand.New(rand.NewSource(conf.Seed + int64(i)))
			gen := NewGenerator(conf, renderer, rng, logger)

			ep := gen.Run(i, game.NewChess())
			if _, err := writer.Write(ep.Index, ep.Samples); err != nil {
				logger.Error("shard write failed",
					zap.Int("episode", i),
					zap.Error(err))
				outcomes[i] = outcome{ran: true, err: err}
				return nil
			}

			last := ep.Samples[len(ep.Samples)-1]
			logger.Info("episode flushed",
				zap.Int("episode", i),
				zap.Int("samples", len(ep.Samples)),
				zap.Bool("truncated", last.Truncated))
			outcomes[i] = outcome{ran: true, samples: len(ep.Samples), truncated: last.Truncated}
			return nil
		})
	}
	_ = grp.Wait() // workers report through outcomes, never through errgroup

	report := &Report{}
	var errs *multierror.Error
	var lengths []float64
	for idx, o := range outcomes {
		switch {
		case !o.ran:
			// cancelled before start
		case o.err != nil:
			report.Failed++
			errs = multierror.Append(errs, o.err)
		default:
			report.Episodes = append(report.Episodes, EpisodeReport{
				Index:     idx,
				Samples:   o.samples,
				Truncated: o.truncated,
			})
			report.TotalSamples += o.samples
			lengths = append(lengths, float64(o.samples))
		}
	}
	if len(lengths) > 0 {
		report.MeanLength = stat.Mean(lengths, nil)
	}
	if len(lengths) > 1 {
		report.StdLength = stat.StdDev(lengths, nil)
	}
	return report, errs.ErrorOrNil()
}

// LoadConfig selects what the lazy loader brings into memory.
type LoadConfig struct {
	StoreDir string `yaml:"store_dir"`
	// MaxEpisodes bounds how many episodes are resident at once.
	// <= 0 loads everything discoverable.
	MaxEpisodes int `yaml:"max_episodes"`
}

// Load is the lazy load entry point: it lists the catalog, loads at most
// conf.MaxEpisodes episodes, and returns them with the total discoverable
// shard count. Unreadable shards are skipped and reported in the returned
// error; the rest still load.
func Load(conf LoadConfig, logger *zap.Logger) ([]Episode, int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := NewStore(conf.StoreDir)
	if err != nil {
		return nil, 0, err
	}
	refs, err := store.List()
	if err != nil {
		return nil, 0, err
	}
	episodes, loadErr := store.Load(refs, conf.MaxEpisodes)
	if loadErr != nil {
		logger.Warn("some shards failed to load",
			zap.Int("loaded", len(episodes)),
			zap.Int("total", len(refs)),
			zap.Error(loadErr))
	}
	logger.Info("shards loaded",
		zap.Int("loaded", len(episodes)),
		zap.Int("total", len(refs)))
	return episodes, len(refs), loadErr
}
