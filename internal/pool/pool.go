package pool

import (
	"context"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Concurrency int
	MaxAttempts int
	// CancelOnFailure cancels fragments still in flight once one fragment
	// has exhausted its attempts. Off by default: siblings run to completion
	// and land on disk after DownloadAll has already returned.
	CancelOnFailure bool
	Debug           bool
}

// Pool downloads the fragments of one job with bounded concurrency.
type Pool struct {
	client        utils.HTTPDoer
	cfg           Config
	renameBackOff func() backoff.BackOff
	log           zerolog.Logger
}

type result struct {
	fragment types.Fragment
	err      error
}

func New(client utils.HTTPDoer, cfg Config) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = utils.DefaultPoolLimit
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = utils.DefaultMaxAttempts
	}
	return &Pool{
		client:        client,
		cfg:           cfg,
		renameBackOff: defaultRenameBackOff,
		log:           utils.GetLogger("pool", cfg.Debug),
	}
}

// DownloadAll blocks until every fragment is on disk or the first fragment
// fails for good. onProgress is called from this goroutine only, once per
// completed fragment, with the completed percentage.
func (p *Pool) DownloadAll(ctx context.Context, fragments []types.Fragment, folder string, onProgress func(percent float64)) error {
	total := len(fragments)
	if total == 0 {
		return nil
	}
	workCtx, cancel := context.WithCancel(ctx)
	var stopped atomic.Bool
	results := make(chan result, total)

	go func() {
		defer cancel()
		var g errgroup.Group
		g.SetLimit(p.cfg.Concurrency)
		for _, fragment := range fragments {
			if stopped.Load() {
				break
			}
			fragment := fragment
			g.Go(func() error {
				if stopped.Load() {
					return nil
				}
				results <- result{fragment: fragment, err: p.fetchFragment(workCtx, fragment, folder)}
				return nil
			})
		}
		g.Wait()
	}()

	completed := 0
	for completed < total {
		select {
		case <-ctx.Done():
			stopped.Store(true)
			return ctx.Err()
		case res := <-results:
			if res.err != nil {
				stopped.Store(true)
				if p.cfg.CancelOnFailure {
					cancel()
				}
				p.log.Error().Err(res.err).Str("fragment", res.fragment.Name).Msg("batch failed")
				return res.err
			}
			completed++
			p.log.Debug().Str("fragment", res.fragment.Name).Int("completed", completed).Int("total", total).Msg("fragment done")
			if onProgress != nil {
				onProgress(float64(completed) / float64(total) * 100)
			}
		}
	}
	return nil
}
