package oaepub

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ConvertBatch converts every input into its own package, running up to
// Config.Workers conversions at once. A failed or canceled article does not
// stop the others. The results are in input order.
func (c *Converter) ConvertBatch(ctx context.Context, inputs []string) []Result {
	results := make([]Result, len(inputs))
	c.forEach(ctx, len(inputs), func(ctx context.Context, i int) {
		res, _ := c.ConvertFile(ctx, inputs[i])
		results[i] = *res
	})

	c.log.Info("batch finished",
		zap.Int("articles", len(inputs)),
		zap.Int("failed", len(Failed(results))))
	return results
}

// forEach calls fn for 0..n-1 on at most Config.Workers goroutines and
// waits for all of them. fn records its own failures.
func (c *Converter) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	var g errgroup.Group
	g.SetLimit(c.cfg.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	return lo.Filter(results, func(r Result, _ int) bool { return r.Err != nil })
}
