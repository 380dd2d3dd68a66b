package fadgo

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/fadgo/embedding"
	"github.com/hupe1980/fadgo/stats"
)

// Extrapolation is the result of a FAD-inf run: the regression intercept
// (the n→∞ extrapolation of the score) and the fitted slope against 1/n.
type Extrapolation struct {
	Value float64
	Slope float64
}

// FADInf estimates the FAD score at infinite eval-set size.
//
// The cached embeddings of evalFiles are concatenated; for `steps` sample
// sizes linearly spaced between minN and the total frame count, n frames
// are drawn uniformly at random with replacement, their batch statistics
// compared against the baseline, and an ordinary least-squares line of
// score against 1/n fitted across the steps.
//
// Steps are independent given the read-only inputs and run in a bounded
// pool. Each step samples from a generator derived from the engine seed and
// the step index, so results are deterministic under WithSeed regardless of
// scheduling.
func (f *FAD) FADInf(ctx context.Context, baselineDir string, evalFiles []string, steps, minN int) (Extrapolation, error) {
	if steps < 2 {
		return Extrapolation{}, ErrInvalidSteps
	}
	if minN < 1 {
		return Extrapolation{}, fmt.Errorf("%w: %d", ErrInvalidMinN, minN)
	}

	bg, err := f.loadStats(ctx, baselineDir)
	if err != nil {
		return Extrapolation{}, err
	}

	evalEmbeds, err := f.readConcat(ctx, evalFiles)
	if err != nil {
		return Extrapolation{}, err
	}

	maxN := evalEmbeds.Frames()
	if minN > maxN {
		return Extrapolation{}, fmt.Errorf("%w: %d exceeds %d available frames", ErrInvalidMinN, minN, maxN)
	}

	ns := sampleSizes(minN, maxN, steps)
	scores := make([]float64, steps)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, n := range ns {
		i, n := i, n
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := f.rng.Derive(int64(i))
			sub := evalEmbeds.Gather(rng.SampleWithReplacement(n, maxN))
			gs, err := stats.Batch(sub)
			if err != nil {
				return err
			}
			score, err := f.frechet(bg, gs)
			if err != nil {
				return fmt.Errorf("step n=%d: %w", n, err)
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Extrapolation{}, translateError(err)
	}

	xs := make([]float64, steps)
	for i, n := range ns {
		xs[i] = 1 / float64(n)
	}
	intercept, slope := stat.LinearRegression(xs, scores, nil, false)

	f.logger.InfoContext(ctx, "fad-inf completed",
		"baseline", baselineDir,
		"steps", steps,
		"frames", maxN,
		"value", intercept,
		"slope", slope,
	)
	return Extrapolation{Value: intercept, Slope: slope}, nil
}

func (f *FAD) readConcat(ctx context.Context, names []string) (*embedding.Array, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("fadgo: no eval files")
	}

	arrays := make([]*embedding.Array, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			a, err := f.cache.Read(ctx, name)
			if err != nil {
				return err
			}
			arrays[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, translateError(err)
	}
	return embedding.Concat(arrays...)
}

// sampleSizes returns `steps` integers linearly spaced over [minN, maxN]
// inclusive.
func sampleSizes(minN, maxN, steps int) []int {
	ns := make([]int, steps)
	span := float64(maxN - minN)
	for i := range ns {
		ns[i] = minN + int(math.Round(span*float64(i)/float64(steps-1)))
	}
	return ns
}
