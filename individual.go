package fadgo

import (
	"context"
	"math"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/fadgo/stats"
)

// ScoreRecord is one ranked file: its name and its Frechet distance from
// the background distribution.
type ScoreRecord struct {
	Name  string
	Score float64
}

// FileError is one file excluded from a ranking batch, with the error that
// excluded it.
type FileError struct {
	Name string
	Err  error
}

// RankResult partitions a ranking batch into the files that scored and the
// files that failed. Failures never abort the batch; they are reported here
// instead of being silently dropped.
type RankResult struct {
	// Scores is sorted ascending by |score|: files closest to the
	// background distribution come first.
	Scores []ScoreRecord

	// Failures lists the files excluded from Scores.
	Failures []FileError
}

// RankIndividual scores every file under evalDir against the background
// statistics, in a bounded worker pool. Per-file errors are logged,
// recorded in the result and excluded from the scores; they are the only
// locally recoverable errors. Anything outside the per-file loop is fatal.
func (f *FAD) RankIndividual(ctx context.Context, background stats.Gaussian, evalDir string) (*RankResult, error) {
	names, err := f.cache.ListFiles(ctx, evalDir)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var mu sync.Mutex
	res := &RankResult{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for _, name := range names {
		name := name
		g.Go(func() error {
			score, err := f.scoreOne(gctx, background, name)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.logger.LogFileSkipped(gctx, name, err)
				res.Failures = append(res.Failures, FileError{Name: name, Err: err})
				return nil
			}
			res.Scores = append(res.Scores, ScoreRecord{Name: name, Score: score})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(res.Scores, func(i, j int) bool {
		a, b := math.Abs(res.Scores[i].Score), math.Abs(res.Scores[j].Score)
		if a != b {
			return a < b
		}
		return res.Scores[i].Name < res.Scores[j].Name
	})

	f.metrics.RecordRank(len(res.Scores), len(res.Failures), time.Since(start))
	return res, nil
}

func (f *FAD) scoreOne(ctx context.Context, background stats.Gaussian, name string) (float64, error) {
	a, err := f.cache.Read(ctx, name)
	if err != nil {
		return 0, translateError(err)
	}
	gs, err := stats.Batch(a)
	if err != nil {
		return 0, translateError(err)
	}
	return f.frechet(background, gs)
}

// ScoreIndividual ranks every file under evalDir against the background
// directory's statistics and writes the result as a comma-separated report
// under <dataDir>/fad-individual/<model>/<reportName>, one `path,score`
// line per ranked file.
//
// When the report already exists the run is skipped entirely and the empty
// string is returned; presence decides, the contents are not verified.
// Otherwise the report path is returned.
func (f *FAD) ScoreIndividual(ctx context.Context, backgroundDir, evalDir, reportName string) (string, error) {
	reportPath := path.Join(f.dataDir, "fad-individual", f.model.Name(), reportName)

	ok, err := f.cache.Store().Exists(ctx, reportPath)
	if err != nil {
		return "", err
	}
	if ok {
		f.logger.LogReportSkipped(ctx, reportPath)
		return "", nil
	}

	background, err := f.loadStats(ctx, backgroundDir)
	if err != nil {
		return "", err
	}

	res, err := f.RankIndividual(ctx, background, evalDir)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, rec := range res.Scores {
		// Commas inside the path would break the two-field format; they
		// are replaced, not quoted, to keep the report trivially parseable.
		sb.WriteString(strings.ReplaceAll(rec.Name, ",", "_"))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(rec.Score, 'g', -1, 64))
		sb.WriteByte('\n')
	}
	if err := f.cache.Store().Put(ctx, reportPath, []byte(sb.String())); err != nil {
		return "", err
	}

	f.logger.LogReportWritten(ctx, reportPath, len(res.Scores), len(res.Failures))
	return reportPath, nil
}
