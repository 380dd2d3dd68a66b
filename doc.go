// Package fadgo computes the Frechet Audio Distance (FAD) between two
// collections of audio embeddings, used to evaluate generative-audio-model
// output quality against a reference (background) distribution.
//
// The engine caches one embedding per (audio file, model) pair, aggregates
// Gaussian statistics per directory (batch or streaming), and compares
// distributions with a numerically stable Frechet distance. On top of the
// single score it offers FAD-inf (an infinite-sample extrapolation via
// bootstrap resampling and regression) and per-file anomaly ranking.
//
// Audio decoding and the embedding model are external collaborators behind
// the model.AudioLoader and model.EmbeddingModel interfaces.
//
// # Quick Start
//
//	ctx := context.Background()
//	fad, err := fadgo.New(myModel, myLoader,
//	    fadgo.WithWorkers(8),
//	    fadgo.WithLogLevel(slog.LevelInfo),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	if err := fad.Load(ctx); err != nil {
//	    panic(err)
//	}
//	defer fad.Close()
//
//	// Fill the embedding cache, then score.
//	if err := fad.CacheEmbeddings(ctx, "background", "eval"); err != nil {
//	    panic(err)
//	}
//	score, err := fad.Score(ctx, "background", "eval")
//
// Statistics are cached per (directory, model) and reused across runs.
// Cache validity is presence-only: source audio is assumed immutable once
// first cached.
package fadgo
