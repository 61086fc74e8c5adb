// Package diag watches training loss streams for elements a run-length
// model cannot explain and captures batches worth keeping for later
// inspection.
package diag

import (
	"math"

	"github.com/Linkrw12/taiyaki/pkg/logger"
	"github.com/Linkrw12/taiyaki/pkg/stats"
)

// Options configure a Monitor.
type Options struct {
	// UpperQuantile is the loss tail fraction treated as outlying. The
	// default 0.05 flags the worst 5% of recent element losses.
	UpperQuantile float64
	// Window is how many recent element losses the threshold tracks.
	// Defaults to 1000.
	Window int
	// MinElements is how many losses must be seen before outliers are
	// reported. Defaults to 50.
	MinElements int
	// Logger receives warnings about degenerate batches. Defaults to the
	// process logger.
	Logger logger.Logger
}

// Monitor folds per-element scores into a rolling loss threshold and flags
// the elements above it. It is not safe for concurrent use.
type Monitor struct {
	roll    *stats.RollingQuantile
	log     logger.Logger
	batches int
}

// Report summarises one observed batch.
type Report struct {
	// Batch counts observed batches, starting at 1.
	Batch int
	// MeanLoss averages the finite element losses; zero when none are
	// finite.
	MeanLoss float64
	// Threshold is the rolling loss quantile. Valid only once Ready.
	Threshold float64
	// Ready reports whether enough losses have been seen to judge
	// outliers.
	Ready bool
	// Outliers lists elements whose loss exceeds Threshold.
	Outliers []int
	// Degenerate lists elements whose score was -Inf, meaning no
	// alignment of the target onto the blocks exists.
	Degenerate []int
}

// New returns a Monitor with defaults filled in.
func New(opts Options) *Monitor {
	if opts.UpperQuantile <= 0 || opts.UpperQuantile >= 1 {
		opts.UpperQuantile = 0.05
	}
	if opts.Window <= 0 {
		opts.Window = 1000
	}
	if opts.MinElements <= 0 {
		opts.MinElements = 50
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Monitor{
		roll: stats.NewRollingQuantile(opts.UpperQuantile, opts.Window, opts.MinElements),
		log:  log.With("component", "diag"),
	}
}

// Observe folds one batch of scores into the monitor. Scores are total
// alignment log probabilities, so the per-element loss is their negation.
// Outliers are judged against the threshold after this batch is folded in.
func (m *Monitor) Observe(scores []float32) Report {
	m.batches++
	rep := Report{Batch: m.batches}

	var sum float64
	var finite int
	losses := make([]float64, len(scores))
	for i, s := range scores {
		loss := -float64(s)
		losses[i] = loss
		if math.IsInf(loss, 1) {
			rep.Degenerate = append(rep.Degenerate, i)
			continue
		}
		sum += loss
		finite++
		rep.Threshold, rep.Ready = m.roll.Update(loss)
	}
	if finite > 0 {
		rep.MeanLoss = sum / float64(finite)
	}
	if rep.Ready {
		for i, loss := range losses {
			if !math.IsInf(loss, 1) && loss > rep.Threshold {
				rep.Outliers = append(rep.Outliers, i)
			}
		}
	}

	if len(rep.Degenerate) > 0 {
		m.log.Warn("degenerate batch elements",
			"batch", rep.Batch,
			"elements", rep.Degenerate,
		)
	}
	if len(rep.Outliers) > 0 {
		m.log.Debug("loss outliers",
			"batch", rep.Batch,
			"elements", rep.Outliers,
			"threshold", rep.Threshold,
		)
	}
	return rep
}
