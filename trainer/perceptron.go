package trainer

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/happyhackingspace/maxent/index"
	"github.com/happyhackingspace/maxent/model"
)

// Perceptron trains a multi-class perceptron over indexed events.
type Perceptron struct {
	Iterations int
	StepSize   float64
	// Averaged returns the parameters averaged over every update instead
	// of the final ones.
	Averaged bool
	// Tolerance stops training once training accuracy moved less than
	// this over the last three iterations.
	Tolerance float64
}

func (pt *Perceptron) Train(idx *index.DataIndex) (*model.Model, error) {
	ws := newWeights(idx)
	w := ws.w
	avg := newAverager(len(w), pt.Averaged)

	scores := make([]float64, ws.k)
	total := idx.NumEvents()
	var history []float64
	for iter := 1; iter <= pt.Iterations; iter++ {
		correct := 0
		for i, ctx := range idx.Contexts {
			ws.score(idx, i, w, scores)
			pred, gold := floats.MaxIdx(scores), idx.Outcomes[i]
			if pred == gold {
				correct += idx.Counts[i]
			} else {
				// duplicates of an event update together
				step := pt.StepSize * float64(idx.Counts[i])
				for j, p := range ctx {
					v := step * idx.Value(i, j)
					avg.add(w, ws.at(p, gold), v)
					avg.add(w, ws.at(p, pred), -v)
				}
			}
			avg.tick()
		}

		accuracy := float64(correct) / float64(total)
		slog.Debug("Perceptron iteration", "iteration", iter, "accuracy", accuracy)
		if correct == total || stalled(history, accuracy, pt.Tolerance) {
			slog.Debug("Perceptron converged", "iteration", iter, "accuracy", accuracy)
			break
		}
		history = append(history, accuracy)
	}

	return build(model.Perceptron, idx, ws.contexts(avg.result(w)))
}

// stalled reports whether accuracy is within tol of each of the last three
// recorded values.
func stalled(history []float64, accuracy, tol float64) bool {
	if len(history) < 3 {
		return false
	}
	for _, h := range history[len(history)-3:] {
		if math.Abs(h-accuracy) >= tol {
			return false
		}
	}
	return true
}

// averager keeps the running sum needed to average perceptron weights
// without touching every weight after every example.
type averager struct {
	enabled bool
	u       []float64
	c       float64
}

func newAverager(n int, enabled bool) *averager {
	a := &averager{enabled: enabled, c: 1}
	if enabled {
		a.u = make([]float64, n)
	}
	return a
}

func (a *averager) add(w []float64, i int, v float64) {
	w[i] += v
	if a.enabled {
		a.u[i] += a.c * v
	}
}

func (a *averager) tick() { a.c++ }

// result returns the averaged weights, or w itself when averaging is off.
func (a *averager) result(w []float64) []float64 {
	if !a.enabled {
		return w
	}
	out := make([]float64, len(w))
	for i := range w {
		out[i] = w[i] - a.u[i]/a.c
	}
	return out
}
