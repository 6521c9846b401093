package trainer

import (
	"log/slog"
	"maps"
	"math"
	"slices"

	"github.com/happyhackingspace/maxent/index"
	"github.com/happyhackingspace/maxent/model"
)

// GIS trains a maximum entropy model with generalized iterative scaling.
type GIS struct {
	Iterations int
	// Smoothing is added to every observed expectation and gives each
	// predicate a parameter for every outcome. Zero disables it.
	Smoothing float64
	// Tolerance stops training once the log-likelihood changes less than
	// this between iterations.
	Tolerance float64
}

func (g *GIS) Train(idx *index.DataIndex) (*model.Model, error) {
	numOutcomes := len(idx.OutcomeLabels)
	numPreds := len(idx.PredLabels)

	cooc := make([]map[int]float64, numPreds)
	correction := 0.0
	for i, ctx := range idx.Contexts {
		sum := 0.0
		for j, p := range ctx {
			if cooc[p] == nil {
				cooc[p] = make(map[int]float64)
			}
			cooc[p][idx.Outcomes[i]] += idx.Value(i, j) * float64(idx.Counts[i])
			sum += idx.Value(i, j)
		}
		correction = max(correction, sum)
	}
	if correction == 0 {
		correction = 1
	}

	params := make([]*model.MutableContext, numPreds)
	observed := make([][]float64, numPreds)
	expected := make([][]float64, numPreds)
	for p := range numPreds {
		var outcomes []int
		if g.Smoothing > 0 {
			outcomes = make([]int, numOutcomes)
			for o := range outcomes {
				outcomes[o] = o
			}
		} else {
			outcomes = slices.Sorted(maps.Keys(cooc[p]))
		}
		params[p] = model.NewMutableContext(outcomes)
		observed[p] = make([]float64, len(outcomes))
		for q, o := range outcomes {
			observed[p][q] = cooc[p][o] + g.Smoothing
		}
		expected[p] = make([]float64, len(outcomes))
	}

	slog.Debug("GIS training", "iterations", g.Iterations, "correction", correction, "smoothing", g.Smoothing)

	scores := make([]float64, numOutcomes)
	prevLL := math.Inf(-1)
	for iter := 1; iter <= g.Iterations; iter++ {
		for p := range expected {
			clear(expected[p])
		}
		ll := 0.0
		for i, ctx := range idx.Contexts {
			evalMutable(params, idx, i, scores)
			softmax(scores)
			c := float64(idx.Counts[i])
			ll += c * math.Log(scores[idx.Outcomes[i]])
			for j, p := range ctx {
				v := c * idx.Value(i, j)
				mc := params[p]
				for q := range mc.Len() {
					expected[p][q] += v * scores[mc.Outcome(q)]
				}
			}
		}

		for p, mc := range params {
			for q := range mc.Len() {
				if observed[p][q] > 0 && expected[p][q] > 0 {
					mc.UpdateParameter(q, math.Log(observed[p][q]/expected[p][q])/correction)
				}
			}
		}

		slog.Debug("GIS iteration", "iteration", iter, "loglikelihood", ll)
		if math.Abs(ll-prevLL) < g.Tolerance {
			slog.Debug("GIS converged", "iteration", iter)
			break
		}
		prevLL = ll
	}

	return build(model.GIS, idx, model.FreezeAll(params))
}

// evalMutable fills scores with the unnormalized scores of event i under
// the training-time contexts.
func evalMutable(params []*model.MutableContext, idx *index.DataIndex, i int, scores []float64) {
	clear(scores)
	for j, p := range idx.Contexts[i] {
		v := idx.Value(i, j)
		mc := params[p]
		for q := range mc.Len() {
			scores[mc.Outcome(q)] += v * mc.Parameter(q)
		}
	}
}
