package trainer

import (
	"maps"
	"slices"

	"github.com/happyhackingspace/maxent/index"
	"github.com/happyhackingspace/maxent/model"
)

// NaiveBayes collects weighted predicate/outcome counts. Smoothing happens
// at evaluation time.
type NaiveBayes struct{}

func (NaiveBayes) Train(idx *index.DataIndex) (*model.Model, error) {
	counts := make([]map[int]float64, len(idx.PredLabels))
	for i, ctx := range idx.Contexts {
		for j, p := range ctx {
			if counts[p] == nil {
				counts[p] = make(map[int]float64)
			}
			counts[p][idx.Outcomes[i]] += float64(idx.Counts[i]) * idx.Value(i, j)
		}
	}

	params := make([]*model.MutableContext, len(counts))
	for p, c := range counts {
		outcomes := slices.Sorted(maps.Keys(c))
		params[p] = model.NewMutableContext(outcomes)
		for q, o := range outcomes {
			params[p].SetParameter(q, c[o])
		}
	}
	return build(model.NaiveBayes, idx, model.FreezeAll(params))
}
