package trainer

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/happyhackingspace/maxent/index"
	"github.com/happyhackingspace/maxent/model"
)

// QN trains a maximum entropy model by minimizing the regularized negative
// log-likelihood with L-BFGS, switching to OWL-QN when L1 is set.
type QN struct {
	Iterations int
	L1         float64
	L2         float64
	// Memory is the number of correction pairs L-BFGS keeps.
	Memory int
	// Tolerance stops training once the relative objective change falls
	// below it.
	Tolerance float64
}

func (q *QN) Train(idx *index.DataIndex) (*model.Model, error) {
	ws := newWeights(idx)
	n := len(ws.w)
	if n == 0 {
		return build(model.QN, idx, ws.contexts(ws.w))
	}

	w := ws.w
	grad := make([]float64, n)
	f := q.objective(ws, idx, w, grad)
	pg := make([]float64, n)
	pseudoGradient(w, grad, q.L1, pg)

	opt := newLBFGS(n, q.Memory)
	newGrad := make([]float64, n)
	newPG := make([]float64, n)
	s := make([]float64, n)
	y := make([]float64, n)
	l1 := q.L1 > 0

	slog.Debug("QN training", "iterations", q.Iterations, "l1", q.L1, "l2", q.L2, "memory", q.Memory, "objective", f)

	for iter := 1; iter <= q.Iterations; iter++ {
		dir := opt.direction(pg)
		if l1 {
			for i := range dir {
				if dir[i]*pg[i] > 0 {
					dir[i] = 0
				}
			}
		}

		next := lineSearch(w, dir, f, pg, orthant(w, pg), l1, func(v []float64) float64 {
			return q.objective(ws, idx, v, nil)
		})
		if next == nil {
			slog.Warn("QN line search found no descent direction, stopping", "iteration", iter)
			break
		}

		newF := q.objective(ws, idx, next, newGrad)
		pseudoGradient(next, newGrad, q.L1, newPG)
		floats.SubTo(s, next, w)
		floats.SubTo(y, newGrad, grad)
		opt.update(s, y)

		change := math.Abs(f-newF) / max(math.Abs(f), 1)
		copy(w, next)
		copy(grad, newGrad)
		copy(pg, newPG)
		f = newF

		slog.Debug("QN iteration", "iteration", iter, "objective", f)
		if change < q.Tolerance || floats.Norm(pg, math.Inf(1)) < q.Tolerance {
			slog.Debug("QN converged", "iteration", iter, "objective", f)
			break
		}
	}

	return build(model.QN, idx, ws.contexts(w))
}

// objective returns the regularized negative log-likelihood at w and, when
// grad is non-nil, writes the gradient of its smooth part.
func (q *QN) objective(ws *weights, idx *index.DataIndex, w, grad []float64) float64 {
	if grad != nil {
		clear(grad)
	}
	scores := make([]float64, ws.k)
	nll := 0.0
	for i, ctx := range idx.Contexts {
		ws.score(idx, i, w, scores)
		gold := idx.Outcomes[i]
		raw := scores[gold]
		lse := softmax(scores)
		c := float64(idx.Counts[i])
		nll -= c * (raw - lse)
		if grad == nil {
			continue
		}
		for j, p := range ctx {
			v := c * idx.Value(i, j)
			row := grad[p*ws.k : (p+1)*ws.k]
			floats.AddScaled(row, v, scores)
			row[gold] -= v
		}
	}
	if q.L2 > 0 {
		nll += 0.5 * q.L2 * floats.Dot(w, w)
		if grad != nil {
			floats.AddScaled(grad, q.L2, w)
		}
	}
	if q.L1 > 0 {
		nll += q.L1 * floats.Norm(w, 1)
	}
	return nll
}
