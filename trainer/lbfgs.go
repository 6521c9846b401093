package trainer

import (
	"gonum.org/v1/gonum/floats"
)

// lbfgs implements the L-BFGS two-loop recursion.
type lbfgs struct {
	n    int // number of variables
	m    int // memory size
	s    [][]float64
	y    [][]float64
	rho  []float64
	k    int
	size int
}

func newLBFGS(n, m int) *lbfgs {
	return &lbfgs{
		n:   n,
		m:   m,
		s:   make([][]float64, m),
		y:   make([][]float64, m),
		rho: make([]float64, m),
	}
}

// update stores a correction pair. Pairs violating the curvature
// condition are skipped.
func (l *lbfgs) update(s, y []float64) {
	sy := floats.Dot(s, y)
	if sy <= 0 {
		return
	}
	idx := l.k % l.m
	l.s[idx] = append(l.s[idx][:0], s...)
	l.y[idx] = append(l.y[idx][:0], y...)
	l.rho[idx] = 1.0 / sy
	l.k++
	if l.size < l.m {
		l.size++
	}
}

// slot maps the i-th stored pair, oldest first, to its ring index.
func (l *lbfgs) slot(i int) int {
	return (l.k - l.size + i) % l.m
}

// direction returns the quasi-Newton descent direction for gradient g.
func (l *lbfgs) direction(g []float64) []float64 {
	q := make([]float64, l.n)
	copy(q, g)

	if l.size == 0 {
		floats.Scale(-1, q)
		return q
	}

	alpha := make([]float64, l.size)
	for i := l.size - 1; i >= 0; i-- {
		idx := l.slot(i)
		alpha[i] = l.rho[idx] * floats.Dot(l.s[idx], q)
		floats.AddScaled(q, -alpha[i], l.y[idx])
	}

	// initial Hessian H_0 = (s_k^T y_k) / (y_k^T y_k)
	latest := l.slot(l.size - 1)
	if yy := floats.Dot(l.y[latest], l.y[latest]); yy > 0 {
		floats.Scale(floats.Dot(l.s[latest], l.y[latest])/yy, q)
	}

	for i := range l.size {
		idx := l.slot(i)
		beta := l.rho[idx] * floats.Dot(l.y[idx], q)
		floats.AddScaled(q, alpha[i]-beta, l.s[idx])
	}

	floats.Scale(-1, q)
	return q
}

// pseudoGradient writes the OWL-QN pseudo-gradient of f(w) + c1*|w|_1 into
// pg, given the gradient of the smooth part.
func pseudoGradient(w, grad []float64, c1 float64, pg []float64) {
	for i := range w {
		switch {
		case w[i] > 0:
			pg[i] = grad[i] + c1
		case w[i] < 0:
			pg[i] = grad[i] - c1
		case grad[i]+c1 < 0:
			pg[i] = grad[i] + c1
		case grad[i]-c1 > 0:
			pg[i] = grad[i] - c1
		default:
			pg[i] = 0
		}
	}
}

// orthant returns the sign pattern a step from w may not leave: the sign of
// w, or the sign opposite the pseudo-gradient where w is zero.
func orthant(w, pg []float64) []float64 {
	xi := make([]float64, len(w))
	for i := range w {
		switch {
		case w[i] > 0:
			xi[i] = 1
		case w[i] < 0:
			xi[i] = -1
		case pg[i] < 0:
			xi[i] = 1
		case pg[i] > 0:
			xi[i] = -1
		}
	}
	return xi
}

// lineSearch performs a backtracking line search along dir and returns the
// accepted point. With l1 set, trial points are projected onto xi. It
// returns nil when dir is not a descent direction.
func lineSearch(w, dir []float64, f float64, pg []float64, xi []float64, l1 bool, objective func([]float64) float64) []float64 {
	deriv := floats.Dot(dir, pg)
	if deriv >= 0 {
		return nil
	}

	const armijo = 1e-4
	step := 1.0
	next := make([]float64, len(w))
	for range 20 {
		floats.AddScaledTo(next, w, step, dir)
		if l1 {
			for i := range next {
				if next[i]*xi[i] <= 0 {
					next[i] = 0
				}
			}
		}
		if objective(next) <= f+armijo*step*deriv {
			return next
		}
		step *= 0.5
	}
	// last trial even without sufficient decrease
	return next
}
