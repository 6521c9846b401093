package model

import (
	"fmt"
	"math"
)

// EvalParameters holds one Context per predicate and the number of outcomes.
type EvalParameters struct {
	contexts    []Context
	numOutcomes int
}

// NewEvalParameters checks that every outcome id is below numOutcomes.
func NewEvalParameters(contexts []Context, numOutcomes int) (*EvalParameters, error) {
	if numOutcomes <= 0 {
		return nil, fmt.Errorf("model: numOutcomes must be positive, got %d", numOutcomes)
	}
	for i, c := range contexts {
		for _, o := range c.outcomes {
			if o >= numOutcomes {
				return nil, fmt.Errorf("model: predicate %d references outcome %d of %d", i, o, numOutcomes)
			}
		}
	}
	return &EvalParameters{contexts: contexts, numOutcomes: numOutcomes}, nil
}

func (p *EvalParameters) NumOutcomes() int { return p.numOutcomes }
func (p *EvalParameters) Len() int { return len(p.contexts) }
func (p *EvalParameters) Context(i int) Context { return p.contexts[i] }

// Prior provides the baseline log-distribution that feature contributions
// are added to.
type Prior interface {
	// LogPrior overwrites dist with log probabilities for the given context.
	LogPrior(dist []float64, context []string, values []float64)
}

// UniformPrior assigns every outcome the same probability.
type UniformPrior struct{}

func (UniformPrior) LogPrior(dist []float64, _ []string, _ []float64) {
	lp := math.Log(1.0 / float64(len(dist)))
	for i := range dist {
		dist[i] = lp
	}
}

// FixedPrior uses the same, possibly non-uniform, distribution for every
// context.
type FixedPrior struct {
	logp []float64
}

// NewFixedPrior creates a prior from a probability distribution. The
// probabilities are normalized; every entry must be positive.
func NewFixedPrior(probs []float64) (*FixedPrior, error) {
	if len(probs) == 0 {
		return nil, fmt.Errorf("model: empty prior")
	}
	sum := 0.0
	for i, p := range probs {
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("model: prior probability %d is %v", i, p)
		}
		sum += p
	}
	logp := make([]float64, len(probs))
	for i, p := range probs {
		logp[i] = math.Log(p / sum)
	}
	return &FixedPrior{logp: logp}, nil
}

// Len returns the number of outcomes the prior covers.
func (f *FixedPrior) Len() int { return len(f.logp) }

func (f *FixedPrior) LogPrior(dist []float64, _ []string, _ []float64) {
	copy(dist, f.logp)
}
