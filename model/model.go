package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/happyhackingspace/maxent/internal/alphabet"
)

// Model is a trained, immutable evaluator. Eval and the lookup methods are
// safe for concurrent use.
type Model struct {
	typ      Type
	preds    *alphabet.Alphabet
	outcomes *alphabet.Alphabet
	params   *EvalParameters
	prior    Prior

	// naive Bayes only: log(total count of outcome + number of predicates)
	logDenom []float64
	logPrior []float64
}

// Option configures a Model.
type Option func(*Model)

// WithPrior sets the prior of a log-linear model. The default is UniformPrior.
func WithPrior(p Prior) Option {
	return func(m *Model) { m.prior = p }
}

// New builds a model from frozen contexts, one per predicate label.
func New(typ Type, contexts []Context, predLabels, outcomeLabels []string, opts ...Option) (*Model, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("model: unknown model type %d", typ)
	}
	if len(contexts) != len(predLabels) {
		return nil, fmt.Errorf("model: %d contexts for %d predicates", len(contexts), len(predLabels))
	}
	params, err := NewEvalParameters(contexts, len(outcomeLabels))
	if err != nil {
		return nil, err
	}
	m := &Model{
		typ:      typ,
		preds:    alphabet.FromLabels(predLabels),
		outcomes: alphabet.FromLabels(outcomeLabels),
		params:   params,
		prior:    UniformPrior{},
	}
	if len(distinct(predLabels)) != len(predLabels) {
		return nil, fmt.Errorf("model: duplicate predicate labels")
	}
	if len(distinct(outcomeLabels)) != len(outcomeLabels) {
		return nil, fmt.Errorf("model: duplicate outcome labels")
	}
	for _, opt := range opts {
		opt(m)
	}
	if fp, ok := m.prior.(*FixedPrior); ok && fp.Len() != len(outcomeLabels) {
		return nil, fmt.Errorf("model: prior covers %d outcomes, model has %d", fp.Len(), len(outcomeLabels))
	}
	if typ == NaiveBayes {
		if err := m.initNaiveBayes(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func distinct(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}

// initNaiveBayes derives the per-outcome totals from the stored counts.
func (m *Model) initNaiveBayes() error {
	k := m.params.NumOutcomes()
	totals := make([]float64, k)
	for _, c := range m.params.contexts {
		for j, o := range c.outcomes {
			if c.params[j] < 0 {
				return fmt.Errorf("model: negative naive Bayes count %v", c.params[j])
			}
			totals[o] += c.params[j]
		}
	}
	all := floats.Sum(totals)
	v := float64(m.params.Len())
	m.logDenom = make([]float64, k)
	m.logPrior = make([]float64, k)
	for o := range k {
		m.logDenom[o] = math.Log(totals[o] + v)
		m.logPrior[o] = math.Log((totals[o] + 1) / (all + float64(k)))
	}
	return nil
}

// Type returns the algorithm family.
func (m *Model) Type() Type { return m.typ }

// NumOutcomes returns the number of outcomes.
func (m *Model) NumOutcomes() int { return m.params.NumOutcomes() }

// Outcome returns the label of outcome i.
func (m *Model) Outcome(i int) string { return m.outcomes.Label(i) }

// Index returns the id of an outcome label, or -1.
func (m *Model) Index(outcome string) int { return m.outcomes.Get(outcome) }

// PredicateIndex returns the id of a predicate, or -1.
func (m *Model) PredicateIndex(pred string) int { return m.preds.Get(pred) }

// OutcomeLabels returns a copy of the outcome table.
func (m *Model) OutcomeLabels() []string { return m.outcomes.Labels() }

// PredLabels returns a copy of the predicate table.
func (m *Model) PredLabels() []string { return m.preds.Labels() }

// Params returns the evaluation parameters.
func (m *Model) Params() *EvalParameters { return m.params }

// Eval returns the probability of every outcome given the active features.
// Unknown features are ignored.
func (m *Model) Eval(context []string) []float64 {
	return m.EvalInto(context, nil, make([]float64, m.NumOutcomes()))
}

// EvalValues is Eval for real-valued features; values may be nil.
// It panics if values is non-nil and its length differs from context.
func (m *Model) EvalValues(context []string, values []float64) []float64 {
	return m.EvalInto(context, values, make([]float64, m.NumOutcomes()))
}

// EvalInto evaluates into probs, which must have NumOutcomes entries, and
// returns it. It panics on a values/context length mismatch like EvalValues.
func (m *Model) EvalInto(context []string, values []float64, probs []float64) []float64 {
	if values != nil && len(values) != len(context) {
		panic(fmt.Sprintf("model: %d values for %d features", len(values), len(context)))
	}
	if m.typ == NaiveBayes {
		m.evalNaiveBayes(context, values, probs)
	} else {
		m.evalLogLinear(context, values, probs)
	}
	normalize(probs)
	return probs
}

func (m *Model) evalLogLinear(context []string, values []float64, scores []float64) {
	m.prior.LogPrior(scores, context, values)
	for i, name := range context {
		id := m.preds.Get(name)
		if id < 0 {
			continue
		}
		v := 1.0
		if values != nil {
			v = values[i]
		}
		c := m.params.contexts[id]
		for j, o := range c.outcomes {
			scores[o] += c.params[j] * v
		}
	}
}

// evalNaiveBayes scores log P(o) + sum_f v_f * log((count(f,o)+1) / (total(o)+|V|)).
func (m *Model) evalNaiveBayes(context []string, values []float64, scores []float64) {
	copy(scores, m.logPrior)
	for i, name := range context {
		id := m.preds.Get(name)
		if id < 0 {
			continue
		}
		v := 1.0
		if values != nil {
			v = values[i]
		}
		floats.AddScaled(scores, -v, m.logDenom)
		c := m.params.contexts[id]
		for j, o := range c.outcomes {
			scores[o] += v * math.Log1p(c.params[j])
		}
	}
}

// normalize turns log scores into probabilities in place.
func normalize(scores []float64) {
	lse := floats.LogSumExp(scores)
	for i, s := range scores {
		scores[i] = math.Exp(s - lse)
	}
}

// BestOutcome returns the label with the highest probability. Ties go to
// the lowest outcome id.
func (m *Model) BestOutcome(probs []float64) string {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return m.Outcome(best)
}

// AllOutcomes formats every outcome with its probability, e.g.
// "cat[0.7500] dog[0.2500]".
func (m *Model) AllOutcomes(probs []float64) string {
	var b strings.Builder
	for i, p := range probs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(m.Outcome(i))
		b.WriteByte('[')
		b.WriteString(strconv.FormatFloat(p, 'f', 4, 64))
		b.WriteByte(']')
	}
	return b.String()
}

// Equal reports whether two models have the same type, outcome table,
// predicates and per-outcome parameters. Predicate order and the order of
// outcomes inside a pattern are not significant.
func (m *Model) Equal(o *Model) bool {
	if m.typ != o.typ || m.params.Len() != o.params.Len() || m.NumOutcomes() != o.NumOutcomes() {
		return false
	}
	for i := range m.NumOutcomes() {
		if m.Outcome(i) != o.Outcome(i) {
			return false
		}
	}
	for i := range m.params.Len() {
		j := o.preds.Get(m.preds.Label(i))
		if j < 0 {
			return false
		}
		a, b := m.params.contexts[i], o.params.contexts[j]
		if a.Len() != b.Len() {
			return false
		}
		want := make(map[int]float64, a.Len())
		for k, oid := range a.outcomes {
			want[oid] = a.params[k]
		}
		for k, oid := range b.outcomes {
			if p, ok := want[oid]; !ok || p != b.params[k] {
				return false
			}
		}
	}
	return true
}
