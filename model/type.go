// Package model implements the linear model shared by every training
// algorithm: per-predicate parameter contexts, an outcome table, a prior and
// the evaluation that turns active features into outcome probabilities.
package model

// Type is the algorithm family a model was trained with. The set is closed.
type Type int

const (
	GIS Type = iota + 1
	Perceptron
	QN
	NaiveBayes
)

var typeTags = map[Type]string{
	GIS:        "GIS",
	Perceptron: "Perceptron",
	QN:         "QN",
	NaiveBayes: "NaiveBayes",
}

// Types returns every known family in tag order of declaration.
func Types() []Type {
	return []Type{GIS, Perceptron, QN, NaiveBayes}
}

// String returns the tag written at the head of a model file.
func (t Type) String() string {
	if s, ok := typeTags[t]; ok {
		return s
	}
	return "Unknown"
}

// Valid reports whether t is a known family.
func (t Type) Valid() bool {
	_, ok := typeTags[t]
	return ok
}

// ParseType maps a tag back to its Type.
func ParseType(tag string) (Type, bool) {
	for t, s := range typeTags {
		if s == tag {
			return t, true
		}
	}
	return 0, false
}
