// Package alphabet interns strings as contiguous integer ids.
package alphabet

import "sort"

// Alphabet maps between string labels and integer IDs.
// IDs are contiguous and assigned in insertion order.
type Alphabet struct {
	toID  map[string]int
	toStr []string
}

// New creates an empty alphabet.
func New() *Alphabet {
	return &Alphabet{
		toID: make(map[string]int),
	}
}

// FromSorted builds an alphabet whose IDs follow the sorted order of names.
// Duplicate names are collapsed.
func FromSorted(names []string) *Alphabet {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	a := New()
	for _, s := range sorted {
		a.Add(s)
	}
	return a
}

// FromLabels builds an alphabet whose IDs are the positions in labels.
// The first occurrence wins when labels repeat.
func FromLabels(labels []string) *Alphabet {
	a := &Alphabet{
		toID:  make(map[string]int, len(labels)),
		toStr: make([]string, len(labels)),
	}
	copy(a.toStr, labels)
	for i, s := range labels {
		if _, ok := a.toID[s]; !ok {
			a.toID[s] = i
		}
	}
	return a
}

// Add adds a string to the alphabet if not already present, returns its ID.
func (a *Alphabet) Add(s string) int {
	if id, ok := a.toID[s]; ok {
		return id
	}
	id := len(a.toStr)
	a.toID[s] = id
	a.toStr = append(a.toStr, s)
	return id
}

// Get returns the ID for a string, or -1 if not found.
func (a *Alphabet) Get(s string) int {
	if id, ok := a.toID[s]; ok {
		return id
	}
	return -1
}

// Label returns the string for id. It panics if id is out of range.
func (a *Alphabet) Label(id int) string {
	return a.toStr[id]
}

// Labels returns a copy of all strings in ID order.
func (a *Alphabet) Labels() []string {
	out := make([]string, len(a.toStr))
	copy(out, a.toStr)
	return out
}

// Size returns the number of entries.
func (a *Alphabet) Size() int {
	return len(a.toStr)
}
